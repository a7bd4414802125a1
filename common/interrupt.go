package common

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// InterruptContext returns a context canceled on the first interrupt signal.
// A second signal exits the process.
func InterruptContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	interrupt := make(chan os.Signal, 2)
	signal.Notify(interrupt,
		os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT,
	)
	go func() {
		defer signal.Stop(interrupt)
		for i := 0; i < 2; i++ {
			select {
			case <-parent.Done():
				return
			case sig := <-interrupt:
				slog.Warn("Received signal", "signal", sig, "i", i)
				if i == 0 {
					cancel()
				} else {
					log.Fatalln("Force exit")
				}
			}
		}
	}()
	return ctx, cancel
}
