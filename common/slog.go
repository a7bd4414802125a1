package common

import (
	"io"
	"log/slog"
)

// SlogResetLevel sets the default slog level and returns a function that
// puts the previous level back. It pairs well with defer:
//
//	func Test123(t *testing.T) {
//	    defer common.SlogResetLevel(slog.LevelWarn + 1)()
func SlogResetLevel(level slog.Level) (reset func()) {
	oldLevel := slog.SetLogLoggerLevel(level)
	return func() {
		slog.SetLogLoggerLevel(oldLevel)
	}
}

// SlogSetDefault makes a text logger writing to w at level the default logger.
func SlogSetDefault(w io.Writer, level slog.Level) {
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	})))
}
