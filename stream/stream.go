package stream

import (
	"context"
)

// Slice, et al., taken from:
// https://betterprogramming.pub/writing-a-stream-api-in-go-afbc3c4350e2

func Slice[T any](ctx context.Context, in []T) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		for _, element := range in {
			select {
			case <-ctx.Done():
				return
			case out <- element:
			}
		}
	}()
	return out
}

// Batch groups elements into slices of size n. The last batch may be short.
func Batch[T any](ctx context.Context, n int, in <-chan T) <-chan []T {
	out := make(chan []T)
	go func() {
		defer close(out)
		batch := make([]T, 0, n)
		for element := range in {
			batch = append(batch, element)
			if len(batch) < n {
				continue
			}
			select {
			case <-ctx.Done():
				return
			case out <- batch:
			}
			batch = make([]T, 0, n)
		}
		if len(batch) > 0 {
			select {
			case <-ctx.Done():
			case out <- batch:
			}
		}
	}()
	return out
}

func Collect[T any](ctx context.Context, in <-chan T) []T {
	out := make([]T, 0)
	for element := range in {
		select {
		case <-ctx.Done():
			return out
		default:
			out = append(out, element)
		}
	}
	return out
}
