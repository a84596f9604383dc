package feed

import (
	"context"

	"github.com/MrEthical07/goLink/storage"
)

// Hooks receives pipeline events. Nil fields are ignored.
type Hooks struct {
	Pushed       func()
	Deduplicated func()
}

// Options configure a pipeline.
type Options[T any] struct {
	// Transform maps a raw update to the value pushed to the caller. An
	// update for which it returns false is skipped.
	Transform func(ctx context.Context, u storage.Update) (T, bool)
	// Equal reports whether two consecutive values are the same snapshot.
	Equal func(a, b T) bool
	// Clone copies a pushed value before it is kept for comparison, so a
	// receiver may modify what it gets. Nil keeps the pushed value itself.
	Clone func(T) T
	// Buffer is the output channel capacity.
	Buffer int
	Hooks  Hooks
}

// Pipe consumes src until ctx is done or src closes, pushing transformed
// values that differ from the previous push. The first value is always
// pushed. The returned channel is closed when the pipeline stops.
func Pipe[T any](ctx context.Context, src <-chan storage.Update, opts Options[T]) <-chan T {
	buffer := opts.Buffer
	if buffer < 0 {
		buffer = 0
	}
	out := make(chan T, buffer)

	go func() {
		defer close(out)

		var (
			last    T
			started bool
		)
		for {
			var (
				u  storage.Update
				ok bool
			)
			select {
			case <-ctx.Done():
				return
			case u, ok = <-src:
				if !ok {
					return
				}
			}

			next, ok := opts.Transform(ctx, u)
			if !ok {
				continue
			}
			if started && opts.Equal(last, next) {
				if opts.Hooks.Deduplicated != nil {
					opts.Hooks.Deduplicated()
				}
				continue
			}

			last = next
			if opts.Clone != nil {
				last = opts.Clone(next)
			}
			started = true
			if opts.Hooks.Pushed != nil {
				opts.Hooks.Pushed()
			}
			select {
			case out <- next:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
