package media

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"basegraph.app/autoresponder/internal/metrics"
)

// collect runs fn over items concurrently and returns the successful results in
// input order. A failed or panicking item is logged, counted and dropped; it never
// stops the others.
func collect[In, Out any](ctx context.Context, kind string, items []In, label func(In) string, fn func(context.Context, In) (Out, error)) []Out {
	if len(items) == 0 {
		return nil
	}

	results := make([]Out, len(items))
	ok := make([]bool, len(items))

	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func() {
			defer wg.Done()

			out, err := safeCall(ctx, item, fn)
			if err != nil {
				reason := skipReason(err)
				slog.WarnContext(ctx, "skipping media item",
					"kind", kind,
					"item", label(item),
					"reason", reason,
					"error", err)
				metrics.RecordMediaSkipped(kind, reason)
				return
			}
			results[i] = out
			ok[i] = true
		}()
	}
	wg.Wait()

	kept := make([]Out, 0, len(items))
	for i := range results {
		if ok[i] {
			kept = append(kept, results[i])
		}
	}
	return kept
}

func safeCall[In, Out any](ctx context.Context, item In, fn func(context.Context, In) (Out, error)) (out Out, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrDecode, r)
		}
	}()
	return fn(ctx, item)
}
