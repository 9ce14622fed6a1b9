// Package worker fans independent units of work out over a bounded number of
// goroutines and collects every unit's outcome.
package worker

import (
	"cmp"
	"context"
	"fmt"
	"runtime/debug"
	"slices"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Result is the outcome of one unit.
type Result[K cmp.Ordered, V any] struct {
	Key      K
	Value    V
	Err      error
	Duration time.Duration
}

// PanicError is returned for a unit whose function panicked.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Run calls fn once per key with at most limit units in flight (limit <= 0
// means one per key). A unit's error or panic is recorded in its Result and
// never cancels the others. Results are sorted by key.
func Run[K cmp.Ordered, V any](ctx context.Context, log zerolog.Logger, keys []K, limit int,
	fn func(ctx context.Context, key K) (V, error)) []Result[K, V] {
	results := make([]Result[K, V], len(keys))
	if len(keys) == 0 {
		return results
	}

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			start := time.Now()
			res := Result[K, V]{Key: key}
			func() {
				defer func() {
					if r := recover(); r != nil {
						res.Err = &PanicError{Value: r, Stack: debug.Stack()}
					}
				}()
				res.Value, res.Err = fn(ctx, key)
			}()
			res.Duration = time.Since(start)
			if res.Err != nil {
				log.Error().Err(res.Err).Any("unit", key).Str("duration", res.Duration.String()).Msg("work unit failed")
			} else {
				log.Debug().Any("unit", key).Str("duration", res.Duration.String()).Msg("work unit complete")
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	slices.SortFunc(results, func(a, b Result[K, V]) int {
		return cmp.Compare(a.Key, b.Key)
	})
	return results
}

// Failed returns the keys of units that returned an error.
func Failed[K cmp.Ordered, V any](results []Result[K, V]) []K {
	var keys []K
	for _, r := range results {
		if r.Err != nil {
			keys = append(keys, r.Key)
		}
	}
	return keys
}
