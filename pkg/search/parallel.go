package search

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/semiframes/pkg/cache"
	"github.com/matzehuels/semiframes/pkg/canon"
	"github.com/matzehuels/semiframes/pkg/family"
	"github.com/matzehuels/semiframes/pkg/sink"
)

// parallel explores every node as its own task in a pool of opts.Threads
// goroutines. When the pool is saturated a child runs inline in its
// parent's task, so spawning never blocks.
//
// The stop flag is checked when a task starts; tasks already running may
// overshoot the limit, but writes are capped at opts.Limit.
func (r *Runner) parallel(ctx context.Context, n int, start family.Family, opts *Options, out sink.Sink, result *Result) error {
	var (
		explored, found      atomic.Int64
		hits, misses, clears atomic.Int64
		stop                 atomic.Bool
		pool                 errgroup.Group
	)
	limit := int64(opts.Limit)
	capped := func(v int64) int64 {
		if limit > 0 {
			return min(v, limit)
		}
		return v
	}
	stream := sink.NewStream(ctx, out)
	pool.SetLimit(opts.Threads)

	var visit func(f family.Family)
	visit = func(f family.Family) {
		if stop.Load() || ctx.Err() != nil || stream.Failed() {
			return
		}

		if e := explored.Add(1); e%int64(opts.LogInterval) == 0 {
			r.report(ctx, n, opts, e, capped(found.Load()))
		}

		if completed, ok := accept(f, n, opts); ok {
			idx := found.Add(1)
			if limit == 0 || idx <= limit {
				stream.Send(n, completed)
			}
			if limit > 0 && idx >= limit {
				stop.Store(true)
				return
			}
		}

		c := canon.New(opts.CacheSize)
		children := Extend(c, f, n)
		stats := c.Cache.Stats()
		hits.Add(stats.Hits)
		misses.Add(stats.Misses)
		clears.Add(stats.Clears)

		for _, child := range children {
			if stop.Load() {
				return
			}
			if !pool.TryGo(func() error { visit(child); return nil }) {
				visit(child)
			}
		}
	}

	visit(start)
	_ = pool.Wait()
	writeErr := stream.Close()

	result.Explored = explored.Load()
	result.Found = capped(found.Load())
	result.HitLimit = limit > 0 && result.Found >= limit
	result.Cache = cache.Stats{Hits: hits.Load(), Misses: misses.Load(), Clears: clears.Load()}

	if err := ctx.Err(); err != nil {
		return err
	}
	return writeErr
}
