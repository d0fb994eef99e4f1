package search

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/semiframes/pkg/canon"
	"github.com/matzehuels/semiframes/pkg/family"
	"github.com/matzehuels/semiframes/pkg/observability"
	"github.com/matzehuels/semiframes/pkg/sink"
)

// Run enumerates the families over {1..n} selected by opts and writes the
// accepted ones, completed with the empty set, to out. out is not closed.
//
// n = 0 is a no-op. Cancelling ctx stops either strategy and returns
// ctx.Err(); families already written stay written.
func (r *Runner) Run(ctx context.Context, n int, opts Options, out sink.Sink) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(n); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	result := &Result{RunID: opts.RunID, N: n, Mode: opts.Mode()}
	if n == 0 {
		return result, nil
	}

	start := family.New(family.Universe(n))
	if opts.Start != nil {
		start = canon.CanonicalizeOnce(withoutEmpty(opts.Start), n)
	}

	r.Logger.Info("searching",
		"n", n,
		"mode", result.Mode,
		"threads", opts.Threads,
		"limit", limitLabel(opts.Limit),
		"start", start.Render(n))
	observability.Search().OnSearchStart(ctx, n, result.Mode, opts.Threads)

	began := time.Now()
	var err error
	if opts.Threads <= 1 {
		err = r.sequential(ctx, n, start, &opts, out, result)
	} else {
		err = r.parallel(ctx, n, start, &opts, out, result)
	}
	result.Duration = time.Since(began)

	observability.Cache().OnCacheStats(ctx, n, result.Cache.Hits, result.Cache.Misses, result.Cache.Clears)
	observability.Search().OnSearchComplete(ctx, n, result.Mode, result.Found, result.Explored, result.Duration, err)
	if err != nil {
		return result, err
	}

	r.Logger.Info("search complete",
		"n", n,
		"found", result.Found,
		"explored", result.Explored,
		"hit_limit", result.HitLimit,
		"duration", result.Duration.Round(time.Millisecond))
	return result, nil
}

// report delivers a progress tick to the callback, the hooks and the log.
func (r *Runner) report(ctx context.Context, n int, opts *Options, explored, found int64) {
	if opts.Progress != nil {
		opts.Progress(explored, found)
	}
	observability.Search().OnSearchProgress(ctx, n, explored, found)
	r.Logger.Debug("exploring", "n", n, "explored", explored, "found", found)
}

func withoutEmpty(f family.Family) family.Family {
	if len(f) > 0 && f[0] == 0 {
		return f[1:]
	}
	return f
}

func limitLabel(limit int) string {
	if limit == 0 {
		return "unlimited"
	}
	return fmt.Sprint(limit)
}
