package search

import (
	"context"

	"github.com/matzehuels/semiframes/pkg/canon"
	"github.com/matzehuels/semiframes/pkg/family"
	"github.com/matzehuels/semiframes/pkg/sink"
)

// frame is one level of the depth-first walk: the children of a family and
// the index of the next one to visit.
type frame struct {
	children []family.Family
	next     int
}

// batch buffers discovered families until they are filtered and written.
type batch struct {
	n       int
	opts    *Options
	out     sink.Sink
	pending []family.Family
	found   int64
}

// flush filters and writes the pending families. It reports whether the
// limit has been reached; families past the limit are dropped.
func (b *batch) flush(ctx context.Context) (bool, error) {
	limit := int64(b.opts.Limit)
	defer func() { b.pending = b.pending[:0] }()
	for _, f := range b.pending {
		completed, ok := accept(f, b.n, b.opts)
		if !ok {
			continue
		}
		if limit > 0 && b.found >= limit {
			return true, nil
		}
		if err := b.out.Write(ctx, b.n, completed); err != nil {
			return false, err
		}
		b.found++
	}
	return limit > 0 && b.found >= limit, nil
}

// sequential walks the generation tree in preorder with an explicit stack.
// Children are visited in Extend order, so output is reproducible.
func (r *Runner) sequential(ctx context.Context, n int, start family.Family, opts *Options, out sink.Sink, result *Result) error {
	c := canon.New(opts.CacheSize)
	defer func() { result.Cache = c.Cache.Stats() }()

	b := &batch{n: n, opts: opts, out: out, pending: make([]family.Family, 0, min(opts.BatchSize, 4096))}
	defer func() {
		result.Found = b.found
		result.HitLimit = opts.Limit > 0 && b.found >= int64(opts.Limit)
	}()

	b.pending = append(b.pending, start)
	result.Explored = 1

	stack := []frame{{children: Extend(c, start, n)}}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		top := &stack[len(stack)-1]
		if top.next == len(top.children) {
			stack = stack[:len(stack)-1]
			continue
		}
		child := top.children[top.next]
		top.next++

		b.pending = append(b.pending, child)
		result.Explored++
		if result.Explored%int64(opts.LogInterval) == 0 {
			r.report(ctx, n, opts, result.Explored, b.found)
		}

		if len(b.pending) >= opts.BatchSize {
			hit, err := b.flush(ctx)
			if err != nil {
				return err
			}
			if hit {
				r.Logger.Info("reached limit", "n", n, "limit", opts.Limit)
				return nil
			}
		}

		stack = append(stack, frame{children: Extend(c, child, n)})
	}

	_, err := b.flush(ctx)
	return err
}
