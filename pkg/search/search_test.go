package search

import (
	"context"
	"io"
	"slices"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/semiframes/pkg/canon"
	"github.com/matzehuels/semiframes/pkg/errors"
	"github.com/matzehuels/semiframes/pkg/family"
	"github.com/matzehuels/semiframes/pkg/sink"
)

func testRunner() *Runner {
	return NewRunner(log.New(io.Discard))
}

func run(t *testing.T, n int, opts Options) ([]family.Family, *Result) {
	t.Helper()
	out := sink.Collect()
	res, err := testRunner().Run(context.Background(), n, opts, out)
	require.NoError(t, err)
	return out.Families(), res
}

func rendered(fs []family.Family, n int) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.Render(n)
	}
	return out
}

func keys(fs []family.Family) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.Key()
	}
	slices.Sort(out)
	return out
}

func TestRunCounts(t *testing.T) {
	tests := []struct {
		n              int
		semitopologies int
		semiframes     int
	}{
		{1, 1, 1},
		{2, 3, 2},
		{3, 14, 10},
		{4, 165, 138},
	}
	for _, tt := range tests {
		for _, threads := range []int{1, 4} {
			opts := DefaultOptions()
			opts.Threads = threads

			got, res := run(t, tt.n, opts)
			assert.Len(t, got, tt.semitopologies, "n=%d threads=%d semitopologies", tt.n, threads)
			assert.Equal(t, int64(tt.semitopologies), res.Found)
			assert.Equal(t, int64(tt.semitopologies), res.Explored)
			assert.False(t, res.HitLimit)

			opts.Semiframes = true
			got, res = run(t, tt.n, opts)
			assert.Len(t, got, tt.semiframes, "n=%d threads=%d semiframes", tt.n, threads)
			assert.Equal(t, int64(tt.semitopologies), res.Explored, "semiframe mode explores the same tree")
			assert.Equal(t, ModeSemiframes, res.Mode)
		}
	}
}

func TestRunSingleton(t *testing.T) {
	got, _ := run(t, 1, DefaultOptions())
	assert.Equal(t, []string{"{{}, {1}}"}, rendered(got, 1))
}

func TestRunSequentialOrder(t *testing.T) {
	got, _ := run(t, 2, DefaultOptions())
	assert.Equal(t, []string{
		"{{}, {1, 2}}",
		"{{}, {2}, {1, 2}}",
		"{{}, {1}, {2}, {1, 2}}",
	}, rendered(got, 2))

	got, _ = run(t, 3, DefaultOptions())
	assert.Equal(t, []string{
		"{{}, {1, 2, 3}}",
		"{{}, {3}, {1, 2, 3}}",
		"{{}, {2, 3}, {1, 2, 3}}",
		"{{}, {1}, {2, 3}, {1, 2, 3}}",
		"{{}, {3}, {2, 3}, {1, 2, 3}}",
		"{{}, {2}, {3}, {2, 3}, {1, 2, 3}}",
		"{{}, {1, 3}, {2, 3}, {1, 2, 3}}",
		"{{}, {2}, {1, 3}, {2, 3}, {1, 2, 3}}",
		"{{}, {1, 2}, {1, 3}, {2, 3}, {1, 2, 3}}",
		"{{}, {3}, {1, 3}, {2, 3}, {1, 2, 3}}",
		"{{}, {2}, {3}, {1, 3}, {2, 3}, {1, 2, 3}}",
		"{{}, {3}, {1, 2}, {1, 3}, {2, 3}, {1, 2, 3}}",
		"{{}, {2}, {3}, {1, 2}, {1, 3}, {2, 3}, {1, 2, 3}}",
		"{{}, {1}, {2}, {3}, {1, 2}, {1, 3}, {2, 3}, {1, 2, 3}}",
	}, rendered(got, 3))
}

func TestRunOutputIndependentOfBatchAndCache(t *testing.T) {
	want, _ := run(t, 4, DefaultOptions())
	for _, tweak := range []struct {
		name  string
		apply func(*Options)
	}{
		{"batch 1", func(o *Options) { o.BatchSize = 1 }},
		{"batch 7", func(o *Options) { o.BatchSize = 7 }},
		{"no cache", func(o *Options) { o.CacheSize = 0 }},
		{"tiny cache", func(o *Options) { o.CacheSize = 3 }},
	} {
		t.Run(tweak.name, func(t *testing.T) {
			opts := DefaultOptions()
			tweak.apply(&opts)
			got, _ := run(t, 4, opts)
			assert.Equal(t, rendered(want, 4), rendered(got, 4))
		})
	}
}

func TestRunParallelMatchesSequential(t *testing.T) {
	for _, semiframes := range []bool{false, true} {
		opts := DefaultOptions()
		opts.Semiframes = semiframes
		want, _ := run(t, 4, opts)

		for _, threads := range []int{2, 3, 8} {
			opts.Threads = threads
			got, _ := run(t, 4, opts)
			assert.Equal(t, keys(want), keys(got), "threads=%d semiframes=%v", threads, semiframes)
		}
	}
}

func TestRunGeneratedFamilies(t *testing.T) {
	const n = 4
	got, _ := run(t, n, DefaultOptions())
	universe := family.Universe(n)

	generated := make(map[string]bool, len(got))
	for _, f := range got {
		assert.True(t, f.IsUnionClosed(), "%s is not union-closed", f.Render(n))
		assert.True(t, f.Contains(0))
		assert.True(t, f.Contains(universe))
		generated[f[1:].Key()] = true
	}

	c := canon.New(0)
	forms := make(map[string]bool, len(got))
	for _, f := range got {
		tracked := f[1:]
		cf := c.Canonicalize(tracked, n)
		assert.Equal(t, tracked, cf, "generated families are canonical")
		assert.False(t, forms[cf.Key()], "duplicate class %s", f.Render(n))
		forms[cf.Key()] = true

		if len(tracked) > 1 {
			parent := c.CanonicalDelete(tracked, n)
			assert.True(t, generated[parent.Key()], "parent of %s was not generated", f.Render(n))
		}
	}
}

func TestRunZero(t *testing.T) {
	out := sink.Collect()
	res, err := testRunner().Run(context.Background(), 0, DefaultOptions(), out)
	require.NoError(t, err)
	assert.Zero(t, res.Found)
	assert.Zero(t, res.Explored)
	assert.Zero(t, out.Len())
}

func TestRunLimit(t *testing.T) {
	unlimited, _ := run(t, 4, DefaultOptions())
	all := map[string]bool{}
	for _, f := range unlimited {
		all[f.Key()] = true
	}

	for _, threads := range []int{1, 4} {
		opts := DefaultOptions()
		opts.Threads = threads
		opts.Limit = 1
		got, res := run(t, 4, opts)
		require.Len(t, got, 1, "threads=%d", threads)
		assert.True(t, all[got[0].Key()])
		assert.True(t, res.HitLimit)
		assert.Equal(t, int64(1), res.Found)
		if threads == 1 {
			assert.Equal(t, "{{}, {1, 2, 3, 4}}", got[0].Render(4))
		}
	}
}

func TestRunLimitCapsWrites(t *testing.T) {
	unlimited, _ := run(t, 4, DefaultOptions())

	for _, threads := range []int{1, 2, 8} {
		for _, limit := range []int{5, 50} {
			opts := DefaultOptions()
			opts.Threads = threads
			opts.Limit = limit
			opts.BatchSize = 16
			got, res := run(t, 4, opts)
			assert.Len(t, got, limit, "threads=%d limit=%d", threads, limit)
			assert.Equal(t, int64(limit), res.Found)
			assert.True(t, res.HitLimit)
			if threads == 1 {
				assert.Equal(t, rendered(unlimited[:limit], 4), rendered(got, 4), "sequential prefix is stable")
			}
		}
	}
}

func TestRunLimitAboveTotal(t *testing.T) {
	opts := DefaultOptions()
	opts.Limit = 1000
	got, res := run(t, 3, opts)
	assert.Len(t, got, 14)
	assert.False(t, res.HitLimit)
}

func TestRunPredicate(t *testing.T) {
	var mu sync.Mutex
	var seen []family.Family

	for _, threads := range []int{1, 4} {
		seen = nil
		opts := DefaultOptions()
		opts.Threads = threads
		opts.Semiframes = true
		opts.Predicate = PredicateFunc(func(n int, f family.Family) bool {
			mu.Lock()
			seen = append(seen, f)
			mu.Unlock()
			return f.Len() == 5
		})

		got, _ := run(t, 3, opts)
		for _, f := range got {
			assert.Equal(t, 5, f.Len())
		}
		for _, f := range seen {
			assert.True(t, f.Contains(0), "predicate sees completed families")
			assert.True(t, f.Distinguished(3), "predicate only sees distinguished families")
		}
		assert.Len(t, seen, 10)
		assert.NotEmpty(t, got)
	}
}

func TestRunStart(t *testing.T) {
	tests := []struct {
		name  string
		start string
		want  []string
	}{
		{
			name:  "triangle is a leaf",
			start: "{{1, 2}, {1, 3}, {2, 3}, {1, 2, 3}}",
			want:  []string{"{{}, {1, 2}, {1, 3}, {2, 3}, {1, 2, 3}}"},
		},
		{
			name:  "subtree",
			start: "{{3}, {1, 3}, {2, 3}, {1, 2, 3}}",
			want: []string{
				"{{}, {3}, {1, 3}, {2, 3}, {1, 2, 3}}",
				"{{}, {2}, {3}, {1, 3}, {2, 3}, {1, 2, 3}}",
				"{{}, {3}, {1, 2}, {1, 3}, {2, 3}, {1, 2, 3}}",
				"{{}, {2}, {3}, {1, 2}, {1, 3}, {2, 3}, {1, 2, 3}}",
				"{{}, {1}, {2}, {3}, {1, 2}, {1, 3}, {2, 3}, {1, 2, 3}}",
			},
		},
		{
			name:  "canonicalized first",
			start: "{{}, {1}, {1, 2}, {1, 2, 3}}",
			want: []string{
				"{{}, {3}, {2, 3}, {1, 2, 3}}",
				"{{}, {2}, {3}, {2, 3}, {1, 2, 3}}",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, err := family.Parse(tt.start, 3)
			require.NoError(t, err)
			opts := DefaultOptions()
			opts.Start = start
			got, _ := run(t, 3, opts)
			assert.Equal(t, tt.want, rendered(got, 3))
		})
	}
}

func TestRunInvalidOptions(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		apply func(*Options)
		code  errors.Code
	}{
		{"negative threads", 3, func(o *Options) { o.Threads = -1 }, errors.ErrCodeInvalidConfig},
		{"negative limit", 3, func(o *Options) { o.Limit = -2 }, errors.ErrCodeInvalidConfig},
		{"size too large", 33, func(*Options) {}, errors.ErrCodeInvalidRange},
		{"start beyond n", 2, func(o *Options) { o.Start = family.New(3, 7) }, errors.ErrCodeInvalidFamily},
		{"start not union-closed", 3, func(o *Options) { o.Start = family.New(1, 2, 7) }, errors.ErrCodeInvalidFamily},
		{"start without universe", 3, func(o *Options) { o.Start = family.New(1, 3) }, errors.ErrCodeInvalidFamily},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.apply(&opts)
			out := sink.Collect()
			_, err := testRunner().Run(context.Background(), tt.n, opts, out)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.code), "got %v", err)
			assert.Zero(t, out.Len(), "no work before validation passes")
		})
	}
}

func TestValidateAndSetDefaults(t *testing.T) {
	var opts Options
	require.NoError(t, opts.ValidateAndSetDefaults(3))
	assert.Equal(t, DefaultBatchSize, opts.BatchSize)
	assert.Equal(t, DefaultLogInterval, opts.LogInterval)
	assert.Equal(t, DefaultThreads, opts.Threads)
	assert.Zero(t, opts.CacheSize, "zero cache size stays disabled")
	assert.Zero(t, opts.Limit, "zero limit stays unlimited")
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, threads := range []int{1, 4} {
		opts := DefaultOptions()
		opts.Threads = threads
		_, err := testRunner().Run(ctx, 4, opts, sink.Collect())
		assert.ErrorIs(t, err, context.Canceled, "threads=%d", threads)
	}
}

type brokenSink struct{}

func (brokenSink) Write(context.Context, int, family.Family) error {
	return errors.New(errors.ErrCodeIO, "disk full")
}
func (brokenSink) Close() error { return nil }

func TestRunWriteError(t *testing.T) {
	for _, threads := range []int{1, 4} {
		opts := DefaultOptions()
		opts.Threads = threads
		opts.BatchSize = 1
		_, err := testRunner().Run(context.Background(), 3, opts, brokenSink{})
		require.Error(t, err, "threads=%d", threads)
		assert.True(t, errors.Is(err, errors.ErrCodeIO))
	}
}

func TestRunProgress(t *testing.T) {
	var calls []int64
	opts := DefaultOptions()
	opts.LogInterval = 5
	opts.Progress = func(explored, found int64) {
		calls = append(calls, explored)
		assert.LessOrEqual(t, found, explored)
	}
	run(t, 3, opts)
	assert.Equal(t, []int64{5, 10}, calls)
}

func TestRunID(t *testing.T) {
	_, res := run(t, 2, DefaultOptions())
	assert.NotEmpty(t, res.RunID)

	opts := DefaultOptions()
	opts.RunID = "fixed"
	_, res = run(t, 2, opts)
	assert.Equal(t, "fixed", res.RunID)
}

func TestExtend(t *testing.T) {
	c := canon.New(0)
	tests := []struct {
		name string
		f    family.Family
		n    int
		want []family.Family
	}{
		{"n=2 root", family.New(3), 2, []family.Family{family.New(2, 3)}},
		{"n=2 chain", family.New(2, 3), 2, []family.Family{family.New(1, 2, 3)}},
		{"n=2 discrete leaf", family.New(1, 2, 3), 2, nil},
		{"n=3 root", family.New(7), 3, []family.Family{family.New(4, 7), family.New(6, 7)}},
		{"n=3 leaf", family.New(4, 7), 3, nil},
		{"n=0", nil, 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extend(c, tt.f, tt.n))
		})
	}
}

func TestAccept(t *testing.T) {
	opts := DefaultOptions()
	completed, ok := accept(family.New(3), 2, &opts)
	assert.True(t, ok)
	assert.Equal(t, family.New(0, 3), completed)

	opts.Semiframes = true
	_, ok = accept(family.New(3), 2, &opts)
	assert.False(t, ok, "indiscrete family does not separate its points")

	called := false
	opts.Predicate = PredicateFunc(func(int, family.Family) bool { called = true; return false })
	_, ok = accept(family.New(3), 2, &opts)
	assert.False(t, ok)
	assert.False(t, called, "predicate runs only after the distinguished test")

	_, ok = accept(family.New(2, 3), 2, &opts)
	assert.False(t, ok)
	assert.True(t, called)
}
