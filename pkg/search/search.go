// Package search enumerates semitopologies and semiframes up to relabeling
// of the ground points.
//
// The search is an orderly generation: starting from a canonical seed
// family it repeatedly adds one subset that keeps the family union-closed,
// canonicalizes the result, and keeps it only if removing the smallest
// member and canonicalizing again gives back the family it grew from. Every
// isomorphism class is therefore reached exactly once.
//
// # Strategies
//
// With Threads <= 1 the tree is walked depth-first with an explicit stack.
// Discovered families collect in a buffer that is filtered and written every
// BatchSize families; one canonical-form cache serves the whole run and the
// output order is reproducible.
//
// With Threads > 1 every node becomes a task in a bounded goroutine pool.
// Tasks share nothing but atomic counters, a stop flag and a Stream feeding
// a single writer, and each task canonicalizes with its own throwaway cache.
// Output order is unspecified.
//
// # Usage
//
//	runner := search.NewRunner(logger)
//	opts := search.DefaultOptions()
//	opts.Semiframes = true
//	result, err := runner.Run(ctx, 4, opts, sink.NewText(os.Stdout))
package search

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/semiframes/pkg/cache"
	"github.com/matzehuels/semiframes/pkg/canon"
	"github.com/matzehuels/semiframes/pkg/errors"
	"github.com/matzehuels/semiframes/pkg/family"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultCacheSize is the number of canonical forms memoized per run.
	DefaultCacheSize = canon.DefaultCacheSize

	// DefaultBatchSize is the number of families buffered between writes
	// in the sequential strategy.
	DefaultBatchSize = 100000

	// DefaultLogInterval is the number of explored families between
	// progress reports.
	DefaultLogInterval = 10000

	// DefaultThreads selects the sequential strategy.
	DefaultThreads = 1
)

// Mode names used in logs, hooks and sink keys.
const (
	ModeSemitopologies = "semitopologies"
	ModeSemiframes     = "semiframes"
)

// =============================================================================
// Options
// =============================================================================

// Predicate filters completed families (the empty set included). In
// parallel mode Accept is called from many goroutines at once.
type Predicate interface {
	Accept(n int, f family.Family) bool
}

// PredicateFunc adapts a function to Predicate.
type PredicateFunc func(n int, f family.Family) bool

// Accept calls p.
func (p PredicateFunc) Accept(n int, f family.Family) bool { return p(n, f) }

// ProgressFunc receives running totals every LogInterval explored families.
// In parallel mode it is called from many goroutines at once.
type ProgressFunc func(explored, found int64)

// Options configures a search run.
//
// CacheSize and Limit keep zero as a meaningful value (no cache, no limit),
// so start from DefaultOptions rather than the zero value.
type Options struct {
	CacheSize   int  `toml:"cache_size" json:"cache_size"`
	Limit       int  `toml:"limit" json:"limit"`
	BatchSize   int  `toml:"batch_size" json:"batch_size"`
	LogInterval int  `toml:"log_interval" json:"log_interval"`
	Threads     int  `toml:"threads" json:"threads"`
	Semiframes  bool `toml:"semiframes" json:"semiframes"`

	// Runtime options (not serialized)
	Start     family.Family `toml:"-" json:"-"` // seed family; default {universe}
	Predicate Predicate     `toml:"-" json:"-"`
	Progress  ProgressFunc  `toml:"-" json:"-"`
	RunID     string        `toml:"-" json:"-"` // generated when empty
}

// DefaultOptions returns the options of an unlimited semitopology search.
func DefaultOptions() Options {
	return Options{
		CacheSize:   DefaultCacheSize,
		BatchSize:   DefaultBatchSize,
		LogInterval: DefaultLogInterval,
		Threads:     DefaultThreads,
	}
}

// Mode returns ModeSemiframes or ModeSemitopologies.
func (o *Options) Mode() string {
	if o.Semiframes {
		return ModeSemiframes
	}
	return ModeSemitopologies
}

// ValidateAndSetDefaults rejects negative settings and unusable starting
// families for size n, and fills BatchSize, LogInterval and Threads when
// unset.
func (o *Options) ValidateAndSetDefaults(n int) error {
	if n < 0 || n > family.MaxSize {
		return errors.New(errors.ErrCodeInvalidRange, "size %d is outside [0, %d]", n, family.MaxSize)
	}
	for _, v := range []struct {
		name  string
		value int
	}{
		{"cache_size", o.CacheSize},
		{"limit", o.Limit},
		{"batch_size", o.BatchSize},
		{"log_interval", o.LogInterval},
		{"threads", o.Threads},
	} {
		if v.value < 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "%s must not be negative, got %d", v.name, v.value)
		}
	}

	if o.BatchSize == 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.LogInterval == 0 {
		o.LogInterval = DefaultLogInterval
	}
	if o.Threads == 0 {
		o.Threads = DefaultThreads
	}

	if o.Start != nil {
		return ValidateStart(o.Start, n)
	}
	return nil
}

// ValidateStart checks that f can seed a search over {1..n}: it must lie
// within the ground set, be union-closed, and contain the full set. The
// empty set is allowed and ignored.
func ValidateStart(f family.Family, n int) error {
	if !f.Fits(n) {
		return errors.New(errors.ErrCodeInvalidFamily, "starting family references points beyond n=%d", n)
	}
	if !f.IsUnionClosed() {
		return errors.New(errors.ErrCodeInvalidFamily, "starting family is not union-closed")
	}
	if n > 0 && !f.Contains(family.Universe(n)) {
		return errors.New(errors.ErrCodeInvalidFamily, "starting family must contain the full set {1..%d}", n)
	}
	return nil
}

// =============================================================================
// Result
// =============================================================================

// Result summarizes one search run.
type Result struct {
	RunID    string        `json:"run_id"`
	N        int           `json:"n"`
	Mode     string        `json:"mode"`
	Found    int64         `json:"found"`     // families written
	Explored int64         `json:"explored"`  // families generated, the seed included
	HitLimit bool          `json:"hit_limit"` // stopped because Limit was reached
	Duration time.Duration `json:"duration"`
	Cache    cache.Stats   `json:"-"`
}

// Runner executes searches. It holds no per-run state, so one Runner may
// serve concurrent runs.
type Runner struct {
	Logger *log.Logger
}

// NewRunner creates a runner. If logger is nil, log.Default() is used.
func NewRunner(logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Logger: logger}
}
