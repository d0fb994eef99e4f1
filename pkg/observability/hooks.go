// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about searches, canonical-form caches, and output sinks.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main (or by the HTTP server, which exports them as
// Prometheus metrics), never by the libraries that emit the events.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetSearchHooks(&mySearchHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Search().OnSearchStart(ctx, n, "semiframes", threads)
//	// ... enumerate ...
//	observability.Search().OnSearchComplete(ctx, n, "semiframes", found, explored, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Search Hooks
// =============================================================================

// SearchHooks receives events from the enumeration engine.
type SearchHooks interface {
	// OnSearchStart is called once per size before any family is explored.
	OnSearchStart(ctx context.Context, n int, mode string, threads int)

	// OnSearchProgress is called every log interval with running totals.
	OnSearchProgress(ctx context.Context, n int, explored, found int64)

	// OnSearchComplete is called once per size, also on failure.
	OnSearchComplete(ctx context.Context, n int, mode string, found, explored int64, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives canonical-form cache statistics.
type CacheHooks interface {
	// OnCacheStats reports the counters of one cache when its owner is done
	// with it: the whole run for a sequential search, one task in parallel.
	OnCacheStats(ctx context.Context, n int, hits, misses, clears int64)
}

// =============================================================================
// Sink Hooks
// =============================================================================

// SinkHooks receives events from output sinks.
type SinkHooks interface {
	// OnWrite records one family written to the named sink.
	OnWrite(ctx context.Context, sink string, n int)

	// OnWriteError records a failed write.
	OnWriteError(ctx context.Context, sink string, n int, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopSearchHooks is a no-op implementation of SearchHooks.
type NoopSearchHooks struct{}

func (NoopSearchHooks) OnSearchStart(context.Context, int, string, int)     {}
func (NoopSearchHooks) OnSearchProgress(context.Context, int, int64, int64) {}
func (NoopSearchHooks) OnSearchComplete(context.Context, int, string, int64, int64, time.Duration, error) {
}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheStats(context.Context, int, int64, int64, int64) {}

// NoopSinkHooks is a no-op implementation of SinkHooks.
type NoopSinkHooks struct{}

func (NoopSinkHooks) OnWrite(context.Context, string, int)             {}
func (NoopSinkHooks) OnWriteError(context.Context, string, int, error) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	searchHooks SearchHooks = NoopSearchHooks{}
	cacheHooks  CacheHooks  = NoopCacheHooks{}
	sinkHooks   SinkHooks   = NoopSinkHooks{}
	hooksMu     sync.RWMutex
)

// SetSearchHooks registers custom search hooks.
// This should be called once at application startup before any search runs.
func SetSearchHooks(h SearchHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		searchHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any search runs.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetSinkHooks registers custom sink hooks.
// This should be called once at application startup before any output is written.
func SetSinkHooks(h SinkHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		sinkHooks = h
	}
}

// Search returns the registered search hooks.
func Search() SearchHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return searchHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Sink returns the registered sink hooks.
func Sink() SinkHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return sinkHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	searchHooks = NoopSearchHooks{}
	cacheHooks = NoopCacheHooks{}
	sinkHooks = NoopSinkHooks{}
}
