// Package sink writes accepted families to their destinations.
//
// Every sink receives completed families (the empty set included) one at a
// time and is used by a single goroutine: the search loop in sequential
// mode, the Stream writer in parallel mode. Text and file sinks emit one
// rendered family per line with no header or footer.
package sink

import (
	"bufio"
	"context"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/matzehuels/semiframes/pkg/errors"
	"github.com/matzehuels/semiframes/pkg/family"
	"github.com/matzehuels/semiframes/pkg/observability"
)

// Sink consumes accepted families.
type Sink interface {
	// Write emits f, a family over {1..n}.
	Write(ctx context.Context, n int, f family.Family) error

	// Close flushes buffered output and releases resources.
	Close() error
}

// SizePlaceholder is replaced by the ground-set size in output patterns.
const SizePlaceholder = "{n}"

// Text renders one family per line to a writer.
type Text struct {
	w      *bufio.Writer
	closer io.Closer
}

// NewText returns a sink writing to w. Closing it flushes w but does not
// close it.
func NewText(w io.Writer) *Text {
	return &Text{w: bufio.NewWriter(w)}
}

// PatternPath substitutes n into pattern.
func PatternPath(pattern string, n int) string {
	return strings.ReplaceAll(pattern, SizePlaceholder, strconv.Itoa(n))
}

// CreateFile creates (or truncates) the file for size n named by pattern
// and returns a Text sink that owns it.
func CreateFile(pattern string, n int) (*Text, error) {
	path := PatternPath(pattern, n)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrap(errors.ErrCodeIO, err, "create directory %s", dir)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "create %s", path)
	}
	return &Text{w: bufio.NewWriter(f), closer: f}, nil
}

// Write implements Sink.
func (t *Text) Write(_ context.Context, n int, f family.Family) error {
	if _, err := t.w.WriteString(f.Render(n)); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "write family")
	}
	if err := t.w.WriteByte('\n'); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "write family")
	}
	return nil
}

// Close implements Sink.
func (t *Text) Close() error {
	err := t.w.Flush()
	if t.closer != nil {
		err = stderrors.Join(err, t.closer.Close())
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "close output")
	}
	return nil
}

type discard struct{}

// Discard returns a sink that drops everything, for quiet runs that only
// need the final count.
func Discard() Sink { return discard{} }

func (discard) Write(context.Context, int, family.Family) error { return nil }
func (discard) Close() error                                    { return nil }

// Collector keeps written families in memory.
type Collector struct {
	mu       sync.Mutex
	families []family.Family
}

// Collect returns an empty Collector.
func Collect() *Collector { return &Collector{} }

// Write implements Sink.
func (c *Collector) Write(_ context.Context, _ int, f family.Family) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.families = append(c.families, f.Clone())
	return nil
}

// Close implements Sink.
func (c *Collector) Close() error { return nil }

// Families returns the collected families in write order.
func (c *Collector) Families() []family.Family {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]family.Family, len(c.families))
	copy(out, c.families)
	return out
}

// Len returns the number of collected families.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.families)
}

type tee []Sink

// Tee writes every family to all sinks in order, stopping at the first
// failure. Close closes all of them.
func Tee(sinks ...Sink) Sink {
	if len(sinks) == 1 {
		return sinks[0]
	}
	return tee(sinks)
}

func (t tee) Write(ctx context.Context, n int, f family.Family) error {
	for _, s := range t {
		if err := s.Write(ctx, n, f); err != nil {
			return err
		}
	}
	return nil
}

func (t tee) Close() error {
	var errs []error
	for _, s := range t {
		errs = append(errs, s.Close())
	}
	return stderrors.Join(errs...)
}

type instrumented struct {
	name  string
	inner Sink
}

// Instrument reports every write of s to the registered sink hooks under
// the given name.
func Instrument(name string, s Sink) Sink {
	return &instrumented{name: name, inner: s}
}

func (s *instrumented) Write(ctx context.Context, n int, f family.Family) error {
	if err := s.inner.Write(ctx, n, f); err != nil {
		observability.Sink().OnWriteError(ctx, s.name, n, err)
		return err
	}
	observability.Sink().OnWrite(ctx, s.name, n)
	return nil
}

func (s *instrumented) Close() error { return s.inner.Close() }
