package cache

import "github.com/matzehuels/semiframes/pkg/family"

// Null is a no-op cache that never stores anything.
// Used when caching is disabled (capacity 0).
type Null struct {
	misses int64
}

// NewNull creates a null cache.
func NewNull() *Null {
	return &Null{}
}

// Get always returns a cache miss.
func (c *Null) Get(string) (family.Family, bool) {
	c.misses++
	return nil, false
}

// Set does nothing.
func (c *Null) Set(string, family.Family) {}

// Len is always zero.
func (c *Null) Len() int { return 0 }

// Stats reports every lookup as a miss.
func (c *Null) Stats() Stats { return Stats{Misses: c.misses} }

// Ensure Null implements Cache.
var _ Cache = (*Null)(nil)
