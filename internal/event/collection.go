package event

import "sync"

// Collection holds accepted records, unique by Key. Safe for concurrent use.
type Collection struct {
	mu      sync.Mutex
	index   map[Key]struct{}
	records []*Record
}

// NewCollection creates an empty collection
func NewCollection() *Collection {
	return &Collection{
		index: make(map[Key]struct{}),
	}
}

// Accept stores r unless a record with the same key is already present.
// Returns false for a duplicate; the first accepted record wins.
func (c *Collection) Accept(r *Record) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := r.Key()
	if _, exists := c.index[key]; exists {
		return false
	}
	c.index[key] = struct{}{}
	c.records = append(c.records, r)
	return true
}

// Contains reports whether a record with key has been accepted
func (c *Collection) Contains(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, exists := c.index[key]
	return exists
}

// Len returns the number of accepted records
func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

// Records returns the accepted records in acceptance order
func (c *Collection) Records() []*Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Record, len(c.records))
	copy(out, c.records)
	return out
}
