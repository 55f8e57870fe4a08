package neat

import (
	"sync"
	"sync/atomic"
)

type innovationKind int

const (
	connectionInnovation innovationKind = iota
	hiddenNodeInnovation
)

type innovationKey struct {
	kind     innovationKind
	src, dst int
}

// InnovationRegistry hands out historical IDs so that the same structural
// mutation arising in different lineages receives the same ID.
//
// Node and connection IDs come from separate counters. The cache lives for
// the whole run; ClearCache only has an effect when clearing was enabled with
// NewInnovationRegistry(WithClearableCache()).
type InnovationRegistry struct {
	mu    sync.Mutex
	cache map[innovationKey]int

	lastNodeID       atomic.Int64
	lastConnectionID atomic.Int64

	clearable bool
}

// InnovationOption configures an InnovationRegistry.
type InnovationOption func(*InnovationRegistry)

// WithClearableCache allows ClearCache to drop cached innovations.
func WithClearableCache() InnovationOption {
	return func(r *InnovationRegistry) { r.clearable = true }
}

// NewInnovationRegistry creates an empty registry.
func NewInnovationRegistry(opts ...InnovationOption) *InnovationRegistry {
	r := &InnovationRegistry{cache: make(map[innovationKey]int)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NextNodeID allocates a fresh node ID that has never been handed out.
func (r *InnovationRegistry) NextNodeID() int {
	return int(r.lastNodeID.Add(1))
}

// NextConnectionID allocates a fresh connection ID.
func (r *InnovationRegistry) NextConnectionID() int {
	return int(r.lastConnectionID.Add(1))
}

// ConnectionInnovationID returns the cached ID for src -> dst or allocates a new one.
func (r *InnovationRegistry) ConnectionInnovationID(src, dst int) int {
	return r.lookup(innovationKey{connectionInnovation, src, dst}, r.NextConnectionID)
}

// HiddenNodeInnovationID returns the node ID used when the connection
// src -> dst is split by a new hidden neuron.
func (r *InnovationRegistry) HiddenNodeInnovationID(src, dst int) int {
	return r.lookup(innovationKey{hiddenNodeInnovation, src, dst}, r.NextNodeID)
}

func (r *InnovationRegistry) lookup(key innovationKey, next func() int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.cache[key]; ok {
		return id
	}
	id := next()
	r.cache[key] = id
	return id
}

// BoostNodeID raises the node counter so that future node IDs are greater than lastID.
func (r *InnovationRegistry) BoostNodeID(lastID int) {
	for {
		cur := r.lastNodeID.Load()
		if cur >= int64(lastID) {
			return
		}
		if r.lastNodeID.CompareAndSwap(cur, int64(lastID)) {
			return
		}
	}
}

// ClearCache forgets cached innovations. Counters keep running so IDs are never reused.
func (r *InnovationRegistry) ClearCache() {
	if !r.clearable {
		return
	}
	r.mu.Lock()
	r.cache = make(map[innovationKey]int)
	r.mu.Unlock()
}

// Len returns the number of cached innovations.
func (r *InnovationRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cache)
}
