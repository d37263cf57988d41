package tracing

import (
	"sync"

	"github.com/sarchlab/cachesim/cache"
)

// TypeCount is the number of accesses of one access type.
type TypeCount struct {
	Accesses uint64 `json:"accesses"`
	Hits     uint64 `json:"hits"`
	Misses   uint64 `json:"misses"`
}

// TypeCountTracer breaks the access counters down by access type.
type TypeCountTracer struct {
	lock   sync.Mutex
	counts map[cache.AccessType]*TypeCount
}

// NewTypeCountTracer creates a TypeCountTracer.
func NewTypeCountTracer() *TypeCountTracer {
	return &TypeCountTracer{
		counts: make(map[cache.AccessType]*TypeCount),
	}
}

// Func counts the access.
func (t *TypeCountTracer) Func(ctx cache.HookCtx) {
	if ctx.Pos != cache.HookPosAccess {
		return
	}

	rec := ctx.Detail.(cache.AccessRecord)

	t.lock.Lock()
	defer t.lock.Unlock()

	count, ok := t.counts[rec.Type]
	if !ok {
		count = &TypeCount{}
		t.counts[rec.Type] = count
	}

	count.Accesses++
	if rec.Hit {
		count.Hits++
	} else {
		count.Misses++
	}
}

// Count returns the counters of an access type.
func (t *TypeCountTracer) Count(accessType cache.AccessType) TypeCount {
	t.lock.Lock()
	defer t.lock.Unlock()

	count, ok := t.counts[accessType]
	if !ok {
		return TypeCount{}
	}

	return *count
}
