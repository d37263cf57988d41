// Package cache models the tag store of a set-associative cache with LRU
// replacement and write-back accounting.
//
// The cache does not model timing or data. It only tracks which blocks are
// resident, whether they are dirty, and the order in which they were used.
package cache

import (
	"errors"
	"fmt"
	"math/bits"
)

// ErrInvalidGeometry is returned when a cache cannot be built with the given
// number of sets, associativity, and line size.
var ErrInvalidGeometry = errors.New("invalid cache geometry")

// Stats are the cumulative counters of a cache.
type Stats struct {
	Accesses   uint64
	Hits       uint64
	Misses     uint64
	Writes     uint64
	Writebacks uint64
}

// HitRate returns hits/accesses, or 0 if the cache has not been accessed.
func (s Stats) HitRate() float64 {
	if s.Accesses == 0 {
		return 0
	}

	return float64(s.Hits) / float64(s.Accesses)
}

// Cache is a set-associative tag store.
type Cache struct {
	HookableBase

	name     string
	sets     []*Set
	assoc    int
	lineSize uint64

	offsetBits uint
	indexBits  uint
	indexMask  uint64
	offsetMask uint64

	stats Stats
}

// New creates a cache. Both numSets and lineSize must be powers of two and
// assoc must be positive.
func New(name string, numSets, assoc, lineSize int) (*Cache, error) {
	if err := checkGeometry(numSets, assoc, lineSize); err != nil {
		return nil, err
	}

	c := &Cache{
		name:       name,
		sets:       make([]*Set, numSets),
		assoc:      assoc,
		lineSize:   uint64(lineSize),
		offsetBits: log2(uint64(lineSize)),
		indexBits:  log2(uint64(numSets)),
	}
	c.offsetMask = (1 << c.offsetBits) - 1
	c.indexMask = (1 << c.indexBits) - 1

	for i := range c.sets {
		c.sets[i] = NewSet(assoc)
	}

	return c, nil
}

func checkGeometry(numSets, assoc, lineSize int) error {
	if !isPowerOfTwo(numSets) {
		return fmt.Errorf("%w: number of sets %d is not a power of 2",
			ErrInvalidGeometry, numSets)
	}

	if !isPowerOfTwo(lineSize) {
		return fmt.Errorf("%w: line size %d is not a power of 2",
			ErrInvalidGeometry, lineSize)
	}

	if assoc <= 0 {
		return fmt.Errorf("%w: associativity %d must be positive",
			ErrInvalidGeometry, assoc)
	}

	return nil
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

func log2(n uint64) uint {
	return uint(bits.TrailingZeros64(n))
}

// Name returns the name of the cache.
func (c *Cache) Name() string {
	return c.name
}

// NumSets returns the number of sets.
func (c *Cache) NumSets() int {
	return len(c.sets)
}

// Assoc returns the number of ways per set.
func (c *Cache) Assoc() int {
	return c.assoc
}

// LineSize returns the number of bytes in a block.
func (c *Cache) LineSize() int {
	return int(c.lineSize)
}

// TotalSize returns the number of bytes the cache can hold.
func (c *Cache) TotalSize() uint64 {
	return uint64(len(c.sets)) * uint64(c.assoc) * c.lineSize
}

// Stats returns a copy of the counters.
func (c *Cache) Stats() Stats {
	return c.stats
}

// Set returns the set at the given index.
func (c *Cache) Set(index int) *Set {
	return c.sets[index]
}

// Decompose splits an address into its set index, tag, and block offset.
func (c *Cache) Decompose(addr uint64) (setIndex, tag, offset uint64) {
	offset = addr & c.offsetMask
	setIndex = (addr >> c.offsetBits) & c.indexMask
	tag = addr >> (c.offsetBits + c.indexBits)

	return setIndex, tag, offset
}

// Access looks up the address and updates the tag store and the counters. It
// returns true on a hit.
//
// A resident tag only counts as a hit when isFill is set. Otherwise the
// access takes the miss path, refilling the way that already holds the tag.
func (c *Cache) Access(addr uint64, t AccessType, isFill bool) bool {
	if !t.IsValid() {
		panic(fmt.Sprintf("cache %s: invalid access type %d", c.name, int(t)))
	}

	setIndex, tag, _ := c.Decompose(addr)
	set := c.sets[setIndex]

	c.stats.Accesses++

	rec := AccessRecord{
		Seq:      c.stats.Accesses,
		Addr:     addr,
		Type:     t,
		IsFill:   isFill,
		SetIndex: setIndex,
		Tag:      tag,
	}

	way, found := set.FindWay(tag)
	if found && isFill {
		c.hit(set, way, t, &rec)
	} else {
		c.miss(set, way, found, t, &rec)
	}

	if c.NumHooks() > 0 {
		c.InvokeHook(HookCtx{
			Domain: c,
			Pos:    HookPosAccess,
			Detail: rec,
		})
	}

	return rec.Hit
}

func (c *Cache) hit(set *Set, way int, t AccessType, rec *AccessRecord) {
	c.stats.Hits++

	if t == Write {
		c.stats.Writes++
		set.lines[way].Dirty = true
	}

	set.Touch(way)

	rec.Hit = true
	rec.Way = way
}

func (c *Cache) miss(
	set *Set,
	residentWay int,
	resident bool,
	t AccessType,
	rec *AccessRecord,
) {
	c.stats.Misses++

	way := residentWay
	if !resident {
		way = c.findVictim(set)
	}

	victim := &set.lines[way]
	if victim.Valid {
		rec.Evicted = true
		rec.EvictedTag = victim.Tag
	}

	if victim.Valid && victim.Dirty {
		c.stats.Writebacks++
		victim.Dirty = false
		rec.Writeback = true
	}

	victim.Dirty = t == Write
	if t == Write {
		c.stats.Writes++
	}

	victim.Tag = rec.Tag
	victim.Valid = true
	set.Touch(way)

	rec.Way = way
}

func (c *Cache) findVictim(set *Set) int {
	if way, ok := set.FindEmpty(); ok {
		return way
	}

	way := set.Evict()
	if way == NoCandidate {
		panic(fmt.Sprintf(
			"cache %s: no eviction candidate in a full set", c.name))
	}

	return way
}
