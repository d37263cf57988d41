package cache

import "fmt"

// Builder can build caches.
type Builder struct {
	numSets          int
	wayAssociativity int
	log2LineSize     int
	cacheByteSize    uint64
	hooks            []Hook
}

// MakeBuilder creates a builder with a 16KB, 4-way cache with 64B lines.
func MakeBuilder() Builder {
	return Builder{
		numSets:          64,
		wayAssociativity: 4,
		log2LineSize:     6,
	}
}

// WithNumSets sets the number of sets.
func (b Builder) WithNumSets(numSets int) Builder {
	b.numSets = numSets
	b.cacheByteSize = 0
	return b
}

// WithWayAssociativity sets the number of ways in each set.
func (b Builder) WithWayAssociativity(wayAssociativity int) Builder {
	b.wayAssociativity = wayAssociativity
	return b
}

// WithLog2LineSize sets the line size as a power of 2.
func (b Builder) WithLog2LineSize(log2LineSize int) Builder {
	b.log2LineSize = log2LineSize
	return b
}

// WithLineSize sets the line size in bytes.
func (b Builder) WithLineSize(lineSize int) Builder {
	if !isPowerOfTwo(lineSize) {
		panic(fmt.Sprintf("line size %d is not a power of 2", lineSize))
	}

	b.log2LineSize = int(log2(uint64(lineSize)))

	return b
}

// WithByteSize derives the number of sets from the total capacity. It is
// applied at Build time, after the associativity and line size are known.
func (b Builder) WithByteSize(byteSize uint64) Builder {
	b.cacheByteSize = byteSize
	return b
}

// WithHook registers a hook on the cache being built.
func (b Builder) WithHook(hook Hook) Builder {
	b.hooks = append(b.hooks[:len(b.hooks):len(b.hooks)], hook)
	return b
}

// Build creates the cache. It panics if the geometry is invalid.
func (b Builder) Build(name string) *Cache {
	lineSize := 1 << b.log2LineSize
	numSets := b.numSets

	if b.cacheByteSize > 0 {
		numSets = b.setsFromByteSize(lineSize)
	}

	c, err := New(name, numSets, b.wayAssociativity, lineSize)
	if err != nil {
		panic(err)
	}

	for _, h := range b.hooks {
		c.AcceptHook(h)
	}

	return c
}

func (b Builder) setsFromByteSize(lineSize int) int {
	setSize := uint64(lineSize) * uint64(b.wayAssociativity)
	if setSize == 0 || b.cacheByteSize%setSize != 0 {
		panic(fmt.Sprintf("cache size %d is not a multiple of set size %d",
			b.cacheByteSize, setSize))
	}

	return int(b.cacheByteSize / setSize)
}
