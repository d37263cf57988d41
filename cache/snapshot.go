package cache

// LineSnapshot is the state of one way at the moment of a snapshot.
type LineSnapshot struct {
	Way   int    `json:"way"`
	Valid bool   `json:"valid"`
	Dirty bool   `json:"dirty"`
	Tag   uint64 `json:"tag"`
}

// SetSnapshot lists the ways of a set from the most recently used to the
// least recently used. Ways that have never been filled come last, in way
// order.
type SetSnapshot struct {
	Index int            `json:"index"`
	Lines []LineSnapshot `json:"lines"`
}

// TagStoreSnapshot is a copy of the whole tag store.
type TagStoreSnapshot struct {
	Name string        `json:"name"`
	Sets []SetSnapshot `json:"sets"`
}

// Snapshot copies the tag store in recency order.
func (c *Cache) Snapshot() TagStoreSnapshot {
	snapshot := TagStoreSnapshot{
		Name: c.name,
		Sets: make([]SetSnapshot, len(c.sets)),
	}

	for i, s := range c.sets {
		snapshot.Sets[i] = s.snapshot(i)
	}

	return snapshot
}

func (s *Set) snapshot(index int) SetSnapshot {
	ss := SetSnapshot{
		Index: index,
		Lines: make([]LineSnapshot, 0, len(s.lines)),
	}

	listed := make([]bool, len(s.lines))
	for _, way := range s.recency {
		ss.Lines = append(ss.Lines, s.lineSnapshot(way))
		listed[way] = true
	}

	for way := range s.lines {
		if !listed[way] {
			ss.Lines = append(ss.Lines, s.lineSnapshot(way))
		}
	}

	return ss
}

func (s *Set) lineSnapshot(way int) LineSnapshot {
	l := s.lines[way]

	return LineSnapshot{
		Way:   way,
		Valid: l.Valid,
		Dirty: l.Dirty,
		Tag:   l.Tag,
	}
}
