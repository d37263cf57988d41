package cache

// NoCandidate is returned by Evict when the recency list is empty.
const NoCandidate = -1

// A Line holds the metadata of the block that is resident in one way.
type Line struct {
	Valid bool
	Dirty bool
	Tag   uint64
}

// A Set is a group of ways that a block of a given set index can be placed
// in. The set keeps the ways that have been touched ordered from the most
// recently used to the least recently used.
type Set struct {
	lines   []Line
	recency []int
}

// NewSet allocates a set with assoc invalid lines and an empty recency list.
func NewSet(assoc int) *Set {
	return &Set{
		lines:   make([]Line, assoc),
		recency: make([]int, 0, assoc),
	}
}

// Assoc returns the number of ways of the set.
func (s *Set) Assoc() int {
	return len(s.lines)
}

// Lines returns a copy of the lines, indexed by way.
func (s *Set) Lines() []Line {
	lines := make([]Line, len(s.lines))
	copy(lines, s.lines)

	return lines
}

// Line returns the line stored in the given way.
func (s *Set) Line(way int) Line {
	return s.lines[way]
}

// Recency returns the touched ways, from the most recently used to the least
// recently used.
func (s *Set) Recency() []int {
	order := make([]int, len(s.recency))
	copy(order, s.recency)

	return order
}

// Touch marks the way as the most recently used one.
func (s *Set) Touch(way int) {
	s.remove(way)

	s.recency = append(s.recency, 0)
	copy(s.recency[1:], s.recency)
	s.recency[0] = way
}

// Evict removes the least recently used way from the recency list and
// returns it. NoCandidate is returned if no way has ever been touched.
func (s *Set) Evict() int {
	if len(s.recency) == 0 {
		return NoCandidate
	}

	last := len(s.recency) - 1
	way := s.recency[last]
	s.recency = s.recency[:last]

	return way
}

// FindWay returns the way that holds a valid line with the given tag.
func (s *Set) FindWay(tag uint64) (int, bool) {
	for i, l := range s.lines {
		if l.Valid && l.Tag == tag {
			return i, true
		}
	}

	return NoCandidate, false
}

// FindEmpty returns the first way that does not hold a valid line.
func (s *Set) FindEmpty() (int, bool) {
	for i, l := range s.lines {
		if !l.Valid {
			return i, true
		}
	}

	return NoCandidate, false
}

func (s *Set) remove(way int) {
	for i, w := range s.recency {
		if w == way {
			s.recency = append(s.recency[:i], s.recency[i+1:]...)
			return
		}
	}
}
