package cache

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Set", func() {
	var s *Set

	BeforeEach(func() {
		s = NewSet(4)
	})

	It("should start with invalid lines and an empty recency list", func() {
		Expect(s.Assoc()).To(Equal(4))
		Expect(s.Recency()).To(BeEmpty())

		for _, l := range s.Lines() {
			Expect(l).To(Equal(Line{}))
		}
	})

	It("should put touched ways at the MRU position", func() {
		s.Touch(0)
		s.Touch(1)
		s.Touch(2)

		Expect(s.Recency()).To(Equal([]int{2, 1, 0}))

		s.Touch(0)

		Expect(s.Recency()).To(Equal([]int{0, 2, 1}))
	})

	It("should not duplicate ways touched repeatedly", func() {
		s.Touch(3)
		s.Touch(3)
		s.Touch(3)

		Expect(s.Recency()).To(Equal([]int{3}))
	})

	It("should evict the least recently used way", func() {
		s.Touch(0)
		s.Touch(1)
		s.Touch(2)
		s.Touch(1)

		Expect(s.Evict()).To(Equal(0))
		Expect(s.Recency()).To(Equal([]int{1, 2}))
		Expect(s.Evict()).To(Equal(2))
		Expect(s.Evict()).To(Equal(1))
	})

	It("should return no candidate when nothing was touched", func() {
		Expect(s.Evict()).To(Equal(NoCandidate))
	})

	It("should return no candidate for a set without ways", func() {
		empty := NewSet(0)

		Expect(empty.Evict()).To(Equal(NoCandidate))

		_, ok := empty.FindEmpty()
		Expect(ok).To(BeFalse())
	})

	It("should find valid lines by tag", func() {
		s.lines[2] = Line{Valid: true, Tag: 0x42}
		s.lines[3] = Line{Valid: false, Tag: 0x43}

		way, ok := s.FindWay(0x42)
		Expect(ok).To(BeTrue())
		Expect(way).To(Equal(2))

		_, ok = s.FindWay(0x43)
		Expect(ok).To(BeFalse())
	})

	It("should find the first empty way", func() {
		s.lines[0] = Line{Valid: true}
		s.lines[1] = Line{Valid: true}

		way, ok := s.FindEmpty()
		Expect(ok).To(BeTrue())
		Expect(way).To(Equal(2))
	})

	It("should not let callers change lines through copies", func() {
		lines := s.Lines()
		lines[0].Valid = true

		order := s.Recency()
		Expect(order).To(BeEmpty())
		Expect(s.Line(0).Valid).To(BeFalse())
	})
})
