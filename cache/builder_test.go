package cache

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("Builder", func() {
	It("should build a cache with default geometry", func() {
		c := MakeBuilder().Build("L1")

		Expect(c.NumSets()).To(Equal(64))
		Expect(c.Assoc()).To(Equal(4))
		Expect(c.LineSize()).To(Equal(64))
		Expect(c.TotalSize()).To(Equal(uint64(16 * 1024)))
	})

	It("should build with explicit geometry", func() {
		c := MakeBuilder().
			WithNumSets(128).
			WithWayAssociativity(8).
			WithLog2LineSize(7).
			Build("L2")

		Expect(c.Name()).To(Equal("L2"))
		Expect(c.NumSets()).To(Equal(128))
		Expect(c.Assoc()).To(Equal(8))
		Expect(c.LineSize()).To(Equal(128))
	})

	It("should derive the number of sets from the byte size", func() {
		c := MakeBuilder().
			WithWayAssociativity(2).
			WithLineSize(32).
			WithByteSize(4096).
			Build("L1")

		Expect(c.NumSets()).To(Equal(64))
	})

	It("should panic if the byte size does not fill whole sets", func() {
		b := MakeBuilder().WithWayAssociativity(3).WithByteSize(4096)

		Expect(func() { b.Build("L1") }).To(Panic())
	})

	It("should panic on a line size that is not a power of 2", func() {
		Expect(func() { MakeBuilder().WithLineSize(96) }).To(Panic())
	})

	It("should panic on invalid geometry", func() {
		b := MakeBuilder().WithNumSets(12)

		Expect(func() { b.Build("L1") }).To(Panic())
	})

	It("should register hooks", func() {
		mockCtrl := gomock.NewController(GinkgoT())
		hook := NewMockHook(mockCtrl)

		c := MakeBuilder().WithHook(hook).Build("L1")

		Expect(c.Hooks()).To(ConsistOf(hook))
	})
})
