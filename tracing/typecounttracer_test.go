package tracing

import (
	"bytes"
	"log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachesim/cache"
)

var _ = Describe("TypeCountTracer", func() {
	It("should count accesses by type", func() {
		tracer := NewTypeCountTracer()
		c := cache.MakeBuilder().WithHook(tracer).Build("L1")

		c.Access(0x0, cache.Read, true)
		c.Access(0x0, cache.Read, true)
		c.Access(0x0, cache.Write, true)
		c.Access(0x1000, cache.InstructionFetch, true)

		Expect(tracer.Count(cache.Read)).To(
			Equal(TypeCount{Accesses: 2, Hits: 1, Misses: 1}))
		Expect(tracer.Count(cache.Write)).To(
			Equal(TypeCount{Accesses: 1, Hits: 1}))
		Expect(tracer.Count(cache.InstructionFetch)).To(
			Equal(TypeCount{Accesses: 1, Misses: 1}))
	})

	It("should return zero for types never seen", func() {
		tracer := NewTypeCountTracer()

		Expect(tracer.Count(cache.Write)).To(BeZero())
	})
})

var _ = Describe("LogTracer", func() {
	It("should print one line per access", func() {
		buf := new(bytes.Buffer)
		tracer := NewLogTracer(log.New(buf, "", 0))
		c := cache.MakeBuilder().
			WithNumSets(1).
			WithWayAssociativity(1).
			WithHook(tracer).
			Build("L1")

		c.Access(0x40, cache.Write, true)
		c.Access(0x40, cache.Read, true)
		c.Access(0x80, cache.Read, true)
		c.Access(0xc0, cache.Read, true)

		Expect(buf.String()).To(Equal(
			"L1 #1 write 0x40 set=0 way=0 miss\n" +
				"L1 #2 read 0x40 set=0 way=0 hit\n" +
				"L1 #3 read 0x80 set=0 way=0 miss, evict 0x1, writeback\n" +
				"L1 #4 read 0xc0 set=0 way=0 miss, evict 0x2\n"))
	})
})
