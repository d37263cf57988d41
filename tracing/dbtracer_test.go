package tracing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/cachesim/cache"
)

var _ = Describe("DBTracer", func() {
	var (
		mockCtrl *gomock.Controller
		recorder *MockDataRecorder
		tracer   *DBTracer
		c        *cache.Cache
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		recorder = NewMockDataRecorder(mockCtrl)

		recorder.EXPECT().CreateTable(AccessTableName, AccessEntry{})
		recorder.EXPECT().CreateTable(StatsTableName, StatsEntry{})
		tracer = NewDBTracer(recorder)

		c = cache.MakeBuilder().
			WithNumSets(1).
			WithWayAssociativity(1).
			WithLog2LineSize(6).
			WithHook(tracer).
			Build("L1")
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should record accesses", func() {
		recorder.EXPECT().InsertData(AccessTableName, AccessEntry{
			Cache:  "L1",
			Seq:    1,
			Addr:   "0x40",
			Type:   "write",
			IsFill: true,
			Tag:    "0x1",
		})
		recorder.EXPECT().InsertData(AccessTableName, AccessEntry{
			Cache:      "L1",
			Seq:        2,
			Addr:       "0x80",
			Type:       "read",
			IsFill:     true,
			Tag:        "0x2",
			Evicted:    true,
			EvictedTag: "0x1",
			Writeback:  true,
		})

		c.Access(0x40, cache.Write, true)
		c.Access(0x80, cache.Read, true)
	})

	It("should only record accesses in the window", func() {
		tracer.SetWindow(2, 3)

		recorder.EXPECT().
			InsertData(AccessTableName, gomock.Any()).
			Do(func(_ string, entry any) {
				seq := entry.(AccessEntry).Seq
				Expect(seq).To(BeNumerically(">=", 2))
				Expect(seq).To(BeNumerically("<=", 3))
			}).
			Times(2)

		for i := 0; i < 5; i++ {
			c.Access(uint64(i)*64, cache.Read, true)
		}
	})

	It("should reject an inverted window", func() {
		Expect(func() { tracer.SetWindow(5, 1) }).To(Panic())
	})

	It("should record stats on finalize", func() {
		recorder.EXPECT().InsertData(AccessTableName, gomock.Any()).Times(2)
		c.Access(0, cache.Read, true)
		c.Access(0, cache.Read, true)

		recorder.EXPECT().InsertData(StatsTableName, StatsEntry{
			Cache:    "L1",
			NumSets:  1,
			Assoc:    1,
			LineSize: 64,
			Accesses: 2,
			Hits:     1,
			Misses:   1,
			HitRate:  0.5,
		})
		recorder.EXPECT().Flush()

		tracer.Finalize(c)
	})
})
