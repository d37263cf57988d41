// Package tracing provides hooks that observe cache accesses.
package tracing

import (
	"fmt"

	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/datarecording"
)

// Table names used by the DBTracer.
const (
	AccessTableName = "cache_access"
	StatsTableName  = "cache_stats"
)

// AccessEntry is a row in the access table. Addresses and tags are stored as
// hex strings because SQLite integers are signed.
type AccessEntry struct {
	Cache      string
	Seq        int64
	Addr       string
	Type       string
	IsFill     bool
	SetIndex   int64
	Tag        string
	Way        int
	Hit        bool
	Evicted    bool
	EvictedTag string
	Writeback  bool
}

// StatsEntry is a row in the stats table.
type StatsEntry struct {
	Cache      string
	NumSets    int
	Assoc      int
	LineSize   int
	Accesses   int64
	Hits       int64
	Misses     int64
	Writes     int64
	Writebacks int64
	HitRate    float64
}

// DBTracer records every access into a DataRecorder.
type DBTracer struct {
	recorder   datarecording.DataRecorder
	start, end uint64
}

// NewDBTracer creates a DBTracer and the tables it writes to.
func NewDBTracer(recorder datarecording.DataRecorder) *DBTracer {
	t := &DBTracer{
		recorder: recorder,
	}

	recorder.CreateTable(AccessTableName, AccessEntry{})
	recorder.CreateTable(StatsTableName, StatsEntry{})

	return t
}

// SetWindow limits recording to the accesses whose sequence number is in
// [start, end]. An end of 0 means no upper bound.
func (t *DBTracer) SetWindow(start, end uint64) {
	if end > 0 && end < start {
		panic(fmt.Sprintf("invalid window [%d, %d]", start, end))
	}

	t.start = start
	t.end = end
}

// Func records an access.
func (t *DBTracer) Func(ctx cache.HookCtx) {
	if ctx.Pos != cache.HookPosAccess {
		return
	}

	rec := ctx.Detail.(cache.AccessRecord)
	if !t.inWindow(rec.Seq) {
		return
	}

	t.recorder.InsertData(AccessTableName, AccessEntry{
		Cache:      ctx.Domain.Name(),
		Seq:        int64(rec.Seq),
		Addr:       hex(rec.Addr),
		Type:       rec.Type.String(),
		IsFill:     rec.IsFill,
		SetIndex:   int64(rec.SetIndex),
		Tag:        hex(rec.Tag),
		Way:        rec.Way,
		Hit:        rec.Hit,
		Evicted:    rec.Evicted,
		EvictedTag: evictedTag(rec),
		Writeback:  rec.Writeback,
	})
}

func (t *DBTracer) inWindow(seq uint64) bool {
	if seq < t.start {
		return false
	}

	return t.end == 0 || seq <= t.end
}

// Finalize records the counters of the caches and flushes the recorder.
func (t *DBTracer) Finalize(caches ...*cache.Cache) {
	for _, c := range caches {
		stats := c.Stats()

		t.recorder.InsertData(StatsTableName, StatsEntry{
			Cache:      c.Name(),
			NumSets:    c.NumSets(),
			Assoc:      c.Assoc(),
			LineSize:   c.LineSize(),
			Accesses:   int64(stats.Accesses),
			Hits:       int64(stats.Hits),
			Misses:     int64(stats.Misses),
			Writes:     int64(stats.Writes),
			Writebacks: int64(stats.Writebacks),
			HitRate:    stats.HitRate(),
		})
	}

	t.recorder.Flush()
}

func hex(v uint64) string {
	return fmt.Sprintf("0x%x", v)
}

func evictedTag(rec cache.AccessRecord) string {
	if !rec.Evicted {
		return ""
	}

	return hex(rec.EvictedTag)
}
