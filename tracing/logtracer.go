package tracing

import (
	"log"

	"github.com/sarchlab/cachesim/cache"
)

// LogTracer prints one line for every access.
type LogTracer struct {
	logger *log.Logger
}

// NewLogTracer creates a LogTracer that writes to the logger.
func NewLogTracer(logger *log.Logger) *LogTracer {
	return &LogTracer{logger: logger}
}

// Func prints the access.
func (t *LogTracer) Func(ctx cache.HookCtx) {
	if ctx.Pos != cache.HookPosAccess {
		return
	}

	rec := ctx.Detail.(cache.AccessRecord)

	result := "miss"
	if rec.Hit {
		result = "hit"
	}

	switch {
	case rec.Writeback:
		t.logger.Printf("%s #%d %s 0x%x set=%d way=%d %s, evict 0x%x, writeback",
			ctx.Domain.Name(), rec.Seq, rec.Type, rec.Addr,
			rec.SetIndex, rec.Way, result, rec.EvictedTag)
	case rec.Evicted:
		t.logger.Printf("%s #%d %s 0x%x set=%d way=%d %s, evict 0x%x",
			ctx.Domain.Name(), rec.Seq, rec.Type, rec.Addr,
			rec.SetIndex, rec.Way, result, rec.EvictedTag)
	default:
		t.logger.Printf("%s #%d %s 0x%x set=%d way=%d %s",
			ctx.Domain.Name(), rec.Seq, rec.Type, rec.Addr,
			rec.SetIndex, rec.Way, result)
	}
}
