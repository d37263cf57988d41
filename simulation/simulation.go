// Package simulation drives caches with a stream of memory references.
package simulation

import (
	"context"
	"io"
	"sync"

	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/monitoring"
	"github.com/sarchlab/cachesim/tracing"
)

// An AccessSource provides the memory references of a trace. Next returns
// io.EOF after the last reference.
type AccessSource interface {
	Next() (cache.AccessReq, error)
}

// SliceSource is an AccessSource backed by a slice.
type SliceSource struct {
	reqs []cache.AccessReq
	next int
}

// NewSliceSource creates a source that replays the given accesses.
func NewSliceSource(reqs []cache.AccessReq) *SliceSource {
	return &SliceSource{reqs: reqs}
}

// Next returns the next access.
func (s *SliceSource) Next() (cache.AccessReq, error) {
	if s.next >= len(s.reqs) {
		return cache.AccessReq{}, io.EOF
	}

	req := s.reqs[s.next]
	s.next++

	return req, nil
}

// Len returns the total number of accesses of the source.
func (s *SliceSource) Len() int {
	return len(s.reqs)
}

// A Simulation feeds every access of a trace to all the registered caches,
// one access at a time and in trace order.
type Simulation struct {
	id     string
	isFill bool

	dataRecorder datarecording.DataRecorder
	dbTracer     *tracing.DBTracer
	monitor      *monitoring.Monitor
	monitorURL   string

	caches         []*cache.Cache
	cacheNameIndex map[string]int

	lock   sync.Mutex
	cond   *sync.Cond
	paused bool
}

func newSimulation() *Simulation {
	s := &Simulation{
		isFill:         true,
		cacheNameIndex: make(map[string]int),
	}
	s.cond = sync.NewCond(&s.lock)

	return s
}

// ID returns the ID of the simulation.
func (s *Simulation) ID() string {
	return s.id
}

// GetDataRecorder returns the data recorder, or nil if recording is off.
func (s *Simulation) GetDataRecorder() datarecording.DataRecorder {
	return s.dataRecorder
}

// GetMonitor returns the monitor, or nil if monitoring is off.
func (s *Simulation) GetMonitor() *monitoring.Monitor {
	return s.monitor
}

// MonitorURL returns the URL of the monitoring server.
func (s *Simulation) MonitorURL() string {
	return s.monitorURL
}

// RegisterCache registers a cache with the simulation.
func (s *Simulation) RegisterCache(c *cache.Cache) {
	name := c.Name()
	if _, ok := s.cacheNameIndex[name]; ok {
		panic("cache " + name + " already registered")
	}

	s.caches = append(s.caches, c)
	s.cacheNameIndex[name] = len(s.caches) - 1

	if s.dbTracer != nil {
		c.AcceptHook(s.dbTracer)
	}

	if s.monitor != nil {
		s.monitor.RegisterCache(c)
	}
}

// GetCacheByName returns the cache with the given name, or nil.
func (s *Simulation) GetCacheByName(name string) *cache.Cache {
	i, ok := s.cacheNameIndex[name]
	if !ok {
		return nil
	}

	return s.caches[i]
}

// Caches returns all the registered caches.
func (s *Simulation) Caches() []*cache.Cache {
	return s.caches
}

// Run feeds the accesses of the source to the caches until the source is
// exhausted or the context is canceled. It returns the number of accesses
// processed.
func (s *Simulation) Run(ctx context.Context, src AccessSource) (uint64, error) {
	var bar *monitoring.ProgressBar
	if s.monitor != nil {
		bar = s.monitor.CreateProgressBar("Trace", sourceLen(src))
		defer s.monitor.CompleteProgressBar(bar)
	}

	var n uint64

	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}

		req, err := src.Next()
		if err == io.EOF {
			return n, nil
		}

		if err != nil {
			return n, err
		}

		s.access(req)
		n++

		if bar != nil {
			bar.IncrementFinished(1)
		}
	}
}

func sourceLen(src AccessSource) uint64 {
	if l, ok := src.(interface{ Len() int }); ok {
		return uint64(l.Len())
	}

	return 0
}

func (s *Simulation) access(req cache.AccessReq) {
	s.lock.Lock()
	defer s.lock.Unlock()

	for s.paused {
		s.cond.Wait()
	}

	for _, c := range s.caches {
		c.Access(req.Addr, req.Type, s.isFill)
	}
}

// Pause stops the simulation before its next access.
func (s *Simulation) Pause() {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.paused = true
}

// Continue resumes a paused simulation.
func (s *Simulation) Continue() {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.paused = false
	s.cond.Broadcast()
}

// Inspect runs f while no access is being processed.
func (s *Simulation) Inspect(f func()) {
	s.lock.Lock()
	defer s.lock.Unlock()

	f()
}

// Terminate records the final counters and releases the recorder and the
// monitor.
func (s *Simulation) Terminate() error {
	if s.monitor != nil {
		if err := s.monitor.StopServer(); err != nil {
			return err
		}
	}

	if s.dbTracer != nil {
		s.dbTracer.Finalize(s.caches...)
	}

	if s.dataRecorder != nil {
		return s.dataRecorder.Close()
	}

	return nil
}
