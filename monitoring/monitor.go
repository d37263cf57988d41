// Package monitoring turns a running cache simulation into a web server so
// that counters and the tag store can be inspected while a trace is being
// processed.
package monitoring

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/rs/xid"
	"github.com/sarchlab/cachesim/cache"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"
)

// A Controller owns the caches and can stop between two accesses.
type Controller interface {
	// Pause blocks the driver before its next access.
	Pause()

	// Continue resumes a paused driver.
	Continue()

	// Inspect runs f while no access is in flight.
	Inspect(f func())
}

// Monitor exposes the caches of a simulation through an HTTP API.
type Monitor struct {
	controller      Controller
	caches          []*cache.Cache
	portNumber      int
	profileDuration time.Duration

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar

	listener net.Listener
}

// NewMonitor creates a new Monitor.
func NewMonitor() *Monitor {
	return &Monitor{
		profileDuration: time.Second,
	}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterController registers the driver that owns the caches.
func (m *Monitor) RegisterController(c Controller) {
	m.controller = c
}

// RegisterCache registers a cache to be monitored.
func (m *Monitor) RegisterCache(c *cache.Cache) {
	if m.findCache(c.Name()) != nil {
		panic("cache " + c.Name() + " already registered")
	}

	m.caches = append(m.caches, c)
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        xid.New().String(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar from the list of bars.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// StartServer starts the monitor as a web server and returns its URL.
func (m *Monitor) StartServer() string {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	m.listener = listener

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", url)

	r := m.newRouter()

	go func() {
		err := http.Serve(listener, r)
		if err != nil && !isClosedErr(err) {
			log.Panic(err)
		}
	}()

	return url
}

// StopServer closes the listener of the web server.
func (m *Monitor) StopServer() error {
	if m.listener == nil {
		return nil
	}

	return m.listener.Close()
}

// OpenInBrowser opens the monitor page with the system browser.
func (m *Monitor) OpenInBrowser(url string) error {
	return browser.OpenURL(url + "/api/list_caches")
}

func isClosedErr(err error) bool {
	return errors.Is(err, net.ErrClosed)
}

func (m *Monitor) newRouter() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/pause", m.pause)
	r.HandleFunc("/api/continue", m.resume)
	r.HandleFunc("/api/list_caches", m.listCaches)
	r.HandleFunc("/api/stats/{name}", m.stats)
	r.HandleFunc("/api/tagstore/{name}", m.tagStore)
	r.HandleFunc("/api/component/{name}", m.componentDetails)
	r.HandleFunc("/api/field/{json}", m.fieldValue)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)

	return r
}

func (m *Monitor) inspect(f func()) {
	if m.controller == nil {
		f()
		return
	}

	m.controller.Inspect(f)
}

func (m *Monitor) pause(w http.ResponseWriter, _ *http.Request) {
	if m.controller == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	m.controller.Pause()
	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) resume(w http.ResponseWriter, _ *http.Request) {
	if m.controller == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	m.controller.Continue()
	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) listCaches(w http.ResponseWriter, _ *http.Request) {
	names := make([]string, 0, len(m.caches))
	for _, c := range m.caches {
		names = append(names, c.Name())
	}

	writeJSON(w, names)
}

type statsRsp struct {
	Name       string  `json:"name"`
	Accesses   uint64  `json:"accesses"`
	Hits       uint64  `json:"hits"`
	Misses     uint64  `json:"misses"`
	Writes     uint64  `json:"writes"`
	Writebacks uint64  `json:"writebacks"`
	HitRate    float64 `json:"hit_rate"`
}

func (m *Monitor) stats(w http.ResponseWriter, r *http.Request) {
	c := m.findCacheOr404(w, mux.Vars(r)["name"])
	if c == nil {
		return
	}

	var stats cache.Stats
	m.inspect(func() { stats = c.Stats() })

	writeJSON(w, statsRsp{
		Name:       c.Name(),
		Accesses:   stats.Accesses,
		Hits:       stats.Hits,
		Misses:     stats.Misses,
		Writes:     stats.Writes,
		Writebacks: stats.Writebacks,
		HitRate:    stats.HitRate(),
	})
}

func (m *Monitor) tagStore(w http.ResponseWriter, r *http.Request) {
	c := m.findCacheOr404(w, mux.Vars(r)["name"])
	if c == nil {
		return
	}

	var snapshot cache.TagStoreSnapshot
	m.inspect(func() { snapshot = c.Snapshot() })

	setStr := r.URL.Query().Get("set")
	if setStr == "" {
		writeJSON(w, snapshot)
		return
	}

	set, err := strconv.Atoi(setStr)
	if err != nil || set < 0 || set >= len(snapshot.Sets) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: invalid set %q", setStr)

		return
	}

	writeJSON(w, snapshot.Sets[set])
}

func (m *Monitor) componentDetails(w http.ResponseWriter, r *http.Request) {
	c := m.findCacheOr404(w, mux.Vars(r)["name"])
	if c == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(c)
	serializer.SetMaxDepth(1)

	var err error
	m.inspect(func() { err = serializer.Serialize(w) })
	dieOnErr(err)
}

type fieldReq struct {
	CompName  string `json:"comp_name,omitempty"`
	FieldName string `json:"field_name,omitempty"`
}

func (m *Monitor) fieldValue(w http.ResponseWriter, r *http.Request) {
	req := fieldReq{}

	err := json.Unmarshal([]byte(mux.Vars(r)["json"]), &req)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	c := m.findCacheOr404(w, req.CompName)
	if c == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(c)
	serializer.SetMaxDepth(1)

	err = serializer.SetEntryPoint(strings.Split(req.FieldName, "."))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	m.inspect(func() { err = serializer.Serialize(w) })
	dieOnErr(err)
}

func (m *Monitor) findCache(name string) *cache.Cache {
	for _, c := range m.caches {
		if c.Name() == name {
			return c
		}
	}

	return nil
}

func (m *Monitor) findCacheOr404(
	w http.ResponseWriter,
	name string,
) *cache.Cache {
	c := m.findCache(name)
	if c == nil {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("Cache not found"))
		dieOnErr(err)
	}

	return c
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	bars := make([]progressBarRsp, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		bars = append(bars, b.snapshot())
	}
	m.progressBarsLock.Unlock()

	writeJSON(w, bars)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		writeErr(w, err)
		return
	}

	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		writeErr(w, err)
		return
	}

	memoryInfo, err := proc.MemoryInfo()
	if err != nil {
		writeErr(w, err)
		return
	}

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memoryInfo.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		writeErr(w, err)
		return
	}

	time.Sleep(m.profileDuration)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	if err != nil {
		writeErr(w, err)
		return
	}

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(data)
	dieOnErr(err)
}

func writeErr(w http.ResponseWriter, err error) {
	w.WriteHeader(http.StatusInternalServerError)
	fmt.Fprintf(w, "Error: %s", err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
