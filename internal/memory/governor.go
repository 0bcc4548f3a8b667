package memory

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const defaultInterval = 30 * time.Second

const maxHistory = 120

// Config enumerates the governor's thresholds and component-level caps.
type Config struct {
	SoftLimitMB      uint64
	HardLimitMB      uint64
	GCThresholdMB    uint64
	SpillThresholdMB uint64
	MaxLoadedFiles   int
	MaxCachedQueries int
	Interval         time.Duration
}

// Snapshot is a point-in-time read of process memory pressure.
type Snapshot struct {
	Timestamp     time.Time
	RSSBytes      uint64
	HeapEstimate  uint64
	ObjectCount   uint64
	Goroutines    int
	LoadedFiles   int
	CachedQueries int
}

func (s Snapshot) rssMB() uint64 { return s.RSSBytes / (1024 * 1024) }

// Governor periodically snapshots process memory, evaluates it against
// Config's thresholds, and fires whichever hooks are registered for the
// violation observed.
type Governor struct {
	mu     sync.Mutex
	cfg    Config
	loaded func() int
	cached func() int

	onCleanup       []func()
	onSpill         []func()
	onLimitExceeded []func()

	peak    Snapshot
	history []Snapshot

	registry      *prometheus.Registry
	gaugeRSS      prometheus.Gauge
	gaugeHeap     prometheus.Gauge
	gaugeLoaded   prometheus.Gauge
	gaugeCached   prometheus.Gauge
	gaugeGoroutine prometheus.Gauge

	stop chan struct{}
	done chan struct{}
}

// New builds a Governor. loadedFiles and cachedQueries report the current
// component-level counts used both in snapshots and as Prometheus gauges.
func New(cfg Config, loadedFiles func() int, cachedQueries func() int) *Governor {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if loadedFiles == nil {
		loadedFiles = func() int { return 0 }
	}
	if cachedQueries == nil {
		cachedQueries = func() int { return 0 }
	}

	registry := prometheus.NewRegistry()
	g := &Governor{
		cfg:            cfg,
		loaded:         loadedFiles,
		cached:         cachedQueries,
		registry:       registry,
		gaugeRSS:       prometheus.NewGauge(prometheus.GaugeOpts{Name: "codeindex_memory_rss_bytes", Help: "Process resident memory, estimated from Go heap stats."}),
		gaugeHeap:      prometheus.NewGauge(prometheus.GaugeOpts{Name: "codeindex_memory_heap_bytes", Help: "Go heap in use."}),
		gaugeLoaded:    prometheus.NewGauge(prometheus.GaugeOpts{Name: "codeindex_memory_loaded_files", Help: "Files currently loaded in the content registry."}),
		gaugeCached:    prometheus.NewGauge(prometheus.GaugeOpts{Name: "codeindex_memory_cached_queries", Help: "Entries currently held in the query result cache."}),
		gaugeGoroutine: prometheus.NewGauge(prometheus.GaugeOpts{Name: "codeindex_memory_goroutines", Help: "Live goroutine count."}),
	}
	registry.MustRegister(g.gaugeRSS, g.gaugeHeap, g.gaugeLoaded, g.gaugeCached, g.gaugeGoroutine)
	return g
}

// OnCleanup registers a hook fired when the gc-threshold is crossed: the
// expected behaviour is to trim caches and halve loaded content.
func (g *Governor) OnCleanup(fn func()) { g.mu.Lock(); g.onCleanup = append(g.onCleanup, fn); g.mu.Unlock() }

// OnSpill registers a hook fired when the spill-threshold is crossed: the
// expected behaviour is to persist the query cache to a spill directory
// and clear it from memory.
func (g *Governor) OnSpill(fn func()) { g.mu.Lock(); g.onSpill = append(g.onSpill, fn); g.mu.Unlock() }

// OnLimitExceeded registers a hook fired when the hard limit is crossed:
// the expected behaviour is an aggressive unload-and-clear.
func (g *Governor) OnLimitExceeded(fn func()) {
	g.mu.Lock()
	g.onLimitExceeded = append(g.onLimitExceeded, fn)
	g.mu.Unlock()
}

// Registry exposes the Prometheus registry backing this governor's gauges,
// for wiring into an HTTP /metrics handler.
func (g *Governor) Registry() *prometheus.Registry { return g.registry }

// Snapshot reads current process memory pressure via runtime.ReadMemStats.
// HeapEstimate and object count come directly from Go's heap statistics;
// RSS is approximated as HeapSys + StackSys, the closest proxy available
// without platform-specific syscalls.
func (g *Governor) Snapshot() Snapshot {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return Snapshot{
		Timestamp:     timeNow(),
		RSSBytes:      m.HeapSys + m.StackSys,
		HeapEstimate:  m.HeapInuse,
		ObjectCount:   m.HeapObjects,
		Goroutines:    runtime.NumGoroutine(),
		LoadedFiles:   g.loaded(),
		CachedQueries: g.cached(),
	}
}

// Evaluate records snap into history and peak tracking, updates the
// Prometheus gauges, and fires whichever hooks correspond to the highest
// threshold crossed (hard limit takes priority over spill, which takes
// priority over gc/cleanup).
func (g *Governor) Evaluate(snap Snapshot) {
	g.mu.Lock()
	if snap.RSSBytes > g.peak.RSSBytes {
		g.peak = snap
	}
	g.history = append(g.history, snap)
	if len(g.history) > maxHistory {
		g.history = g.history[len(g.history)-maxHistory:]
	}
	hooks := g.selectHooks(snap)
	g.mu.Unlock()

	g.gaugeRSS.Set(float64(snap.RSSBytes))
	g.gaugeHeap.Set(float64(snap.HeapEstimate))
	g.gaugeLoaded.Set(float64(snap.LoadedFiles))
	g.gaugeCached.Set(float64(snap.CachedQueries))
	g.gaugeGoroutine.Set(float64(snap.Goroutines))

	for _, fn := range hooks {
		runHook(fn)
	}
}

// selectHooks must be called with g.mu held; it returns a copy so hooks run
// outside the lock.
func (g *Governor) selectHooks(snap Snapshot) []func() {
	rss := snap.rssMB()
	switch {
	case g.cfg.HardLimitMB > 0 && rss >= g.cfg.HardLimitMB:
		return append([]func(){}, g.onLimitExceeded...)
	case g.cfg.SpillThresholdMB > 0 && rss >= g.cfg.SpillThresholdMB:
		return append([]func(){}, g.onSpill...)
	case g.cfg.GCThresholdMB > 0 && rss >= g.cfg.GCThresholdMB:
		return append([]func(){}, g.onCleanup...)
	default:
		return nil
	}
}

// runHook isolates a hook failure so it is logged and swallowed rather than
// propagated, per the propagation rule that governor hook failures never
// abort the caller.
func runHook(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("memory governor hook panicked", "panic", r)
		}
	}()
	fn()
}

// Peak returns the highest-RSS snapshot observed so far.
func (g *Governor) Peak() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.peak
}

// Profile is the JSON-exportable view of accumulated memory history.
type Profile struct {
	Peak    Snapshot   `json:"peak"`
	History []Snapshot `json:"history"`
}

// Profile returns the peak snapshot plus the bounded recent history, ready
// for JSON serialisation.
func (g *Governor) Profile() Profile {
	g.mu.Lock()
	defer g.mu.Unlock()
	history := make([]Snapshot, len(g.history))
	copy(history, g.history)
	return Profile{Peak: g.peak, History: history}
}

// Start runs the periodic snapshot+evaluate loop at cfg.Interval until ctx
// is cancelled or Stop is called.
func (g *Governor) Start(ctx context.Context) {
	g.mu.Lock()
	if g.stop != nil {
		g.mu.Unlock()
		return
	}
	g.stop = make(chan struct{})
	g.done = make(chan struct{})
	g.mu.Unlock()

	go func() {
		defer close(g.done)
		ticker := time.NewTicker(g.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-g.stop:
				return
			case <-ticker.C:
				g.Evaluate(g.Snapshot())
			}
		}
	}()
}

// Stop ends the periodic loop started by Start and waits for it to exit.
func (g *Governor) Stop() {
	g.mu.Lock()
	stop := g.stop
	done := g.done
	g.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// timeNow is a seam so tests can control Snapshot timestamps without
// sleeping.
var timeNow = time.Now
