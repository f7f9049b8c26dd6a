package memory

import (
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"photo-jobs/internal/logging"
	"photo-jobs/internal/metrics"
)

// Pauser is what the guard holds while memory is critical.
// *scheduler.Scheduler implements it.
type Pauser interface {
	Suspend()
	Resume()
}

// Config holds memory guard configuration
type Config struct {
	// LimitBytes is the soft memory limit (0 = use GOMEMLIMIT or no limit)
	LimitBytes int64

	// HighWaterMark is the usage ratio below which a held scheduler is released (0.0-1.0)
	HighWaterMark float64

	// CriticalWaterMark is the usage ratio at which the scheduler is suspended (0.0-1.0)
	CriticalWaterMark float64

	// CheckInterval is how often to sample memory usage
	CheckInterval time.Duration
}

// DefaultConfig returns the default guard configuration
func DefaultConfig() Config {
	return Config{
		HighWaterMark:     0.7,
		CriticalWaterMark: 0.85,
		CheckInterval:     5 * time.Second,
	}
}

// Guard suspends the scheduler while heap usage is above the critical
// watermark, so no new decode starts until memory drops below the high
// watermark. A job that is already running is not interrupted.
type Guard struct {
	config Config
	limit  int64
	pauser Pauser
	alloc  func() uint64

	mu       sync.Mutex
	current  uint64
	holding  bool
	stopOnce sync.Once
	stopChan chan struct{}
}

// NewGuard creates a guard for p. Without an explicit or GOMEMLIMIT limit
// the guard is inert.
func NewGuard(config Config, p Pauser) *Guard {
	limit := config.LimitBytes
	if limit == 0 {
		if goMemLimit := debug.SetMemoryLimit(-1); goMemLimit > 0 && goMemLimit < 1<<62 {
			limit = goMemLimit
			logging.Info("Memory guard using GOMEMLIMIT: %s", formatBytes(limit))
		}
	}
	if limit == 0 {
		logging.Warn("Memory guard: no memory limit configured, backpressure disabled")
	}

	return &Guard{
		config:   config,
		limit:    limit,
		pauser:   p,
		alloc:    heapAlloc,
		stopChan: make(chan struct{}),
	}
}

func heapAlloc() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return stats.Alloc
}

// Start begins sampling memory usage
func (g *Guard) Start() {
	if g.limit == 0 {
		return
	}
	go g.loop()
}

// Stop stops sampling and releases a held scheduler.
func (g *Guard) Stop() {
	g.stopOnce.Do(func() {
		close(g.stopChan)
		g.mu.Lock()
		defer g.mu.Unlock()
		if g.holding {
			g.holding = false
			metrics.MemoryPaused.Set(0)
			g.pauser.Resume()
		}
	})
}

func (g *Guard) loop() {
	ticker := time.NewTicker(g.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.check()
		case <-g.stopChan:
			return
		}
	}
}

func (g *Guard) check() {
	alloc := g.alloc()

	g.mu.Lock()
	defer g.mu.Unlock()

	g.current = alloc
	if g.limit <= 0 {
		return
	}
	usage := float64(alloc) / float64(g.limit)
	metrics.MemoryUsageRatio.Set(usage)

	switch {
	case usage >= g.config.CriticalWaterMark && !g.holding:
		logging.Warn("Memory critical (%.1f%% of limit), suspending job scheduler", usage*100)
		g.holding = true
		metrics.MemoryPaused.Set(1)
		metrics.MemoryPausesTotal.Inc()
		g.pauser.Suspend()
		go runtime.GC()
	case usage < g.config.HighWaterMark && g.holding:
		logging.Info("Memory recovered (%.1f%% of limit), resuming job scheduler", usage*100)
		g.holding = false
		metrics.MemoryPaused.Set(0)
		g.pauser.Resume()
	}
}

// Holding reports whether the guard currently suspends the scheduler.
func (g *Guard) Holding() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.holding
}

// Usage returns the last sampled usage as a fraction of the limit, or 0
// without a limit.
func (g *Guard) Usage() float64 {
	if g.limit <= 0 {
		return 0
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return float64(g.current) / float64(g.limit)
}
