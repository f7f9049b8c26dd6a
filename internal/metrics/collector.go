package metrics

import (
	"context"
	"time"

	"photo-jobs/internal/logging"
)

// StatsProvider reports library and job store totals.
type StatsProvider interface {
	GetStats(ctx context.Context) (Stats, error)
}

// Stats holds the values published by the Collector.
type Stats struct {
	Photos          int
	Tags            int
	StoredJobs      int
	OpenConnections int
}

// SchedulerState is the part of the scheduler the Collector samples.
type SchedulerState interface {
	Len() int
	Suspended() bool
}

// Collector periodically samples gauges that are not driven by events.
type Collector struct {
	statsProvider StatsProvider
	scheduler     SchedulerState
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector. Either source may be nil.
func NewCollector(provider StatsProvider, sched SchedulerState, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		scheduler:     sched,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.scheduler != nil {
		JobsPending.Set(float64(c.scheduler.Len()))
		if c.scheduler.Suspended() {
			SchedulerSuspended.Set(1)
		} else {
			SchedulerSuspended.Set(0)
		}
	}

	if c.statsProvider == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.interval)
	defer cancel()

	stats, err := c.statsProvider.GetStats(ctx)
	if err != nil {
		logging.Warn("Metrics collection failed: %v", err)
		return
	}

	LibraryPhotosTotal.Set(float64(stats.Photos))
	LibraryTagsTotal.Set(float64(stats.Tags))
	DBStoredJobs.Set(float64(stats.StoredJobs))
	DBConnectionsOpen.Set(float64(stats.OpenConnections))

	logging.Debug("Metrics collected: photos=%d, tags=%d, stored_jobs=%d",
		stats.Photos, stats.Tags, stats.StoredJobs)
}
