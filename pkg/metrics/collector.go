package metrics

import "time"

// SnapshotSource is the minimal view of the snapshot store the collector
// needs; pkg/metadata.Store satisfies it.
type SnapshotSource interface {
	Count() (int, error)
}

// PendingSource is the minimal view of the pending-backup queue the
// collector needs; pkg/pending.Store satisfies it.
type PendingSource interface {
	PendingCount() (int, error)
}

// Collector periodically samples slow-changing gauges (snapshot count,
// pending-queue depth) so they're fresh for scraping without being
// recomputed on every request.
type Collector struct {
	snapshots SnapshotSource
	pending   PendingSource
	stopCh    chan struct{}
}

// NewCollector builds a collector over the given sources.
func NewCollector(snapshots SnapshotSource, pending PendingSource) *Collector {
	return &Collector{
		snapshots: snapshots,
		pending:   pending,
		stopCh:    make(chan struct{}),
	}
}

// Start begins collecting metrics every 15 seconds.
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	if c.snapshots != nil {
		if n, err := c.snapshots.Count(); err == nil {
			SnapshotsTotal.Set(float64(n))
		}
	}
	if c.pending != nil {
		if n, err := c.pending.PendingCount(); err == nil {
			PendingBackupsGauge.Set(float64(n))
		}
	}
}
