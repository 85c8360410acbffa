package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Letdown2491/waypoint/pkg/metrics"
	"github.com/Letdown2491/waypoint/pkg/types"
	"github.com/Letdown2491/waypoint/pkg/validate"
)

// Creator is the subset of *snapshot.Manager a worker drives; satisfied by
// *snapshot.Manager without modification, and substitutable with a fake in
// tests.
type Creator interface {
	Create(ctx context.Context, name, description string, createdBy types.SnapshotCreatedBy, subvolumes []string) (types.Snapshot, error)
	Delete(ctx context.Context, name string) error
	List() ([]types.Snapshot, error)
}

type worker struct {
	schedule  types.Schedule
	manager   Creator
	exclusion *sync.Mutex
	logger    zerolog.Logger
}

func newWorker(schedule types.Schedule, manager Creator, exclusion *sync.Mutex, logger zerolog.Logger) *worker {
	return &worker{
		schedule:  schedule,
		manager:   manager,
		exclusion: exclusion,
		logger:    logger.With().Str("schedule_prefix", schedule.Prefix).Str("schedule_kind", string(schedule.Kind)).Logger(),
	}
}

// run is the worker's cooperative loop: compute the next firing, sleep,
// fire. A next-run computation failure sleeps 60 seconds and retries
// rather than firing. run returns only when ctx is cancelled.
func (w *worker) run(ctx context.Context) {
	for {
		dur, err := nextRunDuration(w.schedule, time.Now())
		if err != nil {
			w.logger.Error().Err(err).Msg("failed to compute next run, retrying in 60s")
			dur = 60 * time.Second
		}

		select {
		case <-time.After(dur):
		case <-ctx.Done():
			return
		}

		if err != nil {
			continue
		}
		if ctx.Err() != nil {
			return
		}
		w.fire(ctx)
	}
}

func (w *worker) fire(ctx context.Context) {
	w.exclusion.Lock()
	defer w.exclusion.Unlock()

	timer := metrics.NewTimer()
	kind := string(w.schedule.Kind)

	if !validate.SchedulePrefix(w.schedule.Prefix) {
		w.logger.Error().Msg("schedule prefix failed validation, skipping run")
		metrics.SchedulerCyclesTotal.WithLabelValues(kind, "invalid_prefix").Inc()
		return
	}

	now := time.Now().UTC()
	name := fmt.Sprintf("%s-%s", w.schedule.Prefix, now.Format("20060102-1504"))

	subvolumes := w.schedule.Subvolumes
	if len(subvolumes) == 0 {
		subvolumes = []string{"/"}
	}

	if _, err := w.manager.Create(ctx, name, w.schedule.Description, types.CreatedByScheduler, subvolumes); err != nil {
		w.logger.Error().Err(err).Str("snapshot_name", name).Msg("scheduled capture failed")
		metrics.SchedulerCyclesTotal.WithLabelValues(kind, "failure").Inc()
		timer.ObserveDurationVec(metrics.SchedulerCycleDuration, kind)
		return
	}
	w.logger.Info().Str("snapshot_name", name).Msg("scheduled capture completed")

	if err := CleanupSchedule(ctx, w.manager, w.schedule); err != nil {
		w.logger.Error().Err(err).Msg("scheduled retention cleanup failed")
	}

	metrics.SchedulerCyclesTotal.WithLabelValues(kind, "success").Inc()
	timer.ObserveDurationVec(metrics.SchedulerCycleDuration, kind)
}
