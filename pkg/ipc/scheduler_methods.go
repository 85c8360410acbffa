package ipc

import (
	"context"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/Letdown2491/waypoint/pkg/auth"
	"github.com/Letdown2491/waypoint/pkg/config"
	"github.com/Letdown2491/waypoint/pkg/retention"
	"github.com/Letdown2491/waypoint/pkg/scheduler"
)

// SaveSchedulesConfig persists content, the UI's already-serialized
// `[[schedule]]` document, then restarts the worker set against it.
func (s *Service) SaveSchedulesConfig(content string, sender dbus.Sender) (bool, string, *dbus.Error) {
	ctx := context.Background()
	ok, msg := s.gated(ctx, sender, "SaveSchedulesConfig", auth.ActionScheduler, s.paths.SchedulesConfig, func() (string, error) {
		if err := config.SaveSchedulesRaw(s.paths.SchedulesConfig, []byte(content)); err != nil {
			return "", err
		}
		cfg, err := config.LoadSchedules(s.paths.SchedulesConfig)
		if err != nil {
			return "", err
		}
		s.sched.Restart(cfg.Schedules)
		return "schedules saved and scheduler restarted", nil
	})
	return ok, msg, nil
}

// RestartScheduler reloads the on-disk schedule list and restarts the
// worker set against it.
func (s *Service) RestartScheduler(sender dbus.Sender) (bool, string, *dbus.Error) {
	ctx := context.Background()
	ok, msg := s.gated(ctx, sender, "RestartScheduler", auth.ActionScheduler, s.paths.SchedulesConfig, func() (string, error) {
		cfg, err := config.LoadSchedules(s.paths.SchedulesConfig)
		if err != nil {
			return "", err
		}
		s.sched.Restart(cfg.Schedules)
		return "scheduler restarted", nil
	})
	return ok, msg, nil
}

// GetSchedulerStatus reports whether the worker set is running and what
// schedules it currently holds. Read-only; skips authorization and audit.
func (s *Service) GetSchedulerStatus() (string, *dbus.Error) {
	out := s.readOnly("GetSchedulerStatus", func() (string, error) {
		running, schedules := s.sched.Status()
		return toJSON(struct {
			Running   bool                       `json:"running"`
			Schedules []scheduler.ScheduleStatus `json:"schedules"`
		}{Running: running, Schedules: schedules}), nil
	})
	return out, nil
}

// CleanupSnapshots applies retention. When scheduleBased is true, every
// configured schedule's KeepCount/KeepDays is applied to the snapshots
// carrying its prefix; otherwise the admin-wide global policy is applied
// across every known snapshot.
func (s *Service) CleanupSnapshots(scheduleBased bool, sender dbus.Sender) (bool, string, *dbus.Error) {
	ctx := context.Background()
	ok, msg := s.gated(ctx, sender, "CleanupSnapshots", auth.ActionCleanup, "", func() (string, error) {
		if scheduleBased {
			return s.cleanupBySchedule(ctx)
		}
		return s.cleanupByGlobalPolicy(ctx)
	})
	return ok, msg, nil
}

func (s *Service) cleanupBySchedule(ctx context.Context) (string, error) {
	cfg, err := config.LoadSchedules(s.paths.SchedulesConfig)
	if err != nil {
		return "", err
	}
	var firstErr error
	for _, sched := range cfg.Schedules {
		if err := scheduler.CleanupSchedule(ctx, s.snapshots, sched); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return "", firstErr
	}
	return "schedule-based cleanup complete", nil
}

func (s *Service) cleanupByGlobalPolicy(ctx context.Context) (string, error) {
	cfg, err := config.LoadRetentionConfig(s.paths.RetentionConfig)
	if err != nil {
		return "", err
	}
	snaps, err := s.snapshots.List()
	if err != nil {
		return "", err
	}
	var entries []retention.Entry
	for _, snap := range snaps {
		entries = append(entries, retention.Entry{Name: snap.Name, Timestamp: snap.CreatedAt})
	}
	_, del := retention.Global(entries, cfg.Global, time.Now().UTC())

	var firstErr error
	for _, name := range del {
		if err := s.snapshots.Delete(ctx, name); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return "", firstErr
	}
	return "global cleanup complete", nil
}
