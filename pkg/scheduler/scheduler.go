package scheduler

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Letdown2491/waypoint/pkg/log"
	"github.com/Letdown2491/waypoint/pkg/types"
)

// Scheduler owns one worker per enabled schedule and a process-wide
// exclusion token serializing actual captures across them. If any worker
// exits without the scheduler itself being stopped (a panic, recovered at
// the goroutine boundary), the whole worker set is restarted.
type Scheduler struct {
	logger zerolog.Logger

	mu        sync.Mutex
	schedules []types.Schedule
	manager   Creator
	exclusion *sync.Mutex
	cancel    context.CancelFunc
	doneCh    chan struct{}
}

// NewScheduler builds a Scheduler over schedules, driving manager.
func NewScheduler(schedules []types.Schedule, manager Creator) *Scheduler {
	return &Scheduler{
		logger:    log.WithComponent("scheduler"),
		schedules: schedules,
		manager:   manager,
		exclusion: &sync.Mutex{},
	}
}

// Start launches a worker per enabled schedule. Calling Start while already
// running is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.doneCh = make(chan struct{})
	go s.supervise(ctx, s.doneCh)
}

// Stop cancels every worker and waits for the set to wind down.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.doneCh
	s.cancel = nil
	s.doneCh = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Restart stops the current worker set, replaces the schedule list (e.g.
// after SaveSchedulesConfig), and starts fresh.
func (s *Scheduler) Restart(schedules []types.Schedule) {
	s.Stop()
	s.mu.Lock()
	s.schedules = schedules
	s.mu.Unlock()
	s.Start()
}

// Running reports whether the worker set is currently active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// ScheduleStatus summarizes one configured schedule for GetSchedulerStatus.
type ScheduleStatus struct {
	Prefix  string `json:"prefix"`
	Kind    string `json:"kind"`
	Enabled bool   `json:"enabled"`
}

// Status reports whether the worker set is running and the configured
// schedules, for the GetSchedulerStatus IPC method.
func (s *Scheduler) Status() (running bool, schedules []ScheduleStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	running = s.cancel != nil
	for _, sched := range s.schedules {
		schedules = append(schedules, ScheduleStatus{
			Prefix:  sched.Prefix,
			Kind:    string(sched.Kind),
			Enabled: sched.Enabled,
		})
	}
	return running, schedules
}

func (s *Scheduler) supervise(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		exited := s.runGeneration(ctx)
		<-exited
		if ctx.Err() != nil {
			return
		}
		s.logger.Warn().Msg("a schedule worker exited unexpectedly, restarting the worker set")
	}
}

// runGeneration launches one worker per enabled schedule under a
// child context and returns a channel that closes once every worker in
// the generation has returned, whether from cooperative cancellation or a
// recovered panic.
func (s *Scheduler) runGeneration(ctx context.Context) <-chan struct{} {
	s.mu.Lock()
	schedules := append([]types.Schedule(nil), s.schedules...)
	manager := s.manager
	s.mu.Unlock()

	genCtx, cancelGen := context.WithCancel(ctx)
	exited := make(chan struct{})

	var wg sync.WaitGroup
	launched := 0
	for _, sched := range schedules {
		if !sched.Enabled {
			continue
		}
		sched := sched
		w := newWorker(sched, manager, s.exclusion, s.logger)
		wg.Add(1)
		launched++
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error().Interface("panic", r).Str("schedule_prefix", sched.Prefix).Msg("schedule worker panicked")
					cancelGen()
				}
			}()
			w.run(genCtx)
		}()
	}

	if launched == 0 {
		// Nothing to supervise; wait for cooperative shutdown only, so an
		// empty or fully-disabled schedule list does not spin.
		go func() {
			<-genCtx.Done()
			close(exited)
		}()
		return exited
	}

	go func() {
		wg.Wait()
		cancelGen()
		close(exited)
	}()
	return exited
}
