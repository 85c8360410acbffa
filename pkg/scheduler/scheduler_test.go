package scheduler

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Letdown2491/waypoint/pkg/log"
	"github.com/Letdown2491/waypoint/pkg/types"
)

func TestScheduler_StartStop_NoSchedulesIsStable(t *testing.T) {
	s := NewScheduler(nil, &fakeCreator{})
	s.Start()
	assert.True(t, s.Running())
	s.Stop()
	assert.False(t, s.Running())
}

func TestScheduler_StartIsIdempotent(t *testing.T) {
	s := NewScheduler(nil, &fakeCreator{})
	s.Start()
	s.Start() // no-op, must not deadlock or replace the running instance
	s.Stop()
}

func TestScheduler_Status_ReportsConfiguredSchedules(t *testing.T) {
	s := NewScheduler([]types.Schedule{
		{Kind: types.ScheduleDaily, Prefix: "daily", Enabled: true},
		{Kind: types.ScheduleWeekly, Prefix: "weekly", Enabled: false},
	}, &fakeCreator{})

	running, statuses := s.Status()
	assert.False(t, running)
	require.Len(t, statuses, 2)
	assert.Equal(t, "daily", statuses[0].Prefix)
	assert.True(t, statuses[0].Enabled)
	assert.False(t, statuses[1].Enabled)
}

func TestScheduler_Restart_ReplacesScheduleList(t *testing.T) {
	s := NewScheduler([]types.Schedule{{Kind: types.ScheduleDaily, Prefix: "daily", Enabled: true, TimeOfDay: "02:00"}}, &fakeCreator{})
	s.Start()

	s.Restart([]types.Schedule{{Kind: types.ScheduleWeekly, Prefix: "weekly", Enabled: true, TimeOfDay: "02:00", DayOfWeek: intPtr(0)}})
	defer s.Stop()

	_, statuses := s.Status()
	require.Len(t, statuses, 1)
	assert.Equal(t, "weekly", statuses[0].Prefix)
}

func TestWorker_Fire_CreatesSnapshotAndAppliesRetention(t *testing.T) {
	fc := &fakeCreator{}
	schedule := types.Schedule{Prefix: "daily", KeepCount: 1}
	w := newWorker(schedule, fc, &sync.Mutex{}, log.WithComponent("test"))

	w.fire(context.Background())
	require.Len(t, fc.snaps, 1)
	assert.True(t, strings.HasPrefix(fc.snaps[0].Name, "daily-"))
	assert.Empty(t, fc.deleted)
}

func TestWorker_Fire_SkipsOnInvalidPrefix(t *testing.T) {
	fc := &fakeCreator{}
	w := newWorker(types.Schedule{Prefix: "-bad"}, fc, &sync.Mutex{}, log.WithComponent("test"))
	w.fire(context.Background())
	assert.Empty(t, fc.snaps)
}
