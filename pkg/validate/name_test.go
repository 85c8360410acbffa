package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnapshotName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{"simple", "demo", true},
		{"with dash and underscore", "demo-snapshot_1", true},
		{"empty", "", false},
		{"starts with dash", "-demo", false},
		{"starts with dot", ".demo", false},
		{"is dot", ".", false},
		{"is dotdot", "..", false},
		{"contains dotdot", "demo..snap", false},
		{"contains slash", "demo/snap", false},
		{"contains NUL", "demo\x00snap", false},
		{"contains space", "demo snap", false},
		{"too long", string(make([]byte, 256)), false},
		{"max length alnum", repeatA(255), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, SnapshotName(tt.input))
		})
	}
}

func repeatA(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = 'a'
	}
	return string(b)
}

func TestSchedulePrefix(t *testing.T) {
	assert.True(t, SchedulePrefix("daily"))
	assert.True(t, SchedulePrefix(repeatA(50)))
	assert.False(t, SchedulePrefix(repeatA(51)))
}

func TestTimeOfDay(t *testing.T) {
	tests := []struct {
		input string
		valid bool
	}{
		{"00:00", true},
		{"23:59", true},
		{"09:30", true},
		{"24:00", false},
		{"12:60", false},
		{"1:30", false},
		{"", false},
		{"abcde", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.valid, TimeOfDay(tt.input), tt.input)
	}
}

func TestDayOfWeekAndMonth(t *testing.T) {
	assert.True(t, DayOfWeek(0))
	assert.True(t, DayOfWeek(6))
	assert.False(t, DayOfWeek(7))
	assert.False(t, DayOfWeek(-1))

	assert.True(t, DayOfMonth(1))
	assert.True(t, DayOfMonth(31))
	assert.False(t, DayOfMonth(0))
	assert.False(t, DayOfMonth(32))
}
