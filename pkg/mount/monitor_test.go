package mount

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Letdown2491/waypoint/pkg/types"
)

type fakeScanner struct {
	destinations []types.DiscoveredDestination
	err          error
}

func (f *fakeScanner) ScanDestinations() ([]types.DiscoveredDestination, error) {
	return f.destinations, f.err
}

func TestMonitor_Initialize_PopulatesWithoutFiringCallbacks(t *testing.T) {
	scanner := &fakeScanner{destinations: []types.DiscoveredDestination{{UUID: "uuid-1", MountPoint: "/mnt/backup1"}}}
	var mountFired bool
	m := NewMonitor(scanner, 0, func(types.DiscoveredDestination) { mountFired = true }, nil)

	require.NoError(t, m.Initialize())
	assert.False(t, mountFired)
}

func TestMonitor_CheckForNewMounts(t *testing.T) {
	scanner := &fakeScanner{}
	m := NewMonitor(scanner, 0, nil, nil)
	require.NoError(t, m.Initialize())

	scanner.destinations = []types.DiscoveredDestination{{UUID: "uuid-1", MountPoint: "/mnt/backup1"}}
	newly, err := m.CheckForNewMounts()
	require.NoError(t, err)
	require.Len(t, newly, 1)
	assert.Equal(t, "uuid-1", newly[0].UUID)

	// a second check with the same scan finds nothing new
	again, err := m.CheckForNewMounts()
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestMonitor_CheckForUnmounts(t *testing.T) {
	scanner := &fakeScanner{destinations: []types.DiscoveredDestination{{UUID: "uuid-1"}, {UUID: "uuid-2"}}}
	m := NewMonitor(scanner, 0, nil, nil)
	require.NoError(t, m.Initialize())

	scanner.destinations = []types.DiscoveredDestination{{UUID: "uuid-1"}}
	gone, err := m.CheckForUnmounts()
	require.NoError(t, err)
	require.Len(t, gone, 1)
	assert.Equal(t, "uuid-2", gone[0])

	again, err := m.CheckForUnmounts()
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestMonitor_PollInvokesCallbacks(t *testing.T) {
	scanner := &fakeScanner{destinations: []types.DiscoveredDestination{{UUID: "uuid-1"}}}
	var mounted []string
	var unmounted []string
	m := NewMonitor(scanner, 0, func(d types.DiscoveredDestination) {
		mounted = append(mounted, d.UUID)
	}, func(uuid string) {
		unmounted = append(unmounted, uuid)
	})
	require.NoError(t, m.Initialize())

	scanner.destinations = nil
	m.poll(zerolog.Nop())

	assert.Empty(t, mounted)
	assert.Equal(t, []string{"uuid-1"}, unmounted)
}
