package mount

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Letdown2491/waypoint/pkg/log"
	"github.com/Letdown2491/waypoint/pkg/types"
)

// DestinationScanner is the subset of *backup.Scanner the monitor polls;
// satisfied by *backup.Scanner without modification, and substitutable with
// a fake in tests.
type DestinationScanner interface {
	ScanDestinations() ([]types.DiscoveredDestination, error)
}

// Monitor owns the in-memory set of currently-mounted destination UUIDs,
// polling scanner at interval and invoking OnMount/OnUnmount for changes.
// Its run loop follows the same Start/ticker/select/Stop shape used
// elsewhere in this codebase for background workers.
type Monitor struct {
	scanner  DestinationScanner
	interval time.Duration

	mu      sync.Mutex
	mounted map[string]types.DiscoveredDestination

	onMount   func(types.DiscoveredDestination)
	onUnmount func(uuid string)

	stopCh chan struct{}
}

// NewMonitor builds a Monitor. Either callback may be nil.
func NewMonitor(scanner DestinationScanner, interval time.Duration, onMount func(types.DiscoveredDestination), onUnmount func(uuid string)) *Monitor {
	return &Monitor{
		scanner:   scanner,
		interval:  interval,
		mounted:   make(map[string]types.DiscoveredDestination),
		onMount:   onMount,
		onUnmount: onUnmount,
	}
}

// Initialize populates the mounted set from an initial scan, without
// invoking OnMount for what is already present at startup.
func (m *Monitor) Initialize() error {
	destinations, err := m.scanner.ScanDestinations()
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range destinations {
		m.mounted[d.UUID] = d
	}
	return nil
}

// CheckForNewMounts diffs a fresh scan against the mounted set, adds
// newly-present UUIDs to the set, and returns them.
func (m *Monitor) CheckForNewMounts() ([]types.DiscoveredDestination, error) {
	destinations, err := m.scanner.ScanDestinations()
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var newly []types.DiscoveredDestination
	for _, d := range destinations {
		if _, ok := m.mounted[d.UUID]; !ok {
			m.mounted[d.UUID] = d
			newly = append(newly, d)
		}
	}
	return newly, nil
}

// CheckForUnmounts is CheckForNewMounts' symmetric counterpart: UUIDs that
// were mounted but no longer appear in the scan are removed from the set
// and their UUIDs returned.
func (m *Monitor) CheckForUnmounts() ([]string, error) {
	destinations, err := m.scanner.ScanDestinations()
	if err != nil {
		return nil, err
	}
	present := make(map[string]bool, len(destinations))
	for _, d := range destinations {
		present[d.UUID] = true
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var gone []string
	for uuid := range m.mounted {
		if !present[uuid] {
			gone = append(gone, uuid)
		}
	}
	for _, uuid := range gone {
		delete(m.mounted, uuid)
	}
	return gone, nil
}

// Start begins polling in a background goroutine.
func (m *Monitor) Start() {
	m.stopCh = make(chan struct{})
	go m.run()
}

// Stop ends the polling loop.
func (m *Monitor) Stop() {
	close(m.stopCh)
}

func (m *Monitor) run() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	logger := log.WithComponent("mount")
	logger.Info().Msg("mount monitor started")

	for {
		select {
		case <-ticker.C:
			m.poll(logger)
		case <-m.stopCh:
			logger.Info().Msg("mount monitor stopped")
			return
		}
	}
}

func (m *Monitor) poll(logger zerolog.Logger) {
	newly, err := m.CheckForNewMounts()
	if err != nil {
		logger.Warn().Err(err).Msg("failed to scan for new mounts")
	}
	for _, d := range newly {
		if m.onMount != nil {
			m.onMount(d)
		}
	}

	gone, err := m.CheckForUnmounts()
	if err != nil {
		logger.Warn().Err(err).Msg("failed to scan for unmounts")
	}
	for _, uuid := range gone {
		if m.onUnmount != nil {
			m.onUnmount(uuid)
		}
	}
}
