// Package packages provides the seam the snapshot lifecycle manager calls
// to attach an installed-package list to a capture. Real host
// package-manager probing lives outside the privileged engine; the list
// is consumed as an opaque []types.Package however it was produced.
package packages

import "github.com/Letdown2491/waypoint/pkg/types"

// Collector produces the installed-package list for a capture.
type Collector interface {
	Installed() ([]types.Package, error)
}

// NoopCollector always returns an empty list. It is the default Collector
// when no host-specific package-manager integration is configured.
type NoopCollector struct{}

func (NoopCollector) Installed() ([]types.Package, error) {
	return nil, nil
}
