// Package snapshot implements the capture/list/delete/size lifecycle for
// read-only subvolume snapshots. It is the only component that decides the
// on-disk layout under the configured snapshot directory; every other
// package that needs a snapshot's captured subvolumes goes through
// metadata.Store directly, since Manager itself holds no exported state
// beyond its dependencies.
package snapshot
