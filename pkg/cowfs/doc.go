/*
Package cowfs is the sole component permitted to issue CoW-filesystem
control operations: create read-only/writable snapshots, delete
subvolumes, inspect subvolume id/UUID, get/set the default subvolume,
send/receive, and quota management. Every other component — the lifecycle
manager, rollback engine, and backup engine — calls into this package
rather than shelling out directly.

Runner abstracts subprocess execution so tests never touch a real
filesystem; ExecRunner is the production implementation.
*/
package cowfs
