// Package backup implements destination discovery, replication, listing,
// restore, and verification against external backup targets. Every
// write-capable operation runs through ValidateDestination first, the sole
// authority for what counts as a legal backup target.
package backup
