// Package ipc exposes the privileged helper's method table over D-Bus: a
// registered service name and object path, typed method calls that gate
// state-changing operations behind the authorization gateway and audit
// emitter, and a SnapshotCreated signal fired after every successful
// capture.
package ipc
