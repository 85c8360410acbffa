// Package audit emits one line per state-changing action to a durable
// sink, whether the action was authorized, denied, or failed outright.
package audit
