package events

import "github.com/Letdown2491/waypoint/pkg/types"

// ProgressSink is a bounded, non-blocking channel of backup progress
// updates. Producers use try-send: a full channel drops the update (and the
// caller logs a warning); a disconnected consumer is silently ignored. The
// backup transfer itself is never blocked by a slow or absent reader.
type ProgressSink chan types.BackupProgress

// NewProgressSink allocates a sink with the given buffer depth.
func NewProgressSink(buffer int) ProgressSink {
	return make(ProgressSink, buffer)
}

// TrySend attempts a non-blocking send, reporting whether the update was
// delivered (false means the channel was full or nil).
func (p ProgressSink) TrySend(update types.BackupProgress) bool {
	if p == nil {
		return false
	}
	select {
	case p <- update:
		return true
	default:
		return false
	}
}
