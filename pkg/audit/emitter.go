package audit

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Letdown2491/waypoint/pkg/log"
)

// Emitter serializes Records to sink, one JSON line per call. A Marshal
// failure (which should never happen for this fixed-shape struct, but the
// contract is explicit) falls back to a space-delimited key=value line so
// an audit event is never silently dropped.
type Emitter struct {
	mu     sync.Mutex
	sink   io.Writer
	logger zerolog.Logger
}

// NewEmitter wraps sink, the destination for audit lines.
func NewEmitter(sink io.Writer) *Emitter {
	return &Emitter{sink: sink, logger: log.WithComponent("audit")}
}

// Emit writes one record to the sink. Timestamp is normalized to UTC
// before serialization.
func (e *Emitter) Emit(r Record) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	r.Timestamp = r.Timestamp.UTC()

	e.mu.Lock()
	defer e.mu.Unlock()

	data, err := json.Marshal(r)
	if err != nil {
		e.writeFallback(r)
		return
	}
	data = append(data, '\n')
	if _, werr := e.sink.Write(data); werr != nil {
		e.logger.Error().Err(werr).Msg("failed to write audit record")
	}
}

func (e *Emitter) writeFallback(r Record) {
	line := fmt.Sprintf("id=%s timestamp=%s user_id=%s user_name=%s process_id=%d operation=%s resource=%s result=%s details=%s\n",
		r.ID, r.Timestamp.Format(time.RFC3339), r.UserID, r.UserName, r.ProcessID, r.Operation, r.Resource, r.Result, r.Details)
	if _, err := e.sink.Write([]byte(line)); err != nil {
		e.logger.Error().Err(err).Msg("failed to write audit fallback record")
	}
}
