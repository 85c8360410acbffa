// Package scheduler runs one cooperative worker per enabled capture
// schedule, serializing actual captures across the worker set with a
// process-wide exclusion token, and drives schedule-aware retention
// cleanup after each run.
package scheduler
