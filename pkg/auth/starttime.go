package auth

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Letdown2491/waypoint/pkg/waypointerr"
)

// processStartTime reads the kernel's start-time clock ticks for pid from
// /proc/<pid>/stat. The comm field (2nd field) may itself contain spaces
// or parentheses, so fields are located relative to the last ')' rather
// than by naive whitespace splitting; starttime is field 22 overall, i.e.
// index 19 of the fields following that ')'.
func processStartTime(pid uint32) (uint64, error) {
	raw, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return 0, waypointerr.Wrap(waypointerr.ExternalFailure, "read /proc/<pid>/stat", err)
	}
	return parseStartTime(string(raw))
}

// parseStartTime implements the field-extraction rule in isolation, so it
// can be exercised with synthetic /proc/<pid>/stat content.
func parseStartTime(content string) (uint64, error) {
	closeParen := strings.LastIndexByte(content, ')')
	if closeParen < 0 {
		return 0, waypointerr.New(waypointerr.ExternalFailure, "malformed /proc/<pid>/stat: no ')' found")
	}

	fields := strings.Fields(content[closeParen+1:])
	const startTimeIndex = 19
	if len(fields) <= startTimeIndex {
		return 0, waypointerr.New(waypointerr.ExternalFailure, "malformed /proc/<pid>/stat: too few fields")
	}

	startTime, err := strconv.ParseUint(fields[startTimeIndex], 10, 64)
	if err != nil {
		return 0, waypointerr.Wrap(waypointerr.ExternalFailure, "parse process start time", err)
	}
	return startTime, nil
}
