package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStartTime_HandlesCommWithSpacesAndParens(t *testing.T) {
	// comm field is "(my process) (weird)"; starttime is field 19 after
	// the last ')'.
	fields := "1 (my process) (weird) S 1 1 1 0 -1 4194560 100 0 0 0 10 2 0 0 20 0 1 0 123456789 ..."
	startTime, err := parseStartTime(fields)
	require.NoError(t, err)
	assert.Equal(t, uint64(123456789), startTime)
}

func TestParseStartTime_Simple(t *testing.T) {
	// 7 literal fields (state..flags) + 12 zero fillers (indices 7-18) +
	// starttime (index 19) = the 20 fields following the comm ')'.
	var b []byte
	b = append(b, []byte("42 (bash) S 1 42 42 0 -1 4194304 ")...)
	for i := 0; i < 12; i++ {
		b = append(b, []byte("0 ")...)
	}
	b = append(b, []byte("999")...)
	startTime, err := parseStartTime(string(b))
	require.NoError(t, err)
	assert.Equal(t, uint64(999), startTime)
}

func TestParseStartTime_MissingCloseParen(t *testing.T) {
	_, err := parseStartTime("not a stat line")
	assert.Error(t, err)
}

func TestParseStartTime_TooFewFields(t *testing.T) {
	_, err := parseStartTime("1 (bash) S 1 1")
	assert.Error(t, err)
}
