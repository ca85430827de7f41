package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToIST(t *testing.T) {
	// 20:00 UTC is 01:30 the next day in IST
	utc := time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)
	ist := ToIST(utc)

	assert.Equal(t, 15, ist.Day())
	assert.Equal(t, 1, ist.Hour())
	assert.Equal(t, 30, ist.Minute())
	assert.True(t, utc.Equal(ist))
}

func TestParseInIST(t *testing.T) {
	parsed, err := ParseInIST(DateLayout, "2026-03-14")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-14", parsed.Format(DateLayout))

	_, offset := parsed.Zone()
	assert.Equal(t, 5*3600+1800, offset)

	_, err = ParseInIST(DateLayout, "14-03-2026")
	assert.Error(t, err)
}

func TestStartOfDay(t *testing.T) {
	// Late evening UTC already belongs to the next IST day
	utc := time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)
	start := StartOfDay(utc)

	assert.Equal(t, "2026-03-15", start.Format(DateLayout))
	assert.Equal(t, 0, start.Hour())
	assert.Equal(t, 0, start.Minute())
}
