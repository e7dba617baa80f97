package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseWallClock(t *testing.T) {
	t.Parallel()

	h, m, err := ParseWallClock("09:55")
	assert.NoError(t, err)
	assert.Equal(t, 9, h)
	assert.Equal(t, 55, m)

	for _, bad := range []string{"", "9", "25:00", "09:61", "ab:cd"} {
		_, _, err := ParseWallClock(bad)
		assert.Error(t, err, bad)
	}
}

func TestNextRecalibrationSameDay(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("MSK", 3*60*60)
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, loc)

	next := nextRecalibration(now, loc, 9, 55)
	assert.Equal(t, time.Date(2025, 3, 10, 9, 55, 0, 0, loc), next)
}

func TestNextRecalibrationRollsToTomorrow(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("MSK", 3*60*60)
	now := time.Date(2025, 3, 10, 9, 55, 0, 0, loc)

	next := nextRecalibration(now, loc, 9, 55)
	assert.Equal(t, time.Date(2025, 3, 11, 9, 55, 0, 0, loc), next)
}

func TestNextRecalibrationAnchorsInExchangeZone(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("MSK", 3*60*60)
	// 07:30 UTC is 10:30 in Moscow, past the 09:55 slot.
	now := time.Date(2025, 3, 10, 7, 30, 0, 0, time.UTC)

	next := nextRecalibration(now, loc, 9, 55)
	assert.Equal(t, time.Date(2025, 3, 11, 9, 55, 0, 0, loc).Unix(), next.Unix())
}
