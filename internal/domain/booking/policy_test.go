package booking

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOffsetPolicy(t *testing.T) {
	b := LessonBookingRequest{StartAt: time.Date(2026, 4, 7, 9, 0, 0, 0, time.UTC)}

	slot, start := OffsetPolicy{Offset: 24 * time.Hour}.Propose(b)
	assert.Equal(t, "2026-04-08 09:00", slot)
	assert.Equal(t, time.Date(2026, 4, 8, 9, 0, 0, 0, time.UTC), start)

	slot, _ = OffsetPolicy{}.Propose(b)
	assert.Equal(t, "2026-04-08 09:00", slot)

	slot, _ = OffsetPolicy{Offset: 90 * time.Minute}.Propose(b)
	assert.Equal(t, "2026-04-07 10:30", slot)
}

func TestOffsetPolicy_KeepsTimeOfDayAcrossDST(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	// Clocks move forward on 2026-03-29.
	b := LessonBookingRequest{StartAt: time.Date(2026, 3, 28, 9, 0, 0, 0, berlin)}
	slot, start := OffsetPolicy{Offset: 24 * time.Hour}.Propose(b)

	assert.Equal(t, "2026-03-29 09:00", slot)
	assert.Equal(t, 9, start.Hour())
}
