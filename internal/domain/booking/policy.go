package booking

import "time"

// ReschedulePolicy picks the candidate slot a teacher proposes when they do
// not name one.
type ReschedulePolicy interface {
	Propose(b LessonBookingRequest) (slot string, startAt time.Time)
}

// OffsetPolicy moves the original start by a fixed offset. Whole-day offsets
// keep the time of day in the booking's location.
type OffsetPolicy struct {
	Offset time.Duration
}

const day = 24 * time.Hour

func (p OffsetPolicy) Propose(b LessonBookingRequest) (string, time.Time) {
	offset := p.Offset
	if offset == 0 {
		offset = day
	}

	var next time.Time
	if offset%day == 0 {
		next = b.StartAt.AddDate(0, 0, int(offset/day))
	} else {
		next = b.StartAt.Add(offset)
	}
	return FormatSlot(next), next
}
