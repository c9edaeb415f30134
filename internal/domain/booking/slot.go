package booking

import (
	"fmt"
	"strings"
	"time"
)

// SlotLayout is the date+time form of a slot, e.g. "2026-04-07 09:00".
const SlotLayout = "2006-01-02 15:04"

func FormatSlot(t time.Time) string {
	return t.Format(SlotLayout)
}

// ParseSlot reads a slot string in loc.
func ParseSlot(slot string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(SlotLayout, strings.TrimSpace(slot), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse slot %q: %w", slot, err)
	}
	return t, nil
}

func formatAmount(amount *int64) string {
	if amount == nil {
		return ""
	}
	return fmt.Sprintf("%d ₽", *amount)
}
