package booking

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"lessonhub/internal/docstore"
	"lessonhub/internal/pkg/identity"
	"lessonhub/internal/pkg/validator"
)

const eventsDocument = "lesson_booking_events"

// EventLog is the append-only audit trail of booking transitions.
type EventLog struct {
	docs  docstore.Store
	now   func() time.Time
	newID func() string
	mu    sync.Mutex
}

func NewEventLog(docs docstore.Store) *EventLog {
	return &EventLog{docs: docs, now: time.Now, newID: identity.New}
}

type eventInput struct {
	BookingID string `validate:"required"`
	Actor     Actor  `validate:"required,oneof=student teacher system"`
	Action    string `validate:"required"`
}

// Append stores e, filling ID and CreatedAt when they are empty.
func (l *EventLog) Append(ctx context.Context, e Event) (Event, error) {
	if fields := validator.Validate(eventInput{BookingID: e.BookingID, Actor: e.Actor, Action: e.Action}); fields != nil {
		return Event{}, validationError(fields)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	events, err := l.load(ctx)
	if err != nil {
		return Event{}, err
	}
	if e.ID == "" {
		e.ID = l.newID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = l.now().UTC()
	}
	events = append(events, e)

	if err := l.docs.Save(ctx, eventsDocument, events); err != nil {
		return Event{}, fmt.Errorf("save booking events: %w", err)
	}
	return e, nil
}

// List returns every event, newest first.
func (l *EventLog) List(ctx context.Context) ([]Event, error) {
	events, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	return newestFirst(events), nil
}

// ForBooking returns the events of one booking, newest first. Imported
// bookings may have none.
func (l *EventLog) ForBooking(ctx context.Context, bookingID string) ([]Event, error) {
	events, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Event, 0)
	for _, e := range events {
		if e.BookingID == bookingID {
			out = append(out, e)
		}
	}
	return newestFirst(out), nil
}

func (l *EventLog) load(ctx context.Context) ([]Event, error) {
	var events []Event
	if _, err := l.docs.Load(ctx, eventsDocument, &events); err != nil {
		return nil, fmt.Errorf("load booking events: %w", err)
	}
	return events, nil
}

// newestFirst orders by CreatedAt descending; events with equal timestamps
// keep reverse append order.
func newestFirst(events []Event) []Event {
	out := make([]Event, len(events))
	for i, e := range events {
		out[len(events)-1-i] = e
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
