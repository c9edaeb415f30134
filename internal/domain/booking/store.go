package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"lessonhub/internal/docstore"
	"lessonhub/internal/pkg/validator"
)

const bookingsDocument = "lesson_bookings"

const defaultDurationMinutes = 60

// Patch is an upsert of one booking. The record is addressed by ID, or by the
// (TeacherID, CourseID, Slot) tuple when ID is empty. Nil fields are left as
// they are on an existing record.
type Patch struct {
	ID        string
	TeacherID string
	CourseID  string
	Slot      string

	TeacherName     *string
	StudentID       *string
	StudentName     *string
	Subject         *string
	ScheduledSlot   *string
	StartAt         *time.Time
	DurationMinutes *int
	AmountRubles    *int64
	StudentMessage  *string
	TeacherMessage  *string
	ProposedSlot    *string
	ProposedStartAt *time.Time
	Status          *Status
	Source          *string
	PaidAt          *time.Time
	ClearPaidAt     bool
}

type identityKey struct {
	TeacherID string `validate:"required"`
	CourseID  string `validate:"required"`
	Slot      string `validate:"required"`
}

// Store owns the set of lesson bookings, persisted as one document.
type Store struct {
	docs docstore.Store
	now  func() time.Time
	mu   sync.Mutex
}

func NewStore(docs docstore.Store) *Store {
	return &Store{docs: docs, now: time.Now}
}

func (s *Store) load(ctx context.Context) ([]LessonBookingRequest, error) {
	var items []LessonBookingRequest
	if _, err := s.docs.Load(ctx, bookingsDocument, &items); err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}
	return items, nil
}

func (s *Store) List(ctx context.Context) ([]LessonBookingRequest, error) {
	return s.load(ctx)
}

func (s *Store) Get(ctx context.Context, id string) (*LessonBookingRequest, error) {
	items, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if b := find(items, id); b != nil {
		return b, nil
	}
	return nil, ErrNotFound
}

// Upsert merges p into the stored set and returns the full set after the
// write. An unknown id is inserted; it is never an error.
func (s *Store) Upsert(ctx context.Context, p Patch) ([]LessonBookingRequest, error) {
	id := p.ID
	if id == "" {
		if fields := validator.Validate(identityKey{TeacherID: p.TeacherID, CourseID: p.CourseID, Slot: p.Slot}); fields != nil {
			return nil, validationError(fields)
		}
		id = BookingID(p.TeacherID, p.CourseID, p.Slot)
	}
	if p.Status != nil && !p.Status.Valid() {
		return nil, validationError(validator.FieldErrors{"Status": "oneof"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	idx := indexOf(items, id)
	if idx < 0 {
		b, err := newBooking(id, p, now)
		if err != nil {
			return nil, err
		}
		items = append(items, b)
	} else {
		apply(&items[idx], p)
		items[idx].UpdatedAt = now
	}

	if err := s.docs.Save(ctx, bookingsDocument, items); err != nil {
		return nil, fmt.Errorf("save bookings: %w", err)
	}
	return items, nil
}

func newBooking(id string, p Patch, now time.Time) (LessonBookingRequest, error) {
	if fields := validator.Validate(identityKey{TeacherID: p.TeacherID, CourseID: p.CourseID, Slot: p.Slot}); fields != nil {
		return LessonBookingRequest{}, validationError(fields)
	}

	b := LessonBookingRequest{
		ID:              id,
		TeacherID:       p.TeacherID,
		CourseID:        p.CourseID,
		Slot:            p.Slot,
		DurationMinutes: defaultDurationMinutes,
		Status:          StatusPending,
		Source:          SourceAPI,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if p.StartAt == nil {
		start, err := ParseSlot(p.Slot, time.UTC)
		if err != nil {
			return LessonBookingRequest{}, validationError(validator.FieldErrors{"StartAt": "required"})
		}
		b.StartAt = start
	}
	apply(&b, p)
	return b, nil
}

func apply(b *LessonBookingRequest, p Patch) {
	setString(&b.TeacherName, p.TeacherName)
	setString(&b.StudentID, p.StudentID)
	setString(&b.StudentName, p.StudentName)
	setString(&b.Subject, p.Subject)
	setString(&b.ScheduledSlot, p.ScheduledSlot)
	setString(&b.StudentMessage, p.StudentMessage)
	setString(&b.TeacherMessage, p.TeacherMessage)
	setString(&b.ProposedSlot, p.ProposedSlot)
	setString(&b.Source, p.Source)
	if p.StartAt != nil {
		b.StartAt = *p.StartAt
	}
	if p.DurationMinutes != nil && *p.DurationMinutes > 0 {
		b.DurationMinutes = *p.DurationMinutes
	}
	if p.AmountRubles != nil {
		v := *p.AmountRubles
		b.AmountRubles = &v
	}
	if p.ProposedStartAt != nil {
		v := *p.ProposedStartAt
		b.ProposedStartAt = &v
	}
	if p.Status != nil {
		b.Status = *p.Status
	}
	if p.ClearPaidAt {
		b.PaidAt = nil
	}
	if p.PaidAt != nil {
		v := *p.PaidAt
		b.PaidAt = &v
	}

	// A proposal only lives while the booking waits for the student's answer.
	if b.Status != StatusRescheduleProposed {
		b.ProposedSlot = ""
		b.ProposedStartAt = nil
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func indexOf(items []LessonBookingRequest, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}

func find(items []LessonBookingRequest, id string) *LessonBookingRequest {
	if i := indexOf(items, id); i >= 0 {
		b := items[i]
		return &b
	}
	return nil
}

// IsNotFound reports whether err means the booking does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
