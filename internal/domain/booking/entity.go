package booking

import (
	"time"

	"lessonhub/internal/pkg/identity"
)

type Status string

const (
	StatusPending            Status = "pending"
	StatusRescheduleProposed Status = "reschedule_proposed"
	StatusAwaitingPayment    Status = "awaiting_payment"
	StatusPaid               Status = "paid"
	StatusDeclined           Status = "declined"
	StatusCancelled          Status = "cancelled"
)

// Terminal statuses end the lifecycle of a booking identity. A new request
// for the same slot tuple reopens it as pending.
func (s Status) Terminal() bool {
	return s == StatusDeclined || s == StatusCancelled
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusRescheduleProposed, StatusAwaitingPayment, StatusPaid, StatusDeclined, StatusCancelled:
		return true
	}
	return false
}

// Actor is the party driving a transition.
type Actor string

const (
	ActorStudent Actor = "student"
	ActorTeacher Actor = "teacher"
	ActorSystem  Actor = "system"
)

// UI surfaces that create booking requests.
const (
	SourceCatalog        = "catalog"
	SourceTeacherProfile = "teacher_profile"
	SourceClassroom      = "classroom"
	SourceAPI            = "api"
)

// LessonBookingRequest is one requested or confirmed live session.
type LessonBookingRequest struct {
	ID              string     `json:"id"`
	TeacherID       string     `json:"teacher_id"`
	TeacherName     string     `json:"teacher_name"`
	StudentID       string     `json:"student_id,omitempty"`
	StudentName     string     `json:"student_name,omitempty"`
	CourseID        string     `json:"course_id"`
	Subject         string     `json:"subject"`
	Slot            string     `json:"slot"`
	ScheduledSlot   string     `json:"scheduled_slot,omitempty"`
	StartAt         time.Time  `json:"start_at"`
	DurationMinutes int        `json:"duration_minutes"`
	AmountRubles    *int64     `json:"amount_rubles,omitempty"`
	StudentMessage  string     `json:"student_message,omitempty"`
	TeacherMessage  string     `json:"teacher_message,omitempty"`
	ProposedSlot    string     `json:"proposed_slot,omitempty"`
	ProposedStartAt *time.Time `json:"proposed_start_at,omitempty"`
	Status          Status     `json:"status"`
	Source          string     `json:"source"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	PaidAt          *time.Time `json:"paid_at,omitempty"`
}

// CurrentSlot is when the lesson takes place. Slot is the identity slot
// and never changes; an accepted reschedule is kept in ScheduledSlot.
func (b LessonBookingRequest) CurrentSlot() string {
	if b.ScheduledSlot != "" {
		return b.ScheduledSlot
	}
	return b.Slot
}

// BookingID is the identity of a booking: one record per teacher, course
// and slot no matter which actor or surface submitted it.
func BookingID(teacherID, courseID, slot string) string {
	return identity.Derive("booking", teacherID, courseID, slot)
}

// Event is one immutable audit record of a booking transition.
type Event struct {
	ID          string    `json:"id"`
	BookingID   string    `json:"booking_id"`
	Actor       Actor     `json:"actor"`
	Action      string    `json:"action"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}
