package notification

import (
	"time"

	"lessonhub/internal/domain/booking"
	"lessonhub/internal/domain/chat"
	"lessonhub/internal/domain/refund"
)

// Kind groups notifications for display.
type Kind string

const (
	KindBooking Kind = "booking"
	KindPayment Kind = "payment"
	KindRefund  Kind = "refund"
	KindMessage Kind = "message"
)

// Item is one derived notification. It is never stored; its id is stable
// while the underlying record does not change.
type Item struct {
	ID          string    `json:"id"`
	Kind        Kind      `json:"kind"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	Href        string    `json:"href"`
	Read        bool      `json:"read"`
}

type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleTeacher
}

// Audience is the viewer a feed is derived for.
type Audience struct {
	Role    Role
	ActorID string
}

func (a Audience) key() string {
	return string(a.Role) + ":" + a.ActorID
}

// Snapshot is a fresh read of the three source stores.
type Snapshot struct {
	Bookings []booking.LessonBookingRequest
	Refunds  []refund.Ticket
	Threads  []chat.Thread
}

// Feed is what a viewer sees.
type Feed struct {
	Items       []Item `json:"items"`
	UnreadCount int    `json:"unread_count"`
}
