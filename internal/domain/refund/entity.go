package refund

import "time"

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusDeclined Status = "declined"
)

// Ticket is a request to reverse the payment of one booking.
type Ticket struct {
	ID           string    `json:"id"`
	BookingID    string    `json:"booking_id"`
	Invoice      string    `json:"invoice"`
	StudentName  string    `json:"student_name"`
	AmountRubles int64     `json:"amount_rubles"`
	Reason       string    `json:"reason"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Active tickets block a second refund for the same booking.
func (t Ticket) Active() bool {
	return t.Status != StatusDeclined
}

type CreatePayload struct {
	BookingID    string `json:"booking_id" validate:"required"`
	Invoice      string `json:"invoice"`
	StudentName  string `json:"student_name"`
	AmountRubles int64  `json:"amount_rubles" validate:"gte=0"`
	Reason       string `json:"reason"`
}

// Create modes.
const (
	ModeCreated  = "created"
	ModeExisting = "existing"
)

type CreateResult struct {
	Mode string `json:"mode"`
	Item Ticket `json:"item"`
}
