package booking

import "time"

type CreateBookingRequest struct {
	TeacherID       string     `json:"teacher_id" binding:"required"`
	TeacherName     string     `json:"teacher_name"`
	CourseID        string     `json:"course_id" binding:"required"`
	Subject         string     `json:"subject"`
	Slot            string     `json:"slot" binding:"required"`
	StartAt         *time.Time `json:"start_at"`
	DurationMinutes int        `json:"duration_minutes" binding:"omitempty,min=15,max=480"`
	AmountRubles    *int64     `json:"amount_rubles" binding:"omitempty,gte=0"`
	Message         string     `json:"message"`
	Source          string     `json:"source" binding:"omitempty,oneof=catalog teacher_profile classroom api"`
}

type MessageRequest struct {
	Message string `json:"message"`
}

type ReasonRequest struct {
	Reason string `json:"reason"`
}

type ProposeRequest struct {
	Slot    string     `json:"slot"`
	StartAt *time.Time `json:"start_at"`
	Message string     `json:"message"`
}

type PaymentConfirmation struct {
	BookingID string     `json:"booking_id" binding:"required"`
	PaidAt    *time.Time `json:"paid_at"`
}

type listQuery struct {
	TeacherID string `form:"teacher_id"`
	StudentID string `form:"student_id"`
	Status    Status `form:"status"`
}
