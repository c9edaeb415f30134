package refund

type UpdateStatusRequest struct {
	Status Status `json:"status" binding:"required,oneof=approved declined"`
}

type listQuery struct {
	BookingID string `form:"booking_id"`
	Status    Status `form:"status"`
}
