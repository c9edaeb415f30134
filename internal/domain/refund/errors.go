package refund

import "errors"

var (
	ErrValidation              = errors.New("validation error")
	ErrNotFound                = errors.New("refund ticket not found")
	ErrInvalidStatusTransition = errors.New("invalid_status_transition")
)
