package booking

import (
	"errors"
	"fmt"

	"lessonhub/internal/pkg/validator"
)

var (
	ErrValidation              = errors.New("validation error")
	ErrNotFound                = errors.New("not_found")
	ErrInvalidStatusTransition = errors.New("invalid_status_transition")
	ErrForbiddenActor          = errors.New("forbidden_actor")
	ErrSlotTaken               = errors.New("slot_taken")
)

func validationError(fields validator.FieldErrors) error {
	return fmt.Errorf("%w: %w", ErrValidation, fields)
}

func transitionError(from Status, cmd Command) error {
	return fmt.Errorf("%w: %s from %s", ErrInvalidStatusTransition, cmd.Name(), from)
}
