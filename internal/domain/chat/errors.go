package chat

import "errors"

var (
	ErrValidation     = errors.New("validation error")
	ErrThreadNotFound = errors.New("thread not found")
)
