package notification

import "errors"

var ErrInvalidAudience = errors.New("notification audience must be a student or teacher")
