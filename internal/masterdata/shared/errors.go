package shared

import "errors"

// ErrValidation is wrapped by every form validation failure.
var ErrValidation = errors.New("validation failed")
