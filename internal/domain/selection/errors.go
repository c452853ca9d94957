package selection

import "errors"

// Sentinel errors for action parsing.
var (
	ErrUnknownAction = errors.New("unknown action")
	ErrInvalidValue  = errors.New("invalid action value")
)
