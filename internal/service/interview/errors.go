package interview

import "errors"

// Sentinel errors for the interview service layer.
var (
	ErrNotFound          = errors.New("interview not found")
	ErrInvalidTransition = errors.New("invalid interview status transition")
	ErrScheduledInPast   = errors.New("scheduled time is in the past")
)
