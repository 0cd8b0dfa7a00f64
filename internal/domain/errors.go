package domain

import "errors"

// Record validation errors. They are reported per record and never abort a run.
var (
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	ErrInvalidWindow    = errors.New("invalid window")
	ErrMissingLocation  = errors.New("missing location")
	ErrMissingID        = errors.New("missing id")
)
