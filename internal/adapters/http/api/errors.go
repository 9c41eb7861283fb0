package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrMissingEvent = errors.New("missing event query parameter")
)
