package app

import "errors"

// Sentinel kinds for participation errors. Validation errors recover
// locally; ErrStorageUnavailable is transient and carries no retry policy
// of its own. Nothing here is fatal to the process.
var (
	ErrNotFound              = errors.New("not found")
	ErrNameTaken             = errors.New("name already taken")
	ErrInvalidRating         = errors.New("rating out of range")
	ErrIncompleteAssignments = errors.New("not every label has a card assigned")
	ErrStorageUnavailable    = errors.New("storage unavailable")
)
