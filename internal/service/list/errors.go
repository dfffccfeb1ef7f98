package list

import "errors"

// Sentinel errors for the list service layer.
var (
	ErrNotFound     = errors.New("subscription list not found")
	ErrNameRequired = errors.New("list name is required")
	ErrForbidden    = errors.New("not a member of the target organization")
)
