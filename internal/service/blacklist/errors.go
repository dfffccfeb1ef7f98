package blacklist

import "errors"

// Sentinel errors for the blacklist service layer.
var (
	ErrNotFound     = errors.New("blacklist entry not found")
	ErrEmailMissing = errors.New("email is required")
)
