package subscriber

import "errors"

// Sentinel errors for the subscriber service layer.
var (
	ErrNotFound         = errors.New("subscriber not found")
	ErrDuplicate        = errors.New("subscriber already exists in this list")
	ErrInvalidStatus    = errors.New("invalid subscriber status")
	ErrTagNotFound      = errors.New("tag not found on subscriber")
	ErrNothingToExport  = errors.New("list has no subscribers to export")
	ErrInvalidFormat    = errors.New("unsupported export format")
	ErrInvalidSignature = errors.New("invalid verification signature")
	ErrNotPending       = errors.New("subscriber is not awaiting verification")
)
