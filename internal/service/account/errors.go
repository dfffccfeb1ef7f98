package account

import "errors"

// Sentinel errors for the account service layer.
var (
	ErrNotFound          = errors.New("not found")
	ErrUnauthenticated   = errors.New("missing or invalid API token")
	ErrForbidden         = errors.New("not allowed to access this resource")
	ErrDuplicateEmail    = errors.New("a user with this email already exists")
	ErrInvitationExpired = errors.New("invitation has expired")
	ErrInvitationUsed    = errors.New("invitation has already been accepted")
	ErrNameRequired      = errors.New("name is required")
)
