package template

import "errors"

// Sentinel errors for the template service layer.
var (
	ErrNotFound     = errors.New("template not found")
	ErrForbidden    = errors.New("template belongs to another user")
	ErrInvalid      = errors.New("template does not parse")
	ErrNoMailer     = errors.New("outbound mail is not configured")
	ErrNameRequired = errors.New("template name is required")
)
