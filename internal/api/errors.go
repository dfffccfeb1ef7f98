package api

import (
	"errors"
	"net/http"

	"github.com/ignite/listguard/internal/emailcheck"
	"github.com/ignite/listguard/internal/mail"
	"github.com/ignite/listguard/internal/pkg/httputil"
	"github.com/ignite/listguard/internal/service/account"
	"github.com/ignite/listguard/internal/service/admission"
	"github.com/ignite/listguard/internal/service/blacklist"
	"github.com/ignite/listguard/internal/service/list"
	"github.com/ignite/listguard/internal/service/subscriber"
	"github.com/ignite/listguard/internal/service/template"
)

type errorClass struct {
	status int
	code   string
	errs   []error
}

// errorClasses maps service sentinels to HTTP responses. Anything not
// listed is logged and answered with a generic 500.
var errorClasses = []errorClass{
	{http.StatusNotFound, "not_found", []error{
		list.ErrNotFound, subscriber.ErrNotFound, subscriber.ErrTagNotFound,
		blacklist.ErrNotFound, template.ErrNotFound, account.ErrNotFound,
	}},
	{http.StatusConflict, "conflict", []error{
		subscriber.ErrDuplicate, account.ErrDuplicateEmail,
		admission.ErrImportInProgress, account.ErrInvitationUsed, subscriber.ErrNotPending,
	}},
	{http.StatusUnauthorized, "unauthenticated", []error{account.ErrUnauthenticated}},
	{http.StatusForbidden, "forbidden", []error{
		account.ErrForbidden, list.ErrForbidden, template.ErrForbidden,
	}},
	{http.StatusGone, "expired", []error{account.ErrInvitationExpired}},
	{http.StatusUnprocessableEntity, "validation_failed", []error{
		subscriber.ErrInvalidStatus, list.ErrNameRequired, template.ErrNameRequired,
		template.ErrInvalid, account.ErrNameRequired, blacklist.ErrEmailMissing,
		emailcheck.ErrInvalidAddress,
	}},
	{http.StatusBadRequest, "bad_request", []error{
		admission.ErrUnsupportedFormat, admission.ErrMissingEmailColumn,
		subscriber.ErrInvalidFormat, subscriber.ErrInvalidSignature,
	}},
	{http.StatusServiceUnavailable, "unavailable", []error{template.ErrNoMailer, mail.ErrUnavailable}},
}

// respondError writes the response for a service error.
func respondError(w http.ResponseWriter, err error) {
	for _, c := range errorClasses {
		for _, target := range c.errs {
			if errors.Is(err, target) {
				httputil.ErrorWithCode(w, c.status, c.code, target.Error(), nil)
				return
			}
		}
	}
	httputil.InternalError(w, err)
}
