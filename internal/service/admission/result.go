package admission

import (
	"strings"

	"github.com/ignite/listguard/internal/domain"
)

// Rejection reasons. These strings are part of the API.
const (
	ReasonBlacklisted   = "blacklisted"
	ReasonInvalidEmail  = "invalid email address"
	ReasonTemporary     = "temporary email addresses are not allowed"
	ReasonBusinessOnly  = "only business email addresses are allowed"
	ReasonNoDomain      = "email domain does not exist"
	ReasonNoMailRecords = "email domain has no MX or A records"
)

// Kind is the outcome of one admission.
type Kind string

const (
	Accepted               Kind = "accepted"
	Rejected               Kind = "rejected"
	RejectedAndBlacklisted Kind = "rejected_and_blacklisted"
	Conflict               Kind = "conflict"
)

// Candidate is an email offered for admission.
type Candidate struct {
	Email    string         `json:"email"`
	Name     string         `json:"name"`
	Metadata map[string]any `json:"metadata"`
}

// Result describes the admission outcome. Subscriber is set only for
// Accepted; Reasons only for the rejection kinds.
type Result struct {
	Kind       Kind
	Email      string
	Subscriber *domain.Subscriber
	Reasons    []string
}

// Blacklisted reports whether this admission wrote a blacklist entry.
func (r Result) Blacklisted() bool { return r.Kind == RejectedAndBlacklisted }

// Reason joins the rejection reasons the same way blacklist entries do.
func (r Result) Reason() string { return strings.Join(r.Reasons, "; ") }

// RowError is one failed row of a bulk operation.
type RowError struct {
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

// ImportSummary totals a bulk import or copy.
type ImportSummary struct {
	Imported int        `json:"imported"`
	Failed   int        `json:"failed"`
	Skipped  int        `json:"skipped"`
	Errors   []RowError `json:"errors"`
}

func (s *ImportSummary) add(r Result) {
	switch r.Kind {
	case Accepted:
		s.Imported++
	case Conflict:
		s.Skipped++
	default:
		s.Failed++
		s.Errors = append(s.Errors, RowError{Email: r.Email, Reason: r.Reason()})
	}
}
