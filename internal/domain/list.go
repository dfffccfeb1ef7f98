package domain

import "time"

// Policy is the set of admission-control flags attached to a list.
type Policy struct {
	AllowBusinessEmailOnly   bool `json:"allow_business_email_only" db:"allow_business_email_only"`
	BlockTemporaryEmail      bool `json:"block_temporary_email" db:"block_temporary_email"`
	RequireEmailVerification bool `json:"require_email_verification" db:"require_email_verification"`
	CheckDomainExistence     bool `json:"check_domain_existence" db:"check_domain_existence"`
	VerifyDNSRecords         bool `json:"verify_dns_records" db:"verify_dns_records"`

	// BlacklistOnFailure turns any policy failure into a list-scoped
	// blacklist entry in addition to the rejection.
	BlacklistOnFailure bool `json:"blacklist_on_failure" db:"blacklist_on_failure"`
}

// NeedsDNS reports whether admission under this policy performs network lookups.
func (p Policy) NeedsDNS() bool {
	return p.CheckDomainExistence || p.VerifyDNSRecords
}

// SubscriptionList is a named list of subscribers owned by a user and
// optionally shared with an organization.
type SubscriptionList struct {
	ID             string    `json:"id" db:"id"`
	UserID         string    `json:"user_id" db:"user_id"`
	OrganizationID *string   `json:"organization_id,omitempty" db:"organization_id"`
	Name           string    `json:"name" db:"name"`
	Description    string    `json:"description" db:"description"`
	Policy         Policy    `json:"policy"`
	IsVerified     bool      `json:"is_verified" db:"is_verified"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// ListSummary is a list row decorated with subscriber counts.
type ListSummary struct {
	SubscriptionList
	SubscriberCount int `json:"subscriber_count"`
	ActiveCount     int `json:"active_count"`
}
