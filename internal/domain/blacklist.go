package domain

import "time"

// EmailBlacklist is a deny-list entry. A nil SubscriptionListID makes the
// entry global: it applies to every list.
type EmailBlacklist struct {
	ID                 string    `json:"id" db:"id"`
	Email              string    `json:"email" db:"email"`
	Reason             string    `json:"reason" db:"reason"`
	BlacklistedBy      *string   `json:"blacklisted_by,omitempty" db:"blacklisted_by"`
	SubscriptionListID *string   `json:"subscription_list_id,omitempty" db:"subscription_list_id"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
}

// IsGlobal reports whether the entry applies to all lists.
func (b EmailBlacklist) IsGlobal() bool { return b.SubscriptionListID == nil }
