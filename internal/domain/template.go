package domain

import "time"

// EmailTemplate is an HTML body with Liquid placeholders such as {{name}}
// and {{unsubscribe_link}}. A nil UserID marks a system default template.
type EmailTemplate struct {
	ID        string    `json:"id" db:"id"`
	UserID    *string   `json:"user_id,omitempty" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	Subject   string    `json:"subject" db:"subject"`
	Body      string    `json:"body" db:"body"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsSystem reports whether the template is a shared default.
func (t EmailTemplate) IsSystem() bool { return t.UserID == nil }
