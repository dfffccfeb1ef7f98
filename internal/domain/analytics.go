package domain

import "time"

// SubscriptionAnalytics is the daily rollup of new subscribers for a list.
type SubscriptionAnalytics struct {
	ID             string    `json:"id" db:"id"`
	ListID         string    `json:"list_id" db:"list_id"`
	RecordedDate   time.Time `json:"recorded_date" db:"recorded_date"`
	NewSubscribers int       `json:"new_subscribers" db:"new_subscribers"`
}
