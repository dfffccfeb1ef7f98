package analytics

import (
	"context"
	"time"

	"github.com/ignite/listguard/internal/domain"
)

// Repository defines the data access contract for analytics.
type Repository interface {
	// Increment adds one new subscriber to the (listID, day) row, creating it
	// if needed.
	Increment(ctx context.Context, listID string, day time.Time) error

	// Daily returns rows for the given lists with recorded_date in [from, to].
	Daily(ctx context.Context, listIDs []string, from, to time.Time) ([]domain.SubscriptionAnalytics, error)

	// StatusCounts counts subscribers of the given lists by status.
	StatusCounts(ctx context.Context, listIDs []string) (map[domain.SubscriberStatus]int, error)

	// UnsubscribesSince counts unsubscribe log rows since t.
	UnsubscribesSince(ctx context.Context, listIDs []string, since time.Time) (int, error)
}
