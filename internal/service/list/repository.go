package list

import (
	"context"

	"github.com/ignite/listguard/internal/domain"
)

// Repository defines the data access contract for subscription lists.
type Repository interface {
	Create(ctx context.Context, l *domain.SubscriptionList) error
	Get(ctx context.Context, id string) (*domain.SubscriptionList, error)
	// ListForOwner returns lists owned by userID or shared with any of orgIDs.
	ListForOwner(ctx context.Context, userID string, orgIDs []string) ([]domain.ListSummary, error)
	// Update saves name, description and policy.
	Update(ctx context.Context, l *domain.SubscriptionList) error
	// Delete removes the list with its subscribers, tags, logs, analytics
	// and list-scoped blacklist entries.
	Delete(ctx context.Context, id string) error
}
