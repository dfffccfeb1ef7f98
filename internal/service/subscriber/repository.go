package subscriber

import (
	"context"
	"time"

	"github.com/ignite/listguard/internal/domain"
)

// Repository defines the data access contract for subscribers, their tags
// and unsubscribe logs.
type Repository interface {
	// Create inserts a subscriber. Returns ErrDuplicate when (list_id, email)
	// already exists.
	Create(ctx context.Context, s *domain.Subscriber) error
	Get(ctx context.Context, id string) (*domain.Subscriber, error)
	ExistsByEmail(ctx context.Context, listID, email string) (bool, error)
	GetByUnsubscribeToken(ctx context.Context, token string) (*domain.Subscriber, error)
	GetByVerificationToken(ctx context.Context, token string) (*domain.Subscriber, error)
	List(ctx context.Context, listID string, f ListFilter) ([]domain.Subscriber, int, error)

	// ForEach streams every subscriber of a list in creation order.
	ForEach(ctx context.Context, listID string, fn func(domain.Subscriber) error) error

	UpdateStatus(ctx context.Context, id string, status domain.SubscriberStatus) error

	// Unsubscribe moves an active subscriber to inactive and appends log in
	// one step. Returns false without writing anything if the subscriber
	// was not active.
	Unsubscribe(ctx context.Context, id string, log *domain.UnsubscribeLog) (bool, error)

	// MarkVerified clears the verification token, stamps verified_at and
	// activates the subscriber. Only an inactive subscriber that still holds
	// a verification token qualifies; anything else is ErrNotPending.
	MarkVerified(ctx context.Context, id string, at time.Time) error

	Delete(ctx context.Context, id string) error
	// BulkDelete removes the given ids and returns how many existed.
	BulkDelete(ctx context.Context, ids []string) (int, error)

	// AddTags inserts tags not already present and returns the full tag set.
	AddTags(ctx context.Context, id string, tags []string) ([]string, error)
	// RemoveTag deletes one tag by exact match. Returns ErrTagNotFound if absent.
	RemoveTag(ctx context.Context, id, tag string) error
}

// ListFilter controls pagination and filtering for subscriber listings.
type ListFilter struct {
	Status string
	Tag    string
	Search string
	Limit  int
	Offset int
}
