package template

import (
	"context"

	"github.com/ignite/listguard/internal/domain"
)

// Repository defines the data access contract for email templates.
type Repository interface {
	Create(ctx context.Context, t *domain.EmailTemplate) error
	Get(ctx context.Context, id string) (*domain.EmailTemplate, error)
	// ListForUser returns the user's templates followed by system templates.
	ListForUser(ctx context.Context, userID string) ([]domain.EmailTemplate, error)
	Update(ctx context.Context, t *domain.EmailTemplate) error
	Delete(ctx context.Context, id string) error
}
