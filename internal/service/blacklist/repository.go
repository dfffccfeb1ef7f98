package blacklist

import (
	"context"

	"github.com/ignite/listguard/internal/domain"
)

// Repository defines the data access contract for the blacklist.
type Repository interface {
	// IsBlacklisted returns true if email has a global entry or an entry
	// scoped to listID.
	IsBlacklisted(ctx context.Context, email, listID string) (bool, error)

	// Add inserts an entry. An existing entry for the same email and scope
	// is preserved and returned instead (idempotent).
	Add(ctx context.Context, e *domain.EmailBlacklist) (*domain.EmailBlacklist, error)

	// Get returns one entry or ErrNotFound.
	Get(ctx context.Context, id string) (*domain.EmailBlacklist, error)

	// Remove deletes an entry. Returns ErrNotFound if it doesn't exist.
	Remove(ctx context.Context, id string) error

	// List returns entries matching the filter and the total match count.
	List(ctx context.Context, f ListFilter) ([]domain.EmailBlacklist, int, error)

	// CountByScope returns the number of global entries and a per-list count.
	CountByScope(ctx context.Context, listIDs []string) (global int, perList map[string]int, err error)
}

// ListFilter controls pagination and filtering for blacklist listings.
type ListFilter struct {
	// ListIDs restricts list-scoped entries to these lists.
	ListIDs []string
	// IncludeGlobal adds global entries to the result.
	IncludeGlobal bool
	Search        string
	Limit         int
	Offset        int
}
