package blacklist

import (
	"context"
	"strings"

	"github.com/ignite/listguard/internal/domain"
	"github.com/ignite/listguard/internal/emailcheck"
)

// Service implements blacklist business logic. It is safe for concurrent use.
type Service struct {
	repo Repository
}

// NewService creates a blacklist service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// IsBlacklisted checks email against global entries and entries scoped to listID.
func (s *Service) IsBlacklisted(ctx context.Context, email, listID string) (bool, error) {
	return s.repo.IsBlacklisted(ctx, emailcheck.Normalize(email), listID)
}

// AddInput describes a new blacklist entry. A nil ListID makes it global.
type AddInput struct {
	Email   string
	Reason  string
	ListID  *string
	ActorID *string
}

// Add blacklists an email. Idempotent per (email, scope).
func (s *Service) Add(ctx context.Context, in AddInput) (*domain.EmailBlacklist, error) {
	email := emailcheck.Normalize(in.Email)
	if email == "" {
		return nil, ErrEmailMissing
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		reason = "manually blacklisted"
	}
	return s.repo.Add(ctx, &domain.EmailBlacklist{
		Email:              email,
		Reason:             reason,
		BlacklistedBy:      in.ActorID,
		SubscriptionListID: in.ListID,
	})
}

// Get returns a single entry.
func (s *Service) Get(ctx context.Context, id string) (*domain.EmailBlacklist, error) {
	return s.repo.Get(ctx, id)
}

// Remove deletes an entry.
func (s *Service) Remove(ctx context.Context, id string) error {
	return s.repo.Remove(ctx, id)
}

// List returns entries matching the given filter.
func (s *Service) List(ctx context.Context, f ListFilter) ([]domain.EmailBlacklist, int, error) {
	f.Search = emailcheck.Normalize(f.Search)
	return s.repo.List(ctx, f)
}

// Stats summarizes blacklist size for a set of lists.
type Stats struct {
	Total  int            `json:"total"`
	Global int            `json:"global"`
	ByList map[string]int `json:"by_list"`
}

// GetStats counts global entries and entries scoped to listIDs.
func (s *Service) GetStats(ctx context.Context, listIDs []string) (*Stats, error) {
	global, perList, err := s.repo.CountByScope(ctx, listIDs)
	if err != nil {
		return nil, err
	}
	st := &Stats{Global: global, ByList: perList, Total: global}
	if st.ByList == nil {
		st.ByList = map[string]int{}
	}
	for _, n := range st.ByList {
		st.Total += n
	}
	return st, nil
}

// Count returns the number of entries that apply to any of listIDs,
// global entries included.
func (s *Service) Count(ctx context.Context, listIDs []string) (int, error) {
	st, err := s.GetStats(ctx, listIDs)
	if err != nil {
		return 0, err
	}
	return st.Total, nil
}
