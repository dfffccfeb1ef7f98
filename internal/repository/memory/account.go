package memory

import (
	"context"
	"time"

	"github.com/ignite/listguard/internal/domain"
	"github.com/ignite/listguard/internal/service/account"
)

// AccountRepo implements account.Repository.
type AccountRepo struct{ s *Store }

func (r *AccountRepo) CreateUser(_ context.Context, u *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *u
	r.s.users[u.ID] = &cp
	return nil
}

func (r *AccountRepo) GetUser(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, account.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *AccountRepo) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, account.ErrNotFound
}

func (r *AccountRepo) CreateToken(_ context.Context, t *domain.ApiToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *t
	r.s.tokens[t.ID] = &cp
	return nil
}

func (r *AccountRepo) TokenByHash(_ context.Context, hash string) (*domain.ApiToken, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, t := range r.s.tokens {
		if t.TokenHash == hash {
			cp := *t
			return &cp, nil
		}
	}
	return nil, account.ErrNotFound
}

func (r *AccountRepo) TouchToken(_ context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if t, ok := r.s.tokens[id]; ok {
		t.LastUsedAt = &at
	}
	return nil
}

func (r *AccountRepo) ListTokens(_ context.Context, userID string) ([]domain.ApiToken, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []domain.ApiToken{}
	for _, t := range r.s.tokens {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *AccountRepo) DeleteToken(_ context.Context, userID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tokens[id]
	if !ok || t.UserID != userID {
		return account.ErrNotFound
	}
	delete(r.s.tokens, id)
	return nil
}

func (r *AccountRepo) CreateOrganization(_ context.Context, org *domain.Organization) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *org
	r.s.orgs[org.ID] = &cp
	r.s.members[org.ID] = map[string]domain.OrganizationMember{
		org.OwnerID: {OrganizationID: org.ID, UserID: org.OwnerID, Role: domain.RoleOwner, JoinedAt: org.CreatedAt},
	}
	return nil
}

func (r *AccountRepo) GetOrganization(_ context.Context, id string) (*domain.Organization, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	o, ok := r.s.orgs[id]
	if !ok {
		return nil, account.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *AccountRepo) OrganizationIDs(_ context.Context, userID string) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []string
	for orgID, ms := range r.s.members {
		if _, ok := ms[userID]; ok {
			out = append(out, orgID)
		}
	}
	return out, nil
}

func (r *AccountRepo) Member(_ context.Context, orgID, userID string) (*domain.OrganizationMember, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	m, ok := r.s.members[orgID][userID]
	if !ok {
		return nil, account.ErrNotFound
	}
	return &m, nil
}

func (r *AccountRepo) Members(_ context.Context, orgID string) ([]domain.OrganizationMember, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []domain.OrganizationMember{}
	for _, m := range r.s.members[orgID] {
		out = append(out, m)
	}
	return out, nil
}

func (r *AccountRepo) CreateInvitation(_ context.Context, inv *domain.OrganizationInvitation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *inv
	r.s.invitations[inv.Token] = &cp
	return nil
}

func (r *AccountRepo) InvitationByToken(_ context.Context, token string) (*domain.OrganizationInvitation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	inv, ok := r.s.invitations[token]
	if !ok {
		return nil, account.ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func (r *AccountRepo) AcceptInvitation(_ context.Context, inv *domain.OrganizationInvitation, m *domain.OrganizationMember) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.invitations[inv.Token]
	if !ok {
		return account.ErrNotFound
	}
	stored.AcceptedAt = inv.AcceptedAt
	if r.s.members[m.OrganizationID] == nil {
		r.s.members[m.OrganizationID] = map[string]domain.OrganizationMember{}
	}
	if _, exists := r.s.members[m.OrganizationID][m.UserID]; !exists {
		r.s.members[m.OrganizationID][m.UserID] = *m
	}
	return nil
}
