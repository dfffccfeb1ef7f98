package account

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/listguard/internal/domain"
	"github.com/ignite/listguard/internal/emailcheck"
	"github.com/ignite/listguard/internal/pkg/logger"
)

// InvitationTTL is how long an invitation stays valid.
const InvitationTTL = 7 * 24 * time.Hour

// TokenPrefix marks listguard bearer tokens.
const TokenPrefix = "lg_"

// Service implements account business logic.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates an account service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// HashToken returns the stored form of a bearer token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// CreateUser registers a user.
func (s *Service) CreateUser(ctx context.Context, name, email string, admin bool) (*domain.User, error) {
	addr, err := emailcheck.Parse(email)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetUserByEmail(ctx, addr.Email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	u := &domain.User{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(name),
		Email:     addr.Email,
		IsAdmin:   admin,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// IssueToken creates a bearer token for userID. The plaintext is returned
// once and never stored.
func (s *Service) IssueToken(ctx context.Context, userID, name string) (string, *domain.ApiToken, error) {
	raw, err := domain.NewToken()
	if err != nil {
		return "", nil, err
	}
	plain := TokenPrefix + raw
	t := &domain.ApiToken{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      strings.TrimSpace(name),
		TokenHash: HashToken(plain),
		CreatedAt: s.now().UTC(),
	}
	if t.Name == "" {
		t.Name = "default"
	}
	if err := s.repo.CreateToken(ctx, t); err != nil {
		return "", nil, fmt.Errorf("create token: %w", err)
	}
	logger.Info("api token issued", "user_id", userID, "token_id", t.ID)
	return plain, t, nil
}

// Authenticate resolves a bearer token to its user.
func (s *Service) Authenticate(ctx context.Context, bearer string) (*domain.User, error) {
	bearer = strings.TrimSpace(bearer)
	if bearer == "" {
		return nil, ErrUnauthenticated
	}
	t, err := s.repo.TokenByHash(ctx, HashToken(bearer))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	u, err := s.repo.GetUser(ctx, t.UserID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	if err := s.repo.TouchToken(ctx, t.ID, s.now().UTC()); err != nil {
		logger.Warn("touch api token failed", "token_id", t.ID, "error", err)
	}
	return u, nil
}

// ListTokens returns a user's tokens without their hashes.
func (s *Service) ListTokens(ctx context.Context, userID string) ([]domain.ApiToken, error) {
	return s.repo.ListTokens(ctx, userID)
}

// RevokeToken deletes one of the user's tokens.
func (s *Service) RevokeToken(ctx context.Context, userID, id string) error {
	return s.repo.DeleteToken(ctx, userID, id)
}

// CreateOrganization creates an organization owned by actor.
func (s *Service) CreateOrganization(ctx context.Context, actor *domain.User, name string) (*domain.Organization, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	org := &domain.Organization{
		ID:        uuid.New().String(),
		Name:      name,
		OwnerID:   actor.ID,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.CreateOrganization(ctx, org); err != nil {
		return nil, fmt.Errorf("create organization: %w", err)
	}
	return org, nil
}

// OrganizationIDs returns the organizations userID belongs to.
func (s *Service) OrganizationIDs(ctx context.Context, userID string) ([]string, error) {
	return s.repo.OrganizationIDs(ctx, userID)
}

// IsMember reports whether actor belongs to orgID. Admins belong everywhere.
func (s *Service) IsMember(ctx context.Context, actor *domain.User, orgID string) (bool, error) {
	if actor.IsAdmin {
		return true, nil
	}
	_, err := s.repo.Member(ctx, orgID, actor.ID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Members lists an organization's members. The actor must be a member.
func (s *Service) Members(ctx context.Context, actor *domain.User, orgID string) ([]domain.OrganizationMember, error) {
	ok, err := s.IsMember(ctx, actor, orgID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}
	return s.repo.Members(ctx, orgID)
}

// Invite creates an invitation for email. Only the organization owner or an
// admin may invite.
func (s *Service) Invite(ctx context.Context, actor *domain.User, orgID, email string) (*domain.OrganizationInvitation, error) {
	org, err := s.repo.GetOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org.OwnerID != actor.ID && !actor.IsAdmin {
		return nil, ErrForbidden
	}
	addr, err := emailcheck.Parse(email)
	if err != nil {
		return nil, err
	}
	token, err := domain.NewToken()
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	inv := &domain.OrganizationInvitation{
		ID:             uuid.New().String(),
		OrganizationID: org.ID,
		Email:          addr.Email,
		Token:          token,
		InvitedBy:      actor.ID,
		ExpiresAt:      now.Add(InvitationTTL),
		CreatedAt:      now,
	}
	if err := s.repo.CreateInvitation(ctx, inv); err != nil {
		return nil, fmt.Errorf("create invitation: %w", err)
	}
	logger.Info("organization invitation created", "organization_id", org.ID, "email", addr.Email)
	return inv, nil
}

// AcceptInvitation adds actor to the inviting organization. The invitation
// must be addressed to the actor's email.
func (s *Service) AcceptInvitation(ctx context.Context, actor *domain.User, token string) (*domain.OrganizationMember, error) {
	inv, err := s.repo.InvitationByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	switch {
	case inv.AcceptedAt != nil:
		return nil, ErrInvitationUsed
	case inv.Expired(now):
		return nil, ErrInvitationExpired
	case !strings.EqualFold(inv.Email, actor.Email):
		return nil, ErrForbidden
	}
	m := &domain.OrganizationMember{
		OrganizationID: inv.OrganizationID,
		UserID:         actor.ID,
		Role:           domain.RoleMember,
		JoinedAt:       now,
	}
	inv.AcceptedAt = &now
	if err := s.repo.AcceptInvitation(ctx, inv, m); err != nil {
		return nil, fmt.Errorf("accept invitation: %w", err)
	}
	return m, nil
}

// CanAccessList returns nil when actor may operate on list, ErrForbidden
// otherwise.
func (s *Service) CanAccessList(ctx context.Context, actor *domain.User, list *domain.SubscriptionList) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	if actor.IsAdmin || list.UserID == actor.ID {
		return nil
	}
	if list.OrganizationID != nil {
		ok, err := s.IsMember(ctx, actor, *list.OrganizationID)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return ErrForbidden
}
