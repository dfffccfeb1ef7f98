package account

import (
	"context"
	"time"

	"github.com/ignite/listguard/internal/domain"
)

// Repository defines the data access contract for accounts.
type Repository interface {
	CreateUser(ctx context.Context, u *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)

	CreateToken(ctx context.Context, t *domain.ApiToken) error
	TokenByHash(ctx context.Context, hash string) (*domain.ApiToken, error)
	TouchToken(ctx context.Context, id string, at time.Time) error
	ListTokens(ctx context.Context, userID string) ([]domain.ApiToken, error)
	// DeleteToken removes a token owned by userID. Returns ErrNotFound otherwise.
	DeleteToken(ctx context.Context, userID, id string) error

	// CreateOrganization inserts the organization and its owner membership.
	CreateOrganization(ctx context.Context, org *domain.Organization) error
	GetOrganization(ctx context.Context, id string) (*domain.Organization, error)
	OrganizationIDs(ctx context.Context, userID string) ([]string, error)
	Member(ctx context.Context, orgID, userID string) (*domain.OrganizationMember, error)
	Members(ctx context.Context, orgID string) ([]domain.OrganizationMember, error)

	CreateInvitation(ctx context.Context, inv *domain.OrganizationInvitation) error
	InvitationByToken(ctx context.Context, token string) (*domain.OrganizationInvitation, error)
	// AcceptInvitation stamps accepted_at and adds the membership.
	AcceptInvitation(ctx context.Context, inv *domain.OrganizationInvitation, m *domain.OrganizationMember) error
}
