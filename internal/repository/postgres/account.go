package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ignite/listguard/internal/domain"
	"github.com/ignite/listguard/internal/service/account"
)

// AccountRepo implements account.Repository against PostgreSQL.
type AccountRepo struct{ db *sql.DB }

// NewAccountRepo creates a Postgres-backed account repository.
func NewAccountRepo(db *sql.DB) *AccountRepo { return &AccountRepo{db: db} }

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return account.ErrNotFound
	}
	return fmt.Errorf("%s: %w", what, err)
}

// ==========================================
// USERS
// ==========================================

func (r *AccountRepo) CreateUser(ctx context.Context, u *domain.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, is_admin, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.Name, u.Email, u.IsAdmin, u.CreatedAt,
	)
	if isUniqueViolation(err) {
		return account.ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *AccountRepo) getUser(ctx context.Context, where string, arg any) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, is_admin, created_at FROM users WHERE `+where, arg,
	).Scan(&u.ID, &u.Name, &u.Email, &u.IsAdmin, &u.CreatedAt)
	if err != nil {
		return nil, notFound(err, "get user")
	}
	return &u, nil
}

func (r *AccountRepo) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return r.getUser(ctx, `id = $1`, id)
}

func (r *AccountRepo) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getUser(ctx, `email = $1`, email)
}

// ==========================================
// API TOKENS
// ==========================================

func (r *AccountRepo) CreateToken(ctx context.Context, t *domain.ApiToken) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO api_tokens (id, user_id, name, token_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		t.ID, t.UserID, t.Name, t.TokenHash, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

func scanToken(row interface{ Scan(...any) error }) (*domain.ApiToken, error) {
	var (
		t    domain.ApiToken
		used sql.NullTime
	)
	if err := row.Scan(&t.ID, &t.UserID, &t.Name, &t.TokenHash, &used, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.LastUsedAt = timePtr(used)
	return &t, nil
}

const tokenColumns = `id, user_id, name, token_hash, last_used_at, created_at`

func (r *AccountRepo) TokenByHash(ctx context.Context, hash string) (*domain.ApiToken, error) {
	t, err := scanToken(r.db.QueryRowContext(ctx,
		`SELECT `+tokenColumns+` FROM api_tokens WHERE token_hash = $1`, hash))
	if err != nil {
		return nil, notFound(err, "token by hash")
	}
	return t, nil
}

func (r *AccountRepo) TouchToken(ctx context.Context, id string, at time.Time) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE api_tokens SET last_used_at = $2 WHERE id = $1`, id, at,
	); err != nil {
		return fmt.Errorf("touch token: %w", err)
	}
	return nil
}

func (r *AccountRepo) ListTokens(ctx context.Context, userID string) ([]domain.ApiToken, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+tokenColumns+` FROM api_tokens WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	defer rows.Close()

	out := []domain.ApiToken{}
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("scan token: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (r *AccountRepo) DeleteToken(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM api_tokens WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return account.ErrNotFound
	}
	return nil
}

// ==========================================
// ORGANIZATIONS
// ==========================================

func (r *AccountRepo) CreateOrganization(ctx context.Context, org *domain.Organization) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO organizations (id, name, owner_id, created_at)
		VALUES ($1, $2, $3, $4)`,
		org.ID, org.Name, org.OwnerID, org.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert organization: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO organization_members (organization_id, user_id, role, joined_at)
		VALUES ($1, $2, $3, $4)`,
		org.ID, org.OwnerID, domain.RoleOwner, org.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert owner membership: %w", err)
	}
	return tx.Commit()
}

func (r *AccountRepo) GetOrganization(ctx context.Context, id string) (*domain.Organization, error) {
	var o domain.Organization
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, owner_id, created_at FROM organizations WHERE id = $1`, id,
	).Scan(&o.ID, &o.Name, &o.OwnerID, &o.CreatedAt)
	if err != nil {
		return nil, notFound(err, "get organization")
	}
	return &o, nil
}

func (r *AccountRepo) OrganizationIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT organization_id FROM organization_members WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("organization ids: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *AccountRepo) Member(ctx context.Context, orgID, userID string) (*domain.OrganizationMember, error) {
	var m domain.OrganizationMember
	err := r.db.QueryRowContext(ctx, `
		SELECT organization_id, user_id, role, joined_at
		FROM organization_members WHERE organization_id = $1 AND user_id = $2`,
		orgID, userID,
	).Scan(&m.OrganizationID, &m.UserID, &m.Role, &m.JoinedAt)
	if err != nil {
		return nil, notFound(err, "get member")
	}
	return &m, nil
}

func (r *AccountRepo) Members(ctx context.Context, orgID string) ([]domain.OrganizationMember, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT organization_id, user_id, role, joined_at
		FROM organization_members WHERE organization_id = $1
		ORDER BY joined_at`, orgID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	out := []domain.OrganizationMember{}
	for rows.Next() {
		var m domain.OrganizationMember
		if err := rows.Scan(&m.OrganizationID, &m.UserID, &m.Role, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ==========================================
// INVITATIONS
// ==========================================

func (r *AccountRepo) CreateInvitation(ctx context.Context, inv *domain.OrganizationInvitation) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO organization_invitations (id, organization_id, email, token, invited_by, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		inv.ID, inv.OrganizationID, inv.Email, inv.Token, inv.InvitedBy, inv.ExpiresAt, inv.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert invitation: %w", err)
	}
	return nil
}

func (r *AccountRepo) InvitationByToken(ctx context.Context, token string) (*domain.OrganizationInvitation, error) {
	var (
		inv      domain.OrganizationInvitation
		accepted sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, organization_id, email, token, invited_by, expires_at, accepted_at, created_at
		FROM organization_invitations WHERE token = $1`, token,
	).Scan(&inv.ID, &inv.OrganizationID, &inv.Email, &inv.Token, &inv.InvitedBy,
		&inv.ExpiresAt, &accepted, &inv.CreatedAt)
	if err != nil {
		return nil, notFound(err, "invitation by token")
	}
	inv.AcceptedAt = timePtr(accepted)
	return &inv, nil
}

// AcceptInvitation only stamps an invitation that has not been accepted yet,
// so a replayed token cannot add a second membership.
func (r *AccountRepo) AcceptInvitation(ctx context.Context, inv *domain.OrganizationInvitation, m *domain.OrganizationMember) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE organization_invitations SET accepted_at = $2
		WHERE id = $1 AND accepted_at IS NULL`, inv.ID, inv.AcceptedAt)
	if err != nil {
		return fmt.Errorf("stamp invitation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return account.ErrInvitationUsed
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO organization_members (organization_id, user_id, role, joined_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (organization_id, user_id) DO NOTHING`,
		m.OrganizationID, m.UserID, m.Role, m.JoinedAt,
	); err != nil {
		return fmt.Errorf("insert membership: %w", err)
	}
	return tx.Commit()
}
