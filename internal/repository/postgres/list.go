package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/ignite/listguard/internal/domain"
	"github.com/ignite/listguard/internal/service/list"
)

// ListRepo implements list.Repository against PostgreSQL.
type ListRepo struct{ db *sql.DB }

// NewListRepo creates a Postgres-backed list repository.
func NewListRepo(db *sql.DB) *ListRepo { return &ListRepo{db: db} }

const listColumns = `l.id, l.user_id, l.organization_id, l.name, l.description,
	l.allow_business_email_only, l.block_temporary_email, l.require_email_verification,
	l.check_domain_existence, l.verify_dns_records, l.blacklist_on_failure,
	l.is_verified, l.created_at, l.updated_at`

func listDest(l *domain.SubscriptionList, org *sql.NullString) []any {
	return []any{&l.ID, &l.UserID, org, &l.Name, &l.Description,
		&l.Policy.AllowBusinessEmailOnly, &l.Policy.BlockTemporaryEmail, &l.Policy.RequireEmailVerification,
		&l.Policy.CheckDomainExistence, &l.Policy.VerifyDNSRecords, &l.Policy.BlacklistOnFailure,
		&l.IsVerified, &l.CreatedAt, &l.UpdatedAt}
}

func (r *ListRepo) Create(ctx context.Context, l *domain.SubscriptionList) error {
	p := l.Policy
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO subscription_lists (id, user_id, organization_id, name, description,
			allow_business_email_only, block_temporary_email, require_email_verification,
			check_domain_existence, verify_dns_records, blacklist_on_failure,
			is_verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		l.ID, l.UserID, nullString(l.OrganizationID), l.Name, l.Description,
		p.AllowBusinessEmailOnly, p.BlockTemporaryEmail, p.RequireEmailVerification,
		p.CheckDomainExistence, p.VerifyDNSRecords, p.BlacklistOnFailure,
		l.IsVerified, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert list: %w", err)
	}
	return nil
}

func (r *ListRepo) Get(ctx context.Context, id string) (*domain.SubscriptionList, error) {
	var (
		l   domain.SubscriptionList
		org sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT `+listColumns+` FROM subscription_lists l WHERE l.id = $1`, id,
	).Scan(listDest(&l, &org)...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, list.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get list: %w", err)
	}
	l.OrganizationID = stringPtr(org)
	return &l, nil
}

func (r *ListRepo) ListForOwner(ctx context.Context, userID string, orgIDs []string) ([]domain.ListSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+listColumns+`,
		       COUNT(s.id),
		       COUNT(s.id) FILTER (WHERE s.status = 'active')
		FROM subscription_lists l
		LEFT JOIN subscribers s ON s.list_id = l.id
		WHERE l.user_id = $1 OR l.organization_id = ANY($2::uuid[])
		GROUP BY l.id
		ORDER BY l.created_at DESC`, userID, pq.Array(orgIDs))
	if err != nil {
		return nil, fmt.Errorf("list lists: %w", err)
	}
	defer rows.Close()

	out := []domain.ListSummary{}
	for rows.Next() {
		var (
			sum domain.ListSummary
			org sql.NullString
		)
		dest := append(listDest(&sum.SubscriptionList, &org), &sum.SubscriberCount, &sum.ActiveCount)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan list: %w", err)
		}
		sum.OrganizationID = stringPtr(org)
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (r *ListRepo) Update(ctx context.Context, l *domain.SubscriptionList) error {
	p := l.Policy
	res, err := r.db.ExecContext(ctx, `
		UPDATE subscription_lists SET
			name = $2, description = $3,
			allow_business_email_only = $4, block_temporary_email = $5,
			require_email_verification = $6, check_domain_existence = $7,
			verify_dns_records = $8, blacklist_on_failure = $9,
			updated_at = $10
		WHERE id = $1`,
		l.ID, l.Name, l.Description,
		p.AllowBusinessEmailOnly, p.BlockTemporaryEmail,
		p.RequireEmailVerification, p.CheckDomainExistence,
		p.VerifyDNSRecords, p.BlacklistOnFailure,
		l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update list: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return list.ErrNotFound
	}
	return nil
}

// Delete relies on ON DELETE CASCADE for subscribers, tags, logs, analytics
// and list-scoped blacklist entries.
func (r *ListRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM subscription_lists WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete list: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return list.ErrNotFound
	}
	return nil
}
