package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ignite/listguard/internal/domain"
	"github.com/ignite/listguard/internal/service/blacklist"
)

// BlacklistRepo implements blacklist.Repository against PostgreSQL.
type BlacklistRepo struct{ db *sql.DB }

// NewBlacklistRepo creates a Postgres-backed blacklist repository.
func NewBlacklistRepo(db *sql.DB) *BlacklistRepo { return &BlacklistRepo{db: db} }

const blacklistColumns = `id, email, reason, blacklisted_by, subscription_list_id, created_at`

func scanBlacklist(row interface{ Scan(...any) error }) (*domain.EmailBlacklist, error) {
	var (
		e      domain.EmailBlacklist
		by     sql.NullString
		listID sql.NullString
	)
	if err := row.Scan(&e.ID, &e.Email, &e.Reason, &by, &listID, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.BlacklistedBy = stringPtr(by)
	e.SubscriptionListID = stringPtr(listID)
	return &e, nil
}

func (r *BlacklistRepo) IsBlacklisted(ctx context.Context, email, listID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM email_blacklist
			WHERE email = $1 AND (subscription_list_id IS NULL OR subscription_list_id = $2)
		)`, email, listID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check blacklist: %w", err)
	}
	return exists, nil
}

func (r *BlacklistRepo) findScoped(ctx context.Context, email string, listID *string) (*domain.EmailBlacklist, error) {
	var row *sql.Row
	if listID == nil {
		row = r.db.QueryRowContext(ctx, `SELECT `+blacklistColumns+`
			FROM email_blacklist WHERE email = $1 AND subscription_list_id IS NULL`, email)
	} else {
		row = r.db.QueryRowContext(ctx, `SELECT `+blacklistColumns+`
			FROM email_blacklist WHERE email = $1 AND subscription_list_id = $2`, email, *listID)
	}
	return scanBlacklist(row)
}

// Add inserts the entry, or returns the existing one for the same email and
// scope. The partial unique indexes make concurrent adds converge.
func (r *BlacklistRepo) Add(ctx context.Context, e *domain.EmailBlacklist) (*domain.EmailBlacklist, error) {
	existing, err := r.findScoped(ctx, e.Email, e.SubscriptionListID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lookup blacklist: %w", err)
	}

	out := *e
	out.ID = uuid.New().String()
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO email_blacklist (id, email, reason, blacklisted_by, subscription_list_id, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING created_at`,
		out.ID, out.Email, out.Reason, nullString(out.BlacklistedBy), nullString(out.SubscriptionListID),
	).Scan(&out.CreatedAt)
	if isUniqueViolation(err) {
		return r.findScoped(ctx, e.Email, e.SubscriptionListID)
	}
	if err != nil {
		return nil, fmt.Errorf("insert blacklist: %w", err)
	}
	return &out, nil
}

func (r *BlacklistRepo) Get(ctx context.Context, id string) (*domain.EmailBlacklist, error) {
	e, err := scanBlacklist(r.db.QueryRowContext(ctx,
		`SELECT `+blacklistColumns+` FROM email_blacklist WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, blacklist.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get blacklist: %w", err)
	}
	return e, nil
}

func (r *BlacklistRepo) Remove(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM email_blacklist WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("remove blacklist: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return blacklist.ErrNotFound
	}
	return nil
}

func blacklistWhere(f blacklist.ListFilter) (string, []any) {
	args := []any{pq.Array(f.ListIDs), f.IncludeGlobal}
	where := `(subscription_list_id = ANY($1::uuid[]) OR ($2 AND subscription_list_id IS NULL))`
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+strings.ToLower(s)+"%")
		where += fmt.Sprintf(` AND email LIKE $%d`, len(args))
	}
	return where, args
}

func (r *BlacklistRepo) List(ctx context.Context, f blacklist.ListFilter) ([]domain.EmailBlacklist, int, error) {
	where, args := blacklistWhere(f)

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM email_blacklist WHERE `+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count blacklist: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = total
	}
	args = append(args, limit, f.Offset)
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM email_blacklist
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, blacklistColumns, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list blacklist: %w", err)
	}
	defer rows.Close()

	out := []domain.EmailBlacklist{}
	for rows.Next() {
		e, err := scanBlacklist(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan blacklist: %w", err)
		}
		out = append(out, *e)
	}
	return out, total, rows.Err()
}

func (r *BlacklistRepo) CountByScope(ctx context.Context, listIDs []string) (int, map[string]int, error) {
	var global int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM email_blacklist WHERE subscription_list_id IS NULL`,
	).Scan(&global); err != nil {
		return 0, nil, fmt.Errorf("count global blacklist: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT subscription_list_id, COUNT(*)
		FROM email_blacklist
		WHERE subscription_list_id = ANY($1::uuid[])
		GROUP BY subscription_list_id`, pq.Array(listIDs))
	if err != nil {
		return 0, nil, fmt.Errorf("count list blacklist: %w", err)
	}
	defer rows.Close()

	perList := make(map[string]int, len(listIDs))
	for rows.Next() {
		var (
			id string
			n  int
		)
		if err := rows.Scan(&id, &n); err != nil {
			return 0, nil, err
		}
		perList[id] = n
	}
	return global, perList, rows.Err()
}
