package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ignite/listguard/internal/domain"
	"github.com/ignite/listguard/internal/service/subscriber"
)

// SubscriberRepo implements subscriber.Repository against PostgreSQL.
type SubscriberRepo struct{ db *sql.DB }

// NewSubscriberRepo creates a Postgres-backed subscriber repository.
func NewSubscriberRepo(db *sql.DB) *SubscriberRepo { return &SubscriberRepo{db: db} }

const subscriberSelect = `
	SELECT s.id, s.list_id, s.name, s.email, s.status, s.metadata,
	       s.unsubscribe_token, s.verification_token, s.verified_at,
	       COALESCE((SELECT array_agg(t.tag ORDER BY t.tag) FROM subscriber_tags t WHERE t.subscriber_id = s.id), '{}'),
	       s.created_at, s.updated_at
	FROM subscribers s`

func scanSubscriber(row interface{ Scan(...any) error }) (*domain.Subscriber, error) {
	var (
		s        domain.Subscriber
		meta     []byte
		verify   sql.NullString
		verified sql.NullTime
		tags     []string
	)
	if err := row.Scan(&s.ID, &s.ListID, &s.Name, &s.Email, &s.Status, &meta,
		&s.UnsubscribeToken, &verify, &verified, pq.Array(&tags),
		&s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.Metadata = map[string]any{}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &s.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
	}
	s.VerificationToken = stringPtr(verify)
	s.VerifiedAt = timePtr(verified)
	if tags == nil {
		tags = []string{}
	}
	s.Tags = tags
	return &s, nil
}

func (r *SubscriberRepo) Create(ctx context.Context, s *domain.Subscriber) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	meta := s.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO subscribers (id, list_id, name, email, status, metadata,
			unsubscribe_token, verification_token, verified_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		s.ID, s.ListID, s.Name, s.Email, s.Status, raw,
		s.UnsubscribeToken, nullString(s.VerificationToken), s.VerifiedAt, s.CreatedAt, s.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return subscriber.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert subscriber: %w", err)
	}
	return nil
}

func (r *SubscriberRepo) getWhere(ctx context.Context, where string, arg any) (*domain.Subscriber, error) {
	s, err := scanSubscriber(r.db.QueryRowContext(ctx, subscriberSelect+` WHERE `+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, subscriber.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get subscriber: %w", err)
	}
	return s, nil
}

func (r *SubscriberRepo) Get(ctx context.Context, id string) (*domain.Subscriber, error) {
	return r.getWhere(ctx, `s.id = $1`, id)
}

func (r *SubscriberRepo) GetByUnsubscribeToken(ctx context.Context, token string) (*domain.Subscriber, error) {
	return r.getWhere(ctx, `s.unsubscribe_token = $1`, token)
}

func (r *SubscriberRepo) GetByVerificationToken(ctx context.Context, token string) (*domain.Subscriber, error) {
	return r.getWhere(ctx, `s.verification_token = $1`, token)
}

func (r *SubscriberRepo) ExistsByEmail(ctx context.Context, listID, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM subscribers WHERE list_id = $1 AND email = $2)`,
		listID, email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("subscriber exists: %w", err)
	}
	return exists, nil
}

func subscriberWhere(listID string, f subscriber.ListFilter) (string, []any) {
	args := []any{listID}
	where := `s.list_id = $1`
	if f.Status != "" {
		args = append(args, f.Status)
		where += fmt.Sprintf(` AND s.status = $%d`, len(args))
	}
	if f.Tag != "" {
		args = append(args, f.Tag)
		where += fmt.Sprintf(` AND EXISTS(SELECT 1 FROM subscriber_tags t WHERE t.subscriber_id = s.id AND t.tag = $%d)`, len(args))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where += fmt.Sprintf(` AND (s.email LIKE $%d OR LOWER(s.name) LIKE $%d)`, len(args), len(args))
	}
	return where, args
}

func (r *SubscriberRepo) List(ctx context.Context, listID string, f subscriber.ListFilter) ([]domain.Subscriber, int, error) {
	where, args := subscriberWhere(listID, f)

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM subscribers s WHERE `+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count subscribers: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = total
	}
	args = append(args, limit, f.Offset)
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`%s
		WHERE %s
		ORDER BY s.created_at DESC
		LIMIT $%d OFFSET $%d`, subscriberSelect, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list subscribers: %w", err)
	}
	defer rows.Close()

	out := []domain.Subscriber{}
	for rows.Next() {
		s, err := scanSubscriber(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan subscriber: %w", err)
		}
		out = append(out, *s)
	}
	return out, total, rows.Err()
}

func (r *SubscriberRepo) ForEach(ctx context.Context, listID string, fn func(domain.Subscriber) error) error {
	rows, err := r.db.QueryContext(ctx, subscriberSelect+`
		WHERE s.list_id = $1
		ORDER BY s.created_at, s.id`, listID)
	if err != nil {
		return fmt.Errorf("stream subscribers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		s, err := scanSubscriber(rows)
		if err != nil {
			return fmt.Errorf("scan subscriber: %w", err)
		}
		if err := fn(*s); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (r *SubscriberRepo) UpdateStatus(ctx context.Context, id string, status domain.SubscriberStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE subscribers SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update subscriber status: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return subscriber.ErrNotFound
	}
	return nil
}

// Unsubscribe flips the status only when still active, so two concurrent
// clicks on the same link write a single log row.
func (r *SubscriberRepo) Unsubscribe(ctx context.Context, id string, log *domain.UnsubscribeLog) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE subscribers SET status = 'inactive', updated_at = NOW()
		WHERE id = $1 AND status = 'active'`, id)
	if err != nil {
		return false, fmt.Errorf("unsubscribe: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, nil
	}

	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO unsubscribe_logs (id, list_id, subscriber_id, unsubscribed_at, reason)
		VALUES ($1, $2, $3, $4, $5)`,
		log.ID, log.ListID, log.SubscriberID, log.UnsubscribedAt, log.Reason,
	); err != nil {
		return false, fmt.Errorf("insert unsubscribe log: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit unsubscribe: %w", err)
	}
	return true, nil
}

func (r *SubscriberRepo) MarkVerified(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE subscribers
		SET status = 'active', verification_token = NULL, verified_at = $2, updated_at = NOW()
		WHERE id = $1 AND verification_token IS NOT NULL AND status = 'inactive'`, id, at)
	if err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return subscriber.ErrNotPending
	}
	return nil
}

func (r *SubscriberRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM subscribers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete subscriber: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return subscriber.ErrNotFound
	}
	return nil
}

func (r *SubscriberRepo) BulkDelete(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM subscribers WHERE id = ANY($1::uuid[])`, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("bulk delete subscribers: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (r *SubscriberRepo) tags(ctx context.Context, q interface {
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
}, id string) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT tag FROM subscriber_tags WHERE subscriber_id = $1 ORDER BY tag`, id)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		out = append(out, tag)
	}
	return out, rows.Err()
}

func (r *SubscriberRepo) AddTags(ctx context.Context, id string, tags []string) ([]string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, tag := range tags {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO subscriber_tags (id, subscriber_id, tag, created_at)
			VALUES ($1, $2, $3, NOW())
			ON CONFLICT (subscriber_id, tag) DO NOTHING`,
			uuid.New().String(), id, tag,
		); err != nil {
			return nil, fmt.Errorf("insert tag: %w", err)
		}
	}
	out, err := r.tags(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tags: %w", err)
	}
	return out, nil
}

func (r *SubscriberRepo) RemoveTag(ctx context.Context, id, tag string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM subscriber_tags WHERE subscriber_id = $1 AND tag = $2`, id, tag)
	if err != nil {
		return fmt.Errorf("remove tag: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return subscriber.ErrTagNotFound
	}
	return nil
}
