package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ignite/listguard/internal/domain"
)

// AnalyticsRepo implements analytics.Repository against PostgreSQL.
type AnalyticsRepo struct{ db *sql.DB }

// NewAnalyticsRepo creates a Postgres-backed analytics repository.
func NewAnalyticsRepo(db *sql.DB) *AnalyticsRepo { return &AnalyticsRepo{db: db} }

func (r *AnalyticsRepo) Increment(ctx context.Context, listID string, day time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO subscription_analytics (id, list_id, recorded_date, new_subscribers)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (list_id, recorded_date)
		DO UPDATE SET new_subscribers = subscription_analytics.new_subscribers + 1`,
		uuid.New().String(), listID, day.UTC().Format("2006-01-02"),
	)
	if err != nil {
		return fmt.Errorf("increment analytics: %w", err)
	}
	return nil
}

func (r *AnalyticsRepo) Daily(ctx context.Context, listIDs []string, from, to time.Time) ([]domain.SubscriptionAnalytics, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, list_id, recorded_date, new_subscribers
		FROM subscription_analytics
		WHERE list_id = ANY($1::uuid[]) AND recorded_date BETWEEN $2 AND $3
		ORDER BY recorded_date`,
		pq.Array(listIDs), from.UTC().Format("2006-01-02"), to.UTC().Format("2006-01-02"),
	)
	if err != nil {
		return nil, fmt.Errorf("daily analytics: %w", err)
	}
	defer rows.Close()

	var out []domain.SubscriptionAnalytics
	for rows.Next() {
		var a domain.SubscriptionAnalytics
		if err := rows.Scan(&a.ID, &a.ListID, &a.RecordedDate, &a.NewSubscribers); err != nil {
			return nil, fmt.Errorf("scan analytics: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AnalyticsRepo) StatusCounts(ctx context.Context, listIDs []string) (map[domain.SubscriberStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM subscribers
		WHERE list_id = ANY($1::uuid[])
		GROUP BY status`, pq.Array(listIDs))
	if err != nil {
		return nil, fmt.Errorf("status counts: %w", err)
	}
	defer rows.Close()

	out := map[domain.SubscriberStatus]int{}
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[domain.SubscriberStatus(status)] = n
	}
	return out, rows.Err()
}

func (r *AnalyticsRepo) UnsubscribesSince(ctx context.Context, listIDs []string, since time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM unsubscribe_logs
		WHERE list_id = ANY($1::uuid[]) AND unsubscribed_at >= $2`,
		pq.Array(listIDs), since,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count unsubscribes: %w", err)
	}
	return n, nil
}
