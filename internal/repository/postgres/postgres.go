// Package postgres implements the service repositories against PostgreSQL
// using database/sql with the lib/pq driver.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// uniqueViolation is the SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// Open connects to Postgres and applies pool limits.
func Open(ctx context.Context, dsn string, maxOpen, maxIdle int, lifetime time.Duration) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}
	if maxIdle > 0 {
		db.SetMaxIdleConns(maxIdle)
	}
	if lifetime > 0 {
		db.SetConnMaxLifetime(lifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Repos bundles every repository over one connection pool.
type Repos struct {
	Blacklist   *BlacklistRepo
	Subscribers *SubscriberRepo
	Lists       *ListRepo
	Analytics   *AnalyticsRepo
	Templates   *TemplateRepo
	Accounts    *AccountRepo
}

// NewRepos builds all repositories.
func NewRepos(db *sql.DB) *Repos {
	return &Repos{
		Blacklist:   NewBlacklistRepo(db),
		Subscribers: NewSubscriberRepo(db),
		Lists:       NewListRepo(db),
		Analytics:   NewAnalyticsRepo(db),
		Templates:   NewTemplateRepo(db),
		Accounts:    NewAccountRepo(db),
	}
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}
