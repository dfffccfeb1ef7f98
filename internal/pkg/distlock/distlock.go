// Package distlock serializes work on a shared resource (for example a bulk
// import into one subscription list) across server instances.
package distlock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotAcquired is returned by Run when another holder owns the lock.
var ErrNotAcquired = errors.New("lock held by another process")

// Lock is a non-blocking mutual-exclusion handle.
type Lock interface {
	// TryAcquire returns true when the caller now owns the lock.
	TryAcquire(ctx context.Context) (bool, error)
	// Release gives the lock up if the caller still owns it.
	Release(ctx context.Context) error
}

// Locker creates locks for named resources.
type Locker interface {
	New(key string) Lock
}

// Factory builds Redis locks when a client is configured, Postgres
// advisory locks when only a database is, and in-process locks otherwise.
type Factory struct {
	redis *redis.Client
	db    *sql.DB
	ttl   time.Duration
	local *LocalLocker
}

// NewFactory returns a Locker. ttl bounds how long a crashed Redis holder
// can block others; advisory locks end with the DB session instead.
func NewFactory(redisClient *redis.Client, db *sql.DB, ttl time.Duration) *Factory {
	return &Factory{redis: redisClient, db: db, ttl: ttl, local: NewLocalLocker()}
}

// New returns a lock for key.
func (f *Factory) New(key string) Lock {
	switch {
	case f.redis != nil:
		return NewRedisLock(f.redis, key, f.ttl)
	case f.db != nil:
		return NewPGAdvisoryLock(f.db, key)
	}
	return f.local.New(key)
}

// Run executes fn while holding l. It returns ErrNotAcquired without
// calling fn when the lock is taken.
func Run(ctx context.Context, l Lock, fn func(ctx context.Context) error) error {
	ok, err := l.TryAcquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrNotAcquired
	}
	defer func() {
		// release on a fresh context so a cancelled request still frees the lock
		relCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = l.Release(relCtx)
	}()
	return fn(ctx)
}

// PGAdvisoryLock implements Lock using pg_try_advisory_lock on a
// dedicated connection, since advisory locks are session-scoped.
type PGAdvisoryLock struct {
	db     *sql.DB
	lockID int64
	conn   *sql.Conn
}

// NewPGAdvisoryLock derives a stable advisory lock id from key.
func NewPGAdvisoryLock(db *sql.DB, key string) *PGAdvisoryLock {
	h := fnv.New64a()
	h.Write([]byte(key))
	return &PGAdvisoryLock{db: db, lockID: int64(h.Sum64())}
}

func (l *PGAdvisoryLock) TryAcquire(ctx context.Context) (bool, error) {
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return false, err
	}
	var acquired bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", l.lockID).Scan(&acquired); err != nil {
		conn.Close()
		return false, err
	}
	if !acquired {
		conn.Close()
		return false, nil
	}
	l.conn = conn
	return true, nil
}

func (l *PGAdvisoryLock) Release(ctx context.Context) error {
	if l.conn == nil {
		return nil
	}
	defer func() {
		l.conn.Close()
		l.conn = nil
	}()
	_, err := l.conn.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", l.lockID)
	return err
}
