package distlock

import (
	"context"
	"sync"
)

// LocalLocker is an in-process Locker for single-instance deployments
// without Redis or Postgres.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

// NewLocalLocker returns an empty in-process locker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: map[string]bool{}}
}

// New returns a lock for key.
func (l *LocalLocker) New(key string) Lock {
	return &localLock{parent: l, key: key}
}

type localLock struct {
	parent *LocalLocker
	key    string
	owned  bool
}

func (l *localLock) TryAcquire(context.Context) (bool, error) {
	l.parent.mu.Lock()
	defer l.parent.mu.Unlock()
	if l.parent.held[l.key] {
		return false, nil
	}
	l.parent.held[l.key] = true
	l.owned = true
	return true, nil
}

func (l *localLock) Release(context.Context) error {
	l.parent.mu.Lock()
	defer l.parent.mu.Unlock()
	if l.owned {
		delete(l.parent.held, l.key)
		l.owned = false
	}
	return nil
}
