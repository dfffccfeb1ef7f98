package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/ignite/listguard/internal/domain"
	"github.com/ignite/listguard/internal/service/subscriber"
)

// SubscriberRepo implements subscriber.Repository.
type SubscriberRepo struct{ s *Store }

// snapshot must be called with the lock held.
func (r *SubscriberRepo) snapshot(sub *domain.Subscriber) domain.Subscriber {
	cp := *sub
	cp.Tags = sortedCopy(r.s.tags[sub.ID])
	if sub.Metadata != nil {
		cp.Metadata = make(map[string]any, len(sub.Metadata))
		for k, v := range sub.Metadata {
			cp.Metadata[k] = v
		}
	}
	return cp
}

func (r *SubscriberRepo) Create(_ context.Context, sub *domain.Subscriber) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.subscribers {
		if e.UnsubscribeToken == sub.UnsubscribeToken || (e.ListID == sub.ListID && e.Email == sub.Email) {
			return subscriber.ErrDuplicate
		}
	}
	cp := *sub
	cp.Tags = nil
	r.s.subscribers[sub.ID] = &cp
	r.s.subOrder = append(r.s.subOrder, sub.ID)
	return nil
}

func (r *SubscriberRepo) Get(_ context.Context, id string) (*domain.Subscriber, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sub, ok := r.s.subscribers[id]
	if !ok {
		return nil, subscriber.ErrNotFound
	}
	cp := r.snapshot(sub)
	return &cp, nil
}

func (r *SubscriberRepo) ExistsByEmail(_ context.Context, listID, email string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, e := range r.s.subscribers {
		if e.ListID == listID && e.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *SubscriberRepo) find(match func(*domain.Subscriber) bool) (*domain.Subscriber, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, e := range r.s.subscribers {
		if match(e) {
			cp := r.snapshot(e)
			return &cp, nil
		}
	}
	return nil, subscriber.ErrNotFound
}

func (r *SubscriberRepo) GetByUnsubscribeToken(_ context.Context, token string) (*domain.Subscriber, error) {
	return r.find(func(e *domain.Subscriber) bool { return e.UnsubscribeToken == token })
}

func (r *SubscriberRepo) GetByVerificationToken(_ context.Context, token string) (*domain.Subscriber, error) {
	return r.find(func(e *domain.Subscriber) bool {
		return e.VerificationToken != nil && *e.VerificationToken == token
	})
}

// List returns newest subscribers first.
func (r *SubscriberRepo) List(_ context.Context, listID string, f subscriber.ListFilter) ([]domain.Subscriber, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.Subscriber
	for i := len(r.s.subOrder) - 1; i >= 0; i-- {
		e, ok := r.s.subscribers[r.s.subOrder[i]]
		if !ok || e.ListID != listID {
			continue
		}
		if f.Status != "" && string(e.Status) != f.Status {
			continue
		}
		if f.Search != "" && !strings.Contains(e.Email, f.Search) && !strings.Contains(strings.ToLower(e.Name), f.Search) {
			continue
		}
		if f.Tag != "" && !contains(r.s.tags[e.ID], f.Tag) {
			continue
		}
		out = append(out, r.snapshot(e))
	}
	return page(out, f.Limit, f.Offset), len(out), nil
}

func (r *SubscriberRepo) ForEach(ctx context.Context, listID string, fn func(domain.Subscriber) error) error {
	r.s.mu.RLock()
	var rows []domain.Subscriber
	for _, id := range r.s.subOrder {
		if e, ok := r.s.subscribers[id]; ok && e.ListID == listID {
			rows = append(rows, r.snapshot(e))
		}
	}
	r.s.mu.RUnlock()
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	return nil
}

func (r *SubscriberRepo) UpdateStatus(_ context.Context, id string, status domain.SubscriberStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.subscribers[id]
	if !ok {
		return subscriber.ErrNotFound
	}
	e.Status = status
	e.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *SubscriberRepo) Unsubscribe(_ context.Context, id string, log *domain.UnsubscribeLog) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.subscribers[id]
	if !ok {
		return false, subscriber.ErrNotFound
	}
	if e.Status != domain.SubscriberActive {
		return false, nil
	}
	e.Status = domain.SubscriberInactive
	e.UpdatedAt = log.UnsubscribedAt
	r.s.unsubLogs = append(r.s.unsubLogs, *log)
	return true, nil
}

func (r *SubscriberRepo) MarkVerified(_ context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.subscribers[id]
	if !ok {
		return subscriber.ErrNotFound
	}
	if e.VerificationToken == nil || e.Status != domain.SubscriberInactive {
		return subscriber.ErrNotPending
	}
	e.VerificationToken = nil
	e.VerifiedAt = &at
	e.Status = domain.SubscriberActive
	e.UpdatedAt = at
	return nil
}

// deleteLocked must be called with the write lock held.
func (r *SubscriberRepo) deleteLocked(id string) bool {
	if _, ok := r.s.subscribers[id]; !ok {
		return false
	}
	delete(r.s.subscribers, id)
	delete(r.s.tags, id)
	if i := slices.Index(r.s.subOrder, id); i >= 0 {
		r.s.subOrder = slices.Delete(r.s.subOrder, i, i+1)
	}
	return true
}

func (r *SubscriberRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if !r.deleteLocked(id) {
		return subscriber.ErrNotFound
	}
	return nil
}

func (r *SubscriberRepo) BulkDelete(_ context.Context, ids []string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, id := range ids {
		if r.deleteLocked(id) {
			n++
		}
	}
	return n, nil
}

func (r *SubscriberRepo) AddTags(_ context.Context, id string, tags []string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.subscribers[id]; !ok {
		return nil, subscriber.ErrNotFound
	}
	for _, t := range tags {
		if !contains(r.s.tags[id], t) {
			r.s.tags[id] = append(r.s.tags[id], t)
		}
	}
	return sortedCopy(r.s.tags[id]), nil
}

func (r *SubscriberRepo) RemoveTag(_ context.Context, id, tag string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, t := range r.s.tags[id] {
		if t == tag {
			r.s.tags[id] = append(r.s.tags[id][:i], r.s.tags[id][i+1:]...)
			return nil
		}
	}
	return subscriber.ErrTagNotFound
}

// UnsubscribeLogs returns the unsubscribe log rows of a list.
func (r *SubscriberRepo) UnsubscribeLogs(listID string) []domain.UnsubscribeLog {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.UnsubscribeLog
	for _, l := range r.s.unsubLogs {
		if l.ListID == listID {
			out = append(out, l)
		}
	}
	return out
}
