package memory

import (
	"context"
	"sort"

	"github.com/ignite/listguard/internal/domain"
	"github.com/ignite/listguard/internal/service/list"
)

// ListRepo implements list.Repository.
type ListRepo struct{ s *Store }

func (r *ListRepo) Create(_ context.Context, l *domain.SubscriptionList) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *l
	r.s.lists[l.ID] = &cp
	return nil
}

func (r *ListRepo) Get(_ context.Context, id string) (*domain.SubscriptionList, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	l, ok := r.s.lists[id]
	if !ok {
		return nil, list.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *ListRepo) ListForOwner(_ context.Context, userID string, orgIDs []string) ([]domain.ListSummary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []domain.ListSummary{}
	for _, l := range r.s.lists {
		shared := l.OrganizationID != nil && contains(orgIDs, *l.OrganizationID)
		if l.UserID != userID && !shared {
			continue
		}
		sum := domain.ListSummary{SubscriptionList: *l}
		for _, sub := range r.s.subscribers {
			if sub.ListID != l.ID {
				continue
			}
			sum.SubscriberCount++
			if sub.Status == domain.SubscriberActive {
				sum.ActiveCount++
			}
		}
		out = append(out, sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *ListRepo) Update(_ context.Context, l *domain.SubscriptionList) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.lists[l.ID]
	if !ok {
		return list.ErrNotFound
	}
	existing.Name = l.Name
	existing.Description = l.Description
	existing.Policy = l.Policy
	existing.UpdatedAt = l.UpdatedAt
	return nil
}

func (r *ListRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.lists[id]; !ok {
		return list.ErrNotFound
	}
	delete(r.s.lists, id)
	subs := &SubscriberRepo{r.s}
	for sid, sub := range r.s.subscribers {
		if sub.ListID == id {
			subs.deleteLocked(sid)
		}
	}
	logs := r.s.unsubLogs[:0]
	for _, l := range r.s.unsubLogs {
		if l.ListID != id {
			logs = append(logs, l)
		}
	}
	r.s.unsubLogs = logs
	delete(r.s.analytics, id)
	for bid, e := range r.s.blacklist {
		if scope(e) == id {
			delete(r.s.blacklist, bid)
		}
	}
	return nil
}
