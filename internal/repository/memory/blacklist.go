package memory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/listguard/internal/domain"
	"github.com/ignite/listguard/internal/service/blacklist"
)

// BlacklistRepo implements blacklist.Repository.
type BlacklistRepo struct{ s *Store }

func scope(e *domain.EmailBlacklist) string {
	if e.SubscriptionListID == nil {
		return ""
	}
	return *e.SubscriptionListID
}

func (r *BlacklistRepo) IsBlacklisted(_ context.Context, email, listID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, e := range r.s.blacklist {
		if e.Email == email && (e.IsGlobal() || scope(e) == listID) {
			return true, nil
		}
	}
	return false, nil
}

func (r *BlacklistRepo) Add(_ context.Context, e *domain.EmailBlacklist) (*domain.EmailBlacklist, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.blacklist {
		if existing.Email == e.Email && scope(existing) == scope(e) {
			cp := *existing
			return &cp, nil
		}
	}
	cp := *e
	cp.ID = uuid.New().String()
	cp.CreatedAt = time.Now().UTC()
	r.s.blacklist[cp.ID] = &cp
	r.s.blOrder = append(r.s.blOrder, cp.ID)
	out := cp
	return &out, nil
}

func (r *BlacklistRepo) Get(_ context.Context, id string) (*domain.EmailBlacklist, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	e, ok := r.s.blacklist[id]
	if !ok {
		return nil, blacklist.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *BlacklistRepo) Remove(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.blacklist[id]; !ok {
		return blacklist.ErrNotFound
	}
	delete(r.s.blacklist, id)
	return nil
}

// List returns newest entries first.
func (r *BlacklistRepo) List(_ context.Context, f blacklist.ListFilter) ([]domain.EmailBlacklist, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.EmailBlacklist
	for i := len(r.s.blOrder) - 1; i >= 0; i-- {
		e, ok := r.s.blacklist[r.s.blOrder[i]]
		if !ok {
			continue
		}
		if e.IsGlobal() && !f.IncludeGlobal {
			continue
		}
		if !e.IsGlobal() && !contains(f.ListIDs, scope(e)) {
			continue
		}
		if f.Search != "" && !strings.Contains(e.Email, f.Search) {
			continue
		}
		out = append(out, *e)
	}
	return page(out, f.Limit, f.Offset), len(out), nil
}

func (r *BlacklistRepo) CountByScope(_ context.Context, listIDs []string) (int, map[string]int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	global := 0
	perList := map[string]int{}
	for _, e := range r.s.blacklist {
		if e.IsGlobal() {
			global++
		} else if contains(listIDs, scope(e)) {
			perList[scope(e)]++
		}
	}
	return global, perList, nil
}
