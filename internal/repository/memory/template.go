package memory

import (
	"context"
	"sort"

	"github.com/ignite/listguard/internal/domain"
	"github.com/ignite/listguard/internal/service/template"
)

// TemplateRepo implements template.Repository.
type TemplateRepo struct{ s *Store }

func (r *TemplateRepo) Create(_ context.Context, t *domain.EmailTemplate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *t
	r.s.templates[t.ID] = &cp
	return nil
}

func (r *TemplateRepo) Get(_ context.Context, id string) (*domain.EmailTemplate, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.templates[id]
	if !ok {
		return nil, template.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *TemplateRepo) ListForUser(_ context.Context, userID string) ([]domain.EmailTemplate, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []domain.EmailTemplate{}
	for _, t := range r.s.templates {
		if t.IsSystem() || *t.UserID == userID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsSystem() != out[j].IsSystem() {
			return !out[i].IsSystem()
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *TemplateRepo) Update(_ context.Context, t *domain.EmailTemplate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.templates[t.ID]; !ok {
		return template.ErrNotFound
	}
	cp := *t
	r.s.templates[t.ID] = &cp
	return nil
}

func (r *TemplateRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.templates[id]; !ok {
		return template.ErrNotFound
	}
	delete(r.s.templates, id)
	return nil
}
