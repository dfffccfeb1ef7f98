package blacklist

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/ignite/listguard/internal/domain"
)

// mockRepo is an in-memory repository for testing.
type mockRepo struct {
	mu    sync.RWMutex
	store map[string]*domain.EmailBlacklist // keyed by id
}

func newMockRepo() *mockRepo {
	return &mockRepo{store: make(map[string]*domain.EmailBlacklist)}
}

func scopeOf(e *domain.EmailBlacklist) string {
	if e.SubscriptionListID == nil {
		return ""
	}
	return *e.SubscriptionListID
}

func (m *mockRepo) IsBlacklisted(_ context.Context, email, listID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.store {
		if e.Email != email {
			continue
		}
		if e.IsGlobal() || scopeOf(e) == listID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepo) Add(_ context.Context, e *domain.EmailBlacklist) (*domain.EmailBlacklist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.store {
		if existing.Email == e.Email && scopeOf(existing) == scopeOf(e) {
			return existing, nil
		}
	}
	e.ID = uuid.New().String()
	m.store[e.ID] = e
	return e, nil
}

func (m *mockRepo) Get(_ context.Context, id string) (*domain.EmailBlacklist, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}

func (m *mockRepo) Remove(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return ErrNotFound
	}
	delete(m.store, id)
	return nil
}

func (m *mockRepo) List(_ context.Context, f ListFilter) ([]domain.EmailBlacklist, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	allowed := map[string]bool{}
	for _, id := range f.ListIDs {
		allowed[id] = true
	}
	var result []domain.EmailBlacklist
	for _, e := range m.store {
		if e.IsGlobal() && !f.IncludeGlobal {
			continue
		}
		if !e.IsGlobal() && !allowed[scopeOf(e)] {
			continue
		}
		if f.Search != "" && !strings.Contains(e.Email, f.Search) {
			continue
		}
		result = append(result, *e)
	}
	return result, len(result), nil
}

func (m *mockRepo) CountByScope(_ context.Context, listIDs []string) (int, map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	global := 0
	perList := map[string]int{}
	for _, e := range m.store {
		if e.IsGlobal() {
			global++
			continue
		}
		for _, id := range listIDs {
			if id == scopeOf(e) {
				perList[id]++
			}
		}
	}
	return global, perList, nil
}

func strPtr(s string) *string { return &s }

func TestAdd_ListScopedOnlyMatchesThatList(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	if _, err := svc.Add(ctx, AddInput{Email: "Spam@Example.com", ListID: strPtr("list-a")}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	ok, err := svc.IsBlacklisted(ctx, "spam@example.com", "list-a")
	if err != nil {
		t.Fatalf("IsBlacklisted: %v", err)
	}
	if !ok {
		t.Error("expected email to be blacklisted on list-a")
	}

	ok, _ = svc.IsBlacklisted(ctx, "spam@example.com", "list-b")
	if ok {
		t.Error("list-scoped entry must not apply to list-b")
	}
}

func TestAdd_GlobalMatchesEveryList(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	if _, err := svc.Add(ctx, AddInput{Email: "abuse@example.com", Reason: "complaint"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	for _, list := range []string{"list-a", "list-b"} {
		ok, _ := svc.IsBlacklisted(ctx, " ABUSE@example.com ", list)
		if !ok {
			t.Errorf("global entry should apply to %s", list)
		}
	}
}

func TestAdd_IdempotentPerScope(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	first, err := svc.Add(ctx, AddInput{Email: "dup@example.com", Reason: "first", ListID: strPtr("list-a")})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	second, err := svc.Add(ctx, AddInput{Email: "dup@example.com", Reason: "second", ListID: strPtr("list-a")})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("expected same entry, got %s and %s", first.ID, second.ID)
	}
	if second.Reason != "first" {
		t.Errorf("existing reason should be kept, got %q", second.Reason)
	}

	if _, err := svc.Add(ctx, AddInput{Email: "dup@example.com"}); err != nil {
		t.Fatalf("Add global: %v", err)
	}
	if len(repo.store) != 2 {
		t.Errorf("expected 2 entries (list + global), got %d", len(repo.store))
	}
}

func TestAdd_DefaultReasonAndMissingEmail(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	e, err := svc.Add(ctx, AddInput{Email: "x@example.com"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if e.Reason != "manually blacklisted" {
		t.Errorf("Reason = %q", e.Reason)
	}

	if _, err := svc.Add(ctx, AddInput{Email: "   "}); !errors.Is(err, ErrEmailMissing) {
		t.Errorf("expected ErrEmailMissing, got %v", err)
	}
}

func TestRemove(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	e, _ := svc.Add(ctx, AddInput{Email: "gone@example.com"})
	if err := svc.Remove(ctx, e.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	ok, _ := svc.IsBlacklisted(ctx, "gone@example.com", "any")
	if ok {
		t.Error("email still blacklisted after Remove")
	}
	if err := svc.Remove(ctx, e.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second Remove, got %v", err)
	}
}

func TestList_FiltersByScopeAndSearch(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	svc.Add(ctx, AddInput{Email: "a@alpha.com", ListID: strPtr("list-a")})
	svc.Add(ctx, AddInput{Email: "b@beta.com", ListID: strPtr("list-b")})
	svc.Add(ctx, AddInput{Email: "g@alpha.com"})

	got, total, err := svc.List(ctx, ListFilter{ListIDs: []string{"list-a"}, IncludeGlobal: true, Search: "ALPHA"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 2 || len(got) != 2 {
		t.Errorf("expected 2 entries, got %d (total %d)", len(got), total)
	}
}

func TestGetStats(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	svc.Add(ctx, AddInput{Email: "1@x.com", ListID: strPtr("list-a")})
	svc.Add(ctx, AddInput{Email: "2@x.com", ListID: strPtr("list-a")})
	svc.Add(ctx, AddInput{Email: "3@x.com", ListID: strPtr("list-b")})
	svc.Add(ctx, AddInput{Email: "4@x.com"})

	st, err := svc.GetStats(ctx, []string{"list-a", "list-b"})
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if st.Global != 1 || st.ByList["list-a"] != 2 || st.ByList["list-b"] != 1 || st.Total != 4 {
		t.Errorf("unexpected stats: %+v", st)
	}
}
