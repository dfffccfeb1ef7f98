package template

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/listguard/internal/domain"
)

type mockRepo struct {
	mu    sync.RWMutex
	store map[string]*domain.EmailTemplate
}

func newMockRepo() *mockRepo {
	return &mockRepo{store: map[string]*domain.EmailTemplate{}}
}

func (m *mockRepo) Create(_ context.Context, t *domain.EmailTemplate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.store[t.ID] = &cp
	return nil
}

func (m *mockRepo) Get(_ context.Context, id string) (*domain.EmailTemplate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *mockRepo) ListForUser(_ context.Context, userID string) ([]domain.EmailTemplate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.EmailTemplate
	for _, t := range m.store {
		if t.IsSystem() || *t.UserID == userID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *mockRepo) Update(ctx context.Context, t *domain.EmailTemplate) error {
	return m.Create(ctx, t)
}

func (m *mockRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, id)
	return nil
}

type recordingMailer struct {
	to, subject, body string
	err               error
}

func (r *recordingMailer) Send(_ context.Context, to, subject, body string) error {
	r.to, r.subject, r.body = to, subject, body
	return r.err
}

func TestRenderer_LaxMissingVariables(t *testing.T) {
	r := NewRenderer()
	out, err := r.Render("", "Hi {{ name }}, bye {{ nobody }}!", map[string]interface{}{"name": "Ann"})
	require.NoError(t, err)
	assert.Equal(t, "Hi Ann, bye !", out)

	out, err = r.Render("", `Hi {{ name | default: "there" }}`, map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, "Hi there", out)
}

func TestRenderer_ParseError(t *testing.T) {
	r := NewRenderer()
	_, err := r.Render("k", "{% if true %}never closed", nil)
	assert.ErrorIs(t, err, ErrInvalid)
	assert.ErrorIs(t, r.Parse("{% endif %}"), ErrInvalid)
}

func TestRenderer_CacheKey(t *testing.T) {
	r := NewRenderer()
	vars := map[string]interface{}{"x": "1"}
	first, _ := r.Render("key", "A{{ x }}", vars)
	second, _ := r.Render("key", "B{{ x }}", vars)
	assert.Equal(t, "A1", first)
	assert.Equal(t, "A1", second, "cached template is reused for the same key")
	r.Forget("key")
	third, _ := r.Render("key", "B{{ x }}", vars)
	assert.Equal(t, "B1", third)
}

func TestMissingVariables(t *testing.T) {
	got := MissingVariables("{{ name }} {{ user.plan }} {{ name }} {{ email | urlencode }}", map[string]interface{}{"email": "x"})
	assert.Equal(t, []string{"name", "user.plan"}, got)
}

func TestService_CRUDAndOwnership(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, NewRenderer(), nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, "u1", Input{Name: " ", Subject: "s", Body: "b"})
	assert.ErrorIs(t, err, ErrNameRequired)
	_, err = svc.Create(ctx, "u1", Input{Name: "Bad", Subject: "s", Body: "{% if true %}open"})
	assert.ErrorIs(t, err, ErrInvalid)

	tpl, err := svc.Create(ctx, "u1", Input{Name: " Welcome ", Subject: "Hi {{ name }}", Body: "<p>{{ list_name }}</p>"})
	require.NoError(t, err)
	assert.Equal(t, "Welcome", tpl.Name)

	_, err = svc.Get(ctx, "u2", tpl.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	repo.store["sys"] = &domain.EmailTemplate{ID: "sys", Name: "Default", Subject: "s", Body: "b"}
	got, err := svc.Get(ctx, "u2", "sys")
	require.NoError(t, err)
	assert.True(t, got.IsSystem())
	_, err = svc.Update(ctx, "u2", "sys", Input{Name: "x", Subject: "s", Body: "b"})
	assert.ErrorIs(t, err, ErrForbidden)

	all, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	updated, err := svc.Update(ctx, "u1", tpl.ID, Input{Name: "Welcome v2", Subject: "Hello", Body: "b"})
	require.NoError(t, err)
	assert.Equal(t, "Welcome v2", updated.Name)

	require.NoError(t, svc.Delete(ctx, "u1", tpl.ID))
	_, err = svc.Get(ctx, "u1", tpl.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestService_PreviewAndSendTest(t *testing.T) {
	mailer := &recordingMailer{}
	svc := NewService(newMockRepo(), NewRenderer(), mailer)
	ctx := context.Background()

	tpl, err := svc.Create(ctx, "u1", Input{Name: "T", Subject: "News for {{ name }}", Body: `<a href="{{ unsubscribe_link }}">x</a>{{ plan }}`})
	require.NoError(t, err)

	r, err := svc.Preview(ctx, "u1", tpl.ID, map[string]interface{}{"name": "Bob"})
	require.NoError(t, err)
	assert.Equal(t, "News for Bob", r.Subject)
	assert.Contains(t, r.Body, SampleVars["unsubscribe_link"])
	assert.Equal(t, []string{"plan"}, r.Missing)

	require.NoError(t, svc.SendTest(ctx, "u1", tpl.ID, "qa@acme.io"))
	assert.Equal(t, "qa@acme.io", mailer.to)
	assert.Equal(t, "[TEST] News for Jane Doe", mailer.subject)

	mailer.err = errors.New("throttled")
	assert.ErrorContains(t, svc.SendTest(ctx, "u1", tpl.ID, "qa@acme.io"), "throttled")
}

func TestService_SendTestWithoutMailer(t *testing.T) {
	svc := NewService(newMockRepo(), NewRenderer(), nil)
	assert.ErrorIs(t, svc.SendTest(context.Background(), "u1", "x", "a@b.c"), ErrNoMailer)
}

func TestService_RenderCacheFollowsUpdates(t *testing.T) {
	svc := NewService(newMockRepo(), NewRenderer(), nil)
	tpl := &domain.EmailTemplate{ID: "t", Subject: "one", Body: "b", UpdatedAt: time.Unix(1, 0)}
	r, err := svc.Render(tpl, nil)
	require.NoError(t, err)
	assert.Equal(t, "one", r.Subject)

	tpl.Subject = "two"
	tpl.UpdatedAt = time.Unix(2, 0)
	r, err = svc.Render(tpl, nil)
	require.NoError(t, err)
	assert.Equal(t, "two", r.Subject)
}
