package template

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/listguard/internal/domain"
	"github.com/ignite/listguard/internal/pkg/logger"
)

// Mailer delivers one rendered message.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// SampleVars is the data used by Preview and SendTest.
var SampleVars = map[string]interface{}{
	"name":             "Jane Doe",
	"email":            "jane.doe@example.com",
	"list_name":        "Product Updates",
	"unsubscribe_link": "https://example.com/unsubscribe/sample-token",
	"verify_link":      "https://example.com/verify/sample-token?signature=sample",
}

// Service implements template business logic.
type Service struct {
	repo     Repository
	renderer *Renderer
	mailer   Mailer
}

// NewService creates a template service. mailer may be nil, in which case
// SendTest returns ErrNoMailer.
func NewService(repo Repository, renderer *Renderer, mailer Mailer) *Service {
	return &Service{repo: repo, renderer: renderer, mailer: mailer}
}

// Input is the editable part of a template.
type Input struct {
	Name    string
	Subject string
	Body    string
}

func (s *Service) check(in Input) error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrNameRequired
	}
	if err := s.renderer.Parse(in.Subject); err != nil {
		return err
	}
	return s.renderer.Parse(in.Body)
}

// Create stores a new template owned by userID.
func (s *Service) Create(ctx context.Context, userID string, in Input) (*domain.EmailTemplate, error) {
	if err := s.check(in); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	owner := userID
	t := &domain.EmailTemplate{
		ID:        uuid.New().String(),
		UserID:    &owner,
		Name:      strings.TrimSpace(in.Name),
		Subject:   in.Subject,
		Body:      in.Body,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}
	return t, nil
}

// Get returns a template readable by userID.
func (s *Service) Get(ctx context.Context, userID, id string) (*domain.EmailTemplate, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.IsSystem() && *t.UserID != userID {
		return nil, ErrForbidden
	}
	return t, nil
}

// List returns the user's templates and the system templates.
func (s *Service) List(ctx context.Context, userID string) ([]domain.EmailTemplate, error) {
	return s.repo.ListForUser(ctx, userID)
}

func (s *Service) owned(ctx context.Context, userID, id string) (*domain.EmailTemplate, error) {
	t, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if t.IsSystem() {
		return nil, ErrForbidden
	}
	return t, nil
}

// Update replaces name, subject and body of a user template.
func (s *Service) Update(ctx context.Context, userID, id string, in Input) (*domain.EmailTemplate, error) {
	t, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := s.check(in); err != nil {
		return nil, err
	}
	t.Name = strings.TrimSpace(in.Name)
	t.Subject = in.Subject
	t.Body = in.Body
	t.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("update template: %w", err)
	}
	return t, nil
}

// Delete removes a user template.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// Rendered is a rendered subject/body pair.
type Rendered struct {
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
	Missing []string `json:"missing_variables,omitempty"`
}

// Render renders t with vars. Missing variables become empty strings.
func (s *Service) Render(t *domain.EmailTemplate, vars map[string]interface{}) (*Rendered, error) {
	key := t.ID + "@" + t.UpdatedAt.Format(time.RFC3339Nano)
	subject, err := s.renderer.Render(key+":subject", t.Subject, vars)
	if err != nil {
		return nil, err
	}
	body, err := s.renderer.Render(key+":body", t.Body, vars)
	if err != nil {
		return nil, err
	}
	return &Rendered{
		Subject: subject,
		Body:    body,
		Missing: MissingVariables(t.Subject+t.Body, vars),
	}, nil
}

// Preview renders a template with SampleVars overlaid by vars.
func (s *Service) Preview(ctx context.Context, userID, id string, vars map[string]interface{}) (*Rendered, error) {
	t, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	merged := make(map[string]interface{}, len(SampleVars)+len(vars))
	for k, v := range SampleVars {
		merged[k] = v
	}
	for k, v := range vars {
		merged[k] = v
	}
	return s.Render(t, merged)
}

// SendTest renders a template with sample data and mails it to to.
func (s *Service) SendTest(ctx context.Context, userID, id, to string) error {
	if s.mailer == nil {
		return ErrNoMailer
	}
	r, err := s.Preview(ctx, userID, id, nil)
	if err != nil {
		return err
	}
	if err := s.mailer.Send(ctx, to, "[TEST] "+r.Subject, r.Body); err != nil {
		return fmt.Errorf("send test: %w", err)
	}
	logger.Info("template test sent", "template_id", id, "to", to)
	return nil
}
