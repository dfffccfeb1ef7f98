package list

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/listguard/internal/domain"
	"github.com/ignite/listguard/internal/pkg/logger"
	"github.com/ignite/listguard/internal/service/admission"
)

// Access decides who may use a list.
type Access interface {
	CanAccessList(ctx context.Context, actor *domain.User, l *domain.SubscriptionList) error
	IsMember(ctx context.Context, actor *domain.User, orgID string) (bool, error)
	OrganizationIDs(ctx context.Context, userID string) ([]string, error)
}

// Copier re-admits subscribers from one list into another.
type Copier interface {
	Copy(ctx context.Context, source, target *domain.SubscriptionList, actorID string) (*admission.ImportSummary, error)
}

// Service implements list business logic.
type Service struct {
	repo               Repository
	access             Access
	copier             Copier
	blacklistOnFailure bool
}

// NewService creates a list service. blacklistOnFailure is the default for
// lists created without an explicit policy.
func NewService(repo Repository, access Access, copier Copier, blacklistOnFailure bool) *Service {
	return &Service{repo: repo, access: access, copier: copier, blacklistOnFailure: blacklistOnFailure}
}

// DefaultPolicy is applied to lists created without a policy.
func (s *Service) DefaultPolicy() domain.Policy {
	return domain.Policy{BlacklistOnFailure: s.blacklistOnFailure}
}

// CreateInput describes a new list.
type CreateInput struct {
	Name           string
	Description    string
	OrganizationID *string
	Policy         *domain.Policy
}

// Create makes actor the owner of a new list.
func (s *Service) Create(ctx context.Context, actor *domain.User, in CreateInput) (*domain.SubscriptionList, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if in.OrganizationID != nil {
		ok, err := s.access.IsMember(ctx, actor, *in.OrganizationID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrForbidden
		}
	}
	pol := s.DefaultPolicy()
	if in.Policy != nil {
		pol = *in.Policy
	}
	now := time.Now().UTC()
	l := &domain.SubscriptionList{
		ID:             uuid.New().String(),
		UserID:         actor.ID,
		OrganizationID: in.OrganizationID,
		Name:           name,
		Description:    strings.TrimSpace(in.Description),
		Policy:         pol,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, l); err != nil {
		return nil, fmt.Errorf("create list: %w", err)
	}
	logger.Info("list created", "list_id", l.ID, "user_id", actor.ID)
	return l, nil
}

// Get returns a list the actor may access.
func (s *Service) Get(ctx context.Context, actor *domain.User, id string) (*domain.SubscriptionList, error) {
	l, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.access.CanAccessList(ctx, actor, l); err != nil {
		return nil, err
	}
	return l, nil
}

// List returns the actor's own lists and their organizations' lists.
func (s *Service) List(ctx context.Context, actor *domain.User) ([]domain.ListSummary, error) {
	orgs, err := s.access.OrganizationIDs(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListForOwner(ctx, actor.ID, orgs)
}

// IDs returns the ids of every list the actor can see.
func (s *Service) IDs(ctx context.Context, actor *domain.User) ([]string, error) {
	lists, err := s.List(ctx, actor)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(lists))
	for i, l := range lists {
		ids[i] = l.ID
	}
	return ids, nil
}

// UpdateInput carries optional list edits. Nil fields are left unchanged.
type UpdateInput struct {
	Name        *string
	Description *string
	Policy      *domain.Policy
}

// Update edits a list's name, description or policy. Policy changes apply
// to future admissions only.
func (s *Service) Update(ctx context.Context, actor *domain.User, id string, in UpdateInput) (*domain.SubscriptionList, error) {
	l, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		l.Name = name
	}
	if in.Description != nil {
		l.Description = strings.TrimSpace(*in.Description)
	}
	if in.Policy != nil {
		l.Policy = *in.Policy
	}
	l.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, l); err != nil {
		return nil, fmt.Errorf("update list: %w", err)
	}
	return l, nil
}

// Delete removes a list and everything scoped to it.
func (s *Service) Delete(ctx context.Context, actor *domain.User, id string) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	logger.Info("list deleted", "list_id", id, "user_id", actor.ID)
	return nil
}

// DuplicateInput describes the copy. A nil Policy keeps the source policy.
type DuplicateInput struct {
	Name   string
	Policy *domain.Policy
}

// Duplicate creates a new list and copies the source's subscribers into it
// through the admission pipeline, so the new policy applies to each one.
func (s *Service) Duplicate(ctx context.Context, actor *domain.User, id string, in DuplicateInput) (*domain.SubscriptionList, *admission.ImportSummary, error) {
	src, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, nil, err
	}
	pol := src.Policy
	if in.Policy != nil {
		pol = *in.Policy
	}
	name := in.Name
	if strings.TrimSpace(name) == "" {
		name = src.Name + " (copy)"
	}
	dst, err := s.Create(ctx, actor, CreateInput{
		Name:           name,
		Description:    src.Description,
		OrganizationID: src.OrganizationID,
		Policy:         &pol,
	})
	if err != nil {
		return nil, nil, err
	}
	sum, err := s.copier.Copy(ctx, src, dst, actor.ID)
	if err != nil {
		return dst, nil, fmt.Errorf("copy subscribers: %w", err)
	}
	return dst, sum, nil
}
