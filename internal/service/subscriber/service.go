package subscriber

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/listguard/internal/domain"
	"github.com/ignite/listguard/internal/export"
	"github.com/ignite/listguard/internal/pkg/logger"
	"github.com/ignite/listguard/internal/service/blacklist"
)

// DefaultUnsubscribeReason is recorded when the unsubscribe link is followed
// without a reason.
const DefaultUnsubscribeReason = "No longer interested"

// OwnerBlacklistReason is the reason stored when an owner blacklists a
// subscriber through a status update.
const OwnerBlacklistReason = "blacklisted by owner"

// Blacklister records blacklist entries on behalf of the lifecycle manager.
type Blacklister interface {
	Add(ctx context.Context, in blacklist.AddInput) (*domain.EmailBlacklist, error)
}

// Service implements the subscriber lifecycle. It is safe for concurrent use.
type Service struct {
	repo      Repository
	blacklist Blacklister
	links     *Links
	now       func() time.Time
}

// NewService creates a subscriber service.
func NewService(repo Repository, bl Blacklister, links *Links) *Service {
	return &Service{repo: repo, blacklist: bl, links: links, now: time.Now}
}

// Links exposes the URL builder used for unsubscribe and verify links.
func (s *Service) Links() *Links { return s.links }

// Create persists a subscriber built by domain.NewSubscriber. Only the
// admission pipeline calls this.
func (s *Service) Create(ctx context.Context, sub *domain.Subscriber) error {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	return s.repo.Create(ctx, sub)
}

// Exists reports whether email is already subscribed to listID.
func (s *Service) Exists(ctx context.Context, listID, email string) (bool, error) {
	return s.repo.ExistsByEmail(ctx, listID, email)
}

// ForEach streams every subscriber of a list.
func (s *Service) ForEach(ctx context.Context, listID string, fn func(domain.Subscriber) error) error {
	return s.repo.ForEach(ctx, listID, fn)
}

// Get returns a subscriber with its tags.
func (s *Service) Get(ctx context.Context, id string) (*domain.Subscriber, error) {
	return s.repo.Get(ctx, id)
}

// List returns a page of subscribers for a list.
func (s *Service) List(ctx context.Context, listID string, f ListFilter) ([]domain.Subscriber, int, error) {
	if f.Status != "" && !domain.SubscriberStatus(f.Status).Valid() {
		return nil, 0, ErrInvalidStatus
	}
	f.Search = strings.ToLower(strings.TrimSpace(f.Search))
	f.Tag = strings.TrimSpace(f.Tag)
	return s.repo.List(ctx, listID, f)
}

// UpdateStatus applies an owner-initiated status change. Moving a
// subscriber to blacklisted also writes a list-scoped blacklist entry.
func (s *Service) UpdateStatus(ctx context.Context, id string, status domain.SubscriberStatus, actorID string) (*domain.Subscriber, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	sub, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if status == domain.SubscriberBlacklisted {
		listID := sub.ListID
		in := blacklist.AddInput{Email: sub.Email, Reason: OwnerBlacklistReason, ListID: &listID}
		if actorID != "" {
			in.ActorID = &actorID
		}
		if _, err := s.blacklist.Add(ctx, in); err != nil {
			return nil, fmt.Errorf("blacklist subscriber: %w", err)
		}
	}
	if sub.Status == status {
		return sub, nil
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	sub.Status = status
	sub.UpdatedAt = s.now().UTC()
	logger.Info("subscriber status updated", "subscriber_id", id, "list_id", sub.ListID, "status", string(status))
	return sub, nil
}

// Delete hard-deletes a subscriber.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// BulkDelete hard-deletes the given subscribers and returns how many were removed.
func (s *Service) BulkDelete(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return s.repo.BulkDelete(ctx, ids)
}

// AddTags attaches tags to a subscriber. Tags are trimmed, empty ones are
// dropped and duplicates are ignored (case-sensitive).
func (s *Service) AddTags(ctx context.Context, id string, tags []string) ([]string, error) {
	seen := make(map[string]bool, len(tags))
	clean := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		clean = append(clean, t)
	}
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.AddTags(ctx, id, clean)
}

// RemoveTag detaches a tag by exact match.
func (s *Service) RemoveTag(ctx context.Context, id, tag string) error {
	return s.repo.RemoveTag(ctx, id, tag)
}

// UnsubscribeResult is returned by Unsubscribe.
type UnsubscribeResult struct {
	Subscriber          *domain.Subscriber `json:"-"`
	ListID              string             `json:"list_id"`
	Status              string             `json:"status"`
	AlreadyUnsubscribed bool               `json:"already_unsubscribed"`
}

// Unsubscribe resolves an unsubscribe token. An active subscriber becomes
// inactive and exactly one log row is written. Following the link again is
// a no-op.
func (s *Service) Unsubscribe(ctx context.Context, token, reason string) (*UnsubscribeResult, error) {
	sub, err := s.repo.GetByUnsubscribeToken(ctx, token)
	if err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultUnsubscribeReason
	}

	res := &UnsubscribeResult{Subscriber: sub, ListID: sub.ListID}
	if sub.Status != domain.SubscriberActive {
		res.Status = string(sub.Status)
		res.AlreadyUnsubscribed = true
		return res, nil
	}

	changed, err := s.repo.Unsubscribe(ctx, sub.ID, &domain.UnsubscribeLog{
		ID:             uuid.New().String(),
		ListID:         sub.ListID,
		SubscriberID:   sub.ID,
		UnsubscribedAt: s.now().UTC(),
		Reason:         reason,
	})
	if err != nil {
		return nil, fmt.Errorf("unsubscribe: %w", err)
	}
	res.AlreadyUnsubscribed = !changed
	sub.Status = domain.SubscriberInactive
	res.Status = string(domain.SubscriberInactive)
	if changed {
		logger.Info("subscriber unsubscribed", "subscriber_id", sub.ID, "list_id", sub.ListID, "reason", reason)
	}
	return res, nil
}

// Verify confirms a subscriber's address from a signed verification link.
func (s *Service) Verify(ctx context.Context, token, signature string) (*domain.Subscriber, error) {
	if s.links == nil || !s.links.Valid(token, signature) {
		return nil, ErrInvalidSignature
	}
	sub, err := s.repo.GetByVerificationToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if sub.Status != domain.SubscriberInactive {
		return nil, ErrNotPending
	}
	now := s.now().UTC()
	if err := s.repo.MarkVerified(ctx, sub.ID, now); err != nil {
		return nil, err
	}
	sub.VerificationToken = nil
	sub.VerifiedAt = &now
	sub.Status = domain.SubscriberActive
	logger.Info("subscriber verified", "subscriber_id", sub.ID, "list_id", sub.ListID)
	return sub, nil
}

// Export streams every subscriber of a list to w in the given format and
// returns the row count. Returns ErrNothingToExport for an empty list, in
// which case nothing has been written.
func (s *Service) Export(ctx context.Context, listID string, format export.Format, w io.Writer) (int, error) {
	if !format.Valid() {
		return 0, ErrInvalidFormat
	}
	var rw export.RowWriter
	n := 0
	err := s.repo.ForEach(ctx, listID, func(sub domain.Subscriber) error {
		if rw == nil {
			var err error
			if rw, err = export.NewRowWriter(format, w); err != nil {
				return err
			}
		}
		n++
		return rw.Write(sub)
	})
	if err != nil {
		return n, fmt.Errorf("export list %s: %w", listID, err)
	}
	if rw == nil {
		return 0, ErrNothingToExport
	}
	if err := rw.Close(); err != nil {
		return n, fmt.Errorf("export list %s: %w", listID, err)
	}
	return n, nil
}
