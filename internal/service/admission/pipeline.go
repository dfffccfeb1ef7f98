package admission

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ignite/listguard/internal/domain"
	"github.com/ignite/listguard/internal/emailcheck"
	"github.com/ignite/listguard/internal/pkg/distlock"
	"github.com/ignite/listguard/internal/pkg/logger"
	"github.com/ignite/listguard/internal/service/blacklist"
	"github.com/ignite/listguard/internal/service/subscriber"
)

// Blacklist is the deny-list consulted and written by the pipeline.
type Blacklist interface {
	IsBlacklisted(ctx context.Context, email, listID string) (bool, error)
	Add(ctx context.Context, in blacklist.AddInput) (*domain.EmailBlacklist, error)
}

// Subscribers is the subscriber store the pipeline writes to.
type Subscribers interface {
	Exists(ctx context.Context, listID, email string) (bool, error)
	Create(ctx context.Context, s *domain.Subscriber) error
	ForEach(ctx context.Context, listID string, fn func(domain.Subscriber) error) error
}

// Classifier labels email domains.
type Classifier interface {
	IsFreeProvider(domain string) bool
	IsDisposable(domain string) bool
}

// DomainChecker answers DNS questions about email domains. Lookup failures
// are reported as false.
type DomainChecker interface {
	DomainExists(ctx context.Context, domain string) bool
	HasMailRecords(ctx context.Context, domain string) bool
}

// Recorder counts accepted subscribers per day.
type Recorder interface {
	RecordNewSubscriber(ctx context.Context, listID string, at time.Time) error
}

// Notifier sends the confirmation mail to unverified subscribers.
type Notifier interface {
	SendVerification(ctx context.Context, list *domain.SubscriptionList, s *domain.Subscriber) error
}

// Deps are the collaborators every Pipeline needs.
type Deps struct {
	Blacklist   Blacklist
	Subscribers Subscribers
	Classifier  Classifier
	DNS         DomainChecker
}

// Option configures optional collaborators.
type Option func(*Pipeline)

// WithRecorder increments daily analytics for accepted subscribers.
func WithRecorder(r Recorder) Option { return func(p *Pipeline) { p.recorder = r } }

// WithNotifier sends verification mail for lists that require it.
func WithNotifier(n Notifier) Option { return func(p *Pipeline) { p.notifier = n } }

// WithLocker serializes bulk operations per target list.
func WithLocker(l distlock.Locker) Option { return func(p *Pipeline) { p.locks = l } }

// WithMetrics records outcome counters.
func WithMetrics(m *Metrics) Option { return func(p *Pipeline) { p.metrics = m } }

// Pipeline runs admissions. It is safe for concurrent use.
type Pipeline struct {
	blacklist   Blacklist
	subscribers Subscribers
	classifier  Classifier
	dns         DomainChecker
	recorder    Recorder
	notifier    Notifier
	locks       distlock.Locker
	metrics     *Metrics
	now         func() time.Time
}

// NewPipeline creates a pipeline.
func NewPipeline(d Deps, opts ...Option) *Pipeline {
	p := &Pipeline{
		blacklist:   d.Blacklist,
		subscribers: d.Subscribers,
		classifier:  d.Classifier,
		dns:         d.DNS,
		locks:       distlock.NewLocalLocker(),
		now:         time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Admit evaluates one candidate against list. Policy failures are reported
// in the Result; the error is reserved for storage failures.
func (p *Pipeline) Admit(ctx context.Context, list *domain.SubscriptionList, c Candidate, actorID string) (Result, error) {
	start := p.now()
	r, err := p.admit(ctx, list, c, actorID)
	if err == nil {
		p.metrics.ObserveResult(r, p.now().Sub(start))
	}
	return r, err
}

func (p *Pipeline) admit(ctx context.Context, list *domain.SubscriptionList, c Candidate, actorID string) (Result, error) {
	addr, err := emailcheck.Parse(c.Email)
	if err != nil {
		return Result{Kind: Rejected, Email: emailcheck.Normalize(c.Email), Reasons: []string{ReasonInvalidEmail}}, nil
	}
	res := Result{Email: addr.Email}

	listed, err := p.blacklist.IsBlacklisted(ctx, addr.Email, list.ID)
	if err != nil {
		return res, fmt.Errorf("blacklist lookup: %w", err)
	}
	if listed {
		res.Kind = Rejected
		res.Reasons = []string{ReasonBlacklisted}
		return res, nil
	}

	exists, err := p.subscribers.Exists(ctx, list.ID, addr.Email)
	if err != nil {
		return res, fmt.Errorf("duplicate lookup: %w", err)
	}
	if exists {
		res.Kind = Conflict
		return res, nil
	}

	if reasons := p.evaluate(ctx, list.Policy, addr.Domain); len(reasons) > 0 {
		res.Kind = Rejected
		res.Reasons = reasons
		if list.Policy.BlacklistOnFailure {
			if err := p.punish(ctx, list, addr.Email, res.Reason(), actorID); err != nil {
				return res, err
			}
			res.Kind = RejectedAndBlacklisted
		}
		return res, nil
	}

	sub, err := domain.NewSubscriber(list.ID, addr.Email, strings.TrimSpace(c.Name), c.Metadata, list.Policy.RequireEmailVerification)
	if err != nil {
		return res, err
	}
	if err := p.subscribers.Create(ctx, sub); err != nil {
		if errors.Is(err, subscriber.ErrDuplicate) {
			res.Kind = Conflict
			return res, nil
		}
		return res, fmt.Errorf("create subscriber: %w", err)
	}
	res.Kind = Accepted
	res.Subscriber = sub

	if p.recorder != nil {
		if err := p.recorder.RecordNewSubscriber(ctx, list.ID, sub.CreatedAt); err != nil {
			logger.Warn("analytics increment failed", "list_id", list.ID, "error", err)
		}
	}
	if sub.VerificationToken != nil && p.notifier != nil {
		if err := p.notifier.SendVerification(ctx, list, sub); err != nil {
			logger.Warn("verification mail failed", "list_id", list.ID, "subscriber_id", sub.ID, "email", sub.Email, "error", err)
		}
	}
	return res, nil
}

// evaluate runs the policy checks and returns every failure.
func (p *Pipeline) evaluate(ctx context.Context, pol domain.Policy, dom string) []string {
	var reasons []string
	if pol.BlockTemporaryEmail && p.classifier.IsDisposable(dom) {
		reasons = append(reasons, ReasonTemporary)
	}
	if pol.AllowBusinessEmailOnly && p.classifier.IsFreeProvider(dom) {
		reasons = append(reasons, ReasonBusinessOnly)
	}
	if pol.CheckDomainExistence && !p.dns.DomainExists(ctx, dom) {
		reasons = append(reasons, ReasonNoDomain)
	}
	if pol.VerifyDNSRecords && !p.dns.HasMailRecords(ctx, dom) {
		reasons = append(reasons, ReasonNoMailRecords)
	}
	return reasons
}

func (p *Pipeline) punish(ctx context.Context, list *domain.SubscriptionList, email, reason, actorID string) error {
	listID := list.ID
	in := blacklist.AddInput{Email: email, Reason: reason, ListID: &listID}
	if actorID != "" {
		in.ActorID = &actorID
	}
	if _, err := p.blacklist.Add(ctx, in); err != nil {
		return fmt.Errorf("blacklist rejected email: %w", err)
	}
	logger.Info("rejected email blacklisted", "list_id", list.ID, "email", email, "reason", reason)
	return nil
}
