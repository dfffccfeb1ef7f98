package admission

import (
	"context"
	"errors"
	"fmt"

	"github.com/ignite/listguard/internal/domain"
	"github.com/ignite/listguard/internal/pkg/distlock"
	"github.com/ignite/listguard/internal/pkg/logger"
)

// reasonInternal is reported for rows that failed on a storage error.
const reasonInternal = "internal error"

func lockKey(listID string) string { return "import:list:" + listID }

func (p *Pipeline) withListLock(ctx context.Context, op, listID string, fn func(ctx context.Context) error) error {
	err := distlock.Run(ctx, p.locks.New(lockKey(listID)), fn)
	switch {
	case errors.Is(err, distlock.ErrNotAcquired):
		p.metrics.IncrementBulk(op, "locked")
		return ErrImportInProgress
	case err != nil:
		p.metrics.IncrementBulk(op, "error")
		return err
	}
	p.metrics.IncrementBulk(op, "done")
	return nil
}

// Import admits every row into list. A failing row never aborts the run.
func (p *Pipeline) Import(ctx context.Context, list *domain.SubscriptionList, rows []Candidate, actorID string) (*ImportSummary, error) {
	sum := &ImportSummary{Errors: []RowError{}}
	err := p.withListLock(ctx, "import", list.ID, func(ctx context.Context) error {
		return p.run(ctx, list, rows, actorID, sum)
	})
	if err != nil {
		return nil, err
	}
	logger.Info("import finished", "list_id", list.ID, "imported", sum.Imported, "failed", sum.Failed, "skipped", sum.Skipped)
	return sum, nil
}

// Copy re-admits the active subscribers of source into target under
// target's policy. Inactive and blacklisted rows are counted as skipped so
// that nobody who opted out is subscribed again.
func (p *Pipeline) Copy(ctx context.Context, source, target *domain.SubscriptionList, actorID string) (*ImportSummary, error) {
	sum := &ImportSummary{Errors: []RowError{}}
	var rows []Candidate
	err := p.subscribers.ForEach(ctx, source.ID, func(s domain.Subscriber) error {
		if s.Status != domain.SubscriberActive {
			sum.Skipped++
			return nil
		}
		rows = append(rows, Candidate{Email: s.Email, Name: s.Name, Metadata: s.Metadata})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read source list: %w", err)
	}

	err = p.withListLock(ctx, "copy", target.ID, func(ctx context.Context) error {
		return p.run(ctx, target, rows, actorID, sum)
	})
	if err != nil {
		return nil, err
	}
	logger.Info("list copied", "source_list_id", source.ID, "target_list_id", target.ID, "imported", sum.Imported, "failed", sum.Failed, "skipped", sum.Skipped)
	return sum, nil
}

func (p *Pipeline) run(ctx context.Context, list *domain.SubscriptionList, rows []Candidate, actorID string, sum *ImportSummary) error {
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		r, err := p.Admit(ctx, list, row, actorID)
		if err != nil {
			logger.Error("bulk row failed", "list_id", list.ID, "email", row.Email, "error", err)
			sum.Failed++
			sum.Errors = append(sum.Errors, RowError{Email: r.Email, Reason: reasonInternal})
			continue
		}
		sum.add(r)
	}
	return nil
}
