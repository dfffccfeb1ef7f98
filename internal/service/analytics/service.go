package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/ignite/listguard/internal/domain"
)

// DashboardWindow is how far back the dashboard looks.
const DashboardWindow = 30 * 24 * time.Hour

// BlacklistCounter supplies blacklist totals for the dashboard.
type BlacklistCounter interface {
	Count(ctx context.Context, listIDs []string) (int, error)
}

// Service implements analytics business logic.
type Service struct {
	repo      Repository
	blacklist BlacklistCounter
	now       func() time.Time
}

// NewService creates an analytics service.
func NewService(repo Repository, bl BlacklistCounter) *Service {
	return &Service{repo: repo, blacklist: bl, now: time.Now}
}

// Day truncates t to its UTC calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// RecordNewSubscriber increments today's counter for a list.
func (s *Service) RecordNewSubscriber(ctx context.Context, listID string, at time.Time) error {
	if err := s.repo.Increment(ctx, listID, Day(at)); err != nil {
		return fmt.Errorf("increment analytics for %s: %w", listID, err)
	}
	return nil
}

// DailyCount is one point of a time series.
type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Dashboard summarizes an actor's lists.
type Dashboard struct {
	Lists            int            `json:"lists"`
	Subscribers      int            `json:"subscribers"`
	ByStatus         map[string]int `json:"by_status"`
	Blacklisted      int            `json:"blacklist_entries"`
	Unsubscribes30d  int            `json:"unsubscribes_30d"`
	NewSubscribers   []DailyCount   `json:"new_subscribers"`
	NewSubscribers30 int            `json:"new_subscribers_30d"`
}

// Dashboard aggregates counts across listIDs.
func (s *Service) Dashboard(ctx context.Context, listIDs []string) (*Dashboard, error) {
	now := s.now()
	d := &Dashboard{
		Lists:          len(listIDs),
		ByStatus:       map[string]int{},
		NewSubscribers: []DailyCount{},
	}
	for _, st := range []domain.SubscriberStatus{domain.SubscriberActive, domain.SubscriberInactive, domain.SubscriberBlacklisted} {
		d.ByStatus[string(st)] = 0
	}
	if len(listIDs) == 0 {
		return d, nil
	}

	counts, err := s.repo.StatusCounts(ctx, listIDs)
	if err != nil {
		return nil, fmt.Errorf("status counts: %w", err)
	}
	for st, n := range counts {
		d.ByStatus[string(st)] = n
		d.Subscribers += n
	}

	if s.blacklist != nil {
		if d.Blacklisted, err = s.blacklist.Count(ctx, listIDs); err != nil {
			return nil, fmt.Errorf("blacklist count: %w", err)
		}
	}

	since := now.Add(-DashboardWindow)
	if d.Unsubscribes30d, err = s.repo.UnsubscribesSince(ctx, listIDs, since); err != nil {
		return nil, fmt.Errorf("unsubscribe count: %w", err)
	}

	series, err := s.series(ctx, listIDs, Day(since), Day(now))
	if err != nil {
		return nil, err
	}
	d.NewSubscribers = series
	for _, p := range series {
		d.NewSubscribers30 += p.Count
	}
	return d, nil
}

// ListStats returns the daily new-subscriber series of one list. Missing
// days are filled with zero.
func (s *Service) ListStats(ctx context.Context, listID string, from, to time.Time) ([]DailyCount, error) {
	if to.IsZero() {
		to = s.now()
	}
	if from.IsZero() {
		from = to.Add(-DashboardWindow)
	}
	from, to = Day(from), Day(to)
	if from.After(to) {
		from, to = to, from
	}
	return s.series(ctx, []string{listID}, from, to)
}

func (s *Service) series(ctx context.Context, listIDs []string, from, to time.Time) ([]DailyCount, error) {
	rows, err := s.repo.Daily(ctx, listIDs, from, to)
	if err != nil {
		return nil, fmt.Errorf("daily analytics: %w", err)
	}
	byDay := make(map[string]int, len(rows))
	for _, r := range rows {
		byDay[Day(r.RecordedDate).Format("2006-01-02")] += r.NewSubscribers
	}
	var out []DailyCount
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		out = append(out, DailyCount{Date: key, Count: byDay[key]})
	}
	return out, nil
}
