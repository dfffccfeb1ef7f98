package memory

import (
	"context"
	"time"

	"github.com/ignite/listguard/internal/domain"
)

// AnalyticsRepo implements analytics.Repository.
type AnalyticsRepo struct{ s *Store }

func (r *AnalyticsRepo) Increment(_ context.Context, listID string, day time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	days, ok := r.s.analytics[listID]
	if !ok {
		days = map[string]int{}
		r.s.analytics[listID] = days
	}
	days[dateKey(day)]++
	return nil
}

func (r *AnalyticsRepo) Daily(_ context.Context, listIDs []string, from, to time.Time) ([]domain.SubscriptionAnalytics, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.SubscriptionAnalytics
	lo, hi := dateKey(from), dateKey(to)
	for _, id := range listIDs {
		for day, n := range r.s.analytics[id] {
			if day < lo || day > hi {
				continue
			}
			d, _ := time.Parse("2006-01-02", day)
			out = append(out, domain.SubscriptionAnalytics{ListID: id, RecordedDate: d, NewSubscribers: n})
		}
	}
	return out, nil
}

func (r *AnalyticsRepo) StatusCounts(_ context.Context, listIDs []string) (map[domain.SubscriberStatus]int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := map[domain.SubscriberStatus]int{}
	for _, sub := range r.s.subscribers {
		if contains(listIDs, sub.ListID) {
			out[sub.Status]++
		}
	}
	return out, nil
}

func (r *AnalyticsRepo) UnsubscribesSince(_ context.Context, listIDs []string, since time.Time) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, l := range r.s.unsubLogs {
		if contains(listIDs, l.ListID) && !l.UnsubscribedAt.Before(since) {
			n++
		}
	}
	return n, nil
}
