package analytics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/listguard/internal/domain"
)

type mockRepo struct {
	mu     sync.Mutex
	rows   map[string]int // "listID|2006-01-02"
	status map[domain.SubscriberStatus]int
	unsubs int
}

func newMockRepo() *mockRepo {
	return &mockRepo{rows: map[string]int{}, status: map[domain.SubscriberStatus]int{}}
}

func (m *mockRepo) Increment(_ context.Context, listID string, day time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[listID+"|"+day.Format("2006-01-02")]++
	return nil
}

func (m *mockRepo) Daily(_ context.Context, listIDs []string, from, to time.Time) ([]domain.SubscriptionAnalytics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.SubscriptionAnalytics
	for _, id := range listIDs {
		for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
			if n, ok := m.rows[id+"|"+d.Format("2006-01-02")]; ok {
				out = append(out, domain.SubscriptionAnalytics{ListID: id, RecordedDate: d, NewSubscribers: n})
			}
		}
	}
	return out, nil
}

func (m *mockRepo) StatusCounts(context.Context, []string) (map[domain.SubscriberStatus]int, error) {
	return m.status, nil
}

func (m *mockRepo) UnsubscribesSince(context.Context, []string, time.Time) (int, error) {
	return m.unsubs, nil
}

type fixedBlacklist int

func (f fixedBlacklist) Count(context.Context, []string) (int, error) { return int(f), nil }

func TestRecordNewSubscriber_UpsertsPerDay(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()
	morning := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	require.NoError(t, svc.RecordNewSubscriber(ctx, "l1", morning))
	require.NoError(t, svc.RecordNewSubscriber(ctx, "l1", morning.Add(10*time.Hour)))
	require.NoError(t, svc.RecordNewSubscriber(ctx, "l1", morning.Add(24*time.Hour)))

	assert.Equal(t, 2, repo.rows["l1|2024-06-01"])
	assert.Equal(t, 1, repo.rows["l1|2024-06-02"])
}

func TestListStats_FillsGaps(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()
	day := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	require.NoError(t, svc.RecordNewSubscriber(ctx, "l1", day))

	// reversed bounds are swapped
	got, err := svc.ListStats(ctx, "l1", day.AddDate(0, 0, 1), day.AddDate(0, 0, -1))
	require.NoError(t, err)
	assert.Equal(t, []DailyCount{
		{Date: "2024-06-02", Count: 0},
		{Date: "2024-06-03", Count: 1},
		{Date: "2024-06-04", Count: 0},
	}, got)
}

func TestDashboard(t *testing.T) {
	repo := newMockRepo()
	repo.status[domain.SubscriberActive] = 5
	repo.status[domain.SubscriberInactive] = 2
	repo.unsubs = 3
	svc := NewService(repo, fixedBlacklist(4))
	now := time.Date(2024, 6, 30, 15, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	require.NoError(t, svc.RecordNewSubscriber(context.Background(), "l1", now))
	require.NoError(t, svc.RecordNewSubscriber(context.Background(), "l2", now))

	d, err := svc.Dashboard(context.Background(), []string{"l1", "l2"})
	require.NoError(t, err)
	assert.Equal(t, 2, d.Lists)
	assert.Equal(t, 7, d.Subscribers)
	assert.Equal(t, 0, d.ByStatus["blacklisted"])
	assert.Equal(t, 4, d.Blacklisted)
	assert.Equal(t, 3, d.Unsubscribes30d)
	assert.Equal(t, 2, d.NewSubscribers30)
	assert.Len(t, d.NewSubscribers, 30)
	assert.Equal(t, DailyCount{Date: "2024-06-30", Count: 2}, d.NewSubscribers[29])
}

func TestDashboard_NoLists(t *testing.T) {
	svc := NewService(newMockRepo(), fixedBlacklist(9))
	d, err := svc.Dashboard(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, d.Lists)
	assert.Equal(t, 0, d.Blacklisted)
	assert.Empty(t, d.NewSubscribers)
}
