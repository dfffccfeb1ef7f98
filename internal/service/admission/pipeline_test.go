package admission_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/listguard/internal/domain"
	"github.com/ignite/listguard/internal/emailcheck"
	"github.com/ignite/listguard/internal/pkg/distlock"
	"github.com/ignite/listguard/internal/repository/memory"
	"github.com/ignite/listguard/internal/service/admission"
	"github.com/ignite/listguard/internal/service/analytics"
	"github.com/ignite/listguard/internal/service/blacklist"
	"github.com/ignite/listguard/internal/service/subscriber"
)

// fakeDNS answers from static sets; anything unknown does not resolve.
type fakeDNS struct {
	mu       sync.Mutex
	existing map[string]bool
	mail     map[string]bool
	calls    int
}

func newFakeDNS() *fakeDNS {
	return &fakeDNS{
		existing: map[string]bool{"acme.io": true, "gmail.com": true, "mailinator.com": true, "a-only.io": true},
		mail:     map[string]bool{"acme.io": true, "gmail.com": true, "mailinator.com": true, "a-only.io": true},
	}
}

func (f *fakeDNS) DomainExists(_ context.Context, d string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.existing[d]
}

func (f *fakeDNS) HasMailRecords(_ context.Context, d string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.mail[d]
}

type recordingNotifier struct {
	sent []string
	err  error
}

func (n *recordingNotifier) SendVerification(_ context.Context, _ *domain.SubscriptionList, s *domain.Subscriber) error {
	n.sent = append(n.sent, s.Email)
	return n.err
}

type harness struct {
	store     *memory.Store
	blacklist *blacklist.Service
	subs      *subscriber.Service
	dns       *fakeDNS
	notifier  *recordingNotifier
	metrics   *admission.Metrics
	pipeline  *admission.Pipeline
}

func newHarness(t *testing.T, opts ...admission.Option) *harness {
	t.Helper()
	st := memory.New()
	h := &harness{
		store:     st,
		blacklist: blacklist.NewService(st.Blacklist()),
		dns:       newFakeDNS(),
		notifier:  &recordingNotifier{},
		metrics:   admission.NewMetrics(prometheus.NewRegistry()),
	}
	h.subs = subscriber.NewService(st.Subscribers(), h.blacklist, subscriber.NewLinks("https://x.test", "k"))
	base := []admission.Option{
		admission.WithRecorder(analytics.NewService(st.Analytics(), h.blacklist)),
		admission.WithNotifier(h.notifier),
		admission.WithMetrics(h.metrics),
	}
	h.pipeline = admission.NewPipeline(admission.Deps{
		Blacklist:   h.blacklist,
		Subscribers: h.subs,
		Classifier:  emailcheck.DefaultClassifier(),
		DNS:         h.dns,
	}, append(base, opts...)...)
	return h
}

func newList(id string, p domain.Policy) *domain.SubscriptionList {
	return &domain.SubscriptionList{ID: id, UserID: "owner", Name: id, Policy: p}
}

func (h *harness) count(t *testing.T, listID string) int {
	t.Helper()
	_, total, err := h.subs.List(context.Background(), listID, subscriber.ListFilter{})
	require.NoError(t, err)
	return total
}

func TestAdmit_AllFlagsOffAcceptsValidEmail(t *testing.T) {
	h := newHarness(t)
	l := newList("l1", domain.Policy{})

	for _, email := range []string{"ann@gmail.com", "bob@mailinator.com", "carl@nowhere.invalid"} {
		r, err := h.pipeline.Admit(context.Background(), l, admission.Candidate{Email: email}, "owner")
		require.NoError(t, err)
		assert.Equal(t, admission.Accepted, r.Kind, email)
		require.NotNil(t, r.Subscriber)
		assert.Equal(t, domain.SubscriberActive, r.Subscriber.Status)
		assert.Len(t, r.Subscriber.UnsubscribeToken, domain.TokenLength)
	}
	assert.Equal(t, 0, h.dns.calls, "no DNS without DNS flags")
}

func TestAdmit_NormalizesEmail(t *testing.T) {
	h := newHarness(t)
	r, err := h.pipeline.Admit(context.Background(), newList("l1", domain.Policy{}), admission.Candidate{Email: "  Ann@ACME.io ", Name: " Ann "}, "owner")
	require.NoError(t, err)
	assert.Equal(t, "ann@acme.io", r.Subscriber.Email)
	assert.Equal(t, "Ann", r.Subscriber.Name)
}

func TestAdmit_InvalidSyntaxRejectedWithoutBlacklisting(t *testing.T) {
	h := newHarness(t)
	l := newList("l1", domain.Policy{BlacklistOnFailure: true})

	r, err := h.pipeline.Admit(context.Background(), l, admission.Candidate{Email: "not-an-email"}, "owner")
	require.NoError(t, err)
	assert.Equal(t, admission.Rejected, r.Kind)
	assert.Equal(t, []string{admission.ReasonInvalidEmail}, r.Reasons)

	st, _ := h.blacklist.GetStats(context.Background(), []string{"l1"})
	assert.Equal(t, 0, st.Total)
}

func TestAdmit_BusinessOnlyRejectsFreeProvider(t *testing.T) {
	h := newHarness(t)
	for _, pol := range []domain.Policy{
		{AllowBusinessEmailOnly: true},
		{AllowBusinessEmailOnly: true, BlockTemporaryEmail: true, CheckDomainExistence: true, VerifyDNSRecords: true},
	} {
		r, err := h.pipeline.Admit(context.Background(), newList("l1", pol), admission.Candidate{Email: "user@gmail.com"}, "owner")
		require.NoError(t, err)
		assert.NotEqual(t, admission.Accepted, r.Kind)
		assert.Equal(t, []string{admission.ReasonBusinessOnly}, r.Reasons)
	}
}

func TestAdmit_TemporaryEmailRejectedAndBlacklisted(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	l := newList("l1", domain.Policy{BlockTemporaryEmail: true, BlacklistOnFailure: true})

	r, err := h.pipeline.Admit(ctx, l, admission.Candidate{Email: "x@mailinator.com"}, "owner")
	require.NoError(t, err)
	assert.Equal(t, admission.RejectedAndBlacklisted, r.Kind)
	assert.True(t, r.Blacklisted())
	assert.Equal(t, []string{admission.ReasonTemporary}, r.Reasons)

	entries, _, err := h.blacklist.List(ctx, blacklist.ListFilter{ListIDs: []string{"l1"}})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, admission.ReasonTemporary, entries[0].Reason)
	require.NotNil(t, entries[0].BlacklistedBy)
	assert.Equal(t, "owner", *entries[0].BlacklistedBy)

	// the entry now short-circuits further attempts
	r, err = h.pipeline.Admit(ctx, l, admission.Candidate{Email: "x@mailinator.com"}, "owner")
	require.NoError(t, err)
	assert.Equal(t, admission.Rejected, r.Kind)
	assert.Equal(t, []string{admission.ReasonBlacklisted}, r.Reasons)
}

func TestAdmit_FailureWithoutBlacklisting(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	l := newList("l1", domain.Policy{BlockTemporaryEmail: true, BlacklistOnFailure: false})

	r, err := h.pipeline.Admit(ctx, l, admission.Candidate{Email: "x@mailinator.com"}, "owner")
	require.NoError(t, err)
	assert.Equal(t, admission.Rejected, r.Kind)
	ok, _ := h.blacklist.IsBlacklisted(ctx, "x@mailinator.com", "l1")
	assert.False(t, ok)
}

func TestAdmit_ReasonsAreCollected(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	l := newList("l1", domain.Policy{
		BlockTemporaryEmail: true, CheckDomainExistence: true, VerifyDNSRecords: true, BlacklistOnFailure: true,
	})

	r, err := h.pipeline.Admit(ctx, l, admission.Candidate{Email: "x@sub.mailinator.com"}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{admission.ReasonTemporary, admission.ReasonNoDomain, admission.ReasonNoMailRecords}, r.Reasons)

	entries, _, _ := h.blacklist.List(ctx, blacklist.ListFilter{ListIDs: []string{"l1"}})
	require.Len(t, entries, 1)
	assert.Equal(t, strings.Join(r.Reasons, "; "), entries[0].Reason)
	assert.Nil(t, entries[0].BlacklistedBy)
}

func TestAdmit_DuplicateIsConflict(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	l := newList("l1", domain.Policy{})

	r, err := h.pipeline.Admit(ctx, l, admission.Candidate{Email: "dup@acme.io"}, "owner")
	require.NoError(t, err)
	assert.Equal(t, admission.Accepted, r.Kind)

	r, err = h.pipeline.Admit(ctx, l, admission.Candidate{Email: "DUP@acme.io"}, "owner")
	require.NoError(t, err)
	assert.Equal(t, admission.Conflict, r.Kind)
	assert.Equal(t, 1, h.count(t, "l1"))

	// another list is independent
	r, err = h.pipeline.Admit(ctx, newList("l2", domain.Policy{}), admission.Candidate{Email: "dup@acme.io"}, "owner")
	require.NoError(t, err)
	assert.Equal(t, admission.Accepted, r.Kind)
}

func TestAdmit_ConcurrentDuplicatesYieldOneRow(t *testing.T) {
	h := newHarness(t)
	l := newList("l1", domain.Policy{})

	var wg sync.WaitGroup
	var mu sync.Mutex
	kinds := map[admission.Kind]int{}
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := h.pipeline.Admit(context.Background(), l, admission.Candidate{Email: "race@acme.io"}, "owner")
			if err != nil {
				t.Error(err)
				return
			}
			mu.Lock()
			kinds[r.Kind]++
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, kinds[admission.Accepted])
	assert.Equal(t, 19, kinds[admission.Conflict])
	assert.Equal(t, 1, h.count(t, "l1"))
}

func TestAdmit_DNSRecords(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	l := newList("l1", domain.Policy{VerifyDNSRecords: true, BlacklistOnFailure: true})

	r, err := h.pipeline.Admit(ctx, l, admission.Candidate{Email: "ok@a-only.io"}, "owner")
	require.NoError(t, err)
	assert.Equal(t, admission.Accepted, r.Kind)

	r, err = h.pipeline.Admit(ctx, l, admission.Candidate{Email: "no@bare.io"}, "owner")
	require.NoError(t, err)
	assert.Equal(t, admission.RejectedAndBlacklisted, r.Kind)
	assert.Equal(t, []string{admission.ReasonNoMailRecords}, r.Reasons)
}

func TestAdmit_DomainExistence(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	l := newList("l1", domain.Policy{CheckDomainExistence: true, BlacklistOnFailure: true})

	r, err := h.pipeline.Admit(ctx, l, admission.Candidate{Email: "new@doesnotexist.invalid"}, "owner")
	require.NoError(t, err)
	assert.Equal(t, admission.RejectedAndBlacklisted, r.Kind)
	assert.Equal(t, []string{admission.ReasonNoDomain}, r.Reasons)

	entries, _, _ := h.blacklist.List(ctx, blacklist.ListFilter{ListIDs: []string{"l1"}})
	require.Len(t, entries, 1)
	assert.Equal(t, "new@doesnotexist.invalid", entries[0].Email)
	assert.Equal(t, admission.ReasonNoDomain, entries[0].Reason)
	require.NotNil(t, entries[0].SubscriptionListID)
	assert.Equal(t, "l1", *entries[0].SubscriptionListID)
}

func TestAdmit_GlobalBlacklistAppliesToEveryList(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.blacklist.Add(ctx, blacklist.AddInput{Email: "spam@acme.io"})
	require.NoError(t, err)

	for _, id := range []string{"l1", "l2"} {
		r, err := h.pipeline.Admit(ctx, newList(id, domain.Policy{}), admission.Candidate{Email: "spam@acme.io"}, "owner")
		require.NoError(t, err)
		assert.Equal(t, admission.Rejected, r.Kind)
		assert.Equal(t, []string{admission.ReasonBlacklisted}, r.Reasons)
	}
	st, _ := h.blacklist.GetStats(ctx, []string{"l1", "l2"})
	assert.Equal(t, 1, st.Total, "blacklisted rejections add no entries")
}

func TestAdmit_RequireVerification(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	l := newList("l1", domain.Policy{RequireEmailVerification: true})

	r, err := h.pipeline.Admit(ctx, l, admission.Candidate{Email: "new@acme.io"}, "owner")
	require.NoError(t, err)
	require.Equal(t, admission.Accepted, r.Kind)
	assert.Equal(t, domain.SubscriberInactive, r.Subscriber.Status)
	require.NotNil(t, r.Subscriber.VerificationToken)
	assert.Equal(t, []string{"new@acme.io"}, h.notifier.sent)

	h.notifier.err = errors.New("ses down")
	r, err = h.pipeline.Admit(ctx, l, admission.Candidate{Email: "other@acme.io"}, "owner")
	require.NoError(t, err, "mail failure is not fatal")
	assert.Equal(t, admission.Accepted, r.Kind)
}

func TestAdmit_IncrementsAnalytics(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	l := newList("l1", domain.Policy{})
	for _, e := range []string{"a@acme.io", "b@acme.io", "a@acme.io"} {
		_, err := h.pipeline.Admit(ctx, l, admission.Candidate{Email: e}, "owner")
		require.NoError(t, err)
	}
	now := time.Now()
	rows, err := h.store.Analytics().Daily(ctx, []string{"l1"}, now.AddDate(0, 0, -1), now.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].NewSubscribers)
}

func TestAdmit_Metrics(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	l := newList("l1", domain.Policy{AllowBusinessEmailOnly: true})
	h.pipeline.Admit(ctx, l, admission.Candidate{Email: "a@acme.io"}, "owner")
	h.pipeline.Admit(ctx, l, admission.Candidate{Email: "a@gmail.com"}, "owner")

	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Outcomes.WithLabelValues("accepted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Outcomes.WithLabelValues("rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Reasons.WithLabelValues(admission.ReasonBusinessOnly)))
}

func TestImport_GlobalBlacklistedRowFails(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.blacklist.Add(ctx, blacklist.AddInput{Email: "two@acme.io", Reason: "abuse"})
	require.NoError(t, err)

	rows := []admission.Candidate{{Email: "one@acme.io"}, {Email: "two@acme.io"}, {Email: "three@acme.io"}}
	sum, err := h.pipeline.Import(ctx, newList("l1", domain.Policy{}), rows, "owner")
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Imported)
	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, 0, sum.Skipped)
	assert.Equal(t, []admission.RowError{{Email: "two@acme.io", Reason: "blacklisted"}}, sum.Errors)
}

func TestImport_CountsSkippedAndFailed(t *testing.T) {
	h := newHarness(t)
	rows := []admission.Candidate{
		{Email: "a@acme.io"},
		{Email: "a@acme.io"},
		{Email: "broken"},
		{Email: "b@gmail.com"},
	}
	sum, err := h.pipeline.Import(context.Background(), newList("l1", domain.Policy{AllowBusinessEmailOnly: true}), rows, "owner")
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Imported)
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, 2, sum.Failed)
	assert.Equal(t, admission.ReasonInvalidEmail, sum.Errors[0].Reason)
	assert.Equal(t, admission.ReasonBusinessOnly, sum.Errors[1].Reason)
}

func TestImport_LockedListReturnsInProgress(t *testing.T) {
	locks := distlock.NewLocalLocker()
	h := newHarness(t, admission.WithLocker(locks))
	ctx := context.Background()

	held := locks.New("import:list:l1")
	ok, err := held.TryAcquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = h.pipeline.Import(ctx, newList("l1", domain.Policy{}), []admission.Candidate{{Email: "a@acme.io"}}, "owner")
	assert.ErrorIs(t, err, admission.ErrImportInProgress)
	assert.Equal(t, 0, h.count(t, "l1"))

	// other lists are unaffected
	sum, err := h.pipeline.Import(ctx, newList("l2", domain.Policy{}), []admission.Candidate{{Email: "a@acme.io"}}, "owner")
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Imported)

	require.NoError(t, held.Release(ctx))
	_, err = h.pipeline.Import(ctx, newList("l1", domain.Policy{}), []admission.Candidate{{Email: "a@acme.io"}}, "owner")
	assert.NoError(t, err)
}

func TestCopy_SkipsUnsubscribedAndBlacklistedRows(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	src := newList("src", domain.Policy{})
	ids := map[string]string{}
	for _, e := range []string{"keep@acme.io", "gone@acme.io", "banned@acme.io"} {
		r, err := h.pipeline.Admit(ctx, src, admission.Candidate{Email: e}, "owner")
		require.NoError(t, err)
		ids[e] = r.Subscriber.ID
	}
	gone, err := h.store.Subscribers().Get(ctx, ids["gone@acme.io"])
	require.NoError(t, err)
	_, err = h.subs.Unsubscribe(ctx, gone.UnsubscribeToken, "no longer interested")
	require.NoError(t, err)
	_, err = h.subs.UpdateStatus(ctx, ids["banned@acme.io"], domain.SubscriberBlacklisted, "owner")
	require.NoError(t, err)

	dst := newList("dst", domain.Policy{})
	sum, err := h.pipeline.Copy(ctx, src, dst, "owner")
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Imported)
	assert.Equal(t, 2, sum.Skipped)
	assert.Equal(t, 0, sum.Failed)

	copied, _, _ := h.subs.List(ctx, "dst", subscriber.ListFilter{})
	require.Len(t, copied, 1)
	assert.Equal(t, "keep@acme.io", copied[0].Email)
}

func TestCopy_ReappliesTargetPolicy(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	src := newList("src", domain.Policy{})
	for _, e := range []string{"a@acme.io", "b@gmail.com", "c@mailinator.com"} {
		_, err := h.pipeline.Admit(ctx, src, admission.Candidate{Email: e, Metadata: map[string]any{"k": "v"}}, "owner")
		require.NoError(t, err)
	}

	dst := newList("dst", domain.Policy{AllowBusinessEmailOnly: true, BlockTemporaryEmail: true})
	sum, err := h.pipeline.Copy(ctx, src, dst, "owner")
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Imported)
	assert.Equal(t, 2, sum.Failed)

	copied, _, _ := h.subs.List(ctx, "dst", subscriber.ListFilter{})
	require.Len(t, copied, 1)
	assert.Equal(t, "a@acme.io", copied[0].Email)
	assert.Equal(t, "v", copied[0].Metadata["k"])
	assert.Equal(t, 3, h.count(t, "src"), "source list is untouched")
}
