package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/listguard/internal/domain"
	"github.com/ignite/listguard/internal/service/account"
	"github.com/ignite/listguard/internal/service/blacklist"
	"github.com/ignite/listguard/internal/service/list"
	"github.com/ignite/listguard/internal/service/subscriber"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func q(s string) string { return regexp.QuoteMeta(s) }

// =============================================================================
// BLACKLIST
// =============================================================================

func TestBlacklistRepo_IsBlacklisted(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBlacklistRepo(db)

	mock.ExpectQuery(q("SELECT EXISTS(")).
		WithArgs("a@example.com", "list-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.IsBlacklisted(context.Background(), "a@example.com", "list-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBlacklistRepo_AddReturnsExisting(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBlacklistRepo(db)
	listID := "list-1"
	created := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(q("FROM email_blacklist WHERE email = $1 AND subscription_list_id = $2")).
		WithArgs("a@example.com", listID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "reason", "blacklisted_by", "subscription_list_id", "created_at"}).
			AddRow("bl-1", "a@example.com", "first", nil, listID, created))

	got, err := repo.Add(context.Background(), &domain.EmailBlacklist{
		Email: "a@example.com", Reason: "second", SubscriptionListID: &listID,
	})
	require.NoError(t, err)
	assert.Equal(t, "bl-1", got.ID)
	assert.Equal(t, "first", got.Reason)
	assert.Nil(t, got.BlacklistedBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBlacklistRepo_AddGlobalInserts(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBlacklistRepo(db)

	mock.ExpectQuery(q("subscription_list_id IS NULL")).
		WithArgs("a@example.com").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(q("INSERT INTO email_blacklist")).
		WithArgs(sqlmock.AnyArg(), "a@example.com", "spam", nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	got, err := repo.Add(context.Background(), &domain.EmailBlacklist{Email: "a@example.com", Reason: "spam"})
	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)
	assert.True(t, got.IsGlobal())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBlacklistRepo_RemoveNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBlacklistRepo(db)

	mock.ExpectExec(q("DELETE FROM email_blacklist")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Remove(context.Background(), "missing")
	assert.ErrorIs(t, err, blacklist.ErrNotFound)
}

func TestBlacklistRepo_ListAddsSearchClause(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBlacklistRepo(db)
	f := blacklist.ListFilter{ListIDs: []string{"l1"}, IncludeGlobal: true, Search: "Spam", Limit: 10}

	mock.ExpectQuery(q("SELECT COUNT(*) FROM email_blacklist WHERE") + ".*" + q("email LIKE $3")).
		WithArgs(pq.Array(f.ListIDs), true, "%spam%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(q("LIMIT $4 OFFSET $5")).
		WithArgs(pq.Array(f.ListIDs), true, "%spam%", 10, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "reason", "blacklisted_by", "subscription_list_id", "created_at"}).
			AddRow("bl-1", "spam@example.com", "", nil, nil, time.Now()))

	out, total, err := repo.List(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, out, 1)
	assert.True(t, out[0].IsGlobal())
	assert.NoError(t, mock.ExpectationsWereMet())
}

// =============================================================================
// SUBSCRIBERS
// =============================================================================

func subscriberRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "list_id", "name", "email", "status", "metadata",
		"unsubscribe_token", "verification_token", "verified_at", "tags", "created_at", "updated_at"})
}

func TestSubscriberRepo_CreateDuplicate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSubscriberRepo(db)

	mock.ExpectExec(q("INSERT INTO subscribers")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "subscribers_list_email_key"})

	sub, err := domain.NewSubscriber("list-1", "a@example.com", "", nil, false)
	require.NoError(t, err)
	err = repo.Create(context.Background(), sub)
	assert.ErrorIs(t, err, subscriber.ErrDuplicate)
}

func TestSubscriberRepo_GetDecodesRow(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSubscriberRepo(db)
	now := time.Now().UTC()

	mock.ExpectQuery(q("WHERE s.id = $1")).
		WithArgs("sub-1").
		WillReturnRows(subscriberRows().AddRow("sub-1", "list-1", "Ann", "a@example.com", "active",
			[]byte(`{"plan":"pro"}`), "tok", nil, nil, "{news,vip}", now, now))

	s, err := repo.Get(context.Background(), "sub-1")
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriberActive, s.Status)
	assert.Equal(t, "pro", s.Metadata["plan"])
	assert.Equal(t, []string{"news", "vip"}, s.Tags)
	assert.Nil(t, s.VerificationToken)
	assert.Nil(t, s.VerifiedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscriberRepo_GetNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSubscriberRepo(db)

	mock.ExpectQuery(q("WHERE s.unsubscribe_token = $1")).
		WithArgs("nope").
		WillReturnRows(subscriberRows())

	_, err := repo.GetByUnsubscribeToken(context.Background(), "nope")
	assert.ErrorIs(t, err, subscriber.ErrNotFound)
}

func TestSubscriberRepo_UnsubscribeWritesLog(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSubscriberRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(q("WHERE id = $1 AND status = 'active'")).
		WithArgs("sub-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("INSERT INTO unsubscribe_logs")).
		WithArgs(sqlmock.AnyArg(), "list-1", "sub-1", sqlmock.AnyArg(), "bye").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ok, err := repo.Unsubscribe(context.Background(), "sub-1", &domain.UnsubscribeLog{
		ListID: "list-1", SubscriberID: "sub-1", UnsubscribedAt: time.Now(), Reason: "bye",
	})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscriberRepo_UnsubscribeInactiveIsNoop(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSubscriberRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(q("WHERE id = $1 AND status = 'active'")).
		WithArgs("sub-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	ok, err := repo.Unsubscribe(context.Background(), "sub-1", &domain.UnsubscribeLog{ListID: "list-1", SubscriberID: "sub-1"})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscriberRepo_MarkVerifiedOnlyPending(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSubscriberRepo(db)

	mock.ExpectExec(q("WHERE id = $1 AND verification_token IS NOT NULL AND status = 'inactive'")).
		WithArgs("sub-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkVerified(context.Background(), "sub-1", time.Now())
	assert.ErrorIs(t, err, subscriber.ErrNotPending)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscriberRepo_ListFilters(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSubscriberRepo(db)
	f := subscriber.ListFilter{Status: "active", Tag: "vip", Search: "ann", Limit: 5, Offset: 10}

	mock.ExpectQuery(q("SELECT COUNT(*) FROM subscribers s WHERE s.list_id = $1 AND s.status = $2")).
		WithArgs("list-1", "active", "vip", "%ann%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(q("LIMIT $5 OFFSET $6")).
		WithArgs("list-1", "active", "vip", "%ann%", 5, 10).
		WillReturnRows(subscriberRows())

	out, total, err := repo.List(context.Background(), "list-1", f)
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, out)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscriberRepo_RemoveTagMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSubscriberRepo(db)

	mock.ExpectExec(q("DELETE FROM subscriber_tags")).
		WithArgs("sub-1", "vip").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.RemoveTag(context.Background(), "sub-1", "vip"), subscriber.ErrTagNotFound)
}

func TestSubscriberRepo_BulkDeleteEmpty(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSubscriberRepo(db)

	n, err := repo.BulkDelete(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// =============================================================================
// LISTS / ANALYTICS / ACCOUNTS
// =============================================================================

func TestListRepo_DeleteNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewListRepo(db)

	mock.ExpectExec(q("DELETE FROM subscription_lists")).
		WithArgs("list-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), "list-1"), list.ErrNotFound)
}

func TestListRepo_GetScansPolicy(t *testing.T) {
	db, mock := newMock(t)
	repo := NewListRepo(db)
	now := time.Now()

	mock.ExpectQuery(q("FROM subscription_lists l WHERE l.id = $1")).
		WithArgs("list-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "organization_id", "name", "description",
			"allow_business_email_only", "block_temporary_email", "require_email_verification",
			"check_domain_existence", "verify_dns_records", "blacklist_on_failure",
			"is_verified", "created_at", "updated_at"}).
			AddRow("list-1", "user-1", "org-1", "News", "", true, true, false, false, true, true, false, now, now))

	l, err := repo.Get(context.Background(), "list-1")
	require.NoError(t, err)
	require.NotNil(t, l.OrganizationID)
	assert.Equal(t, "org-1", *l.OrganizationID)
	assert.True(t, l.Policy.AllowBusinessEmailOnly)
	assert.True(t, l.Policy.VerifyDNSRecords)
	assert.False(t, l.Policy.CheckDomainExistence)
}

func TestAnalyticsRepo_IncrementUpserts(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAnalyticsRepo(db)

	mock.ExpectExec(q("ON CONFLICT (list_id, recorded_date)")).
		WithArgs(sqlmock.AnyArg(), "list-1", "2024-03-05").
		WillReturnResult(sqlmock.NewResult(0, 1))

	day := time.Date(2024, 3, 5, 23, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Increment(context.Background(), "list-1", day))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepo_CreateUserDuplicate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAccountRepo(db)

	mock.ExpectExec(q("INSERT INTO users")).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.CreateUser(context.Background(), &domain.User{ID: "u1", Email: "a@example.com"})
	assert.ErrorIs(t, err, account.ErrDuplicateEmail)
}

func TestAccountRepo_AcceptInvitationTwice(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAccountRepo(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec(q("accepted_at IS NULL")).
		WithArgs("inv-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.AcceptInvitation(context.Background(),
		&domain.OrganizationInvitation{ID: "inv-1", AcceptedAt: &now},
		&domain.OrganizationMember{OrganizationID: "org-1", UserID: "u1", Role: domain.RoleMember, JoinedAt: now})
	assert.ErrorIs(t, err, account.ErrInvitationUsed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepo_TokenByHashNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAccountRepo(db)

	mock.ExpectQuery(q("FROM api_tokens WHERE token_hash = $1")).
		WithArgs("abc").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.TokenByHash(context.Background(), "abc")
	assert.ErrorIs(t, err, account.ErrNotFound)
}
