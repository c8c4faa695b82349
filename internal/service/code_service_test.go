package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/coderelay_bot/internal/clock"
	"github.com/Freeeeeet/coderelay_bot/internal/mailbox"
	"github.com/Freeeeeet/coderelay_bot/internal/model"
)

func TestFetchCode(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.register(t, aliceID, "alice_owner", "alice@gmail.com")
	f.register(t, bobID, "bobby", "bob@yandex.ru")
	f.approve(t, aliceID, bobID)
	f.mailbox.code, f.mailbox.found = "123456", true

	res, err := f.codes.FetchCode(ctx, bobID, model.HandleKey("alice_owner"))
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, "123456", res.Code)
	assert.Equal(t, aliceID, res.Owner.ID)
	assert.NotEmpty(t, res.FetchID)

	last := f.mailbox.calls[len(f.mailbox.calls)-1]
	assert.Equal(t, "alice@gmail.com", last.Email)
	assert.Equal(t, "abcd efgh ijkl mnop", last.Password)

	owner, err := f.users.GetByID(ctx, aliceID)
	require.NoError(t, err)
	require.NotNil(t, owner.LastFetchAt)
	assert.True(t, owner.LastFetchAt.Equal(testStart))

	event := f.notifier.last()
	assert.Equal(t, EventCodeFetched, event.Kind)
	assert.Equal(t, aliceID, event.RecipientID)
	assert.Equal(t, "bobby", event.PeerName)

	entries, err := f.auditRepo.ListBySubject(ctx, bobID, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.AuditCodeRetrieved, entries[0].Action)
	assert.Contains(t, entries[0].Detail, res.FetchID)
	assert.NotContains(t, entries[0].Detail, "123456")
}

func TestFetchCodeByEmail(t *testing.T) {
	f := newFixture(t, nil)
	f.register(t, aliceID, "alice_owner", "alice@gmail.com")
	f.register(t, bobID, "bobby", "bob@yandex.ru")
	f.approve(t, aliceID, bobID)
	f.mailbox.code, f.mailbox.found = "654321", true

	key, err := model.ParseLookupKey("Alice@Gmail.com")
	require.NoError(t, err)

	res, err := f.codes.FetchCode(context.Background(), bobID, key)
	require.NoError(t, err)
	assert.Equal(t, "654321", res.Code)
}

func TestFetchCodeNotFoundIsNotAnError(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.register(t, aliceID, "alice_owner", "alice@gmail.com")
	f.register(t, bobID, "bobby", "bob@yandex.ru")
	f.approve(t, aliceID, bobID)
	before := len(f.notifier.kinds())

	res, err := f.codes.FetchCode(ctx, bobID, model.HandleKey("alice_owner"))
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.Empty(t, res.Code)
	assert.Len(t, f.notifier.kinds(), before)
	assert.Contains(t, f.auditActions(t, bobID), model.AuditCodeNotFound)

	owner, err := f.users.GetByID(ctx, aliceID)
	require.NoError(t, err)
	assert.Nil(t, owner.LastFetchAt)
}

func TestFetchCodeOrdering(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.register(t, aliceID, "alice_owner", "alice@gmail.com")
	f.register(t, bobID, "bobby", "bob@yandex.ru")

	_, err := f.codes.FetchCode(ctx, carolID, model.HandleKey("alice_owner"))
	assert.ErrorIs(t, err, ErrNotRegistered)

	_, err = f.codes.FetchCode(ctx, bobID, model.HandleKey("bobby"))
	assert.ErrorIs(t, err, ErrSelfReference)

	_, err = f.codes.FetchCode(ctx, bobID, model.LookupKey{Kind: model.ByEmail, Value: "bob@yandex.ru"})
	assert.ErrorIs(t, err, ErrSelfReference)

	_, err = f.codes.FetchCode(ctx, bobID, model.HandleKey("ghost_user"))
	assert.ErrorIs(t, err, ErrNotFound)

	// pending не даёт доступа
	_, err = f.delegations.Request(ctx, aliceID, bobID)
	require.NoError(t, err)
	_, err = f.codes.FetchCode(ctx, bobID, model.HandleKey("alice_owner"))
	assert.ErrorIs(t, err, ErrForbidden)

	// только проверки ящика при регистрации
	assert.Len(t, f.mailbox.calls, 2)
}

func TestFetchCodeRateLimited(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.register(t, aliceID, "alice_owner", "alice@gmail.com")
	f.register(t, bobID, "bobby", "bob@yandex.ru")
	f.approve(t, aliceID, bobID)
	f.mailbox.code, f.mailbox.found = "123456", true

	limit := f.limiter.Policy("get_code").Max
	for i := 0; i < limit; i++ {
		_, err := f.codes.FetchCode(ctx, bobID, model.HandleKey("alice_owner"))
		require.NoError(t, err)
	}

	_, err := f.codes.FetchCode(ctx, bobID, model.HandleKey("alice_owner"))
	var rl *RateLimitError
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, 60, rl.RetryAfterSeconds())

	f.clock.Advance(time.Minute + time.Second)
	_, err = f.codes.FetchCode(ctx, bobID, model.HandleKey("alice_owner"))
	assert.NoError(t, err)
}

func TestFetchCodeForbiddenDoesNotConsumeLimit(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.register(t, aliceID, "alice_owner", "alice@gmail.com")
	f.register(t, bobID, "bobby", "bob@yandex.ru")

	for i := 0; i < 10; i++ {
		_, err := f.codes.FetchCode(ctx, bobID, model.HandleKey("alice_owner"))
		require.ErrorIs(t, err, ErrForbidden)
	}

	f.approve(t, aliceID, bobID)
	_, err := f.codes.FetchCode(ctx, bobID, model.HandleKey("alice_owner"))
	assert.NoError(t, err)
}

func TestFetchCodeCredentialError(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.register(t, aliceID, "alice_owner", "alice@gmail.com")
	f.register(t, bobID, "bobby", "bob@yandex.ru")
	f.approve(t, aliceID, bobID)

	_, err := f.userRepo.DB().ExecContext(ctx,
		f.userRepo.DB().Rebind(`UPDATE users SET encrypted_password = ? WHERE id = ?`), "corrupted", aliceID)
	require.NoError(t, err)
	calls := len(f.mailbox.calls)

	_, err = f.codes.FetchCode(ctx, bobID, model.HandleKey("alice_owner"))
	assert.ErrorIs(t, err, ErrCredential)
	assert.Len(t, f.mailbox.calls, calls)
	assert.Contains(t, f.auditActions(t, bobID), model.AuditCodeFetchFailed)
}

func TestFetchCodeConnectionFailed(t *testing.T) {
	f := newFixture(t, nil)
	f.register(t, aliceID, "alice_owner", "alice@gmail.com")
	f.register(t, bobID, "bobby", "bob@yandex.ru")
	f.approve(t, aliceID, bobID)
	f.mailbox.err = errors.Join(mailbox.ErrConnectionFailed, errBoom)

	_, err := f.codes.FetchCode(context.Background(), bobID, model.HandleKey("alice_owner"))
	assert.ErrorIs(t, err, ErrConnectionFailed)
}

func TestFetchCodeNotifyFailureSwallowed(t *testing.T) {
	f := newFixture(t, nil)
	f.register(t, aliceID, "alice_owner", "alice@gmail.com")
	f.register(t, bobID, "bobby", "bob@yandex.ru")
	f.approve(t, aliceID, bobID)
	f.mailbox.code, f.mailbox.found = "123456", true
	f.notifier.err = errBoom

	res, err := f.codes.FetchCode(context.Background(), bobID, model.HandleKey("alice_owner"))
	require.NoError(t, err)
	assert.Equal(t, "123456", res.Code)
}

func TestTestOwnCodeAndCheckMailbox(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.register(t, aliceID, "alice_owner", "alice@gmail.com")
	f.mailbox.code, f.mailbox.found = "777777", true
	before := len(f.notifier.kinds())

	res, err := f.codes.TestOwnCode(ctx, aliceID)
	require.NoError(t, err)
	assert.Equal(t, "777777", res.Code)
	assert.Len(t, f.notifier.kinds(), before)

	_, err = f.codes.CheckMailbox(ctx, aliceID)
	require.NoError(t, err)

	f.mailbox.checkErr = mailbox.ErrConnectionFailed
	_, err = f.codes.CheckMailbox(ctx, aliceID)
	assert.ErrorIs(t, err, ErrConnectionFailed)

	_, err = f.codes.TestOwnCode(ctx, bobID)
	assert.ErrorIs(t, err, ErrNotRegistered)
}

// ============ Сквозной сценарий ============

type scriptedSession struct {
	messages []mailbox.Message
}

func (s *scriptedSession) SelectInbox() error { return nil }

func (s *scriptedSession) FetchRecent(limit int, _ bool) ([]mailbox.Message, error) {
	if len(s.messages) > limit {
		return s.messages[:limit], nil
	}
	return s.messages, nil
}

func (s *scriptedSession) Close() error { return nil }

// passwordDialer пускает только с правильным паролем
type passwordDialer struct {
	password string
	session  *scriptedSession
}

func (d *passwordDialer) Dial(_ context.Context, _ mailbox.Provider, _, password string) (mailbox.Session, error) {
	if password != d.password {
		return nil, errors.New("authentication failed")
	}
	return d.session, nil
}

func TestDelegatedFetchEndToEnd(t *testing.T) {
	session := &scriptedSession{}
	dialer := &passwordDialer{password: "abcd efgh ijkl mnop", session: session}

	clk := clock.Fake(testStart)
	providers, err := mailbox.NewRegistry(mailbox.DefaultProviders())
	require.NoError(t, err)
	retriever := mailbox.NewRetriever(dialer, providers, clk, mailbox.DefaultOptions(), zap.NewNop())

	f := newFixture(t, retriever)
	ctx := context.Background()

	f.register(t, aliceID, "alice_owner", "alice@gmail.com")
	f.register(t, bobID, "bobby", "bob@yandex.ru")

	_, err = f.delegations.RequestAccess(ctx, bobID, model.HandleKey("@alice_owner"))
	require.NoError(t, err)
	_, err = f.delegations.Respond(ctx, aliceID, bobID, model.Approve)
	require.NoError(t, err)

	session.messages = []mailbox.Message{
		{UID: 9, Subject: "Your code is 482913, expires soon", Date: clk.Now().Add(-2 * time.Minute)},
		{UID: 8, Subject: "Old code 111111", Date: clk.Now().Add(-30 * time.Minute)},
	}

	res, err := f.codes.FetchCode(ctx, bobID, model.HandleKey("alice_owner"))
	require.NoError(t, err)
	require.True(t, res.Found)
	assert.Equal(t, "482913", res.Code)

	deleted, err := f.delegations.Revoke(ctx, aliceID, bobID)
	require.NoError(t, err)
	require.True(t, deleted)

	_, err = f.codes.FetchCode(ctx, bobID, model.HandleKey("alice_owner"))
	assert.ErrorIs(t, err, ErrForbidden)
}
