package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/coderelay_bot/internal/clock"
	"github.com/Freeeeeet/coderelay_bot/internal/mailbox"
	"github.com/Freeeeeet/coderelay_bot/internal/model"
	"github.com/Freeeeeet/coderelay_bot/internal/ratelimit"
	"github.com/Freeeeeet/coderelay_bot/internal/repository"
	"github.com/Freeeeeet/coderelay_bot/internal/repository/repotest"
	"github.com/Freeeeeet/coderelay_bot/internal/vault"
)

var testStart = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

const (
	aliceID int64 = 1001
	bobID   int64 = 2002
	carolID int64 = 3003
)

type fakeMailbox struct {
	mu       sync.Mutex
	code     string
	found    bool
	err      error
	checkErr error
	calls    []mailbox.Credentials
}

func (m *fakeMailbox) LatestCode(_ context.Context, creds mailbox.Credentials) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, creds)
	if m.err != nil {
		return "", false, m.err
	}
	return m.code, m.found, nil
}

func (m *fakeMailbox) Check(_ context.Context, creds mailbox.Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, creds)
	return m.checkErr
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, event Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return n.err
}

func (n *recordingNotifier) kinds() []EventKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	kinds := make([]EventKind, 0, len(n.events))
	for _, e := range n.events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

func (n *recordingNotifier) last() Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.events[len(n.events)-1]
}

type fixture struct {
	users       *UserService
	delegations *DelegationService
	codes       *CodeService

	userRepo  *repository.UserRepository
	permRepo  *repository.PermissionRepository
	auditRepo *repository.AuditRepository

	clock    *clock.FakeClock
	limiter  *ratelimit.Limiter
	notifier *recordingNotifier
	mailbox  *fakeMailbox
	vault    *vault.Vault
}

// newFixture собирает сервисы поверх SQLite в памяти. mb=nil подставляет fakeMailbox.
func newFixture(t *testing.T, mb Mailbox) *fixture {
	t.Helper()

	db := repotest.NewDB(t)
	clk := clock.Fake(testStart)
	logger := zap.NewNop()

	providers, err := mailbox.NewRegistry(mailbox.DefaultProviders())
	require.NoError(t, err)

	v, err := vault.New("test passphrase")
	require.NoError(t, err)

	f := &fixture{
		userRepo:  repository.NewUserRepository(db),
		permRepo:  repository.NewPermissionRepository(db),
		auditRepo: repository.NewAuditRepository(db),
		clock:     clk,
		limiter:   ratelimit.NewLimiter(clk, nil, time.Hour),
		notifier:  &recordingNotifier{},
		mailbox:   &fakeMailbox{},
		vault:     v,
	}
	if mb == nil {
		mb = f.mailbox
	}

	f.users = NewUserService(f.userRepo, f.permRepo, f.auditRepo, providers, mb, v, f.limiter, f.notifier, clk, logger)
	f.delegations = NewDelegationService(f.permRepo, f.userRepo, f.auditRepo, f.limiter, f.notifier, clk, logger)
	f.codes = NewCodeService(f.userRepo, f.auditRepo, f.delegations, mb, v, f.limiter, f.notifier, clk, logger)
	return f
}

func (f *fixture) register(t *testing.T, id int64, username, email string) *model.User {
	t.Helper()
	user, err := f.users.Register(context.Background(), RegisterInput{
		UserID:   id,
		Username: username,
		Email:    email,
		Password: "abcd efgh ijkl mnop",
	})
	require.NoError(t, err)
	return user
}

// approve проводит запрос requester -> owner до approved
func (f *fixture) approve(t *testing.T, ownerID, requesterID int64) {
	t.Helper()
	ctx := context.Background()
	_, err := f.delegations.Request(ctx, ownerID, requesterID)
	require.NoError(t, err)
	_, err = f.delegations.Respond(ctx, ownerID, requesterID, model.Approve)
	require.NoError(t, err)
}

func (f *fixture) auditActions(t *testing.T, subjectID int64) []model.AuditAction {
	t.Helper()
	entries, err := f.auditRepo.ListBySubject(context.Background(), subjectID, 100)
	require.NoError(t, err)
	actions := make([]model.AuditAction, 0, len(entries))
	for _, e := range entries {
		actions = append(actions, e.Action)
	}
	return actions
}

var errBoom = errors.New("boom")
