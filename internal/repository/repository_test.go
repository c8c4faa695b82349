package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/coderelay_bot/internal/model"
	"github.com/Freeeeeet/coderelay_bot/internal/repository/repotest"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newUser(id int64, username string) *model.User {
	return &model.User{
		ID:                id,
		Username:          username,
		Email:             username + "@gmail.com",
		EncryptedPassword: "blob-" + username,
		Provider:          "gmail",
		RegisteredAt:      t0,
	}
}

type fixture struct {
	users *UserRepository
	perms *PermissionRepository
	audit *AuditRepository
}

func setup(t *testing.T, users ...*model.User) fixture {
	t.Helper()
	db := repotest.NewDB(t)
	f := fixture{
		users: NewUserRepository(db),
		perms: NewPermissionRepository(db),
		audit: NewAuditRepository(db),
	}
	for _, u := range users {
		require.NoError(t, f.users.Create(context.Background(), u))
	}
	return f
}

// ============ Users ============

func TestUserCreateAndLookup(t *testing.T) {
	ctx := context.Background()
	f := setup(t, newUser(100, "alice"))

	byID, err := f.users.GetByID(ctx, 100)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "alice", byID.Username)
	assert.True(t, byID.RegisteredAt.Equal(t0))
	assert.Nil(t, byID.LastFetchAt)

	byName, err := f.users.GetByLookup(ctx, model.HandleKey("@Alice"))
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, int64(100), byName.ID)

	byEmail, err := f.users.GetByLookup(ctx, model.LookupKey{Kind: model.ByEmail, Value: "alice@gmail.com"})
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, int64(100), byEmail.ID)

	missing, err := f.users.GetByUsername(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)

	exists, err := f.users.Exists(ctx, 100)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUserCreateDuplicate(t *testing.T) {
	ctx := context.Background()
	f := setup(t, newUser(100, "alice"))

	err := f.users.Create(ctx, newUser(100, "other"))
	assert.ErrorIs(t, err, ErrDuplicate)

	dupName := newUser(101, "alice")
	dupName.Email = "different@gmail.com"
	assert.ErrorIs(t, f.users.Create(ctx, dupName), ErrDuplicate)
}

func TestUserTouchLastFetch(t *testing.T) {
	ctx := context.Background()
	f := setup(t, newUser(100, "alice"))

	at := t0.Add(5 * time.Minute)
	require.NoError(t, f.users.TouchLastFetch(ctx, 100, at))

	u, err := f.users.GetByID(ctx, 100)
	require.NoError(t, err)
	require.NotNil(t, u.LastFetchAt)
	assert.True(t, u.LastFetchAt.Equal(at))
}

func TestUserDeleteCascadesPermissionsKeepsAudit(t *testing.T) {
	ctx := context.Background()
	f := setup(t, newUser(1, "alice"), newUser(2, "bobby"), newUser(3, "carol"))

	_, _, err := f.perms.Request(ctx, 1, 2, t0)
	require.NoError(t, err)
	_, _, err = f.perms.Request(ctx, 3, 1, t0)
	require.NoError(t, err)
	_, _, err = f.perms.Request(ctx, 3, 2, t0)
	require.NoError(t, err)
	require.NoError(t, f.audit.Append(ctx, &model.AuditEntry{SubjectID: 1, Action: model.AuditRegistration, At: t0}))

	deleted, err := f.users.Delete(ctx, 1)
	require.NoError(t, err)
	assert.True(t, deleted)

	p, err := f.perms.Get(ctx, 1, 2)
	require.NoError(t, err)
	assert.Nil(t, p)
	p, err = f.perms.Get(ctx, 3, 1)
	require.NoError(t, err)
	assert.Nil(t, p)
	p, err = f.perms.Get(ctx, 3, 2)
	require.NoError(t, err)
	assert.NotNil(t, p)

	entries, err := f.audit.ListBySubject(ctx, 1, 10)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	deleted, err = f.users.Delete(ctx, 1)
	require.NoError(t, err)
	assert.False(t, deleted)
}

// ============ Permissions ============

func TestPermissionRequestLifecycle(t *testing.T) {
	ctx := context.Background()
	f := setup(t, newUser(1, "alice"), newUser(2, "bobby"))

	perm, created, err := f.perms.Request(ctx, 1, 2, t0)
	require.NoError(t, err)
	assert.True(t, created)
	require.NotNil(t, perm)
	assert.Equal(t, model.PermissionPending, perm.Status)

	// повторный запрос не создаёт запись
	again, created, err := f.perms.Request(ctx, 1, 2, t0.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, perm.ID, again.ID)
	assert.True(t, again.RequestedAt.Equal(t0))

	approved, err := f.perms.IsApproved(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, approved)

	ok, err := f.perms.Respond(ctx, 1, 2, model.PermissionApproved, t0.Add(2*time.Minute))
	require.NoError(t, err)
	assert.True(t, ok)

	approved, err = f.perms.IsApproved(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, approved)

	// обратного направления доступ не даёт
	approved, err = f.perms.IsApproved(ctx, 2, 1)
	require.NoError(t, err)
	assert.False(t, approved)

	// запрос при approved тоже не создаёт запись
	existing, created, err := f.perms.Request(ctx, 1, 2, t0.Add(3*time.Minute))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, model.PermissionApproved, existing.Status)

	// ответ на уже решённый запрос ничего не меняет
	ok, err = f.perms.Respond(ctx, 1, 2, model.PermissionDenied, t0.Add(4*time.Minute))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPermissionDeniedCanBeRequestedAgain(t *testing.T) {
	ctx := context.Background()
	f := setup(t, newUser(1, "alice"), newUser(2, "bobby"))

	first, _, err := f.perms.Request(ctx, 1, 2, t0)
	require.NoError(t, err)
	_, err = f.perms.Respond(ctx, 1, 2, model.PermissionDenied, t0.Add(time.Minute))
	require.NoError(t, err)

	retry := t0.Add(10 * time.Minute)
	perm, created, err := f.perms.Request(ctx, 1, 2, retry)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, first.ID, perm.ID)
	assert.Equal(t, model.PermissionPending, perm.Status)
	assert.True(t, perm.RequestedAt.Equal(retry))
	assert.Nil(t, perm.RespondedAt)
}

func TestPermissionDelete(t *testing.T) {
	ctx := context.Background()
	f := setup(t, newUser(1, "alice"), newUser(2, "bobby"))

	_, _, err := f.perms.Request(ctx, 1, 2, t0)
	require.NoError(t, err)

	deleted, err := f.perms.Delete(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = f.perms.Delete(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, created, err := f.perms.Request(ctx, 1, 2, t0)
	require.NoError(t, err)
	assert.True(t, created)
}

func TestPermissionListings(t *testing.T) {
	ctx := context.Background()
	f := setup(t, newUser(1, "alice"), newUser(2, "bobby"), newUser(3, "carol"), newUser(4, "danny"))

	for _, pair := range [][2]int64{{1, 2}, {1, 3}, {3, 1}, {1, 4}} {
		_, _, err := f.perms.Request(ctx, pair[0], pair[1], t0)
		require.NoError(t, err)
	}
	for _, pair := range [][2]int64{{1, 2}, {1, 3}, {3, 1}} {
		_, err := f.perms.Respond(ctx, pair[0], pair[1], model.PermissionApproved, t0)
		require.NoError(t, err)
	}
	_, _, err := f.perms.Request(ctx, 2, 4, t0.Add(time.Minute))
	require.NoError(t, err)
	_, _, err = f.perms.Request(ctx, 2, 3, t0.Add(2*time.Minute))
	require.NoError(t, err)

	given, err := f.perms.ListGiven(ctx, 1)
	require.NoError(t, err)
	require.Len(t, given, 2)
	assert.Equal(t, "bobby", given[0].PeerUsername)
	assert.Equal(t, "carol", given[1].PeerUsername)
	assert.Equal(t, int64(2), given[0].RequesterID)

	received, err := f.perms.ListReceived(ctx, 1)
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, "carol", received[0].PeerUsername)
	assert.Equal(t, int64(3), received[0].OwnerID)

	pending, err := f.perms.ListPending(ctx, 2)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "carol", pending[0].PeerUsername)
	assert.Equal(t, "danny", pending[1].PeerUsername)

	pending, err = f.perms.ListPending(ctx, 1)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "danny", pending[0].PeerUsername)
}

func TestPermissionConcurrentRequestsCreateOnce(t *testing.T) {
	ctx := context.Background()
	f := setup(t, newUser(1, "alice"), newUser(2, "bobby"))

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := f.perms.Request(ctx, 1, 2, t0)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
}

// ============ Audit ============

func TestAuditAppendAndList(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	for i, action := range []model.AuditAction{model.AuditRegistration, model.AuditPermissionRequest, model.AuditCodeRetrieved} {
		require.NoError(t, f.audit.Append(ctx, &model.AuditEntry{
			SubjectID: 7,
			Action:    action,
			Detail:    "detail",
			At:        t0.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, f.audit.Append(ctx, &model.AuditEntry{SubjectID: 8, Action: model.AuditRegistration, At: t0}))

	entries, err := f.audit.ListBySubject(ctx, 7, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, model.AuditCodeRetrieved, entries[0].Action)
	assert.Equal(t, model.AuditPermissionRequest, entries[1].Action)
}
