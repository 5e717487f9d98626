package repository

import (
	"context"
	"testing"
	"time"

	"github.com/Payphone-Digital/learnpath/internal/model"
	"github.com/Payphone-Digital/learnpath/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

func newLedger(t *testing.T) (*RefreshTokenRepository, *testClock, uint) {
	t.Helper()
	db := testutil.NewDB(t)

	user := &model.User{Email: "ledger@example.com", PasswordHash: "h", Name: "Ledger"}
	require.NoError(t, NewUserRepository(db).CreateWithStats(context.Background(), user))

	clock := &testClock{now: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)}
	return NewRefreshTokenRepository(db).WithClock(clock.Now), clock, user.ID
}

func TestLedger_VerifyUntilExpiry(t *testing.T) {
	ledger, clock, userID := newLedger(t)
	ctx := context.Background()

	require.NoError(t, ledger.Create(ctx, userID, "tok-1", clock.now.Add(time.Hour)))

	valid, gotUser, err := ledger.Verify(ctx, "tok-1")
	require.NoError(t, err)
	assert.True(t, valid)
	assert.Equal(t, userID, gotUser)

	// Exactly at expiry the token is still accepted.
	clock.now = clock.now.Add(time.Hour)
	valid, _, err = ledger.Verify(ctx, "tok-1")
	require.NoError(t, err)
	assert.True(t, valid)

	clock.now = clock.now.Add(time.Second)
	valid, gotUser, err = ledger.Verify(ctx, "tok-1")
	require.NoError(t, err)
	assert.False(t, valid)
	assert.Zero(t, gotUser)
}

func TestLedger_RevokeIsPermanentAndIdempotent(t *testing.T) {
	ledger, clock, userID := newLedger(t)
	ctx := context.Background()

	require.NoError(t, ledger.Create(ctx, userID, "tok-2", clock.now.Add(24*time.Hour)))
	require.NoError(t, ledger.Revoke(ctx, "tok-2"))
	require.NoError(t, ledger.Revoke(ctx, "tok-2"))
	require.NoError(t, ledger.Revoke(ctx, "never-issued"))

	valid, _, err := ledger.Verify(ctx, "tok-2")
	require.NoError(t, err)
	assert.False(t, valid)

	row, err := ledger.Find(ctx, "tok-2")
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestLedger_RevokeAllForUser(t *testing.T) {
	ledger, clock, userID := newLedger(t)
	ctx := context.Background()

	for _, tok := range []string{"a", "b", "c"} {
		require.NoError(t, ledger.Create(ctx, userID, tok, clock.now.Add(time.Hour)))
	}
	require.NoError(t, ledger.Revoke(ctx, "c"))

	count, err := ledger.RevokeAllForUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	count, err = ledger.RevokeAllForUser(ctx, userID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestLedger_DeleteExpiredKeepsActive(t *testing.T) {
	ledger, clock, userID := newLedger(t)
	ctx := context.Background()

	require.NoError(t, ledger.Create(ctx, userID, "expired", clock.now.Add(-time.Minute)))
	require.NoError(t, ledger.Create(ctx, userID, "revoked", clock.now.Add(time.Hour)))
	require.NoError(t, ledger.Create(ctx, userID, "active", clock.now.Add(time.Hour)))
	require.NoError(t, ledger.Revoke(ctx, "revoked"))

	deleted, err := ledger.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	valid, _, err := ledger.Verify(ctx, "active")
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestLedger_ListActiveForUser(t *testing.T) {
	ledger, clock, userID := newLedger(t)
	ctx := context.Background()

	require.NoError(t, ledger.Create(ctx, userID, "old", clock.now.Add(time.Hour)))
	clock.now = clock.now.Add(time.Minute)
	require.NoError(t, ledger.Create(ctx, userID, "new", clock.now.Add(time.Hour)))
	require.NoError(t, ledger.Create(ctx, userID, "gone", clock.now.Add(time.Hour)))
	require.NoError(t, ledger.Revoke(ctx, "gone"))
	require.NoError(t, ledger.Create(ctx, userID, "stale", clock.now.Add(-time.Hour)))

	sessions, err := ledger.ListActiveForUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.True(t, sessions[0].CreatedAt.After(sessions[1].CreatedAt))
	for _, s := range sessions {
		assert.Empty(t, s.Token, "token strings are never listed")
	}
}
