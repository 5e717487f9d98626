package service

import (
	"context"
	"testing"
	"time"

	"github.com/Payphone-Digital/learnpath/internal/model"
	"github.com/Payphone-Digital/learnpath/internal/repository"
	"github.com/Payphone-Digital/learnpath/internal/testutil"
	"github.com/Payphone-Digital/learnpath/pkg/events"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time          { return c.now }
func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newClock() *testClock {
	return &testClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
}

type authStack struct {
	db     *gorm.DB
	auth   *AuthService
	users  *UserService
	tokens *TokenService
	ledger *repository.RefreshTokenRepository
	clock  *testClock
}

func newAuthStack(t *testing.T) *authStack {
	t.Helper()
	db := testutil.NewDB(t)
	cfg := testutil.TestConfig()
	clock := newClock()

	ledger := repository.NewRefreshTokenRepository(db).WithClock(clock.Now)
	users := NewUserService(repository.NewUserRepository(db), cfg.Auth.BcryptCost)
	tokens := NewTokenService(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry, cfg.JWT.RefreshTokenExpiry, ledger).WithClock(clock.Now)

	return &authStack{
		db:     db,
		auth:   NewAuthService(users, tokens, ledger),
		users:  users,
		tokens: tokens,
		ledger: ledger,
		clock:  clock,
	}
}

type progressStack struct {
	svc      *ProgressService
	recorder *events.Recorder
	clock    *testClock
	userID   uint
}

func newProgressStack(t *testing.T) *progressStack {
	t.Helper()
	db := testutil.NewDB(t)
	clock := newClock()
	recorder := &events.Recorder{}

	user := &model.User{Email: "learner@example.com", PasswordHash: "x", Name: "Learner"}
	require.NoError(t, repository.NewUserRepository(db).CreateWithStats(context.Background(), user))

	svc := NewProgressService(repository.NewProgressRepository(db), recorder).WithClock(clock.Now)
	return &progressStack{svc: svc, recorder: recorder, clock: clock, userID: user.ID}
}
