package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Payphone-Digital/learnpath/internal/model"
	ctxutil "github.com/Payphone-Digital/learnpath/pkg/context"
	"github.com/Payphone-Digital/learnpath/pkg/logger"
	"gorm.io/gorm"
)

// RefreshTokenRepository is the ledger of issued refresh tokens. A token is
// valid while it is not revoked and now is not after its expiry.
type RefreshTokenRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewRefreshTokenRepository(db *gorm.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db, now: time.Now}
}

// WithClock replaces the time source used for expiry checks.
func (r *RefreshTokenRepository) WithClock(now func() time.Time) *RefreshTokenRepository {
	r.now = now
	return r
}

func (r *RefreshTokenRepository) Create(ctx context.Context, userID uint, token string, expiresAt time.Time) error {
	ctx = ctxutil.WithFunction(ctx, "repository", "CreateRefreshToken")

	if err := ctx.Err(); err != nil {
		logger.WarnWithContext(ctx, "Context cancelled before query").Err(err).Log()
		return err
	}

	start := time.Now()
	row := model.RefreshToken{
		UserID:    userID,
		Token:     token,
		ExpiresAt: expiresAt.UTC(),
		CreatedAt: r.now().UTC(),
	}
	err := r.db.WithContext(ctx).Create(&row).Error
	duration := time.Since(start)

	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to store refresh token").
			Uint("user_id", userID).
			Duration(duration).
			Err(err).
			Log()
		return err
	}

	logger.DebugWithContext(ctx, "Refresh token stored").
		Uint("user_id", userID).
		Duration(duration).
		Log()
	return nil
}

// Find returns the non-revoked row for token, or nil. Expired rows are
// returned; Verify applies the expiry rule.
func (r *RefreshTokenRepository) Find(ctx context.Context, token string) (*model.RefreshToken, error) {
	ctx = ctxutil.WithFunction(ctx, "repository", "FindRefreshToken")

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var row model.RefreshToken
	err := r.db.WithContext(ctx).
		Where("token = ? AND revoked = ?", token, false).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to find refresh token").Err(err).Log()
		return nil, err
	}
	return &row, nil
}

// Verify collapses unknown, revoked and expired tokens into valid=false.
func (r *RefreshTokenRepository) Verify(ctx context.Context, token string) (bool, uint, error) {
	row, err := r.Find(ctx, token)
	if err != nil || row == nil {
		return false, 0, err
	}
	if r.now().After(row.ExpiresAt) {
		return false, 0, nil
	}
	return true, row.UserID, nil
}

// Revoke marks token revoked. Unknown or already revoked tokens are a no-op.
func (r *RefreshTokenRepository) Revoke(ctx context.Context, token string) error {
	ctx = ctxutil.WithFunction(ctx, "repository", "RevokeRefreshToken")

	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	result := r.db.WithContext(ctx).Model(&model.RefreshToken{}).
		Where("token = ? AND revoked = ?", token, false).
		Update("revoked", true)
	duration := time.Since(start)

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to revoke refresh token").Duration(duration).Err(result.Error).Log()
		return result.Error
	}

	logger.DebugWithContext(ctx, "Refresh token revoke processed").
		Int64("rows_affected", result.RowsAffected).
		Duration(duration).
		Log()
	return nil
}

// RevokeAllForUser revokes every active token of userID and returns how
// many rows changed.
func (r *RefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID uint) (int64, error) {
	ctx = ctxutil.WithFunction(ctx, "repository", "RevokeAllForUser")

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	start := time.Now()
	result := r.db.WithContext(ctx).Model(&model.RefreshToken{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Update("revoked", true)
	duration := time.Since(start)

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to revoke user refresh tokens").
			Uint("user_id", userID).
			Duration(duration).
			Err(result.Error).
			Log()
		return 0, result.Error
	}

	logger.InfoWithContext(ctx, "User refresh tokens revoked").
		Uint("user_id", userID).
		Int64("revoked_count", result.RowsAffected).
		Duration(duration).
		Log()
	return result.RowsAffected, nil
}

// DeleteExpired removes the terminal rows: expired or revoked.
func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	ctx = ctxutil.WithFunction(ctx, "repository", "DeleteExpired")

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	start := time.Now()
	result := r.db.WithContext(ctx).
		Where("expires_at < ? OR revoked = ?", r.now().UTC(), true).
		Delete(&model.RefreshToken{})
	duration := time.Since(start)

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to delete expired refresh tokens").Duration(duration).Err(result.Error).Log()
		return 0, result.Error
	}

	logger.InfoWithContext(ctx, "Expired refresh tokens deleted").
		Int64("deleted_count", result.RowsAffected).
		Duration(duration).
		Log()
	return result.RowsAffected, nil
}

// ListActiveForUser returns the live sessions of userID, newest first.
func (r *RefreshTokenRepository) ListActiveForUser(ctx context.Context, userID uint) ([]model.RefreshToken, error) {
	ctx = ctxutil.WithFunction(ctx, "repository", "ListActiveForUser")

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows []model.RefreshToken
	err := r.db.WithContext(ctx).
		Select("id", "user_id", "expires_at", "created_at").
		Where("user_id = ? AND revoked = ? AND expires_at >= ?", userID, false, r.now().UTC()).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to list active refresh tokens").Uint("user_id", userID).Err(err).Log()
		return nil, err
	}
	return rows, nil
}
