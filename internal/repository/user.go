package repository

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/Payphone-Digital/learnpath/internal/errors"
	"github.com/Payphone-Digital/learnpath/internal/model"
	ctxutil "github.com/Payphone-Digital/learnpath/pkg/context"
	"github.com/Payphone-Digital/learnpath/pkg/logger"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateWithStats inserts the user and its zeroed stats row atomically.
// A taken email yields apperrors.ErrEmailExists, including when the unique
// index fires for a concurrent registration.
func (r *UserRepository) CreateWithStats(ctx context.Context, user *model.User) error {
	ctx = ctxutil.WithFunction(ctx, "repository", "CreateWithStats")

	if err := ctx.Err(); err != nil {
		logger.WarnWithContext(ctx, "Context cancelled before query").Err(err).Log()
		return err
	}

	start := time.Now()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		stats := model.UserStats{
			UserID: user.ID,
			Level:  1,
			Badges: datatypes.JSONSlice[string]{},
		}
		return tx.Create(&stats).Error
	})
	duration := time.Since(start)

	if err != nil {
		if isDuplicateKey(err) {
			logger.InfoWithContext(ctx, "User email already registered").Duration(duration).Log()
			return apperrors.WrapError(apperrors.ErrEmailExists, err)
		}
		logger.ErrorWithContext(ctx, "Failed to create user").Duration(duration).Err(err).Log()
		return err
	}

	logger.DebugWithContext(ctx, "User created").
		Uint("user_id", user.ID).
		Duration(duration).
		Log()
	return nil
}

// GetByID returns (nil, nil) when no user has the id.
func (r *UserRepository) GetByID(ctx context.Context, id uint) (*model.User, error) {
	ctx = ctxutil.WithFunction(ctx, "repository", "GetByID")

	if err := ctx.Err(); err != nil {
		logger.WarnWithContext(ctx, "Context cancelled before query").Err(err).Log()
		return nil, err
	}

	start := time.Now()
	var user model.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	duration := time.Since(start)

	if errors.Is(err, gorm.ErrRecordNotFound) {
		logger.DebugWithContext(ctx, "User not found").Uint("user_id", id).Duration(duration).Log()
		return nil, nil
	}
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to get user by ID").
			Uint("user_id", id).
			Duration(duration).
			Err(err).
			Log()
		return nil, err
	}
	return &user, nil
}

// GetByEmail expects an already normalized address and returns (nil, nil)
// when it is not registered.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	ctx = ctxutil.WithFunction(ctx, "repository", "GetByEmail")

	if err := ctx.Err(); err != nil {
		logger.WarnWithContext(ctx, "Context cancelled before query").Err(err).Log()
		return nil, err
	}

	start := time.Now()
	var user model.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	duration := time.Since(start)

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to get user by email").Duration(duration).Err(err).Log()
		return nil, err
	}

	logger.DebugWithContext(ctx, "User retrieved by email").
		Uint("user_id", user.ID).
		Duration(duration).
		Log()
	return &user, nil
}

// UpdateName overwrites the display name and reports whether a row matched.
func (r *UserRepository) UpdateName(ctx context.Context, id uint, name string) (bool, error) {
	ctx = ctxutil.WithFunction(ctx, "repository", "UpdateName")

	if err := ctx.Err(); err != nil {
		logger.WarnWithContext(ctx, "Context cancelled before query").Err(err).Log()
		return false, err
	}

	start := time.Now()
	result := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"name":       name,
			"updated_at": time.Now().UTC(),
		})
	duration := time.Since(start)

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to update user name").
			Uint("user_id", id).
			Duration(duration).
			Err(result.Error).
			Log()
		return false, result.Error
	}

	logger.InfoWithContext(ctx, "User name updated").
		Uint("user_id", id).
		Int64("rows_affected", result.RowsAffected).
		Duration(duration).
		Log()
	return result.RowsAffected > 0, nil
}
