package service

import (
	"context"
	"strings"

	"github.com/Payphone-Digital/learnpath/internal/dto"
	apperrors "github.com/Payphone-Digital/learnpath/internal/errors"
	"github.com/Payphone-Digital/learnpath/internal/model"
	"github.com/Payphone-Digital/learnpath/internal/repository"
	ctxutil "github.com/Payphone-Digital/learnpath/pkg/context"
	"github.com/Payphone-Digital/learnpath/pkg/logger"
	"golang.org/x/crypto/bcrypt"
)

// UserService is the credential store: it owns password hashing and the
// safe projections of user rows.
type UserService struct {
	repoUser   *repository.UserRepository
	bcryptCost int
	dummyHash  []byte
}

func NewUserService(repo *repository.UserRepository, bcryptCost int) *UserService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	// Comparing against this hash when a login email is unknown keeps the
	// response time in line with a real password check.
	dummy, err := bcrypt.GenerateFromPassword([]byte("learnpath-timing-equalizer"), bcryptCost)
	if err != nil {
		panic(err)
	}
	return &UserService{repoUser: repo, bcryptCost: bcryptCost, dummyHash: dummy}
}

// CreateUser registers a user with a hashed password and an empty stats row.
func (s *UserService) CreateUser(ctx context.Context, email, password, name string) (*dto.UserResponse, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "CreateUser")

	email = dto.NormalizeEmail(email)
	name = strings.TrimSpace(name)

	var fields []apperrors.FieldError
	if email == "" {
		fields = append(fields, apperrors.FieldError{Field: "email", Message: "Email is required"})
	}
	if password == "" {
		fields = append(fields, apperrors.FieldError{Field: "password", Message: "Password is required"})
	}
	if name == "" {
		fields = append(fields, apperrors.FieldError{Field: "name", Message: "Name is required"})
	}
	if len(fields) > 0 {
		return nil, apperrors.NewValidationError("", fields...)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to hash password").Err(err).Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	user := &model.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
	}
	if err := s.repoUser.CreateWithStats(ctx, user); err != nil {
		if apperrors.IsDomainError(err) {
			return nil, err
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "User registered").Uint("user_id", user.ID).Log()
	return toUserResponse(user), nil
}

// GetUserByEmail looks the address up case-insensitively; (nil, nil) if absent.
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := s.repoUser.GetByEmail(ctx, dto.NormalizeEmail(email))
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	return user, nil
}

// GetUserByID returns (nil, nil) when the user does not exist.
func (s *UserService) GetUserByID(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.repoUser.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	return user, nil
}

// GetProfile returns the profile projection or ErrUserNotFound.
func (s *UserService) GetProfile(ctx context.Context, id uint) (*dto.ProfileResponse, error) {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.ErrUserNotFound
	}
	return toProfileResponse(user), nil
}

func (s *UserService) ValidatePassword(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// BurnPasswordCheck spends the time of one password comparison.
func (s *UserService) BurnPasswordCheck(plaintext string) {
	_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(plaintext))
}

// UpdateUser overwrites the display name.
func (s *UserService) UpdateUser(ctx context.Context, id uint, name string) (*dto.ProfileResponse, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "UpdateUser")

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("", apperrors.FieldError{Field: "name", Message: "Name is required"})
	}

	found, err := s.repoUser.UpdateName(ctx, id, name)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if !found {
		logger.InfoWithContext(ctx, "User not found for update").Uint("user_id", id).Log()
		return nil, apperrors.ErrUserNotFound
	}

	return s.GetProfile(ctx, id)
}

func toUserResponse(u *model.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
	}
}

func toProfileResponse(u *model.User) *dto.ProfileResponse {
	return &dto.ProfileResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
	}
}
