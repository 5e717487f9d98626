package service

import (
	"context"

	"github.com/Payphone-Digital/learnpath/internal/constants"
	"github.com/Payphone-Digital/learnpath/internal/dto"
	apperrors "github.com/Payphone-Digital/learnpath/internal/errors"
	"github.com/Payphone-Digital/learnpath/internal/repository"
	ctxutil "github.com/Payphone-Digital/learnpath/pkg/context"
	"github.com/Payphone-Digital/learnpath/pkg/logger"
)

// AuthService implements register, login, refresh and logout on top of the
// credential store, token issuer and refresh token ledger.
type AuthService struct {
	users  *UserService
	tokens *TokenService
	ledger *repository.RefreshTokenRepository
}

func NewAuthService(users *UserService, tokens *TokenService, ledger *repository.RefreshTokenRepository) *AuthService {
	return &AuthService{users: users, tokens: tokens, ledger: ledger}
}

func (s *AuthService) Register(ctx context.Context, req dto.RegisterRequest) (*dto.AuthResponse, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "Register")

	user, err := s.users.CreateUser(ctx, req.Email, req.Password, req.Name)
	if err != nil {
		return nil, err
	}

	resp, err := s.issuePair(ctx, *user)
	if err != nil {
		return nil, err
	}
	resp.Message = constants.MsgRegistered
	return resp, nil
}

// Login never reveals whether the email or the password was wrong.
func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "Login")

	user, err := s.users.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.users.BurnPasswordCheck(req.Password)
		logger.WarnWithContext(ctx, "Login failed").String("reason", "unknown_email").Log()
		return nil, apperrors.ErrInvalidCredentials
	}
	if !s.users.ValidatePassword(req.Password, user.PasswordHash) {
		logger.LogAuth(user.ID, "login", false)
		return nil, apperrors.ErrInvalidCredentials
	}

	resp, err := s.issuePair(ctx, *toUserResponse(user))
	if err != nil {
		return nil, err
	}
	resp.Message = constants.MsgLoggedIn

	logger.LogAuth(user.ID, "login", true)
	return resp, nil
}

// Refresh exchanges a valid refresh token for a new access token. The
// refresh token itself is not rotated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*dto.AuthResponse, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "Refresh")

	if refreshToken == "" {
		return nil, apperrors.NewValidationError("", apperrors.FieldError{Field: "refreshToken", Message: "Refresh token is required"})
	}

	valid, userID, err := s.ledger.Verify(ctx, refreshToken)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if !valid {
		logger.InfoWithContext(ctx, "Refresh token rejected").Log()
		return nil, apperrors.ErrInvalidRefreshToken
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		logger.WarnWithContext(ctx, "Refresh token owner no longer exists").Uint("user_id", userID).Log()
		return nil, apperrors.ErrInvalidRefreshToken
	}

	access, err := s.tokens.IssueAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	return &dto.AuthResponse{
		Success:     true,
		AccessToken: access,
		User:        *toUserResponse(user),
	}, nil
}

// Logout revokes the token if one is given. It reports no failure to the
// caller so session state cannot be probed through it.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) {
	ctx = ctxutil.WithFunction(ctx, "service", "Logout")

	if refreshToken == "" {
		return
	}
	if err := s.ledger.Revoke(ctx, refreshToken); err != nil {
		logger.ErrorWithContext(ctx, "Failed to revoke refresh token on logout").Err(err).Log()
	}
}

// LogoutAll revokes every refresh token of the user.
func (s *AuthService) LogoutAll(ctx context.Context, userID uint) (int64, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "LogoutAll")

	count, err := s.ledger.RevokeAllForUser(ctx, userID)
	if err != nil {
		return 0, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	logger.LogAuth(userID, "logout_all", true)
	return count, nil
}

func (s *AuthService) Me(ctx context.Context, userID uint) (*dto.ProfileResponse, error) {
	return s.users.GetProfile(ctxutil.WithFunction(ctx, "service", "Me"), userID)
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID uint, req dto.UpdateProfileRequest) (*dto.ProfileResponse, error) {
	return s.users.UpdateUser(ctx, userID, req.Name)
}

// ActiveSessions lists the user's live refresh tokens without their values.
func (s *AuthService) ActiveSessions(ctx context.Context, userID uint) ([]dto.SessionResponse, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "ActiveSessions")

	rows, err := s.ledger.ListActiveForUser(ctx, userID)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	sessions := make([]dto.SessionResponse, 0, len(rows))
	for _, row := range rows {
		sessions = append(sessions, dto.SessionResponse{
			ID:        row.ID,
			CreatedAt: row.CreatedAt,
			ExpiresAt: row.ExpiresAt,
		})
	}
	return sessions, nil
}

func (s *AuthService) issuePair(ctx context.Context, user dto.UserResponse) (*dto.AuthResponse, error) {
	access, err := s.tokens.IssueAccessToken(user.ID, user.Email)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to issue access token").Err(err).Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	refresh, err := s.tokens.IssueRefreshToken(ctx, user.ID)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to issue refresh token").Err(err).Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	return &dto.AuthResponse{
		Success:      true,
		AccessToken:  access,
		RefreshToken: refresh,
		User:         user,
	}, nil
}
