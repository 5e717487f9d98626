package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/Payphone-Digital/learnpath/internal/constants"
	apperrors "github.com/Payphone-Digital/learnpath/internal/errors"
	"github.com/golang-jwt/jwt/v5"
)

// AccessClaims are the claims of a signed access token.
type AccessClaims struct {
	UserID uint   `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// RefreshTokenStore persists issued refresh tokens.
type RefreshTokenStore interface {
	Create(ctx context.Context, userID uint, token string, expiresAt time.Time) error
}

// TokenService issues and verifies access tokens and issues refresh tokens.
type TokenService struct {
	secretKey  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	store      RefreshTokenStore
	now        func() time.Time
}

func NewTokenService(secretKey string, accessTTL, refreshTTL time.Duration, store RefreshTokenStore) *TokenService {
	return &TokenService{
		secretKey:  []byte(secretKey),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		store:      store,
		now:        time.Now,
	}
}

// WithClock replaces the time source for issuing and verifying.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

// IssueAccessToken signs a short lived HS256 token for the user.
func (s *TokenService) IssueAccessToken(userID uint, email string) (string, error) {
	now := s.now()
	claims := AccessClaims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// IssueRefreshToken creates an opaque random token and records it in the
// ledger with the configured lifetime.
func (s *TokenService) IssueRefreshToken(ctx context.Context, userID uint) (string, error) {
	buf := make([]byte, constants.RefreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	token := hex.EncodeToString(buf)

	if err := s.store.Create(ctx, userID, token, s.now().Add(s.refreshTTL)); err != nil {
		return "", err
	}
	return token, nil
}

// VerifyAccessToken returns the claims of a valid token. Expired tokens
// yield ErrTokenExpired; anything else wrong yields ErrInvalidToken.
func (s *TokenService) VerifyAccessToken(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (interface{}, error) {
			return s.secretKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.WrapError(apperrors.ErrTokenExpired, err)
		}
		return nil, apperrors.WrapError(apperrors.ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == 0 {
		return nil, apperrors.ErrInvalidToken
	}
	return claims, nil
}

// AccessTokenTTL is the lifetime of issued access tokens.
func (s *TokenService) AccessTokenTTL() time.Duration {
	return s.accessTTL
}
