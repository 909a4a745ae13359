package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"bounce-service/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Token type claims, enforced on verification so an access token can never be
// used to refresh and vice versa.
const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenRevoked       = errors.New("refresh token revoked")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
)

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type Service interface {
	PasscodeAuth(ctx context.Context, email, passcode string) (*TokenPair, *models.User, error)
	AppleSignIn(ctx context.Context, identityToken, nickname string) (*TokenPair, *models.User, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	VerifyAccessToken(token string) (uint, error)
}

type service struct {
	repo          AuthRepository
	apple         AppleVerifier
	secret        string
	accessExpire  time.Duration
	refreshExpire time.Duration
}

func NewService(repo AuthRepository, apple AppleVerifier, secret string, accessExpire, refreshExpire time.Duration) Service {
	return &service{
		repo:          repo,
		apple:         apple,
		secret:        secret,
		accessExpire:  accessExpire,
		refreshExpire: refreshExpire,
	}
}

func (s *service) PasscodeAuth(ctx context.Context, email, passcode string) (*TokenPair, *models.User, error) {
	user, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Passcode), []byte(passcode)) != nil {
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.issuePair(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

func (s *service) AppleSignIn(ctx context.Context, identityToken, nickname string) (*TokenPair, *models.User, error) {
	appleID, email, err := s.apple.Verify(ctx, identityToken)
	if err != nil {
		return nil, nil, fmt.Errorf("apple verification failed: %w", err)
	}

	user, err := s.repo.FindUserByAppleID(ctx, appleID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// First sign-in creates the account.
		user = &models.User{
			Email:    email,
			Nickname: nickname,
			AppleID:  &appleID,
		}
		if err := s.repo.CreateUser(ctx, user); err != nil {
			return nil, nil, err
		}
	} else if err != nil {
		return nil, nil, err
	}

	pair, err := s.issuePair(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	userID, tokenID, err := s.verify(refreshToken, tokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	stored, err := s.repo.FindRefreshToken(ctx, tokenID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if stored.Revoked || time.Now().After(stored.ExpiresAt) {
		return nil, ErrTokenRevoked
	}

	// Rotation: the presented token is spent either way.
	if err := s.repo.RevokeRefreshToken(ctx, tokenID); err != nil {
		return nil, err
	}

	return s.issuePair(ctx, userID)
}

func (s *service) Logout(ctx context.Context, refreshToken string) error {
	_, tokenID, err := s.verify(refreshToken, tokenTypeRefresh)
	if err != nil {
		return err
	}
	return s.repo.RevokeRefreshToken(ctx, tokenID)
}

func (s *service) VerifyAccessToken(token string) (uint, error) {
	userID, _, err := s.verify(token, tokenTypeAccess)
	return userID, err
}

func (s *service) issuePair(ctx context.Context, userID uint) (*TokenPair, error) {
	now := time.Now()
	sub := strconv.FormatUint(uint64(userID), 10)

	access := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  sub,
		"type": tokenTypeAccess,
		"iat":  now.Unix(),
		"exp":  now.Add(s.accessExpire).Unix(),
	})
	accessToken, err := access.SignedString([]byte(s.secret))
	if err != nil {
		return nil, err
	}

	tokenID := uuid.New().String()
	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  sub,
		"type": tokenTypeRefresh,
		"jti":  tokenID,
		"iat":  now.Unix(),
		"exp":  now.Add(s.refreshExpire).Unix(),
	})
	refreshToken, err := refresh.SignedString([]byte(s.secret))
	if err != nil {
		return nil, err
	}

	if err := s.repo.SaveRefreshToken(ctx, &models.RefreshToken{
		UserID:    userID,
		TokenID:   tokenID,
		ExpiresAt: now.Add(s.refreshExpire),
	}); err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// verify parses a token, checks the signature and the type claim, and returns
// the subject user id plus the jti when present.
func (s *service) verify(tokenString, expectedType string) (uint, string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil || !token.Valid {
		return 0, "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", ErrInvalidToken
	}
	if typ, _ := claims["type"].(string); typ != expectedType {
		return 0, "", ErrInvalidToken
	}

	sub, _ := claims["sub"].(string)
	userID, err := strconv.ParseUint(sub, 10, 64)
	if err != nil {
		return 0, "", ErrInvalidToken
	}

	tokenID, _ := claims["jti"].(string)
	return uint(userID), tokenID, nil
}
