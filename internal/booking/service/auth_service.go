package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/xela07ax/reservahub/internal/domain"
	"github.com/xela07ax/reservahub/internal/infra/auth"
)

type AuthProvider interface {
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
}

// AuthService выпускает токены, подписанные общим секретом HS256.
// Тот же секрет сконфигурирован на дашборде — он проверит подпись сам,
// не обращаясь ни к этой базе, ни к этому сервису.
type AuthService struct {
	repo   AuthProvider
	secret []byte
	ttl    time.Duration
}

func NewAuthService(repo AuthProvider, secret []byte, ttl time.Duration) *AuthService {
	return &AuthService{
		repo:   repo,
		secret: secret,
		ttl:    ttl,
	}
}

func (s *AuthService) GenerateToken(ctx context.Context, username, password string) (*domain.TokenResponse, error) {
	// 1. Аутентификация (источник правды — Postgres)
	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil || user == nil {
		return nil, errors.New("invalid credentials")
	}

	// 2. Проверка пароля (используем bcrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, errors.New("invalid credentials")
	}

	// 3. Формирование Claims и подпись общим секретом
	claims := auth.NewClaims(user, s.ttl)
	signedToken, err := auth.SignToken(s.secret, claims)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &domain.TokenResponse{
		AccessToken: signedToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.ttl.Seconds()),
	}, nil
}
