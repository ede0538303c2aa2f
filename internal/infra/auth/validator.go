package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/xela07ax/reservahub/internal/domain"
)

// Validator содержит общую логику проверки HS256.
// Секрет сконфигурирован одинаково на выпускающем и проверяющем
// сервисах и передается out-of-band, никогда по сети. Проверяющему
// процессу не нужны никакие учетные данные к базам основного сервиса —
// он доверяет только подписи токена.
type Validator struct {
	secret []byte
}

func NewValidator(secret []byte) *Validator {
	return &Validator{secret: secret}
}

// VerifyToken проверяет подпись и срок жизни токена.
// Возвращает ErrTokenExpired либо ErrTokenInvalid — различимо.
func (v *Validator) VerifyToken(tokenStr string) (*domain.Claims, error) {
	tokenStr = strings.TrimPrefix(tokenStr, "Bearer ")
	tokenStr = strings.TrimSpace(tokenStr)
	if tokenStr == "" {
		return nil, ErrTokenInvalid
	}

	token, err := jwt.ParseWithClaims(tokenStr, &domain.Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return v.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*domain.Claims)
	if !ok {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// RequireRole пускает дальше только перечисленные роли.
func RequireRole(claims *domain.Claims, allowed ...domain.Role) error {
	for _, role := range allowed {
		if claims.Role == role {
			return nil
		}
	}
	return ErrForbidden
}

// SignToken выпускает токен с общим секретом. Используется только
// основным сервисом (и тестами).
func SignToken(secret []byte, claims *domain.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// NewClaims собирает стандартный набор claims под TTL.
func NewClaims(user *domain.User, ttl time.Duration) *domain.Claims {
	now := time.Now()
	return &domain.Claims{
		UserID:   user.ID,
		Email:    user.Email,
		Role:     user.Role,
		TenantID: user.TenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "reservahub",
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
}
