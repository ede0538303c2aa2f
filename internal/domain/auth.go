package domain

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role — роль пользователя в системе бронирования.
type Role string

const (
	RoleStudent   Role = "student"
	RoleProfessor Role = "professor"
	RoleAdmin     Role = "admin"
)

// Claims — полезная нагрузка токена, которому доверяют оба сервиса.
// Подпись HS256 общим секретом: дашборд проверяет подпись сам,
// без каких-либо учетных данных к базе основного сервиса.
type Claims struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	TenantID string `json:"tenant_id"`
	jwt.RegisteredClaims
}

// Secure Token Issuing
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"` // Всегда "Bearer"
	ExpiresIn   int64  `json:"expires_in"`
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // Никогда не отправляем на фронт
	Role         Role      `json:"role"`
	TenantID     string    `json:"tenant_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
