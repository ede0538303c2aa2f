package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/xela07ax/reservahub/internal/domain"
)

// TokenValidator — интерфейс, который реализуют оба сервиса
type TokenValidator interface {
	VerifyToken(tokenStr string) (*domain.Claims, error)
}

type claimsKey struct{}

// ClaimsFromContext достает проверенные claims в любом месте кода.
func ClaimsFromContext(ctx context.Context) (*domain.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*domain.Claims)
	return claims, ok
}

// ExtractToken ищет bearer-токен в порядке убывания предпочтения:
//  1. Заголовок Authorization (обычные same-origin запросы).
//  2. Поле token в JSON-теле POST (cross-origin SSO handoff — токен
//     не светится в URL и истории браузера).
//  3. Query-параметр ?token= — легаси-вариант, менее безопасный,
//     оставлен для обратной совместимости и логируется как deprecated.
func ExtractToken(r *http.Request, logger *zap.Logger) string {
	if h := r.Header.Get("Authorization"); h != "" {
		return h
	}

	if r.Method == http.MethodPost && r.Body != nil {
		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
		if err == nil {
			// Возвращаем тело на место для последующих читателей
			r.Body = io.NopCloser(bytes.NewReader(body))
			var payload struct {
				Token string `json:"token"`
			}
			if json.Unmarshal(body, &payload) == nil && payload.Token != "" {
				return payload.Token
			}
		}
	}

	if t := r.URL.Query().Get("token"); t != "" {
		logger.Warn("deprecated query-string token used", zap.String("path", r.URL.Path))
		return t
	}

	return ""
}

// NewMiddleware закрывает группу роутов проверкой токена.
func NewMiddleware(v TokenValidator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r, logger)
			if token == "" {
				writeAuthError(w, http.StatusUnauthorized, "missing_token", "authorization required")
				return
			}

			claims, err := v.VerifyToken(token)
			if err != nil {
				logger.Warn("auth failure", zap.Error(err))
				code := "token_invalid"
				if errors.Is(err, ErrTokenExpired) {
					code = "token_expired"
				}
				writeAuthError(w, http.StatusUnauthorized, code, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoles — гейт поверх NewMiddleware: claims уже в контексте,
// осталось проверить роль.
func RequireRoles(logger *zap.Logger, allowed ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "missing_token", "authorization required")
				return
			}
			if err := RequireRole(claims, allowed...); err != nil {
				logger.Warn("role denied",
					zap.String("user_id", claims.UserID),
					zap.String("role", string(claims.Role)),
				)
				writeAuthError(w, http.StatusForbidden, "forbidden", "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error":   code,
		"message": message,
	})
}
