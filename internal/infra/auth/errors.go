package auth

import "errors"

// Sentinel-ошибки границы доверия. Просроченный токен отличается от
// невалидного: клиент с истекшим токеном должен перелогиниться,
// клиент с битой подписью — повод для тревоги.
var (
	ErrTokenExpired = errors.New("auth: token expired")
	ErrTokenInvalid = errors.New("auth: token invalid")
	ErrForbidden    = errors.New("auth: access denied")
)
