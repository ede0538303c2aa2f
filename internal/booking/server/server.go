package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/xela07ax/reservahub/internal/admission"
	"github.com/xela07ax/reservahub/internal/booking/handler"
	"github.com/xela07ax/reservahub/internal/cache"
	"github.com/xela07ax/reservahub/internal/domain"
	"github.com/xela07ax/reservahub/internal/infra"
	"github.com/xela07ax/reservahub/internal/infra/auth"
)

// BookingServer собирает HTTP-поверхность основного API.
// Порядок цепочки имеет значение: инфраструктурные middleware, затем
// трассировка, затем Admission (может сбросить запрос до любой работы),
// затем аутентификация и уже внутри защищенного периметра — Response
// Cache на тяжелых read-эндпоинтах.
type BookingServer struct {
	router *chi.Mux
	logger *zap.Logger
	cfg    *infra.Config

	admission *admission.Controller
	store     cache.Store
	validator auth.TokenValidator

	// Обработчики бизнес-доменов
	authHandler        *handler.AuthHandler        // /auth/token
	reservationHandler *handler.ReservationHandler // /v1/reservations
	reportsHandler     *handler.ReportsHandler     // /v1/reports
	auditHandler       *handler.AuditHandler       // /v1/audit
	statusHandler      *handler.StatusHandler      // /v1/system/status
}

func NewBookingServer(
	cfg *infra.Config,
	logger *zap.Logger,
	ctrl *admission.Controller,
	store cache.Store,
	validator auth.TokenValidator,
	authH *handler.AuthHandler,
	resH *handler.ReservationHandler,
	repH *handler.ReportsHandler,
	auditH *handler.AuditHandler,
	statusH *handler.StatusHandler,
) *BookingServer {
	s := &BookingServer{
		router:             chi.NewRouter(),
		logger:             logger.Named("booking-api"),
		cfg:                cfg,
		admission:          ctrl,
		store:              store,
		validator:          validator,
		authHandler:        authH,
		reservationHandler: resH,
		reportsHandler:     repH,
		auditHandler:       auditH,
		statusHandler:      statusH,
	}

	s.routes()
	return s
}

// identityFromClaims — идентичность для ключа кэша: пользователи и
// тенанты не делят записи между собой.
func identityFromClaims(r *http.Request) string {
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		return claims.TenantID + ":" + claims.UserID
	}
	return ""
}

func (s *BookingServer) routes() {
	r := s.router

	// --- 1. Глобальные инфраструктурные Middleware (для всех) ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(infra.TracingMiddleware)

	// --- 2. ПУБЛИЧНЫЕ РОУТЫ (без Admission: healthcheck обязан отвечать
	// и под перегрузкой) ---
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// --- 3. ВСЁ ОСТАЛЬНОЕ проходит через Admission Controller ---
	r.Group(func(r chi.Router) {
		r.Use(s.admission.Middleware(s.cfg.Admission.RetryAfter, s.logger))

		// Логин доступен без токена
		r.Post("/auth/token", s.authHandler.Login)

		// --- ЗАЩИЩЕННЫЙ ПЕРИМЕТР (требуют HS256 токен) ---
		r.Group(func(r chi.Router) {
			r.Use(auth.NewMiddleware(s.validator, s.logger))

			// Снимок загрузки инстанса
			r.Get("/v1/system/status", s.statusHandler.GetStatus)

			// Брони (мутации — каждая уходит в аудит)
			r.Route("/v1/reservations", func(r chi.Router) {
				r.Post("/", s.reservationHandler.Create)
				r.Post("/{id}/cancel", s.reservationHandler.Cancel)
			})

			// Отчеты: тяжелая агрегация, прячем за Response Cache
			r.With(cache.Middleware(
				s.store,
				cache.IdentityKey("reports:usage", identityFromClaims),
				s.cfg.Cache.ReportsTTL,
				s.logger,
			)).Get("/v1/reports/usage", s.reportsHandler.GetUsage)

			// Аудит: только professor/admin, короткий TTL
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRoles(s.logger, domain.RoleProfessor, domain.RoleAdmin))
				r.With(cache.Middleware(
					s.store,
					cache.IdentityKey("audit:logs", identityFromClaims),
					s.cfg.Cache.AuditTTL,
					s.logger,
				)).Get("/v1/audit", s.auditHandler.GetLogs)
			})
		})
	})
}

// ServeHTTP позволяет использовать BookingServer как стандартный http.Handler
func (s *BookingServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
