package dashboard

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/xela07ax/reservahub/internal/audit"
	"github.com/xela07ax/reservahub/internal/domain"
	"github.com/xela07ax/reservahub/internal/infra/auth"
)

const defaultActivityLimit = 100

// Server — HTTP-поверхность дашборда. Отдельный деплой, отдельный
// процесс, ноль учетных данных к базам основного сервиса: доверие
// строится исключительно на подписи bearer-токена общим секретом.
type Server struct {
	router    *chi.Mux
	logger    *zap.Logger
	validator auth.TokenValidator

	buffer   audit.RecentBuffer // общий Redis-буфер recent-событий
	upstream *UpstreamClient    // fallback: API основного сервиса
	live     *LiveFeed
}

func NewServer(
	logger *zap.Logger,
	validator auth.TokenValidator,
	buffer audit.RecentBuffer,
	upstream *UpstreamClient,
	live *LiveFeed,
) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		logger:    logger.Named("dashboard-api"),
		validator: validator,
		buffer:    buffer,
		upstream:  upstream,
		live:      live,
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// SSO handoff: токен приезжает в теле POST, не в URL
	r.Post("/auth/session", s.handleSession)

	r.Group(func(r chi.Router) {
		r.Use(auth.NewMiddleware(s.validator, s.logger))
		r.Use(auth.RequireRoles(s.logger, domain.RoleProfessor, domain.RoleAdmin))

		r.Get("/v1/activity", s.handleActivity)
		r.Get("/v1/live", s.handleLive)
	})
}

// handleSession проверяет токен из тела запроса и возвращает claims —
// фронт дашборда узнает, кто пришел, не гоняя токен через query string.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	token := auth.ExtractToken(r, s.logger)
	if token == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	claims, err := s.validator.VerifyToken(token)
	if err != nil {
		s.logger.Warn("session handoff rejected", zap.Error(err))
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"user_id": claims.UserID,
		"email":   claims.Email,
		"role":    claims.Role,
	})
}

// handleActivity — недавние события аудита. Быстрый путь: общий
// Redis-буфер. Если он пуст или недоступен — API основного сервиса.
func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	limit := defaultActivityLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	entries, err := s.buffer.Recent(r.Context(), limit)
	if err != nil || len(entries) == 0 {
		if err != nil {
			s.logger.Warn("recent buffer unavailable, falling back to upstream", zap.Error(err))
		}
		entries, err = s.upstream.FetchAudit(r.Context(), limit)
		if err != nil {
			http.Error(w, "Failed to fetch activity", http.StatusBadGateway)
			return
		}
	}

	// Ярусы могут расходиться в порядке под конкурентной записью
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].OccurredAt.After(entries[j].OccurredAt)
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}

// handleLive — события, пойманные подпиской с момента старта процесса.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	entries := s.live.Snapshot(r.Context(), defaultActivityLimit)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}

// ServeHTTP позволяет использовать Server как стандартный http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
