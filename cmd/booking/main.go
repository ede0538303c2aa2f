package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xela07ax/reservahub/internal/admission"
	"github.com/xela07ax/reservahub/internal/audit"
	"github.com/xela07ax/reservahub/internal/booking/handler"
	"github.com/xela07ax/reservahub/internal/booking/server"
	"github.com/xela07ax/reservahub/internal/booking/service"
	"github.com/xela07ax/reservahub/internal/cache"
	"github.com/xela07ax/reservahub/internal/infra"
	infrauth "github.com/xela07ax/reservahub/internal/infra/auth"
	"github.com/xela07ax/reservahub/internal/repository/postgres"
)

func main() {
	// 1. Конфигурация и логгер
	cfg, err := infra.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	// 2. Инфраструктура и ресурсы
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if cfg.Database.URL == "" {
		logger.Fatal("database.url is required")
	}
	auditRepo := postgres.NewAuditRepo(cfg.Database.URL)
	userRepo := postgres.NewUserRepo(cfg.Database.URL)
	reservationRepo := postgres.NewReservationRepo(cfg.Database.URL)

	// Проверяем соединение с таймаутом
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := reservationRepo.Ping(pingCtx); err != nil {
		logger.Fatal("database unreachable", zap.Error(err))
	}
	cancelPing()

	// 3. Метрики
	reg := prometheus.NewRegistry()
	metrics := infra.NewMetrics(reg)

	// Экспортируем метрики для Prometheus
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		addr := fmt.Sprintf(":%d", cfg.Server.MetricsPort)
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()

	// 4. Ядро: двухъярусный кэш, контроллер допуска, распределитель аудита
	store := cache.NewTieredCache(
		cache.NewRedisStore(rdb),
		cache.NewMemoryStore(),
		logger,
		metrics,
	)

	ctrl := admission.NewController(cfg.Admission, metrics)

	distributor := audit.NewDistributor(
		auditRepo,
		audit.NewRedisBuffer(rdb, cfg.Audit.RecentBufferSize),
		audit.NewFeedPublisher(rdb, logger),
		cfg.Audit,
		logger,
		metrics,
	)
	distributor.Start()

	// 5. Инициализация слоев (Dependency Injection)
	secret := []byte(cfg.Auth.SharedSecret)
	validator := infrauth.NewValidator(secret)

	authService := service.NewAuthService(userRepo, secret, cfg.Auth.TokenTTL)
	reservationService := service.NewReservationService(reservationRepo, distributor)
	reportsService := service.NewReportsService(reservationRepo)
	auditService := service.NewAuditService(distributor, auditRepo)

	srv := server.NewBookingServer(
		cfg,
		logger,
		ctrl,
		store,
		validator,
		handler.NewAuthHandler(authService),
		handler.NewReservationHandler(reservationService),
		handler.NewReportsHandler(reportsService),
		handler.NewAuditHandler(auditService),
		handler.NewStatusHandler(ctrl),
	)

	httpSrv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      srv,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 6. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("booking API started", zap.String("addr", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	<-stop // Ждем сигнал
	logger.Info("booking API stopping...")

	// Даем 5 секунд на завершение запросов
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}

	// Дожимаем очередь аудита (Final Flush)
	distributor.Stop()
	logger.Info("booking API exited properly")
}
