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

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xela07ax/reservahub/internal/audit"
	"github.com/xela07ax/reservahub/internal/dashboard"
	"github.com/xela07ax/reservahub/internal/infra"
	infrauth "github.com/xela07ax/reservahub/internal/infra/auth"
)

// Дашборд деплоится отдельно от основного API. У процесса нет учетных
// данных к Postgres: доверие держится на подписи токена общим секретом,
// данные приходят из общего Redis либо через публичный API.
func main() {
	cfg, err := infra.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Контекст для управления жизненным циклом фоновых горутин
	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	validator := infrauth.NewValidator([]byte(cfg.Auth.SharedSecret))

	live := dashboard.NewLiveFeed(rdb, cfg.Audit.RecentBufferSize, logger)
	go live.Run(appCtx)

	srv := dashboard.NewServer(
		logger,
		validator,
		audit.NewRedisBuffer(rdb, cfg.Audit.RecentBufferSize),
		dashboard.NewUpstreamClient(cfg.Upstream, logger),
		live,
	)

	httpSrv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      srv,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("dashboard started", zap.String("addr", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	<-stop
	logger.Info("dashboard stopping...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	logger.Info("dashboard exited properly")
}
