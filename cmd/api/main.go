package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-flight-reservation/internal/api/handler"
	"github.com/sanosuguru/go-flight-reservation/internal/api/router"
	"github.com/sanosuguru/go-flight-reservation/internal/application"
	"github.com/sanosuguru/go-flight-reservation/internal/config"
	"github.com/sanosuguru/go-flight-reservation/internal/infrastructure/postgres"
	"github.com/sanosuguru/go-flight-reservation/internal/infrastructure/rabbitmq"
	redisinfra "github.com/sanosuguru/go-flight-reservation/internal/infrastructure/redis"
	"github.com/sanosuguru/go-flight-reservation/internal/pkg/logger"
	"github.com/sanosuguru/go-flight-reservation/internal/pkg/metrics"
	"github.com/sanosuguru/go-flight-reservation/internal/worker"
)

type eventPublisher interface {
	application.EventPublisher
	Close() error
}

func main() {
	// .env はローカル開発用（存在しなくてもよい）
	_ = godotenv.Load()

	cfg := config.Load()
	logger.Init(cfg.App.Env)
	defer logger.Sync()

	m := metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// DB
	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		logger.Fatal("DB接続エラー", zap.Error(err))
	}
	defer db.Close()

	if err := postgres.RunMigrations(db.DB, cfg.Database.Driver, cfg.Database.MigrationsPath); err != nil {
		logger.Fatal("マイグレーションエラー", zap.Error(err))
	}

	healthChecks := []handler.HealthCheck{
		{Name: "database", Check: func(ctx context.Context) error { return postgres.Ping(ctx, db) }},
	}

	// Redis は空席キャッシュと監査ワーカーの排他にのみ使うため、接続できなくても起動する
	var (
		cache  application.AvailabilityCache
		locker worker.Locker
	)
	redisClient := redisinfra.NewClient(&cfg.Redis)
	defer redisClient.Close()
	if err := redisinfra.Ping(ctx, redisClient); err != nil {
		logger.Warn("Redisに接続できないためキャッシュを無効にして起動します", zap.Error(err))
	} else {
		cache = redisinfra.NewAvailabilityCache(redisClient)
		locker = redisinfra.NewLockManager(redisClient)
		healthChecks = append(healthChecks, handler.HealthCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return redisinfra.Ping(ctx, redisClient) },
		})
	}

	// イベント発行（ブローカー未設定なら何もしない）
	var publisher eventPublisher = rabbitmq.NopPublisher{}
	if cfg.RabbitMQ.Enabled() {
		p, err := rabbitmq.NewPublisher(&cfg.RabbitMQ)
		if err != nil {
			logger.Warn("RabbitMQに接続できないためイベント発行を無効にします", zap.Error(err))
		} else {
			publisher = p
		}
	}
	defer publisher.Close()

	// リポジトリ・サービス
	flightRepo := postgres.NewFlightRepository(db)
	repos := application.Repositories{
		Flights:      flightRepo,
		Reservations: postgres.NewReservationRepository(db),
		Tickets:      postgres.NewTicketRepository(db),
		Payments:     postgres.NewPaymentRepository(db),
	}
	bookingService := application.NewBookingService(postgres.NewTxManager(db), repos, cache, publisher, application.BookingOptions{
		TxTimeout:          cfg.Booking.TxTimeout,
		LocatorMaxAttempts: cfg.Booking.LocatorMaxAttempts,
	})
	flightService := application.NewFlightService(flightRepo, cache, cfg.Booking.AvailabilityCacheTTL)

	e := router.New(router.Handlers{
		Booking: handler.NewBookingHandler(bookingService),
		Flight:  handler.NewFlightHandler(flightService),
		Health:  handler.NewHealthHandler(healthChecks...),
	}, router.Options{
		JWTSecret:   cfg.Auth.JWTSecret,
		Metrics:     m,
		MetricsAuth: cfg.Metrics,
	})
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	// 在庫監査ワーカー
	var auditor *worker.InventoryAuditor
	if cfg.Worker.AuditEnabled {
		auditor = worker.NewInventoryAuditor(flightRepo, locker, cfg.Worker.AuditInterval)
		go auditor.Start(ctx)
	}

	go func() {
		logger.Info("サーバー起動", zap.String("port", cfg.Server.Port), zap.String("db_driver", cfg.Database.Driver))
		if err := e.Start(fmt.Sprintf(":%s", cfg.Server.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("サーバー起動エラー", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("サーバーをシャットダウンしています...")

	if auditor != nil {
		auditor.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("サーバーシャットダウンエラー", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("サーバーが正常にシャットダウンしました")
}
