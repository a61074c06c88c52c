package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/iliyamo/sports-marketplace/internal/config"
	"github.com/iliyamo/sports-marketplace/internal/database"
	"github.com/iliyamo/sports-marketplace/internal/handler"
	"github.com/iliyamo/sports-marketplace/internal/metrics"
	"github.com/iliyamo/sports-marketplace/internal/middleware"
	"github.com/iliyamo/sports-marketplace/internal/notify"
	"github.com/iliyamo/sports-marketplace/internal/repository"
	"github.com/iliyamo/sports-marketplace/internal/router"
	"github.com/iliyamo/sports-marketplace/internal/scheduler"
	"github.com/iliyamo/sports-marketplace/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := config.NewLogger(cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return err
	}
	defer db.Close()
	if cfg.AutoMigrate {
		mdb, err := database.OpenMigrations(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			return err
		}
		if err := database.MigrateUp(mdb); err != nil {
			return err
		}
		logger.Info("migrations applied")
	}

	// Redis backs the rate limiter, the response cache and the job lock.
	// Every one of them degrades to in-process behaviour without it.
	rdb := config.NewRedisClient(config.LoadRedisConfig(), logger)
	if rdb != nil {
		defer rdb.Close()
	}

	m := metrics.New(nil)
	repo := repository.New(db)

	// ---- notifications ----
	var email notify.EmailSender = notify.NewStubEmailSender(logger)
	if sg := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.Email.SendGridAPIKey,
		FromEmail: cfg.Email.FromEmail,
		FromName:  cfg.Email.FromName,
	}, logger); sg != nil {
		email = sg
	}
	consumer := notify.NewConsumer(cfg.AMQP.URL, repo.Notifications, repo.Users, email, logger, m)

	var bg sync.WaitGroup
	var pub notify.Publisher
	if cfg.AMQP.URL != "" {
		amqpPub := notify.NewAMQPPublisher(cfg.AMQP.URL, logger)
		defer amqpPub.Close()
		pub = amqpPub
		if cfg.AMQP.RunConsumer {
			bg.Add(1)
			go func() {
				defer bg.Done()
				if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("notification consumer stopped", zap.Error(err))
				}
			}()
		}
	} else {
		logger.Info("RABBITMQ_URL not set, delivering notifications in-process")
		pub = notify.NewDirectPublisher(consumer)
	}
	dispatcher := notify.NewDispatcher(pub, logger, m, cfg.AMQP.DispatchBuffer)
	bg.Add(1)
	go func() {
		defer bg.Done()
		dispatcher.Run(ctx)
	}()

	// ---- services ----
	deps := service.Deps{
		Store:    service.NewSQLStore(repo),
		Notifier: dispatcher,
		Log:      logger,
		Metrics:  m,
	}
	accounts := service.NewAccountService(deps, cfg.BcryptCost)
	catalog := service.NewCatalogService(deps)
	bookings := service.NewBookingService(deps, cfg.Scheduler.PendingTTL)
	payments := service.NewPaymentService(deps, service.SimulatedGateway{})
	refunds := service.NewRefundService(deps)
	reviews := service.NewReviewService(deps)
	notifications := service.NewNotificationService(deps)
	reports := service.NewReportService(deps)

	// ---- scheduled jobs ----
	var locker scheduler.Locker
	if rdb != nil {
		locker = scheduler.NewRedisLocker(rdb)
	}
	sched := scheduler.NewScheduler(logger, m, locker, cfg.Scheduler.JobLockTTL)
	sched.Add(scheduler.ExpirePending(bookings, cfg.Scheduler.SweepInterval))
	sched.Add(scheduler.KPIReport(reports, cfg.Scheduler.ReportInterval))
	sched.Add(scheduler.PurgeTokens(repo.Tokens, cfg.Scheduler.TokenPurge, cfg.Scheduler.TokenRetain, time.Now))
	if cfg.Scheduler.Enabled {
		sched.Start(ctx)
	}
	defer sched.Stop()

	// ---- HTTP ----
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handler.ErrorHandler(logger)
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(logger))
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, logger))
	e.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb, logger))

	checks := map[string]handler.Check{"mysql": db.PingContext}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	router.Register(e, router.Handlers{
		Health:  handler.Health(checks),
		Metrics: promhttp.Handler(),
		Auth: handler.NewAuthHandler(handler.AuthConfig{
			JWTSecret:      cfg.JWTSecret,
			AccessTTLMin:   cfg.AccessTTLMin,
			RefreshTTLDays: cfg.RefreshTTLDays,
		}, accounts, repo.Tokens),
		Catalog:       handler.NewCatalogHandler(catalog, reviews),
		Reservations:  handler.NewReservationHandler(bookings, payments, refunds),
		Reviews:       handler.NewReviewHandler(reviews),
		Notifications: handler.NewNotificationHandler(notifications),
		Admin:         handler.NewAdminHandler(refunds, bookings, reports, sched),
	}, cfg.JWTSecret)

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		stop()
		bg.Wait()
		return err
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	sched.Stop()
	// the dispatcher drains its buffer once ctx is done
	bg.Wait()
	return nil
}
