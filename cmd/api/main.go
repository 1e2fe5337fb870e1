package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/xavierca1/rwa-leads/internal/config"
	"github.com/xavierca1/rwa-leads/internal/infra/database"
	"github.com/xavierca1/rwa-leads/internal/infra/http/handlers"
	"github.com/xavierca1/rwa-leads/internal/infra/http/middleware"
	"github.com/xavierca1/rwa-leads/internal/infra/http/router"
	"github.com/xavierca1/rwa-leads/internal/infra/logger"
	"github.com/xavierca1/rwa-leads/internal/infra/mail"
	"github.com/xavierca1/rwa-leads/internal/infra/queue"
	"github.com/xavierca1/rwa-leads/internal/infra/session"
	"github.com/xavierca1/rwa-leads/internal/usecase"
)

const version = "1.0.0"

func main() {
	godotenv.Load()
	cfg := config.Load()

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "rwa-leads")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Database and schema
	db, dialect, err := database.NewDBConnection(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		log.Fatal("database unavailable", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	defer db.Close()

	reconciler := database.NewReconciler(db, dialect, database.LeadSchema, log)
	reconciler.OnPass = func(trigger string, res database.ReconcileResult) {
		result := "ok"
		switch {
		case res.Err != nil:
			result = "error"
		case res.TableAbsent:
			result = "table_absent"
		case len(res.Failed) > 0:
			result = "partial"
		}
		middleware.RecordReconciliation(trigger, result, len(res.Added))
	}

	reconciler.ReconcileAtBoot(ctx)
	if err := database.EnsureTable(ctx, db, dialect, database.LeadSchema); err != nil {
		log.Error("table bootstrap failed, admin pages will report maintenance", zap.Error(err))
	}

	repo := database.NewLeadRepository(db, dialect)

	// 2. Sessions
	sessions, closeSessions := newSessionManager(cfg, log)
	defer closeSessions()

	// 3. Lead notifications (optional)
	var (
		events usecase.LeadEventPublisher
		broker handlers.BrokerStatus
	)
	if cfg.NotificationsEnabled() {
		rabbitMQ, err := queue.NewRabbitMQ(cfg.RabbitMQ.URL)
		if err != nil {
			log.Error("rabbitmq unavailable, lead notifications disabled", zap.Error(err))
		} else {
			defer rabbitMQ.Close()
			events = queue.NewProducer(rabbitMQ.Ch)
			broker = rabbitMQ

			sender := mail.NewEmailSender(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.User, cfg.Mail.Password, cfg.Mail.From, cfg.Mail.NotifyTo)
			consumerCh, err := rabbitMQ.Conn.Channel()
			if err != nil {
				log.Error("open consumer channel", zap.Error(err))
			} else {
				worker := queue.NewWorker(consumerCh, sender, log.Named("worker"))
				go func() {
					if err := worker.Start(ctx, queue.QueueName); err != nil {
						log.Error("worker stopped", zap.Error(err))
					}
				}()
			}
		}
	}

	// 4. Use cases
	stepUC := usecase.NewSubmitStepUseCase(repo, reconciler, events, log)
	singleUC := usecase.NewSubmitLeadUseCase(repo, reconciler, events, log)
	listUC := usecase.NewListLeadsUseCase(repo, reconciler, cfg.Admin.PageSize, log)
	exportUC := usecase.NewExportLeadsUseCase(repo, reconciler, log)
	deleteUC := usecase.NewDeleteLeadUseCase(repo, reconciler, log)

	// 5. Handlers
	leadHandler := handlers.NewLeadHandler(stepUC, singleUC, sessions, log)
	adminHandler := handlers.NewAdminHandler(
		handlers.AdminCredentials{Username: cfg.Admin.Username, Password: cfg.Admin.Password},
		sessions, listUC, exportUC, deleteUC, reconciler, log,
	)
	healthHandler := handlers.NewHealthHandler(db, broker, reconciler, version)

	if cfg.Admin.Password == "" {
		log.Warn("ADMIN_PASSWORD is empty, admin login is disabled")
	}

	// 6. Router
	limiter := middleware.NewRateLimiter(cfg.Form.RateLimitPerMinute, time.Minute)
	defer limiter.Stop()
	if err := limiter.TrustProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("invalid TRUSTED_PROXIES", zap.Error(err))
	}

	handler := router.New(router.Options{
		CORSOrigins:    cfg.HTTP.CORSOrigins,
		SteppedEnabled: cfg.SteppedEnabled(),
		SingleEnabled:  cfg.SingleEnabled(),
		RateLimiter:    limiter,
	}, leadHandler, adminHandler, healthHandler)

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info("server listening",
		zap.String("addr", cfg.HTTP.Addr),
		zap.String("db_driver", dialect.Name()),
		zap.String("form_mode", cfg.Form.Mode),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("server failed", zap.Error(err))
	}
	log.Info("server stopped")
}

func newSessionManager(cfg *config.Config, log *zap.Logger) (*session.Manager, func()) {
	var (
		store   session.Store = session.NewMemoryStore()
		closeFn               = func() {}
	)
	if cfg.Session.Store == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := client.Ping(pingCtx).Err(); err != nil {
			log.Warn("redis not reachable yet, sessions will fail until it is", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		cancel()
		store = session.NewRedisStore(client)
		closeFn = func() { client.Close() }
	}

	secret := cfg.Session.Secret
	if secret == "" {
		log.Warn("SECRET_KEY is empty, using a random key: sessions will not survive a restart")
		secret = randomSecret()
	}

	mgr, err := session.NewManager(store, session.Options{
		Secret:   secret,
		TTL:      cfg.Session.TTL,
		Secure:   cfg.Session.CookieSecure,
		SameSite: session.ParseSameSite(cfg.Session.SameSite),
	}, log)
	if err != nil {
		log.Fatal("session manager", zap.Error(err))
	}
	return mgr, closeFn
}
