package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"receptionist-platform/internal/appointments"
	"receptionist-platform/internal/audit"
	"receptionist-platform/internal/auth"
	"receptionist-platform/internal/billing"
	"receptionist-platform/internal/calls"
	"receptionist-platform/internal/config"
	"receptionist-platform/internal/events"
	"receptionist-platform/internal/httpapi"
	"receptionist-platform/internal/lifecycle"
	"receptionist-platform/internal/numbers"
	"receptionist-platform/internal/orgs"
	"receptionist-platform/internal/usage"
	"receptionist-platform/internal/webhooks"
	"receptionist-platform/pkg/logger"
	"receptionist-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	// Stores
	callStore := calls.NewPostgresStore(db)
	numberStore := numbers.NewPostgresStore(db)
	orgStore := orgs.NewPostgresStore(db)
	apptStore := appointments.NewPostgresStore(db)
	auditSvc := audit.NewService(audit.NewPostgresRepo(db))

	// Booking intents flow over the in-process bus so a scheduling failure
	// never fails the webhook that produced the intent.
	bus := events.NewBus()
	apptSvc := appointments.NewService(apptStore, callStore, appointments.HeuristicExtractor{})
	bus.SubscribeBookingIntent(apptSvc.HandleBookingIntent)

	reconciler := lifecycle.NewReconciler(callStore, lifecycle.NewRedisDeduper(rdb, 0), bus)

	billingSvc := billing.NewService(nil, billing.Plan{
		Currency:         "USD",
		FlatFeeCents:     cfg.Billing.FlatFeeCents,
		StaffHourlyCents: cfg.Billing.StaffHourlyCents,
	})
	usageSvc := usage.NewService(usage.NewPostgresRepo(db, callStore), billingSvc)

	webhookHandlers := webhooks.Handlers{
		Reconciler:             reconciler,
		Numbers:                numberStore,
		Audit:                  auditSvc,
		VoiceSigningSecret:     cfg.Webhooks.VoiceSigningSecret,
		AutomationSharedSecret: cfg.Webhooks.AutomationSharedSecret,
	}
	apiHandlers := httpapi.Handlers{
		Auth:         authManager,
		Usage:        usageSvc,
		Appointments: apptStore,
	}
	adminHandlers := httpapi.AdminHandlers{
		Orgs:    orgStore,
		Numbers: numberStore,
		Audit:   auditSvc,
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, routeDeps{
		AuthMW:   auth.RequireAccessToken(authManager),
		Webhooks: webhookHandlers,
		API:      apiHandlers,
		Admin:    adminHandlers,
		Members:  orgStore,
		DB:       db,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
