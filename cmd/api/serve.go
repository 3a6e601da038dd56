package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	analyticshandler "github.com/casacaminho/shelter-api/internal/handler/analytics"
	authhandler "github.com/casacaminho/shelter-api/internal/handler/auth"
	dashboardhandler "github.com/casacaminho/shelter-api/internal/handler/dashboard"
	"github.com/casacaminho/shelter-api/internal/handler/health"
	patienthandler "github.com/casacaminho/shelter-api/internal/handler/patient"
	promhandler "github.com/casacaminho/shelter-api/internal/handler/prometheus"
	roomhandler "github.com/casacaminho/shelter-api/internal/handler/room"
	stayhandler "github.com/casacaminho/shelter-api/internal/handler/stay"
	waitinglisthandler "github.com/casacaminho/shelter-api/internal/handler/waitinglist"

	"github.com/casacaminho/shelter-api/internal/config"
	"github.com/casacaminho/shelter-api/internal/middleware"
	"github.com/casacaminho/shelter-api/internal/notification"
	"github.com/casacaminho/shelter-api/internal/repository"
	"github.com/casacaminho/shelter-api/internal/repository/postgres"
	"github.com/casacaminho/shelter-api/internal/router"
	"github.com/casacaminho/shelter-api/internal/service/analytics"
	authsvc "github.com/casacaminho/shelter-api/internal/service/auth"
	"github.com/casacaminho/shelter-api/internal/service/dashboard"
	"github.com/casacaminho/shelter-api/internal/service/patient"
	"github.com/casacaminho/shelter-api/internal/service/placement"
	"github.com/casacaminho/shelter-api/internal/service/room"
	"github.com/casacaminho/shelter-api/internal/service/stay"
	"github.com/casacaminho/shelter-api/internal/service/waitinglist"
	"github.com/casacaminho/shelter-api/pkg/auth"
	"github.com/casacaminho/shelter-api/pkg/logger"
	"github.com/casacaminho/shelter-api/pkg/metrics"
	"github.com/casacaminho/shelter-api/pkg/security"
)

const metricsNamespace = "shelter"

func newServeCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, migrate bool) error {
	store, db, closeStore, err := openStore(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer closeStore()

	if migrate && db != nil {
		applied, err := postgres.NewMigrator(db, nil).Up(ctx)
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		log.Info().Int("applied", applied).Msg("Migrations up to date")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(metricsNamespace, reg)

	zapLogger, err := logger.NewZap(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("failed to build zap logger: %w", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	notifier := buildNotifier(cfg, m, zapLogger)
	engine := buildRouter(cfg, store, reg, m, notifier)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Server.Port).Str("driver", cfg.Database.Driver).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("Server failed")
			return err
		}
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
		return err
	}
	if err := notifier.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("Notifications still in flight at shutdown")
	}
	log.Info().Msg("Server exited properly")
	return nil
}

func buildNotifier(cfg *config.Config, m *metrics.Metrics, zapLogger *zap.Logger) *notification.Notifier {
	var patients, staff notification.Gateway
	if cfg.WhatsApp.Enabled() {
		patients = notification.NewWhatsAppGateway(notification.WhatsAppConfig{
			BaseURL:    cfg.WhatsApp.BaseURL,
			Token:      cfg.WhatsApp.Token,
			SenderID:   cfg.WhatsApp.SenderID,
			Timeout:    cfg.WhatsApp.Timeout,
			RetryCount: cfg.WhatsApp.RetryCount,
		}, zapLogger.Named("whatsapp"))
	} else {
		log.Warn().Msg("WhatsApp credentials not set, patient notifications disabled")
	}
	if cfg.SMTP.Enabled() {
		staff = notification.NewMailGateway(notification.MailConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	} else {
		log.Warn().Msg("SMTP not configured, staff alerts disabled")
	}
	return notification.NewNotifier(patients, staff, cfg.SMTP.StaffTo, cfg.Notification.Timeout, m)
}

func buildRouter(cfg *config.Config, store repository.Store, reg *prometheus.Registry, m *metrics.Metrics, notifier *notification.Notifier) *gin.Engine {
	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expiry())

	// Services
	dashboardSvc := dashboard.NewService(store, cfg.Dashboard.CacheTTL)
	invalidate := dashboardSvc.Invalidate
	placementSvc := placement.NewService(store, notifier, m, invalidate)
	patientSvc := patient.NewService(store, notifier, invalidate)
	roomSvc := room.NewService(store, invalidate)
	waitingListSvc := waitinglist.NewService(store, notifier, invalidate)
	staySvc := stay.NewService(store.Stays())
	analyticsSvc := analytics.NewService(store)
	authSvc := authsvc.NewService(store.Users(), jwtSvc, security.NewBcryptHasher(bcrypt.DefaultCost))

	var rateLimit *middleware.RateLimiterConfig
	if cfg.RateLimit.Enabled {
		rateLimit = &middleware.RateLimiterConfig{
			RPS:   cfg.RateLimit.RequestsPerSecond,
			Burst: cfg.RateLimit.Burst,
		}
	}
	headers := middleware.DefaultSecurityConfig()
	headers.HSTSMaxAge = cfg.Server.HSTSMaxAge

	r := router.NewRouter(middleware.NewAuthMiddleware(jwtSvc), router.Handlers{
		Health:      health.NewHandler(store, reg),
		Auth:        authhandler.NewHandler(authSvc),
		Patient:     patienthandler.NewHandler(patientSvc),
		Room:        roomhandler.NewHandler(roomSvc, placementSvc),
		WaitingList: waitinglisthandler.NewHandler(waitingListSvc, placementSvc),
		Stay:        stayhandler.NewHandler(staySvc, placementSvc),
		Dashboard:   dashboardhandler.NewHandler(dashboardSvc),
		Analytics:   analyticshandler.NewHandler(analyticsSvc),
		Metrics:     promhandler.New(metricsNamespace, reg),
	}, router.RouterConfig{
		Mode:           cfg.Server.Mode,
		RequestTimeout: cfg.Server.RequestTimeout,
		MaxBodySize:    cfg.Server.MaxBodyBytes,
		RateLimit:      rateLimit,
		CORSConfig:     middleware.DefaultCORSConfig(cfg.Server.AllowedOrigins...),
		Security:       headers,
	})
	r.Setup()
	return r.Engine()
}
