package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/chitfund-portal/api"
	"github.com/frahmantamala/chitfund-portal/internal"
	"github.com/frahmantamala/chitfund-portal/internal/access"
	accessMemory "github.com/frahmantamala/chitfund-portal/internal/access/memory"
	accessPostgres "github.com/frahmantamala/chitfund-portal/internal/access/postgres"
	"github.com/frahmantamala/chitfund-portal/internal/activity"
	activityPostgres "github.com/frahmantamala/chitfund-portal/internal/activity/postgres"
	"github.com/frahmantamala/chitfund-portal/internal/auth"
	"github.com/frahmantamala/chitfund-portal/internal/core/events"
	"github.com/frahmantamala/chitfund-portal/internal/database"
	"github.com/frahmantamala/chitfund-portal/internal/otp"
	"github.com/frahmantamala/chitfund-portal/internal/portal"
	"github.com/frahmantamala/chitfund-portal/internal/scheduler"
	"github.com/frahmantamala/chitfund-portal/internal/session"
	"github.com/frahmantamala/chitfund-portal/internal/transport/rest"
	"github.com/frahmantamala/chitfund-portal/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

// Dependencies is the process-wide object graph. The monitor is created once
// here and closed on shutdown.
type Dependencies struct {
	Config    *internal.Config
	Logger    *slog.Logger
	DB        *database.DB
	Bus       *events.EventBus
	Monitor   *activity.Monitor
	Archive   *activityPostgres.Archive
	Issuer    *session.Issuer
	Tokens    *auth.JWTTokenManager
	Access    *access.Service
	OTP       *otp.Service
	SMS       *otp.GatewaySender
	Scheduler *scheduler.Scheduler
}

func startHTTPServer() {
	ctx := context.Background()

	deps, err := initializeDependencies(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	if _, err := api.Load(ctx); err != nil {
		deps.Logger.Error("OpenAPI document is invalid", "error", err)
		os.Exit(1)
	}

	cfg := deps.Config.Server
	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           setupRoutes(deps),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	deps.Scheduler.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		deps.Logger.Info("Starting HTTP server", "address", addr, "env", deps.Config.Env, "driver", deps.Config.Database.Driver)
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		shutdownCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		deps.Close(shutdownCtx)
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("Server failed to start", "error", err)
			deps.Close(ctx)
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func setupRoutes(deps *Dependencies) http.Handler {
	lg := deps.Logger
	authorizer := auth.NewAuthorizer(deps.Tokens, deps.Monitor)

	health := rest.NewHealthHandler().Register("activity", func(context.Context) (map[string]any, error) {
		return map[string]any{"events": deps.Monitor.Len(), "capacity": deps.Monitor.Capacity()}, nil
	})
	activityHandler := activity.NewHandler(deps.Monitor, deps.Config.Activity.QueryLimit, lg)

	if deps.DB != nil {
		health.Register("database", func(ctx context.Context) (map[string]any, error) {
			ctx, cancel := internal.CheckTimeout(ctx, 0)
			defer cancel()
			return map[string]any{"driver": deps.DB.Driver}, deps.DB.Ping(ctx)
		})
	}
	if deps.Archive != nil {
		activityHandler.WithArchive(deps.Archive)
	}

	return rest.NewRouter(rest.Dependencies{
		Health:         health,
		Auth:           auth.NewHandler(authorizer, lg),
		Authorizer:     authorizer,
		Access:         access.NewHandler(deps.Access, deps.Issuer, lg),
		Activity:       activityHandler,
		OTP:            otp.NewHandler(deps.OTP, lg),
		Portal:         portal.NewHandler(lg),
		Issuer:         deps.Issuer,
		Events:         deps.Monitor,
		AllowedOrigins: deps.Config.Server.Origins(),
	}, lg)
}

func initializeDependencies(ctx context.Context) (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	lg := logger.LoggerWrapper()

	db, err := database.Open(ctx, config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if db != nil && config.Database.AutoMigrate {
		if err := database.Migrate(ctx, db, false); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	bus := events.NewEventBus(lg)
	monitor := activity.NewMonitor(config.Activity.Capacity, lg,
		activity.WithNotifier(activity.NewBusNotifier(bus, lg)))

	var repo access.Repository = accessMemory.NewRepository()
	var archive *activityPostgres.Archive
	if db != nil {
		repo = accessPostgres.NewAccessRequestRepository(db.Gorm)
		archive = activityPostgres.NewArchive(db.SQL, lg)
		archive.RegisterEventHandlers(bus)
	}
	access.NewEventHandler(lg).RegisterEventHandlers(bus)

	jobs := scheduler.NewScheduler(lg)
	if err := jobs.AddPrune(config.Activity.PruneSchedule, monitor, config.Activity.Retention); err != nil {
		return nil, fmt.Errorf("failed to schedule activity prune: %w", err)
	}
	if archive != nil {
		if err := jobs.AddArchiveCleanup(config.Activity.ArchiveSchedule, archive, config.Activity.ArchiveRetention); err != nil {
			return nil, fmt.Errorf("failed to schedule archive cleanup: %w", err)
		}
	}

	var sender otp.Sender = otp.NewLogSender(lg)
	var sms *otp.GatewaySender
	if config.OTP.GatewayURL != "" {
		sms = otp.NewGatewaySender(otp.GatewayConfig{
			URL:        config.OTP.GatewayURL,
			APIKey:     config.OTP.GatewayAPIKey,
			Timeout:    config.OTP.GatewayTimeout,
			MaxWorkers: config.OTP.GatewayWorkers,
		}, lg)
		sender = sms
	}
	otpService := otp.NewService(otp.Config{
		TTL:            config.OTP.TTL,
		MaxAttempts:    config.OTP.MaxAttempts,
		ResendInterval: config.OTP.ResendInterval,
		Length:         config.OTP.Length,
		BCryptCost:     config.OTP.BCryptCost,
	}, sender, monitor, lg)

	return &Dependencies{
		Config:    config,
		Logger:    lg,
		DB:        db,
		Bus:       bus,
		Monitor:   monitor,
		Archive:   archive,
		Issuer:    session.NewIssuer(config.Session.MaxAge, config.SecureCookies()),
		Tokens:    auth.NewJWTTokenManager(config.Security.JWTSecret, config.Security.TokenTTL, config.Security.Issuer),
		Access:    access.NewService(repo, bus, lg),
		OTP:       otpService,
		SMS:       sms,
		Scheduler: jobs,
	}, nil
}

// Close stops background jobs and the sms workers, then the monitor, waits
// for in-flight event handlers and closes the database.
func (d *Dependencies) Close(ctx context.Context) {
	d.Scheduler.Stop(ctx)
	if d.SMS != nil {
		d.SMS.Shutdown()
	}
	d.Monitor.Close()

	if !d.Bus.Wait(ctx) {
		d.Logger.Warn("event handlers still running at shutdown")
	}
	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			d.Logger.Error("Database close error", "error", err)
		}
	}
}
