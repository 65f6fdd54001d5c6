package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/example/conference-portal/internal/application"
	"github.com/example/conference-portal/internal/campus"
	"github.com/example/conference-portal/internal/config"
	httptransport "github.com/example/conference-portal/internal/http"
	"github.com/example/conference-portal/internal/logging"
	"github.com/example/conference-portal/internal/persistence"
	"github.com/example/conference-portal/internal/persistence/postgres"
	"github.com/example/conference-portal/internal/persistence/sqlite"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the portal API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := logging.NewJSON(opts.stdout, opts.logLevel(cfg.LogLevel))
			return runServer(cmd.Context(), cfg, logger, nil)
		},
	}
}

// portalStore is a persistence.Store that can report its health.
type portalStore interface {
	persistence.Store
	Ping(ctx context.Context) error
}

// openStore picks the backend from the database URL: postgres:// URLs use
// Postgres, anything else is treated as a SQLite path.
func openStore(databaseURL string, logger *slog.Logger) (portalStore, error) {
	if postgres.IsURL(databaseURL) {
		return postgres.Open(postgres.DefaultConfig(databaseURL), logger)
	}
	return sqlite.Open(databaseURL, logger)
}

// runServer serves the API on ln until ctx is cancelled. A nil ln listens on
// the configured port.
func runServer(ctx context.Context, cfg config.Config, logger *slog.Logger, ln net.Listener) error {
	store, err := openStore(cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return err
	}

	if cfg.AdminEmail != "" {
		accounts := application.NewAdminAccountService(store, nil, time.Now, logger)
		created, err := accounts.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword, "")
		if err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
		if created {
			logger.InfoContext(ctx, "admin account created", "email", cfg.AdminEmail)
		}
	}

	catalog := campus.Default()
	if cfg.MapsFile != "" {
		loaded, err := campus.LoadFile(cfg.MapsFile)
		if err != nil {
			return fmt.Errorf("load maps: %w", err)
		}
		catalog = loaded
	}
	maps := campus.NewSource(catalog)

	speakerAuth := application.NewSpeakerAuthService(store, application.SpeakerAuthOptions{
		Secret:         []byte(cfg.SessionSecret),
		TTL:            cfg.SpeakerTokenTTL,
		DeveloperLogin: cfg.DeveloperLogin,
		Logger:         logger,
	})
	authService := application.NewAuthServiceWithLogger(store, store, nil, func() string { return randomHex(32) }, time.Now, cfg.AdminSessionTTL, logger)
	speakerService := application.NewSpeakerServiceWithLogger(store, logger)
	scheduleService := application.NewScheduleServiceWithLogger(store, cfg.ScheduleCacheTTL, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Health:           httptransport.NewHealthHandler(store, logger),
		SpeakerAuth:      httptransport.NewSpeakerAuthHandler(speakerAuth, logger),
		AdminAuth:        httptransport.NewAuthHandler(authService, logger),
		Speakers:         httptransport.NewSpeakerHandler(speakerService, logger),
		Schedule:         httptransport.NewScheduleHandler(scheduleService, logger),
		Maps:             httptransport.NewMapHandler(maps, logger),
		RequireAdmin:     httptransport.RequireAdmin(authService, logger),
		RequirePrincipal: httptransport.RequirePrincipal(speakerAuth, authService, logger),
		Middleware:       []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
	})

	if ln == nil {
		ln, err = net.Listen("tcp", fmt.Sprintf(":%d", cfg.HTTPPort))
		if err != nil {
			return err
		}
	}

	server := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return logging.ContextWithLogger(context.Background(), logger) },
	}

	cronLogger := slogCronLogger{logger: logger.With("component", "cron")}
	jobs := cron.New(
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)
	if _, err := jobs.AddFunc(cfg.SessionPruneSpec, func() {
		if err := authService.PruneExpiredSessions(ctx); err != nil {
			logger.WarnContext(ctx, "session prune failed", "error", err)
		}
	}); err != nil {
		ln.Close()
		return fmt.Errorf("schedule session prune: %w", err)
	}
	jobs.Start()

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.InfoContext(groupCtx, "portal API listening", "addr", ln.Addr().String())
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		<-jobs.Stop().Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
			return err
		}
		logger.Info("portal API stopped")
		return nil
	})
	if cfg.MapsFile != "" {
		group.Go(func() error {
			if err := maps.Watch(groupCtx, cfg.MapsFile, logger); err != nil {
				logger.WarnContext(groupCtx, "map catalog watcher stopped", "error", err)
			}
			return nil
		})
	}

	return group.Wait()
}

func randomHex(bytes int) string {
	if bytes <= 0 {
		bytes = 16
	}
	buf := make([]byte, bytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}

// slogCronLogger adapts slog to cron.Logger.
type slogCronLogger struct {
	logger *slog.Logger
}

func (l slogCronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l slogCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
