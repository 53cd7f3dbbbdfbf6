package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/sparkboard/internal/application"
	"github.com/example/sparkboard/internal/changefeed"
	"github.com/example/sparkboard/internal/config"
	httptransport "github.com/example/sparkboard/internal/http"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadRuntime(cmd)
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), cfg, logger)
		},
	}
}

func runServer(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	s, err := openMigratedStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if cerr := s.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	hub := changefeed.NewHub()
	defer hub.Close()

	publisher, stopFeed, err := startChangeFeed(ctx, cfg, hub, logger)
	if err != nil {
		return fmt.Errorf("start change feed: %w", err)
	}
	defer stopFeed()

	handler := newHandler(ctx, cfg, s, hub, publisher, logger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("sparkboard API listening", "addr", server.Addr, "driver", cfg.DatabaseDriver)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// newHandler wires services and handlers over s. Change events are written to
// publisher and read back from hub.
func newHandler(ctx context.Context, cfg config.Config, s store, hub *changefeed.Hub, publisher changefeed.Publisher, logger *slog.Logger) http.Handler {
	now := time.Now

	authService := application.NewAuthServiceWithLogger(s, s, newID, newToken, now, cfg.SessionTTL, logger).WithPublisher(publisher)
	userService := application.NewUserServiceWithLogger(s, s, now, logger).WithPublisher(publisher)
	badgeService := application.NewBadgeServiceWithLogger(s, newID, now, logger).WithPublisher(publisher)
	awardService := application.NewAwardServiceWithLogger(s, s, s, newID, now, logger).WithPublisher(publisher)
	sparkService := application.NewSparkServiceWithLogger(s, newID, now, logger).WithPublisher(publisher)
	analyticsService := application.NewAnalyticsServiceWithLogger(s, cfg.AnalyticsTTL, now, logger)

	analyticsFeed := hub.Subscribe(64)
	go func() {
		defer analyticsFeed.Close()
		analyticsService.Watch(ctx, analyticsFeed)
	}()

	cookies := httptransport.NewSessionCookies(cfg.CookieHashKey, cfg.CookieBlockKey, cfg.SessionTTL, cfg.CookieSecure)

	return httptransport.NewRouter(httptransport.RouterConfig{
		Auth:           httptransport.NewAuthHandler(authService, cookies, logger),
		Users:          httptransport.NewUserHandler(userService, logger),
		Badges:         httptransport.NewBadgeHandler(badgeService, awardService, logger),
		Sparks:         httptransport.NewSparkHandler(sparkService, logger),
		Events:         httptransport.NewEventsHandler(hub, logger),
		Analytics:      httptransport.NewAnalyticsHandler(analyticsService, logger),
		RequireSession: httptransport.RequireSession(authService, cookies, logger),
		Middleware:     []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
	})
}
