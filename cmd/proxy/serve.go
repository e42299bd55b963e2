package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/maltedev/wishlily-proxy/internal/api"
	"github.com/maltedev/wishlily-proxy/internal/cache"
	"github.com/maltedev/wishlily-proxy/internal/config"
	"github.com/maltedev/wishlily-proxy/internal/database"
	"github.com/maltedev/wishlily-proxy/internal/fetcher"
	"github.com/maltedev/wishlily-proxy/internal/metrics"
	"github.com/maltedev/wishlily-proxy/internal/resolver"
	"github.com/maltedev/wishlily-proxy/internal/scraper"
	"github.com/maltedev/wishlily-proxy/internal/wishlist"
	"github.com/redis/go-redis/v9"
)

func runServe(ctx context.Context, cfgFile string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := newLogger(os.Stdout, cfg.Logging)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	metrics.Init()

	var remote cache.Store
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		// Lookups degrade to misses while Redis is down.
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("redis not reachable, continuing with memory cache only", "addr", cfg.Redis.Addr, "error", err)
		}
		remote = cache.NewRedisStore(redisClient, cfg.Redis.KeyPrefix, cfg.Redis.TTL)
	}

	pages := cache.New(
		fetcher.New(fetcher.Config{
			UserAgent: cfg.Scraper.UserAgent,
			Timeout:   cfg.Scraper.FetchTimeout,
		}),
		cache.Config{
			MaxEntries:   cfg.Cache.MaxEntries,
			TTL:          cfg.Cache.TTL,
			FetchTimeout: cfg.Scraper.FetchTimeout,
		},
		remote,
		logger,
	)

	res, err := resolver.New(resolver.Config{
		BaseURL:   cfg.Server.PublicBaseURL,
		LoopHosts: cfg.Server.LoopHosts,
	})
	if err != nil {
		return fmt.Errorf("failed to build resolver: %w", err)
	}

	embeds, closeEmbeds, err := newWishlistService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeEmbeds()

	handlers := api.NewHandlers(
		scraper.NewService(pages, logger),
		res,
		embeds,
		cfg.Scraper.DefaultLocale,
		logger,
	)

	server := &http.Server{
		Addr: cfg.Server.Addr(),
		Handler: api.NewRouter(handlers, api.RouterOptions{
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			RequestTimeout: cfg.Server.RequestTimeout,
			Logger:         logger,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", server.Addr, "public_base_url", cfg.Server.PublicBaseURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
	}

	logger.Info("server stopped")
	return nil
}

// newWishlistService returns nil when no wishlist source is configured.
func newWishlistService(ctx context.Context, cfg *config.Config, logger *slog.Logger) (api.EmbedResolver, func(), error) {
	switch cfg.Wishlist.Source {
	case config.WishlistSourceHTTP:
		src := wishlist.NewHTTPSource(cfg.Wishlist.Endpoint, cfg.Wishlist.Timeout)
		return wishlist.NewService(src, logger), func() {}, nil

	case config.WishlistSourcePostgres:
		db, err := database.New(ctx, database.Config{
			DSN:      cfg.Database.DSN,
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			Database: cfg.Database.Name,
			SSLMode:  cfg.Database.SSLMode,
			MaxConns: cfg.Database.MaxConns,
			MinConns: cfg.Database.MinConns,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return wishlist.NewService(wishlist.NewPostgresSource(db), logger), db.Close, nil
	}

	logger.Info("wishlist source disabled, /embed will fail")
	return nil, func() {}, nil
}

func newLogger(w io.Writer, cfg config.LoggingConfig) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts)), nil
	}
	return slog.New(slog.NewJSONHandler(w, opts)), nil
}
