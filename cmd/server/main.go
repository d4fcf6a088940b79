// Package main is the entry point of the admin console.
//
// main only reads configuration, builds the dependencies and starts the
// server. Everything else lives in internal/.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sakif/pin-admin/internal/api"
	"github.com/sakif/pin-admin/internal/auth"
	"github.com/sakif/pin-admin/internal/config"
	"github.com/sakif/pin-admin/internal/flash"
	"github.com/sakif/pin-admin/internal/handler"
	"github.com/sakif/pin-admin/internal/middleware"
	sqliteRepo "github.com/sakif/pin-admin/internal/repository/sqlite"
	"github.com/sakif/pin-admin/internal/server"
	"github.com/sakif/pin-admin/internal/service"
	"github.com/sakif/pin-admin/internal/snapshot"
	"github.com/sakif/pin-admin/web"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	// === 1. CONFIGURATION ===
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("resolving timezone: %w", err)
	}

	// === 2. LOGGING ===
	logger := newLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	// === 3. LOCAL STORAGE ===
	// The directory must exist before SQLite can create the file.
	if dir := filepath.Dir(cfg.DBPath); cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating database directory %s: %w", dir, err)
		}
	}
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	closers := []io.Closer{db}

	flashes, closer, err := newFlashStore(cfg, logger)
	if err != nil {
		db.Close()
		return err
	}
	if closer != nil {
		closers = append(closers, closer)
	}

	// === 4. SERVICES ===
	cache := snapshot.New(snapshot.Config{TTL: cfg.SnapshotTTL.Duration})
	metrics := middleware.NewMetrics(cache.Stats)
	client := api.New(api.Options{
		BaseURL:  cfg.APIBaseURL,
		Timeout:  cfg.APITimeout.Duration,
		Logger:   logger,
		Observer: metrics,
	})
	admin := service.NewAdmin(client, service.ClientDialer(client), cache, db, logger)

	sessions, err := auth.NewSessions(cfg.SessionSecret, cfg.SessionTTL.Duration, cfg.CookieSecure)
	if err != nil {
		return fmt.Errorf("configuring sessions: %w", err)
	}

	// === 5. PAGES ===
	renderer, err := handler.NewRenderer(web.FS, loc, logger)
	if err != nil {
		return fmt.Errorf("loading templates: %w", err)
	}
	h := handler.New(handler.Options{
		Admin:    admin,
		Sessions: sessions,
		Flashes:  flashes,
		Renderer: renderer,
		Location: loc,
		Logger:   logger,
	})

	// === 6. START ===
	srv, err := server.New(server.Config{
		Port:              cfg.Port,
		LoginRatePerMin:   cfg.LoginRatePerMin,
		ActivityRetention: cfg.ActivityRetention.Duration,
	}, server.Deps{
		Handler:  h,
		Admin:    admin,
		Sessions: sessions,
		Metrics:  metrics,
		Closers:  closers,
	}, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	logger.Info("console configured",
		slog.String("api", cfg.APIBaseURL),
		slog.String("database", cfg.DBPath),
		slog.Bool("redis_flash", cfg.RedisAddr != ""),
	)
	return srv.Start()
}

func newLogger(level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// newFlashStore keeps flash messages in Redis when REDIS_ADDR is set, so
// several console instances behind a load balancer share them. Otherwise
// they live in process memory.
func newFlashStore(cfg config.Config, logger *slog.Logger) (flash.Store, io.Closer, error) {
	if cfg.RedisAddr == "" {
		return flash.NewMemoryStore(flash.DefaultTTL), nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, nil, fmt.Errorf("connecting to redis at %s: %w", cfg.RedisAddr, err)
	}
	logger.Info("flash messages stored in redis", slog.String("addr", cfg.RedisAddr))
	return flash.NewRedisStore(rdb, "flash:", flash.DefaultTTL), rdb, nil
}
