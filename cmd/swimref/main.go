package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/swimref/roster/internal/application"
	"github.com/swimref/roster/internal/briefing"
	"github.com/swimref/roster/internal/config"
	"github.com/swimref/roster/internal/documents"
	httptransport "github.com/swimref/roster/internal/http"
	"github.com/swimref/roster/internal/logging"
	"github.com/swimref/roster/internal/notify"
	"github.com/swimref/roster/internal/persistence"
	"github.com/swimref/roster/internal/persistence/memory"
	"github.com/swimref/roster/internal/persistence/postgres"
	"github.com/swimref/roster/internal/persistence/redis"
	"github.com/swimref/roster/internal/persistence/sqlite"
)

func main() {
	bootstrap := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		bootstrap.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogFormat, cfg.LogLevel, os.Stdout)
	if err != nil {
		bootstrap.Error("failed to configure logging", "error", err)
		os.Exit(1)
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("roster service stopped with error", "error", err)
		os.Exit(1)
	}
}

// app holds the wired service. Background loops are started by run.
type app struct {
	store      *application.Store
	adapter    persistence.Adapter
	dispatcher *notify.Dispatcher
	bridge     *notify.RedisBridge
	handler    http.Handler
	closers    []func() error
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			logger.Error("failed to release resources", "error", cerr)
		}
	}()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      cfg.Gemini.Timeout + 30*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.dispatcher.Run(gctx) })
	if a.bridge != nil {
		g.Go(func() error { return a.bridge.Run(gctx) })
	}
	g.Go(func() error {
		logger.Info("roster API listening", "addr", server.Addr, "storage", cfg.Storage, "documents", cfg.Documents)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (a *app, err error) {
	a = &app{}
	defer func() {
		if err != nil {
			_ = a.Close()
			a = nil
		}
	}()

	adapter, redisClient, err := openAdapter(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.adapter = adapter
	a.closers = append(a.closers, adapter.Close)

	hub := notify.NewHub(logger, nil)
	sinks := []notify.Sink{hub}
	if cfg.Redis.Fanout {
		if redisClient == nil {
			redisClient, err = redis.NewClient(ctx, redisOptions(cfg), logger)
			if err != nil {
				return nil, fmt.Errorf("connect notification fan-out: %w", err)
			}
			a.closers = append(a.closers, redisClient.Close)
		}
		a.bridge = notify.NewRedisBridge(redisClient, cfg.Redis.Prefix, uuid.NewString(), hub, logger)
		sinks = []notify.Sink{a.bridge}
	}
	if cfg.SMTP.Enabled() {
		sinks = append(sinks, notify.NewMailer(notify.SMTPConfig(cfg.SMTP), cfg.PublicURL, logger))
	}
	a.dispatcher = notify.NewDispatcher(notify.DefaultQueueSize, logger, sinks...)

	seedHash, err := application.CreatePasswordHash(cfg.SeedPassword, application.DefaultArgon2idParams)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}
	a.store, err = application.NewStore(application.StoreConfig{
		Adapter:          adapter,
		Publisher:        a.dispatcher,
		IDGenerator:      uuid.NewString,
		Retention:        &application.RetentionPolicy{PerRecipient: cfg.NotificationRetention},
		SeedPasswordHash: seedHash,
		Logger:           logger,
	})
	if err != nil {
		return nil, err
	}
	if err := a.store.Load(ctx); err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}

	auth, err := application.NewAuthService(application.AuthServiceConfig{
		Accounts: a.store,
		Secret:   []byte(cfg.SessionSecret),
		TTL:      cfg.SessionTTL,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	content, err := openContentStore(ctx, cfg, adapter)
	if err != nil {
		return nil, err
	}
	docs := application.NewDocumentService(a.store, content, logger)

	var generator briefing.TextGenerator
	if cfg.Gemini.APIKey != "" {
		gemini, err := briefing.NewGeminiGenerator(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			return nil, err
		}
		generator = gemini
	} else {
		logger.Warn("no Gemini API key configured; briefing requests will fail")
	}
	briefings := briefing.NewService(generator, cfg.Gemini.Timeout, logger)

	a.handler = httptransport.NewRouter(httptransport.RouterConfig{
		Auth:          httptransport.NewAuthHandler(auth, a.store, cfg.SecureCookies, logger),
		Users:         httptransport.NewUserHandler(a.store, logger),
		Competitions:  httptransport.NewCompetitionHandler(a.store, briefings, logger),
		Documents:     httptransport.NewDocumentHandler(docs, cfg.MaxUploadBytes, logger),
		Notifications: httptransport.NewNotificationHandler(a.store, hub, logger),
		Committee:     httptransport.NewCommitteeHandler(a.store, logger),
		Stats:         httptransport.NewStatsHandler(a.store, logger),
		Briefing:      briefing.Handler(briefings),
		Sessions:      auth,
		CORSOrigins:   cfg.CORSOrigins,
		Logger:        logger,
		Middleware:    []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
	})
	return a, nil
}

// openAdapter opens the configured snapshot backend. The Redis client is
// returned so the notification bridge can share it.
func openAdapter(ctx context.Context, cfg config.Config, logger *slog.Logger) (persistence.Adapter, *goredis.Client, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		logger.Warn("using in-memory storage; data is lost on restart")
		return memory.New(), nil, nil
	case config.StorageSQLite:
		adapter, err := sqlite.Open(ctx, sqlite.DefaultConfig(cfg.SQLiteDSN))
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		return adapter, nil, nil
	case config.StoragePostgres:
		adapter, err := postgres.Open(ctx, cfg.PostgresDSN, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		return adapter, nil, nil
	case config.StorageRedis:
		adapter, err := redis.Open(ctx, redisOptions(cfg), logger)
		if err != nil {
			return nil, nil, fmt.Errorf("open redis: %w", err)
		}
		return adapter, adapter.Client(), nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage %q", cfg.Storage)
	}
}

func redisOptions(cfg config.Config) redis.Options {
	return redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Prefix:   cfg.Redis.Prefix,
	}
}

func openContentStore(ctx context.Context, cfg config.Config, adapter persistence.Adapter) (application.ContentStore, error) {
	if cfg.Documents == config.DocumentsS3 {
		store, err := documents.NewS3Store(ctx, documents.S3Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		})
		if err != nil {
			return nil, fmt.Errorf("open document bucket: %w", err)
		}
		return store, nil
	}
	return documents.NewBlobStore(adapter, cfg.MaxUploadBytes), nil
}
