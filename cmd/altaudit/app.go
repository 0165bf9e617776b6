package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/user/alt-audit-service/internal/adapter/chromedp_fetcher"
	"github.com/user/alt-audit-service/internal/adapter/httpfetch"
	"github.com/user/alt-audit-service/internal/adapter/memory"
	natsadapter "github.com/user/alt-audit-service/internal/adapter/nats"
	"github.com/user/alt-audit-service/internal/adapter/postgres"
	redisadapter "github.com/user/alt-audit-service/internal/adapter/redis"
	"github.com/user/alt-audit-service/internal/repository"
	"github.com/user/alt-audit-service/internal/usecase"
	"github.com/user/alt-audit-service/pkg/config"
	"github.com/user/alt-audit-service/pkg/logger"
	"github.com/user/alt-audit-service/pkg/metrics"
)

// app owns the configured infrastructure of one command run.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	redis   *goredis.Client
	closers []func() error
}

func newApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	metrics.Init()
	return &app{cfg: cfg, logger: log}, nil
}

func (a *app) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	_ = a.logger.Sync()
	return errors.Join(errs...)
}

// closeInto closes a and joins any shutdown error into *errp.
func (a *app) closeInto(errp *error) {
	if err := a.Close(); err != nil {
		*errp = errors.Join(*errp, fmt.Errorf("shutdown: %w", err))
	}
}

func (a *app) scanConfig() usecase.ScanConfig {
	return usecase.ScanConfig{
		BatchSize:       a.cfg.ScanBatchSize,
		InterBatchDelay: a.cfg.ScanInterBatchDelay,
		FetchTimeout:    a.cfg.FetchTimeout,
		MaxURLs:         a.cfg.ScanMaxURLs,
		DemoDelay:       a.cfg.ScanDemoDelay,
	}
}

func (a *app) fetcher() (repository.PageFetcher, error) {
	switch a.cfg.FetchMode {
	case config.FetchModeBrowser:
		proxy := ""
		if len(a.cfg.FetchProxies) > 0 {
			proxy = a.cfg.FetchProxies[0]
		}
		f, err := chromedp_fetcher.New(chromedp_fetcher.Options{Proxy: proxy}, a.logger.Named("browser"))
		if err != nil {
			return nil, err
		}
		a.onClose(f.Close)
		a.logger.Info("Using headless browser fetcher")
		return f, nil
	default:
		f, err := httpfetch.New(httpfetch.Options{
			Proxies:   a.cfg.FetchProxies,
			ChromeTLS: a.cfg.FetchChromeTLS,
		}, a.logger.Named("http"))
		if err != nil {
			return nil, err
		}
		a.logger.Info("Using HTTP fetcher",
			zap.Bool("chrome_tls", a.cfg.FetchChromeTLS),
			zap.Int("proxies", len(a.cfg.FetchProxies)),
		)
		return f, nil
	}
}

func (a *app) redisClient(ctx context.Context) (*goredis.Client, error) {
	if a.redis != nil {
		return a.redis, nil
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     a.cfg.RedisAddr,
		Password: a.cfg.RedisPassword,
		DB:       a.cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("unable to connect to Redis at %s: %w", a.cfg.RedisAddr, err)
	}
	a.redis = rdb
	a.onClose(rdb.Close)
	a.logger.Info("Redis connection established", zap.String("addr", a.cfg.RedisAddr))
	return rdb, nil
}

// scanStore keeps scans in Redis when REDIS_ADDR is set and in memory
// otherwise.
func (a *app) scanStore(ctx context.Context) (repository.ScanStore, error) {
	if a.cfg.RedisAddr == "" {
		return memory.NewScanStore(a.cfg.ScanRetention), nil
	}
	rdb, err := a.redisClient(ctx)
	if err != nil {
		return nil, err
	}
	return redisadapter.NewScanStore(rdb, a.cfg.ScanRetention), nil
}

func (a *app) publishers(ctx context.Context) ([]repository.ProgressPublisher, error) {
	var out []repository.ProgressPublisher
	if a.cfg.RedisAddr != "" {
		rdb, err := a.redisClient(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, redisadapter.NewProgressPublisher(rdb, ""))
	}
	if a.cfg.NATSURL != "" {
		pub, err := natsadapter.Connect(a.cfg.NATSURL, a.cfg.NATSSubject)
		if err != nil {
			return nil, err
		}
		a.logger.Info("NATS connection established", zap.String("url", a.cfg.NATSURL))
		out = append(out, pub)
	}
	return out, nil
}

// exporter returns nil when POSTGRES_URL is not set.
func (a *app) exporter(ctx context.Context) (*postgres.AuditExportRepoImpl, error) {
	if a.cfg.PostgresURL == "" {
		return nil, nil
	}
	pool, err := pgxpool.New(ctx, a.cfg.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to reach database: %w", err)
	}
	a.onClose(func() error { pool.Close(); return nil })

	repo := postgres.NewAuditExportRepo(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	a.logger.Info("PostgreSQL export enabled")
	return repo, nil
}
