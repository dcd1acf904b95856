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

	charmlog "charm.land/log/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ripplechat/ripple/auth"
	"github.com/ripplechat/ripple/cockroach"
	"github.com/ripplechat/ripple/cockroach/migrator"
	"github.com/ripplechat/ripple/config"
	"github.com/ripplechat/ripple/metrics"
	rippleminio "github.com/ripplechat/ripple/minio"
	"github.com/ripplechat/ripple/pubsub"
	"github.com/ripplechat/ripple/service"
	"github.com/ripplechat/ripple/web"
)

const messageMediaBucket = "message-media"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	errLogger := slog.New(charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		ReportTimestamp: true,
	}))
	infoLogger := slog.New(charmlog.NewWithOptions(os.Stdout, charmlog.Options{
		ReportTimestamp: true,
	}))

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := pgxpool.New(ctx, cfg.CockroachURL)
	if err != nil {
		return fmt.Errorf("open cockroach connection pool: %w", err)
	}

	defer dbPool.Close()

	if err := dbPool.Ping(ctx); err != nil {
		return fmt.Errorf("ping cockroach: %w", err)
	}

	migrationStart := time.Now()
	infoLogger.Info("starting cockroach migrations")

	if err := migrator.Migrate(ctx, dbPool, cockroach.MigrationsFS); err != nil {
		return fmt.Errorf("migrate cockroach schema: %w", err)
	}

	infoLogger.Info("finished cockroach migrations", "took", time.Since(migrationStart))

	natsConn, err := pubsub.ConnectNats(cfg.NatsURL)
	if err != nil {
		return fmt.Errorf("connect nats: %w", err)
	}

	defer natsConn.Close()

	minioClient, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioSecure,
	})
	if err != nil {
		return fmt.Errorf("create minio client: %w", err)
	}

	blob := rippleminio.New(ctx, minioClient, cfg.CleanupTimeout)
	go func() {
		for err := range blob.Errs() {
			errLogger.Error("minio error", "error", err)
		}
	}()

	if err := blob.CreateReadOnlyBucket(ctx, messageMediaBucket); err != nil {
		return fmt.Errorf("create minio bucket: %w", err)
	}

	codec, err := auth.NewCodec(cfg.TokenKey, uint32((time.Hour * 24 * 7).Seconds()))
	if err != nil {
		return fmt.Errorf("create token codec: %w", err)
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	svc := service.New(&service.Config{
		Store:          cockroach.New(dbPool),
		Blob:           blob,
		PubSub:         natsConn,
		Logger:         errLogger,
		Metrics:        m,
		MediaURLPrefix: cfg.MediaURLPrefix,
		QueueTimeout:   cfg.QueueTimeout,
		MatchDebounce:  cfg.MatchDebounce,
		BaseCtx:        ctx,
	})

	go func() {
		for err := range svc.Errs() {
			errLogger.Error("service error", "error", err)
		}
	}()

	// Status updates expire on read; this reaps the dead rows.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := svc.PurgeExpiredStatusUpdates(ctx)
				if err != nil {
					errLogger.Error("purge expired status updates", "error", err)
					continue
				}
				if n != 0 {
					infoLogger.Info("purged expired status updates", "count", n)
				}
			}
		}
	}()

	handler := &web.Handler{
		Service:   svc,
		Logger:    errLogger,
		AuthCodec: codec,
		HealthCheck: func() error {
			pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			return dbPool.Ping(pingCtx)
		},
	}
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: handler,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errLogger.Error("server shutdown", "error", err)
		}
	}()

	infoLogger.Info("starting ripple server", "url", fmt.Sprintf("http://localhost:%d", cfg.Port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start ripple server: %w", err)
	}

	return svc.Close()
}
