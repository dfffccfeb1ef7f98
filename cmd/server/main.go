package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/listguard/internal/api"
	"github.com/ignite/listguard/internal/app"
	"github.com/ignite/listguard/internal/auth"
	"github.com/ignite/listguard/internal/config"
	"github.com/ignite/listguard/internal/domain"
	"github.com/ignite/listguard/internal/emailcheck"
	"github.com/ignite/listguard/internal/export"
	"github.com/ignite/listguard/internal/mail"
	"github.com/ignite/listguard/internal/pkg/distlock"
	"github.com/ignite/listguard/internal/pkg/logger"
	"github.com/ignite/listguard/internal/repository/memory"
	"github.com/ignite/listguard/internal/repository/postgres"
	"github.com/ignite/listguard/internal/service/admission"
	"github.com/ignite/listguard/internal/service/subscriber"
)

func fatal(msg string, err error) {
	logger.Error(msg, "error", err)
	logger.Sync()
	os.Exit(1)
}

// checkPortAvailable fails fast when a stale process still holds the port.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %w", port, addr, err)
	}
	return ln.Close()
}

func newRedis(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func main() {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		fatal("failed to load config", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.Log.Level))
	logger.SetRedactPII(cfg.Log.Redact())
	defer logger.Sync()

	host := cfg.Server.GetHost()
	if err := checkPortAvailable(host, cfg.Server.Port); err != nil {
		fatal("pre-flight check failed", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage: Postgres when configured, in-memory otherwise
	var (
		db    *sql.DB
		repos app.Repos
	)
	if cfg.Database.URL != "" {
		db, err = postgres.Open(ctx, cfg.Database.URL, cfg.Database.MaxOpenConns,
			cfg.Database.MaxIdleConns, cfg.Database.ConnLifetime())
		if err != nil {
			fatal("failed to connect to postgres", err)
		}
		defer db.Close()
		repos = app.PostgresRepos(postgres.NewRepos(db))
		logger.Info("storage initialized", "backend", "postgres")
	} else {
		repos = app.MemoryRepos(memory.New())
		logger.Warn("DATABASE_URL not set, using in-memory storage")
	}

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		redisClient, err = newRedis(cfg.Redis.URL)
		if err != nil {
			logger.Warn("redis unavailable, continuing without it", "error", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
			logger.Info("redis connected")
		}
	}

	classifier, err := emailcheck.BuildClassifier(cfg.Admission.FreeProviders, cfg.Admission.DisposableProviders,
		cfg.Admission.FreeProvidersFile, cfg.Admission.DisposableProvidersFile)
	if err != nil {
		fatal("failed to load provider lists", err)
	}
	free, disposable := classifier.Sizes()
	logger.Info("provider lists loaded", "free", free, "disposable", disposable)

	var dnsOpts []emailcheck.Option
	if redisClient != nil {
		dnsOpts = append(dnsOpts, emailcheck.WithCache(emailcheck.NewRedisCache(redisClient), cfg.Admission.DNSCacheTTL()))
	}
	dns := emailcheck.NewDNSValidator(net.DefaultResolver, cfg.Admission.DNSTimeout(), dnsOpts...)

	signingKey := cfg.Verification.SigningKey
	if signingKey == "" {
		signingKey, err = domain.NewToken()
		if err != nil {
			fatal("failed to generate signing key", err)
		}
		logger.Warn("SIGNING_KEY not set, verification links will not survive a restart")
	}

	var mailer mail.Mailer = mail.LogMailer{}
	if cfg.SES.Enabled {
		ses, err := mail.NewSESMailer(ctx, mail.SESConfig{
			Region:    cfg.SES.Region,
			AccessKey: cfg.SES.AccessKey,
			SecretKey: cfg.SES.SecretKey,
			FromEmail: cfg.SES.FromEmail,
			FromName:  cfg.SES.FromName,
			Timeout:   cfg.SES.Timeout(),
		})
		if err != nil {
			fatal("failed to initialize SES", err)
		}
		mailer = ses
		logger.Info("SES mailer initialized", "region", cfg.SES.Region)
	}

	var archiver *export.Archiver
	if cfg.Export.Enabled() {
		archiver, err = export.NewS3Archiver(ctx, cfg.Export.S3Bucket, cfg.Export.S3Region, cfg.Export.Prefix)
		if err != nil {
			fatal("failed to initialize export archiver", err)
		}
		logger.Info("export archiving enabled", "bucket", cfg.Export.S3Bucket)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc := app.Build(repos, app.Options{
		Links:              subscriber.NewLinks(cfg.Verification.BaseURL, signingKey),
		Classifier:         classifier,
		DNS:                dns,
		Locker:             distlock.NewFactory(redisClient, db, cfg.Admission.ImportLockTTL()),
		Mailer:             mailer,
		Metrics:            admission.NewMetrics(reg),
		Archiver:           archiver,
		BlacklistOnFailure: cfg.Admission.DefaultBlacklistOnFailure(),
	})

	server := api.NewServer(cfg.Server, svc, auth.NewManager(svc.Accounts), api.RouteOptions{
		Gatherer: reg,
		Health:   api.NewHealthChecker(db, redisClient),
	})

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", host, cfg.Server.Port)
		logger.Info("starting server", "addr", addr)
		if err := server.ListenAndServe(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("server error", err)
		}
	}()

	<-done
	logger.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	logger.Info("server stopped")
}
