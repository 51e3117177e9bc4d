package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Miraines/MoonyAndStarry/session-auth/internal/adapters/db/memory"
	"github.com/Miraines/MoonyAndStarry/session-auth/internal/adapters/db/postgres"
	myRedisRepo "github.com/Miraines/MoonyAndStarry/session-auth/internal/adapters/db/redis"
	transport "github.com/Miraines/MoonyAndStarry/session-auth/internal/adapters/transport/http"
	"github.com/Miraines/MoonyAndStarry/session-auth/internal/app/auth/hasher"
	"github.com/Miraines/MoonyAndStarry/session-auth/internal/app/auth/jwt"
	appsvc "github.com/Miraines/MoonyAndStarry/session-auth/internal/app/auth/service"
	"github.com/Miraines/MoonyAndStarry/session-auth/internal/domain/auth/repo"
	"github.com/Miraines/MoonyAndStarry/session-auth/internal/infra/config"
	lg "github.com/Miraines/MoonyAndStarry/session-auth/internal/infra/log"
	"github.com/Miraines/MoonyAndStarry/session-auth/internal/infra/metrics"
	"github.com/Miraines/MoonyAndStarry/session-auth/internal/infra/migrate"
	"github.com/Miraines/MoonyAndStarry/session-auth/internal/infra/server"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const storeProbeInterval = 30 * time.Second

func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return runServe(cmd.Context(), cfg)
		},
	}
}

// store bundles the selected account backend with its probe and release hooks.
type store struct {
	accounts repo.AccountRepo
	ping     func(context.Context) error
	close    func()
}

func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (*store, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		db, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("db handle: %w", err)
		}
		if err := migrate.Up(sqlDB); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		return &store{
			accounts: postgres.NewPostgresAccountRepo(db),
			ping:     sqlDB.PingContext,
			close:    func() { _ = sqlDB.Close() },
		}, nil

	case config.StoreDriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		return &store{
			accounts: myRedisRepo.NewRedisAccountRepo(client, "session-auth:"),
			ping:     func(ctx context.Context) error { return client.Ping(ctx).Err() },
			close:    func() { _ = client.Close() },
		}, nil

	default:
		log.Warn("using the in-memory store; accounts are lost on restart")
		return &store{
			accounts: memory.NewMemoryAccountRepo(),
			ping:     func(context.Context) error { return nil },
			close:    func() {},
		}, nil
	}
}

func runServe(ctx context.Context, cfg *config.Config) error {
	zapLog, err := lg.New(cfg.LogLevel, cfg.IsDev())
	if err != nil {
		return err
	}
	defer func() { _ = zapLog.Sync() }()

	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}

	st, err := openStore(ctx, cfg, zapLog)
	if err != nil {
		zapLog.Error("store unavailable", zap.String("driver", cfg.StoreDriver), zap.Error(err))
		return err
	}
	defer st.close()

	jwtUtil, err := jwt.NewJWTUtil(jwt.Options{
		Secret:     []byte(cfg.JWTSecret),
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
		Issuer:     cfg.Issuer,
	})
	if err != nil {
		zapLog.Error("failed to init JWT util", zap.Error(err))
		return err
	}

	svc := appsvc.New(
		st.accounts,
		hasher.New(hasher.DefaultParams, cfg.PasswordPepper),
		jwtUtil,
		validator.New(),
		appsvc.Options{StoreTimeout: cfg.StoreTimeout, Logger: zapLog},
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	rec := metrics.NewCollector(reg)

	h := transport.NewHandler(svc, transport.CookieOptions{
		Domain:   cfg.CookieDomain,
		Secure:   cfg.CookieSecure,
		SameSite: cfg.CookieSameSite,
	}, zapLog, rec)
	router := transport.NewRouter(h, svc, transport.RouterOptions{
		Logger:           zapLog,
		Metrics:          rec,
		Gatherer:         reg,
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: cfg.AllowCredentials,
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	srvOpts := server.Options{Addr: cfg.ServerAddress}
	if cfg.TLSEnabled() {
		srvOpts.CertFile = cfg.HTTPSCertFile
		srvOpts.KeyFile = cfg.HTTPSKeyFile
	}
	g.Go(func() error {
		return server.StartHTTPServer(ctx, srvOpts, router, zapLog)
	})
	g.Go(func() error {
		probeStore(ctx, st.ping, storeProbeInterval, cfg.StoreTimeout, zapLog)
		return nil
	})

	zapLog.Info("session auth started",
		zap.String("addr", cfg.ServerAddress),
		zap.String("store", cfg.StoreDriver),
		zap.Bool("tls", cfg.TLSEnabled()),
	)
	if err := g.Wait(); err != nil {
		zapLog.Error("server terminated", zap.Error(err))
		return err
	}
	zapLog.Info("shutdown complete")
	return nil
}

// probeStore pings the store until ctx is done and logs state changes.
func probeStore(ctx context.Context, ping func(context.Context) error, every, timeout time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	healthy := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		pctx, cancel := context.WithTimeout(ctx, timeout)
		err := ping(pctx)
		cancel()

		switch {
		case err != nil && healthy:
			log.Warn("store ping failed", zap.Error(err))
			healthy = false
		case err == nil && !healthy:
			log.Info("store reachable again")
			healthy = true
		}
	}
}
