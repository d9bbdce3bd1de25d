package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/hackgods/health-record-sharing/internal/api"
	"github.com/hackgods/health-record-sharing/internal/config"
	"github.com/hackgods/health-record-sharing/internal/db"
	"github.com/hackgods/health-record-sharing/internal/directory"
	"github.com/hackgods/health-record-sharing/internal/healthrecord"
	"github.com/hackgods/health-record-sharing/internal/logger"
	"github.com/hackgods/health-record-sharing/internal/metrics"
	redisclient "github.com/hackgods/health-record-sharing/internal/redis"
	"github.com/hackgods/health-record-sharing/internal/session"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}

	lg := logger.Init(cfg.LogLevel, cfg.LogFormat)
	lg.Info().
		Str("env", cfg.Env).
		Str("http_port", cfg.HTTPPort).
		Dur("session_ttl", cfg.SessionTTL).
		Dur("reaper_interval", cfg.ReaperInterval).
		Msg("api-server starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		lg.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	lg.Info().Msg("connected to Postgres")

	migCtx, cancelMig := context.WithTimeout(rootCtx, 30*time.Second)
	applied, err := db.Migrate(migCtx, pgPool)
	cancelMig()
	if err != nil {
		lg.Fatal().Err(err).Msg("migration error")
	}
	lg.Info().Int("applied", applied).Msg("migrations up to date")

	// Connect Redis
	var (
		rdb    *redis.Client
		locker = redisclient.NoopLocker()
	)
	if cfg.RedisEnabled {
		rdb, err = redisclient.NewRedisClient(rootCtx, redisclient.Options{
			Addr:     cfg.RedisAddr,
			Username: cfg.RedisUsername,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			lg.Fatal().Err(err).Msg("redis connection error")
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				lg.Error().Err(err).Msg("error closing redis")
			}
		}()
		locker = redisclient.NewRedisLocker(rdb, cfg.ReaperLockTTL)
		lg.Info().Msg("connected to Redis")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	dir := directory.NewPgRepository(pgPool)
	records := healthrecord.NewService(healthrecord.NewPgRepository(pgPool), dir, dir, lg)
	sessionRepo := session.NewPgRepository(pgPool)
	sessions := session.NewService(sessionRepo, dir, records.Aggregator(), cfg.SessionTTL, m, lg)
	reaper := session.NewReaper(sessionRepo, locker, session.ReaperConfig{
		Interval:     cfg.ReaperInterval,
		InitialDelay: cfg.ReaperDelay,
		Jitter:       cfg.ReaperJitter,
	}, m, lg)

	var redisPinger api.Pinger
	if rdb != nil {
		redisPinger = api.RedisPinger{Client: rdb}
	}

	limiter := api.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	routerCfg := api.RouterConfig{
		Records:        records,
		Sessions:       sessions,
		Health:         api.NewHealthHandler(pgPool, redisPinger, reaper, cfg.Env, version),
		JWTSecret:      cfg.JWTSecret,
		ShareBaseURL:   cfg.ShareBaseURL,
		CORSOrigins:    cfg.CORSOrigins,
		ResolveLimiter: limiter,
		Metrics:        m,
		Logger:         lg,
	}
	if cfg.MetricsEnabled {
		routerCfg.MetricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
	}

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.NewRouter(routerCfg),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		reaper.Run(rootCtx)
	}()
	go func() {
		defer wg.Done()
		limiter.Janitor(rootCtx)
	}()

	serveErr := make(chan error, 1)
	go func() {
		lg.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-rootCtx.Done():
		lg.Info().Msg("shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			lg.Error().Err(err).Msg("http server failed")
		}
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error().Err(err).Msg("http server forced to shut down")
	}

	wg.Wait()
	lg.Info().Msg("api-server stopped")
}
