package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hackgods/health-record-sharing/internal/config"
	"github.com/hackgods/health-record-sharing/internal/db"
	"github.com/hackgods/health-record-sharing/internal/logger"
	redisclient "github.com/hackgods/health-record-sharing/internal/redis"
	"github.com/hackgods/health-record-sharing/internal/session"
)

func main() {
	once := flag.Bool("once", false, "run a single sweep and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}

	lg := logger.Init(cfg.LogLevel, cfg.LogFormat)
	lg.Info().
		Str("env", cfg.Env).
		Dur("interval", cfg.ReaperInterval).
		Bool("once", *once).
		Msg("session-reaper starting up")

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

	locker := redisclient.NoopLocker()
	if cfg.RedisEnabled {
		rdb, err := redisclient.NewRedisClient(rootCtx, redisclient.Options{
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

	reaper := session.NewReaper(session.NewPgRepository(pgPool), locker, session.ReaperConfig{
		Interval: cfg.ReaperInterval,
		// a dedicated process has nothing else to warm up
		InitialDelay: 0,
		Jitter:       cfg.ReaperJitter,
	}, nil, lg)

	if *once {
		runCtx, cancel := context.WithTimeout(rootCtx, 20*time.Second)
		defer cancel()
		n, err := reaper.SweepOnce(runCtx)
		if err != nil {
			lg.Fatal().Err(err).Msg("sweep failed")
		}
		lg.Info().Int64("deleted", n).Msg("sweep complete")
		return
	}

	reaper.Run(rootCtx)
	lg.Info().Msg("session-reaper stopped")
}
