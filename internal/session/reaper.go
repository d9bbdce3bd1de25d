package session

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackgods/health-record-sharing/internal/metrics"
	redisclient "github.com/hackgods/health-record-sharing/internal/redis"
)

// reaperLockName is shared by every replica so only one of them sweeps per tick.
const reaperLockName = "session-reaper"

type State int32

const (
	StateIdle State = iota
	StateSweeping
)

func (s State) String() string {
	if s == StateSweeping {
		return "sweeping"
	}
	return "idle"
}

type ReaperConfig struct {
	Interval     time.Duration
	InitialDelay time.Duration
	Jitter       time.Duration
	// SweepTimeout bounds a single sweep. Zero means 20s.
	SweepTimeout time.Duration
}

// Reaper periodically deletes share sessions past their expiry. Resolving a
// token never depends on it: expiry is enforced at read time.
type Reaper struct {
	repo    Repository
	locker  redisclient.Locker
	cfg     ReaperConfig
	metrics *metrics.Metrics
	log     zerolog.Logger
	now     func() time.Time
	state   atomic.Int32
}

func NewReaper(repo Repository, locker redisclient.Locker, cfg ReaperConfig, m *metrics.Metrics, log zerolog.Logger) *Reaper {
	if locker == nil {
		locker = redisclient.NoopLocker()
	}
	if cfg.SweepTimeout <= 0 {
		cfg.SweepTimeout = 20 * time.Second
	}
	return &Reaper{
		repo:    repo,
		locker:  locker,
		cfg:     cfg,
		metrics: m,
		log:     log.With().Str("component", "session-reaper").Logger(),
		now:     time.Now,
	}
}

// SetClock replaces the time source. Tests only.
func (r *Reaper) SetClock(now func() time.Time) {
	r.now = now
}

func (r *Reaper) State() State {
	return State(r.state.Load())
}

// SweepOnce deletes every expired session and returns how many were removed.
// When another replica holds the sweep lock it returns 0 without error.
func (r *Reaper) SweepOnce(ctx context.Context) (int64, error) {
	if !r.state.CompareAndSwap(int32(StateIdle), int32(StateSweeping)) {
		return 0, nil
	}
	defer r.state.Store(int32(StateIdle))

	var deleted int64
	err := r.locker.WithLock(ctx, reaperLockName, func(ctx context.Context) error {
		n, err := r.repo.DeleteExpired(ctx, r.now().UTC())
		if err != nil {
			return err
		}
		deleted = n
		return nil
	})
	if errors.Is(err, redisclient.ErrLockNotAcquired) {
		r.log.Debug().Msg("sweep skipped, another replica holds the lock")
		return 0, nil
	}
	if err != nil {
		r.metrics.SweepFailed()
		return 0, err
	}

	r.metrics.SessionsReaped(deleted)
	r.log.Info().Int64("deleted", deleted).Msg("expired share sessions removed")
	return deleted, nil
}

// Run sweeps after the initial delay and then on every interval until ctx is
// cancelled. Failed sweeps are logged and retried on the next tick.
func (r *Reaper) Run(ctx context.Context) {
	r.log.Info().
		Dur("interval", r.cfg.Interval).
		Dur("initial_delay", r.cfg.InitialDelay).
		Msg("session reaper started")

	if !sleep(ctx, r.cfg.InitialDelay) {
		r.log.Info().Msg("session reaper stopped")
		return
	}
	r.runOnce(ctx)

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info().Msg("session reaper stopped")
			return
		case <-ticker.C:
			if !sleep(ctx, r.jitter()) {
				r.log.Info().Msg("session reaper stopped")
				return
			}
			r.runOnce(ctx)
		}
	}
}

func (r *Reaper) runOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, r.cfg.SweepTimeout)
	defer cancel()

	start := time.Now()
	if _, err := r.SweepOnce(runCtx); err != nil {
		r.log.Error().Err(err).Msg("sweep failed")
		return
	}
	r.log.Debug().Dur("took", time.Since(start)).Msg("sweep complete")
}

func (r *Reaper) jitter() time.Duration {
	if r.cfg.Jitter <= 0 {
		return 0
	}
	return rand.N(r.cfg.Jitter)
}

// sleep waits for d or until ctx is done, reporting whether the full wait elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
