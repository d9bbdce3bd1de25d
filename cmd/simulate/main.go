package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	mrand "math/rand/v2"
	"net/http"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/hackgods/health-record-sharing/internal/auth"
	"github.com/hackgods/health-record-sharing/internal/config"
	"github.com/hackgods/health-record-sharing/internal/db"
	"github.com/hackgods/health-record-sharing/internal/logger"
)

type SimConfig struct {
	APIBaseURL    string
	Duration      time.Duration
	Workers       int
	SessionRatio  float64
	ResolveRatio  float64
	ReadRatio     float64
	ProbeRatio    float64
	PatientLimit  int
	DoctorLimit   int
	PostgresDSN   string
	JWTSecret     string
	TokenLifetime time.Duration
}

// DataPool holds the ids loaded from Postgres plus the share tokens issued
// during the run.
type DataPool struct {
	Patients []uuid.UUID
	Doctors  []uuid.UUID

	mu     sync.RWMutex
	tokens []string

	bearers sync.Map // uuid.UUID -> "Bearer ..."
}

func (dp *DataPool) AddToken(token string) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.tokens = append(dp.tokens, token)
}

func (dp *DataPool) RandomToken(rng *mrand.Rand) (string, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.tokens) == 0 {
		return "", false
	}
	return dp.tokens[rng.IntN(len(dp.tokens))], true
}

type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeRejected
	OutcomeThrottled
	OutcomeError
)

type OperationMetrics struct {
	Total     int64
	Success   int64
	Rejected  int64
	Throttled int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, outcome Outcome) {
	atomic.AddInt64(&om.Total, 1)
	switch outcome {
	case OutcomeSuccess:
		atomic.AddInt64(&om.Success, 1)
	case OutcomeRejected:
		atomic.AddInt64(&om.Rejected, 1)
	case OutcomeThrottled:
		atomic.AddInt64(&om.Throttled, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, lo, hi, p50, p95, p99 time.Duration) {
	om.mu.Lock()
	latencies := slices.Clone(om.Latencies)
	om.mu.Unlock()

	if len(latencies) == 0 {
		return
	}
	slices.Sort(latencies)

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	pct := func(p int) time.Duration {
		idx := len(latencies) * p / 100
		if idx >= len(latencies) {
			idx = len(latencies) - 1
		}
		return latencies[idx]
	}

	return sum / time.Duration(len(latencies)), latencies[0], latencies[len(latencies)-1], pct(50), pct(95), pct(99)
}

type Metrics struct {
	CreateSession OperationMetrics
	Resolve       OperationMetrics
	ResolveProbe  OperationMetrics
	GetRecord     OperationMetrics
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	metrics Metrics
	log     zerolog.Logger
}

func main() {
	lg := logger.Init(getEnv("LOG_LEVEL", "info"), getEnv("LOG_FORMAT", "console"))
	lg.Info().Msg("simulator starting")

	cfg, err := loadConfig()
	if err != nil {
		lg.Fatal().Err(err).Msg("failed to load base config")
	}
	if err := validateConfig(cfg); err != nil {
		lg.Fatal().Err(err).Msg("invalid config")
	}

	lg.Info().
		Dur("duration", cfg.Duration).
		Int("workers", cfg.Workers).
		Float64("session", cfg.SessionRatio).
		Float64("resolve", cfg.ResolveRatio).
		Float64("read", cfg.ReadRatio).
		Float64("probe", cfg.ProbeRatio).
		Msg("config")

	// Load data from Postgres
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		lg.Fatal().Err(err).Msg("connect postgres")
	}
	defer pgPool.Close()

	dataPool, err := loadDataPool(ctx, pgPool, cfg)
	if err != nil {
		lg.Fatal().Err(err).Msg("load data pool")
	}

	lg.Info().Int("patients", len(dataPool.Patients)).Int("doctors", len(dataPool.Doctors)).Msg("loaded")

	sim := &Simulator{
		config: cfg,
		pool:   dataPool,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: lg,
	}

	sim.Run()
	sim.PrintReport()
}

func loadConfig() (SimConfig, error) {
	baseCfg, err := config.Load()
	if err != nil {
		return SimConfig{}, err
	}

	cfg := SimConfig{
		APIBaseURL:    getEnv("SIM_API_BASE_URL", "http://localhost:"+baseCfg.HTTPPort),
		Duration:      getDuration("SIM_DURATION", 30*time.Second),
		Workers:       getInt("SIM_WORKERS", 10),
		SessionRatio:  getFloat("SIM_SESSION_RATIO", 0.2),
		ResolveRatio:  getFloat("SIM_RESOLVE_RATIO", 0.5),
		ReadRatio:     getFloat("SIM_READ_RATIO", 0.2),
		ProbeRatio:    getFloat("SIM_PROBE_RATIO", 0.1),
		PatientLimit:  getInt("SIM_PATIENT_LIMIT", 1000),
		DoctorLimit:   getInt("SIM_DOCTOR_LIMIT", 100),
		PostgresDSN:   baseCfg.PostgresDSN,
		JWTSecret:     baseCfg.JWTSecret,
		TokenLifetime: time.Hour,
	}

	// Normalize ratios
	total := cfg.SessionRatio + cfg.ResolveRatio + cfg.ReadRatio + cfg.ProbeRatio
	if total > 0 {
		cfg.SessionRatio /= total
		cfg.ResolveRatio /= total
		cfg.ReadRatio /= total
		cfg.ProbeRatio /= total
	}

	return cfg, nil
}

func validateConfig(cfg SimConfig) error {
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	return nil
}

func loadIDs(ctx context.Context, pool *pgxpool.Pool, query string, limit int) ([]uuid.UUID, error) {
	rows, err := pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func loadDataPool(ctx context.Context, pool *pgxpool.Pool, cfg SimConfig) (*DataPool, error) {
	patients, err := loadIDs(ctx, pool, `SELECT patient_id FROM health_records LIMIT $1`, cfg.PatientLimit)
	if err != nil {
		return nil, fmt.Errorf("load patients: %w", err)
	}
	doctors, err := loadIDs(ctx, pool, `SELECT id FROM doctors LIMIT $1`, cfg.DoctorLimit)
	if err != nil {
		return nil, fmt.Errorf("load doctors: %w", err)
	}

	if len(patients) == 0 {
		return nil, fmt.Errorf("no patients with a health record, run cmd/seed first")
	}
	if len(doctors) == 0 {
		return nil, fmt.Errorf("no doctors loaded")
	}

	return &DataPool{Patients: patients, Doctors: doctors}, nil
}

func (s *Simulator) bearer(id uuid.UUID, role string) (string, error) {
	if v, ok := s.pool.bearers.Load(id); ok {
		return v.(string), nil
	}
	tok, err := auth.MakeToken(id.String(), role, s.config.JWTSecret, s.config.TokenLifetime)
	if err != nil {
		return "", err
	}
	v, _ := s.pool.bearers.LoadOrStore(id, "Bearer "+tok)
	return v.(string), nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	s.log.Info().Dur("duration", s.config.Duration).Int("workers", s.config.Workers).Msg("starting simulation")

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	s.log.Info().Msg("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := mrand.New(mrand.NewPCG(uint64(time.Now().UnixNano()), uint64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
			r := rng.Float64()
			switch {
			case r < s.config.SessionRatio:
				s.doCreateSession(ctx, rng)
			case r < s.config.SessionRatio+s.config.ResolveRatio:
				s.doResolve(ctx, rng)
			case r < s.config.SessionRatio+s.config.ResolveRatio+s.config.ReadRatio:
				s.doGetRecord(ctx, rng)
			default:
				s.doProbe(ctx, rng)
			}
		}
	}
}

// call issues one request and classifies the response. want is the status
// that counts as success; rejected statuses are expected refusals.
func (s *Simulator) call(ctx context.Context, method, path, authz string, want int, rejected ...int) (Outcome, []byte, time.Duration) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, method, s.config.APIBaseURL+path, nil)
	if err != nil {
		return OutcomeError, nil, 0
	}
	req.Header.Set("Authorization", authz)

	resp, err := s.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return OutcomeError, nil, latency
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode == want:
		return OutcomeSuccess, body, latency
	case resp.StatusCode == http.StatusTooManyRequests:
		return OutcomeThrottled, body, latency
	case slices.Contains(rejected, resp.StatusCode):
		return OutcomeRejected, body, latency
	default:
		return OutcomeError, body, latency
	}
}

func (s *Simulator) doCreateSession(ctx context.Context, rng *mrand.Rand) {
	patientID := s.pool.Patients[rng.IntN(len(s.pool.Patients))]
	authz, err := s.bearer(patientID, auth.RolePatient)
	if err != nil {
		s.metrics.CreateSession.Record(0, OutcomeError)
		return
	}

	outcome, body, latency := s.call(ctx, http.MethodPost, "/api/health-record/create-session", authz, http.StatusCreated, http.StatusConflict)
	if outcome == OutcomeSuccess {
		var resp struct {
			Token string `json:"token"`
		}
		if err := json.Unmarshal(body, &resp); err == nil && resp.Token != "" {
			s.pool.AddToken(resp.Token)
		}
	}
	s.metrics.CreateSession.Record(latency, outcome)
}

func (s *Simulator) doResolve(ctx context.Context, rng *mrand.Rand) {
	token, ok := s.pool.RandomToken(rng)
	if !ok {
		return
	}
	doctorID := s.pool.Doctors[rng.IntN(len(s.pool.Doctors))]
	authz, err := s.bearer(doctorID, auth.RoleDoctor)
	if err != nil {
		s.metrics.Resolve.Record(0, OutcomeError)
		return
	}

	// 404 is expected once a token outlives the session TTL
	outcome, _, latency := s.call(ctx, http.MethodGet, "/api/health-record/session/"+token, authz, http.StatusOK, http.StatusNotFound)
	s.metrics.Resolve.Record(latency, outcome)
}

// doProbe resolves a token that was never issued; anything but 404 is a bug.
func (s *Simulator) doProbe(ctx context.Context, rng *mrand.Rand) {
	doctorID := s.pool.Doctors[rng.IntN(len(s.pool.Doctors))]
	authz, err := s.bearer(doctorID, auth.RoleDoctor)
	if err != nil {
		s.metrics.ResolveProbe.Record(0, OutcomeError)
		return
	}

	b := make([]byte, 16)
	_, _ = rand.Read(b)

	outcome, _, latency := s.call(ctx, http.MethodGet, "/api/health-record/session/"+hex.EncodeToString(b), authz, http.StatusNotFound)
	s.metrics.ResolveProbe.Record(latency, outcome)
}

func (s *Simulator) doGetRecord(ctx context.Context, rng *mrand.Rand) {
	patientID := s.pool.Patients[rng.IntN(len(s.pool.Patients))]
	authz, err := s.bearer(patientID, auth.RolePatient)
	if err != nil {
		s.metrics.GetRecord.Record(0, OutcomeError)
		return
	}

	outcome, _, latency := s.call(ctx, http.MethodGet, "/api/health-record/get-record", authz, http.StatusOK)
	s.metrics.GetRecord.Record(latency, outcome)
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Printf("Share tokens issued: %d\n", len(s.pool.tokens))
	fmt.Println()

	printOperationReport("Create session", &s.metrics.CreateSession)
	printOperationReport("Resolve session", &s.metrics.Resolve)
	printOperationReport("Resolve unknown token", &s.metrics.ResolveProbe)
	printOperationReport("Get own record", &s.metrics.GetRecord)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	line := func(label string, n int64) {
		if n > 0 {
			fmt.Printf("  %s: %d (%.1f%%)\n", label, n, float64(n)/float64(total)*100)
		}
	}

	avg, lo, hi, p50, p95, p99 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	line("Success", atomic.LoadInt64(&om.Success))
	line("Rejected", atomic.LoadInt64(&om.Rejected))
	line("Throttled", atomic.LoadInt64(&om.Throttled))
	line("Errors", atomic.LoadInt64(&om.Error))
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s p99=%s\n",
		avg.Round(time.Millisecond), lo.Round(time.Millisecond), hi.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond), p99.Round(time.Millisecond))
	fmt.Println()
}

// Helper functions

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
