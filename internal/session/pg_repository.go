package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/health-record-sharing/internal/db"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanSession(row pgx.Row) (*Session, error) {
	var s Session
	err := row.Scan(&s.Token, &s.PatientID, &s.CreatedAt, &s.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *PgRepository) Create(ctx context.Context, s *Session) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO share_sessions (token, patient_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
	`, s.Token, s.PatientID, s.CreatedAt, s.ExpiresAt)
	if err != nil {
		if db.IsUniqueViolation(err, "share_sessions_pkey") {
			return ErrTokenConflict
		}
		return fmt.Errorf("insert share session: %w", err)
	}
	return nil
}

func (r *PgRepository) GetByToken(ctx context.Context, token string) (*Session, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT token, patient_id, created_at, expires_at
		FROM share_sessions
		WHERE token = $1
	`, token)
	return scanSession(row)
}

func (r *PgRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM share_sessions
		WHERE expires_at < $1
	`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired share sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
