package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/health-record-sharing/internal/db"
)

func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_DSN not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = db.Migrate(ctx, pool)
	require.NoError(t, err)
	return pool
}

func TestPgRepositoryRoundTrip(t *testing.T) {
	pool := testPool(t)
	repo := NewPgRepository(pool)
	ctx := context.Background()

	tok, err := NewToken()
	require.NoError(t, err)
	now := time.Now().UTC().Truncate(time.Microsecond)
	sess := &Session{Token: tok, PatientID: uuid.New(), CreatedAt: now, ExpiresAt: now.Add(15 * time.Minute)}
	t.Cleanup(func() { _, _ = pool.Exec(context.Background(), `DELETE FROM share_sessions WHERE token = $1`, tok) })

	require.NoError(t, repo.Create(ctx, sess))
	assert.ErrorIs(t, repo.Create(ctx, sess), ErrTokenConflict)

	got, err := repo.GetByToken(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, sess.PatientID, got.PatientID)
	assert.True(t, sess.ExpiresAt.Equal(got.ExpiresAt))

	_, err = repo.GetByToken(ctx, "missing-"+tok)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestPgRepositoryDeleteExpired(t *testing.T) {
	pool := testPool(t)
	repo := NewPgRepository(pool)
	ctx := context.Background()

	// far in the past so rows from other runs do not interfere with the count
	base := time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)
	expired, err := NewToken()
	require.NoError(t, err)
	live, err := NewToken()
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM share_sessions WHERE token = ANY($1)`, []string{expired, live})
	})

	require.NoError(t, repo.Create(ctx, &Session{Token: expired, PatientID: uuid.New(), CreatedAt: base, ExpiresAt: base.Add(time.Minute)}))
	require.NoError(t, repo.Create(ctx, &Session{Token: live, PatientID: uuid.New(), CreatedAt: base, ExpiresAt: base.Add(time.Hour)}))

	n, err := repo.DeleteExpired(ctx, base.Add(10*time.Minute))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(1))

	_, err = repo.GetByToken(ctx, expired)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = repo.GetByToken(ctx, live)
	assert.NoError(t, err)
}
