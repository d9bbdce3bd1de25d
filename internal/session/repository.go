package session

import (
	"context"
	"errors"
	"time"
)

var (
	ErrSessionNotFound = errors.New("share session not found")
	ErrSessionExpired  = errors.New("share session expired")
	// ErrTokenConflict means a freshly generated token collided with a stored one.
	ErrTokenConflict = errors.New("share token conflict")
)

type Repository interface {
	Create(ctx context.Context, s *Session) error
	GetByToken(ctx context.Context, token string) (*Session, error)
	// DeleteExpired removes every session whose expiry is strictly before now
	// and returns how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
