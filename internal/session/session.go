package session

import (
	"context"
	"errors"
	"time"
)

var ErrSessionNotFound = errors.New("session not found")

type Session struct {
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository replaces the storefront's process-wide session globals with an
// injected store so handlers and tests get explicit get/set/expire.
type Repository interface {
	Get(ctx context.Context, token string) (*Session, error)
	Set(ctx context.Context, token string, s *Session, ttl time.Duration) error
	Expire(ctx context.Context, token string) error
}
