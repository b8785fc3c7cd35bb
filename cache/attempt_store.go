package cache

import (
	"context"
	"errors"
	"time"

	"go.pilab.hu/connections/domain"
)

var ErrAttemptNotFound = errors.New("sign-in attempt not found or expired")

// Attempt is a sign-in through a provider whose connection matched no local user. It is
// kept until the user finishes an explicit signup or the attempt expires.
type Attempt struct {
	Token     string
	Record    *domain.ConnectionRecord
	CreatedAt time.Time
	ExpiresAt time.Time
}

// AttemptStore keeps pending sign-in attempts. An attempt can be taken once.
//
//go:generate go run go.uber.org/mock/mockgen -source=$GOFILE -destination=mock/mock_$GOFILE -package=mock_$GOPACKAGE
type AttemptStore interface {
	Save(ctx context.Context, attempt *Attempt) error

	// Take returns the attempt and removes it, or ErrAttemptNotFound.
	Take(ctx context.Context, token string) (*Attempt, error)
}
