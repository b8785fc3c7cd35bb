// Package redis stores pending sign-in attempts in Redis so that several instances share them.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"go.pilab.hu/connections/cache"
	"go.pilab.hu/connections/domain"
)

// AttemptStore implements cache.AttemptStore using Redis.
type AttemptStore struct {
	client     redis.Cmdable
	prefix     string
	defaultTTL time.Duration
}

var _ cache.AttemptStore = (*AttemptStore)(nil)

// NewAttemptStore creates a new [AttemptStore]. Attempts saved without an expiry live for
// defaultTTL.
func NewAttemptStore(client redis.Cmdable, prefix string, defaultTTL time.Duration) *AttemptStore {
	return &AttemptStore{
		client:     client,
		prefix:     prefix,
		defaultTTL: defaultTTL,
	}
}

func (s *AttemptStore) redisKey(token string) string {
	return fmt.Sprintf("%s:attempt:%s", s.prefix, token)
}

// payload is the stored form of an attempt. Unlike the record's JSON view it keeps the
// credentials.
type payload struct {
	ProviderID     string            `json:"provider_id"`
	ProviderUserID string            `json:"provider_user_id"`
	DisplayName    string            `json:"display_name,omitempty"`
	ProfileURL     string            `json:"profile_url,omitempty"`
	ImageURL       string            `json:"image_url,omitempty"`
	AccessToken    string            `json:"access_token,omitempty"`
	RefreshToken   string            `json:"refresh_token,omitempty"`
	Secret         string            `json:"secret,omitempty"`
	ExpireTime     *time.Time        `json:"expire_time,omitempty"`
	Extension      map[string]string `json:"extension,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	ExpiresAt      time.Time         `json:"expires_at"`
}

// Save implements cache.AttemptStore.Save.
func (s *AttemptStore) Save(ctx context.Context, attempt *cache.Attempt) error {
	if attempt == nil || attempt.Token == "" {
		return fmt.Errorf("%w: attempt token is required", domain.ErrInvalidArgument)
	}
	if err := attempt.Record.Validate(); err != nil {
		return err
	}

	ttl := s.defaultTTL
	expiresAt := attempt.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = time.Now().Add(ttl)
	} else {
		ttl = time.Until(expiresAt)
	}
	if ttl <= 0 {
		return fmt.Errorf("%w: attempt already expired", domain.ErrInvalidArgument)
	}

	r := attempt.Record
	data, err := json.Marshal(payload{
		ProviderID:     r.ProviderID,
		ProviderUserID: r.ProviderUserID,
		DisplayName:    r.DisplayName,
		ProfileURL:     r.ProfileURL,
		ImageURL:       r.ImageURL,
		AccessToken:    r.AccessToken,
		RefreshToken:   r.RefreshToken,
		Secret:         r.Secret,
		ExpireTime:     r.ExpireTime,
		Extension:      r.Extension,
		CreatedAt:      attempt.CreatedAt,
		ExpiresAt:      expiresAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal attempt: %w", err)
	}

	if err := s.client.Set(ctx, s.redisKey(attempt.Token), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set attempt in Redis: %w", err)
	}

	log.Ctx(ctx).Debug().
		Str("provider_id", r.ProviderID).
		Dur("ttl", ttl).
		Msg("sign-in attempt saved")

	return nil
}

// Take implements cache.AttemptStore.Take. GETDEL makes concurrent takes of the same token
// see the attempt at most once.
func (s *AttemptStore) Take(ctx context.Context, token string) (*cache.Attempt, error) {
	data, err := s.client.GetDel(ctx, s.redisKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, cache.ErrAttemptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to take attempt from Redis: %w", err)
	}

	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal attempt: %w", err)
	}

	return &cache.Attempt{
		Token: token,
		Record: &domain.ConnectionRecord{
			ProviderID:     p.ProviderID,
			ProviderUserID: p.ProviderUserID,
			DisplayName:    p.DisplayName,
			ProfileURL:     p.ProfileURL,
			ImageURL:       p.ImageURL,
			AccessToken:    p.AccessToken,
			RefreshToken:   p.RefreshToken,
			Secret:         p.Secret,
			ExpireTime:     p.ExpireTime,
			Extension:      p.Extension,
		},
		CreatedAt: p.CreatedAt,
		ExpiresAt: p.ExpiresAt,
	}, nil
}
