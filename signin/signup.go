package signin

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"go.pilab.hu/connections/domain"
)

// GeneratedUserSignUp returns a signup hook that creates a local user with a random id for
// every connection nobody holds.
//
//nolint:ireturn
func GeneratedUserSignUp() domain.ConnectionSignUp {
	return domain.ConnectionSignUpFunc(func(ctx context.Context, record *domain.ConnectionRecord) (string, error) {
		userID := uuid.NewString()
		log.Ctx(ctx).Info().
			Str("connection", record.Key().String()).
			Str("user_id", userID).
			Msg("generated local user for connection")
		return userID, nil
	})
}
