// Package signup implements the identity resolution state machine shared by the connection
// registries: an inbound connection is MATCHED to the local users holding it, CREATED through
// the implicit signup hook, or left UNLINKED for the caller to drive an explicit signup.
package signup

import (
	"context"
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"go.pilab.hu/connections/domain"
)

// ScanFunc returns the ids of the local users currently holding the connection.
type ScanFunc func(ctx context.Context) ([]string, error)

// LinkFunc stores the connection for a local user created by the signup hook.
type LinkFunc func(ctx context.Context, userID string) error

// Resolver runs the resolution state machine. The zero value has no signup hook.
type Resolver struct {
	signUp domain.ConnectionSignUp
	group  singleflight.Group
}

// NewResolver returns a Resolver that creates local users with signUp. A nil signUp means
// every unmatched connection resolves to UNLINKED.
func NewResolver(signUp domain.ConnectionSignUp) *Resolver {
	return &Resolver{signUp: signUp}
}

// Resolve maps record to local users.
//
// Concurrent resolutions of the same unmatched key share one signup; the scan is repeated
// inside the shared call so a signup finished just before is reported as MATCHED.
func (r *Resolver) Resolve(ctx context.Context, record *domain.ConnectionRecord, scan ScanFunc, link LinkFunc) (*domain.Resolution, error) {
	if err := record.Validate(); err != nil {
		return nil, err
	}

	userIDs, err := scan(ctx)
	if err != nil {
		return nil, err
	}
	if len(userIDs) > 0 {
		return &domain.Resolution{State: domain.ResolutionMatched, UserIDs: userIDs}, nil
	}
	if r.signUp == nil {
		return unlinked(), nil
	}

	key := record.Key()
	v, err, shared := r.group.Do(key.ProviderID+"\x00"+key.ProviderUserID, func() (any, error) {
		userIDs, err := scan(ctx)
		if err != nil {
			return nil, err
		}
		if len(userIDs) > 0 {
			return &domain.Resolution{State: domain.ResolutionMatched, UserIDs: userIDs}, nil
		}

		userID, err := r.signUp.CreateLocalUser(ctx, record.Clone())
		if err != nil {
			return nil, fmt.Errorf("sign up local user for %s: %w", key, err)
		}
		if userID == "" {
			log.Ctx(ctx).Debug().Str("connection", key.String()).Msg("implicit signup declined")
			return unlinked(), nil
		}

		if err := link(ctx, userID); err != nil {
			return nil, fmt.Errorf("link %s to new user %s: %w", key, userID, err)
		}
		log.Ctx(ctx).Debug().
			Str("connection", key.String()).
			Str("user_id", userID).
			Msg("local user created by implicit signup")

		return &domain.Resolution{State: domain.ResolutionCreated, UserIDs: []string{userID}}, nil
	})
	if err != nil {
		return nil, err
	}

	res := v.(*domain.Resolution)
	if shared {
		res = &domain.Resolution{State: res.State, UserIDs: slices.Clone(res.UserIDs)}
	}
	return res, nil
}

func unlinked() *domain.Resolution {
	return &domain.Resolution{State: domain.ResolutionUnlinked, UserIDs: []string{}}
}
