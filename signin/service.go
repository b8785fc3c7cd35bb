// Package signin drives provider sign-in on top of a connection registry: inbound connections
// are resolved to local users, and connections nobody holds are parked as pending attempts
// until an explicit signup links them.
package signin

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"go.pilab.hu/connections/cache"
	"go.pilab.hu/connections/domain"
	"go.pilab.hu/connections/internal/audit"
	"go.pilab.hu/connections/tracing"
)

const instrumentationName = "go.pilab.hu/connections/signin"

// ErrAccountAlreadyLinked is returned when a remote identity is linked to another local user.
var ErrAccountAlreadyLinked = errors.New("account is already linked to another user")

// Outcome is the result of a sign-in through a provider.
type Outcome string

const (
	// OutcomeSignedIn means existing local users hold the connection.
	OutcomeSignedIn Outcome = "signed_in"
	// OutcomeSignedUp means implicit signup created a local user.
	OutcomeSignedUp Outcome = "signed_up"
	// OutcomeSignUpRequired means nobody holds the connection; the attempt token continues
	// the flow through CompleteSignUp.
	OutcomeSignUpRequired Outcome = "signup_required"
)

// Result describes a resolved sign-in.
type Result struct {
	Outcome Outcome
	UserIDs []string

	AttemptToken     string
	AttemptExpiresAt time.Time
}

// Service resolves provider sign-ins.
type Service struct {
	users    domain.UsersConnectionRepository
	attempts cache.AttemptStore
	ttl      time.Duration
	now      func() time.Time
	newToken func() string
	audit    *audit.Logger
	linking  *keyLocks

	tracer   trace.Tracer
	outcomes metric.Int64Counter
	duration metric.Float64Histogram
}

// Option configures a Service.
type Option func(*Service)

// WithAttemptTTL sets how long a pending attempt can be completed. Defaults to 10 minutes.
func WithAttemptTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.ttl = ttl
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithAuditLogger records sign-in outcomes and links to logger.
func WithAuditLogger(logger *audit.Logger) Option {
	return func(s *Service) {
		s.audit = logger
	}
}

// WithTokenGenerator replaces the random attempt token generator.
func WithTokenGenerator(gen func() string) Option {
	return func(s *Service) {
		s.newToken = gen
	}
}

// NewService returns a Service over the registry and the pending attempt store.
func NewService(users domain.UsersConnectionRepository, attempts cache.AttemptStore, opts ...Option) (*Service, error) {
	s := &Service{
		users:    users,
		attempts: attempts,
		ttl:      10 * time.Minute,
		now:      time.Now,
		newToken: uuid.NewString,
		tracer:   tracing.Tracer("signin"),
		linking:  newKeyLocks(),
	}
	for _, opt := range opts {
		opt(s)
	}

	meter := otel.Meter(instrumentationName)

	var err error
	s.outcomes, err = meter.Int64Counter("signin_outcomes",
		metric.WithDescription("Provider sign-ins by outcome."))
	if err != nil {
		return nil, fmt.Errorf("create signin_outcomes counter: %w", err)
	}
	s.duration, err = meter.Float64Histogram("signin_resolve_duration",
		metric.WithDescription("Time spent resolving a provider sign-in."),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("create signin_resolve_duration histogram: %w", err)
	}

	return s, nil
}

// Resolve maps the inbound connection to local users. When nobody holds it and implicit
// signup did not create a user, the record is parked and a single use attempt token returned.
func (s *Service) Resolve(ctx context.Context, record *domain.ConnectionRecord) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "signin.Resolve")
	defer span.End()

	start := s.now()
	result, err := s.resolve(ctx, record)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	attrs := metric.WithAttributes(
		attribute.String("provider", record.ProviderID),
		attribute.String("outcome", string(result.Outcome)),
	)
	s.outcomes.Add(ctx, 1, attrs)
	s.duration.Record(ctx, s.now().Sub(start).Seconds(), attrs)

	s.audit.Record(ctx, auditAction(result.Outcome), record.Key().String(), result.UserIDs, nil)

	span.SetAttributes(
		attribute.String("signin.provider", record.ProviderID),
		attribute.String("signin.outcome", string(result.Outcome)),
		attribute.Int("signin.users", len(result.UserIDs)),
	)

	return result, nil
}

func (s *Service) resolve(ctx context.Context, record *domain.ConnectionRecord) (*Result, error) {
	res, err := s.users.ResolveConnection(ctx, record)
	if err != nil {
		return nil, err
	}

	switch res.State {
	case domain.ResolutionMatched:
		return &Result{Outcome: OutcomeSignedIn, UserIDs: res.UserIDs}, nil
	case domain.ResolutionCreated:
		return &Result{Outcome: OutcomeSignedUp, UserIDs: res.UserIDs}, nil
	case domain.ResolutionUnlinked:
	default:
		return nil, fmt.Errorf("unexpected resolution state %q", res.State)
	}

	now := s.now()
	attempt := &cache.Attempt{
		Token:     s.newToken(),
		Record:    record.Clone(),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.attempts.Save(ctx, attempt); err != nil {
		return nil, fmt.Errorf("save sign-in attempt: %w", err)
	}

	log.Ctx(ctx).Info().
		Str("connection", record.Key().String()).
		Time("expires_at", attempt.ExpiresAt).
		Msg("sign-in requires signup")

	return &Result{
		Outcome:          OutcomeSignUpRequired,
		UserIDs:          []string{},
		AttemptToken:     attempt.Token,
		AttemptExpiresAt: attempt.ExpiresAt,
	}, nil
}

// CompleteSignUp links the parked connection of the attempt to the newly signed up user and
// returns the rank it received. An attempt can be completed once.
func (s *Service) CompleteSignUp(ctx context.Context, token, userID string) (*domain.ConnectionRecord, int, error) {
	ctx, span := s.tracer.Start(ctx, "signin.CompleteSignUp")
	defer span.End()

	if err := domain.RequireID("userID", userID); err != nil {
		return nil, 0, err
	}

	attempt, err := s.attempts.Take(ctx, token)
	if err != nil {
		span.RecordError(err)
		return nil, 0, err
	}

	rank, err := s.link(ctx, userID, attempt.Record)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, 0, err
	}

	span.SetAttributes(attribute.String("signin.provider", attempt.Record.ProviderID))
	return attempt.Record, rank, nil
}

// Link connects a remote identity to a signed-in user and returns its rank. A connection the
// user already holds fails with a DuplicateConnectionError; one held by another user with
// ErrAccountAlreadyLinked. Links of the same remote identity are serialized within this
// Service; services sharing a durable store across processes are not coordinated.
func (s *Service) Link(ctx context.Context, userID string, record *domain.ConnectionRecord) (int, error) {
	ctx, span := s.tracer.Start(ctx, "signin.Link")
	defer span.End()

	if err := domain.RequireID("userID", userID); err != nil {
		return 0, err
	}

	rank, err := s.link(ctx, userID, record)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	return rank, nil
}

func (s *Service) link(ctx context.Context, userID string, record *domain.ConnectionRecord) (int, error) {
	if err := record.Validate(); err != nil {
		return 0, err
	}

	unlock := s.linking.lock(record.Key())
	defer unlock()

	holders, err := s.users.FindUserIDsConnectedTo(ctx, record.ProviderID, []string{record.ProviderUserID})
	if err != nil {
		return 0, err
	}
	if slices.ContainsFunc(holders, func(id string) bool { return id != userID }) {
		return 0, fmt.Errorf("%w: %s", ErrAccountAlreadyLinked, record.Key())
	}

	repo, err := s.users.ConnectionRepository(ctx, userID)
	if err != nil {
		return 0, err
	}

	rank, err := repo.AddConnection(ctx, record)
	s.audit.Record(ctx, audit.ActionLinked, record.Key().String(), []string{userID}, err)
	if err != nil {
		return 0, err
	}

	log.Ctx(ctx).Info().
		Str("user_id", userID).
		Str("connection", record.Key().String()).
		Int("rank", rank).
		Msg("connection linked")

	return rank, nil
}

func auditAction(o Outcome) string {
	switch o {
	case OutcomeSignedUp:
		return audit.ActionSignedUp
	case OutcomeSignUpRequired:
		return audit.ActionSignUpRequired
	default:
		return audit.ActionSignedIn
	}
}
