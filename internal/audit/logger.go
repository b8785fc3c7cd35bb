// Package audit writes an audit trail of connection changes made through sign-in.
package audit

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	ActionSignedIn       = "signin.signed_in"
	ActionSignedUp       = "signin.signed_up"
	ActionSignUpRequired = "signin.signup_required"
	ActionLinked         = "connection.linked"
)

// Event is one audit record.
type Event struct {
	Timestamp  time.Time `json:"timestamp"`
	Action     string    `json:"action"`
	UserIDs    []string  `json:"user_ids,omitempty"`
	Connection string    `json:"connection"`
	RequestID  string    `json:"request_id,omitempty"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
}

type requestIDKey struct{}

// WithRequestID attaches the id of the request that caused the audited change.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// Logger writes events as JSON lines. A nil Logger drops every event.
type Logger struct {
	out zerolog.Logger
	now func() time.Time
}

// New returns a Logger writing to w.
func New(w io.Writer) *Logger {
	return &Logger{
		out: zerolog.New(w),
		now: time.Now,
	}
}

// Record writes one event. A non-nil err marks the event failed.
func (l *Logger) Record(ctx context.Context, action, connection string, userIDs []string, err error) {
	if l == nil {
		return
	}

	event := Event{
		Timestamp:  l.now().UTC(),
		Action:     action,
		UserIDs:    userIDs,
		Connection: connection,
		Success:    err == nil,
	}
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		event.RequestID = id
	}
	if err != nil {
		event.Error = err.Error()
	}

	entry, marshalErr := json.Marshal(event)
	if marshalErr != nil {
		log.Ctx(ctx).Error().Err(marshalErr).Str("action", action).Msg("failed to marshal audit event")
		return
	}
	l.out.Log().RawJSON("audit_event", entry).Send()
}
