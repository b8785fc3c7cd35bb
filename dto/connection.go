package dto

import (
	"time"

	"go.pilab.hu/connections/domain"
)

// ConnectionResponse is the public view of a connection. Credentials are never included.
type ConnectionResponse struct {
	ProviderID     string     `json:"provider_id" yaml:"provider_id"`
	ProviderUserID string     `json:"provider_user_id" yaml:"provider_user_id"`
	DisplayName    string     `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	ProfileURL     string     `json:"profile_url,omitempty" yaml:"profile_url,omitempty"`
	ImageURL       string     `json:"image_url,omitempty" yaml:"image_url,omitempty"`
	ExpireTime     *time.Time `json:"expire_time,omitempty" yaml:"expire_time,omitempty"`
	Expired        bool       `json:"expired" yaml:"expired"`
}

// ToConnectionResponse converts a record to its public view; now decides Expired.
func ToConnectionResponse(record *domain.ConnectionRecord, now time.Time) ConnectionResponse {
	resp := ConnectionResponse{
		ProviderID:     record.ProviderID,
		ProviderUserID: record.ProviderUserID,
		DisplayName:    record.DisplayName,
		ProfileURL:     record.ProfileURL,
		ImageURL:       record.ImageURL,
		Expired:        record.HasExpired(now),
	}
	if record.ExpireTime != nil {
		t := *record.ExpireTime
		resp.ExpireTime = &t
	}
	return resp
}

// ToConnectionResponses converts records in order. The result is never nil.
func ToConnectionResponses(records []*domain.ConnectionRecord, now time.Time) []ConnectionResponse {
	out := make([]ConnectionResponse, 0, len(records))
	for _, r := range records {
		out = append(out, ToConnectionResponse(r, now))
	}
	return out
}

// UserConnectionsResponse lists a user's connections per provider.
type UserConnectionsResponse struct {
	UserID      string                          `json:"user_id"`
	Connections map[string][]ConnectionResponse `json:"connections"`
}

// SignInResponse reports the outcome of a provider sign-in.
type SignInResponse struct {
	Outcome          string              `json:"outcome"`
	UserIDs          []string            `json:"user_ids"`
	Connection       *ConnectionResponse `json:"connection,omitempty"`
	AttemptToken     string              `json:"attempt_token,omitempty"`
	AttemptExpiresAt *time.Time          `json:"attempt_expires_at,omitempty"`
}

// CompleteSignUpRequest links a pending sign-in attempt to a newly signed up user.
type CompleteSignUpRequest struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

// LinkResponse is returned when a connection has been linked to a user.
type LinkResponse struct {
	UserID     string             `json:"user_id"`
	Rank       int                `json:"rank"`
	Connection ConnectionResponse `json:"connection"`
}
