package domain

import (
	"fmt"
	"maps"
	"time"
)

// ExtensionIDToken is the extension key under which OpenID Connect providers keep the ID token.
const ExtensionIDToken = "id_token"

// ConnectionKey identifies one external identity at one provider.
type ConnectionKey struct {
	ProviderID     string `bson:"provider_id" json:"provider_id" yaml:"provider_id"`
	ProviderUserID string `bson:"provider_user_id" json:"provider_user_id" yaml:"provider_user_id"`
}

// NewConnectionKey returns the key for the given provider and provider user.
func NewConnectionKey(providerID, providerUserID string) ConnectionKey {
	return ConnectionKey{ProviderID: providerID, ProviderUserID: providerUserID}
}

func (k ConnectionKey) String() string {
	return k.ProviderID + ":" + k.ProviderUserID
}

// Validate fails with ErrInvalidArgument when either part of the key is empty.
func (k ConnectionKey) Validate() error {
	if err := RequireID("providerID", k.ProviderID); err != nil {
		return err
	}
	return RequireID("providerUserID", k.ProviderUserID)
}

// ConnectionRecord is the stored state of a link between a local account and one external
// identity. Empty strings stand for absent optional fields.
type ConnectionRecord struct {
	ProviderID     string `bson:"provider_id" json:"provider_id" yaml:"provider_id"`
	ProviderUserID string `bson:"provider_user_id" json:"provider_user_id" yaml:"provider_user_id"`

	DisplayName string `bson:"display_name,omitempty" json:"display_name,omitempty" yaml:"display_name,omitempty"`
	ProfileURL  string `bson:"profile_url,omitempty" json:"profile_url,omitempty" yaml:"profile_url,omitempty"`
	ImageURL    string `bson:"image_url,omitempty" json:"image_url,omitempty" yaml:"image_url,omitempty"`

	AccessToken  string     `bson:"access_token,omitempty" json:"-" yaml:"access_token,omitempty"`
	RefreshToken string     `bson:"refresh_token,omitempty" json:"-" yaml:"refresh_token,omitempty"`
	Secret       string     `bson:"secret,omitempty" json:"-" yaml:"secret,omitempty"`
	ExpireTime   *time.Time `bson:"expire_time,omitempty" json:"expire_time,omitempty" yaml:"expire_time,omitempty"`

	// Extension is a provider-family payload (e.g. an ID token) that is stored and returned
	// as is. An empty map is kept as nil.
	Extension map[string]string `bson:"extension,omitempty" json:"-" yaml:"extension,omitempty"`
}

// Key returns the identity this record belongs to.
func (r *ConnectionRecord) Key() ConnectionKey {
	return ConnectionKey{ProviderID: r.ProviderID, ProviderUserID: r.ProviderUserID}
}

// IDToken returns the OpenID Connect ID token kept in the extension, if any.
func (r *ConnectionRecord) IDToken() string {
	return r.Extension[ExtensionIDToken]
}

// HasExpired reports whether the access token has an expire time that lies before now.
func (r *ConnectionRecord) HasExpired(now time.Time) bool {
	return r.ExpireTime != nil && r.ExpireTime.Before(now)
}

// Validate checks the identifying fields of the record.
func (r *ConnectionRecord) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: connection record is nil", ErrInvalidArgument)
	}
	if r.ProviderID == "" {
		return fmt.Errorf("%w: providerID must not be empty", ErrInvalidArgument)
	}
	if r.ProviderUserID == "" {
		return fmt.Errorf("%w: providerUserID must not be empty", ErrInvalidArgument)
	}
	return nil
}

// Clone returns a deep copy of the record.
func (r *ConnectionRecord) Clone() *ConnectionRecord {
	if r == nil {
		return nil
	}
	cpy := *r
	if r.ExpireTime != nil {
		t := *r.ExpireTime
		cpy.ExpireTime = &t
	}
	cpy.Extension = nil
	if len(r.Extension) > 0 {
		cpy.Extension = maps.Clone(r.Extension)
	}
	return &cpy
}

// ResolutionState is the outcome of resolving an inbound connection to local users.
type ResolutionState string

const (
	// ResolutionMatched means one or more local users already hold the connection.
	ResolutionMatched ResolutionState = "MATCHED"
	// ResolutionCreated means the signup hook created a new local user for the connection.
	ResolutionCreated ResolutionState = "CREATED"
	// ResolutionUnlinked means no local user holds the connection and none was created.
	ResolutionUnlinked ResolutionState = "UNLINKED"
)

// Resolution is the result of mapping an inbound connection to local user ids.
type Resolution struct {
	State   ResolutionState
	UserIDs []string
}
