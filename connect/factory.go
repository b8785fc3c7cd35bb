package connect

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"go.pilab.hu/connections/domain"
)

// Factory creates live connections for one provider.
type Factory interface {
	ProviderID() string
	CreateConnection(record *domain.ConnectionRecord) (*Connection, error)
}

// Authorizer is a Factory that can run the OAuth2 authorization round trip.
type Authorizer interface {
	Factory
	AuthCodeURL(state string) string
	CompleteAuthorization(ctx context.Context, code string) (*domain.ConnectionRecord, error)
}

// ProviderConfig describes an OAuth2 provider.
type ProviderConfig struct {
	ID           string   `mapstructure:"id" yaml:"id"`
	ClientID     string   `mapstructure:"client_id" yaml:"client_id"`
	ClientSecret string   `mapstructure:"client_secret" yaml:"client_secret"`
	AuthURL      string   `mapstructure:"auth_url" yaml:"auth_url"`
	TokenURL     string   `mapstructure:"token_url" yaml:"token_url"`
	UserInfoURL  string   `mapstructure:"user_info_url" yaml:"user_info_url"`
	RedirectURL  string   `mapstructure:"redirect_url" yaml:"redirect_url"`
	Scopes       []string `mapstructure:"scopes" yaml:"scopes"`
}

// Validate checks the fields needed to talk to the provider.
func (c ProviderConfig) Validate() error {
	switch {
	case c.ID == "":
		return fmt.Errorf("%w: id is empty", ErrProviderMisconfigured)
	case c.ClientID == "":
		return fmt.Errorf("%w: %s: client_id is empty", ErrProviderMisconfigured, c.ID)
	case c.TokenURL == "":
		return fmt.Errorf("%w: %s: token_url is empty", ErrProviderMisconfigured, c.ID)
	}
	return nil
}

// Profile is the part of a provider's user info document kept on a connection.
type Profile struct {
	ID          string
	DisplayName string
	ProfileURL  string
	ImageURL    string
}

// OAuth2Factory creates connections backed by golang.org/x/oauth2.
type OAuth2Factory struct {
	cfg    ProviderConfig
	oauth  *oauth2.Config
	client *http.Client
	now    func() time.Time
}

// FactoryOption configures an OAuth2Factory.
type FactoryOption func(*OAuth2Factory)

// WithHTTPClient sets the client used for token and profile requests.
func WithHTTPClient(client *http.Client) FactoryOption {
	return func(f *OAuth2Factory) {
		f.client = client
	}
}

// WithClock sets the clock used for expiry checks.
func WithClock(now func() time.Time) FactoryOption {
	return func(f *OAuth2Factory) {
		f.now = now
	}
}

// NewOAuth2Factory applies the defaults of well-known providers, validates cfg and returns a factory for its provider.
func NewOAuth2Factory(cfg ProviderConfig, opts ...FactoryOption) (*OAuth2Factory, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	f := &OAuth2Factory{
		cfg: cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *OAuth2Factory) ProviderID() string { return f.cfg.ID }

// OAuth2Config returns the provider's OAuth2 configuration for the authorization round trip.
func (f *OAuth2Factory) OAuth2Config() *oauth2.Config { return f.oauth }

// CreateConnection binds the record to this provider.
func (f *OAuth2Factory) CreateConnection(record *domain.ConnectionRecord) (*Connection, error) {
	if err := record.Validate(); err != nil {
		return nil, err
	}
	if record.ProviderID != f.cfg.ID {
		return nil, fmt.Errorf("%w: %s is not a %s connection", ErrProviderMismatch, record.Key(), f.cfg.ID)
	}

	return newConnection(f.oauth, f.client, record, f.now), nil
}

// AuthCodeURL returns the provider URL that starts an authorization carrying state.
func (f *OAuth2Factory) AuthCodeURL(state string) string {
	return f.oauth.AuthCodeURL(state)
}

// CompleteAuthorization exchanges the authorization code and returns the record of the
// authorized remote user.
func (f *OAuth2Factory) CompleteAuthorization(ctx context.Context, code string) (*domain.ConnectionRecord, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: authorization code must not be empty", domain.ErrInvalidArgument)
	}

	exchangeCtx := ctx
	if f.client != nil {
		exchangeCtx = context.WithValue(ctx, oauth2.HTTPClient, f.client)
	}
	token, err := f.oauth.Exchange(exchangeCtx, code)
	if err != nil {
		return nil, fmt.Errorf("%s: exchange authorization code: %w", f.cfg.ID, err)
	}

	profile, err := f.FetchProfile(ctx, token)
	if err != nil {
		return nil, err
	}
	return f.RecordFromToken(token, profile)
}

// RecordFromToken builds the record of a completed authorization from its token and the
// remote user's profile.
func (f *OAuth2Factory) RecordFromToken(token *oauth2.Token, profile *Profile) (*domain.ConnectionRecord, error) {
	if token == nil || profile == nil {
		return nil, fmt.Errorf("%w: token and profile are required", domain.ErrInvalidArgument)
	}

	record := &domain.ConnectionRecord{
		ProviderID:     f.cfg.ID,
		ProviderUserID: profile.ID,
		DisplayName:    profile.DisplayName,
		ProfileURL:     profile.ProfileURL,
		ImageURL:       profile.ImageURL,
	}
	applyToken(record, token)

	if err := record.Validate(); err != nil {
		return nil, err
	}
	return record, nil
}

// FetchProfile reads the remote user's profile from the provider's user info endpoint.
// Both OpenID Connect claims and the common REST field names are understood.
func (f *OAuth2Factory) FetchProfile(ctx context.Context, token *oauth2.Token) (*Profile, error) {
	if f.cfg.UserInfoURL == "" {
		return nil, fmt.Errorf("%w: %s: user_info_url is empty", ErrProviderMisconfigured, f.cfg.ID)
	}

	if f.client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, f.client)
	}
	client := f.oauth.Client(ctx, token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.cfg.UserInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: build user info request: %w", f.cfg.ID, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetchProfileFailed, f.cfg.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: %s: status %d, body: %s", ErrFetchProfileFailed, f.cfg.ID, resp.StatusCode, body)
	}

	var raw map[string]any
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %s: decode: %w", ErrFetchProfileFailed, f.cfg.ID, err)
	}

	profile := &Profile{
		ID:          firstString(raw, "sub", "id", "user_id"),
		DisplayName: firstString(raw, "name", "display_name", "login", "preferred_username"),
		ProfileURL:  firstString(raw, "profile", "html_url", "link"),
		ImageURL:    firstString(raw, "picture", "avatar_url"),
	}
	if profile.ImageURL == "" {
		profile.ImageURL = nestedString(raw, "picture", "data", "url")
	}
	if profile.ID == "" {
		return nil, fmt.Errorf("%w: %s: profile has no user id", ErrFetchProfileFailed, f.cfg.ID)
	}
	return profile, nil
}

func firstString(raw map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := raw[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case json.Number:
			return v.String()
		}
	}
	return ""
}

func nestedString(raw map[string]any, path ...string) string {
	for _, key := range path[:len(path)-1] {
		next, ok := raw[key].(map[string]any)
		if !ok {
			return ""
		}
		raw = next
	}
	return firstString(raw, path[len(path)-1])
}
