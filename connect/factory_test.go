package connect_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"go.pilab.hu/connections/connect"
	"go.pilab.hu/connections/domain"
)

func newFactory(t *testing.T, serverURL string, opts ...connect.FactoryOption) *connect.OAuth2Factory {
	t.Helper()

	f, err := connect.NewOAuth2Factory(connect.ProviderConfig{
		ID:           "github",
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		AuthURL:      serverURL + "/authorize",
		TokenURL:     serverURL + "/token",
		UserInfoURL:  serverURL + "/user",
	}, opts...)
	require.NoError(t, err)
	return f
}

func TestNewOAuth2Factory_Validates(t *testing.T) {
	_, err := connect.NewOAuth2Factory(connect.ProviderConfig{ClientID: "x", TokenURL: "http://t"})
	assert.ErrorIs(t, err, connect.ErrProviderMisconfigured)

	_, err = connect.NewOAuth2Factory(connect.ProviderConfig{ID: "github", TokenURL: "http://t"})
	assert.ErrorIs(t, err, connect.ErrProviderMisconfigured)
}

func TestOAuth2Factory_CreateConnection(t *testing.T) {
	f := newFactory(t, "http://localhost")

	_, err := f.CreateConnection(&domain.ConnectionRecord{ProviderID: "google", ProviderUserID: "1"})
	assert.ErrorIs(t, err, connect.ErrProviderMismatch)

	_, err = f.CreateConnection(&domain.ConnectionRecord{ProviderID: "github"})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	expired := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	record := &domain.ConnectionRecord{
		ProviderID:     "github",
		ProviderUserID: "42",
		DisplayName:    "octocat",
		AccessToken:    "at",
		RefreshToken:   "rt",
		ExpireTime:     &expired,
		Extension:      map[string]string{domain.ExtensionIDToken: "id.token.value"},
	}
	conn, err := f.CreateConnection(record)
	require.NoError(t, err)

	record.DisplayName = "changed"
	assert.Equal(t, "octocat", conn.DisplayName())
	assert.Equal(t, domain.NewConnectionKey("github", "42"), conn.Key())
	assert.True(t, conn.HasExpired())
	assert.Equal(t, "id.token.value", conn.IDToken())

	token := conn.Token()
	assert.Equal(t, "at", token.AccessToken)
	assert.Equal(t, "rt", token.RefreshToken)
	assert.Equal(t, expired, token.Expiry)
	assert.Equal(t, "id.token.value", token.Extra("id_token"))
}

func TestOAuth2Factory_ClockControlsExpiry(t *testing.T) {
	expiry := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	f := newFactory(t, "http://localhost", connect.WithClock(func() time.Time {
		return expiry.Add(-time.Minute)
	}))

	conn, err := f.CreateConnection(&domain.ConnectionRecord{ProviderID: "github", ProviderUserID: "42", ExpireTime: &expiry})
	require.NoError(t, err)
	assert.False(t, conn.HasExpired())
}

func TestOAuth2Factory_RecordFromToken(t *testing.T) {
	f := newFactory(t, "http://localhost")
	expiry := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	token := (&oauth2.Token{AccessToken: "at", RefreshToken: "rt", Expiry: expiry}).
		WithExtra(map[string]any{"id_token": "header.payload.sig"})

	record, err := f.RecordFromToken(token, &connect.Profile{ID: "42", DisplayName: "Octo Cat", ImageURL: "https://img"})
	require.NoError(t, err)

	assert.Equal(t, "github", record.ProviderID)
	assert.Equal(t, "42", record.ProviderUserID)
	assert.Equal(t, "Octo Cat", record.DisplayName)
	assert.Equal(t, "https://img", record.ImageURL)
	assert.Equal(t, "at", record.AccessToken)
	assert.Equal(t, "rt", record.RefreshToken)
	require.NotNil(t, record.ExpireTime)
	assert.Equal(t, expiry, *record.ExpireTime)
	assert.Equal(t, "header.payload.sig", record.IDToken())

	_, err = f.RecordFromToken(token, &connect.Profile{})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	_, err = f.RecordFromToken(nil, &connect.Profile{ID: "42"})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestOAuth2Factory_FetchProfile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer gh-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": 12345,
			"login": "testuser",
			"html_url": "https://github.com/testuser",
			"avatar_url": "https://github.com/avatar.png"
		}`))
	}))
	defer server.Close()

	f := newFactory(t, server.URL)

	profile, err := f.FetchProfile(context.Background(), &oauth2.Token{AccessToken: "gh-token"})
	require.NoError(t, err)
	assert.Equal(t, &connect.Profile{
		ID:          "12345",
		DisplayName: "testuser",
		ProfileURL:  "https://github.com/testuser",
		ImageURL:    "https://github.com/avatar.png",
	}, profile)

	_, err = f.FetchProfile(context.Background(), &oauth2.Token{AccessToken: "wrong"})
	assert.ErrorIs(t, err, connect.ErrFetchProfileFailed)
}

func TestOAuth2Factory_FetchProfileOpenIDClaims(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sub": "1100", "name": "Jane Doe", "picture": "https://img/jane"}`))
	}))
	defer server.Close()

	profile, err := newFactory(t, server.URL).FetchProfile(context.Background(), &oauth2.Token{AccessToken: "t"})
	require.NoError(t, err)
	assert.Equal(t, "1100", profile.ID)
	assert.Equal(t, "Jane Doe", profile.DisplayName)
	assert.Equal(t, "https://img/jane", profile.ImageURL)
}

func TestOAuth2Factory_FetchProfileWithoutID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name": "anonymous"}`))
	}))
	defer server.Close()

	_, err := newFactory(t, server.URL).FetchProfile(context.Background(), &oauth2.Token{AccessToken: "t"})
	assert.ErrorIs(t, err, connect.ErrFetchProfileFailed)
}

func TestConnection_Refresh(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/token" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = r.ParseForm()
		if r.PostForm.Get("grant_type") != "refresh_token" || r.PostForm.Get("refresh_token") != "rt-1" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"access_token": "at-2",
			"token_type": "bearer",
			"refresh_token": "rt-2",
			"expires_in": 3600,
			"id_token": "new.id.token"
		}`))
	}))
	defer server.Close()

	f := newFactory(t, server.URL, connect.WithHTTPClient(server.Client()))
	conn, err := f.CreateConnection(&domain.ConnectionRecord{
		ProviderID:     "github",
		ProviderUserID: "42",
		AccessToken:    "at-1",
		RefreshToken:   "rt-1",
	})
	require.NoError(t, err)

	require.NoError(t, conn.Refresh(context.Background()))

	record := conn.Record()
	assert.Equal(t, "at-2", record.AccessToken)
	assert.Equal(t, "rt-2", record.RefreshToken)
	assert.NotNil(t, record.ExpireTime)
	assert.Equal(t, "new.id.token", record.IDToken())
}

func TestConnection_RefreshWithoutRefreshToken(t *testing.T) {
	f := newFactory(t, "http://localhost")
	conn, err := f.CreateConnection(&domain.ConnectionRecord{ProviderID: "github", ProviderUserID: "42", AccessToken: "at"})
	require.NoError(t, err)

	assert.ErrorIs(t, conn.Refresh(context.Background()), connect.ErrNoRefreshToken)
}

func TestOAuth2Factory_CompleteAuthorization(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.PostForm.Get("grant_type") != "authorization_code" || r.PostForm.Get("code") != "the-code" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token": "gh-token", "token_type": "bearer", "refresh_token": "gh-refresh"}`))
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer gh-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 7, "login": "octo"}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	f := newFactory(t, server.URL, connect.WithHTTPClient(server.Client()))

	authURL := f.AuthCodeURL("xyz")
	assert.Contains(t, authURL, server.URL+"/authorize?")
	assert.Contains(t, authURL, "state=xyz")

	record, err := f.CompleteAuthorization(context.Background(), "the-code")
	require.NoError(t, err)
	assert.Equal(t, domain.NewConnectionKey("github", "7"), record.Key())
	assert.Equal(t, "octo", record.DisplayName)
	assert.Equal(t, "gh-token", record.AccessToken)
	assert.Equal(t, "gh-refresh", record.RefreshToken)

	_, err = f.CompleteAuthorization(context.Background(), "bad-code")
	assert.Error(t, err)

	_, err = f.CompleteAuthorization(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestLocator_Authorizer(t *testing.T) {
	f := newFactory(t, "http://localhost")
	locator, err := connect.NewLocator(f)
	require.NoError(t, err)

	a, err := locator.Authorizer("github")
	require.NoError(t, err)
	assert.Equal(t, "github", a.ProviderID())

	_, err = locator.Authorizer("gitlab")
	assert.ErrorIs(t, err, connect.ErrUnknownProvider)
}
