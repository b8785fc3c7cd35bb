package connect

import "errors"

var (
	ErrUnknownProvider       = errors.New("no connection factory registered for provider")
	ErrProviderMismatch      = errors.New("connection belongs to another provider")
	ErrProviderRegistered    = errors.New("connection factory already registered for provider")
	ErrProviderMisconfigured = errors.New("provider is misconfigured")
	ErrNoRefreshToken        = errors.New("connection has no refresh token")
	ErrFetchProfileFailed    = errors.New("failed to fetch user profile from provider")
)
