package domain

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateConnection = errors.New("connection already exists")
	ErrNoSuchConnection    = errors.New("no such connection")
	ErrNotConnected        = errors.New("not connected to provider")
	ErrInvalidArgument     = errors.New("invalid argument")
)

// DuplicateConnectionError is returned when a remote identity is already linked within the
// target provider store.
type DuplicateConnectionError struct {
	Key ConnectionKey
}

func (e *DuplicateConnectionError) Error() string {
	return fmt.Sprintf("connection %s already exists", e.Key)
}

func (e *DuplicateConnectionError) Is(target error) bool {
	return target == ErrDuplicateConnection
}

// NoSuchConnectionError is returned when a connection required by the caller does not exist.
type NoSuchConnectionError struct {
	Key ConnectionKey
}

func (e *NoSuchConnectionError) Error() string {
	return fmt.Sprintf("no connection %s", e.Key)
}

func (e *NoSuchConnectionError) Is(target error) bool {
	return target == ErrNoSuchConnection
}

// NotConnectedError is returned when a workflow requires a primary connection to a provider
// and there is none.
type NotConnectedError struct {
	ProviderID string
}

func (e *NotConnectedError) Error() string {
	return fmt.Sprintf("not connected to %s", e.ProviderID)
}

func (e *NotConnectedError) Is(target error) bool {
	return target == ErrNotConnected
}

// RequireID fails with ErrInvalidArgument when value is empty.
func RequireID(name, value string) error {
	if value == "" {
		return fmt.Errorf("%w: %s must not be empty", ErrInvalidArgument, name)
	}
	return nil
}
