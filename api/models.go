// Package api holds the wire models shared by the HTTP front ends of the connection registry.
package api

import "fmt"

// Error codes of ErrorResponse.
const (
	InvalidRequest  = "invalid_request"
	InvalidState    = "invalid_state"
	UnknownProvider = "unknown_provider"
	NotFound        = "not_found"
	Conflict        = "conflict"
	ProviderError   = "provider_error"
	ServerError     = "server_error"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

func (e *ErrorResponse) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

func NewInvalidRequest(description string) *ErrorResponse {
	return &ErrorResponse{Code: InvalidRequest, Description: description}
}

func NewInvalidState() *ErrorResponse {
	return &ErrorResponse{Code: InvalidState, Description: "state does not match the authorization request"}
}

func NewNotFound(description string) *ErrorResponse {
	return &ErrorResponse{Code: NotFound, Description: description}
}

func NewServerError(description string) *ErrorResponse {
	return &ErrorResponse{Code: ServerError, Description: description}
}
