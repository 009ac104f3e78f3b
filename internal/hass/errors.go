package hass

import "fmt"

// ResultError is the structured error of a failed result frame.
type ResultError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ResultError) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Code != "":
		return fmt.Sprintf("request failed (%s)", e.Code)
	default:
		return "request failed"
	}
}

// AuthError reports an auth_invalid handshake reply. It is never retried.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return "home assistant rejected the access token"
	}
	return "home assistant rejected the access token: " + e.Message
}
