package domain

import (
	"errors"
	"fmt"
)

var (
	ErrListingNotFound    = errors.New("listing not found")
	ErrInvalidListingData = errors.New("invalid listing data")
	ErrInvalidDraft       = errors.New("invalid listing draft")
	ErrUploadFailed       = errors.New("image upload failed")
	ErrForbidden          = errors.New("user not authorized to perform this action")
)

type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindUnauthorized
	KindValidation
	KindRateLimited
	KindServer
	KindOffline
	KindDecoding
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindValidation:
		return "validation"
	case KindRateLimited:
		return "rate_limited"
	case KindServer:
		return "server"
	case KindOffline:
		return "offline"
	case KindDecoding:
		return "decoding"
	default:
		return "unknown"
	}
}

// APIError is the classified outcome of a failed API call.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

// Sentinels for errors.Is; only Kind is compared.
var (
	ErrUnauthorized = &APIError{Kind: KindUnauthorized}
	ErrValidation   = &APIError{Kind: KindValidation}
	ErrRateLimited  = &APIError{Kind: KindRateLimited}
	ErrServer       = &APIError{Kind: KindServer}
	ErrOffline      = &APIError{Kind: KindOffline}
	ErrDecoding     = &APIError{Kind: KindDecoding}
	ErrUnknown      = &APIError{Kind: KindUnknown}
)

func (e *APIError) Error() string {
	switch {
	case e.Kind == KindServer:
		return fmt.Sprintf("api error: server (status %d)", e.StatusCode)
	case e.Message != "":
		return fmt.Sprintf("api error: %s: %s", e.Kind, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("api error: %s: %v", e.Kind, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("api error: %s (status %d)", e.Kind, e.StatusCode)
	default:
		return "api error: " + e.Kind.String()
	}
}

func (e *APIError) Unwrap() error { return e.Err }

func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	return ok && t.Kind == e.Kind
}

// Retryable reports whether the HTTP client may try the call again.
// Unknown errors are retryable only when they came from the transport.
func (e *APIError) Retryable() bool {
	switch e.Kind {
	case KindRateLimited, KindServer, KindOffline:
		return true
	case KindUnknown:
		return e.StatusCode == 0 && e.Err != nil
	default:
		return false
	}
}

// UserMessage is the text shown to the person using the app.
func (e *APIError) UserMessage() string {
	switch e.Kind {
	case KindUnauthorized:
		return "Please sign in to continue"
	case KindValidation:
		return e.Message
	case KindRateLimited:
		return "Too many requests. Please try again later."
	case KindServer:
		return fmt.Sprintf("Server error (%d). Please try again.", e.StatusCode)
	case KindOffline:
		return "No internet connection. Please check your network."
	case KindDecoding:
		return "Unable to process response from server."
	default:
		return "An unexpected error occurred."
	}
}

// UserMessage extracts a displayable message from any error.
func UserMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.UserMessage()
	}
	if errors.Is(err, ErrInvalidDraft) {
		return err.Error()
	}
	return ErrUnknown.UserMessage()
}
