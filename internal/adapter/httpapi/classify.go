package httpapi

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"syscall"

	"github.com/subleasefinder/sublease-client/internal/listing/domain"
)

type errorBody struct {
	Message string `json:"message"`
}

func decodeResponse(status int, body []byte, out interface{}) error {
	if status < 200 || status > 299 {
		return classifyStatus(status, body)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &domain.APIError{Kind: domain.KindDecoding, StatusCode: status, Err: err}
	}
	return nil
}

func classifyStatus(status int, body []byte) *domain.APIError {
	switch {
	case status == http.StatusUnauthorized:
		return &domain.APIError{Kind: domain.KindUnauthorized, StatusCode: status}
	case status == http.StatusUnprocessableEntity:
		var eb errorBody
		if err := json.Unmarshal(body, &eb); err != nil || eb.Message == "" {
			eb.Message = http.StatusText(status)
		}
		return &domain.APIError{Kind: domain.KindValidation, StatusCode: status, Message: eb.Message}
	case status == http.StatusTooManyRequests:
		return &domain.APIError{Kind: domain.KindRateLimited, StatusCode: status}
	case status >= 500 && status <= 599:
		return &domain.APIError{Kind: domain.KindServer, StatusCode: status}
	default:
		return &domain.APIError{Kind: domain.KindUnknown, StatusCode: status}
	}
}

func classifyTransport(err error) *domain.APIError {
	if isNotConnected(err) {
		return &domain.APIError{Kind: domain.KindOffline, Err: err}
	}
	return &domain.APIError{Kind: domain.KindUnknown, Err: err}
}

// isNotConnected reports failures where no route to the server exists.
func isNotConnected(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ENETUNREACH) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETDOWN)
}
