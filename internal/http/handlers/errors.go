package handlers

import (
	"net/http"

	"ferryhub/internal/domain"
	"ferryhub/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

// ErrorResponse standardizes error payloads.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func respondError(c *gin.Context, status int, code, message string, details any) {
	if code == "" {
		code = http.StatusText(status)
	}
	c.JSON(status, ErrorResponse{
		Error:     message,
		Code:      code,
		Details:   details,
		RequestID: middleware.GetRequestID(c),
	})
}

// StatusFor maps a domain error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case domain.IsValidation(err):
		return http.StatusBadRequest
	case domain.IsNotFound(err):
		return http.StatusNotFound
	case domain.IsConflict(err), domain.IsProviderDomain(err):
		return http.StatusConflict
	case domain.IsConfig(err):
		return http.StatusServiceUnavailable
	case domain.IsAuth(err):
		return http.StatusBadGateway
	case domain.IsTimeout(err):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// RespondDomainError maps domain errors to HTTP responses. Provider and
// internal error text is never echoed.
func RespondDomainError(c *gin.Context, err error) {
	status := StatusFor(err)
	switch status {
	case http.StatusBadRequest:
		respondError(c, status, "validation_error", err.Error(), nil)
	case http.StatusNotFound:
		respondError(c, status, "not_found", err.Error(), nil)
	case http.StatusConflict:
		msg := domain.ProviderMessage(err)
		if msg == "" {
			msg = "conflict"
		}
		respondError(c, status, "conflict", msg, nil)
	case http.StatusServiceUnavailable:
		respondError(c, status, "provider_not_configured", "operator not available", nil)
	case http.StatusBadGateway:
		respondError(c, status, "provider_auth", "operator authentication failed", nil)
	case http.StatusGatewayTimeout:
		respondError(c, status, "provider_timeout", "operator did not respond in time", nil)
	default:
		respondError(c, status, "internal_error", "something went wrong", nil)
	}
}
