package aggregator

import (
	"ferryhub/internal/domain"
	"ferryhub/internal/domain/models"
)

const (
	MsgTimeout       = "The operator did not respond in time. Please try again."
	MsgAuth          = "The operator could not be reached with our credentials."
	MsgUnavailable   = "The operator is temporarily unavailable."
	MsgNotConfigured = "The operator is not available."
	MsgUnknown       = "The operator returned an unexpected error."
)

// Failure turns a provider error into a user-safe entry. Raw provider
// text never leaves this function.
func Failure(provider string, err error) models.ProviderFailure {
	kind := domain.KindOf(err)
	f := models.ProviderFailure{Provider: provider, Kind: string(kind)}
	switch kind {
	case domain.KindTimeout:
		f.Message = MsgTimeout
	case domain.KindAuth:
		f.Message = MsgAuth
	case domain.KindUpstream, domain.KindTransport:
		f.Message = MsgUnavailable
	case domain.KindConfig:
		f.Message = MsgNotConfigured
	default:
		f.Kind = "unknown"
		f.Message = MsgUnknown
	}
	return f
}
