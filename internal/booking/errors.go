package booking

import (
	"ferryhub/internal/domain"
	"ferryhub/internal/domain/models"
)

// Booking error codes returned to callers.
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeTripStateNotFound   = "TRIP_STATE_NOT_FOUND"
	CodeNotConfigured       = "PROVIDER_NOT_CONFIGURED"
	CodeProviderRejected    = "PROVIDER_REJECTED"
	CodeProviderAuth        = "PROVIDER_AUTH"
	CodeProviderTimeout     = "PROVIDER_TIMEOUT"
	CodeProviderUnavailable = "PROVIDER_UNAVAILABLE"
	CodeBookingFailed       = "BOOKING_FAILED"
)

// BookingErrorFor maps a booking failure to its caller-facing code. An
// operator's business rejection is passed through verbatim; any other
// provider text is replaced.
func BookingErrorFor(err error) *models.BookingError {
	switch {
	case domain.IsValidation(err):
		return &models.BookingError{Code: CodeValidation, Message: err.Error()}
	case domain.IsTripStateNotFound(err):
		return &models.BookingError{Code: CodeTripStateNotFound, Message: "The selected trip is no longer available. Please search again."}
	}
	switch domain.KindOf(err) {
	case domain.KindConfig:
		return &models.BookingError{Code: CodeNotConfigured, Message: "The operator is not available for booking."}
	case domain.KindDomain:
		msg := domain.ProviderMessage(err)
		if msg == "" {
			msg = "The operator rejected the booking."
		}
		return &models.BookingError{Code: CodeProviderRejected, Message: msg}
	case domain.KindAuth:
		return &models.BookingError{Code: CodeProviderAuth, Message: "The operator could not be reached with our credentials."}
	case domain.KindTimeout:
		return &models.BookingError{Code: CodeProviderTimeout, Message: "The operator did not respond in time. The booking may still complete; check before retrying."}
	case domain.KindTransport, domain.KindUpstream:
		return &models.BookingError{Code: CodeProviderUnavailable, Message: "The operator is temporarily unavailable."}
	}
	return &models.BookingError{Code: CodeBookingFailed, Message: "The booking could not be completed."}
}
