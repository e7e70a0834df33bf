package providers

import (
	"context"
	"time"

	"ferryhub/internal/domain/models"
)

const (
	Sealink    = "sealink"
	Makruzz    = "makruzz"
	GreenOcean = "greenocean"
)

// Provider is the capability every ferry operator adapter offers. Each
// implementation owns its own authentication state.
type Provider interface {
	Name() string
	// Configured is false when credentials or endpoint are missing. An
	// unconfigured provider is never called.
	Configured() bool
	SupportsRoute(from, to string) bool
	// Timeout is the ceiling for one aggregated search branch.
	Timeout() time.Duration
	Search(ctx context.Context, req models.SearchRequest) ([]models.UnifiedFerryResult, error)
	// Probe is a cheap authenticated request used by health checks.
	Probe(ctx context.Context) error
}

// BookingInput is everything an adapter needs to book one class of a trip.
type BookingInput struct {
	Request  models.BookingRequest
	Trip     models.UnifiedFerryResult
	Class    models.FerryClass
	Manifest models.Manifest
}

type Booker interface {
	Book(ctx context.Context, in BookingInput) (models.BookingResult, error)
}

// SeatLayoutFetcher loads a live seat layout for one class.
type SeatLayoutFetcher interface {
	SeatLayout(ctx context.Context, trip models.UnifiedFerryResult, classID string) (models.SeatLayout, error)
}

// TicketFetcher downloads the ticket document of a confirmed booking.
type TicketFetcher interface {
	DownloadTicket(ctx context.Context, result models.BookingResult) ([]byte, error)
}
