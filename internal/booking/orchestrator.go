// Package booking turns a selected itinerary and passenger manifest into a
// confirmed, ticketed booking with the operator that offered it.
package booking

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"ferryhub/internal/domain"
	"ferryhub/internal/domain/models"
	"ferryhub/internal/events"
	"ferryhub/internal/location"
	"ferryhub/internal/metrics"
	"ferryhub/internal/providers"
	"ferryhub/internal/repositories"
	"ferryhub/internal/tracing"
	"ferryhub/internal/utils"
)

const (
	defaultArtifactTimeout = 20 * time.Second
	sideEffectTimeout      = 5 * time.Second
)

// Engine is the slice of the search engine the orchestrator depends on.
type Engine interface {
	Provider(name string) (providers.Provider, bool)
	Trip(provider, tripID string) (models.UnifiedFerryResult, bool)
	Remember(trip models.UnifiedFerryResult)
	SearchProvider(ctx context.Context, name string, req models.SearchRequest) ([]models.UnifiedFerryResult, error)
}

type TripStore interface {
	FindTrip(ctx context.Context, provider, tripID, travelDate string) (models.UnifiedFerryResult, error)
}

type RecordStore interface {
	Record(ctx context.Context, b repositories.BookingRecord) error
}

type ArtifactStore interface {
	Save(ctx context.Context, provider, pnr string, doc []byte) (string, error)
}

type Config struct {
	Engine          Engine
	Snapshots       TripStore
	Records         RecordStore
	Artifacts       ArtifactStore
	Events          events.Publisher
	Locations       models.Canonicalizer
	Metrics         *metrics.Metrics
	Logger          *slog.Logger
	Now             func() time.Time
	NewReference    func() string
	ArtifactTimeout time.Duration
}

type Orchestrator struct {
	engine          Engine
	snapshots       TripStore
	records         RecordStore
	artifacts       ArtifactStore
	events          events.Publisher
	locations       models.Canonicalizer
	metrics         *metrics.Metrics
	logger          *slog.Logger
	now             func() time.Time
	newReference    func() string
	artifactTimeout time.Duration
}

func New(cfg Config) *Orchestrator {
	o := &Orchestrator{
		engine:          cfg.Engine,
		snapshots:       cfg.Snapshots,
		records:         cfg.Records,
		artifacts:       cfg.Artifacts,
		events:          cfg.Events,
		locations:       cfg.Locations,
		metrics:         cfg.Metrics,
		logger:          cfg.Logger,
		now:             cfg.Now,
		newReference:    cfg.NewReference,
		artifactTimeout: cfg.ArtifactTimeout,
	}
	if o.events == nil {
		o.events = events.Nop{}
	}
	if o.locations == nil {
		o.locations = location.Default()
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	o.logger = o.logger.With("component", "booking")
	if o.now == nil {
		o.now = time.Now
	}
	if o.newReference == nil {
		o.newReference = uuid.NewString
	}
	if o.artifactTimeout <= 0 {
		o.artifactTimeout = defaultArtifactTimeout
	}
	return o
}

// Book runs one booking attempt. On failure the response still carries the
// booking reference and a structured error, and the returned error is
// typed for the caller to map.
func (o *Orchestrator) Book(ctx context.Context, req models.BookingRequest) (models.BookingResponse, error) {
	resp := models.BookingResponse{BookingReference: o.newReference()}
	ctx, span := tracing.Start(ctx, "booking.book",
		attribute.String("provider", req.Provider),
		attribute.String("trip_id", req.TripID),
		attribute.String("booking_reference", resp.BookingReference),
	)
	var err error
	defer func() { tracing.End(span, err) }()

	if err = req.Validate(); err != nil {
		return o.fail(ctx, resp, req, err), err
	}
	if err = req.Canonicalize(o.locations); err != nil {
		return o.fail(ctx, resp, req, err), err
	}
	if utils.IsPastDate(req.TravelDate, o.now()) {
		err = domain.ValidationError{Field: "date", Msg: "travel date is in the past"}
		return o.fail(ctx, resp, req, err), err
	}
	utils.LogEvent(ctx, "booking", "attempt", "booking attempted",
		"booking_reference", resp.BookingReference, "provider", req.Provider, "trip_id", req.TripID, "class_id", req.ClassID,
		"contact", utils.MaskEmail(req.Passengers[0].Email), "payment_ref", utils.MaskTail(req.PaymentReference, 4))

	var booker providers.Booker
	if booker, err = o.booker(req.Provider); err != nil {
		return o.fail(ctx, resp, req, err), err
	}

	// SELECT -> RESOLVE_STATE
	trip, class, source, err := o.resolveTrip(ctx, tripQuery{
		provider: req.Provider,
		tripID:   req.TripID,
		classID:  req.ClassID,
		date:     req.TravelDate,
		search:   req.SearchRequest(),
	})
	if err != nil {
		return o.fail(ctx, resp, req, err), err
	}
	span.SetAttributes(attribute.String("trip_state_source", source))

	// TRANSFORM_PASSENGERS
	manifest := Partition(req.Passengers)
	if err = AssignSeats(&manifest, trip, class, req.Seats); err != nil {
		return o.fail(ctx, resp, req, err), err
	}
	fare := Fare(class, manifest)
	if req.TotalAmount > 0 && math.Abs(req.TotalAmount-fare.Total) >= 1 {
		o.logger.Warn("caller total differs from class fare",
			"booking_reference", resp.BookingReference, "caller_total", req.TotalAmount, "fare_total", fare.Total)
	}

	// BOOK
	bctx, bspan := tracing.Start(ctx, "booking.provider_book", attribute.String("provider", req.Provider))
	result, err := booker.Book(bctx, providers.BookingInput{Request: req, Trip: trip, Class: class, Manifest: manifest})
	tracing.End(bspan, err)
	if err == nil && (!result.Success || result.PNR == "") {
		err = domain.NewProviderError(req.Provider, "book", domain.KindParse, "booking not confirmed", nil)
	}
	if err != nil {
		return o.fail(ctx, resp, req, err), err
	}

	// CONFIRM
	details := &models.ConfirmationDetails{
		Provider:           req.Provider,
		VesselName:         trip.VesselName,
		Route:              trip.Route,
		Date:               req.TravelDate,
		DepartureTime:      trip.Schedule.Departure,
		ClassID:            class.ID,
		ClassName:          class.Name,
		Tickets:            result.Tickets,
		Infants:            infantNames(manifest),
		TicketedPassengers: len(manifest.Ticketed),
		Fare:               fare,
		PaymentReference:   req.PaymentReference,
		ConfirmedAt:        o.now(),
	}
	if details.Tickets == nil {
		details.Tickets = []models.Ticket{}
	}

	// ARTIFACT_FETCH
	details.TicketURL = o.storeArtifact(ctx, req.Provider, result, details)

	resp.Success = true
	resp.PNR = result.PNR
	resp.ProviderBookingID = result.ProviderBookingID
	resp.ConfirmationDetails = details

	o.metrics.RecordBooking(req.Provider, "confirmed")
	utils.LogEvent(ctx, "booking", "confirmed", "booking confirmed",
		"booking_reference", resp.BookingReference, "provider", req.Provider, "pnr", result.PNR,
		"ticketed", len(manifest.Ticketed), "infants", len(manifest.Infants), "trip_state_source", source)

	o.record(ctx, resp, req, manifest)
	return resp, nil
}

func (o *Orchestrator) booker(provider string) (providers.Booker, error) {
	p, ok := o.engine.Provider(provider)
	if !ok {
		return nil, domain.ValidationError{Field: "provider", Msg: "unknown provider " + provider}
	}
	if !p.Configured() {
		return nil, providers.NotConfigured(provider, "book")
	}
	b, ok := p.(providers.Booker)
	if !ok {
		return nil, domain.ValidationError{Field: "provider", Msg: provider + " does not take bookings"}
	}
	return b, nil
}

func (o *Orchestrator) fail(ctx context.Context, resp models.BookingResponse, req models.BookingRequest, err error) models.BookingResponse {
	resp.Success = false
	resp.Error = BookingErrorFor(err)
	o.metrics.RecordBooking(req.Provider, resp.Error.Code)
	utils.LogEvent(ctx, "booking", "failed", "booking failed",
		"booking_reference", resp.BookingReference, "provider", req.Provider, "trip_id", req.TripID,
		"code", resp.Error.Code, "error", err.Error())
	return resp
}

func infantNames(m models.Manifest) []string {
	out := make([]string, 0, len(m.Infants))
	for _, p := range m.Infants {
		out = append(out, p.Name)
	}
	return out
}

// record persists the booking and publishes its event. Neither can fail
// a confirmed booking.
func (o *Orchestrator) record(ctx context.Context, resp models.BookingResponse, req models.BookingRequest, m models.Manifest) {
	d := resp.ConfirmationDetails
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	if o.records != nil {
		err := o.records.Record(ctx, repositories.BookingRecord{
			BookingReference:  resp.BookingReference,
			Provider:          req.Provider,
			PNR:               resp.PNR,
			ProviderBookingID: resp.ProviderBookingID,
			TripID:            req.TripID,
			ClassID:           req.ClassID,
			TravelDate:        req.TravelDate,
			Origin:            req.Origin,
			Destination:       req.Destination,
			TicketedCount:     len(m.Ticketed),
			InfantCount:       len(m.Infants),
			TotalAmount:       d.Fare.Total,
			Currency:          d.Fare.Currency,
			PaymentReference:  req.PaymentReference,
			TicketURL:         d.TicketURL,
			CreatedAt:         d.ConfirmedAt,
		})
		if err != nil {
			o.logger.Warn("booking record not saved", "booking_reference", resp.BookingReference, "duplicate", domain.IsConflict(err), "error", err)
		}
	}

	err := o.events.PublishBookingConfirmed(ctx, events.BookingConfirmed{
		BookingReference:  resp.BookingReference,
		Provider:          req.Provider,
		PNR:               resp.PNR,
		ProviderBookingID: resp.ProviderBookingID,
		TripID:            req.TripID,
		ClassID:           req.ClassID,
		Origin:            req.Origin,
		Destination:       req.Destination,
		TravelDate:        req.TravelDate,
		TicketedCount:     len(m.Ticketed),
		InfantCount:       len(m.Infants),
		TotalAmount:       d.Fare.Total,
		Currency:          d.Fare.Currency,
		PaymentReference:  req.PaymentReference,
		TicketURL:         d.TicketURL,
		ConfirmedAt:       d.ConfirmedAt,
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		o.logger.Warn("booking event not published", "booking_reference", resp.BookingReference, "error", err)
	}
}
