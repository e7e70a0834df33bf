package booking

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"ferryhub/internal/domain"
	"ferryhub/internal/domain/models"
	"ferryhub/internal/providers"
	"ferryhub/internal/tracing"
)

type SeatLayoutQuery struct {
	Provider    string `form:"provider" binding:"required"`
	TripID      string `form:"trip_id" binding:"required"`
	ClassID     string `form:"class_id" binding:"required"`
	Origin      string `form:"from"`
	Destination string `form:"to"`
	Date        string `form:"date"`
	Adults      int    `form:"adults"`
	Children    int    `form:"children"`
}

// SeatLayout returns the live seat map for one class of a searched trip.
func (o *Orchestrator) SeatLayout(ctx context.Context, q SeatLayoutQuery) (models.SeatLayout, error) {
	ctx, span := tracing.Start(ctx, "booking.seat_layout",
		attribute.String("provider", q.Provider),
		attribute.String("trip_id", q.TripID),
	)
	var err error
	defer func() { tracing.End(span, err) }()

	p, ok := o.engine.Provider(q.Provider)
	if !ok {
		err = domain.ValidationError{Field: "provider", Msg: "unknown provider " + q.Provider}
		return models.SeatLayout{}, err
	}
	if !p.Configured() {
		err = providers.NotConfigured(q.Provider, "seat_layout")
		return models.SeatLayout{}, err
	}
	f, ok := p.(providers.SeatLayoutFetcher)
	if !ok {
		err = domain.ValidationError{Field: "provider", Msg: q.Provider + " assigns seats automatically"}
		return models.SeatLayout{}, err
	}

	search := models.SearchRequest{
		Origin:      q.Origin,
		Destination: q.Destination,
		TravelDate:  q.Date,
		Adults:      q.Adults,
		Children:    q.Children,
	}
	if search.Ticketed() == 0 {
		search.Adults = 1
	}
	trip, _, _, err := o.resolveTrip(ctx, tripQuery{
		provider: q.Provider,
		tripID:   q.TripID,
		classID:  q.ClassID,
		date:     q.Date,
		search:   search,
	})
	if err != nil {
		return models.SeatLayout{}, err
	}

	var layout models.SeatLayout
	layout, err = f.SeatLayout(ctx, trip, q.ClassID)
	if err != nil {
		return models.SeatLayout{}, err
	}
	if layout.Seats == nil {
		layout.Seats = []models.Seat{}
	}
	return layout, nil
}
