package booking

import (
	"context"
	"errors"

	"ferryhub/internal/domain"
	"ferryhub/internal/domain/models"
)

// Where a trip's provider state came from.
const (
	SourceCache    = "cache"
	SourceSnapshot = "snapshot"
	SourceRefetch  = "refetch"
)

type tripQuery struct {
	provider string
	tripID   string
	classID  string
	date     string
	search   models.SearchRequest
}

// resolveTrip finds the searched trip: first in the trip cache, then in the
// snapshot store, and finally by replaying the original search. It never
// guesses identifiers.
func (o *Orchestrator) resolveTrip(ctx context.Context, q tripQuery) (models.UnifiedFerryResult, models.FerryClass, string, error) {
	if trip, ok := o.engine.Trip(q.provider, q.tripID); ok && sameDate(trip, q.date) {
		if cls, ok := trip.Class(q.classID); ok {
			return trip, cls, SourceCache, nil
		}
	}

	if o.snapshots != nil {
		trip, err := o.snapshots.FindTrip(ctx, q.provider, q.tripID, q.date)
		switch {
		case err == nil:
			if cls, ok := trip.Class(q.classID); ok {
				o.engine.Remember(trip)
				return trip, cls, SourceSnapshot, nil
			}
		case !domain.IsNotFound(err):
			o.logger.Warn("trip snapshot lookup failed", "provider", q.provider, "trip_id", q.tripID, "error", err)
		}
	}

	o.logger.Info("trip state missing, replaying search", "provider", q.provider, "trip_id", q.tripID, "date", q.date)
	results, err := o.engine.SearchProvider(ctx, q.provider, q.search)
	if err != nil {
		if domain.IsValidation(err) || domain.IsConfig(err) {
			return models.UnifiedFerryResult{}, models.FerryClass{}, "", err
		}
		return models.UnifiedFerryResult{}, models.FerryClass{}, "", domain.TripStateNotFoundError{
			Provider: q.provider, TripID: q.tripID, ClassID: q.classID, Err: err,
		}
	}
	for _, trip := range results {
		if trip.TripID != q.tripID {
			continue
		}
		cls, ok := trip.Class(q.classID)
		if !ok {
			return models.UnifiedFerryResult{}, models.FerryClass{}, "", domain.TripStateNotFoundError{
				Provider: q.provider, TripID: q.tripID, ClassID: q.classID,
				Err: errors.New("class no longer offered"),
			}
		}
		return trip, cls, SourceRefetch, nil
	}
	return models.UnifiedFerryResult{}, models.FerryClass{}, "", domain.TripStateNotFoundError{
		Provider: q.provider, TripID: q.tripID, ClassID: q.classID,
		Err: errors.New("trip not in a fresh search"),
	}
}

func sameDate(trip models.UnifiedFerryResult, date string) bool {
	return trip.Schedule.Date == "" || date == "" || trip.Schedule.Date == date
}
