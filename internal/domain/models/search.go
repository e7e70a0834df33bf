package models

import (
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// SearchRequest is one passenger search. Origin and Destination are
// canonical location codes; TravelDate is a calendar date (YYYY-MM-DD).
type SearchRequest struct {
	Origin      string `json:"from" form:"from" validate:"required"`
	Destination string `json:"to" form:"to" validate:"required"`
	TravelDate  string `json:"date" form:"date" validate:"required,datetime=2006-01-02"`
	Adults      int    `json:"adults" form:"adults" validate:"gte=0,lte=20"`
	Children    int    `json:"children" form:"children" validate:"gte=0,lte=20"`
	Infants     int    `json:"infants" form:"infants" validate:"gte=0,lte=10"`
}

// Normalize lower-cases and trims the location codes in place.
func (r *SearchRequest) Normalize() {
	r.Origin = strings.ToLower(strings.TrimSpace(r.Origin))
	r.Destination = strings.ToLower(strings.TrimSpace(r.Destination))
	r.TravelDate = strings.TrimSpace(r.TravelDate)
}

// Ticketed is the number of passengers that need a seat.
func (r SearchRequest) Ticketed() int {
	return r.Adults + r.Children
}

func (r SearchRequest) Date() (time.Time, error) {
	return time.ParseInLocation(DateLayout, r.TravelDate, time.Local)
}

// ProviderFailure is the user-safe error entry for one provider.
type ProviderFailure struct {
	Provider string `json:"provider"`
	Kind     string `json:"kind"`
	Message  string `json:"message"`
}

type SearchMetadata struct {
	ProvidersQueried []string  `json:"providersQueried"`
	Succeeded        []string  `json:"succeeded"`
	Failed           []string  `json:"failed"`
	Skipped          []string  `json:"skipped"`
	CacheHits        []string  `json:"cacheHits"`
	TotalResults     int       `json:"totalResults"`
	DurationMs       int64     `json:"durationMs"`
	SearchedAt       time.Time `json:"searchedAt"`
}

// SearchResponse is always returned, even when every provider failed.
type SearchResponse struct {
	Results  []UnifiedFerryResult `json:"results"`
	Errors   []ProviderFailure    `json:"errors"`
	Metadata SearchMetadata       `json:"metadata"`
}
