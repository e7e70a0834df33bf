package models

import (
	"encoding/json"
	"math"
	"time"
)

type SeatStatus string

const (
	SeatAvailable SeatStatus = "available"
	SeatBooked    SeatStatus = "booked"
	SeatBlocked   SeatStatus = "blocked"
)

type SeatType string

const (
	SeatWindow SeatType = "window"
	SeatAisle  SeatType = "aisle"
	SeatMiddle SeatType = "middle"
)

type Seat struct {
	ID     string     `json:"id"`
	Number string     `json:"number"`
	Status SeatStatus `json:"status"`
	Type   SeatType   `json:"type"`
	Row    int        `json:"row"`
	Column int        `json:"column"`
}

type SeatLayout struct {
	Rows    int    `json:"rows"`
	Columns int    `json:"columns"`
	Seats   []Seat `json:"seats"`
}

// Available counts seats with status available.
func (l SeatLayout) Available() int {
	n := 0
	for _, s := range l.Seats {
		if s.Status == SeatAvailable {
			n++
		}
	}
	return n
}

// FindSeat looks a seat up by id or display number.
func (l SeatLayout) FindSeat(ref string) (Seat, bool) {
	for _, s := range l.Seats {
		if s.ID == ref || s.Number == ref {
			return s, true
		}
	}
	return Seat{}, false
}

// Pricing is per ticketed passenger unless stated otherwise.
type Pricing struct {
	BaseFare float64 `json:"baseFare"`
	Taxes    float64 `json:"taxes"`
	PortFee  float64 `json:"portFee"`
	Total    float64 `json:"total"`
	Currency string  `json:"currency"`
}

// Normalize clamps the components to non-negative values and recomputes
// Total so that Total >= BaseFare always holds.
func (p Pricing) Normalize() Pricing {
	p.BaseFare = roundMoney(math.Max(p.BaseFare, 0))
	p.Taxes = roundMoney(math.Max(p.Taxes, 0))
	p.PortFee = roundMoney(math.Max(p.PortFee, 0))
	p.Total = roundMoney(p.BaseFare + p.Taxes + p.PortFee)
	if p.Currency == "" {
		p.Currency = "INR"
	}
	return p
}

// Times scales a per-passenger price to n ticketed passengers.
func (p Pricing) Times(n int) Pricing {
	if n < 0 {
		n = 0
	}
	f := float64(n)
	return Pricing{
		BaseFare: roundMoney(p.BaseFare * f),
		Taxes:    roundMoney(p.Taxes * f),
		PortFee:  roundMoney(p.PortFee * f),
		Total:    roundMoney(p.Total * f),
		Currency: p.Currency,
	}
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

type FerryClass struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Price          float64     `json:"price"`
	Pricing        Pricing     `json:"pricing"`
	AvailableSeats int         `json:"availableSeats"`
	TotalSeats     int         `json:"totalSeats"`
	Amenities      []string    `json:"amenities"`
	SeatLayout     *SeatLayout `json:"seatLayout,omitempty"`
}

type Place struct {
	Code        string `json:"code"`
	DisplayName string `json:"name"`
	PortCode    string `json:"portCode"`
}

type Route struct {
	Origin      Place `json:"origin"`
	Destination Place `json:"destination"`
}

type Schedule struct {
	Date            string `json:"date"`
	Departure       string `json:"departureTime"`
	Arrival         string `json:"arrivalTime"`
	Duration        string `json:"duration"`
	DurationMinutes int    `json:"durationMinutes"`
}

type Availability struct {
	TotalSeats     int       `json:"totalSeats"`
	AvailableSeats int       `json:"availableSeats"`
	LastUpdated    time.Time `json:"lastUpdated"`
}

type Features struct {
	SeatSelection      bool     `json:"seatSelection"`
	AutoSeatAssignment bool     `json:"autoSeatAssignment"`
	Amenities          []string `json:"amenities"`
}

// TripRefs are the provider-internal identifiers needed to book a trip.
type TripRefs struct {
	InternalID string `json:"internalId,omitempty"`
	VesselID   string `json:"vesselId,omitempty"`
	ScheduleID string `json:"scheduleId,omitempty"`
	FerryID    string `json:"ferryId,omitempty"`
	RouteID    string `json:"routeId,omitempty"`
}

// ProviderData is opaque to callers and only read by the booking flow.
type ProviderData struct {
	Refs            TripRefs        `json:"refs"`
	BookingEndpoint string          `json:"bookingEndpoint,omitempty"`
	SessionToken    string          `json:"-"`
	Raw             json.RawMessage `json:"raw,omitempty"`
}

// SearchMix records the passenger mix a result was searched with so the
// search can be reconstructed later.
type SearchMix struct {
	Adults   int `json:"adults"`
	Children int `json:"children"`
	Infants  int `json:"infants"`
}

type UnifiedFerryResult struct {
	Provider     string       `json:"provider"`
	TripID       string       `json:"tripId"`
	VesselName   string       `json:"vesselName"`
	Route        Route        `json:"route"`
	Schedule     Schedule     `json:"schedule"`
	Classes      []FerryClass `json:"classes"`
	Availability Availability `json:"availability"`
	Pricing      Pricing      `json:"pricing"`
	Features     Features     `json:"features"`
	Searched     SearchMix    `json:"searched"`
	ProviderData ProviderData `json:"providerData"`
}

// Class returns the class with the given provider-native id.
func (r UnifiedFerryResult) Class(id string) (FerryClass, bool) {
	for _, c := range r.Classes {
		if c.ID == id {
			return c, true
		}
	}
	return FerryClass{}, false
}

// Normalize enforces pricing and availability invariants on the result
// and on each of its classes. Result pricing is the cheapest class.
func (r *UnifiedFerryResult) Normalize() {
	total, available := 0, 0
	var cheapest *Pricing
	for i := range r.Classes {
		c := &r.Classes[i]
		c.Pricing = c.Pricing.Normalize()
		c.Price = c.Pricing.Total
		if c.AvailableSeats < 0 {
			c.AvailableSeats = 0
		}
		if c.TotalSeats < c.AvailableSeats {
			c.TotalSeats = c.AvailableSeats
		}
		total += c.TotalSeats
		available += c.AvailableSeats
		if cheapest == nil || c.Pricing.Total < cheapest.Total {
			p := c.Pricing
			cheapest = &p
		}
	}
	if len(r.Classes) > 0 {
		r.Availability.TotalSeats = total
		r.Availability.AvailableSeats = available
	}
	if r.Availability.AvailableSeats < 0 {
		r.Availability.AvailableSeats = 0
	}
	if r.Availability.TotalSeats < r.Availability.AvailableSeats {
		r.Availability.TotalSeats = r.Availability.AvailableSeats
	}
	if cheapest != nil {
		r.Pricing = *cheapest
	} else {
		r.Pricing = r.Pricing.Normalize()
	}
}
