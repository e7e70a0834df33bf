package models

import (
	"strings"
	"time"
)

const InfantMaxAge = 2

// Canonical passenger vocabulary. Adapters map these to provider encodings.
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"

	NationalityIndian  = "indian"
	NationalityForeign = "foreigner"
)

type Passenger struct {
	Name        string `json:"name" validate:"required,max=120"`
	Age         int    `json:"age" validate:"gte=0,lte=120"`
	Gender      string `json:"gender" validate:"required,oneof=male female other"`
	Nationality string `json:"nationality" validate:"required,oneof=indian foreigner"`

	// Contact fields are read from the first passenger only.
	Email string `json:"email,omitempty" validate:"omitempty,email"`
	Phone string `json:"phone,omitempty" validate:"omitempty,max=20"`

	PassportNumber string `json:"passportNumber,omitempty" validate:"omitempty,max=30"`
	PassportExpiry string `json:"passportExpiry,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Country        string `json:"country,omitempty" validate:"omitempty,max=60"`
}

// IsInfant reports whether the passenger travels without seat or ticket.
func (p Passenger) IsInfant() bool { return p.Age < InfantMaxAge }

func (p *Passenger) Normalize() {
	p.Name = strings.Join(strings.Fields(p.Name), " ")
	p.Gender = strings.ToLower(strings.TrimSpace(p.Gender))
	switch strings.ToLower(strings.TrimSpace(p.Nationality)) {
	case "foreign", "foreigner", "fn", "non-indian":
		p.Nationality = NationalityForeign
	case "indian", "in", "india":
		p.Nationality = NationalityIndian
	default:
		p.Nationality = strings.ToLower(strings.TrimSpace(p.Nationality))
	}
	switch p.Gender {
	case "m":
		p.Gender = GenderMale
	case "f":
		p.Gender = GenderFemale
	}
}

// TicketedPassenger is a passenger with an assigned seat reference. Seat is
// empty for providers that assign seats themselves.
type TicketedPassenger struct {
	Passenger
	Seat SeatAssignment
}

type SeatAssignment struct {
	ID     string `json:"id"`
	Number string `json:"number"`
}

// Manifest is the passenger list split by the infant rule.
type Manifest struct {
	Ticketed []TicketedPassenger
	Infants  []Passenger
	Contact  Contact
}

type Contact struct {
	Name  string
	Email string
	Phone string
}

type BookingRequest struct {
	Provider         string      `json:"provider" validate:"required,oneof=sealink makruzz greenocean"`
	TripID           string      `json:"tripId" validate:"required"`
	ClassID          string      `json:"classId" validate:"required"`
	Origin           string      `json:"from" validate:"required"`
	Destination      string      `json:"to" validate:"required"`
	TravelDate       string      `json:"date" validate:"required,datetime=2006-01-02"`
	DepartureTime    string      `json:"departureTime,omitempty"`
	Passengers       []Passenger `json:"passengers" validate:"required,min=1,max=30,dive"`
	Seats            []string    `json:"seats"`
	PaymentReference string      `json:"paymentReference" validate:"required,max=100"`
	TotalAmount      float64     `json:"totalAmount" validate:"gte=0"`
}

func (r *BookingRequest) Normalize() {
	r.Provider = strings.ToLower(strings.TrimSpace(r.Provider))
	r.Origin = strings.ToLower(strings.TrimSpace(r.Origin))
	r.Destination = strings.ToLower(strings.TrimSpace(r.Destination))
	r.TripID = strings.TrimSpace(r.TripID)
	r.ClassID = strings.TrimSpace(r.ClassID)
	r.TravelDate = strings.TrimSpace(r.TravelDate)
	for i := range r.Passengers {
		r.Passengers[i].Normalize()
	}
	seats := make([]string, 0, len(r.Seats))
	for _, s := range r.Seats {
		if s = strings.TrimSpace(s); s != "" {
			seats = append(seats, s)
		}
	}
	r.Seats = seats
}

// SearchRequest rebuilds the search that produced the selected trip.
func (r BookingRequest) SearchRequest() SearchRequest {
	sr := SearchRequest{Origin: r.Origin, Destination: r.Destination, TravelDate: r.TravelDate}
	for _, p := range r.Passengers {
		switch {
		case p.IsInfant():
			sr.Infants++
		case p.Age < 12:
			sr.Children++
		default:
			sr.Adults++
		}
	}
	return sr
}

type Ticket struct {
	TicketNumber string `json:"ticketNumber"`
	Name         string `json:"name"`
	Seat         string `json:"seat"`
}

// BookingResult is what an adapter returns for a confirmed booking.
type BookingResult struct {
	Success           bool     `json:"success"`
	PNR               string   `json:"pnr"`
	ProviderBookingID string   `json:"providerBookingId"`
	Tickets           []Ticket `json:"tickets"`
	TicketURL         string   `json:"ticketUrl,omitempty"`
	Error             string   `json:"error,omitempty"`

	// Artifact is an inline ticket document when the provider returns one.
	Artifact []byte `json:"-"`
}

type ConfirmationDetails struct {
	Provider           string    `json:"provider"`
	VesselName         string    `json:"vesselName"`
	Route              Route     `json:"route"`
	Date               string    `json:"date"`
	DepartureTime      string    `json:"departureTime"`
	ClassID            string    `json:"classId"`
	ClassName          string    `json:"className"`
	Tickets            []Ticket  `json:"tickets"`
	Infants            []string  `json:"infants"`
	TicketedPassengers int       `json:"ticketedPassengers"`
	Fare               Pricing   `json:"fare"`
	PaymentReference   string    `json:"paymentReference"`
	TicketURL          string    `json:"ticketUrl,omitempty"`
	ConfirmedAt        time.Time `json:"confirmedAt"`
}

type BookingError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type BookingResponse struct {
	Success             bool                 `json:"success"`
	PNR                 string               `json:"pnr,omitempty"`
	ProviderBookingID   string               `json:"providerBookingId,omitempty"`
	BookingReference    string               `json:"bookingReference"`
	ConfirmationDetails *ConfirmationDetails `json:"confirmationDetails,omitempty"`
	Error               *BookingError        `json:"error,omitempty"`
}
