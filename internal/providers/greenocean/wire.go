package greenocean

import (
	"encoding/json"
	"strings"

	"ferryhub/internal/providers"
)

// envelope is the {status,message,data} wrapper around every response.
type envelope struct {
	Status  providers.Stringish `json:"status"`
	Message string              `json:"message"`
	Data    json.RawMessage     `json:"data"`
}

func (e envelope) ok() bool {
	switch strings.ToLower(strings.TrimSpace(e.Status.String())) {
	case "1", "true", "success", "ok", "200":
		return true
	}
	return false
}

type searchRequest struct {
	FromID          string `json:"from_id"`
	ToID            string `json:"to_id"`
	TravelDate      string `json:"travel_date"`
	NumberOfAdults  int    `json:"number_of_adults"`
	NumberOfInfants int    `json:"number_of_infants"`
	PublicKey       string `json:"public_key"`
	HashString      string `json:"hash_string"`
}

type tripRow struct {
	FerryID        providers.Stringish `json:"ferry_id"`
	FerryName      string              `json:"ferry_name"`
	RouteID        providers.Stringish `json:"route_id"`
	DepartureTime  string              `json:"departure_time"`
	ArrivalTime    string              `json:"arrival_time"`
	ClassID        providers.Stringish `json:"class_id"`
	ClassTitle     string              `json:"class_title"`
	Fare           providers.Number    `json:"fare"`
	PortFee        providers.Number    `json:"port_fee"`
	GST            providers.Number    `json:"gst"`
	AvailableSeats providers.Number    `json:"available_seats"`
	TotalSeats     providers.Number    `json:"total_seats"`
}

type layoutRequest struct {
	FerryID    string `json:"ferry_id"`
	ClassID    string `json:"class_id"`
	RouteID    string `json:"route_id"`
	TravelDate string `json:"travel_date"`
	PublicKey  string `json:"public_key"`
	HashString string `json:"hash_string"`
}

type layoutSeat struct {
	SeatID providers.Stringish `json:"seat_id"`
	SeatNo providers.Stringish `json:"seat_no"`
	Status providers.Stringish `json:"status"`
	Row    providers.Number    `json:"row"`
	Col    providers.Number    `json:"col"`
}

type layoutData struct {
	Rows    providers.Number `json:"rows"`
	Columns providers.Number `json:"columns"`
	Seats   []layoutSeat     `json:"seats"`
}

type passenger struct {
	Name           string `json:"name"`
	Age            int    `json:"age"`
	Gender         string `json:"gender"`
	Nationality    string `json:"nationality"`
	SeatID         string `json:"seat_id"`
	PassportNo     string `json:"passport_no,omitempty"`
	PassportExpiry string `json:"passport_expiry,omitempty"`
	Country        string `json:"country,omitempty"`
}

type infant struct {
	Name        string `json:"name"`
	Age         int    `json:"age"`
	Gender      string `json:"gender"`
	Nationality string `json:"nationality"`
}

type bookRequest struct {
	FerryID          string      `json:"ferry_id"`
	ClassID          string      `json:"class_id"`
	RouteID          string      `json:"route_id"`
	TravelDate       string      `json:"travel_date"`
	SeatIDs          string      `json:"seat_ids"`
	Passengers       []passenger `json:"passengers"`
	Infants          []infant    `json:"infants"`
	ContactName      string      `json:"contact_name"`
	ContactEmail     string      `json:"contact_email"`
	ContactPhone     string      `json:"contact_phone"`
	PaymentReference string      `json:"payment_reference"`
	PublicKey        string      `json:"public_key"`
	HashString       string      `json:"hash_string"`
}

type bookResult struct {
	PNR       providers.Stringish `json:"pnr"`
	BookingID providers.Stringish `json:"booking_id"`
	Tickets   []struct {
		TicketNo providers.Stringish `json:"ticket_no"`
		Name     string              `json:"name"`
		SeatNo   providers.Stringish `json:"seat_no"`
	} `json:"tickets"`
	TicketPDF string `json:"ticket_pdf"`
}
