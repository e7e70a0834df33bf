package makruzz

import (
	"encoding/json"

	"ferryhub/internal/providers"
)

// envelope is the {code,msg,data} wrapper around every response.
type envelope struct {
	Code providers.Stringish `json:"code"`
	Msg  string              `json:"msg"`
	Data json.RawMessage     `json:"data"`
}

type request[T any] struct {
	Data T `json:"data"`
}

type loginData struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResult struct {
	Token string `json:"token"`
}

type searchData struct {
	TripType      string `json:"trip_type"`
	FromLocation  string `json:"from_location"`
	ToLocation    string `json:"to_location"`
	TravelDate    string `json:"travel_date"`
	NoOfPassenger int    `json:"no_of_passenger"`
}

type scheduleRow struct {
	ID             providers.Stringish `json:"id"`
	ScheduleID     providers.Stringish `json:"schedule_id"`
	ShipTitle      string              `json:"ship_title"`
	DepartureTime  string              `json:"departure_time"`
	ArrivalTime    string              `json:"arrival_time"`
	ShipClassID    providers.Stringish `json:"ship_class_id"`
	ShipClassTitle string              `json:"ship_class_title"`
	ShipClassPrice providers.Number    `json:"ship_class_price"`
	PSF            providers.Number    `json:"psf"`
	CGST           providers.Number    `json:"cgst"`
	SGST           providers.Number    `json:"sgst"`
	Seat           providers.Number    `json:"seat"`
	TotalSeat      providers.Number    `json:"total_seat"`
}

type passenger struct {
	Name        string `json:"name"`
	Age         int    `json:"age"`
	Sex         string `json:"sex"`
	Nationality string `json:"nationality"`
	FPassport   string `json:"fpassport,omitempty"`
	FExpDate    string `json:"fexpdate,omitempty"`
	FCountry    string `json:"fcountry,omitempty"`
}

type infant struct {
	Name string `json:"name"`
	Age  int    `json:"age"`
	Sex  string `json:"sex"`
}

type saveData struct {
	ScheduleID       string               `json:"schedule_id"`
	FromLocation     string               `json:"from_location"`
	ToLocation       string               `json:"to_location"`
	TravelDate       string               `json:"travel_date"`
	ClassID          int                  `json:"class_id"`
	NoOfPassenger    int                  `json:"no_of_passenger"`
	Passenger        map[string]passenger `json:"passenger"`
	Infant           map[string]infant    `json:"infant"`
	CName            string               `json:"c_name"`
	CMobile          string               `json:"c_mobile"`
	CEmail           string               `json:"c_email"`
	PaymentReference string               `json:"payment_reference"`
}

type saveResult struct {
	BookingID providers.Stringish `json:"booking_id"`
}

type bookingRef struct {
	BookingID string `json:"booking_id"`
}

type confirmResult struct {
	PNR   providers.Stringish `json:"pnr"`
	Seats []struct {
		Name     string              `json:"name"`
		SeatNo   providers.Stringish `json:"seat_no"`
		TicketNo providers.Stringish `json:"ticket_no"`
	} `json:"seats"`
}

type downloadData struct {
	BookingID string `json:"booking_id"`
	PNR       string `json:"pnr"`
}

type downloadResult struct {
	TicketPDF string `json:"ticket_pdf"`
}
