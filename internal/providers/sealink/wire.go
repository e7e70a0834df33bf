package sealink

import (
	"encoding/json"
	"strings"

	"ferryhub/internal/providers"
)

type searchRequest struct {
	Date     string `json:"date"`
	From     string `json:"from"`
	To       string `json:"to"`
	UserName string `json:"userName"`
	Token    string `json:"token"`
}

type clock struct {
	Hour   providers.Number `json:"hour"`
	Minute providers.Number `json:"minute"`
}

func (c clock) String() string {
	return providers.Clock(c.Hour.Int(), c.Minute.Int())
}

type fares struct {
	PBaseFare  providers.Number `json:"pBaseFare"`
	BBaseFare  providers.Number `json:"bBaseFare"`
	InfantFare providers.Number `json:"infantFare"`
	PortFee    providers.Number `json:"portFee"`
	GST        providers.Number `json:"gst"`
}

type seat struct {
	Number    providers.Stringish `json:"number"`
	IsBooked  providers.Bool      `json:"isBooked"`
	IsBlocked providers.Bool      `json:"isBlocked"`
	Row       providers.Number    `json:"row"`
	Col       providers.Number    `json:"col"`
}

type trip struct {
	ID         providers.Stringish `json:"id"`
	TripID     providers.Stringish `json:"tripId"`
	VesselID   providers.Stringish `json:"vesselID"`
	VesselName string              `json:"vesselName"`
	From       string              `json:"from"`
	To         string              `json:"to"`
	DTime      clock               `json:"dTime"`
	ATime      clock               `json:"aTime"`
	Fares      fares               `json:"fares"`
	PClass     []seat              `json:"pClass"`
	BClass     []seat              `json:"bClass"`
}

type searchResponse struct {
	Err  json.RawMessage   `json:"err"`
	Data []json.RawMessage `json:"data"`
}

type pax struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Age         int    `json:"age"`
	Gender      string `json:"gender"`
	Nationality string `json:"nationality"`
	Passport    string `json:"passport"`
	Tier        string `json:"tier"`
	Seat        string `json:"seat"`
	IsCancelled int    `json:"isCancelled"`
}

type infantPax struct {
	Name   string `json:"name"`
	Age    int    `json:"age"`
	Gender string `json:"gender"`
}

type paxDetail struct {
	Email     string      `json:"email"`
	Phone     string      `json:"phone"`
	GSTIN     string      `json:"gstin"`
	Pax       []pax       `json:"pax"`
	InfantPax []infantPax `json:"infantPax"`
}

type bookingData struct {
	BookingTS int64     `json:"bookingTS"`
	ID        string    `json:"id"`
	TripID    string    `json:"tripId"`
	VesselID  string    `json:"vesselID"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	PaxDetail paxDetail `json:"paxDetail"`
	UserName  string    `json:"userName"`
	Token     string    `json:"token"`
}

type bookRequest struct {
	BookingData []bookingData `json:"bookingData"`
}

type ticket struct {
	TktNo providers.Stringish `json:"tktNo"`
	Name  string              `json:"name"`
	Seat  providers.Stringish `json:"seat"`
}

type bookResponse struct {
	Err  json.RawMessage `json:"err"`
	Data struct {
		SeatStatus providers.Bool      `json:"seatStatus"`
		PNR        providers.Stringish `json:"pnr"`
		BookingID  providers.Stringish `json:"bookingId"`
		Tickets    []ticket            `json:"tickets"`
	} `json:"data"`
}

// errText extracts a message from the err field, which arrives as null,
// false, a string or an object with a msg/message field.
func errText(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	switch s {
	case "", "null", "false", "0", `""`, "{}":
		return ""
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return strings.TrimSpace(str)
	}
	var obj struct {
		Msg     string `json:"msg"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		if obj.Message != "" {
			return obj.Message
		}
		if obj.Msg != "" {
			return obj.Msg
		}
	}
	return s
}
