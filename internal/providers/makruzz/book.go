package makruzz

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"ferryhub/internal/domain"
	"ferryhub/internal/domain/models"
	"ferryhub/internal/providers"
)

func sex(g string) string {
	switch g {
	case models.GenderFemale:
		return "female"
	case models.GenderOther:
		return "other"
	}
	return "male"
}

func nationality(n string) string {
	if n == models.NationalityForeign {
		return "foreigner"
	}
	return "indian"
}

// classID parses the provider class id. There is no fallback id.
func classID(raw string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || id <= 0 {
		return 0, domain.ValidationError{Field: "classId", Msg: fmt.Sprintf("%s class id %q is not numeric", name, raw), Err: err}
	}
	return id, nil
}

// Book runs savePassengers then confirm_booking. Neither call is retried.
func (a *Adapter) Book(ctx context.Context, in providers.BookingInput) (models.BookingResult, error) {
	if !a.Configured() {
		return models.BookingResult{}, providers.NotConfigured(name, "book")
	}
	cls, err := classID(in.Class.ID)
	if err != nil {
		return models.BookingResult{}, err
	}
	from, err := a.resolver.Resolve(in.Request.Origin, name)
	if err != nil {
		return models.BookingResult{}, err
	}
	to, err := a.resolver.Resolve(in.Request.Destination, name)
	if err != nil {
		return models.BookingResult{}, err
	}
	scheduleID := in.Trip.ProviderData.Refs.ScheduleID
	if scheduleID == "" {
		scheduleID = in.Trip.TripID
	}

	data := saveData{
		ScheduleID:       scheduleID,
		FromLocation:     from,
		ToLocation:       to,
		TravelDate:       in.Request.TravelDate,
		ClassID:          cls,
		NoOfPassenger:    len(in.Manifest.Ticketed),
		Passenger:        map[string]passenger{},
		Infant:           map[string]infant{},
		CName:            in.Manifest.Contact.Name,
		CMobile:          in.Manifest.Contact.Phone,
		CEmail:           in.Manifest.Contact.Email,
		PaymentReference: in.Request.PaymentReference,
	}
	for i, p := range in.Manifest.Ticketed {
		mp := passenger{
			Name:        p.Name,
			Age:         p.Age,
			Sex:         sex(p.Gender),
			Nationality: nationality(p.Nationality),
		}
		if p.Nationality == models.NationalityForeign {
			mp.FPassport = p.PassportNumber
			mp.FExpDate = p.PassportExpiry
			mp.FCountry = p.Country
		}
		data.Passenger[strconv.Itoa(i+1)] = mp
	}
	for i, p := range in.Manifest.Infants {
		data.Infant[strconv.Itoa(i+1)] = infant{Name: p.Name, Age: p.Age, Sex: sex(p.Gender)}
	}

	var saved saveResult
	if err := a.call(ctx, "save_passengers", "/savePassengers", request[saveData]{Data: data}, &saved); err != nil {
		return models.BookingResult{}, err
	}
	bookingID := saved.BookingID.String()
	if bookingID == "" {
		return models.BookingResult{}, providers.Errorf(name, "save_passengers", domain.KindParse, "draft booking without booking_id")
	}

	var confirmed confirmResult
	if err := a.call(ctx, "confirm_booking", "/confirm_booking", request[bookingRef]{Data: bookingRef{BookingID: bookingID}}, &confirmed); err != nil {
		return models.BookingResult{}, err
	}
	pnr := confirmed.PNR.String()
	if pnr == "" {
		return models.BookingResult{}, providers.Errorf(name, "confirm_booking", domain.KindParse, "confirmation without pnr")
	}

	result := models.BookingResult{Success: true, PNR: pnr, ProviderBookingID: bookingID}
	if len(confirmed.Seats) > 0 {
		for _, s := range confirmed.Seats {
			result.Tickets = append(result.Tickets, models.Ticket{TicketNumber: s.TicketNo.String(), Name: s.Name, Seat: s.SeatNo.String()})
		}
	} else {
		for i, p := range in.Manifest.Ticketed {
			result.Tickets = append(result.Tickets, models.Ticket{TicketNumber: fmt.Sprintf("%s-%d", pnr, i+1), Name: p.Name, Seat: "AUTO"})
		}
	}
	return result, nil
}

// DownloadTicket fetches the base64 ticket document for a confirmed booking.
func (a *Adapter) DownloadTicket(ctx context.Context, res models.BookingResult) ([]byte, error) {
	if !a.Configured() {
		return nil, providers.NotConfigured(name, "download_ticket")
	}
	body := request[downloadData]{Data: downloadData{BookingID: res.ProviderBookingID, PNR: res.PNR}}
	return providers.Retry(ctx, a.client, "download_ticket", func(ctx context.Context) ([]byte, error) {
		var out downloadResult
		if err := a.call(ctx, "download_ticket", "/download_ticket", body, &out); err != nil {
			return nil, err
		}
		return providers.DecodeDocument(name, "download_ticket", out.TicketPDF)
	})
}

// SeatLayout is not offered; seats are assigned by the operator.
func (a *Adapter) SeatLayout(_ context.Context, _ models.UnifiedFerryResult, _ string) (models.SeatLayout, error) {
	return models.SeatLayout{}, domain.ValidationError{Field: "provider", Msg: name + " assigns seats automatically"}
}
