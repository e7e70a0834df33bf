package greenocean

import (
	"context"
	"fmt"
	"strings"

	"ferryhub/internal/domain"
	"ferryhub/internal/domain/models"
	"ferryhub/internal/providers"
)

func gender(g string) string {
	switch g {
	case models.GenderFemale:
		return "Female"
	case models.GenderOther:
		return "Other"
	}
	return "Male"
}

func nationality(n string) string {
	if n == models.NationalityForeign {
		return "FN"
	}
	return "IN"
}

// Book submits one signed book-ticket call. It is never retried. An
// inline ticket_pdf is returned as the result artifact.
func (a *Adapter) Book(ctx context.Context, in providers.BookingInput) (models.BookingResult, error) {
	if !a.Configured() {
		return models.BookingResult{}, providers.NotConfigured(name, "book")
	}
	refs := in.Trip.ProviderData.Refs
	if refs.FerryID == "" || refs.RouteID == "" {
		return models.BookingResult{}, domain.TripStateNotFoundError{Provider: name, TripID: in.Request.TripID, ClassID: in.Class.ID}
	}

	seatIDs := make([]string, 0, len(in.Manifest.Ticketed))
	body := bookRequest{
		FerryID:          refs.FerryID,
		ClassID:          in.Class.ID,
		RouteID:          refs.RouteID,
		TravelDate:       in.Request.TravelDate,
		Passengers:       make([]passenger, 0, len(in.Manifest.Ticketed)),
		Infants:          make([]infant, 0, len(in.Manifest.Infants)),
		ContactName:      in.Manifest.Contact.Name,
		ContactEmail:     in.Manifest.Contact.Email,
		ContactPhone:     in.Manifest.Contact.Phone,
		PaymentReference: in.Request.PaymentReference,
		PublicKey:        a.cfg.PublicKey,
	}
	for _, p := range in.Manifest.Ticketed {
		if p.Seat.ID == "" {
			return models.BookingResult{}, domain.ValidationError{Field: "seats", Msg: fmt.Sprintf("passenger %q has no seat", p.Name)}
		}
		seatIDs = append(seatIDs, p.Seat.ID)
		gp := passenger{
			Name:        p.Name,
			Age:         p.Age,
			Gender:      gender(p.Gender),
			Nationality: nationality(p.Nationality),
			SeatID:      p.Seat.ID,
		}
		if p.Nationality == models.NationalityForeign {
			gp.PassportNo = p.PassportNumber
			gp.PassportExpiry = p.PassportExpiry
			gp.Country = p.Country
		}
		body.Passengers = append(body.Passengers, gp)
	}
	for _, p := range in.Manifest.Infants {
		body.Infants = append(body.Infants, infant{Name: p.Name, Age: p.Age, Gender: gender(p.Gender), Nationality: nationality(p.Nationality)})
	}
	body.SeatIDs = strings.Join(seatIDs, ",")
	body.HashString = a.sign(body.FerryID, body.ClassID, body.RouteID, body.TravelDate, body.SeatIDs)

	var out bookResult
	if err := a.call(ctx, "book", bookPath, body, &out); err != nil {
		return models.BookingResult{}, err
	}
	pnr := out.PNR.String()
	if pnr == "" {
		return models.BookingResult{}, providers.Errorf(name, "book", domain.KindParse, "confirmation without pnr")
	}

	result := models.BookingResult{Success: true, PNR: pnr, ProviderBookingID: out.BookingID.String()}
	for _, t := range out.Tickets {
		result.Tickets = append(result.Tickets, models.Ticket{TicketNumber: t.TicketNo.String(), Name: t.Name, Seat: t.SeatNo.String()})
	}
	if len(result.Tickets) == 0 {
		for i, p := range in.Manifest.Ticketed {
			result.Tickets = append(result.Tickets, models.Ticket{TicketNumber: fmt.Sprintf("%s-%d", pnr, i+1), Name: p.Name, Seat: p.Seat.Number})
		}
	}
	if out.TicketPDF != "" {
		doc, err := providers.DecodeDocument(name, "book", out.TicketPDF)
		if err != nil {
			a.logger.Warn("inline ticket unreadable", "pnr", pnr, "error", err)
		} else {
			result.Artifact = doc
		}
	}
	return result, nil
}
