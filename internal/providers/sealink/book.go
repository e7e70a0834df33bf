package sealink

import (
	"context"
	"fmt"

	"ferryhub/internal/domain"
	"ferryhub/internal/domain/models"
	"ferryhub/internal/providers"
)

func gender(g string) (string, error) {
	switch g {
	case models.GenderMale:
		return "M", nil
	case models.GenderFemale:
		return "F", nil
	}
	return "", domain.ValidationError{Field: "gender", Msg: fmt.Sprintf("%s accepts only male or female passengers, got %q", name, g)}
}

func nationality(n string) string {
	if n == models.NationalityForeign {
		return "Foreigner"
	}
	return "Indian"
}

// Book submits a single bookSeats call. It is never retried.
func (a *Adapter) Book(ctx context.Context, in providers.BookingInput) (models.BookingResult, error) {
	if !a.Configured() {
		return models.BookingResult{}, providers.NotConfigured(name, "book")
	}
	from, err := a.resolver.Resolve(in.Request.Origin, name)
	if err != nil {
		return models.BookingResult{}, err
	}
	to, err := a.resolver.Resolve(in.Request.Destination, name)
	if err != nil {
		return models.BookingResult{}, err
	}

	detail := paxDetail{
		Email: in.Manifest.Contact.Email,
		Phone: in.Manifest.Contact.Phone,
		Pax:   make([]pax, 0, len(in.Manifest.Ticketed)),
	}
	for i, p := range in.Manifest.Ticketed {
		g, err := gender(p.Gender)
		if err != nil {
			return models.BookingResult{}, err
		}
		detail.Pax = append(detail.Pax, pax{
			ID:          i + 1,
			Name:        p.Name,
			Age:         p.Age,
			Gender:      g,
			Nationality: nationality(p.Nationality),
			Passport:    p.PassportNumber,
			Tier:        in.Class.ID,
			Seat:        p.Seat.Number,
		})
	}
	for _, p := range in.Manifest.Infants {
		g, err := gender(p.Gender)
		if err != nil {
			return models.BookingResult{}, err
		}
		detail.InfantPax = append(detail.InfantPax, infantPax{Name: p.Name, Age: p.Age, Gender: g})
	}

	body := bookRequest{BookingData: []bookingData{{
		BookingTS: a.now().Unix(),
		ID:        in.Trip.ProviderData.Refs.InternalID,
		TripID:    in.Trip.TripID,
		VesselID:  in.Trip.ProviderData.Refs.VesselID,
		From:      from,
		To:        to,
		PaxDetail: detail,
		UserName:  a.cfg.Username,
		Token:     a.cfg.Token,
	}}}

	var resp bookResponse
	if err := a.client.PostJSON(ctx, "book", "/bookSeats", nil, body, &resp); err != nil {
		return models.BookingResult{}, err
	}
	if msg := errText(resp.Err); msg != "" {
		kind := domain.KindDomain
		if providers.LooksLikeAuth(msg) {
			kind = domain.KindAuth
		}
		return models.BookingResult{}, providers.Errorf(name, "book", kind, "%s", msg)
	}
	if !bool(resp.Data.SeatStatus) {
		return models.BookingResult{}, providers.Errorf(name, "book", domain.KindDomain, "selected seats are no longer available")
	}
	pnr := resp.Data.PNR.String()
	if pnr == "" {
		return models.BookingResult{}, providers.Errorf(name, "book", domain.KindParse, "confirmation without pnr")
	}

	result := models.BookingResult{
		Success:           true,
		PNR:               pnr,
		ProviderBookingID: resp.Data.BookingID.String(),
	}
	for _, t := range resp.Data.Tickets {
		result.Tickets = append(result.Tickets, models.Ticket{
			TicketNumber: t.TktNo.String(),
			Name:         t.Name,
			Seat:         t.Seat.String(),
		})
	}
	return result, nil
}

// SeatLayout returns the layout captured at search time.
func (a *Adapter) SeatLayout(_ context.Context, trip models.UnifiedFerryResult, classID string) (models.SeatLayout, error) {
	c, ok := trip.Class(classID)
	if !ok {
		return models.SeatLayout{}, domain.NotFoundError{Resource: "class " + classID}
	}
	if c.SeatLayout == nil {
		return models.SeatLayout{}, domain.NotFoundError{Resource: "seat layout"}
	}
	return *c.SeatLayout, nil
}
