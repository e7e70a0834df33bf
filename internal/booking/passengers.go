package booking

import (
	"fmt"

	"ferryhub/internal/domain"
	"ferryhub/internal/domain/models"
)

// Partition splits the manifest into ticketed passengers and infants and
// takes the contact from the first ticketed passenger.
func Partition(passengers []models.Passenger) models.Manifest {
	var m models.Manifest
	for _, p := range passengers {
		if p.IsInfant() {
			m.Infants = append(m.Infants, p)
			continue
		}
		m.Ticketed = append(m.Ticketed, models.TicketedPassenger{Passenger: p})
	}
	if len(m.Ticketed) > 0 {
		primary := m.Ticketed[0]
		m.Contact = models.Contact{Name: primary.Name, Email: primary.Email, Phone: primary.Phone}
		for _, t := range m.Ticketed[1:] {
			if m.Contact.Email == "" {
				m.Contact.Email = t.Email
			}
			if m.Contact.Phone == "" {
				m.Contact.Phone = t.Phone
			}
		}
	}
	return m
}

// AssignSeats gives each ticketed passenger one selected seat, in order.
// Seat refs are matched to the class layout by id or number when one is
// known; availability is left for the operator to enforce. Operators that
// assign seats themselves get no seats.
func AssignSeats(m *models.Manifest, trip models.UnifiedFerryResult, class models.FerryClass, seats []string) error {
	if !trip.Features.SeatSelection {
		return nil
	}
	if len(seats) != len(m.Ticketed) {
		return domain.ValidationError{
			Field: "seats",
			Msg:   fmt.Sprintf("%d seats selected for %d ticketed passengers", len(seats), len(m.Ticketed)),
		}
	}
	seen := make(map[string]bool, len(seats))
	for i, ref := range seats {
		a := models.SeatAssignment{ID: ref, Number: ref}
		if class.SeatLayout != nil {
			if s, ok := class.SeatLayout.FindSeat(ref); ok {
				a = models.SeatAssignment{ID: s.ID, Number: s.Number}
			}
		}
		if seen[a.ID] {
			return domain.ValidationError{Field: "seats", Msg: "seat " + ref + " selected twice"}
		}
		seen[a.ID] = true
		m.Ticketed[i].Seat = a
	}
	return nil
}

// Fare is the class fare times the ticketed count. Infants travel free.
func Fare(class models.FerryClass, m models.Manifest) models.Pricing {
	return class.Pricing.Times(len(m.Ticketed))
}
