package booking

import (
	"testing"

	"ferryhub/internal/domain"
	"ferryhub/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartitionSplitsInfants(t *testing.T) {
	m := Partition([]models.Passenger{
		{Name: "Baby", Age: 1},
		{Name: "Asha", Age: 30, Phone: "9000000001"},
		{Name: "Ravi", Age: 2, Email: "ravi@example.com"},
	})
	require.Len(t, m.Ticketed, 2)
	require.Len(t, m.Infants, 1)
	assert.Equal(t, "Baby", m.Infants[0].Name)
	assert.Equal(t, models.Contact{Name: "Asha", Email: "ravi@example.com", Phone: "9000000001"}, m.Contact)
}

func TestAssignSeats(t *testing.T) {
	trip := models.UnifiedFerryResult{Features: models.Features{SeatSelection: true}}
	class := models.FerryClass{SeatLayout: &models.SeatLayout{Seats: []models.Seat{
		{ID: "101", Number: "A1"}, {ID: "102", Number: "A2"},
	}}}
	m := Partition([]models.Passenger{{Name: "A", Age: 30}, {Name: "B", Age: 40}})

	require.NoError(t, AssignSeats(&m, trip, class, []string{"A1", "102"}))
	assert.Equal(t, models.SeatAssignment{ID: "101", Number: "A1"}, m.Ticketed[0].Seat)
	assert.Equal(t, models.SeatAssignment{ID: "102", Number: "A2"}, m.Ticketed[1].Seat)

	err := AssignSeats(&m, trip, class, []string{"A1", "101"})
	assert.True(t, domain.IsValidation(err))

	err = AssignSeats(&m, trip, class, []string{"A1"})
	assert.True(t, domain.IsValidation(err))
}

func TestAssignSeatsSkipsAutoAssignment(t *testing.T) {
	m := Partition([]models.Passenger{{Name: "A", Age: 30}})
	require.NoError(t, AssignSeats(&m, models.UnifiedFerryResult{}, models.FerryClass{}, []string{"A1", "A2"}))
	assert.Empty(t, m.Ticketed[0].Seat.ID)
}

func TestFareExcludesInfants(t *testing.T) {
	m := Partition([]models.Passenger{{Name: "A", Age: 30}, {Name: "B", Age: 0}})
	p := Fare(models.FerryClass{Pricing: models.Pricing{BaseFare: 500, Taxes: 25, Total: 525, Currency: "INR"}}, m)
	assert.Equal(t, 525.0, p.Total)
}
