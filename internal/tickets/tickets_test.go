package tickets

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"ferryhub/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderProducesPDF(t *testing.T) {
	doc, name, err := Render(Document{
		PNR: "SL/123",
		Details: models.ConfirmationDetails{
			Provider:   "sealink",
			VesselName: "Sea Link II",
			Route: models.Route{
				Origin:      models.Place{Code: "portblair", DisplayName: "Port Blair"},
				Destination: models.Place{Code: "havelock", DisplayName: "Swaraj Dweep (Havelock)"},
			},
			Date:          "2026-11-02",
			DepartureTime: "08:15",
			ClassName:     "Premium",
			Tickets:       []models.Ticket{{TicketNumber: "T1", Name: "Ravi", Seat: "1A"}},
			Infants:       []string{"Kid"},
			Fare:          models.Pricing{Total: 2520, Currency: "INR"},
		},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF-")))
	assert.Equal(t, "TICKET_SEALINK_SL_123.pdf", name)
}

func TestLocalStoreSave(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStore(filepath.Join(dir, "tickets"), "http://localhost:8080/tickets/")

	u, err := s.Save(context.Background(), "makruzz", "MK9", []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/tickets/TICKET_MAKRUZZ_MK9.pdf", u)

	got, err := os.ReadFile(filepath.Join(dir, "tickets", "TICKET_MAKRUZZ_MK9.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(got))

	_, err = s.Save(context.Background(), "makruzz", "MK9", nil)
	assert.ErrorIs(t, err, ErrEmptyArtifact)
}
