// Package tickets renders ferry ticket PDFs and stores ticket artifacts.
package tickets

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/phpdave11/gofpdf"

	"ferryhub/internal/domain/models"
	"ferryhub/internal/utils"
)

// Document is what goes on a generated e-ticket.
type Document struct {
	PNR     string
	Details models.ConfirmationDetails
}

// Render builds an A4 e-ticket for a confirmed booking. It is used when the
// operator supplies no ticket document of its own.
func Render(d Document) ([]byte, string, error) {
	det := d.Details
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Ferry E-Ticket", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "FERRY E-TICKET")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("PNR            : %s", safe(d.PNR, "-")),
		fmt.Sprintf("Operator       : %s", safe(det.Provider, "-")),
		fmt.Sprintf("Vessel         : %s", safe(det.VesselName, "-")),
		fmt.Sprintf("Route          : %s -> %s", safe(det.Route.Origin.DisplayName, det.Route.Origin.Code), safe(det.Route.Destination.DisplayName, det.Route.Destination.Code)),
		fmt.Sprintf("Date / Time    : %s %s", safe(det.Date, "-"), safe(det.DepartureTime, "")),
		fmt.Sprintf("Class          : %s", safe(det.ClassName, det.ClassID)),
		fmt.Sprintf("Fare           : %s", utils.FormatINR(det.Fare.Total)),
		fmt.Sprintf("Payment ref    : %s", safe(det.PaymentReference, "-")),
	}
	if !det.ConfirmedAt.IsZero() {
		lines = append(lines, fmt.Sprintf("Issued         : %s IST", utils.FormatDateTime(det.ConfirmedAt)))
	}
	for _, s := range lines {
		pdf.Cell(0, 7, s)
		pdf.Ln(7)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Passengers")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	for i, t := range det.Tickets {
		pdf.Cell(0, 6, fmt.Sprintf("%d) %s  seat %s  ticket %s", i+1, safe(t.Name, "-"), safe(t.Seat, "-"), safe(t.TicketNumber, "-")))
		pdf.Ln(6)
	}
	if len(det.Infants) > 0 {
		pdf.Cell(0, 6, "Infants (no seat): "+strings.Join(det.Infants, ", "))
		pdf.Ln(6)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Please carry a valid photo ID and report at the jetty 45 minutes before departure.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), Filename(det.Provider, d.PNR), nil
}

// Filename is the stored name of a ticket document.
func Filename(provider, pnr string) string {
	return fmt.Sprintf("TICKET_%s_%s.pdf", utils.SafeFilenamePart(strings.ToUpper(provider)), utils.SafeFilenamePart(pnr))
}

func safe(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}
