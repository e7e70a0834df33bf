package booking

import (
	"context"

	"ferryhub/internal/domain/models"
	"ferryhub/internal/providers"
	"ferryhub/internal/resilience"
	"ferryhub/internal/tickets"
)

// Where a ticket document came from.
const (
	ArtifactInline    = "inline"
	ArtifactDownload  = "download"
	ArtifactGenerated = "generated"
)

// storeArtifact obtains the ticket document and stores it, in order of
// preference: inline from the booking response, downloaded from the
// operator, or generated locally. It returns the public URL, or the
// operator's own URL, or "" when nothing could be stored. A confirmed
// booking is never failed here.
func (o *Orchestrator) storeArtifact(ctx context.Context, provider string, result models.BookingResult, details *models.ConfirmationDetails) string {
	if o.artifacts == nil {
		return result.TicketURL
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.artifactTimeout)
	defer cancel()

	doc, source := result.Artifact, ArtifactInline
	if len(doc) == 0 {
		doc, source = o.download(ctx, provider, result)
	}
	if len(doc) == 0 {
		source = ArtifactGenerated
		var err error
		doc, _, err = tickets.Render(tickets.Document{PNR: result.PNR, Details: *details})
		if err != nil {
			o.metrics.RecordArtifact(provider, source, "error")
			o.logger.Warn("ticket render failed", "provider", provider, "pnr", result.PNR, "error", err)
			return result.TicketURL
		}
	}

	url, err := o.artifacts.Save(ctx, provider, result.PNR, doc)
	if err != nil {
		o.metrics.RecordArtifact(provider, source, "error")
		o.logger.Warn("ticket artifact not stored", "provider", provider, "pnr", result.PNR, "source", source, "error", err)
		return result.TicketURL
	}
	o.metrics.RecordArtifact(provider, source, "ok")
	return url
}

func (o *Orchestrator) download(ctx context.Context, provider string, result models.BookingResult) ([]byte, string) {
	p, ok := o.engine.Provider(provider)
	if !ok {
		return nil, ""
	}
	f, ok := p.(providers.TicketFetcher)
	if !ok {
		return nil, ""
	}
	doc, err := resilience.WithTimeout(ctx, provider+".download_ticket", o.artifactTimeout, func(ctx context.Context) ([]byte, error) {
		return f.DownloadTicket(ctx, result)
	})
	if err != nil {
		o.metrics.RecordArtifact(provider, ArtifactDownload, "error")
		o.logger.Warn("ticket download failed, generating locally", "provider", provider, "pnr", result.PNR, "error", err)
		return nil, ""
	}
	return doc, ArtifactDownload
}
