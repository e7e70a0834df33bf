// Package sealink is the adapter for the Sealink booking API: a static
// userName/token pair in every body and location names as identifiers.
package sealink

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"strings"
	"time"

	"ferryhub/internal/domain"
	"ferryhub/internal/domain/models"
	"ferryhub/internal/location"
	"ferryhub/internal/providers"
)

const (
	name = providers.Sealink

	classPremium = "P"
	classRoyal   = "B"

	wireDate = "02-01-2006"
)

type Config struct {
	BaseURL  string
	Username string
	Token    string
	Timeout  time.Duration
}

type Adapter struct {
	cfg      Config
	client   *providers.Client
	resolver *location.Resolver
	now      func() time.Time
	logger   *slog.Logger
}

func New(cfg Config, deps providers.Deps) *Adapter {
	deps = deps.WithDefaults()
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Adapter{
		cfg:      cfg,
		client:   deps.Client(name, cfg.BaseURL, cfg.Timeout),
		resolver: deps.Resolver,
		now:      deps.Now,
		logger:   deps.Logger.With("component", "provider", "provider", name),
	}
}

func (a *Adapter) Name() string { return name }

func (a *Adapter) Configured() bool {
	return a.cfg.BaseURL != "" && a.cfg.Username != "" && a.cfg.Token != ""
}

func (a *Adapter) Timeout() time.Duration { return a.cfg.Timeout }

func (a *Adapter) SupportsRoute(from, to string) bool {
	return a.resolver.RouteSupported(name, from, to)
}

func (a *Adapter) Search(ctx context.Context, req models.SearchRequest) ([]models.UnifiedFerryResult, error) {
	if !a.Configured() {
		return nil, providers.NotConfigured(name, "search")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := req.Canonicalize(a.resolver); err != nil {
		return nil, err
	}
	body, err := a.searchBody(req)
	if err != nil {
		return nil, err
	}
	return providers.Retry(ctx, a.client, "search", func(ctx context.Context) ([]models.UnifiedFerryResult, error) {
		trips, err := a.fetchTrips(ctx, "search", body)
		if err != nil {
			return nil, err
		}
		return a.normalize(req, trips), nil
	})
}

// Probe searches tomorrow on the first supported route.
func (a *Adapter) Probe(ctx context.Context) error {
	if !a.Configured() {
		return providers.NotConfigured(name, "probe")
	}
	routes := a.resolver.Routes(name)
	if len(routes) == 0 {
		return providers.Errorf(name, "probe", domain.KindConfig, "no supported routes")
	}
	body, err := a.searchBody(models.SearchRequest{
		Origin: routes[0][0], Destination: routes[0][1], TravelDate: providers.Tomorrow(a.now()), Adults: 1,
	})
	if err != nil {
		return err
	}
	_, err = a.fetchTrips(ctx, "probe", body)
	return err
}

func (a *Adapter) searchBody(req models.SearchRequest) (searchRequest, error) {
	from, err := a.resolver.Resolve(req.Origin, name)
	if err != nil {
		return searchRequest{}, err
	}
	to, err := a.resolver.Resolve(req.Destination, name)
	if err != nil {
		return searchRequest{}, err
	}
	date, err := req.Date()
	if err != nil {
		return searchRequest{}, domain.ValidationError{Field: "date", Msg: "invalid travel date", Err: err}
	}
	return searchRequest{
		Date:     date.Format(wireDate),
		From:     from,
		To:       to,
		UserName: a.cfg.Username,
		Token:    a.cfg.Token,
	}, nil
}

type rawTrip struct {
	trip
	raw json.RawMessage
}

func (a *Adapter) fetchTrips(ctx context.Context, op string, body searchRequest) ([]rawTrip, error) {
	var resp searchResponse
	if err := a.client.PostJSON(ctx, op, "/getTripData", nil, body, &resp); err != nil {
		return nil, err
	}
	if msg := errText(resp.Err); msg != "" {
		kind := domain.KindUpstream
		if providers.LooksLikeAuth(msg) {
			kind = domain.KindAuth
		}
		return nil, providers.Errorf(name, op, kind, "%s", msg)
	}
	out := make([]rawTrip, 0, len(resp.Data))
	for _, raw := range resp.Data {
		var t trip
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, domain.NewProviderError(name, op, domain.KindParse, "decode trip", err)
		}
		out = append(out, rawTrip{trip: t, raw: raw})
	}
	return out, nil
}

func (a *Adapter) normalize(req models.SearchRequest, trips []rawTrip) []models.UnifiedFerryResult {
	now := a.now()
	out := make([]models.UnifiedFerryResult, 0, len(trips))
	for _, t := range trips {
		if !a.matchesRoute(t.trip, req) {
			continue
		}
		classes := a.classes(t.trip)
		if len(classes) == 0 {
			continue
		}
		r := models.UnifiedFerryResult{
			Provider:   name,
			TripID:     t.TripID.String(),
			VesselName: strings.TrimSpace(t.VesselName),
			Route:      providers.BuildRoute(a.resolver, req.Origin, req.Destination),
			Schedule:   providers.BuildSchedule(req.TravelDate, t.DTime.String(), t.ATime.String()),
			Classes:    classes,
			Features:   models.Features{SeatSelection: true},
			Searched:   models.SearchMix{Adults: req.Adults, Children: req.Children, Infants: req.Infants},
			ProviderData: models.ProviderData{
				Refs: models.TripRefs{
					InternalID: t.ID.String(),
					VesselID:   t.VesselID.String(),
				},
				BookingEndpoint: a.client.URL("/bookSeats"),
				Raw:             t.raw,
			},
		}
		if r.TripID == "" {
			r.TripID = t.ID.String()
		}
		providers.FinishResult(&r, now)
		out = append(out, r)
	}
	return out
}

func (a *Adapter) matchesRoute(t trip, req models.SearchRequest) bool {
	if from, ok := a.resolver.CodeFor(name, t.From); ok && from != req.Origin {
		return false
	}
	if to, ok := a.resolver.CodeFor(name, t.To); ok && to != req.Destination {
		return false
	}
	return true
}

func (a *Adapter) classes(t trip) []models.FerryClass {
	var out []models.FerryClass
	tiers := []struct {
		id, label string
		fare      float64
		seats     []seat
	}{
		{classPremium, "Premium", t.Fares.PBaseFare.Float(), t.PClass},
		{classRoyal, "Royal", t.Fares.BBaseFare.Float(), t.BClass},
	}
	for _, tier := range tiers {
		if len(tier.seats) == 0 || tier.fare <= 0 {
			continue
		}
		layout := buildLayout(tier.seats)
		out = append(out, models.FerryClass{
			ID:   tier.id,
			Name: tier.label,
			Pricing: models.Pricing{
				BaseFare: tier.fare,
				Taxes:    gstAmount(tier.fare, t.Fares.GST.Float()),
				PortFee:  t.Fares.PortFee.Float(),
				Currency: "INR",
			},
			AvailableSeats: layout.Available(),
			TotalSeats:     len(layout.Seats),
			Amenities:      providers.AmenitiesFor(tier.label),
			SeatLayout:     &layout,
		})
	}
	return out
}

// gstAmount applies the gst percentage to a base fare.
func gstAmount(base, rate float64) float64 {
	if rate <= 0 {
		return 0
	}
	return math.Round(base*rate) / 100
}

func buildLayout(raw []seat) models.SeatLayout {
	layout := models.SeatLayout{Seats: make([]models.Seat, 0, len(raw))}
	for _, s := range raw {
		if r := s.Row.Int(); r > layout.Rows {
			layout.Rows = r
		}
		if c := s.Col.Int(); c > layout.Columns {
			layout.Columns = c
		}
	}
	for _, s := range raw {
		status := models.SeatAvailable
		switch {
		case bool(s.IsBlocked):
			status = models.SeatBlocked
		case bool(s.IsBooked):
			status = models.SeatBooked
		}
		num := s.Number.String()
		layout.Seats = append(layout.Seats, models.Seat{
			ID:     num,
			Number: num,
			Status: status,
			Type:   providers.SeatTypeFor(s.Col.Int(), layout.Columns),
			Row:    s.Row.Int(),
			Column: s.Col.Int(),
		})
	}
	providers.SortSeats(layout.Seats)
	return layout
}
