// Package greenocean is the adapter for the Green Ocean API. Every body
// carries the public key and a SHA-512 hash_string over its fields.
package greenocean

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"ferryhub/internal/domain"
	"ferryhub/internal/domain/models"
	"ferryhub/internal/location"
	"ferryhub/internal/providers"
)

const (
	name = providers.GreenOcean

	searchPath = "/api/v1/search-trip"
	layoutPath = "/api/v1/seat-layout"
	bookPath   = "/api/v1/book-ticket"

	layoutConcurrency = 4
	// layoutShare is the part of the provider timeout layouts may use.
	layoutShare = 3
)

type Config struct {
	BaseURL    string
	PublicKey  string
	PrivateKey string
	Timeout    time.Duration
	// FetchLayouts loads every class's seat layout during search.
	FetchLayouts bool
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
		cfg.Timeout = 12 * time.Second
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
	return a.cfg.BaseURL != "" && a.cfg.PublicKey != "" && a.cfg.PrivateKey != ""
}

func (a *Adapter) Timeout() time.Duration { return a.cfg.Timeout }

func (a *Adapter) SupportsRoute(from, to string) bool {
	return a.resolver.RouteSupported(name, from, to)
}

// Sign returns the lower-hex SHA-512 of the pipe-joined fields followed
// by the private key.
func Sign(privateKey string, fields ...string) string {
	sum := sha512.Sum512([]byte(strings.Join(append(fields, privateKey), "|")))
	return hex.EncodeToString(sum[:])
}

func (a *Adapter) sign(fields ...string) string {
	return Sign(a.cfg.PrivateKey, append(fields, a.cfg.PublicKey)...)
}

// call posts a signed body and unwraps the envelope into out.
func (a *Adapter) call(ctx context.Context, op, path string, body, out any) error {
	var env envelope
	if err := a.client.PostJSON(ctx, op, path, nil, body, &env); err != nil {
		return err
	}
	if !env.ok() {
		kind := domain.KindDomain
		if providers.LooksLikeAuth(env.Message) {
			kind = domain.KindAuth
		}
		msg := strings.TrimSpace(env.Message)
		if msg == "" {
			msg = "request rejected"
		}
		return providers.Errorf(name, op, kind, "%s", msg)
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return domain.NewProviderError(name, op, domain.KindParse, "decode data", err)
	}
	return nil
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
	adults := req.Ticketed()
	body := searchRequest{
		FromID:          from,
		ToID:            to,
		TravelDate:      req.TravelDate,
		NumberOfAdults:  adults,
		NumberOfInfants: req.Infants,
		PublicKey:       a.cfg.PublicKey,
	}
	body.HashString = a.sign(from, to, req.TravelDate, strconv.Itoa(adults), strconv.Itoa(req.Infants))
	return body, nil
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
	results, err := providers.Retry(ctx, a.client, "search", func(ctx context.Context) ([]models.UnifiedFerryResult, error) {
		var rows []tripRow
		if err := a.call(ctx, "search", searchPath, body, &rows); err != nil {
			return nil, err
		}
		return a.normalize(req, rows), nil
	})
	if err != nil {
		return nil, err
	}
	if a.cfg.FetchLayouts {
		a.attachLayouts(ctx, results)
	}
	return results, nil
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
	return a.call(ctx, "probe", searchPath, body, nil)
}

type ferry struct {
	key   string
	first tripRow
	rows  []tripRow
}

// TripID identifies a sailing by ferry and departure clock, e.g. "F12-0915".
// Departures in an unknown format keep their trimmed raw text.
func TripID(ferryID, departure string) string {
	clock := providers.NormalizeClock(departure)
	if clock == "" {
		clock = strings.Join(strings.Fields(departure), "")
	}
	return ferryID + "-" + strings.ReplaceAll(clock, ":", "")
}

// normalize groups the flat class rows into one result per ferry sailing.
func (a *Adapter) normalize(req models.SearchRequest, rows []tripRow) []models.UnifiedFerryResult {
	groups := map[string]*ferry{}
	var order []string
	for _, row := range rows {
		id := row.FerryID.String()
		if id == "" {
			continue
		}
		key := TripID(id, row.DepartureTime)
		g, ok := groups[key]
		if !ok {
			g = &ferry{key: key, first: row}
			groups[key] = g
			order = append(order, key)
		}
		g.rows = append(g.rows, row)
	}

	now := a.now()
	out := make([]models.UnifiedFerryResult, 0, len(order))
	for _, key := range order {
		g := groups[key]
		classes := make([]models.FerryClass, 0, len(g.rows))
		for _, row := range g.rows {
			title := strings.TrimSpace(row.ClassTitle)
			classes = append(classes, models.FerryClass{
				ID:   row.ClassID.String(),
				Name: title,
				Pricing: models.Pricing{
					BaseFare: row.Fare.Float(),
					Taxes:    row.GST.Float(),
					PortFee:  row.PortFee.Float(),
					Currency: "INR",
				},
				AvailableSeats: row.AvailableSeats.Int(),
				TotalSeats:     row.TotalSeats.Int(),
				Amenities:      providers.AmenitiesFor(title),
			})
		}
		raw, _ := json.Marshal(g.rows)
		r := models.UnifiedFerryResult{
			Provider:   name,
			TripID:     key,
			VesselName: strings.TrimSpace(g.first.FerryName),
			Route:      providers.BuildRoute(a.resolver, req.Origin, req.Destination),
			Schedule:   providers.BuildSchedule(req.TravelDate, g.first.DepartureTime, g.first.ArrivalTime),
			Classes:    classes,
			Features:   models.Features{SeatSelection: true},
			Searched:   models.SearchMix{Adults: req.Adults, Children: req.Children, Infants: req.Infants},
			ProviderData: models.ProviderData{
				Refs: models.TripRefs{
					FerryID: g.first.FerryID.String(),
					RouteID: g.first.RouteID.String(),
				},
				BookingEndpoint: a.client.URL(bookPath),
				Raw:             raw,
			},
		}
		providers.FinishResult(&r, now)
		out = append(out, r)
	}
	return out
}

// layoutBudget bounds layout fetching to a share of the provider timeout
// and to half of what is left of the caller's deadline, so the trips
// already found are returned in time.
func (a *Adapter) layoutBudget(ctx context.Context) time.Duration {
	budget := a.cfg.Timeout / layoutShare
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl) / 2; left < budget {
			budget = left
		}
	}
	return budget
}

// attachLayouts fetches each class's layout concurrently within
// layoutBudget. A failed or late fetch leaves that class without a layout.
func (a *Adapter) attachLayouts(ctx context.Context, results []models.UnifiedFerryResult) {
	budget := a.layoutBudget(ctx)
	if budget <= 0 {
		a.logger.Warn("no time left for seat layouts", "trips", len(results))
		return
	}
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(layoutConcurrency)
	for i := range results {
		for j := range results[i].Classes {
			trip, cls := &results[i], &results[i].Classes[j]
			g.Go(func() error {
				layout, err := a.fetchLayout(ctx, "search_layout", *trip, cls.ID)
				if err != nil {
					a.logger.Warn("seat layout unavailable", "trip_id", trip.TripID, "class_id", cls.ID, "error", err)
					return nil
				}
				cls.SeatLayout = &layout
				return nil
			})
		}
	}
	_ = g.Wait()
}

// SeatLayout loads the live layout of one class.
func (a *Adapter) SeatLayout(ctx context.Context, trip models.UnifiedFerryResult, classID string) (models.SeatLayout, error) {
	if !a.Configured() {
		return models.SeatLayout{}, providers.NotConfigured(name, "seat_layout")
	}
	return providers.Retry(ctx, a.client, "seat_layout", func(ctx context.Context) (models.SeatLayout, error) {
		return a.fetchLayout(ctx, "seat_layout", trip, classID)
	})
}

func (a *Adapter) fetchLayout(ctx context.Context, op string, trip models.UnifiedFerryResult, classID string) (models.SeatLayout, error) {
	refs := trip.ProviderData.Refs
	body := layoutRequest{
		FerryID:    refs.FerryID,
		ClassID:    classID,
		RouteID:    refs.RouteID,
		TravelDate: trip.Schedule.Date,
		PublicKey:  a.cfg.PublicKey,
	}
	body.HashString = a.sign(body.FerryID, body.ClassID, body.RouteID, body.TravelDate)
	var data layoutData
	if err := a.call(ctx, op, layoutPath, body, &data); err != nil {
		return models.SeatLayout{}, err
	}
	return buildLayout(data), nil
}

func seatStatus(s string) models.SeatStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "booked", "sold", "reserved", "1":
		return models.SeatBooked
	case "blocked", "locked", "hold", "unavailable", "2":
		return models.SeatBlocked
	}
	return models.SeatAvailable
}

func buildLayout(d layoutData) models.SeatLayout {
	layout := models.SeatLayout{Rows: d.Rows.Int(), Columns: d.Columns.Int(), Seats: make([]models.Seat, 0, len(d.Seats))}
	for _, s := range d.Seats {
		if r := s.Row.Int(); r > layout.Rows {
			layout.Rows = r
		}
		if c := s.Col.Int(); c > layout.Columns {
			layout.Columns = c
		}
	}
	for _, s := range d.Seats {
		id := s.SeatID.String()
		num := s.SeatNo.String()
		if id == "" {
			id = num
		}
		if num == "" {
			num = id
		}
		layout.Seats = append(layout.Seats, models.Seat{
			ID:     id,
			Number: num,
			Status: seatStatus(s.Status.String()),
			Type:   providers.SeatTypeFor(s.Col.Int(), layout.Columns),
			Row:    s.Row.Int(),
			Column: s.Col.Int(),
		})
	}
	providers.SortSeats(layout.Seats)
	return layout
}
