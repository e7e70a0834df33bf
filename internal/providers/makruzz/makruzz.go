// Package makruzz is the adapter for the Makruzz API: a login yields a
// session token sent in the Mak_Authorization header; locations are
// numeric ids.
package makruzz

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"ferryhub/internal/domain"
	"ferryhub/internal/domain/models"
	"ferryhub/internal/location"
	"ferryhub/internal/providers"
)

const (
	name       = providers.Makruzz
	authHeader = "Mak_Authorization"
)

type Config struct {
	BaseURL  string
	Username string
	Password string
	Timeout  time.Duration
	TokenTTL time.Duration
}

type Adapter struct {
	cfg      Config
	client   *providers.Client
	resolver *location.Resolver
	tokens   *providers.TokenHolder
	now      func() time.Time
	logger   *slog.Logger
}

func New(cfg Config, deps providers.Deps) *Adapter {
	deps = deps.WithDefaults()
	if cfg.Timeout <= 0 {
		cfg.Timeout = 12 * time.Second
	}
	a := &Adapter{
		cfg:      cfg,
		client:   deps.Client(name, cfg.BaseURL, cfg.Timeout),
		resolver: deps.Resolver,
		now:      deps.Now,
		logger:   deps.Logger.With("component", "provider", "provider", name),
	}
	a.tokens = providers.NewTokenHolder(func(ctx context.Context) (string, error) {
		return providers.Retry(ctx, a.client, "login", a.login)
	}, cfg.TokenTTL, deps.Now)
	return a
}

func (a *Adapter) Name() string { return name }

func (a *Adapter) Configured() bool {
	return a.cfg.BaseURL != "" && a.cfg.Username != "" && a.cfg.Password != ""
}

func (a *Adapter) Timeout() time.Duration { return a.cfg.Timeout }

func (a *Adapter) SupportsRoute(from, to string) bool {
	return a.resolver.RouteSupported(name, from, to)
}

func (a *Adapter) login(ctx context.Context) (string, error) {
	var env envelope
	body := request[loginData]{Data: loginData{Username: a.cfg.Username, Password: a.cfg.Password}}
	if err := a.client.PostJSON(ctx, "login", "/login", nil, body, &env); err != nil {
		return "", err
	}
	if err := env.check("login"); err != nil {
		if domain.IsProviderDomain(err) {
			return "", providers.Errorf(name, "login", domain.KindAuth, "%s", env.Msg)
		}
		return "", err
	}
	var res loginResult
	if err := json.Unmarshal(env.Data, &res); err != nil || strings.TrimSpace(res.Token) == "" {
		return "", providers.Errorf(name, "login", domain.KindAuth, "login returned no token")
	}
	return res.Token, nil
}

// check turns a non-success envelope code into a typed error.
func (e envelope) check(op string) error {
	code, _ := strconv.Atoi(e.Code.String())
	switch {
	case code == http.StatusOK || strings.EqualFold(e.Code.String(), "success"):
		return nil
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return providers.Errorf(name, op, domain.KindAuth, "%s", e.Msg)
	case code >= 500:
		return providers.Errorf(name, op, domain.KindUpstream, "%s", e.Msg)
	case code == 0 && providers.LooksLikeAuth(e.Msg):
		return providers.Errorf(name, op, domain.KindAuth, "%s", e.Msg)
	default:
		pe := domain.NewProviderError(name, op, domain.KindDomain, e.Msg, nil)
		pe.StatusCode = code
		return pe
	}
}

// call sends an authenticated request. An auth failure drops the token,
// logs in again and replays the request once.
func (a *Adapter) call(ctx context.Context, op, path string, body, out any) error {
	tok, err := a.tokens.Token(ctx)
	if err != nil {
		return err
	}
	err = a.send(ctx, op, path, tok, body, out)
	if !domain.IsAuth(err) {
		return err
	}
	a.logger.Info("session rejected, logging in again", "op", op)
	a.tokens.Invalidate(tok)
	tok, err = a.tokens.Refresh(ctx)
	if err != nil {
		return err
	}
	return a.send(ctx, op, path, tok, body, out)
}

func (a *Adapter) send(ctx context.Context, op, path, tok string, body, out any) error {
	var env envelope
	if err := a.client.PostJSON(ctx, op, path, http.Header{authHeader: {tok}}, body, &env); err != nil {
		return err
	}
	if err := env.check(op); err != nil {
		return err
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return domain.NewProviderError(name, op, domain.KindParse, "decode data", err)
	}
	return nil
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
	from, err := a.resolver.Resolve(req.Origin, name)
	if err != nil {
		return nil, err
	}
	to, err := a.resolver.Resolve(req.Destination, name)
	if err != nil {
		return nil, err
	}
	body := request[searchData]{Data: searchData{
		TripType:      "single_trip",
		FromLocation:  from,
		ToLocation:    to,
		TravelDate:    req.TravelDate,
		NoOfPassenger: req.Ticketed(),
	}}
	return providers.Retry(ctx, a.client, "search", func(ctx context.Context) ([]models.UnifiedFerryResult, error) {
		var rows []json.RawMessage
		err := a.call(ctx, "search", "/schedule_search", body, &rows)
		var pe *domain.ProviderError
		if errors.As(err, &pe) && pe.Kind == domain.KindDomain && pe.StatusCode == http.StatusNotFound {
			return []models.UnifiedFerryResult{}, nil
		}
		if err != nil {
			return nil, err
		}
		return a.normalize(req, rows)
	})
}

// Probe performs a fresh login with the configured credentials.
func (a *Adapter) Probe(ctx context.Context) error {
	if !a.Configured() {
		return providers.NotConfigured(name, "probe")
	}
	tok, err := a.login(ctx)
	if err != nil {
		return err
	}
	a.tokens.Set(tok)
	return nil
}

type schedule struct {
	first scheduleRow
	rows  []scheduleRow
	raw   []json.RawMessage
}

// normalize groups the flat per-class rows into one result per schedule.
func (a *Adapter) normalize(req models.SearchRequest, raw []json.RawMessage) ([]models.UnifiedFerryResult, error) {
	groups := map[string]*schedule{}
	var order []string
	for _, r := range raw {
		var row scheduleRow
		if err := json.Unmarshal(r, &row); err != nil {
			return nil, domain.NewProviderError(name, "search", domain.KindParse, "decode schedule row", err)
		}
		id := row.ScheduleID.String()
		if id == "" {
			continue
		}
		g, ok := groups[id]
		if !ok {
			g = &schedule{first: row}
			groups[id] = g
			order = append(order, id)
		}
		g.rows = append(g.rows, row)
		g.raw = append(g.raw, r)
	}

	now := a.now()
	out := make([]models.UnifiedFerryResult, 0, len(order))
	for _, id := range order {
		g := groups[id]
		classes := make([]models.FerryClass, 0, len(g.rows))
		for _, row := range g.rows {
			title := strings.TrimSpace(row.ShipClassTitle)
			classes = append(classes, models.FerryClass{
				ID:   row.ShipClassID.String(),
				Name: title,
				Pricing: models.Pricing{
					BaseFare: row.ShipClassPrice.Float(),
					Taxes:    row.CGST.Float() + row.SGST.Float(),
					PortFee:  row.PSF.Float(),
					Currency: "INR",
				},
				AvailableSeats: row.Seat.Int(),
				TotalSeats:     row.TotalSeat.Int(),
				Amenities:      providers.AmenitiesFor(title),
			})
		}
		sort.SliceStable(classes, func(i, j int) bool { return classes[i].Pricing.BaseFare < classes[j].Pricing.BaseFare })

		rawGroup, _ := json.Marshal(g.raw)
		r := models.UnifiedFerryResult{
			Provider:   name,
			TripID:     id,
			VesselName: strings.TrimSpace(g.first.ShipTitle),
			Route:      providers.BuildRoute(a.resolver, req.Origin, req.Destination),
			Schedule:   providers.BuildSchedule(req.TravelDate, g.first.DepartureTime, g.first.ArrivalTime),
			Classes:    classes,
			Features:   models.Features{AutoSeatAssignment: true},
			Searched:   models.SearchMix{Adults: req.Adults, Children: req.Children, Infants: req.Infants},
			ProviderData: models.ProviderData{
				Refs:            models.TripRefs{ScheduleID: id, InternalID: g.first.ID.String()},
				BookingEndpoint: a.client.URL("/savePassengers"),
				SessionToken:    a.tokens.Peek(),
				Raw:             rawGroup,
			},
		}
		providers.FinishResult(&r, now)
		out = append(out, r)
	}
	return out, nil
}
