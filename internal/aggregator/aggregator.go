// Package aggregator fans one search out to every ferry provider and
// merges what comes back.
package aggregator

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"ferryhub/internal/cache"
	"ferryhub/internal/domain"
	"ferryhub/internal/domain/models"
	"ferryhub/internal/location"
	"ferryhub/internal/metrics"
	"ferryhub/internal/providers"
	"ferryhub/internal/resilience"
	"ferryhub/internal/tracing"
)

const (
	DefaultCacheTTL        = 5 * time.Minute
	defaultProviderTimeout = 12 * time.Second
	snapshotTimeout        = 3 * time.Second
)

// SnapshotSink persists searched trip state so a booking can find it after
// the cache has expired.
type SnapshotSink interface {
	SaveTrips(ctx context.Context, trips []models.UnifiedFerryResult) error
}

type Config struct {
	Providers []providers.Provider
	// Locations canonicalizes request endpoints. Defaults to the embedded table.
	Locations models.Canonicalizer
	CacheTTL  time.Duration
	Snapshots SnapshotSink
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
	Now       func() time.Time
}

type Engine struct {
	providers []providers.Provider
	byName    map[string]providers.Provider
	results   *cache.Cache[[]models.UnifiedFerryResult]
	trips     *cache.Cache[models.UnifiedFerryResult]
	snapshots SnapshotSink
	locations models.Canonicalizer
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

func New(cfg Config) *Engine {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Locations == nil {
		cfg.Locations = location.Default()
	}
	e := &Engine{
		providers: cfg.Providers,
		byName:    make(map[string]providers.Provider, len(cfg.Providers)),
		results:   cache.New(cfg.CacheTTL, cache.CloneResults, cache.WithClock[[]models.UnifiedFerryResult](cfg.Now)),
		trips:     cache.New(cfg.CacheTTL, cache.CloneResult, cache.WithClock[models.UnifiedFerryResult](cfg.Now)),
		snapshots: cfg.Snapshots,
		locations: cfg.Locations,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger.With("component", "aggregator"),
		now:       cfg.Now,
	}
	for _, p := range cfg.Providers {
		e.byName[p.Name()] = p
	}
	return e
}

func (e *Engine) Providers() []providers.Provider { return e.providers }

func (e *Engine) Provider(name string) (providers.Provider, bool) {
	p, ok := e.byName[name]
	return p, ok
}

// Janitor purges expired cache entries until ctx is done.
func (e *Engine) Janitor(ctx context.Context, interval time.Duration) {
	go e.trips.Janitor(ctx, interval)
	e.results.Janitor(ctx, interval)
}

type branch struct {
	provider string
	results  []models.UnifiedFerryResult
	hit      bool
	err      error
	skipped  bool
}

// SearchAll queries every configured provider that serves the route. A
// failing provider contributes an error entry and never fails the search.
// Only an invalid request returns an error.
func (e *Engine) SearchAll(ctx context.Context, req models.SearchRequest) (models.SearchResponse, error) {
	if err := e.prepare(&req); err != nil {
		return models.SearchResponse{}, err
	}
	start := e.now()
	ctx, span := tracing.Start(ctx, "aggregator.search_all",
		attribute.String("route.from", req.Origin),
		attribute.String("route.to", req.Destination),
		attribute.String("travel.date", req.TravelDate),
	)
	defer span.End()

	branches := make([]branch, len(e.providers))
	var g errgroup.Group
	for i, p := range e.providers {
		branches[i].provider = p.Name()
		if !p.Configured() || !p.SupportsRoute(req.Origin, req.Destination) {
			branches[i].skipped = true
			continue
		}
		g.Go(func() error {
			branches[i].results, branches[i].hit, branches[i].err = e.search(ctx, p, req)
			return nil
		})
	}
	_ = g.Wait()

	resp := models.SearchResponse{
		Results: []models.UnifiedFerryResult{},
		Errors:  []models.ProviderFailure{},
		Metadata: models.SearchMetadata{
			ProvidersQueried: []string{},
			Succeeded:        []string{},
			Failed:           []string{},
			Skipped:          []string{},
			CacheHits:        []string{},
			SearchedAt:       start,
		},
	}
	for _, b := range branches {
		md := &resp.Metadata
		if b.skipped {
			md.Skipped = append(md.Skipped, b.provider)
			continue
		}
		md.ProvidersQueried = append(md.ProvidersQueried, b.provider)
		if b.err != nil {
			md.Failed = append(md.Failed, b.provider)
			resp.Errors = append(resp.Errors, Failure(b.provider, b.err))
			e.logger.Warn("provider search failed", "provider", b.provider, "kind", string(domain.KindOf(b.err)), "error", b.err)
			continue
		}
		md.Succeeded = append(md.Succeeded, b.provider)
		if b.hit {
			md.CacheHits = append(md.CacheHits, b.provider)
		}
		resp.Results = append(resp.Results, b.results...)
	}
	SortResults(resp.Results)

	elapsed := e.now().Sub(start)
	resp.Metadata.TotalResults = len(resp.Results)
	resp.Metadata.DurationMs = elapsed.Milliseconds()
	e.metrics.RecordSearch(elapsed)
	span.SetAttributes(
		attribute.Int("results", len(resp.Results)),
		attribute.Int("provider_errors", len(resp.Errors)),
	)
	e.logger.Info("search completed",
		"from", req.Origin, "to", req.Destination, "date", req.TravelDate,
		"results", len(resp.Results), "failed", resp.Metadata.Failed, "duration_ms", resp.Metadata.DurationMs)
	return resp, nil
}

// SearchProvider runs one provider's search through the cache, for callers
// that need a single provider's itineraries.
func (e *Engine) SearchProvider(ctx context.Context, name string, req models.SearchRequest) ([]models.UnifiedFerryResult, error) {
	if err := e.prepare(&req); err != nil {
		return nil, err
	}
	p, ok := e.byName[name]
	if !ok {
		return nil, domain.ValidationError{Field: "provider", Msg: "unknown provider " + name}
	}
	if !p.Configured() {
		return nil, providers.NotConfigured(name, "search")
	}
	results, _, err := e.search(ctx, p, req)
	return results, err
}

// prepare validates req and rewrites its endpoints to canonical codes, so
// aliases share cache entries and same-place searches never fan out.
func (e *Engine) prepare(req *models.SearchRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	return req.Canonicalize(e.locations)
}

// search is one time-boxed provider branch. The deadline holds even when
// the adapter ignores its context.
func (e *Engine) search(ctx context.Context, p providers.Provider, req models.SearchRequest) ([]models.UnifiedFerryResult, bool, error) {
	name := p.Name()
	timeout := p.Timeout()
	if timeout <= 0 {
		timeout = defaultProviderTimeout
	}
	ctx, span := tracing.Start(ctx, "aggregator.provider_search", attribute.String("provider", name))

	type loaded struct {
		results []models.UnifiedFerryResult
		hit     bool
	}
	out, err := resilience.WithTimeout(ctx, name+".search", timeout, func(ctx context.Context) (loaded, error) {
		results, hit, err := e.results.GetOrLoad(ctx, cache.SearchKey(req, name), func(ctx context.Context) ([]models.UnifiedFerryResult, error) {
			return p.Search(ctx, req)
		})
		return loaded{results, hit}, err
	})
	tracing.End(span, err)
	if err != nil {
		return nil, false, err
	}
	e.metrics.RecordCache(name, out.hit)
	if out.results == nil {
		out.results = []models.UnifiedFerryResult{}
	}
	e.index(out.results)
	if !out.hit {
		e.snapshot(ctx, name, out.results)
	}
	return out.results, out.hit, nil
}

func (e *Engine) index(results []models.UnifiedFerryResult) {
	for _, r := range results {
		e.trips.Set(cache.TripKey(r.Provider, r.TripID), r)
	}
}

func (e *Engine) snapshot(ctx context.Context, provider string, results []models.UnifiedFerryResult) {
	if e.snapshots == nil || len(results) == 0 {
		return
	}
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), snapshotTimeout)
	defer cancel()
	if err := e.snapshots.SaveTrips(sctx, results); err != nil {
		e.logger.Warn("trip snapshot not saved", "provider", provider, "trips", len(results), "error", err)
	}
}

// Trip returns a trip seen by a recent search.
func (e *Engine) Trip(provider, tripID string) (models.UnifiedFerryResult, bool) {
	return e.trips.Get(cache.TripKey(provider, tripID))
}

// Remember indexes a trip recovered from elsewhere.
func (e *Engine) Remember(trip models.UnifiedFerryResult) {
	e.trips.Set(cache.TripKey(trip.Provider, trip.TripID), trip)
}

// SortResults orders by departure, then provider, then trip id. A trip
// with no known departure sorts last.
func SortResults(results []models.UnifiedFerryResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		am, aok := providers.MinutesOf(a.Schedule.Departure)
		bm, bok := providers.MinutesOf(b.Schedule.Departure)
		if aok != bok {
			return aok
		}
		if am != bm {
			return am < bm
		}
		if a.Provider != b.Provider {
			return a.Provider < b.Provider
		}
		return a.TripID < b.TripID
	})
}
