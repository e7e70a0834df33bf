package aggregator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ferryhub/internal/domain"
	"ferryhub/internal/domain/models"
	"ferryhub/internal/providers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	name       string
	configured bool
	routes     bool
	timeout    time.Duration
	results    []models.UnifiedFerryResult
	err        error
	block      bool
	calls      atomic.Int32
	last       models.SearchRequest
}

func (f *fakeProvider) Name() string { return f.name }
func (f *fakeProvider) Configured() bool { return f.configured }
func (f *fakeProvider) SupportsRoute(_, _ string) bool { return f.routes }
func (f *fakeProvider) Timeout() time.Duration { return f.timeout }
func (f *fakeProvider) Probe(context.Context) error { return nil }

func (f *fakeProvider) Search(ctx context.Context, req models.SearchRequest) ([]models.UnifiedFerryResult, error) {
	f.calls.Add(1)
	f.last = req
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func provider(name string, trips ...models.UnifiedFerryResult) *fakeProvider {
	return &fakeProvider{name: name, configured: true, routes: true, timeout: time.Second, results: trips}
}

func trip(provider, id, departure string) models.UnifiedFerryResult {
	return models.UnifiedFerryResult{
		Provider: provider,
		TripID:   id,
		Schedule: models.Schedule{Date: "2026-11-02", Departure: departure},
		Classes:  []models.FerryClass{{ID: "E", Pricing: models.Pricing{BaseFare: 1000, Total: 1100}, AvailableSeats: 5, TotalSeats: 10}},
	}
}

func scenarioRequest() models.SearchRequest {
	return models.SearchRequest{Origin: "portblair", Destination: "havelock", TravelDate: "2026-11-02", Adults: 2, Infants: 1}
}

type memorySnapshots struct {
	mu    sync.Mutex
	saved []models.UnifiedFerryResult
	err   error
}

func (m *memorySnapshots) SaveTrips(_ context.Context, trips []models.UnifiedFerryResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, trips...)
	return m.err
}

func TestSearchAllToleratesOneTimeout(t *testing.T) {
	a := provider(providers.Sealink, trip(providers.Sealink, "S2", "13:00"), trip(providers.Sealink, "S1", "08:15"))
	b := provider(providers.Makruzz)
	b.block = true
	b.timeout = 30 * time.Millisecond
	c := provider(providers.GreenOcean, trip(providers.GreenOcean, "G1", "09:15"))

	e := New(Config{Providers: []providers.Provider{a, b, c}})
	start := time.Now()
	resp, err := e.SearchAll(context.Background(), scenarioRequest())
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)

	require.Len(t, resp.Results, 3)
	assert.Equal(t, []string{"S1", "G1", "S2"}, []string{resp.Results[0].TripID, resp.Results[1].TripID, resp.Results[2].TripID})
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, providers.Makruzz, resp.Errors[0].Provider)
	assert.Equal(t, string(domain.KindTimeout), resp.Errors[0].Kind)
	assert.Equal(t, MsgTimeout, resp.Errors[0].Message)

	md := resp.Metadata
	assert.Equal(t, []string{providers.Sealink, providers.Makruzz, providers.GreenOcean}, md.ProvidersQueried)
	assert.Equal(t, []string{providers.Sealink, providers.GreenOcean}, md.Succeeded)
	assert.Equal(t, []string{providers.Makruzz}, md.Failed)
	assert.Equal(t, 3, md.TotalResults)
}

func TestSearchAllAllFail(t *testing.T) {
	a := provider(providers.Sealink)
	a.err = domain.NewProviderError(providers.Sealink, "search", domain.KindAuth, "Invalid token abc123", nil)
	b := provider(providers.Makruzz)
	b.err = domain.NewProviderError(providers.Makruzz, "search", domain.KindUpstream, "mysql gone away at 10.0.0.4", nil)
	c := provider(providers.GreenOcean)
	c.err = errors.New("stack trace here")

	resp, err := New(Config{Providers: []providers.Provider{a, b, c}}).SearchAll(context.Background(), scenarioRequest())
	require.NoError(t, err)
	assert.NotNil(t, resp.Results)
	assert.Empty(t, resp.Results)
	require.Len(t, resp.Errors, 3)
	assert.Equal(t, MsgAuth, resp.Errors[0].Message)
	assert.Equal(t, MsgUnavailable, resp.Errors[1].Message)
	assert.Equal(t, MsgUnknown, resp.Errors[2].Message)
	for _, f := range resp.Errors {
		assert.NotContains(t, f.Message, "abc123")
		assert.NotContains(t, f.Message, "10.0.0.4")
	}
}

func TestSearchAllServesCacheHits(t *testing.T) {
	now := time.Date(2026, 11, 1, 8, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	a := provider(providers.Sealink, trip(providers.Sealink, "S1", "08:15"))
	e := New(Config{Providers: []providers.Provider{a}, CacheTTL: time.Minute, Now: clock})

	first, err := e.SearchAll(context.Background(), scenarioRequest())
	require.NoError(t, err)
	assert.Empty(t, first.Metadata.CacheHits)

	second, err := e.SearchAll(context.Background(), scenarioRequest())
	require.NoError(t, err)
	assert.Equal(t, []string{providers.Sealink}, second.Metadata.CacheHits)
	assert.Equal(t, first.Results, second.Results)
	assert.Equal(t, int32(1), a.calls.Load())

	now = now.Add(2 * time.Minute)
	_, err = e.SearchAll(context.Background(), scenarioRequest())
	require.NoError(t, err)
	assert.Equal(t, int32(2), a.calls.Load())
}

func TestSearchAllNeverCachesErrors(t *testing.T) {
	a := provider(providers.Sealink)
	a.err = domain.NewProviderError(providers.Sealink, "search", domain.KindUpstream, "down", nil)
	e := New(Config{Providers: []providers.Provider{a}})

	_, _ = e.SearchAll(context.Background(), scenarioRequest())
	_, _ = e.SearchAll(context.Background(), scenarioRequest())
	assert.Equal(t, int32(2), a.calls.Load())
}

func TestSearchAllSkipsUnconfiguredAndUnsupported(t *testing.T) {
	a := provider(providers.Sealink, trip(providers.Sealink, "S1", "08:15"))
	b := provider(providers.Makruzz)
	b.configured = false
	c := provider(providers.GreenOcean)
	c.routes = false

	resp, err := New(Config{Providers: []providers.Provider{a, b, c}}).SearchAll(context.Background(), scenarioRequest())
	require.NoError(t, err)
	assert.Empty(t, resp.Errors)
	assert.Equal(t, []string{providers.Makruzz, providers.GreenOcean}, resp.Metadata.Skipped)
	assert.Equal(t, int32(0), b.calls.Load())
	assert.Equal(t, int32(0), c.calls.Load())
}

func TestSearchAllRejectsSameOriginAndDestination(t *testing.T) {
	a := provider(providers.Sealink)
	req := scenarioRequest()
	req.Destination = req.Origin

	_, err := New(Config{Providers: []providers.Provider{a}}).SearchAll(context.Background(), req)
	assert.True(t, domain.IsValidation(err))
	assert.Equal(t, int32(0), a.calls.Load())
}

func TestSearchAllRejectsAliasOfOrigin(t *testing.T) {
	a := provider(providers.Sealink)
	req := scenarioRequest()
	req.Destination = "PB"

	_, err := New(Config{Providers: []providers.Provider{a}}).SearchAll(context.Background(), req)
	assert.True(t, domain.IsValidation(err))
	assert.Equal(t, int32(0), a.calls.Load())
}

func TestSearchAllCanonicalizesAliases(t *testing.T) {
	a := provider(providers.Sealink, trip(providers.Sealink, "S1", "08:15"))
	e := New(Config{Providers: []providers.Provider{a}})

	req := scenarioRequest()
	req.Origin, req.Destination = "port blair", "swaraj dweep"
	resp, err := e.SearchAll(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "portblair", a.last.Origin)
	assert.Equal(t, "havelock", a.last.Destination)

	resp, err = e.SearchAll(context.Background(), scenarioRequest())
	require.NoError(t, err)
	assert.Equal(t, []string{providers.Sealink}, resp.Metadata.CacheHits)
	assert.Equal(t, int32(1), a.calls.Load())
}

func TestSearchIndexesTripsAndSavesSnapshots(t *testing.T) {
	snaps := &memorySnapshots{err: errors.New("db down")}
	a := provider(providers.Sealink, trip(providers.Sealink, "S1", "08:15"))
	e := New(Config{Providers: []providers.Provider{a}, Snapshots: snaps})

	_, err := e.SearchAll(context.Background(), scenarioRequest())
	require.NoError(t, err)

	got, ok := e.Trip(providers.Sealink, "S1")
	require.True(t, ok)
	assert.Equal(t, "08:15", got.Schedule.Departure)
	assert.Len(t, snaps.saved, 1)

	_, err = e.SearchAll(context.Background(), scenarioRequest())
	require.NoError(t, err)
	assert.Len(t, snaps.saved, 1, "cache hits are not re-snapshotted")
}

func TestSearchProvider(t *testing.T) {
	a := provider(providers.Sealink, trip(providers.Sealink, "S1", "08:15"))
	e := New(Config{Providers: []providers.Provider{a}})

	res, err := e.SearchProvider(context.Background(), providers.Sealink, scenarioRequest())
	require.NoError(t, err)
	assert.Len(t, res, 1)

	_, err = e.SearchProvider(context.Background(), "ghost", scenarioRequest())
	assert.True(t, domain.IsValidation(err))
}

func TestSortResultsPutsUnknownDepartureLast(t *testing.T) {
	rs := []models.UnifiedFerryResult{
		trip(providers.Sealink, "X", ""),
		trip(providers.Sealink, "B", "09:00"),
		trip(providers.Makruzz, "A", "09:00"),
		trip(providers.GreenOcean, "C", "06:30"),
	}
	SortResults(rs)
	assert.Equal(t, []string{"C", "A", "B", "X"}, []string{rs[0].TripID, rs[1].TripID, rs[2].TripID, rs[3].TripID})
}
