package sealink

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"ferryhub/internal/domain"
	"ferryhub/internal/domain/models"
	"ferryhub/internal/providers"
	"ferryhub/internal/resilience"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tripFixture = `{"err":null,"data":[
 {"id":"64f1","tripId":"SL-0815","vesselID":"V7","vesselName":"Sea Link II","from":"Port Blair","to":"Swaraj Dweep",
  "dTime":{"hour":8,"minute":15},"aTime":{"hour":"9","minute":"45"},
  "fares":{"pBaseFare":1200,"bBaseFare":"2000","infantFare":0,"portFee":50,"gst":5},
  "pClass":[{"number":"1A","isBooked":0,"isBlocked":0,"row":1,"col":1},{"number":"1B","isBooked":1,"isBlocked":0,"row":1,"col":2}],
  "bClass":[{"number":"R1","isBooked":false,"isBlocked":true,"row":1,"col":1}]},
 {"id":"64f2","tripId":"SL-0600","vesselID":"V7","vesselName":"Sea Link II","from":"Port Blair","to":"Swaraj Dweep",
  "dTime":{"hour":6,"minute":0},"aTime":{"hour":7,"minute":30},
  "fares":{"pBaseFare":1100,"bBaseFare":0,"portFee":50,"gst":0},
  "pClass":[{"number":"1A","isBooked":0,"isBlocked":0,"row":1,"col":1}],"bClass":[]},
 {"id":"64f3","tripId":"SL-X","vesselName":"Other","from":"Shaheed Dweep","to":"Swaraj Dweep",
  "dTime":{"hour":6,"minute":0},"aTime":{"hour":7,"minute":0},"fares":{"pBaseFare":900},"pClass":[{"number":"1A","row":1,"col":1}]}
]}`

func fixedNow() time.Time { return time.Date(2026, 11, 1, 8, 0, 0, 0, time.UTC) }

func testDeps() providers.Deps {
	return providers.Deps{NoBreaker: true, Now: fixedNow, Retry: resilience.RetryConfig{InitialDelay: time.Millisecond}}
}

func newAdapter(url string) *Adapter {
	return New(Config{BaseURL: url, Username: "agent", Token: "tkn"}, testDeps())
}

func searchReq() models.SearchRequest {
	return models.SearchRequest{Origin: "portblair", Destination: "havelock", TravelDate: "2026-11-02", Adults: 2, Infants: 1}
}

func TestSearchNormalizesTrips(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/getTripData", r.URL.Path)
		var body searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, searchRequest{Date: "02-11-2026", From: "Port Blair", To: "Swaraj Dweep", UserName: "agent", Token: "tkn"}, body)
		_, _ = w.Write([]byte(tripFixture))
	}))
	defer srv.Close()

	results, err := newAdapter(srv.URL).Search(context.Background(), searchReq())
	require.NoError(t, err)
	require.Len(t, results, 2)

	r := results[0]
	assert.Equal(t, "sealink", r.Provider)
	assert.Equal(t, "SL-0815", r.TripID)
	assert.Equal(t, "64f1", r.ProviderData.Refs.InternalID)
	assert.Equal(t, "V7", r.ProviderData.Refs.VesselID)
	assert.Equal(t, "08:15", r.Schedule.Departure)
	assert.Equal(t, "1h 30m", r.Schedule.Duration)
	assert.Equal(t, "IXZ", r.Route.Origin.PortCode)
	assert.True(t, r.Features.SeatSelection)
	require.Len(t, r.Classes, 2)

	premium := r.Classes[0]
	assert.Equal(t, "P", premium.ID)
	assert.Equal(t, 60.0, premium.Pricing.Taxes)
	assert.Equal(t, 1310.0, premium.Price)
	assert.Equal(t, 1, premium.AvailableSeats)
	assert.Equal(t, 2, premium.TotalSeats)
	assert.Equal(t, models.SeatBooked, premium.SeatLayout.Seats[1].Status)

	royal := r.Classes[1]
	assert.Equal(t, "B", royal.ID)
	assert.Equal(t, 0, royal.AvailableSeats)
	assert.Equal(t, models.SeatBlocked, royal.SeatLayout.Seats[0].Status)

	assert.Equal(t, 1310.0, r.Pricing.Total)
	assert.Equal(t, 3, r.Availability.TotalSeats)
	assert.Equal(t, fixedNow(), r.Availability.LastUpdated)

	assert.Len(t, results[1].Classes, 1)
}

func TestSearchRejectsSameOriginBeforeNetwork(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	req := searchReq()
	req.Destination = req.Origin
	_, err := newAdapter(srv.URL).Search(context.Background(), req)
	assert.True(t, domain.IsValidation(err))
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestSearchRejectsAliasOfOriginBeforeNetwork(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	req := searchReq()
	req.Destination = "pb"
	_, err := newAdapter(srv.URL).Search(context.Background(), req)
	assert.True(t, domain.IsValidation(err))
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestSearchAcceptsLocationAliases(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(tripFixture))
	}))
	defer srv.Close()

	req := searchReq()
	req.Origin, req.Destination = "Port Blair", "swaraj  dweep"
	results, err := newAdapter(srv.URL).Search(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "portblair", results[0].Route.Origin.Code)
	assert.Equal(t, "havelock", results[0].Route.Destination.Code)
}

func TestSearchTokenErrorIsTerminal(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(`{"err":"Invalid token","data":[]}`))
	}))
	defer srv.Close()

	_, err := newAdapter(srv.URL).Search(context.Background(), searchReq())
	assert.True(t, domain.IsAuth(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestUnconfigured(t *testing.T) {
	a := New(Config{BaseURL: "http://example.invalid"}, testDeps())
	assert.False(t, a.Configured())
	_, err := a.Search(context.Background(), searchReq())
	assert.True(t, domain.IsConfig(err))
	assert.True(t, domain.IsConfig(a.Probe(context.Background())))
}

func TestProbeUsesTomorrow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body searchRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "02-11-2026", body.Date)
		_, _ = w.Write([]byte(`{"err":null,"data":[]}`))
	}))
	defer srv.Close()
	assert.NoError(t, newAdapter(srv.URL).Probe(context.Background()))
}

func bookingInput() providers.BookingInput {
	trip := models.UnifiedFerryResult{
		Provider: "sealink", TripID: "SL-0815",
		ProviderData: models.ProviderData{Refs: models.TripRefs{InternalID: "64f1", VesselID: "V7"}},
	}
	return providers.BookingInput{
		Request: models.BookingRequest{Provider: "sealink", TripID: "SL-0815", ClassID: "P", Origin: "portblair", Destination: "havelock", TravelDate: "2026-11-02"},
		Trip:    trip,
		Class:   models.FerryClass{ID: "P", Name: "Premium"},
		Manifest: models.Manifest{
			Ticketed: []models.TicketedPassenger{
				{Passenger: models.Passenger{Name: "Asha", Age: 30, Gender: "female", Nationality: "indian"}, Seat: models.SeatAssignment{ID: "1A", Number: "1A"}},
				{Passenger: models.Passenger{Name: "John", Age: 40, Gender: "male", Nationality: "foreigner", PassportNumber: "X1"}, Seat: models.SeatAssignment{ID: "1B", Number: "1B"}},
			},
			Infants: []models.Passenger{{Name: "Baby", Age: 1, Gender: "male", Nationality: "indian"}},
			Contact: models.Contact{Name: "Asha", Email: "asha@example.com", Phone: "9000000000"},
		},
	}
}

func TestBookEncodesPassengers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bookSeats", r.URL.Path)
		var body bookRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.BookingData, 1)
		b := body.BookingData[0]
		assert.Equal(t, "64f1", b.ID)
		assert.Equal(t, "V7", b.VesselID)
		assert.Equal(t, "Swaraj Dweep", b.To)
		assert.Equal(t, fixedNow().Unix(), b.BookingTS)
		require.Len(t, b.PaxDetail.Pax, 2)
		assert.Equal(t, "F", b.PaxDetail.Pax[0].Gender)
		assert.Equal(t, "Foreigner", b.PaxDetail.Pax[1].Nationality)
		assert.Equal(t, "1B", b.PaxDetail.Pax[1].Seat)
		assert.Equal(t, "P", b.PaxDetail.Pax[1].Tier)
		require.Len(t, b.PaxDetail.InfantPax, 1)
		assert.Equal(t, "M", b.PaxDetail.InfantPax[0].Gender)
		_, _ = w.Write([]byte(`{"err":null,"data":{"seatStatus":true,"pnr":"SLPNR1","bookingId":991,"tickets":[{"tktNo":"T1","name":"Asha","seat":"1A"},{"tktNo":"T2","name":"John","seat":"1B"}]}}`))
	}))
	defer srv.Close()

	res, err := newAdapter(srv.URL).Book(context.Background(), bookingInput())
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "SLPNR1", res.PNR)
	assert.Equal(t, "991", res.ProviderBookingID)
	assert.Len(t, res.Tickets, 2)
	assert.Nil(t, res.Artifact)
}

func TestBookSeatConflictIsDomainError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(`{"err":null,"data":{"seatStatus":false}}`))
	}))
	defer srv.Close()

	_, err := newAdapter(srv.URL).Book(context.Background(), bookingInput())
	require.Error(t, err)
	assert.True(t, domain.IsProviderDomain(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestBookRejectsUnsupportedGender(t *testing.T) {
	in := bookingInput()
	in.Manifest.Ticketed[0].Gender = models.GenderOther
	_, err := newAdapter("http://example.invalid").Book(context.Background(), in)
	assert.True(t, domain.IsValidation(err))
}

func TestErrText(t *testing.T) {
	assert.Equal(t, "", errText(json.RawMessage(`null`)))
	assert.Equal(t, "", errText(json.RawMessage(`false`)))
	assert.Equal(t, "bad", errText(json.RawMessage(`"bad"`)))
	assert.Equal(t, "no seats", errText(json.RawMessage(`{"message":"no seats"}`)))
}
