package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ferryhub/internal/booking"
	"ferryhub/internal/domain"
	"ferryhub/internal/domain/models"
	"ferryhub/internal/http/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

type stubSearch struct {
	got  models.SearchRequest
	resp models.SearchResponse
	err  error
}

func (s *stubSearch) SearchAll(_ context.Context, req models.SearchRequest) (models.SearchResponse, error) {
	s.got = req
	if s.err == nil {
		if err := req.Validate(); err != nil {
			return models.SearchResponse{}, err
		}
	}
	return s.resp, s.err
}

type stubHealth struct{}

func (stubHealth) Check(context.Context) []models.OperatorHealth {
	return []models.OperatorHealth{{Provider: "sealink", Status: models.HealthOnline}}
}

type stubBooking struct {
	resp   models.BookingResponse
	err    error
	layout models.SeatLayout
	query  booking.SeatLayoutQuery
}

func (s *stubBooking) Book(context.Context, models.BookingRequest) (models.BookingResponse, error) {
	return s.resp, s.err
}

func (s *stubBooking) SeatLayout(_ context.Context, q booking.SeatLayoutQuery) (models.SeatLayout, error) {
	s.query = q
	return s.layout, s.err
}

func engine(f Ferries) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID())
	r.POST("/search", f.SearchFerries)
	r.GET("/search", f.SearchFerries)
	r.GET("/health", f.OperatorHealth)
	r.POST("/bookings", f.CreateBooking)
	r.GET("/seat-layout", f.SeatLayout)
	return r
}

func do(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSearchFerriesJSONAndQuery(t *testing.T) {
	s := &stubSearch{resp: models.SearchResponse{Results: []models.UnifiedFerryResult{{TripID: "S1"}}}}
	r := engine(Ferries{Search: s})

	w := do(r, http.MethodPost, "/search", `{"from":"portblair","to":"havelock","date":"2026-11-02","adults":2}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 2, s.got.Adults)
	assert.Contains(t, w.Body.String(), `"tripId":"S1"`)

	w = do(r, http.MethodGet, "/search?from=portblair&to=havelock&date=2026-11-02&adults=1&infants=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, s.got.Infants)
}

func TestSearchFerriesValidation(t *testing.T) {
	r := engine(Ferries{Search: &stubSearch{}})

	w := do(r, http.MethodPost, "/search", `{"from":"havelock","to":"havelock","date":"2026-11-02","adults":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "validation_error")
	assert.Contains(t, w.Body.String(), "request_id")

	w = do(r, http.MethodPost, "/search", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOperatorHealth(t *testing.T) {
	w := do(engine(Ferries{Health: stubHealth{}}), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"provider":"sealink"`)
}

func TestCreateBooking(t *testing.T) {
	b := &stubBooking{resp: models.BookingResponse{Success: true, PNR: "SL1", BookingReference: "ref"}}
	r := engine(Ferries{Booking: b})

	w := do(r, http.MethodPost, "/bookings", `{"provider":"sealink","tripId":"t"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var got models.BookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "SL1", got.PNR)
}

func TestCreateBookingFailureStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{domain.ValidationError{Field: "seats"}, http.StatusBadRequest},
		{domain.TripStateNotFoundError{Provider: "sealink", TripID: "t"}, http.StatusNotFound},
		{domain.NewProviderError("sealink", "book", domain.KindDomain, "sold out", nil), http.StatusConflict},
		{domain.NewProviderError("sealink", "book", domain.KindAuth, "", nil), http.StatusBadGateway},
		{domain.NewProviderError("sealink", "book", domain.KindTimeout, "", nil), http.StatusGatewayTimeout},
	}
	for _, tc := range cases {
		b := &stubBooking{err: tc.err, resp: models.BookingResponse{
			BookingReference: "ref",
			Error:            booking.BookingErrorFor(tc.err),
		}}
		w := do(engine(Ferries{Booking: b}), http.MethodPost, "/bookings", `{"provider":"sealink"}`)
		assert.Equal(t, tc.status, w.Code, tc.err.Error())
		assert.Contains(t, w.Body.String(), `"bookingReference":"ref"`)
	}
}

func TestSeatLayoutQuery(t *testing.T) {
	b := &stubBooking{layout: models.SeatLayout{Seats: []models.Seat{{ID: "1", Status: models.SeatAvailable}}}}
	r := engine(Ferries{Booking: b})

	w := do(r, http.MethodGet, "/seat-layout?provider=greenocean&trip_id=F12-0915&class_id=7&from=portblair&to=havelock&date=2026-11-02", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "F12-0915", b.query.TripID)
	assert.Contains(t, w.Body.String(), `"availableSeats":1`)

	w = do(r, http.MethodGet, "/seat-layout?provider=greenocean", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
