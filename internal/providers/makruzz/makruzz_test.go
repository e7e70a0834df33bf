package makruzz

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"ferryhub/internal/domain"
	"ferryhub/internal/domain/models"
	"ferryhub/internal/providers"
	"ferryhub/internal/resilience"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scheduleFixture = `[
 {"id":"11","schedule_id":"501","ship_title":"Makruzz Gold","departure_time":"09:00:00","arrival_time":"10:30:00","ship_class_id":"2","ship_class_title":"Royal","ship_class_price":"2500","psf":"50","cgst":"62.5","sgst":"62.5","seat":"10","total_seat":"40"},
 {"id":"12","schedule_id":"501","ship_title":"Makruzz Gold","departure_time":"09:00:00","arrival_time":"10:30:00","ship_class_id":"1","ship_class_title":"Premium","ship_class_price":1500,"psf":50,"cgst":37.5,"sgst":37.5,"seat":120,"total_seat":200},
 {"id":"21","schedule_id":"502","ship_title":"Makruzz","departure_time":"14:00","arrival_time":"15:45","ship_class_id":"1","ship_class_title":"Premium","ship_class_price":"1400","psf":"50","cgst":"0","sgst":"0","seat":"0","total_seat":"150"}
]`

type fakeServer struct {
	mu        sync.Mutex
	logins    int
	tokens    []string
	rejectOld bool
	calls     map[string]int
	lastBody  map[string]json.RawMessage
}

func (f *fakeServer) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.calls == nil {
			f.calls = map[string]int{}
			f.lastBody = map[string]json.RawMessage{}
		}
		f.calls[r.URL.Path]++
		var body struct {
			Data json.RawMessage `json:"data"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.lastBody[r.URL.Path] = body.Data

		if r.URL.Path == "/login" {
			f.logins++
			tok := "tok" + string(rune('0'+f.logins))
			f.tokens = append(f.tokens, tok)
			writeEnv(w, 200, "ok", map[string]string{"token": tok})
			return
		}
		current := f.tokens[len(f.tokens)-1]
		if r.Header.Get("Mak_Authorization") != current || (f.rejectOld && f.logins == 1) {
			writeEnv(w, 401, "Token expired", nil)
			return
		}
		switch r.URL.Path {
		case "/schedule_search":
			_, _ = w.Write([]byte(`{"code":200,"msg":"ok","data":` + scheduleFixture + `}`))
		case "/savePassengers":
			writeEnv(w, 200, "saved", map[string]any{"booking_id": 7781})
		case "/confirm_booking":
			writeEnv(w, 200, "confirmed", map[string]any{"pnr": "MKPNR9"})
		case "/download_ticket":
			writeEnv(w, 200, "ok", map[string]string{"ticket_pdf": base64.StdEncoding.EncodeToString([]byte("%PDF-1.4 ticket"))})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})
}

func writeEnv(w http.ResponseWriter, code int, msg string, data any) {
	_ = json.NewEncoder(w).Encode(map[string]any{"code": code, "msg": msg, "data": data})
}

func fixedNow() time.Time { return time.Date(2026, 11, 1, 8, 0, 0, 0, time.UTC) }

func newAdapter(url string) *Adapter {
	return New(Config{BaseURL: url, Username: "agent", Password: "pw"}, providers.Deps{
		NoBreaker: true,
		Now:       fixedNow,
		Retry:     resilience.RetryConfig{InitialDelay: time.Millisecond},
	})
}

func searchReq() models.SearchRequest {
	return models.SearchRequest{Origin: "portblair", Destination: "havelock", TravelDate: "2026-11-02", Adults: 2, Children: 1, Infants: 1}
}

func TestSearchGroupsRowsBySchedule(t *testing.T) {
	f := &fakeServer{}
	srv := httptest.NewServer(f.handler(t))
	defer srv.Close()

	results, err := newAdapter(srv.URL).Search(context.Background(), searchReq())
	require.NoError(t, err)
	require.Len(t, results, 2)

	var sent searchData
	require.NoError(t, json.Unmarshal(f.lastBody["/schedule_search"], &sent))
	assert.Equal(t, searchData{TripType: "single_trip", FromLocation: "1", ToLocation: "2", TravelDate: "2026-11-02", NoOfPassenger: 3}, sent)

	gold := results[0]
	assert.Equal(t, "501", gold.TripID)
	assert.Equal(t, "501", gold.ProviderData.Refs.ScheduleID)
	assert.Equal(t, "Makruzz Gold", gold.VesselName)
	assert.True(t, gold.Features.AutoSeatAssignment)
	assert.False(t, gold.Features.SeatSelection)
	require.Len(t, gold.Classes, 2)
	assert.Equal(t, "1", gold.Classes[0].ID)
	assert.Equal(t, 1625.0, gold.Classes[0].Price)
	assert.Equal(t, 2675.0, gold.Classes[1].Price)
	assert.Equal(t, 1625.0, gold.Pricing.Total)
	assert.Equal(t, 130, gold.Availability.AvailableSeats)
	assert.Equal(t, 240, gold.Availability.TotalSeats)
	assert.Equal(t, "1h 30m", gold.Schedule.Duration)
	assert.Equal(t, "tok1", gold.ProviderData.SessionToken)

	assert.Equal(t, "14:00", results[1].Schedule.Departure)
	assert.Equal(t, 1, f.logins)
}

func TestSearchReusesToken(t *testing.T) {
	f := &fakeServer{}
	srv := httptest.NewServer(f.handler(t))
	defer srv.Close()
	a := newAdapter(srv.URL)

	_, err := a.Search(context.Background(), searchReq())
	require.NoError(t, err)
	_, err = a.Search(context.Background(), searchReq())
	require.NoError(t, err)
	assert.Equal(t, 1, f.logins)
	assert.Equal(t, 2, f.calls["/schedule_search"])
}

func TestSearchReauthenticatesOnceOnRejectedToken(t *testing.T) {
	f := &fakeServer{rejectOld: true}
	srv := httptest.NewServer(f.handler(t))
	defer srv.Close()

	results, err := newAdapter(srv.URL).Search(context.Background(), searchReq())
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, 2, f.logins)
	assert.Equal(t, 2, f.calls["/schedule_search"])
}

func TestLoginFailureIsAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnv(w, 400, "Invalid username or password", nil)
	}))
	defer srv.Close()

	a := newAdapter(srv.URL)
	_, err := a.Search(context.Background(), searchReq())
	assert.True(t, domain.IsAuth(err))
	assert.True(t, domain.IsAuth(a.Probe(context.Background())))
}

func TestNoSchedulesIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/login" {
			writeEnv(w, 200, "ok", map[string]string{"token": "t"})
			return
		}
		writeEnv(w, 404, "No schedule found", nil)
	}))
	defer srv.Close()

	results, err := newAdapter(srv.URL).Search(context.Background(), searchReq())
	require.NoError(t, err)
	assert.Empty(t, results)
}

func bookingInput(classID string) providers.BookingInput {
	return providers.BookingInput{
		Request: models.BookingRequest{Provider: "makruzz", TripID: "501", ClassID: classID, Origin: "portblair", Destination: "havelock", TravelDate: "2026-11-02", PaymentReference: "pay_77"},
		Trip:    models.UnifiedFerryResult{Provider: "makruzz", TripID: "501", ProviderData: models.ProviderData{Refs: models.TripRefs{ScheduleID: "501"}}},
		Class:   models.FerryClass{ID: classID, Name: "Premium"},
		Manifest: models.Manifest{
			Ticketed: []models.TicketedPassenger{
				{Passenger: models.Passenger{Name: "Ravi", Age: 35, Gender: "male", Nationality: "indian"}},
				{Passenger: models.Passenger{Name: "Emma", Age: 29, Gender: "female", Nationality: "foreigner", PassportNumber: "P123", PassportExpiry: "2030-01-01", Country: "UK"}},
			},
			Infants: []models.Passenger{{Name: "Kid", Age: 1, Gender: "female", Nationality: "indian"}},
			Contact: models.Contact{Name: "Ravi", Phone: "9000000001", Email: "ravi@example.com"},
		},
	}
}

func TestBookSavesConfirmsAndDownloads(t *testing.T) {
	f := &fakeServer{}
	srv := httptest.NewServer(f.handler(t))
	defer srv.Close()
	a := newAdapter(srv.URL)

	res, err := a.Book(context.Background(), bookingInput("1"))
	require.NoError(t, err)
	assert.Equal(t, "MKPNR9", res.PNR)
	assert.Equal(t, "7781", res.ProviderBookingID)
	require.Len(t, res.Tickets, 2)
	assert.Equal(t, "AUTO", res.Tickets[0].Seat)

	var saved saveData
	require.NoError(t, json.Unmarshal(f.lastBody["/savePassengers"], &saved))
	assert.Equal(t, 1, saved.ClassID)
	assert.Equal(t, 2, saved.NoOfPassenger)
	assert.Equal(t, "female", saved.Passenger["2"].Sex)
	assert.Equal(t, "foreigner", saved.Passenger["2"].Nationality)
	assert.Equal(t, "P123", saved.Passenger["2"].FPassport)
	assert.Equal(t, "", saved.Passenger["1"].FPassport)
	assert.Len(t, saved.Infant, 1)
	assert.Equal(t, "pay_77", saved.PaymentReference)

	doc, err := a.DownloadTicket(context.Background(), res)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 ticket", string(doc))
}

func TestBookRejectsNonNumericClass(t *testing.T) {
	f := &fakeServer{}
	srv := httptest.NewServer(f.handler(t))
	defer srv.Close()

	_, err := newAdapter(srv.URL).Book(context.Background(), bookingInput("premium"))
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Equal(t, 0, f.calls["/savePassengers"])
}

func TestBookRejectionSurfacesProviderMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/login" {
			writeEnv(w, 200, "ok", map[string]string{"token": "t"})
			return
		}
		writeEnv(w, 409, "Seats not available", nil)
	}))
	defer srv.Close()

	_, err := newAdapter(srv.URL).Book(context.Background(), bookingInput("1"))
	require.Error(t, err)
	assert.True(t, domain.IsProviderDomain(err))
	assert.Equal(t, "Seats not available", domain.ProviderMessage(err))
}
