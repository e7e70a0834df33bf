package handlers

import (
	"context"
	"net/http"

	"ferryhub/internal/booking"
	"ferryhub/internal/domain"
	"ferryhub/internal/domain/models"
	"ferryhub/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

type Searcher interface {
	SearchAll(ctx context.Context, req models.SearchRequest) (models.SearchResponse, error)
}

type HealthChecker interface {
	Check(ctx context.Context) []models.OperatorHealth
}

type BookingService interface {
	Book(ctx context.Context, req models.BookingRequest) (models.BookingResponse, error)
	SeatLayout(ctx context.Context, q booking.SeatLayoutQuery) (models.SeatLayout, error)
}

// Ferries serves the ferry search and booking endpoints.
type Ferries struct {
	Search  Searcher
	Health  HealthChecker
	Booking BookingService
}

// SearchFerries accepts the search as a JSON body (POST) or as query
// parameters (GET).
func (h Ferries) SearchFerries(c *gin.Context) {
	var req models.SearchRequest
	if c.Request.Method == http.MethodGet {
		if err := c.ShouldBindQuery(&req); err != nil {
			RespondError(c, http.StatusBadRequest, "invalid query", err)
			return
		}
	} else if !BindJSONOrError(c, &req) {
		return
	}
	resp, err := h.Search.SearchAll(c.Request.Context(), req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h Ferries) OperatorHealth(c *gin.Context) {
	report := h.Health.Check(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"operators": report})
}

// CreateBooking always answers with a BookingResponse. A failed booking
// carries its error code and the status of the underlying failure.
func (h Ferries) CreateBooking(c *gin.Context) {
	var req models.BookingRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	resp, err := h.Booking.Book(c.Request.Context(), req)
	if err != nil {
		c.JSON(StatusFor(err), gin.H{
			"success":          resp.Success,
			"bookingReference": resp.BookingReference,
			"error":            resp.Error,
			"request_id":       middleware.GetRequestID(c),
		})
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h Ferries) SeatLayout(c *gin.Context) {
	var q booking.SeatLayoutQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		RespondDomainError(c, domain.ValidationError{Msg: "provider, trip_id and class_id are required", Err: err})
		return
	}
	layout, err := h.Booking.SeatLayout(c.Request.Context(), q)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"provider":       q.Provider,
		"tripId":         q.TripID,
		"classId":        q.ClassID,
		"availableSeats": layout.Available(),
		"seatLayout":     layout,
	})
}
