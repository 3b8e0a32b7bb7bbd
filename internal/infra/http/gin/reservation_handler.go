package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"haulshare/internal/app/commands"
	"haulshare/internal/app/dto"
	bookingapp "haulshare/internal/app/handlers/booking"
	"haulshare/internal/app/queries"
)

type ReservationHTTP interface {
	Create(c *gin.Context)
	Get(c *gin.Context)
	Transition(c *gin.Context)
	ListMine(c *gin.Context)
}

type ReservationHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type createReservationRequest struct {
	AssetID    string `json:"asset_id"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	TotalCents int64  `json:"total_cents"`
	Currency   string `json:"currency"`
	Notes      string `json:"notes"`
}

type transitionRequest struct {
	Next string `json:"next"`
	Note string `json:"note"`
}

func (h ReservationHandler) Create(c *gin.Context) {
	actor, ok := requireRole(c, "")
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req createReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	cmd := bookingapp.RequestReservationCommand{
		CommandID:       uuid.NewString(),
		AssetID:         req.AssetID,
		RenterID:        actor.ID,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		TotalCents:      req.TotalCents,
		Currency:        req.Currency,
		Notes:           req.Notes,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[bookingapp.RequestReservationCommand, *bookingapp.RequestReservationResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h ReservationHandler) Get(c *gin.Context) {
	actor, ok := requireRole(c, "")
	if !ok {
		return
	}
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	q := bookingapp.GetReservationQuery{ReservationID: c.Param("id"), ActorID: actor.ID}
	detail, err := queries.Ask[bookingapp.GetReservationQuery, dto.ReservationDetail](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h ReservationHandler) Transition(c *gin.Context) {
	actor, ok := requireRole(c, "")
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	cmd := bookingapp.TransitionReservationCommand{
		ReservationID: c.Param("id"),
		ActorID:       actor.ID,
		Next:          req.Next,
		Note:          req.Note,
	}
	result, err := commands.Dispatch[bookingapp.TransitionReservationCommand, *bookingapp.TransitionReservationResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReservationHandler) ListMine(c *gin.Context) {
	actor, ok := requireRole(c, "")
	if !ok {
		return
	}
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	q := bookingapp.ListMyReservationsQuery{RenterID: actor.ID}
	collection, err := queries.Ask[bookingapp.ListMyReservationsQuery, dto.ReservationCollection](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, collection)
}

var _ ReservationHTTP = ReservationHandler{}
