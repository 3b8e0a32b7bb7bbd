package ginserver

import (
	"log/slog"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"haulshare/internal/app/commands"
	"haulshare/internal/app/dto"
	availabilityapp "haulshare/internal/app/handlers/availability"
	"haulshare/internal/app/queries"
)

type AvailabilityHTTP interface {
	UnavailableDates(c *gin.Context)
	CreateBlock(c *gin.Context)
	RemoveBlock(c *gin.Context)
}

type AvailabilityHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type createBlockRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Reason    string `json:"reason"`
}

// UnavailableDates serves the display calendar. It accepts from/to date
// bounds and defaults to a one year window starting today.
func (h AvailabilityHandler) UnavailableDates(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	from, to, err := parseDateRange(c.Query("from"), c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	q := availabilityapp.UnavailableDatesQuery{
		AssetID: c.Param("id"),
		From:    from,
		To:      to,
	}
	result, err := queries.Ask[availabilityapp.UnavailableDatesQuery, dto.UnavailableDates](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AvailabilityHandler) CreateBlock(c *gin.Context) {
	actor, ok := requireRole(c, "host")
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req createBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	cmd := availabilityapp.CreateBlockCommand{
		BlockID:   uuid.NewString(),
		AssetID:   c.Param("id"),
		ActorID:   actor.ID,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Reason:    req.Reason,
	}
	block, err := commands.Dispatch[availabilityapp.CreateBlockCommand, *dto.BlockDTO](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, block)
}

func (h AvailabilityHandler) RemoveBlock(c *gin.Context) {
	actor, ok := requireRole(c, "host")
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	cmd := availabilityapp.RemoveBlockCommand{
		BlockID: c.Param("blockID"),
		AssetID: c.Param("id"),
		ActorID: actor.ID,
	}
	if _, err := commands.Dispatch[availabilityapp.RemoveBlockCommand, *availabilityapp.RemoveBlockResult](c.Request.Context(), h.Commands, cmd); err != nil {
		respondDomainError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseDateRange(fromRaw, toRaw string) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)
	if fromRaw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", fromRaw, time.UTC)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		from = parsed
	}
	if toRaw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", toRaw, time.UTC)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to = parsed
	}
	return from, to, nil
}

var _ AvailabilityHTTP = AvailabilityHandler{}
