package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"haulshare/internal/app/commands"
	"haulshare/internal/app/dto"
	saleapp "haulshare/internal/app/handlers/sale"
	"haulshare/internal/app/queries"
)

type SaleHTTP interface {
	PlaceOffer(c *gin.Context)
	Get(c *gin.Context)
	Transition(c *gin.Context)
}

type SaleHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type placeOfferRequest struct {
	AssetID     string `json:"asset_id"`
	SellerID    string `json:"seller_id"`
	AskingCents int64  `json:"asking_cents"`
	OfferCents  int64  `json:"offer_cents"`
	Currency    string `json:"currency"`
}

func (h SaleHandler) PlaceOffer(c *gin.Context) {
	actor, ok := requireRole(c, "")
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req placeOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	cmd := saleapp.PlaceOfferCommand{
		CommandID:       uuid.NewString(),
		AssetID:         req.AssetID,
		BuyerID:         actor.ID,
		SellerID:        req.SellerID,
		AskingCents:     req.AskingCents,
		OfferCents:      req.OfferCents,
		Currency:        req.Currency,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[saleapp.PlaceOfferCommand, *saleapp.PlaceOfferResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h SaleHandler) Get(c *gin.Context) {
	actor, ok := requireRole(c, "")
	if !ok {
		return
	}
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	q := saleapp.GetSaleQuery{SaleID: c.Param("id"), ActorID: actor.ID}
	detail, err := queries.Ask[saleapp.GetSaleQuery, dto.SaleDetail](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h SaleHandler) Transition(c *gin.Context) {
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
	cmd := saleapp.TransitionSaleCommand{
		SaleID:  c.Param("id"),
		ActorID: actor.ID,
		Next:    req.Next,
		Note:    req.Note,
	}
	result, err := commands.Dispatch[saleapp.TransitionSaleCommand, *saleapp.TransitionSaleResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ SaleHTTP = SaleHandler{}
