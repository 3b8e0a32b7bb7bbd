package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	availabilityapp "haulshare/internal/app/handlers/availability"
	bookingapp "haulshare/internal/app/handlers/booking"
	saleapp "haulshare/internal/app/handlers/sale"
	"haulshare/internal/domain/asset"
	domainavailability "haulshare/internal/domain/availability"
	"haulshare/internal/domain/lifecycle"
	domainreservation "haulshare/internal/domain/reservation"
	domainsale "haulshare/internal/domain/sale"
	domainschedule "haulshare/internal/domain/schedule"
)

// respondDomainError translates the engine's error taxonomy into HTTP
// statuses. Validation problems are 400, conflicts and stale writes 409,
// refused transitions 409, participant checks 403, data corruption 500.
func respondDomainError(c *gin.Context, log *slog.Logger, err error) {
	var validation *domainschedule.ValidationError
	if errors.As(err, &validation) {
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Error(), "field": validation.Field})
		return
	}
	var conflict *domainavailability.ConflictError
	if errors.As(err, &conflict) {
		c.JSON(http.StatusConflict, gin.H{
			"error":       conflict.Error(),
			"kind":        string(conflict.Kind),
			"blocking_id": conflict.BlockingID,
		})
		return
	}
	var transition *lifecycle.InvalidTransitionError
	if errors.As(err, &transition) {
		allowed := make([]string, 0, len(transition.Allowed))
		for _, s := range transition.Allowed {
			allowed = append(allowed, string(s))
		}
		c.JSON(http.StatusConflict, gin.H{
			"error":     transition.Error(),
			"current":   string(transition.Current),
			"attempted": string(transition.Attempted),
			"allowed":   allowed,
		})
		return
	}
	var integrity *lifecycle.IntegrityError
	if errors.As(err, &integrity) {
		if log != nil {
			log.Error("lifecycle integrity violation", "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	switch {
	case errors.Is(err, domainreservation.ErrNotFound),
		errors.Is(err, domainsale.ErrNotFound),
		errors.Is(err, domainavailability.ErrBlockNotFound),
		errors.Is(err, asset.ErrConfigNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, domainreservation.ErrConcurrentUpdate),
		errors.Is(err, domainsale.ErrConcurrentUpdate):
		c.JSON(http.StatusConflict, gin.H{"error": "stale write, retry with fresh state"})
	case errors.Is(err, bookingapp.ErrNotParticipant),
		errors.Is(err, saleapp.ErrNotParticipant):
		c.JSON(http.StatusForbidden, gin.H{"error": "not a participant"})
	case errors.Is(err, availabilityapp.ErrNotHost):
		c.JSON(http.StatusForbidden, gin.H{"error": "only the asset host may do this"})
	case errors.Is(err, domainreservation.ErrSameParty),
		errors.Is(err, domainreservation.ErrCancelledNeedsReason),
		errors.Is(err, domainsale.ErrSameParty),
		errors.Is(err, domainsale.ErrInvalidOffer):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		if log != nil {
			log.Error("request failed", "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
