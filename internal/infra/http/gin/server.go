package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"haulshare/internal/infra/config"
	"haulshare/internal/infra/obs"
)

type Handlers struct {
	Reservation    ReservationHTTP
	Sale           SaleHTTP
	Availability   AvailabilityHTTP
	Auth           AuthHTTP
	AuthMiddleware gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Auth != nil {
		api.POST("/auth/register", h.Auth.Register)
		api.POST("/auth/login", h.Auth.Login)
		api.POST("/auth/logout", h.Auth.Logout)
		api.GET("/auth/me", h.Auth.Me)
	}
	if h.Reservation != nil {
		api.POST("/reservations", h.Reservation.Create)
		api.GET("/reservations/:id", h.Reservation.Get)
		api.POST("/reservations/:id/transition", h.Reservation.Transition)
		api.GET("/me/reservations", h.Reservation.ListMine)
	}
	if h.Sale != nil {
		api.POST("/sales", h.Sale.PlaceOffer)
		api.GET("/sales/:id", h.Sale.Get)
		api.POST("/sales/:id/transition", h.Sale.Transition)
	}
	if h.Availability != nil {
		api.GET("/assets/:id/unavailable-dates", h.Availability.UnavailableDates)
		api.POST("/assets/:id/blocks", h.Availability.CreateBlock)
		api.DELETE("/assets/:id/blocks/:blockID", h.Availability.RemoveBlock)
	}

	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
