package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"homestay/internal/infra/config"
	"homestay/internal/infra/obs"
)

type BookingHTTP interface {
	Create(c *gin.Context)
	Transition(c *gin.Context)
	Delete(c *gin.Context)
	ListMine(c *gin.Context)
	ListForListing(c *gin.Context)
}

type AvailabilityHTTP interface {
	Availability(c *gin.Context)
	Calendar(c *gin.Context)
	BlockDates(c *gin.Context)
	UnblockDates(c *gin.Context)
}

type PricingHTTP interface {
	Quote(c *gin.Context)
}

type WebhookHTTP interface {
	Stripe(c *gin.Context)
}

type Handlers struct {
	Booking        BookingHTTP
	Availability   AvailabilityHTTP
	Pricing        PricingHTTP
	Webhook        WebhookHTTP
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
	if h.Booking != nil {
		api.POST("/bookings", h.Booking.Create)
		api.POST("/bookings/:id/status", h.Booking.Transition)
		api.DELETE("/bookings/:id", h.Booking.Delete)
		api.GET("/me/bookings", h.Booking.ListMine)
		api.GET("/host/listings/:id/bookings", h.Booking.ListForListing)
	}
	if h.Availability != nil {
		api.GET("/listings/:id/availability", h.Availability.Availability)
		api.GET("/listings/:id/calendar", h.Availability.Calendar)
		api.PUT("/host/listings/:id/blocked-dates", h.Availability.BlockDates)
		api.DELETE("/host/listings/:id/blocked-dates", h.Availability.UnblockDates)
	}
	if h.Pricing != nil {
		api.GET("/pricing/quote", h.Pricing.Quote)
	}
	if h.Webhook != nil {
		api.POST("/webhooks/stripe", h.Webhook.Stripe)
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
