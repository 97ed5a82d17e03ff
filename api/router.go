package api

import (
	"context"
	"net/http"
	"time"

	"github.com/Domenick1991/airbooking-core/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Handlers struct {
	Flights  *FlightHandler
	Holds    *HoldHandler
	Bookings *BookingHandler
	Payments *PaymentHandler
}

type RouterConfig struct {
	JWTSecret    string
	Logger       observability.Logger
	HealthChecks map[string]HealthCheck
}

func NewRouter(h Handlers, cfg RouterConfig) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = observability.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(MetricsMiddleware())
	r.Use(LoggerMiddleware(cfg.Logger))

	r.GET("/healthz", healthz(cfg.HealthChecks))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	public := r.Group("/api/v1")
	protected := public.Group("", AuthMiddleware(cfg.JWTSecret))

	if h.Flights != nil {
		h.Flights.Register(public, protected)
	}
	if h.Holds != nil {
		h.Holds.Register(protected)
	}
	if h.Bookings != nil {
		h.Bookings.Register(protected)
	}
	if h.Payments != nil {
		h.Payments.Register(public, protected)
	}
	return r
}

func healthz(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		failed := gin.H{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				failed[name] = err.Error()
			}
		}
		if len(failed) > 0 {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "failed": failed})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
