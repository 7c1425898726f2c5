// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"kwenda/internal/http/handlers"
	"kwenda/internal/http/middleware"
	"kwenda/internal/infra"
	"kwenda/internal/logger"
	"kwenda/internal/metrics"
)

// RouterDeps carries the services the API delegates to.
type RouterDeps struct {
	Matching handlers.Dispatcher
	Location handlers.LocationUpdater
	WaitTime handlers.WaitTimeEstimator
	Breakers handlers.BreakerAdmin
	Verifier infra.TokenVerifier
	Gatherer prometheus.Gatherer
	City     string
	Log      logger.Logger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Log == nil {
		deps.Log = logger.Nop{}
	}
	r := gin.New()
	r.Use(middleware.Recovery(deps.Log), middleware.Logging(deps.Log))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler(deps.Gatherer)))

	api := r.Group("/api", middleware.Auth(deps.Verifier))

	dispatchHandler := handlers.NewDispatchHandler(deps.Matching)
	api.POST("/dispatch", middleware.RequireRole("dispatcher", "admin"), dispatchHandler.Dispatch)
	api.POST("/dispatch/rank", middleware.RequireRole("dispatcher", "admin"), dispatchHandler.Rank)
	api.GET("/eta", dispatchHandler.ETA)

	driverHandler := handlers.NewDriverHandler(deps.Matching)
	api.POST("/bookings/:booking/accept", middleware.RequireRole("driver"), driverHandler.Accept)

	locationHandler := handlers.NewLocationHandler(deps.Location)
	api.PUT("/drivers/:id/location", locationHandler.Update)

	waitHandler := handlers.NewWaitTimeHandler(deps.WaitTime, deps.City)
	api.GET("/wait-time", waitHandler.Get)

	breakerHandler := handlers.NewBreakerHandler(deps.Breakers)
	api.GET("/ops/breakers", breakerHandler.List)
	api.POST("/ops/breakers/:name/reset", middleware.RequireRole("admin"), breakerHandler.Reset)

	return r
}
