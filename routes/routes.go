// Package routes wires the REST API onto a gin engine.
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sidhant-sriv/spots-api/db"
	"github.com/sidhant-sriv/spots-api/logging"
	"github.com/sidhant-sriv/spots-api/metrics"
	"github.com/sidhant-sriv/spots-api/middleware"
	"github.com/sidhant-sriv/spots-api/validation"
	"gorm.io/gorm"
)

// NewRouter builds the engine: ambient middleware, /health, /metrics and
// everything under /api.
func NewRouter(DB *gorm.DB, sessions *middleware.Sessions) *gin.Engine {
	validation.Setup()

	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.AccessLog(),
		middleware.Metrics(),
		middleware.Recovery(),
	)

	router.GET("/health", Health(DB))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.NoRoute(func(c *gin.Context) {
		respondError(c, http.StatusNotFound, "The requested resource couldn't be found.", nil)
	})

	api := router.Group("/api")
	api.Use(sessions.RestoreUser(DB))
	Register(api, DB, sessions)

	return router
}

// Register mounts every resource under api.
func Register(api *gin.RouterGroup, DB *gorm.DB, sessions *middleware.Sessions) {
	SessionRoutes(api, DB, sessions)
	UserRoutes(api, DB, sessions)
	SpotRoutes(api, DB)
	ReviewRoutes(api, DB)
	BookingRoutes(api, DB)
	ImageRoutes(api, DB)
}

// Health reports whether the database answers.
func Health(DB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(DB.WithContext(c.Request.Context())); err != nil {
			logging.Ctx(c.Request.Context()).Error().Err(err).Msg("Health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
