// Package server runs the API's HTTP listener as a supervised service.
package server

import (
	"net/http"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/sidhant-sriv/spots-api/config"
)

// New returns an http.Server for handler wrapped in CORS and per-IP rate
// limiting.
func New(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      Wrap(cfg.Security, handler),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}

// Wrap applies the net/http middleware that sits in front of the gin engine.
// CORS is outermost so rejected requests still carry CORS headers.
func Wrap(cfg config.SecurityConfig, handler http.Handler) http.Handler {
	if !cfg.RateLimitDisabled && cfg.RateLimitRequests > 0 {
		handler = httprate.LimitByIP(cfg.RateLimitRequests, cfg.RateLimitWindow)(handler)
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	})(handler)
}
