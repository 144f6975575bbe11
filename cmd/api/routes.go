package main

import (
	"context"
	"net/http"
	"time"

	"crateapi/internal/config"
	"crateapi/internal/httpx"
	"crateapi/internal/recommend"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type pinger interface {
	Ping(ctx context.Context) error
}

func newRouter(sec config.SecurityConfig, recommendations *recommend.HTTPHandler, store pinger) http.Handler {
	r := chi.NewRouter()

	r.Use(httpx.RequestIDMiddleware)
	r.Use(httpx.AccessLogMiddleware)
	r.Use(httpx.RecoveryMiddleware)
	r.Use(httpx.SecurityHeadersMiddleware(sec.EnableHSTS))
	r.Use(httpx.CORSMiddleware(sec.CORSOrigins))
	r.Use(httpx.RequestSizeLimitMiddleware(1 << 20))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			httpx.JSONErrorWithRequest(r, w, http.StatusServiceUnavailable, "NOT_READY", "corpus store not ready", nil)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(httpx.RateLimitMiddleware(sec.RateLimitReqs, sec.RateLimitWindow))
		r.Use(httpx.OptionalAuth(sec.JWTSecret))
		r.Get("/recommendations", recommendations.Recommend)
		r.Get("/modes", recommendations.Modes)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.JSONErrorWithRequest(r, w, http.StatusNotFound, "NOT_FOUND", "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.JSONErrorWithRequest(r, w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})
	return r
}
