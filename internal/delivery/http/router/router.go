package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/user/alt-audit-service/internal/delivery/http/handler"
	"github.com/user/alt-audit-service/internal/delivery/http/middleware"
)

type Options struct {
	RateLimitRPS   float64
	RateLimitBurst int
}

func New(h *handler.Handler, logger *zap.Logger, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Metrics)
	r.Use(chimw.Recoverer)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/api/health", h.HandleHealthCheck)

	limiter := middleware.NewRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst)
	r.Route("/api/scans", func(r chi.Router) {
		r.Use(limiter.Handler)
		r.Post("/", h.HandleSubmitScan)

		r.Route("/{id}", func(r chi.Router) {
			// The stream stays open for the whole scan, so only the
			// short requests get a timeout.
			r.Get("/stream", h.HandleStream)

			r.Group(func(r chi.Router) {
				r.Use(chimw.Timeout(60 * time.Second))
				r.Get("/", h.HandleGetScan)
				r.Get("/images", h.HandleListImages)
				r.Get("/export", h.HandleExportCSV)
				r.Post("/export/db", h.HandleExportDB)
			})
		})
	})

	return r
}
