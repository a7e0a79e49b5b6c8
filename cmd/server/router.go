package main

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/VictoriaMetrics/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/contacts-api/internal/api"
	apiMiddleware "github.com/phrazzld/contacts-api/internal/api/middleware"
	"github.com/phrazzld/contacts-api/internal/api/shared"
)

const welcomeMessage = "Welcome to Contacts API"

// setupRouter creates the chi router with middleware and every route.
func (app *application) setupRouter() http.Handler {
	handler := api.NewContactHandler(app.contactService, api.HandlerConfig{
		MaxListLimit:   app.config.Server.MaxListLimit,
		MaxUploadBytes: app.config.Avatar.MaxUploadBytes,
	}, app.logger)

	return newRouter(handler, app.metrics, app.logger)
}

func newRouter(handler *api.ContactHandler, set *metrics.Set, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.Trace(logger))
	r.Use(apiMiddleware.Metrics(set))
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithError(w, r, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithJSON(w, r, http.StatusOK, shared.MessageResponse{Message: welcomeMessage})
	})

	r.Route("/api/contacts", handler.Routes)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.Error("Failed to write health check response", "error", err)
		}
	})

	r.Get("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		writeMetrics(w, set)
	})

	return r
}

func writeMetrics(w io.Writer, set *metrics.Set) {
	set.WritePrometheus(w)
	metrics.WriteProcessMetrics(w)
}
