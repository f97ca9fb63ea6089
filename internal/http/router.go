package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NewRouter wires the chat workflow routes with the standard middleware
// stack and OpenTelemetry request instrumentation.
func NewRouter(handler *ChatHandler, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(MockAuthMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1/chat/{conversation_id}", func(r chi.Router) {
		r.Post("/actions", handler.DispatchAction)
		r.Route("/order", func(r chi.Router) {
			r.Get("/", handler.GetWorkflow)
			r.Post("/start", handler.StartOrder)
			r.Post("/items", handler.AddItem)
			r.Put("/shipping", handler.UpdateShipping)
		})
	})

	return otelhttp.NewHandler(r, "orderflow")
}
