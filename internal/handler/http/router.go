package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vasiliy-maslov/restaurant-pos/internal/rpc"
)

// NewRouter mounts the procedure registry under basePath next to /health.
func NewRouter(registry *rpc.Registry, basePath string) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	if basePath == "" {
		basePath = "/api/rpc"
	}
	r.Route(basePath, NewRPCHandler(registry).RegisterRoutes)

	return r
}
