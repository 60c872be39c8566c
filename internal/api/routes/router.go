package routes

import (
	"net/http"

	"github.com/zatekoja/hospitalrouter/backend/internal/api/handlers"
	"github.com/zatekoja/hospitalrouter/backend/internal/api/middleware"
	"github.com/zatekoja/hospitalrouter/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	hospitalHandler *handlers.HospitalHandler
	routingHandler  *handlers.RoutingHandler

	cacheMiddleware *middleware.CacheMiddleware
	allowedOrigins  []string
	metrics         *observability.Metrics
}

// NewRouter creates a new router. cacheMiddleware and metrics may be nil.
func NewRouter(
	hospitalHandler *handlers.HospitalHandler,
	routingHandler *handlers.RoutingHandler,
	cacheMiddleware *middleware.CacheMiddleware,
	allowedOrigins []string,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:             http.NewServeMux(),
		hospitalHandler: hospitalHandler,
		routingHandler:  routingHandler,
		cacheMiddleware: cacheMiddleware,
		allowedOrigins:  allowedOrigins,
		metrics:         metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Registry endpoints
	r.mux.HandleFunc("GET /api/hospitals", r.hospitalHandler.ListHospitals)
	r.mux.HandleFunc("GET /api/hospitals/{id}/capacity", r.hospitalHandler.GetCapacity)

	// Routing endpoints
	r.mux.HandleFunc("POST /api/routing/select", r.routingHandler.Select)
	r.mux.HandleFunc("POST /api/routing/dispatch", r.routingHandler.Dispatch)

	// Last applied runs first. CORS is outermost so cached responses get headers too.
	var handler http.Handler = r.mux
	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	// Logging wraps the cache so cache hits are logged too.
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics, r.mux)(handler)
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
