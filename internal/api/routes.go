package api

import (
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ignite/waitlist-service/internal/pkg/httputil"
	"github.com/ignite/waitlist-service/internal/rate"
)

// SetupRoutes configures the router. limiter may be nil to disable
// throttling of the signup endpoint.
func SetupRoutes(h *Handlers, limiter *rate.Limiter) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://ignite.io", "http://localhost:5173", "http://localhost:3000"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.With(rateLimit(limiter)).Post("/signup", h.Signup)

		r.Get("/users", h.ListUsers)
		r.Delete("/users/{id}", h.DeleteUser)
		r.Delete("/users", h.DeleteAllUsers)
	})

	return r
}

// rateLimit throttles by client IP. RealIP runs earlier in the chain, so
// RemoteAddr already holds the forwarded address where one was supplied.
func rateLimit(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if limiter != nil && !limiter.Allow(req.Context(), clientIP(req)) {
				httputil.TooManyRequests(w, "too many signup attempts, try again shortly")
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

func clientIP(req *http.Request) string {
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return host
}
