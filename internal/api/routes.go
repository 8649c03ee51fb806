package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures all gateway routes. The session middleware
// guards the /api subtree; the external send endpoint authenticates
// through the token carried in its request body instead.
func SetupRoutes(h *Handlers, sessionAuth func(http.Handler) http.Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check (no auth required)
	r.Get("/health", h.HandleHealth)

	// Session-identity routes
	r.Route("/api", func(r chi.Router) {
		if sessionAuth != nil {
			r.Use(sessionAuth)
		}
		r.Post("/request_send_mail_access", h.HandleRequestAccess)
		r.Post("/send_mail", h.HandleSendMail)
		r.Get("/sendbox", h.HandleSendbox)
	})

	// Bearer-identity route: the signed token travels in the body.
	r.Post("/external/api/send_mail", h.HandleExternalSendMail)

	return r
}
