package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"proai/internal/http/handlers"
	"proai/internal/middleware"
)

// NewRouter assembles the API surface. Catalog and auth endpoints are
// public; everything touching an account profile sits behind the JWT
// guard.
func NewRouter(app *handlers.App) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
		middleware.RateLimit(app.Config.RateLimitPerMin, time.Minute),
		middleware.CORS(app.Config.CORSOrigins),
	)

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/catalog", app.CatalogIndex)
	r.Get("/v1/billing/packs", app.Packs)

	r.Route("/v1/auth", func(r chi.Router) {
		r.Post("/signup", app.Signup)
		r.Post("/login", app.Login)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthJWT(app.Config.JWTSecret))

		r.Get("/v1/me", app.Me)
		r.Post("/v1/auth/logout", app.Logout)

		r.Route("/v1/prompts", func(r chi.Router) {
			r.Post("/generate", app.Generate)
			r.Post("/keywords", app.Keywords)
		})

		r.Post("/v1/billing/checkout", app.Checkout)

		r.Route("/v1/history", func(r chi.Router) {
			r.Get("/", app.HistoryList)
			r.Post("/{id}/favorite", app.HistoryFavorite)
		})
	})

	return r
}
