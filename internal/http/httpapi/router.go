package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"stylizer/internal/http/handlers"
	"stylizer/internal/middleware"
)

// NewRouter wires the HTTP surface. Middleware order matters: request ids
// first so the logger can tag every line, rate limiting last so rejected
// requests are still logged.
func NewRouter(app *handlers.App) http.Handler {
	r := chi.NewRouter()

	r.Use(
		chimiddleware.RealIP,
		chimiddleware.Recoverer,
		middleware.RequestID,
		middleware.Logger(app.Logger),
		middleware.CORS([]string{app.Config.FrontendURL}),
		middleware.RateLimit(app.Config.RateLimitPerMin, time.Minute),
	)

	r.Get("/healthz", app.Health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/generate", app.Generate)
		r.Get("/checkout", app.CheckoutSession)
		r.Get("/confirm", app.ConfirmPayment)
		r.Post("/stripe-webhook", app.StripeWebhook)
	})

	return r
}
