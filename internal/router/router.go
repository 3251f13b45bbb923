package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"hangout-backend/internal/handlers"
	"hangout-backend/internal/middleware"
	"hangout-backend/internal/storage"
	"hangout-backend/internal/websocket"
)

// Limits holds the rate limiters applied to route groups. A nil limiter
// leaves its group unthrottled.
type Limits struct {
	Auth *middleware.RateLimiter
	Chat *middleware.RateLimiter
}

func limit(rl *middleware.RateLimiter) func(http.Handler) http.Handler {
	if rl == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return rl.Middleware
}

// New builds the API. uploads serves locally stored profile images and may
// be nil when images live in S3.
func New(
	jwtAuth *middleware.JWTAuth,
	authHandler *handlers.AuthHandler,
	profileHandler *handlers.ProfileHandler,
	chatHandler *handlers.ChatHandler,
	placesHandler *handlers.PlacesHandler,
	wsHub *websocket.Hub,
	uploads http.Handler,
	limits Limits,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	if uploads != nil {
		r.Handle(storage.LocalPathPrefix+"*", uploads)
	}

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Auth Routes (public) ────
		r.Route("/auth", func(r chi.Router) {
			r.Use(limit(limits.Auth))
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
			r.Post("/forgot-password", authHandler.ForgotPassword)
			r.Post("/reset-password", authHandler.ResetPassword)

			// Logout requires auth
			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Post("/logout", authHandler.Logout)
			})
		})

		// ──── Profile Routes ────
		r.Route("/profile", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/", profileHandler.Get)
			r.Put("/", profileHandler.Update)
			r.Post("/image", profileHandler.UploadImage)
			r.Get("/preferences", profileHandler.GetPreferences)
			r.Patch("/preferences", profileHandler.UpdatePreferences)
		})

		// ──── Chat Routes ────
		// The limiter sits after auth so it keys by user.
		r.Route("/chat", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Use(limit(limits.Chat))
			r.Get("/messages", chatHandler.Messages)
			r.Post("/messages", chatHandler.Send)
			r.Delete("/messages", chatHandler.Clear)
			r.Post("/recommendations", chatHandler.Recommend)
		})

		// ──── Place Routes ────
		r.Route("/places", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/autocomplete", placesHandler.Autocomplete)
			r.Get("/geocode", placesHandler.Geocode)
			r.Get("/nearby", placesHandler.Nearby)
			r.Get("/weather", placesHandler.Weather)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
