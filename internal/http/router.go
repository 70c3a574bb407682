package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/contactshub/contacts-api/internal/auth"
	"github.com/contactshub/contacts-api/internal/config"
	"github.com/contactshub/contacts-api/internal/contact"
	"github.com/contactshub/contacts-api/internal/httputil"
	"github.com/contactshub/contacts-api/internal/logging"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(
	cfg *config.Config,
	authHandler *auth.Handler,
	authMiddleware *auth.Middleware,
	contactHandler *contact.Handler,
	logger *logging.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300, // 5 minutes
		}))
	}

	r.Use(SecurityHeaders)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Compress(5))

	r.Get("/health", handleHealth)

	// Stored avatars are public by reference.
	avatarServer := http.StripPrefix(cfg.Storage.AvatarPublicPath+"/", http.FileServer(http.Dir(cfg.Storage.AvatarDir)))
	r.Get(cfg.Storage.AvatarPublicPath+"/*", avatarServer.ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Get("/verify/{token}", authHandler.VerifyEmail)
			r.Post("/verify", authHandler.ResendVerification)
			r.Post("/forgot-password", authHandler.ForgotPassword)
			r.Post("/reset-password", authHandler.ResetPassword)

			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.RequireAuth)
				r.Post("/logout", authHandler.Logout)
				r.Get("/current", authHandler.Current)
				r.Patch("/", authHandler.UpdateSubscription)
				r.Patch("/avatars", authHandler.UpdateAvatar)
			})
		})

		r.Route("/contacts", func(r chi.Router) {
			r.Use(authMiddleware.RequireAuth)
			r.Get("/", contactHandler.List)
			r.Post("/", contactHandler.Create)
			r.Get("/{id}", contactHandler.Get)
			r.Put("/{id}", contactHandler.Update)
			r.Delete("/{id}", contactHandler.Delete)
			r.Patch("/{id}/favorite", contactHandler.SetFavorite)
		})
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, map[string]string{"status": "api is running"}, http.StatusOK)
}
