package server

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/alekhino/spacegate/internal/auth"
	"github.com/alekhino/spacegate/internal/notify"
	"github.com/alekhino/spacegate/internal/participation"
	"github.com/alekhino/spacegate/internal/space"
	"github.com/alekhino/spacegate/internal/user"
)

type RouterConfig struct {
	UserHandler          *user.Handler
	SpaceHandler         *space.Handler
	ParticipationHandler *participation.Handler
	NotifyHandler        *notify.Handler
	AuthService          *auth.Service
}

func NewRouter(config RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware block
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		// Auth routes (no middleware)
		r.Route("/auth", func(r chi.Router) {
			config.UserHandler.RegisterAuthRoutes(r)
		})

		// Protected routes
		r.Route("/users", func(r chi.Router) {
			r.Use(auth.Middleware(config.AuthService))

			config.UserHandler.RegisterUserRoutes(r)
		})

		r.Route("/spaces", func(r chi.Router) {
			r.Use(auth.Middleware(config.AuthService))

			config.SpaceHandler.RegisterRoutes(r)
			config.ParticipationHandler.RegisterRoutes(r)
			config.NotifyHandler.RegisterRoutes(r)
		})
	})

	return r
}
