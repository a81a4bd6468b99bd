package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/vocabweave-api/internal/api"
	apiMiddleware "github.com/phrazzld/vocabweave-api/internal/api/middleware"
	"github.com/phrazzld/vocabweave-api/internal/platform/tracing"
)

// setupRouter builds the chi router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(tracing.Middleware)
	r.Use(apiMiddleware.TraceMiddleware(app.logger))
	if app.config.Metrics.Enabled {
		r.Use(app.metrics.Middleware)
	}

	authHandler := api.NewAuthHandler(app.userService, app.jwtService, app.config.Auth, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)
	reviewHandler := api.NewReviewHandler(app.reviewService, app.logger)
	itemHandler := api.NewItemHandler(app.vocabularyService, app.logger)
	progressHandler := api.NewProgressHandler(app.progressService, app.logger)
	generationHandler := api.NewGenerationHandler(app.generationService, app.logger)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.RefreshToken)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Get("/reviews/next", reviewHandler.GetNextItem)
			r.Get("/reviews/due", reviewHandler.ListDue)

			r.Post("/items", itemHandler.CreateItems)
			r.Get("/items/{id}", itemHandler.GetItem)
			r.Post("/items/{id}/grade", reviewHandler.SubmitGrade)
			r.Get("/items/{id}/state", reviewHandler.GetItemState)

			r.Get("/lessons/{n}/progress", progressHandler.LessonProgress)
			r.Get("/progress", progressHandler.Dashboard)
			r.Get("/quests", progressHandler.Quests)

			r.Post("/generations", generationHandler.RequestGeneration)
			r.Get("/generations/{id}", generationHandler.GetGeneration)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	if app.config.Metrics.Enabled {
		r.Method(http.MethodGet, "/metrics", app.metrics.Handler())
	}

	return r
}
