package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/tempo/internal/api"
	apiMiddleware "github.com/phrazzld/tempo/internal/api/middleware"
)

// setupRouter creates the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))

	taskHandler := api.NewTaskHandler(app.tasks, app.logger)
	profileHandler := api.NewProfileHandler(app.profiles, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwt)

	r.Route("/api", func(r chi.Router) {
		// Public
		r.Get("/onboarding/questions", profileHandler.GetQuestions)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Post("/tasks", taskHandler.CreateTask)
			r.Get("/tasks", taskHandler.ListTasks)
			r.Get("/tasks/{id}", taskHandler.GetTask)
			r.Put("/tasks/{id}/complete", taskHandler.CompleteTask)
			r.Put("/tasks/{id}/missed", taskHandler.MarkMissed)
			r.Put("/tasks/{id}/reassign", taskHandler.ReassignTask)

			r.Get("/profile", profileHandler.GetProfile)
			r.Post("/onboarding", profileHandler.Onboard)
		})
	})

	r.Get("/health", api.HealthHandler(app.db, app.logger))

	return r
}
