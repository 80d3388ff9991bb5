package router

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/mrcorrales01-hub/my-aura-sub003/internal/handlers"
	"github.com/mrcorrales01-hub/my-aura-sub003/internal/middleware"
)

func NewRouter(deps *handlers.Deps) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(middleware.NewLoggerMiddleware(deps.Log).LoggerMiddleware)

	hh := handlers.NewHealthHandlers(deps)
	r.Get("/healthz", hh.Healthz)

	ch := handlers.NewCoachHandlers(deps)
	ush := handlers.NewUserHandlers(deps)
	auth := middleware.NewMiddleware(deps.Firebase)
	r.Route("/coach", func(r chi.Router) {
		r.Use(auth.FirebaseAuth)
		r.Mount("/", ch.CoachRoutes())
	})
	r.Route("/users", func(r chi.Router) {
		r.Use(auth.FirebaseAuth)
		r.Mount("/", ush.UserRoutes())
	})

	return r
}
