package server

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"net/http"
)

// routes builds the /api/v1 router, bodies of POST, PUT and PATCH requests go through enforceJSON
func (h *handler) routes(maxBodyBytes int64) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(log(h.logger.Desugar()))
	r.Use(recoverer(h.logger))
	r.Use(middleware.GetHead)

	r.NotFound(h.notFound)
	r.MethodNotAllowed(h.methodNotAllowed)

	withJSON := enforceJSON(maxBodyBytes)

	r.Route("/api/v1/users", func(r chi.Router) {
		r.Get("/", h.listUsers)
		r.With(withJSON).Post("/", h.createUser)
		r.Options("/", h.allow)

		r.Route("/{uid}", func(r chi.Router) {
			r.Use(numericID("uid"))

			r.Get("/", h.getUser)
			r.With(withJSON).Put("/", h.replaceUser)
			r.With(withJSON).Patch("/", h.patchUser)
			r.Delete("/", h.deleteUser)
			r.Options("/", h.allow)

			r.Route("/messages", func(r chi.Router) {
				r.Get("/", h.listMessages)
				r.With(withJSON).Post("/", h.createMessage)
				r.Options("/", h.allow)

				r.Route("/{mid}", func(r chi.Router) {
					r.Use(numericID("mid"))

					r.Get("/", h.getMessage)
					r.With(withJSON).Put("/", h.updateMessage)
					r.With(withJSON).Patch("/", h.updateMessage)
					r.Delete("/", h.deleteMessage)
					r.Options("/", h.allow)
				})
			})
		})
	})

	return r
}
