package server

import "github.com/go-chi/chi/v5"

func (s *Server) setupRoutes() {
	r := s.router

	r.Get("/health", s.health)

	r.Route("/config/{name}", func(r chi.Router) {
		r.Get("/", s.getConfig)
		r.Get("/value", s.getValue)
		r.Put("/override", s.setOverride)
		r.Delete("/override", s.removeOverride)
		r.Put("/patch", s.replacePatch)
		r.Post("/discard", s.discard)
		r.Post("/refresh", s.refresh)
		r.Post("/save", s.save)
		r.Post("/apply", s.apply)
		r.Get("/preview", s.preview)
		r.Get("/diff", s.diff)
		r.Get("/query", s.query)
		r.Get("/trace", s.trace)
		r.Get("/fields", s.fields)
		r.Get("/check", s.check)
	})

	r.Post("/deploy", s.deploy)
	r.Get("/schemas", s.listSchemas)

	r.Route("/phrases", func(r chi.Router) {
		r.Get("/", s.getPhrases)
		r.Put("/", s.putPhrases)
	})
}
