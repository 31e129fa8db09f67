package server

import (
	"expvar"
	"net/http"

	"github.com/julienschmidt/httprouter"
)

// Routes returns the API handler with its middleware chain.
func (s *Server) Routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(s.notFoundResponse)
	router.MethodNotAllowed = http.HandlerFunc(s.methodNotAllowedResponse)

	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", s.healthcheckHandler)
	router.HandlerFunc(http.MethodGet, "/v1/films", s.listFilmsHandler)
	router.HandlerFunc(http.MethodGet, "/v1/films/:id", s.showFilmHandler)
	router.HandlerFunc(http.MethodPost, "/v1/catalog/reload", s.reloadHandler)

	router.Handler(http.MethodGet, "/debug/vars", expvar.Handler())

	return s.metrics(s.recoverPanic(s.rateLimit(router)))
}
