package server

import (
	"fmt"
	"net/http"

	"github.com/filmdb/filmdb/internal/logger"
)

func (s *Server) logError(r *http.Request, err error) {
	logger.Error("request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err.Error(),
	)
}

func (s *Server) errorResponse(w http.ResponseWriter, r *http.Request, status int, message any) {
	if err := s.writeJSON(w, status, envelope{"error": message}, nil); err != nil {
		s.logError(r, err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (s *Server) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	s.logError(r, err)
	message := "the server encountered a problem and could not process your request"
	s.errorResponse(w, r, http.StatusInternalServerError, message)
}

func (s *Server) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	message := "the requested resource could not be found"
	s.errorResponse(w, r, http.StatusNotFound, message)
}

func (s *Server) methodNotAllowedResponse(w http.ResponseWriter, r *http.Request) {
	message := fmt.Sprintf("the %s method is not supported for this resource", r.Method)
	s.errorResponse(w, r, http.StatusMethodNotAllowed, message)
}

func (s *Server) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	s.errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func (s *Server) failedValidationResponse(w http.ResponseWriter, r *http.Request, errs map[string]string) {
	s.errorResponse(w, r, http.StatusUnprocessableEntity, errs)
}

func (s *Server) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request) {
	message := "rate limit exceeded"
	s.errorResponse(w, r, http.StatusTooManyRequests, message)
}

func (s *Server) sourceUnavailableResponse(w http.ResponseWriter, r *http.Request, err error) {
	s.logError(r, err)
	message := "the catalog source could not be loaded"
	s.errorResponse(w, r, http.StatusServiceUnavailable, message)
}
