package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/filmdb/filmdb/internal/errhandling"
	"github.com/filmdb/filmdb/internal/query"
	"github.com/filmdb/filmdb/internal/render"
)

func (s *Server) healthcheckHandler(w http.ResponseWriter, r *http.Request) {
	env := envelope{
		"status": "available",
		"system_info": map[string]string{
			"environment": s.cfg.Env,
			"version":     s.cfg.Version,
		},
		"catalog": map[string]int{
			"films": s.store.Len(),
		},
	}

	if err := s.writeJSON(w, http.StatusOK, env, nil); err != nil {
		s.serverErrorResponse(w, r, err)
	}
}

func (s *Server) showFilmHandler(w http.ResponseWriter, r *http.Request) {
	id, err := s.readIDParam(r)
	if err != nil {
		s.notFoundResponse(w, r)
		return
	}

	f, ok := s.engine.ByID(id)
	if !ok {
		s.errorResponse(w, r, http.StatusNotFound, render.NotFoundMessage(id))
		return
	}

	if err := s.writeJSON(w, http.StatusOK, envelope{"film": f}, nil); err != nil {
		s.serverErrorResponse(w, r, err)
	}
}

// listFilmsHandler returns the films matching every supplied filter.
// Without filters it returns the whole catalog in insertion order.
func (s *Server) listFilmsHandler(w http.ResponseWriter, r *http.Request) {
	c, errs := readCriteria(r)
	if len(errs) > 0 {
		s.failedValidationResponse(w, r, errs)
		return
	}

	films, err := s.engine.Match(c)
	if err != nil {
		var exprErr *query.ExpressionError
		if errors.As(err, &exprErr) {
			s.failedValidationResponse(w, r, map[string]string{"where": exprErr.Message})
			return
		}
		s.serverErrorResponse(w, r, err)
		return
	}

	env := envelope{
		"films": films,
		"metadata": map[string]any{
			"total":    len(films),
			"criteria": c.String(),
		},
	}
	if err := s.writeJSON(w, http.StatusOK, env, nil); err != nil {
		s.serverErrorResponse(w, r, err)
	}
}

// readCriteria reads director, genre, decade, rating and where from the
// query string.
func readCriteria(r *http.Request) (query.Criteria, map[string]string) {
	qs := r.URL.Query()
	errs := make(map[string]string)

	c := query.Criteria{
		Director: strings.TrimSpace(qs.Get("director")),
		Genre:    strings.TrimSpace(qs.Get("genre")),
		Where:    qs.Get("where"),
	}

	if v := qs.Get("decade"); v != "" {
		decade, err := query.ParseDecade(v)
		if err != nil {
			errs["decade"] = err.Error()
		} else {
			c.Decade, c.HasDecade = decade, true
		}
	}

	if v := qs.Get("rating"); v != "" {
		lo, hi, err := query.ParseRatingRange(v)
		if err != nil {
			errs["rating"] = err.Error()
		} else {
			c.MinRating, c.MaxRating, c.HasRating = lo, hi, true
		}
	}

	return c, errs
}

func (s *Server) reloadHandler(w http.ResponseWriter, r *http.Request) {
	errs := make(map[string]string)
	replace := s.readBool(r, "replace", false, errs)
	if len(errs) > 0 {
		s.failedValidationResponse(w, r, errs)
		return
	}

	res, err := s.Reload(r.Context(), replace)
	if err != nil {
		switch errhandling.GetErrorCategory(err) {
		case errhandling.CategoryValidation:
			s.badRequestResponse(w, r, err)
		default:
			s.sourceUnavailableResponse(w, r, err)
		}
		return
	}

	env := envelope{
		"reload": map[string]any{
			"replace":      replace,
			"rows":         res.Rows,
			"inserted":     res.Inserted,
			"replaced":     res.Replaced,
			"skipped":      res.Skipped,
			"catalog_size": s.store.Len(),
			"duration_ms":  res.Duration.Milliseconds(),
		},
	}
	if err := s.writeJSON(w, http.StatusOK, env, nil); err != nil {
		s.serverErrorResponse(w, r, err)
	}
}
