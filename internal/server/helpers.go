package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"
)

// envelope wraps every JSON response body.
type envelope map[string]any

func (s *Server) writeJSON(w http.ResponseWriter, status int, data envelope, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

func (s *Server) readIDParam(r *http.Request) (string, error) {
	params := httprouter.ParamsFromContext(r.Context())
	id := strings.TrimSpace(params.ByName("id"))
	if id == "" {
		return "", errors.New("invalid id parameter")
	}
	return id, nil
}

// readBool returns the boolean query parameter key, or fallback when it is
// absent. Malformed values are recorded in errs.
func (s *Server) readBool(r *http.Request, key string, fallback bool, errs map[string]string) bool {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		errs[key] = "must be a boolean value"
		return fallback
	}
	return b
}
