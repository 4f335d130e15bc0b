package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"go.uber.org/zap"

	"fleetops/internal/domain"
)

// envelope is the response shape of every JSON endpoint.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

const maxJSONBody = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) ok(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data})
}

func (s *Server) created(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusCreated, envelope{Success: true, Data: data})
}

// fail logs err under op and writes the matching status.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error(op+" failed", zap.String("path", r.URL.Path), zap.Error(err))
	} else {
		s.log.Info(op+" rejected", zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	}
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeJSON(w, status, envelope{Success: false, Error: msg})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrAssistantUnavailable), errors.Is(err, domain.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: body: %v", domain.ErrInvalid, err)
	}
	return nil
}

// pathID binds the {id} path parameter the way generated handlers do.
func pathID(r *http.Request, name string) (string, error) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return "", fmt.Errorf("%w: invalid format for parameter %s: %v", domain.ErrInvalid, name, err)
	}
	return id, nil
}

// query binds an optional form-style query parameter into dst. dst keeps its
// value when the parameter is absent.
func query(r *http.Request, name string, dst any) error {
	q := r.URL.Query()
	if !q.Has(name) {
		return nil
	}
	if err := runtime.BindQueryParameter("form", true, true, name, q, dst); err != nil {
		return fmt.Errorf("%w: invalid format for parameter %s: %v", domain.ErrInvalid, name, err)
	}
	return nil
}
