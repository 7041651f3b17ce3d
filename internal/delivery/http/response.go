package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"matchchat/internal/models"

	"github.com/go-chi/chi/v5"
)

type errorResponse struct {
	Error   models.ErrorKind `json:"error"`
	Message string           `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func statusFor(err error) int {
	if errors.Is(err, models.ErrSessionNotFound) {
		return http.StatusNotFound
	}
	switch models.KindOf(err) {
	case models.KindDataUnavailable:
		return http.StatusNotFound
	case models.KindDataProvider, models.KindGeneration, models.KindSearch:
		return http.StatusBadGateway
	case models.KindConfiguration:
		return http.StatusServiceUnavailable
	case models.KindInvalidRequest:
		if errors.Is(err, models.ErrSessionChanged) {
			return http.StatusConflict
		}
		return http.StatusBadRequest
	case models.KindCanceled:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("%s %s: %v", r.Method, r.URL.Path, err)
	}
	msg := models.UserMessage(err)
	if msg == "" {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Error: models.KindOf(err), Message: msg})
}

func badRequest(format string, v ...any) error {
	return fmt.Errorf("%w: %s", models.ErrInvalidArgument, fmt.Sprintf(format, v...))
}

func intParam(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, badRequest("%s must be a positive integer, got %q", name, raw)
	}
	return v, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return badRequest("invalid JSON body: %v", err)
	}
	return nil
}
