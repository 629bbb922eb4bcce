package httpapi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"staffquote/internal/domain"
	"staffquote/internal/service"
)

func (a *API) methodNotAllowed(w http.ResponseWriter) {
	a.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func (a *API) notFound(w http.ResponseWriter) {
	a.writeError(w, http.StatusNotFound, "not found")
}

// decodeJSON reads the whole body first so a size-limit failure surfaces as
// *http.MaxBytesError rather than a truncated-JSON syntax error.
func decodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	body, err := readBody(w, r)
	if err != nil {
		return err
	}
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	return io.ReadAll(r.Body)
}

func (a *API) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		a.log.Error().Err(err).Int("status", status).Str("body_type", fmt.Sprintf("%T", body)).Msg("write json failed")
	}
}

func (a *API) writeError(w http.ResponseWriter, status int, message string) {
	a.writeJSON(w, status, map[string]string{"error": message})
}

func isBodyTooLarge(err error) bool {
	var maxBytesErr *http.MaxBytesError
	return errors.As(err, &maxBytesErr)
}

func (a *API) writeDecodeError(w http.ResponseWriter, err error) {
	if isBodyTooLarge(err) {
		a.writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body too large (max %d bytes)", maxJSONBodyBytes))
		return
	}
	a.writeError(w, http.StatusBadRequest, "invalid JSON")
}

// detail strips the trailing sentinel text from a wrapped service error.
func detail(err error, sentinel error, fallback string) string {
	detailed := strings.TrimSpace(err.Error())
	detailed = strings.TrimSuffix(detailed, ": "+sentinel.Error())
	if detailed == "" || detailed == sentinel.Error() {
		return fallback
	}
	return detailed
}

func (a *API) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case service.IsValidationError(err):
		a.writeError(w, http.StatusBadRequest, detail(err, domain.ErrValidation, "validation failed"))
	case service.IsNotFoundError(err):
		a.writeError(w, http.StatusNotFound, "not found")
	case service.IsConflictError(err):
		a.writeError(w, http.StatusConflict, detail(err, domain.ErrConflict, "conflict"))
	default:
		a.log.Error().Err(err).Msg("request failed")
		a.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// queryInt reads an optional integer query parameter.
func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, domain.ErrValidation)
	}
	return value, nil
}

func queryFloat(r *http.Request, key string, fallback float64) (float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, domain.ErrValidation)
	}
	return value, nil
}

func (a *API) healthz(w http.ResponseWriter, _ *http.Request) {
	a.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
