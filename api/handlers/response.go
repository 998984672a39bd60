package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/linesmerrill/marketplace-api/api"
	"github.com/linesmerrill/marketplace-api/config"
	"github.com/linesmerrill/marketplace-api/models"
	"go.uber.org/zap"
)

// maxBodyBytes caps JSON request bodies
const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(models.Response{Data: data, Message: message, Status: status}); err != nil {
		zap.S().Errorw("failed to encode response", "error", err)
	}
}

// statusFor maps the shared error kinds onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrTooManyAttempts):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes err with its mapped status. Unmapped errors are reported as
// fallback so store details never reach the client.
func writeError(w http.ResponseWriter, err error, fallback string) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = fallback
	}
	config.ErrorStatus(message, status, w, err)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return false
	}
	return true
}

// requireActor returns the caller set by the auth middleware
func requireActor(w http.ResponseWriter, r *http.Request) (models.Actor, bool) {
	actor, ok := api.ActorFromContext(r.Context())
	if !ok || actor.ID == "" {
		config.ErrorStatus("unauthorized", http.StatusUnauthorized, w, errors.New("no authenticated caller"))
		return models.Actor{}, false
	}
	return actor, true
}

// pageParams reads page and size query values, 1-based
func pageParams(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	return page, size
}

// sortParam splits sort=field,dir
func sortParam(r *http.Request) (string, string) {
	parts := strings.SplitN(r.URL.Query().Get("sort"), ",", 2)
	field := strings.TrimSpace(parts[0])
	dir := "desc"
	if len(parts) == 2 {
		dir = strings.ToLower(strings.TrimSpace(parts[1]))
	}
	return field, dir
}
