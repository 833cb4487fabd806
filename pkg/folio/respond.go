package folio

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/foliohq/folio/pkg/models"
	"github.com/foliohq/folio/pkg/store"
	"github.com/foliohq/folio/pkg/upload"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_, _ = w.Write(response)
	}
}

// respondError sends a standardized JSON error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondStoreError maps store and validation errors to HTTP status codes.
// Quota exhaustion becomes 503 with the stable error code so clients can
// offer a retry instead of a generic failure.
func respondStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrResourceExhausted):
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "the data store is over quota, try again later",
			"code":  store.CodeResourceExhausted,
		})
	case errors.Is(err, store.ErrReadOnly):
		respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, models.ErrMissingField), errors.Is(err, models.ErrInvalidValue),
		errors.Is(err, upload.ErrValidation):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}
