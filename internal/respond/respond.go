// Package respond writes JSON responses and maps service errors to HTTP
// status codes.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	appErrors "github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/errors"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/logger"
)

// JSON writes data with the given status. A nil data writes headers only.
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// Err maps err to a status code. Unknown errors are logged and reported as a
// generic 500.
func Err(w http.ResponseWriter, r *http.Request, log zerolog.Logger, err error) {
	var (
		notFound   *appErrors.ErrNotFound
		validation *appErrors.ErrValidation
		conflict   *appErrors.ErrConflict
	)
	switch {
	case errors.As(err, &notFound):
		Error(w, http.StatusNotFound, notFound.Error())
	case errors.As(err, &validation):
		JSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":   "validation_failed",
			"details": validation.Fields,
		})
	case errors.As(err, &conflict):
		Error(w, http.StatusConflict, conflict.Error())
	case errors.Is(err, appErrors.ErrForbidden):
		Error(w, http.StatusForbidden, "you do not have permission to perform this action")
	case errors.Is(err, appErrors.ErrInvalidCredentials):
		Error(w, http.StatusUnauthorized, err.Error())
	default:
		reqLog := logger.Ctx(r.Context(), log)
		reqLog.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		Error(w, http.StatusInternalServerError, "internal server error")
	}
}

// Decode reads a JSON body into v, rejecting unknown fields.
func Decode(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// URLID parses the {id} route parameter.
func URLID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
