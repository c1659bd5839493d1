package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	apperrors "parkinglot/internal/errors"
	"parkinglot/internal/timerange"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// respondError writes err with the status FromError assigns to it. Anything
// that is not a client error is logged.
func respondError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	httpErr := apperrors.FromError(err)
	if httpErr.Code >= http.StatusInternalServerError {
		logger.Error().Err(err).Int("status", httpErr.Code).Msg("request failed")
	}
	respondJSON(w, httpErr.Code, ErrorResponse{Error: httpErr.Message})
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperrors.ErrBadRequest("invalid request body")
	}
	return nil
}

// periodFromQuery reads the checkin and checkout query parameters as RFC 3339
// timestamps. ok is false when neither is present.
func periodFromQuery(r *http.Request) (period timerange.Range, ok bool, err error) {
	q := r.URL.Query()
	rawIn, rawOut := q.Get("checkin"), q.Get("checkout")
	if rawIn == "" && rawOut == "" {
		return timerange.Range{}, false, nil
	}
	if rawIn == "" {
		return timerange.Range{}, false, apperrors.MissingFieldError("checkin")
	}
	if rawOut == "" {
		return timerange.Range{}, false, apperrors.MissingFieldError("checkout")
	}

	checkin, err := time.Parse(time.RFC3339, rawIn)
	if err != nil {
		return timerange.Range{}, false, &apperrors.ValidationError{Field: "checkin", Message: "must be an RFC 3339 timestamp"}
	}
	checkout, err := time.Parse(time.RFC3339, rawOut)
	if err != nil {
		return timerange.Range{}, false, &apperrors.ValidationError{Field: "checkout", Message: "must be an RFC 3339 timestamp"}
	}

	period, err = timerange.New(checkin, checkout)
	if err != nil {
		return timerange.Range{}, false, err
	}
	return period, true, nil
}
