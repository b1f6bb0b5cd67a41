package controller

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"negotiation-backend/model"
)

const (
	codeValidation = "validation_error"
	codeNotFound   = "not_found"
	codeConflict   = "conflict"
	codeInternal   = "internal_error"
)

// errorResponse keeps the turn response shape so callers can always render a message.
type errorResponse struct {
	Message  string `json:"message"`
	Accepted bool   `json:"accepted"`
	Error    string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.WithError(err).Error("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classifyError(err)
	entry := log.WithFields(log.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
		"status": status,
	}).WithError(err)
	if status >= http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Info("request rejected")
	}
	respondJSON(w, status, body)
}

func classifyError(err error) (int, errorResponse) {
	switch {
	case errors.Is(err, model.ErrValidation), errors.Is(err, model.ErrInvalidTerms):
		return http.StatusBadRequest, errorResponse{Message: err.Error(), Error: codeValidation}
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, errorResponse{
			Message: "We couldn't find that product or negotiation. Please check the id and try again.",
			Error:   codeNotFound,
		}
	case errors.Is(err, model.ErrConflict):
		return http.StatusConflict, errorResponse{
			Message: "Your last message crossed with another one. Please send it again.",
			Error:   codeConflict,
		}
	}
	return http.StatusInternalServerError, errorResponse{
		Message: "Sorry, I'm having trouble processing your request right now. Please try again.",
		Error:   codeInternal,
	}
}

func amount(d decimal.NullDecimal) *float64 {
	if !d.Valid {
		return nil
	}
	f := d.Decimal.Round(2).InexactFloat64()
	return &f
}
