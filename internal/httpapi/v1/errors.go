package v1

import (
	"errors"
	"net/http"

	"github.com/oysterfarm/books/internal/errs"
	"github.com/oysterfarm/books/internal/service/journal"
)

// errorResponse is the standard error payload for the API.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// validationErrorResponse carries every violation found in one submission.
type validationErrorResponse struct {
	Error      string                    `json:"error"`
	Violations []journal.ValidationError `json:"violations"`
}

func writeErr(w http.ResponseWriter, status int, msg, code string) {
	toJSON(w, status, errorResponse{Error: msg, Code: code})
}

func badRequest(w http.ResponseWriter, msg string) { writeErr(w, http.StatusBadRequest, msg, "") }

// writeDomainErr maps service errors onto HTTP statuses. Validation failures
// become a 422 carrying the full violation list.
func writeDomainErr(w http.ResponseWriter, err error) {
	var verrs journal.ValidationErrors
	if errors.As(err, &verrs) {
		toJSON(w, http.StatusUnprocessableEntity, validationErrorResponse{
			Error:      "validation_failed",
			Violations: verrs,
		})
		return
	}
	switch {
	case errors.Is(err, errs.ErrNotFound):
		writeErr(w, http.StatusNotFound, err.Error(), "not_found")
	case errors.Is(err, errs.ErrInvalid):
		writeErr(w, http.StatusBadRequest, err.Error(), "invalid")
	case errors.Is(err, errs.ErrPeriodClosed):
		writeErr(w, http.StatusConflict, err.Error(), "period_closed")
	case errors.Is(err, errs.ErrReferenced):
		writeErr(w, http.StatusConflict, err.Error(), "referenced")
	case errors.Is(err, errs.ErrConflict):
		writeErr(w, http.StatusConflict, err.Error(), "conflict")
	case errors.Is(err, errs.ErrUnprocessable):
		writeErr(w, http.StatusUnprocessableEntity, err.Error(), "unprocessable")
	default:
		writeErr(w, http.StatusInternalServerError, "internal error", "")
	}
}
