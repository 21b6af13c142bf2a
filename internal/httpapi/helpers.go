package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"cippe-prep/internal/catalog"
	"cippe-prep/internal/exam"
	"cippe-prep/internal/session"
)

// writeActionError translates the controller's sentinel errors into HTTP
// statuses. The controller never surfaces persistence failures, so there is
// no 500 branch here.
func (a *API) writeActionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrWrongMode),
		errors.Is(err, exam.ErrAlreadySubmitted),
		errors.Is(err, exam.ErrInsufficientData):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, exam.ErrUnknownQuestion):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
}

// decodeBody reads a JSON request body into dst. On failure it writes the
// 400 response itself and returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return false
	}
	return true
}

func questionIDParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "question_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "question_id must be an integer"})
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}
