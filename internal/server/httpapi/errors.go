package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/eventportal/internal/common"
)

type messageResponse struct {
	Message string `json:"message"`
}

func renderJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}

var errorMessages = []struct {
	err     error
	status  int
	message string
}{
	{common.ErrMissingField, http.StatusBadRequest, "All fields are required"},
	{common.ErrInvalidEmail, http.StatusBadRequest, "Invalid email address"},
	{common.ErrWindowClosed, http.StatusForbidden, "Registrations are closed for today"},
	{common.ErrInvalidRollNumber, http.StatusBadRequest, "Roll number is not eligible for this event"},
	{common.ErrDuplicateEmail, http.StatusBadRequest, "Email already registered"},
	{common.ErrDuplicateRollNumber, http.StatusBadRequest, "Roll number already registered"},
	{common.ErrCapacityExceeded, http.StatusBadRequest, "System slots full. Please bring your own laptop."},
	{common.ErrNotApproved, http.StatusForbidden, "Wait for admin approval."},
	{common.ErrNoCredential, http.StatusForbidden, "Credentials have not been issued yet"},
	{common.ErrInvalidCredentials, http.StatusBadRequest, "Invalid credentials"},
	{common.ErrAlreadyApproved, http.StatusBadRequest, "User already approved"},
	{common.ErrMissingLink, http.StatusBadRequest, "GitHub link is required"},
	{common.ErrEmptyMessage, http.StatusBadRequest, "Message is required"},
	{common.ErrForbidden, http.StatusForbidden, "Access denied. Admin only."},
	{common.ErrorUnauthorized, http.StatusUnauthorized, "Unauthorized"},
	{common.ErrInvalidToken, http.StatusUnauthorized, "Invalid token"},
	{common.ErrTokenExpired, http.StatusUnauthorized, "Token expired"},
	{common.ErrorNotFound, http.StatusNotFound, "User not found"},
	{common.ErrStorageNotAvailable, http.StatusServiceUnavailable, "Export storage is not configured"},
}

// writeError maps a service error to a status code and a short message.
// Anything unrecognised is logged and reported as a bare 500.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range errorMessages {
		if errors.Is(err, m.err) {
			renderJSON(w, m.status, messageResponse{Message: m.message})
			return
		}
	}

	h.Logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	renderJSON(w, http.StatusInternalServerError, messageResponse{Message: "Server error"})
}
