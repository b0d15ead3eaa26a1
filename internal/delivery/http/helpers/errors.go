package helpers

import (
	"errors"
	"log/slog"
	"net/http"

	"groupsched/internal/domain"
)

// WriteServiceError maps service-layer sentinel errors onto HTTP status codes
// and writes the standard error envelope. Unrecognized errors are logged and
// reported as 500 without leaking the underlying message.
func WriteServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, domain.ErrBadCredentials):
		WriteJSONError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid credentials")
	case errors.Is(err, domain.ErrForbidden):
		WriteJSONError(w, http.StatusForbidden, ErrCodeForbidden, "not allowed")
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrInviteNotFound):
		WriteJSONError(w, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, domain.ErrDuplicateEmail),
		errors.Is(err, domain.ErrNotMember),
		errors.Is(err, domain.ErrInviteRevoked),
		errors.Is(err, domain.ErrInviteDisabled),
		errors.Is(err, domain.ErrInviteAlreadyRedeemed),
		errors.Is(err, domain.ErrCodeExhausted):
		WriteJSONError(w, http.StatusConflict, ErrCodeConflict, err.Error())
	default:
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		WriteJSONError(w, http.StatusInternalServerError, ErrCodeInternalError, "internal error")
	}
}
