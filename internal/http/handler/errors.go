package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sandeepkv93/campus-notify-core/internal/http/response"
	"github.com/sandeepkv93/campus-notify-core/internal/security"
	"github.com/sandeepkv93/campus-notify-core/internal/service"
)

var writeError = response.Error

type serviceErrorMapping struct {
	target error
	status int
	code   string
}

var serviceErrorMappings = []serviceErrorMapping{
	{service.ErrInvalidIdentity, http.StatusBadRequest, "INVALID_IDENTITY"},
	{service.ErrInvalidPurpose, http.StatusBadRequest, "BAD_REQUEST"},
	{service.ErrInvalidKind, http.StatusBadRequest, "BAD_REQUEST"},
	{security.ErrWeakPassword, http.StatusBadRequest, "WEAK_PASSWORD"},
	{service.ErrCredentialNotFound, http.StatusBadRequest, "INVALID_CODE"},
	{service.ErrCredentialExpired, http.StatusGone, "CODE_EXPIRED"},
	{service.ErrTicketInvalid, http.StatusUnauthorized, "INVALID_TICKET"},
	{service.ErrRateLimited, http.StatusTooManyRequests, "RATE_LIMITED"},
	{service.ErrIdentityTaken, http.StatusConflict, "IDENTITY_TAKEN"},
	{service.ErrNotificationNotFound, http.StatusNotFound, "NOT_FOUND"},
	{service.ErrStoreUnavailable, http.StatusServiceUnavailable, "STORE_UNAVAILABLE"},
}

// classifyServiceError returns the HTTP status and envelope code for err.
// Unrecognised errors are 500 INTERNAL.
func classifyServiceError(err error) (int, string) {
	for _, m := range serviceErrorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "INTERNAL"
}

// writeServiceError maps service sentinels onto the response envelope. Store and
// unknown errors are logged and their text is not exposed.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classifyServiceError(err)
	switch code {
	case "STORE_UNAVAILABLE":
		slog.ErrorContext(r.Context(), "store unavailable", "path", r.URL.Path, "error", err)
		writeError(w, r, status, code, "service temporarily unavailable", nil)
	case "INTERNAL":
		slog.ErrorContext(r.Context(), "unhandled service error", "path", r.URL.Path, "error", err)
		writeError(w, r, status, code, "internal server error", nil)
	default:
		writeError(w, r, status, code, err.Error(), nil)
	}
}
