package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gameup/gameup-web/internal/domain/access"
	apperrors "github.com/gameup/gameup-web/internal/errors"
	"github.com/gameup/gameup-web/internal/service"
)

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		// Response writer errors (e.g., client disconnect) can't be recovered from here.
		return
	}
}

// ErrorParams groups parameters for WriteError.
type ErrorParams struct {
	Code    int
	ErrCode string
	Err     error
}

// WriteError writes a JSON error response using ErrorParams.
func WriteError(w http.ResponseWriter, p ErrorParams) {
	WriteJSON(w, p.Code, map[string]string{"error": p.ErrCode, "message": p.Err.Error()})
}

// WriteAppError writes err with the status and code derived from StatusFor.
func WriteAppError(w http.ResponseWriter, err error) {
	status, code := StatusFor(err)
	WriteError(w, ErrorParams{Code: status, ErrCode: code, Err: err})
}

// StatusFor maps an error to an HTTP status and a machine-readable error code.
func StatusFor(err error) (int, string) {
	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.Is(err, service.ErrIdentityPending):
		return http.StatusServiceUnavailable, "identity_pending"
	case errors.Is(err, service.ErrNoRole):
		return http.StatusForbidden, "no_role"
	case access.IsUnknownRole(err):
		return http.StatusForbidden, "unknown_role"
	}

	switch code := apperrors.GetCode(err); code {
	case apperrors.ErrCodeValidation:
		return http.StatusBadRequest, string(code)
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound, string(code)
	case apperrors.ErrCodeUnauthenticated:
		return http.StatusUnauthorized, string(code)
	case apperrors.ErrCodeForbidden:
		return http.StatusForbidden, string(code)
	case apperrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout, string(code)
	case apperrors.ErrCodeCanceled:
		return http.StatusRequestTimeout, string(code)
	default:
		return http.StatusInternalServerError, string(apperrors.ErrCodeInternal)
	}
}
