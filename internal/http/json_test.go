package httpx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gameup/gameup-web/internal/domain/access"
	domainauth "github.com/gameup/gameup-web/internal/domain/auth"
	apperrors "github.com/gameup/gameup-web/internal/errors"
	"github.com/gameup/gameup-web/internal/service"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "nil", err: nil, wantStatus: http.StatusOK, wantCode: ""},
		{name: "pending", err: fmt.Errorf("%w: redis down", service.ErrIdentityPending), wantStatus: http.StatusServiceUnavailable, wantCode: "identity_pending"},
		{name: "no role", err: service.ErrNoRole, wantStatus: http.StatusForbidden, wantCode: "no_role"},
		{name: "unknown role", err: &access.UnknownRoleError{Role: domainauth.Role("guest")}, wantStatus: http.StatusForbidden, wantCode: "unknown_role"},
		{name: "validation", err: apperrors.ValidationField("path", "bad"), wantStatus: http.StatusBadRequest, wantCode: "validation"},
		{name: "not found", err: apperrors.NotFoundf("view %s", "/x"), wantStatus: http.StatusNotFound, wantCode: "not_found"},
		{name: "unauthenticated", err: apperrors.Unauthenticated("login"), wantStatus: http.StatusUnauthorized, wantCode: "unauthenticated"},
		{name: "forbidden", err: apperrors.Forbiddenf("no"), wantStatus: http.StatusForbidden, wantCode: "forbidden"},
		{name: "timeout", err: apperrors.FromContext(context.DeadlineExceeded, "resolve identity"), wantStatus: http.StatusGatewayTimeout, wantCode: "timeout"},
		{name: "plain", err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantCode: "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := StatusFor(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}

func TestWriteAppError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteAppError(w, apperrors.ValidationField("path", "path must start with /"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"validation","message":"path must start with /"}`, w.Body.String())
}
