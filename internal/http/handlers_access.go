package httpx

import (
	"net/http"
	"strings"

	"github.com/gameup/gameup-web/internal/domain/access"
	apperrors "github.com/gameup/gameup-web/internal/errors"
)

// AccessHandlers exposes the access policy to the dashboard front end.
type AccessHandlers struct {
	Policy *access.Policy
	Views  *ViewRegistry
}

// Routes returns the viewer's permitted routes and landing page.
// GET /api/access/routes.
func (h *AccessHandlers) Routes(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())
	routes, err := h.Policy.RoutesFor(id.Role)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"role":          id.Role,
		"routes":        routes,
		"default_route": h.Policy.DefaultRouteFor(id.Role),
	})
}

// Check reports whether the viewer may navigate to the given path.
// GET /api/access/check?path=/x.
func (h *AccessHandlers) Check(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" || !strings.HasPrefix(path, "/") {
		WriteAppError(w, apperrors.ValidationField("path", "path must start with /"))
		return
	}
	path = normalizePath(path)

	id, _ := IdentityFromContext(r.Context())
	d := h.Policy.Decide(id.Role, path)
	if d.Err != nil {
		WriteAppError(w, d.Err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"path":     path,
		"allowed":  d.Allowed,
		"redirect": d.Redirect,
	})
}

// Navigation returns the sidebar entries for the viewer.
// GET /api/access/navigation.
func (h *AccessHandlers) Navigation(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())
	items, err := h.Policy.Navigation(id.Role, h.Views.Title)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"role": id.Role, "items": items})
}
