package httpx

import (
	"net/http"

	"github.com/gameup/gameup-web/internal/domain/access"
	domainauth "github.com/gameup/gameup-web/internal/domain/auth"
)

// ViewHandlers renders the dashboard views behind the guard.
type ViewHandlers struct {
	Policy   *access.Policy
	Views    *ViewRegistry
	Renderer *TemplateRenderer
}

type pageData struct {
	Title    string
	Path     string
	Identity domainauth.Identity
	Nav      []access.NavItem
}

type errorPageData struct {
	Title   string
	Message string
}

// View renders the view registered for the request path.
// The guard has already authorized the viewer when this runs.
func (h *ViewHandlers) View(w http.ResponseWriter, r *http.Request) {
	path := normalizePath(r.URL.Path)
	view, ok := h.Views.Lookup(path)
	if !ok {
		h.Renderer.Render(w, http.StatusNotFound, tmplError, errorPageData{
			Title:   "Not found",
			Message: "This page does not exist.",
		})
		return
	}

	id, _ := IdentityFromContext(r.Context())
	nav, err := h.Policy.Navigation(id.Role, h.Views.Title)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	h.Renderer.Render(w, http.StatusOK, tmplPage, pageData{
		Title:    view.Title,
		Path:     view.Path,
		Identity: id,
		Nav:      nav,
	})
}
