package httpx

import (
	"bytes"
	"errors"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
)

// TemplateRenderer renders the HTML pages served by the gateway.
type TemplateRenderer struct {
	t      *template.Template
	logger *slog.Logger
}

// TemplateRendererConfig holds configuration for creating a TemplateRenderer.
type TemplateRendererConfig struct {
	TemplateFS fs.FS // Filesystem containing *.tmpl (required)
	Logger     *slog.Logger
}

// NewTemplateRenderer parses every *.tmpl in the configured filesystem.
func NewTemplateRenderer(cfg TemplateRendererConfig) (*TemplateRenderer, error) {
	if cfg.TemplateFS == nil {
		return nil, errors.New("TemplateFS is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	t, err := template.New("root").ParseFS(cfg.TemplateFS, "*.tmpl")
	if err != nil {
		cfg.Logger.Error("template parsing failed", slog.Any("error", err))
		return nil, err
	}
	for _, name := range []string{tmplPage, tmplLogin, tmplLoading, tmplSignedOut, tmplError} {
		if t.Lookup(name) == nil {
			return nil, errors.New("missing template: " + name)
		}
	}
	return &TemplateRenderer{t: t, logger: cfg.Logger}, nil
}

// Render executes the named template into a buffer and writes it with status.
// On template failure a plain 500 is written instead.
func (r *TemplateRenderer) Render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := r.t.ExecuteTemplate(&buf, name, data); err != nil {
		r.logger.Error("template execution failed", slog.String("template", name), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		return
	}
}
