package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gameup/gameup-web/config"
	httpx "github.com/gameup/gameup-web/internal/http"
)

// HTTPServerConfig contains configuration for the HTTP server.
type HTTPServerConfig struct {
	HTTP        config.HTTPConfig
	CallbackURL string
	Auth        *AuthComponents
	TemplateFS  fs.FS
	Logger      *slog.Logger
}

// NewHTTPServer builds the gateway router and wraps it in an *http.Server.
func NewHTTPServer(cfg HTTPServerConfig) (*http.Server, error) {
	if cfg.Auth == nil {
		return nil, errors.New("http server: auth components are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	handler, err := httpx.NewRouter(httpx.RouterServices{
		Auth:         cfg.Auth.Service,
		Guard:        cfg.Auth.Guard,
		TemplateFS:   cfg.TemplateFS,
		CookieDomain: cfg.HTTP.CookieDomain,
		CallbackURL:  cfg.CallbackURL,
		Personas:     cfg.Auth.Personas,
		Sessions:     cfg.Auth.Sessions,
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build router: %w", err)
	}

	// Guard against empty addr to avoid listening on Go default
	addr := cfg.HTTP.Addr
	if addr == "" {
		addr = ":8080"
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}, nil
}

// ServeConfig contains dependencies for running the server until ctx is done.
type ServeConfig struct {
	Server          *http.Server
	Listener        net.Listener // optional; defaults to listening on Server.Addr
	ShutdownTimeout time.Duration
	Logger          *slog.Logger
}

// Serve runs the server and shuts it down gracefully once ctx is cancelled.
// It returns nil after a clean shutdown.
func Serve(ctx context.Context, cfg ServeConfig) error {
	if cfg.Server == nil {
		return errors.New("serve: server is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	ln := cfg.Listener
	if ln == nil {
		var err error
		ln, err = net.Listen("tcp", cfg.Server.Addr)
		if err != nil {
			return fmt.Errorf("listen %s: %w", cfg.Server.Addr, err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.InfoContext(gctx, "starting HTTP server", "addr", ln.Addr().String())
		if err := cfg.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		if err := cfg.Server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		logger.Info("HTTP server stopped")
		return nil
	})

	return g.Wait()
}
