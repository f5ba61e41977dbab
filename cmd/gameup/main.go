package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	gameup "github.com/gameup/gameup-web"
	"github.com/gameup/gameup-web/config"
	"github.com/gameup/gameup-web/internal/bootstrap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := bootstrap.InitLogger(os.Getenv("LOG_LEVEL"))
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		stop()
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}

	logStartupInfo(ctx, logger, &cfg)

	redisClient, err := bootstrap.ConnectRedis(ctx, bootstrap.RedisConnConfig{Redis: cfg.Redis, Logger: logger})
	if err != nil {
		return err
	}
	defer closeRedis(ctx, logger, redisClient)

	authCfg := bootstrap.AuthConfig{
		Auth:          cfg.Auth,
		RedisClient:   redisClient,
		SessionPrefix: cfg.Redis.SessionPrefix,
		StrictRoles:   cfg.IsDev,
		Logger:        logger,
	}
	if metrics := bootstrap.BuildMetrics(ctx, cfg.Observability, logger); metrics != nil {
		defer func() {
			if cerr := metrics.Close(); cerr != nil {
				logger.WarnContext(ctx, "close statsd client failed", "error", cerr)
			}
		}()
		authCfg.Metrics = metrics
	}

	auth, err := bootstrap.BuildAuth(ctx, authCfg)
	if err != nil {
		return err
	}

	srv, err := bootstrap.NewHTTPServer(bootstrap.HTTPServerConfig{
		HTTP:        cfg.HTTP,
		CallbackURL: cfg.Auth.OAuth.RedirectURL,
		Auth:        auth,
		TemplateFS:  gameup.Templates(),
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	return bootstrap.Serve(ctx, bootstrap.ServeConfig{
		Server:          srv,
		ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
		Logger:          logger,
	})
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting gameup gateway",
		"addr", cfg.HTTP.Addr,
		"auth_mode", cfg.Auth.Mode,
		"role_expression", cfg.Auth.RoleExpression != "",
		"resolve_timeout", cfg.Auth.ResolveTimeout,
		"metrics", cfg.Observability.MetricsAddress() != "",
		"dev", cfg.IsDev)
}

func closeRedis(ctx context.Context, logger *slog.Logger, client redis.UniversalClient) {
	if cerr := client.Close(); cerr != nil {
		logger.ErrorContext(ctx, "close redis failed", "error", cerr)
	}
}
