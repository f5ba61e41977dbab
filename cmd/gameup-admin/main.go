package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/gameup/gameup-web/config"
	"github.com/gameup/gameup-web/internal/bootstrap"
	"github.com/gameup/gameup-web/internal/domain/access"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	usage       string
	description string
	// needsConfig loads the environment configuration before running.
	needsConfig bool
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
	Policy *access.Policy
	Out    io.Writer
}

func main() {
	logger := bootstrap.InitLogger(os.Getenv("LOG_LEVEL"))

	if len(os.Args) < 2 {
		if err := printUsage(os.Stdout); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(os.Stderr); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	cmdCtx := &commandContext{
		Ctx:    context.Background(),
		Logger: logger,
		Policy: access.NewPolicy(access.DefaultTable()),
		Out:    os.Stdout,
	}
	if cmd.needsConfig {
		cfg, err := bootstrap.LoadConfig()
		if err != nil {
			logger.ErrorContext(cmdCtx.Ctx, "load config", "error", err)
			os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
		}
		cmdCtx.Config = cfg
	}

	if runErr := cmd.run(cmdCtx, os.Args[2:]); runErr != nil {
		logger.ErrorContext(cmdCtx.Ctx, "command failed", "command", cmdName, "error", runErr)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func commands() map[string]command {
	return map[string]command{
		"routes": {
			name:        "routes",
			usage:       "routes [role]",
			description: "Print the route table, or one role's routes in order",
			run:         runRoutes,
		},
		"check": {
			name:        "check",
			usage:       "check <role> <path>",
			description: "Report whether a role may view a path and where it is redirected",
			run:         runCheck,
		},
		"default": {
			name:        "default",
			usage:       "default <role>",
			description: "Print a role's landing page",
			run:         runDefault,
		},
		"list-sessions": {
			name:        "list-sessions",
			usage:       "list-sessions [-role r] [-limit n]",
			description: "List live sessions stored in Redis",
			needsConfig: true,
			run:         runListSessions,
		},
		"revoke-session": {
			name:        "revoke-session",
			usage:       "revoke-session <session-id>",
			description: "Delete a session from Redis, signing the viewer out",
			needsConfig: true,
			run:         runRevokeSession,
		},
	}
}

func printUsage(w io.Writer) error {
	if err := writef(w, "Usage: gameup-admin <command> [args]\n\n"); err != nil {
		return err
	}
	if err := writef(w, "Available commands:\n"); err != nil {
		return err
	}

	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := cmds[name]
		if err := writef(w, "  %-36s %s\n", c.usage, c.description); err != nil {
			return err
		}
	}
	return nil
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func writeln(w io.Writer, args ...any) error {
	_, err := fmt.Fprintln(w, args...)
	return err
}
