package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/redis/go-redis/v9"

	redisadapter "github.com/gameup/gameup-web/internal/adapters/redis"
	"github.com/gameup/gameup-web/internal/bootstrap"
)

const sessionCommandTimeout = 30 * time.Second

var errSessionNotFound = errors.New("session not found")

// connectSessions opens the Redis-backed session store configured for the gateway.
func connectSessions(cmdCtx *commandContext) (*redisadapter.SessionStore, func(), error) {
	client, err := bootstrap.ConnectRedis(cmdCtx.Ctx, bootstrap.RedisConnConfig{
		Redis:  cmdCtx.Config.Redis,
		Logger: cmdCtx.Logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	closeFn := func() {
		if closeErr := client.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("redis close failed", "error", closeErr)
		}
	}
	return sessionStore(client, cmdCtx.Config.Redis.SessionPrefix), closeFn, nil
}

func sessionStore(client redis.UniversalClient, prefix string) *redisadapter.SessionStore {
	return redisadapter.NewSessionStoreWithPrefix(client, prefix)
}

func runRevokeSession(cmdCtx *commandContext, args []string) error {
	if len(args) != 1 || args[0] == "" {
		return fmt.Errorf("%w: usage: revoke-session <session-id>", errUsage)
	}

	store, closeFn, err := connectSessions(cmdCtx)
	if err != nil {
		return err
	}
	defer closeFn()

	return revokeSession(cmdCtx.Ctx, cmdCtx.Out, store, args[0])
}

func revokeSession(ctx context.Context, out io.Writer, store *redisadapter.SessionStore, id string) error {
	ctx, cancel := context.WithTimeout(ctx, sessionCommandTimeout)
	defer cancel()

	existed, err := store.Revoke(ctx, id)
	if err != nil {
		return err
	}
	if !existed {
		return fmt.Errorf("%w: %s", errSessionNotFound, id)
	}
	return writef(out, "revoked session %s\n", id)
}

type listSessionsOptions struct {
	Role  string
	Limit int
}

func parseListSessionsOptions(args []string) (listSessionsOptions, error) {
	var opts listSessionsOptions
	fs := flag.NewFlagSet("list-sessions", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&opts.Role, "role", "", "only list sessions of this role")
	fs.IntVar(&opts.Limit, "limit", 100, "maximum sessions to print (0 = all)")
	if err := fs.Parse(args); err != nil {
		return opts, fmt.Errorf("%w: %w", errUsage, err)
	}
	if opts.Role != "" {
		if _, err := parseRoleArg(opts.Role); err != nil {
			return opts, err
		}
	}
	return opts, nil
}

func runListSessions(cmdCtx *commandContext, args []string) error {
	opts, err := parseListSessionsOptions(args)
	if err != nil {
		return err
	}

	store, closeFn, err := connectSessions(cmdCtx)
	if err != nil {
		return err
	}
	defer closeFn()

	return listSessions(cmdCtx.Ctx, cmdCtx.Out, store, opts)
}

func listSessions(ctx context.Context, out io.Writer, store *redisadapter.SessionStore, opts listSessionsOptions) error {
	ctx, cancel := context.WithTimeout(ctx, sessionCommandTimeout)
	defer cancel()

	filter := redisadapter.ListFilter{Limit: opts.Limit}
	if opts.Role != "" {
		role, err := parseRoleArg(opts.Role)
		if err != nil {
			return err
		}
		filter.Role = role
	}

	sessions, err := store.List(ctx, filter)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if err := writef(tw, "SESSION\tUSER\tROLE\tEXPIRES\n"); err != nil {
		return err
	}
	for _, s := range sessions {
		if err := writef(tw, "%s\t%s\t%s\t%s\n", s.ID, s.UserID, s.Role, s.ExpiresAt.UTC().Format(time.RFC3339)); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(sessions) == 0 {
		return writeln(out, "(no sessions found)")
	}
	return nil
}
