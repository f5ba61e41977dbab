package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/gameup/gameup-web/internal/domain/access"
	domainauth "github.com/gameup/gameup-web/internal/domain/auth"
)

var errUsage = errors.New("invalid arguments")

func parseRoleArg(raw string) (domainauth.Role, error) {
	role, ok := domainauth.ParseRole(raw)
	if !ok {
		return "", &access.UnknownRoleError{Role: domainauth.Role(raw)}
	}
	return role, nil
}

func runRoutes(cmdCtx *commandContext, args []string) error {
	switch len(args) {
	case 0:
		return printRouteTable(cmdCtx)
	case 1:
		role, err := parseRoleArg(args[0])
		if err != nil {
			return err
		}
		routes, err := cmdCtx.Policy.RoutesFor(role)
		if err != nil {
			return err
		}
		for _, r := range routes {
			if err := writeln(cmdCtx.Out, r); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: usage: routes [role]", errUsage)
	}
}

func printRouteTable(cmdCtx *commandContext) error {
	tw := tabwriter.NewWriter(cmdCtx.Out, 0, 0, 2, ' ', 0)
	if err := writef(tw, "ROLE\tDEFAULT\tROUTES\tPATHS\n"); err != nil {
		return err
	}
	for _, role := range domainauth.AllRoles() {
		routes, err := cmdCtx.Policy.RoutesFor(role)
		if err != nil {
			return err
		}
		if err := writef(tw, "%s\t%s\t%d\t%s\n",
			role, cmdCtx.Policy.DefaultRouteFor(role), len(routes), strings.Join(routes, " ")); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func runCheck(cmdCtx *commandContext, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: usage: check <role> <path>", errUsage)
	}
	role, err := parseRoleArg(args[0])
	if err != nil {
		return err
	}
	path := args[1]
	if !strings.HasPrefix(path, "/") {
		return fmt.Errorf("%w: path must start with /", errUsage)
	}

	d := cmdCtx.Policy.Decide(role, path)
	if d.Allowed {
		return writef(cmdCtx.Out, "allowed: %s may view %s\n", role, path)
	}
	return writef(cmdCtx.Out, "denied: %s may not view %s (redirect to %s)\n", role, path, d.Redirect)
}

func runDefault(cmdCtx *commandContext, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: usage: default <role>", errUsage)
	}
	role, err := parseRoleArg(args[0])
	if err != nil {
		return err
	}
	return writeln(cmdCtx.Out, cmdCtx.Policy.DefaultRouteFor(role))
}
