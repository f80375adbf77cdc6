package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/digitalchief/clientauth/internal/authclient"
	"github.com/digitalchief/clientauth/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate
// testing. They point to interactive input helpers and can be swapped
// in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Run dispatches the first non-flag argument as a subcommand. Flags are
// consumed by the config loader before Run sees them.
func (a *App) Run(ctx context.Context, args []string) error {
	cmd := ""
	for _, arg := range args {
		if !strings.HasPrefix(arg, "-") {
			cmd = arg
			break
		}
	}

	switch cmd {
	case "login":
		return a.Login(ctx)
	case "status":
		return a.Status(ctx)
	case "watch":
		return a.Watch(ctx)
	case "logout":
		return a.Logout(ctx)
	case "", "help":
		a.usage()
		return nil
	default:
		a.usage()
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

// Login prompts for credentials and authenticates, replacing whatever
// record was cached before.
func (a *App) Login(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	state, err := a.client.Login(ctx, username, string(password))
	if err != nil {
		a.printAuthError(err)
		return err
	}

	fmt.Fprintf(a.out, "Login successful: %s, authorization valid until %s\n",
		state.Username, a.client.LocalExpiry().Format(time.RFC3339))
	return nil
}

// Status re-validates the cached record against the service once.
func (a *App) Status(ctx context.Context) error {
	if a.client.LoadCachedState(ctx) == nil {
		fmt.Fprintln(a.out, "Not logged in.")
		return common.ErrNotAuthenticated
	}

	state, err := a.client.CheckStatus(ctx)
	if err != nil {
		a.printAuthError(err)
		return err
	}

	fmt.Fprintf(a.out, "Authorization OK: %s (%s), valid until %s\n",
		state.Username, state.AccountStatus, a.client.LocalExpiry().Format(time.RFC3339))
	return nil
}

// Watch ensures authorization and then runs the status monitor in the
// foreground until the session is revoked or ctx is cancelled.
func (a *App) Watch(ctx context.Context) error {
	state, err := a.gate.EnsureAuthorized(ctx)
	if err != nil {
		a.printAuthError(err)
		return err
	}
	fmt.Fprintf(a.out, "Watching authorization for %s (interval %s), Ctrl-C to stop.\n",
		state.Username, a.cfg.StatusInterval)

	var revokedMsg string
	m, err := a.client.StartStatusMonitor(ctx,
		func(msg string) { revokedMsg = msg },
		func(msg string) { fmt.Fprintf(a.out, "Warning: %s\n", msg) },
	)
	if err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		m.Stop()
		fmt.Fprintln(a.out, "Stopped.")
		return nil
	case <-m.Done():
		fmt.Fprintf(a.out, "Authorization lost: %s\n", revokedMsg)
		return common.ErrMonitorFinished
	}
}

// Logout removes the cached record.
func (a *App) Logout(ctx context.Context) error {
	a.client.ClearCachedState(ctx)
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

func (a *App) printAuthError(err error) {
	var revoked *authclient.RevokedError
	var netErr *authclient.NetworkError
	var protoErr *authclient.ProtocolError
	switch {
	case errors.As(err, &revoked):
		fmt.Fprintf(a.out, "Authorization refused: %s\n", revoked.Message)
	case errors.As(err, &netErr):
		fmt.Fprintf(a.out, "Service unreachable: %s\n", netErr.Message)
	case errors.As(err, &protoErr):
		fmt.Fprintf(a.out, "Unexpected service response (HTTP %d): %s\n",
			protoErr.StatusCode, protoErr.Message)
	default:
		fmt.Fprintf(a.out, "Error: %s\n", err)
	}
}
