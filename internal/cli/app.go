// Package cli implements the authctl command line tool: interactive
// login, one-shot status checks and a foreground watch mode built on the
// background status monitor.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/digitalchief/clientauth/internal/authclient"
	"github.com/digitalchief/clientauth/internal/config"
	"github.com/digitalchief/clientauth/internal/gate"
	"github.com/digitalchief/clientauth/internal/logging"
)

// App wires the authorization client and the run-level gate behind a
// small subcommand dispatcher.
type App struct {
	cfg    *config.Config
	client *authclient.Client
	gate   *gate.Gate
	log    logging.Logger
	reader *bufio.Reader
	out    io.Writer
}

func NewApp(cfg *config.Config, client *authclient.Client, log logging.Logger) *App {
	a := &App{
		cfg:    cfg,
		client: client,
		log:    log,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}
	a.gate = gate.New(client, a, log)
	return a
}

// PromptUsername and PromptPassword make App the interactive credential
// source for the gate.
func (a *App) PromptUsername(defaultUsername string) (string, error) {
	prompt := "Enter username"
	if defaultUsername != "" {
		prompt = fmt.Sprintf("Enter username [%s]", defaultUsername)
	}
	entered, err := getSimpleText(a.reader, prompt, a.out)
	if err != nil {
		return "", err
	}
	if entered == "" {
		return defaultUsername, nil
	}
	return entered, nil
}

func (a *App) PromptPassword() ([]byte, error) {
	return getPassword(a.out)
}

func (a *App) usage() {
	fmt.Fprintln(a.out, `Usage: authctl [flags] <command>

Commands:
  login    authenticate and cache the authorization record
  status   check the current authorization against the service
  watch    authorize, then keep re-validating until interrupted
  logout   remove the cached authorization record

Flags:
  -a <url>       authorization service base URL
  -i <interval>  status check interval (e.g. 15m, or bare seconds)
  -t <timeout>   request timeout (e.g. 10s, or bare seconds)
  -s <path>      state file path
  -c <path>      config file path`)
}
