package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/digitalchief/clientauth/internal/authclient"
	"github.com/digitalchief/clientauth/internal/cli"
	"github.com/digitalchief/clientauth/internal/config"
	"github.com/digitalchief/clientauth/internal/logging"
	"github.com/digitalchief/clientauth/internal/statestore"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "authctl: %v\n", err)
		return err
	}

	logger := logging.NewDefault()
	store := statestore.New(cfg.StateFile, cfg.StateSalt, cfg.StateFormat)
	client := authclient.New(cfg, store, logger)
	app := cli.NewApp(cfg, client, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return app.Run(ctx, os.Args[1:])
}
