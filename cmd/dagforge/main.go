// dagforge serves the DAG config builder and cron validator over HTTP.
//
//	dagforge --config ./dagforge.jsonc
//	dagforge --addr 127.0.0.1:8080 --log-level debug
//
// Without --config built-in defaults are used and hot reload is off.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dagforge/internal/app"

	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var opts app.Options
	flagSet := pflag.NewFlagSet("dagforge", pflag.ContinueOnError)
	flagSet.StringVarP(&opts.ConfigPath, "config", "c", "", "path to config file (.json/.jsonc/.yaml)")
	flagSet.StringVar(&opts.Addr, "addr", "", "listen address, overrides http.addr")
	flagSet.StringVar(&opts.LogLevel, "log-level", "", "log level (debug, info, warn, error), overrides logging.level")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.NewApp(opts)
	if err != nil {
		return err
	}
	if err := a.Start(ctx); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	reason := app.StopSignal
	select {
	case <-ctx.Done():
	case <-a.Done():
		reason = app.StopFatalError
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	if err := a.Stop(stopCtx, reason); err != nil && reason == app.StopFatalError {
		return err
	}
	return nil
}
