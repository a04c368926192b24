package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// Set on build: -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Initialize context that cancelled on SIGINT or SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Getenv, os.Getwd, os.Args[1:]); err != nil {
		slog.Error("Server stopped with error", "error", err.Error())
		os.Exit(1)
	}
}

// run loads config (.env file, then environment, then flags) and serves until ctx is done
func run(
	ctx context.Context,
	getenv func(string) string,
	getwd func() (string, error),
	args []string,
) error {
	c := NewConfig()

	if err := c.LoadDotEnv(getwd); err != nil {
		return err
	}
	if err := c.LoadEnv(getenv); err != nil {
		return err
	}
	if err := c.ParseFlags(args); err != nil {
		return err
	}

	app, err := NewServerApp(ctx, c, version)
	if err != nil {
		return err
	}

	return app.Run(ctx)
}
