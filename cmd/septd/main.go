package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sghaida/sept/app"
	"github.com/sghaida/sept/config"
	"github.com/sghaida/sept/examples/greeter"
)

func run(ctx context.Context, args []string, env map[string]string, stdout io.Writer) error {
	fs := flag.NewFlagSet("septd", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	describe := fs.Bool("describe", false, "print the assembled module manifest and exit")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	cfg, err := config.LoadFrom(env)
	if err != nil {
		return err
	}
	logger, err := app.NewLogger(cfg)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}

	a, err := app.New(cfg, greeter.App,
		app.WithLogger(logger),
		app.WithContracts(greeter.Contracts()),
		app.WithGlobal(greeter.TokGreeting.Token, cfg.Greeting),
		app.WithGlobal(greeter.TokLogger.Token, logger.Named("greeter")),
	)
	if err != nil {
		return err
	}

	if *describe {
		raw, err := a.Root().Describe().YAML()
		if err != nil {
			return err
		}
		_, err = stdout.Write(raw)
		return err
	}
	return a.Run(ctx)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], nil, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "septd:", err)
		os.Exit(1)
	}
}
