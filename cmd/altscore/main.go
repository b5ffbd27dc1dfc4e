package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

var (
	name    = "altscore"
	version = "v0.0.1-default"
	commit  = ""
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    name,
		Version: fmt.Sprintf("%s - (commit: %s)", version, commit),
		Usage:   "Score, explain and audit alternative-data credit decisions",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  verboseFlagName,
				Usage: "Prints pipeline logs to stderr (optional, default: false)",
			},
		},
		Commands: []*cli.Command{
			scoreCommand(),
			explainCommand(),
			biasCommand(),
			modelInfoCommand(),
			auditCommand(),
		},
	}
}
