package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"AltCredit/internal/di"
	internalrepo "AltCredit/internal/repository"
	"AltCredit/pkg/config"
)

const (
	configFlagName = "config"
	sinceFlagName  = "since"
	limitFlagName  = "limit"

	auditLimitDefault = 100
)

func auditCommand() *cli.Command {
	return &cli.Command{
		Name:  "audit",
		Usage: "List recent decisions from the ClickHouse audit table",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  configFlagName,
				Usage: "Service config file with the clickhouse section",
				Value: "config/config.yaml",
			},
			&cli.DurationFlag{
				Name:  sinceFlagName,
				Usage: "How far back to look",
				Value: 24 * time.Hour,
			},
			&cli.IntFlag{
				Name:  limitFlagName,
				Usage: "Limits number of decisions returned",
				Value: auditLimitDefault,
			},
		},
		Action: runAudit,
	}
}

func runAudit(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.LoadWithEnv(cmd.String(configFlagName))
	if err != nil {
		return err
	}
	if cfg.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is not configured")
	}
	cfg.ClickHouse.Enabled = true

	client, err := di.ProvideClickHouseClient(cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	store := internalrepo.NewClickHouseDecisionStore(client, cfg.ClickHouse.Table)
	to := time.Now().UTC()
	evs, err := store.Query(ctx, to.Add(-cmd.Duration(sinceFlagName)), to, cmd.Int(limitFlagName))
	if err != nil {
		return err
	}
	return printJSON(cmd.Root().Writer, evs)
}
