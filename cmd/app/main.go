package main

import (
	"flag"
	"fmt"
	"os"

	"AltCredit/internal/di"
	"AltCredit/pkg/config"
	applogger "AltCredit/pkg/logger"
)

var (
	version = "v0.0.1-default"
	commit  = ""
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("altcredit %s (commit: %s)\n", version, commit)
		return
	}

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "altcredit: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	boot := applogger.NewWriter(os.Stderr, cfg.Log.Level)
	boot.Info("starting",
		applogger.String("version", version),
		applogger.String("env", cfg.Environment),
		applogger.Int("port", cfg.Server.Port),
		applogger.Bool("jitter", cfg.Scoring.Jitter.Enabled),
		applogger.Bool("cache", cfg.Cache.Enabled),
		applogger.Bool("kafka", cfg.Kafka.Enabled),
		applogger.Bool("clickhouse", cfg.ClickHouse.Enabled),
	)

	app, err := di.InitializeApp(cfg)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	return app.Run()
}
