package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ljthub/authcli/internal/buildinfo"
	"github.com/ljthub/authcli/internal/client/cli"
	"github.com/ljthub/authcli/internal/client/config"
	"github.com/ljthub/authcli/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	// a .env file is optional, env vars still apply without one
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	logger := logging.New(cfg.LogLevel)

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}
