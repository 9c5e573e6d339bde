package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sehati-health/sehati/internal/client/cli"
	"github.com/sehati-health/sehati/internal/client/config"
	"github.com/sehati-health/sehati/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	logger := logging.NewJSONLogger(os.Stderr, cfg.LogLevel)

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)
}
