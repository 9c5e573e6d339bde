package main

import (
	"context"
	"log"
	"time"

	"github.com/sehati-health/sehati/internal/server"
	"github.com/sehati-health/sehati/internal/server/config"
)

const startupTimeout = 30 * time.Second

func main() {
	cfg := config.LoadConfig()

	initCtx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	app, err := server.NewApp(initCtx, cfg)
	cancel()
	if err != nil {
		log.Fatalf("sehati server: %v", err)
	}

	app.Run(context.Background())
}
