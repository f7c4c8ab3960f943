package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/fitsync-app/fitsync/internal/cli"
	"github.com/fitsync-app/fitsync/internal/config"
	"github.com/fitsync-app/fitsync/internal/logging"
)

func main() {

	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)
}
