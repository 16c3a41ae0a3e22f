package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/abrezinsky/livevote/internal/app"
	"github.com/abrezinsky/livevote/internal/config"
	"github.com/abrezinsky/livevote/internal/logger"
)

var (
	version = "dev"
)

func main() {
	envFile, err := config.LoadEnvFiles()
	if err != nil {
		log.Fatal(err)
	}

	cfg, err := config.Parse(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		log.Fatal(err)
	}

	if cfg.ShowVersion {
		fmt.Printf("livevote %s\n", version)
		os.Exit(0)
	}

	appLog := logger.NewWithOptions(logger.Options{
		Level:       logger.ParseLevel(cfg.LogLevel),
		Format:      logger.ParseFormat(cfg.LogFormat),
		HTTPLogging: cfg.HTTPLogging,
	})
	if envFile != "" {
		appLog.Info("Loaded environment file", "path", envFile)
	}
	if cfg.SecretGenerated {
		appLog.Warn("No session secret configured; sessions will not survive a restart")
	}

	a, err := app.New(appLog, cfg)
	if err != nil {
		log.Fatal("Failed to initialize application: ", err)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appLog.Info("LiveVote ready", "version", version, "join_base", a.BaseURL())
	if err := a.Run(ctx, cfg.Addr()); err != nil {
		appLog.Error("Server stopped", "error", err)
		a.Close()
		os.Exit(1)
	}
}
