package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/matthewbaird/nightwatch/internal/app"
	"github.com/matthewbaird/nightwatch/internal/config"
	"github.com/matthewbaird/nightwatch/internal/logging"
	"github.com/matthewbaird/nightwatch/internal/scheduler"
	"github.com/matthewbaird/nightwatch/internal/server"
)

func main() {
	configPath := pflag.String("config", "", "path to a YAML config file (default $"+config.EnvConfigPath+")")
	seedDemo := pflag.Bool("seed", false, "seed a demo organization when the store is empty")
	pflag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Init("nightwatch", "")
		logging.Logger.WithError(err).Fatal("loading config")
	}
	if *seedDemo {
		cfg.Seed = true
	}
	logging.Init("nightwatch", cfg.LogLevel)

	a, err := app.New(ctx, cfg)
	if err != nil {
		logging.Logger.WithError(err).Fatal("starting night watch")
	}
	a.Start(ctx)
	defer a.Close()

	if cfg.Engine.Schedule != "" {
		sched, err := scheduler.New(a.Engine, a.Store, cfg.Engine.Schedule, a.Location, cfg.Engine.Timeout)
		if err != nil {
			logging.Logger.WithError(err).Fatal("scheduling night watch")
		}
		sched.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			sched.Stop(stopCtx)
		}()
	}

	if err := server.Run(ctx, server.Config{
		Port:           cfg.Port,
		Store:          a.Store,
		Activity:       a.Activity,
		Runner:         a.Engine,
		Hub:            a.Hub,
		RunTimeout:     cfg.Engine.Timeout,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	}); err != nil {
		logging.Logger.WithError(err).Error("server error")
		os.Exit(1)
	}
}
