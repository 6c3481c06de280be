package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"corvex/config"
	"corvex/logging"
	"corvex/render"
	"corvex/server"
	"corvex/storage"
)

func main() {
	var (
		port    uint
		envFile string
	)

	flag.UintVar(&port, "port", 0, "The port to listen on (overrides CORVEX_SERVER_PORT)")
	flag.StringVar(&envFile, "env", ".env", "Optional env file")
	flag.Parse()

	cfg, err := config.Load(envFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if port != 0 {
		cfg.Server.Port = port
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	store := storage.NewStore(storage.NewLocator(cfg.Storage.Root), cfg.Storage.Extensions, logger.Logger)
	root, err := store.Root()
	if err != nil {
		logger.Fatal("storage root unavailable", zap.Error(err))
	}
	logger.Info("storage ready", zap.String("root", root))

	renderer := render.NewRenderer(cfg.Render.Engine, cfg.Render.Timeout, logger.Logger)

	srv := server.New(cfg, store, renderer, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		if err != nil {
			logger.Fatal("server failed", zap.Error(err))
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", zap.Error(err))
		}
	}
}
