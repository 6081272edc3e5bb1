package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"veld/internal/config"
	"veld/internal/ipc"
	"veld/internal/kernel"
	"veld/internal/logging"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	// Kernel boot failure is the runtime's abort path: required background
	// maintenance has no fallback, so there is no degraded mode to enter.
	k, err := kernel.Boot(cfg, logger)
	if err != nil {
		logger.Error("kernel boot failed", logging.Error(err))
		log.Fatalf("veldd: %v", err)
	}
	defer k.Close()

	ipcServer, err := ipc.NewServer(ctx, cfg.SocketPath(), k, logger)
	if err != nil {
		logger.Error("start IPC server", logging.Error(err))
		log.Fatalf("veldd: %v", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	logger.Info("veldd running", logging.String("socket", cfg.SocketPath()))
	<-ctx.Done()
	logger.Info("veldd shutting down")
}
