package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"yard-service/internal/clock"
	"yard-service/internal/config"
	"yard-service/internal/parking"
	"yard-service/internal/report"
	"yard-service/internal/server"
	"yard-service/internal/stream"
)

var mode = flag.String("mode", "server", "Mode to run: cli, server, or both")

func main() {
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Load()

	telemetryProvider, err := parking.NewTelemetryProvider()
	if err != nil {
		log.Fatalf("Failed to initialize telemetry: %v", err)
	}

	clk := clock.NewSystem()
	registry := parking.NewRegistry()
	movements := parking.NewMovementLog()

	engine := parking.NewEngine(registry, movements, clk,
		parking.WithAutoRegister(cfg.AutoRegister),
	)
	instrumented, err := parking.NewInstrumentedEngine(engine, telemetryProvider)
	if err != nil {
		log.Fatalf("Failed to instrument allocation engine: %v", err)
	}

	aggregator := report.NewAggregator(registry, movements,
		report.WithMaxRangeDays(cfg.MaxRangeDays),
	)

	publisher := stream.NewPublisher(aggregator, clk, stream.Config{
		OccupancyPeriod: cfg.OccupancyPeriod,
		PositionsPeriod: cfg.PositionsPeriod,
		MovementPeriod:  cfg.MovementPeriod,
	})
	defer publisher.Close()

	handler := server.NewHandler(instrumented, aggregator, publisher, clk)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	switch *mode {
	case "cli":
		runCLI(ctx, cancel, instrumented, telemetryProvider, sigChan)
	case "server":
		runServer(cfg, handler, telemetryProvider, sigChan)
	case "both":
		runBoth(ctx, cancel, cfg, instrumented, handler, telemetryProvider, sigChan)
	default:
		log.Fatalf("Invalid mode: %s. Must be cli, server, or both", *mode)
	}
}

func runCLI(ctx context.Context, cancel context.CancelFunc, engine *parking.InstrumentedEngine, telemetryProvider *parking.TelemetryProvider, sigChan chan os.Signal) {
	go func() {
		<-sigChan
		log.Println("Shutting down...")
		cancel()
	}()

	shell := parking.NewShell(engine)
	shell.Run(ctx)

	shutdownTelemetry(telemetryProvider)
}

func runServer(cfg *config.Config, handler *server.Handler, telemetryProvider *parking.TelemetryProvider, sigChan chan os.Signal) {
	srv := server.NewServer(cfg.ServerPort, handler)

	go func() {
		<-sigChan
		log.Println("Received shutdown signal...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("Starting server mode on port %s", cfg.ServerPort)
	if err := srv.Start(); err != nil && err != http.ErrServerClosed {
		log.Printf("Server error: %v", err)
	}

	shutdownTelemetry(telemetryProvider)
}

func runBoth(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, engine *parking.InstrumentedEngine, handler *server.Handler, telemetryProvider *parking.TelemetryProvider, sigChan chan os.Signal) {
	srv := server.NewServer(cfg.ServerPort, handler)

	serverDone := make(chan error, 1)
	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.ServerPort)
		serverDone <- srv.Start()
	}()

	cliDone := make(chan bool, 1)
	go func() {
		shell := parking.NewShell(engine)
		shell.Run(ctx)
		cliDone <- true
	}()

	go func() {
		<-sigChan
		log.Println("Received shutdown signal...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}

		cancel()
	}()

	select {
	case err := <-serverDone:
		if err != nil && err != http.ErrServerClosed {
			log.Printf("Server error: %v", err)
		}
	case <-cliDone:
		log.Println("CLI exited")
	case <-ctx.Done():
		log.Println("Context cancelled")
	}

	shutdownTelemetry(telemetryProvider)
}

func shutdownTelemetry(telemetryProvider *parking.TelemetryProvider) {
	log.Println("Shutting down telemetry...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := telemetryProvider.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down telemetry: %v", err)
	}
}
