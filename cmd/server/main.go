// File: cmd/server/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log" // Standard log for critical startup/shutdown messages before/after zap is active
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"identity_sync_backend/internal/config"
	"identity_sync_backend/internal/webhook"

	"go.uber.org/zap"
)

func main() {
	deadLettersCmd := flag.NewFlagSet("dead-letters", flag.ExitOnError)
	limit := deadLettersCmd.Int("limit", 50, "Maximum number of dead letters to print, newest first (0 = all)")

	if len(os.Args) > 1 && os.Args[1] == "dead-letters" {
		_ = deadLettersCmd.Parse(os.Args[2:])
		if err := runDeadLetters(os.Stdout, *limit); err != nil {
			log.Fatalf("FATAL: %v", err)
		}
		return
	}

	startServer()
}

func startServer() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	server, cleanup, err := initializeServer(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize server: %v", err)
	}
	defer cleanup()

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: Server failed to start or crashed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Printf("INFO: Received signal '%s'. Shutting down server...", sig)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ServerTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: Server forced to shutdown due to error: %v", err)
	} else {
		log.Println("INFO: Server shutdown complete.")
	}
}

// runDeadLetters prints recorded failures as JSON lines for operator reconciliation.
func runDeadLetters(out io.Writer, limit int) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	appLogger, cleanupLogger, err := provideLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer cleanupLogger()

	db, cleanupDB, err := provideDatabase(cfg, appLogger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer cleanupDB()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	events, err := webhook.NewGORMFailedEventRepository(db).List(ctx, limit)
	if err != nil {
		return err
	}
	if err := writeDeadLetters(out, events); err != nil {
		return err
	}
	appLogger.Info("Listed dead letters", zap.Int("count", len(events)))
	return nil
}

func writeDeadLetters(out io.Writer, events []webhook.FailedEvent) error {
	enc := json.NewEncoder(out)
	for i := range events {
		if err := enc.Encode(&events[i]); err != nil {
			return fmt.Errorf("write dead letter %s: %w", events[i].ID, err)
		}
	}
	return nil
}
