// Forkcast — conversational recipe recommendations over a RAG pipeline.
//
// This is the main entry point for the Forkcast recommendation server.
// It provides:
//   - POST /recommendations — dialogue in, ranked recipes out
//   - GET /collections — the eight corpus partitions with live counts
//   - GET /health, GET /version
//   - Heuristic mode when no LLM credential is configured

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/forkcast/forkcast/pkg/server"
)

func main() {
	// Optional .env for local development; silence is fine in prod.
	godotenv.Load()

	// Setup structured logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(logWriter())

	log.Info().Msg("🍴 Forkcast recommendation server starting...")

	ctx := context.Background()
	srv, err := server.New(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize server")
	}
	defer srv.ShutdownFunc(ctx)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", srv.Port),
		Handler:      srv.Handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info().Msg("🛑 Shutting down gracefully...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info().
		Int("port", srv.Port).
		Bool("heuristic_only", srv.HeuristicOnly).
		Msg("🔥 Forkcast is ready to recommend!")

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

// logWriter routes logs to a rotating file when FORKCAST_LOG_FILE is
// set, and to a console writer on stderr otherwise.
func logWriter() io.Writer {
	if path := os.Getenv("FORKCAST_LOG_FILE"); path != "" {
		return &lumberjack.Logger{
			Filename:   path,
			MaxSize:    100, // MB
			MaxBackups: 7,
			MaxAge:     30, // days
			Compress:   true,
		}
	}
	return zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
}
