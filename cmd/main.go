package main

import (
	"bubble/moderation"
	"bubble/repositories"
	"bubble/runtime"
	"bubble/runtime/workers"
	"bubble/search"
	"bubble/services"
	"bubble/transport"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// This pattern is preferred over calling os.Exit or panic directly because:
// 1. It ensures all 'defer' statements (like database cleanup) are executed before the program exits.
// 2. It improves testability by decoupling the initialization logic from the main entry point.
// 3. It provides a structured way to handle graceful shutdowns for HTTP and background workers.
func run() error {
	// 1. Configuration & Logger
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	//  Defer will be executed before run() returned anything to main()
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Search index, fed as a permanent sink of the engine
	index, err := search.NewMessageIndex(config.IndexFilepath, log)
	if err != nil {
		return fmt.Errorf("search index opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing search index...")
		_ = index.Close()
	}()

	// 4. Supervision & Broadcast Engine
	sup := workers.NewSupervisor(log, config.RestartInterval)
	registry := runtime.NewRegistry()
	messageRepository := repositories.NewMessageRepository(db, log)
	userRepository := repositories.NewUserRepository(db)
	roomRepository := repositories.NewRoomRepository(db)

	if rooms, err := roomRepository.List(); err == nil {
		log.Info(fmt.Sprintf("%d rooms in store [%s]",
			len(rooms), strings.Join(repositories.Names(rooms), ",")))
	}

	broadcaster := runtime.NewBroadcaster(
		log, sup, registry, messageRepository, userRepository, config.BufferSize,
	)
	broadcaster.AddSinks(index)

	if config.ModerationEnabled {
		words, err := runtime.LoadCensoredWords(log)
		if err != nil {
			return fmt.Errorf("censored words loading failed: %w", err)
		}
		moderator, err := moderation.NewModerator(words, firstRune(config.ModerationChar), log)
		if err != nil {
			return fmt.Errorf("moderator build failed: %w", err)
		}
		broadcaster.WithModerator(moderator)
	}

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	broadcaster.Start(ctx)
	sup.Start(ctx, workers.NewHeartbeatWorker(log, config.HeartbeatInterval, func() map[string]any {
		sessions, rooms := registry.Stats()
		return map[string]any{"sessions": sessions, "rooms": rooms}
	}))

	// 6. HTTP Server Setup
	chatService := services.NewChatService(broadcaster, messageRepository)
	router := transport.NewRouter(
		log,
		chatService,
		services.NewRoomService(roomRepository),
		services.NewUserService(userRepository),
		index,
		transport.NewWsHandler(log, chatService, config.ConnectionBufferSize),
	)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: router.Engine()}

	// Use an error channel to capture ListenAndServe() issues
	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 8. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP server shutdown incomplete", "error", err)
	}
	sup.Stop()
	log.Info("Program stopped cleanly")

	return nil
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return '*'
}
