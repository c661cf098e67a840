package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"

	"devconnect/auth"
	"devconnect/gateway"
	"devconnect/httpapi"
	"devconnect/internal"
	"devconnect/moderation"
	"devconnect/realtime"
	"devconnect/repositories"
	"devconnect/search"
	"devconnect/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component and manages the server lifecycle. Returning an
// error instead of exiting directly guarantees the deferred database and
// index closes execute on every path.
func run() error {
	// 1. Configuration & logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := internal.Logger(config.LogLevel)

	// 2. Storage (BadgerDB) and search index
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	index, err := search.Open(config.SearchFilepath, log)
	if err != nil {
		return fmt.Errorf("search index opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing search index...")
		_ = index.Close()
	}()

	// 3. Core components
	censorRune, err := config.CensorRune()
	if err != nil {
		return err
	}
	moderator, err := moderation.NewModerator(config.CensoredWords, censorRune)
	if err != nil {
		return fmt.Errorf("moderation setup failed: %w", err)
	}

	users := repositories.NewUserRepository(db)
	projects := repositories.NewProjectRepository(db)
	messages := repositories.NewMessageRepository(db, log)

	tokens := auth.NewTokenManager(config.JWTSecret, config.AuthTokenDuration)
	registry := realtime.NewRegistry(log)
	gate := services.NewAccessGate(projects)
	chatService := services.NewChatService(log, gate, messages, users, registry, moderator, index)
	authService := services.NewAuthService(users, tokens)

	gw := gateway.NewGateway(log, chatService, tokens, users, registry, config.ConnectionBufferSize)
	api := httpapi.NewServer(log, authService, chatService, tokens, projects)

	if config.DebugPort > 0 {
		internal.StartDebugServer(db, config.DebugPort)
		log.Info("Debug server started", "port", config.DebugPort)
	}

	// 4. Context & signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. HTTP server hosting both delivery paths
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{
		Addr:    address,
		Handler: api.Router(gw.Handler()),
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	// 6. Wait for stop or error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 7. Final cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	log.Info("Program stopped cleanly")
	return nil
}
