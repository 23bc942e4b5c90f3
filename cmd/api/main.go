package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sysengio/wysechat/internal/auth"
	"github.com/sysengio/wysechat/internal/config"
	"github.com/sysengio/wysechat/internal/handler"
	"github.com/sysengio/wysechat/internal/service/ai"
	"github.com/sysengio/wysechat/internal/service/knowledge"
	"github.com/sysengio/wysechat/internal/service/synthesis"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	generator, err := ai.NewGenerator(ctx, cfg.AI)
	if err != nil {
		log.Fatalf("failed to initialize %s generator: %v", cfg.AI.Provider, err)
	}
	log.Printf("generative AI provider %q initialized", cfg.AI.Provider)

	var store knowledge.Store
	if cfg.Graph.Enabled() {
		connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		neo4jStore, err := knowledge.NewNeo4jStore(connectCtx, cfg.Graph)
		cancel()
		if err != nil {
			log.Fatalf("failed to connect to neo4j: %v", err)
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = neo4jStore.Close(closeCtx)
		}()
		store = neo4jStore
	} else {
		log.Println("neo4j not configured, graph enrichment disabled")
	}

	engine := synthesis.NewEngine(generator, store, cfg.Graph.EnrichmentRequired)
	sessions := auth.NewManager(
		auth.Credentials{Username: cfg.Auth.Username, Password: cfg.Auth.Password},
		auth.NewMemoryStore(),
	)

	router := handler.NewRouter(sessions, engine)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("wysechat listening on %s", serverCfg.Addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
