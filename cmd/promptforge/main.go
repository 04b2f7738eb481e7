// PromptForge orchestrator server - provides the HTTP API and manages
// prompt-optimization pipeline runs.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/promptforge/core/internal/api"
	"github.com/promptforge/core/internal/config"
	"github.com/promptforge/core/internal/database"
	"github.com/promptforge/core/internal/eventbus"
	"github.com/promptforge/core/internal/providers"
	"github.com/promptforge/core/internal/queue"
	"github.com/promptforge/core/internal/services"
	"github.com/promptforge/core/internal/vfs"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./deploy/config"),
		"Path to configuration directory")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("Warning: Could not load %s file: %v", envPath, err)
		log.Printf("Continuing with existing environment variables...")
	} else {
		log.Printf("Loaded environment from %s", envPath)
	}

	httpPort := getEnv("HTTP_PORT", "8080")
	gin.SetMode(getEnv("GIN_MODE", "debug"))

	log.Printf("Starting PromptForge")
	log.Printf("HTTP Port: %s", httpPort)
	log.Printf("Config Directory: %s", *configDir)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		log.Fatalf("Failed to initialize configuration: %v", err)
	}

	dbConfig, err := database.LoadConfigFromEnv()
	if err != nil {
		log.Fatalf("Failed to load database config: %v", err)
	}
	dbClient, err := database.NewClient(ctx, dbConfig)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			log.Printf("Error closing database client: %v", err)
		}
	}()
	log.Println("Connected to PostgreSQL database")

	registry := eventbus.NewContractRegistry()
	eventbus.RegisterDeclaredContracts(registry, "promptforge")
	bus := eventbus.New(registry)

	jobQueue := queue.New(cfg.Queue.WorkerCount, bus, database.NewQueueStore(dbClient.Client))

	providerInstances := make(map[string]providers.Provider, len(cfg.Providers))
	for name, pc := range cfg.Providers {
		apiKey := os.Getenv(pc.APIKeyEnv)
		providerInstances[name] = providers.NewHTTPProvider(pc.Name, pc.BaseURL, apiKey, pc.Model)
	}
	providerRegistry := providers.NewRegistry(providerInstances, cfg.DefaultProvider)

	deps := &api.Deps{
		Config:        cfg,
		DBClient:      dbClient,
		Bus:           bus,
		Queue:         jobQueue,
		Providers:     providerRegistry,
		Projects:      services.NewProjectService(dbClient.Client),
		Prompts:       services.NewPromptService(dbClient.Client),
		Optimizations: services.NewOptimizationService(dbClient.Client),
		VFS:           vfs.NewService(database.NewVFSRepository(dbClient.Client)),
	}

	api.RegisterJobHandlers(jobQueue, deps)
	jobQueue.Start(ctx)
	defer jobQueue.Stop()

	retention := services.NewRetentionService(cfg.Retention, dbClient.Client)
	retention.Start(ctx)
	defer retention.Stop()

	router := api.NewRouter(deps)
	srv := &http.Server{Addr: ":" + httpPort, Handler: router}

	log.Printf("HTTP server listening on :%s", httpPort)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Queue.GracefulShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}
}
