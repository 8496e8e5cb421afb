package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/repobox/repobox/internal/api"
	"github.com/repobox/repobox/internal/config"
	"github.com/repobox/repobox/internal/storage/dragonfly"
	"github.com/repobox/repobox/internal/storage/memgraph"
	"github.com/repobox/repobox/internal/storage/mongo"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	// Connect to the three stores
	graph, err := memgraph.NewGraphStore(ctx, cfg.MemgraphURI())
	if err != nil {
		log.Fatalf("Failed to connect to graph store: %v", err)
	}
	defer graph.Close(ctx)

	docs, err := mongo.NewDocumentStore(ctx, cfg.MongoURI(), cfg.MongoDB)
	if err != nil {
		log.Fatalf("Failed to connect to document store: %v", err)
	}
	defer docs.Close(ctx)

	cache, err := dragonfly.NewCacheStore(ctx, cfg.DragonflyAddr())
	if err != nil {
		log.Fatalf("Failed to connect to cache store: %v", err)
	}
	defer cache.Close()

	// Setup handler and routes
	handler := api.NewHandler(graph, docs, cache, time.Duration(cfg.APICacheTTL)*time.Second)
	router := api.SetupRoutes(handler)

	// Start server
	addr := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	fmt.Printf("Starting API server on %s\n", addr)
	fmt.Printf("Response cache TTL: %ds\n", cfg.APICacheTTL)

	if err := router.Run(addr); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start server: %v\n", err)
		os.Exit(1)
	}
}
