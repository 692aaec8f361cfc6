package main

import (
	"context"
	"net/http"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/bookworm/backend/internal/config"
	"github.com/bookworm/backend/internal/handlers"
	"github.com/bookworm/backend/internal/services"
	"github.com/bookworm/backend/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	setupLogging(cfg)

	r, err := newHandler(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize %s store: %v", cfg.StoreDriver, err)
	}

	log.Printf("Book Worm listening on %s", cfg.DisplayURL())
	if err := http.ListenAndServe(cfg.ListenAddress(), r); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

// newHandler builds the store and the router around it. The store handle is shared
// by every request for the life of the process.
func newHandler(cfg *config.Config) (http.Handler, error) {
	store, err := newItemStore(cfg)
	if err != nil {
		return nil, err
	}

	itemService := services.NewItemService(store)
	itemsHandler := handlers.NewItemsHandler(itemService, cfg.StoreTimeout)

	return handlers.NewRouter(itemsHandler, handlers.RouterOptions{
		AllowedOrigins: cfg.AllowedOrigins,
		EnableMetrics:  true,
	}), nil
}

func setupLogging(cfg *config.Config) {
	log.SetOutput(os.Stdout)
	if cfg.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warnf("Unknown LOG_LEVEL %q, using info", cfg.LogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

func newItemStore(cfg *config.Config) (services.ItemStore, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		if cfg.DataDir == "" {
			log.Printf("Using in-memory item store (not persisted)")
			return services.NewMemoryItemStore(nil)
		}
		file, err := storage.NewExtJSONFile(cfg.DataDir, cfg.ItemsCollection+".json")
		if err != nil {
			return nil, err
		}
		log.Printf("Using in-memory item store persisted to %s", file.Path())
		return services.NewMemoryItemStore(file)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Connect fails when the URI cannot be resolved, e.g. the SRV lookup for an
	// Atlas host while DNS is down. HTTP is served anyway; store calls fail.
	client, err := services.ConnectMongo(ctx, cfg.MongoURI())
	if err != nil {
		log.WithError(err).Error("MongoDB connect failed; serving HTTP without a store")
		return services.NewUnavailableItemStore(err), nil
	}
	// The client is never disconnected.

	store := services.NewMongoItemStore(client, cfg.DBName, cfg.ItemsCollection)

	// A failed handshake is logged, not fatal: requests will surface store errors
	// until the deployment becomes reachable.
	if err := store.Ping(ctx); err != nil {
		log.WithError(err).Error("MongoDB ping failed; serving HTTP without a confirmed store connection")
		return store, nil
	}
	store.EnsureIndexes(ctx)
	log.Printf("Pinged your deployment. You successfully connected to MongoDB! db=%s", cfg.DBName)
	return store, nil
}
