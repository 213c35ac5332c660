package main

import (
	"log"
	"net/http"
	"os"

	"github.com/dgraph-io/badger/v3"
	"github.com/gorilla/mux"

	"github.com/finledger/transaction-service/internal/application/service"
	"github.com/finledger/transaction-service/internal/infrastructure/cache"
	"github.com/finledger/transaction-service/internal/infrastructure/config"
	"github.com/finledger/transaction-service/internal/infrastructure/db"
	"github.com/finledger/transaction-service/internal/infrastructure/handler"
	"github.com/finledger/transaction-service/internal/infrastructure/logger"
	"github.com/finledger/transaction-service/internal/infrastructure/middleware"
)

func main() {
	cfg := config.Load()

	appLogger := logger.NewJSONLogger(os.Stdout, cfg.LogLevel)
	logger.SetDefaultLogger(appLogger)

	appLogger.Info("Starting transaction service", map[string]interface{}{
		"addr":    cfg.Addr,
		"db_path": cfg.DBPath,
	})

	// Setup BadgerDB
	if err := os.MkdirAll(cfg.DBPath, 0o755); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	badgerOpts := badger.DefaultOptions(cfg.DBPath)
	badgerOpts.Logger = nil // Disable Badger's default logger

	badgerDB, err := badger.Open(badgerOpts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		if err := badgerDB.Close(); err != nil {
			log.Printf("Error closing BadgerDB: %v", err)
		}
	}()

	// Initialize repository
	txRepo, err := db.NewBadgerTransactionRepository(badgerDB)
	if err != nil {
		log.Fatalf("Failed to initialize repository: %v", err)
	}
	defer func() {
		if err := txRepo.Close(); err != nil {
			log.Printf("Error releasing id sequence: %v", err)
		}
	}()

	// Initialize caches
	idempotencyGuard := cache.NewIdempotencyGuard(cfg.IdempotencyWindow)
	listingCache := cache.NewListingCache(cfg.ListingCacheSize, cfg.ListingCacheTTL)

	// Initialize service and handler
	txService := service.NewTransactionService(txRepo, idempotencyGuard, listingCache)
	txHandler := handler.NewTransactionHandler(txService, appLogger)

	// Setup router
	router := mux.NewRouter()
	router.Use(middleware.RequestIDMiddleware)
	router.Use(middleware.LoggingMiddleware(appLogger))
	txHandler.RegisterRoutes(router)

	appLogger.Info("Server listening", map[string]interface{}{"addr": cfg.Addr})
	log.Fatal(http.ListenAndServe(cfg.Addr, router))
}
