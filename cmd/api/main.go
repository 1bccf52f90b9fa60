package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"tally/api/internal/app"
	"tally/api/internal/catalog"
	"tally/api/internal/config"
	"tally/api/internal/history"
	"tally/api/internal/mirror"
	"tally/api/internal/search"
	"tally/api/internal/store"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		log.Fatalf("catalog load failed: %v", err)
	}

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	if err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	dataStore := store.NewPostgresStore(db)

	histService := history.New(cfg.HistoryDir)
	if raw, err := os.ReadFile(cfg.CatalogPath); err != nil {
		log.Printf("WARNING: catalog history skipped: %v", err)
	} else if err := histService.Record(raw); err != nil {
		log.Printf("WARNING: catalog history record failed: %v", err)
	}

	var sinks []mirror.Sink
	if cfg.SheetsCredentialsFile != "" && cfg.SheetsSpreadsheetID != "" {
		sheetsSink, err := mirror.NewSheetsSink(ctx, cfg.SheetsCredentialsFile, cfg.SheetsSpreadsheetID, cfg.SheetsRange)
		if err != nil {
			log.Fatalf("sheets sink setup failed: %v", err)
		}
		sinks = append(sinks, sheetsSink)
	}
	if cfg.SnapshotEndpoint != "" && cfg.SnapshotBucket != "" {
		objectSink, err := mirror.NewObjectSink(cfg.SnapshotEndpoint, cfg.SnapshotAccessKey, cfg.SnapshotSecretKey, cfg.SnapshotBucket, cfg.SnapshotUseSSL)
		if err != nil {
			log.Fatalf("object sink setup failed: %v", err)
		}
		sinks = append(sinks, objectSink)
	}

	var lock mirror.Locker
	if strings.TrimSpace(cfg.RedisURL) != "" {
		redisLock, err := mirror.NewRedisLock(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		defer redisLock.Close()
		lock = redisLock
	}
	notifier := mirror.New(dataStore, sinks, lock)
	if notifier.Enabled() {
		log.Printf("Mirroring to %d sink(s)", len(sinks))
	}

	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
		defer meiliClient.Close()
		if err := meiliClient.IndexCatalog(cat); err != nil {
			log.Printf("WARNING: catalog indexing failed: %v", err)
		}
	}
	searchService := search.NewService(meiliClient, search.NewCatalogScan(cat))

	service := app.New(cat, dataStore, notifier, searchService, histService, cfg.ReportPrefix)

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("%s listening on %s", cat.AppTitle, cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
