package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/toutvamal/newsroom/app/api"
	"github.com/toutvamal/newsroom/app/cfg"
	"github.com/toutvamal/newsroom/app/database"
	"github.com/toutvamal/newsroom/app/dedup"
	"github.com/toutvamal/newsroom/app/feed"
	"github.com/toutvamal/newsroom/app/generator"
	"github.com/toutvamal/newsroom/app/pipeline"
	"github.com/toutvamal/newsroom/app/publisher"
	"github.com/toutvamal/newsroom/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	setupLogger(appCfg.Debug)

	slog.Info("Starting ToutVaMal Newsroom server", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		log.Fatal("Failed to open database:", err)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		log.Fatal("Failed to run migrations:", err)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "migration_version", version, "dirty", dirty)

	seedSources, err := cfg.LoadSources(appCfg.SourcesFile)
	if err != nil {
		log.Fatal("Failed to load sources file:", err)
	}
	slog.Info("Loaded RSS source configuration", "file", appCfg.SourcesFile, "count", len(seedSources))

	sourceRepo := database.NewSourceRepository(db)
	articleRepo := database.NewArticleRepository(db)
	journalistRepo := database.NewJournalistRepository(db)
	ledger := database.NewGenerationLogRepository(db)

	httpClient := &http.Client{Timeout: 30 * time.Second}
	fetcher := feed.NewFetcher(httpClient, appCfg.UserAgent)
	aggregator := feed.NewAggregator(fetcher)

	checker := dedup.NewChecker(
		dedup.NewRepositoryURLIndex(articleRepo, ledger),
		dedup.NewRepositoryTitleIndex(articleRepo, ledger),
	)

	contentClient := generator.NewOpenRouterClient(appCfg.OpenRouterAPIKey, appCfg.OpenRouterModel)
	imageClient := generator.NewReplicateClient(appCfg.ReplicateAPIKey, appCfg.ReplicateModel, appCfg.ImagesDir)
	staticPublisher := publisher.NewStaticPublisher(appCfg.SiteURL, appCfg.StaticDir)

	orchestrator := pipeline.NewOrchestrator(pipeline.Deps{
		Sources:     sourceRepo,
		Articles:    articleRepo,
		Journalists: journalistRepo,
		Ledger:      ledger,
		Aggregator:  aggregator,
		Checker:     checker,
		Content:     contentClient,
		Images:      imageClient,
		Publisher:   staticPublisher,
	})

	coordinator := pipeline.NewFileCoordinator(
		filepath.Join(os.TempDir(), "newsroom_generate_lock"),
		time.Duration(appCfg.GenerateCooldown)*time.Second,
	)

	slog.Info("Starting background scheduler", "workers", appCfg.WorkerCount, "interval_seconds", appCfg.SchedulerInterval)
	scheduler := tasks.NewScheduler(sourceRepo, ledger, coordinator, orchestrator, seedSources)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(sourceRepo, articleRepo, journalistRepo, ledger, orchestrator)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // synchronous generation runs take a while
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	slog.Info("ToutVaMal Newsroom server started")

	select {
	case sig := <-sigChan:
		slog.Info("Received shutdown signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	// Scheduler is stopped via defer
	slog.Info("Shutdown complete")
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
