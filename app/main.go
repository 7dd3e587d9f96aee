package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/botsieve/botsieve/app/api"
	"github.com/botsieve/botsieve/app/bridge"
	"github.com/botsieve/botsieve/app/cfg"
	"github.com/botsieve/botsieve/app/database"
	"github.com/botsieve/botsieve/app/detect"
	"github.com/botsieve/botsieve/app/settings"
	"github.com/botsieve/botsieve/app/stream"
	"github.com/botsieve/botsieve/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	level := slog.LevelInfo
	if appCfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	slog.Info("Starting Bot Sieve", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "migration_version", version, "dirty", dirty)

	annotations := database.NewAnnotationStore(db)

	settingsCache := settings.NewCache(appCfg.SettingsFile)
	if err := settingsCache.Load(); err != nil {
		slog.Warn("Failed to load settings, using defaults", "error", err)
	}
	if err := settingsCache.Watch(); err != nil {
		slog.Warn("Settings file watch unavailable, edits require restart", "error", err)
	}
	defer settingsCache.Close()

	httpClient := &http.Client{}
	client := detect.NewClient(httpClient, appCfg.UserAgent)
	analyzer := detect.NewAnalyzer(client, detect.NewScorer())

	scheduler := tasks.NewScheduler(annotations)
	scheduler.Start()
	defer scheduler.Stop()

	router := bridge.NewRouter(annotations, analyzer, client, scheduler, settingsCache)
	router.Start()
	defer router.Stop()

	tree := stream.NewTree()
	observer := stream.NewObserver(tree, router, settingsCache, appCfg.SeenKeyLimit)
	observer.Start()
	defer observer.Stop()

	if appCfg.ReplayFeedFile != "" {
		data, err := os.ReadFile(appCfg.ReplayFeedFile)
		if err != nil {
			slog.Warn("Failed to read replay feed", "path", appCfg.ReplayFeedFile, "error", err)
		} else {
			count, err := stream.NewFeedSource().Replay(data, tree)
			if err != nil {
				slog.Warn("Failed to replay feed", "path", appCfg.ReplayFeedFile, "error", err)
			} else {
				slog.Info("Replayed comments from feed", "path", appCfg.ReplayFeedFile, "count", count)
			}
		}
	}

	handler := api.NewHandler(tree, observer, router, annotations, settingsCache)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Observer, router and scheduler are stopped via defer
	slog.Info("Shutdown complete")
}
