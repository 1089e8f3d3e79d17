package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stepcut/stepcut-agent/internal/api"
	"github.com/stepcut/stepcut-agent/internal/cloud"
	"github.com/stepcut/stepcut-agent/internal/config"
	"github.com/stepcut/stepcut-agent/internal/db"
	"github.com/stepcut/stepcut-agent/internal/editor"
	"github.com/stepcut/stepcut-agent/internal/export"
	"github.com/stepcut/stepcut-agent/internal/jobs"
	"github.com/stepcut/stepcut-agent/internal/logging"
	"github.com/stepcut/stepcut-agent/internal/media"
	"github.com/stepcut/stepcut-agent/internal/metrics"
	"github.com/stepcut/stepcut-agent/internal/playback"
	"github.com/stepcut/stepcut-agent/internal/thumbs"
	"github.com/stepcut/stepcut-agent/internal/ui"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	startTime := time.Now()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	if err := os.MkdirAll(cfg.ThumbsDir(), 0755); err != nil {
		return fmt.Errorf("failed to create thumbnails dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting stepcut agent",
		"version", config.Version,
		"data_dir", logging.SanitizePath(cfg.DataDir()),
	)

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := editor.NewRepository(database.Conn())

	deviceID, err := ensureConfigValue(repo, "device_id", 16)
	if err != nil {
		return fmt.Errorf("failed to ensure device ID: %w", err)
	}

	authToken, err := ensureConfigValue(repo, "auth_token", 32)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Println("║                    STEPCUT AGENT v" + config.Version + "                   ║")
	fmt.Println("╠═══════════════════════════════════════════════════════════╣")
	fmt.Printf("║  API URL:    http://127.0.0.1:%-27d ║\n", cfg.Port())
	fmt.Printf("║  Auth Token: %-45s ║\n", authToken)
	fmt.Printf("║  Device ID:  %-45s ║\n", deviceID[:16]+"...")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	var cloudClient cloud.Client
	if cfg.CloudURL() != "" && cfg.CloudToken() != "" {
		httpClient := cloud.NewHTTPClient(cfg.CloudURL(), cfg.CloudToken(), logger)
		httpClient.SetDeviceID(deviceID)
		cloudClient = httpClient
		logger.Info("cloud submission enabled", "base_url", cfg.CloudURL())
	} else {
		cloudClient = cloud.NewStubClient(logger)
	}

	manager := editor.NewManager(logger)
	sessions := api.NewSessions(manager, cfg.DebounceWindow(), cfg.SettleFallback(), logger)
	defer sessions.CloseAll()

	samplerFactory := func(draft *editor.Draft) (*thumbs.Sampler, error) {
		if draft.Duration <= 0 {
			return nil, fmt.Errorf("draft %s has no known duration", draft.ID)
		}
		// No frame-decoding backend ships in v0; drafts get a placeholder
		// strip rendered from synthetic frames until one lands.
		logger.Info("generating placeholder thumbnail strip (synthetic capture backend)",
			"draft_id", draft.ID)
		handle := media.NewFakeHandle(draft.Duration)
		queue := media.NewSeekQueue(handle)
		return thumbs.NewSampler(handle, queue, logger), nil
	}

	runner := jobs.NewRunner(repo, cloudClient, samplerFactory, cfg.ThumbsDir(), logger)
	runner.SetThumbCount(cfg.ThumbCount())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go runner.Start(ctx)

	apiServer := api.NewServer(api.ServerConfig{
		Port:       cfg.Port(),
		Sessions:   sessions,
		Repository: repo,
		Runner:     runner,
		FileServer: playback.NewFileServer(logger),
		Exporter:   export.NewExporter(repo, logger),
		Metrics:    metrics.New(),
		Logger:     logger,
		StartTime:  startTime,
		DeviceID:   deviceID,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	quitCh := make(chan struct{})

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			close(quitCh)
		case <-quitCh:
		}
	}()

	if cfg.Headless() {
		logger.Info("running in headless mode (no system tray)")
	} else {
		tray := ui.NewTray(ui.TrayConfig{
			Sessions: sessions,
			Runner:   runner,
			Logger:   logger,
			OnOpenEditor: func() error {
				logger.Info("open editor requested from tray (browser launch not implemented in v0)")
				return nil
			},
			OnQuit: func() {
				close(quitCh)
			},
		})
		go tray.Run()

		go func() {
			ticker := time.NewTicker(5 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					tray.UpdateSessionsCount(sessions.Count())
				case <-quitCh:
					return
				}
			}
		}()
	}

	<-quitCh

	logger.Info("initiating graceful shutdown")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// ensureConfigValue returns the stored value for key, generating and
// persisting a random hex value of byteLen bytes on first run.
func ensureConfigValue(repo editor.Repository, key string, byteLen int) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, key)
	if err == nil && existing != "" {
		return existing, nil
	}

	raw := make([]byte, byteLen)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	value := hex.EncodeToString(raw)

	if err := repo.SetConfig(ctx, key, value); err != nil {
		return "", err
	}

	return value, nil
}
