package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/xvierd/flow-grid/internal/adapters/git"
	"github.com/xvierd/flow-grid/internal/adapters/notification"
	"github.com/xvierd/flow-grid/internal/adapters/storage"
	"github.com/xvierd/flow-grid/internal/config"
	"github.com/xvierd/flow-grid/internal/ports"
	"github.com/xvierd/flow-grid/internal/services"
	"github.com/xvierd/flow-grid/internal/timer"
)

// appDeps groups all service-layer dependencies initialized at startup.
type appDeps struct {
	storage    ports.Storage
	tasks      *services.TaskService
	history    *services.HistoryService
	state      *services.StateService
	git        ports.GitDetector
	notifier   *notification.Notifier
	config     *config.Config
	configPath string
	logFile    *os.File
}

// app holds all initialized service dependencies.
// Populated by initializeServices() and accessible to all commands.
var app appDeps

// initializeServices sets up all the required services and adapters.
func initializeServices() error {
	app = appDeps{}

	path := configPath
	if path == "" {
		var err error
		if path, err = config.GetConfigPath(); err != nil {
			return err
		}
	}
	app.configPath = path

	cfg, err := config.LoadFrom(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if storeFlag != "" {
		cfg.Storage.Backend = storeFlag
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	app.config = cfg

	if err := os.MkdirAll(cfg.Storage.DataDir, 0750); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	// The TUI owns the terminal, so diagnostics go to a file.
	app.logFile, err = os.OpenFile(config.LogPath(cfg), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	log.SetOutput(app.logFile)

	storePath := dbPath
	if storePath == "" {
		storePath = config.StorePath(cfg)
	}
	if err := os.MkdirAll(filepath.Dir(storePath), 0750); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	app.storage, err = storage.Open(cfg.Storage.Backend, storePath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	app.notifier = notification.New(&cfg.Notifications)
	if cfg.Git.Enabled {
		app.git = git.NewDetector()
	}

	app.tasks = services.NewTaskService(app.storage)
	app.history = services.NewHistoryService(app.storage)
	app.state = services.NewStateService(app.storage, app.tasks, app.history)
	return nil
}

// newEngine restores the timer engine from storage.
func newEngine(ctx context.Context) (*timer.Engine, error) {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	engine, err := services.NewTimer(ctx, app.config.TimerSettings(), app.storage, app.tasks, services.TimerOptions{
		Effects:     app.notifier,
		GitDetector: app.git,
		WorkingDir:  wd,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to restore timer: %w", err)
	}
	return engine, nil
}

// cleanupServices closes all resources.
func cleanupServices() error {
	var err error
	if app.storage != nil {
		err = app.storage.Close()
		app.storage = nil
	}
	if app.logFile != nil {
		log.SetOutput(os.Stderr)
		app.logFile.Close()
		app.logFile = nil
	}
	return err
}

// setupSignalHandler sets up a context that cancels on interrupt signals.
func setupSignalHandler() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		cancel()
	}()

	return ctx
}
