package app

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"opensentry/internal/camera"
	"opensentry/internal/config"
	"opensentry/internal/detection"
	"opensentry/internal/detector"
	"opensentry/internal/logger"
	"opensentry/internal/notify"
	"opensentry/internal/repository"
	"opensentry/internal/repository/sqlite"
	"opensentry/internal/routes"
	"opensentry/internal/snapshot"
	"opensentry/internal/stream"
	"opensentry/internal/ws"
)

type App struct {
	config   *config.Config
	logger   *logger.Logger
	db       *sqlite.DB
	alerts   repository.AlertRepository
	hub      *ws.Hub
	store    *snapshot.Store
	notifier *notify.Notifier
	camera   *camera.Manager
	detector detector.Detector
	streamer *stream.Streamer
}

func NewApp() (*App, error) {
	cfg := config.Load()
	log := logger.New(cfg.LogDirectory)

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("opening alert database: %w", err)
	}
	alerts := sqlite.NewAlertRepository(db)

	hub := ws.NewHub(log)
	store := snapshot.NewStore(cfg.SnapshotDirectory, log)
	throttle := notify.NewThrottle(time.Duration(cfg.NotificationTimeout) * time.Second)

	var sink notify.AlertSink
	if cfg.EmailNotifications {
		sink = notify.NewEmailSink(cfg.SenderEmail, cfg.SenderPassword,
			cfg.RecipientEmail, cfg.SMTPServer, cfg.SMTPPort)
		log.Info("Email notifications enabled, recipient: %s", cfg.RecipientEmail)
	}

	notifier := notify.NewNotifier(throttle, store, alerts, hub, sink, log)

	cam := camera.NewManager(cfg.CameraDevice,
		time.Duration(cfg.CameraIdleTimeout)*time.Second,
		time.Duration(cfg.CameraReapInterval)*time.Second, log)

	det, err := detector.NewYOLODetector(cfg.ModelPath, cfg.ModelConfigPath, cfg.ClassesPath, log)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("loading detection model: %w", err)
	}

	reducer := detection.NewReducer(cfg.ScoreThreshold, cfg.IoUThreshold, cfg.DetectionLabels)
	streamer := stream.NewStreamer(cam, det, reducer, notifier,
		time.Duration(cfg.FrameIntervalMs)*time.Millisecond, log)

	return &App{
		config:   cfg,
		logger:   log,
		db:       db,
		alerts:   alerts,
		hub:      hub,
		store:    store,
		notifier: notifier,
		camera:   cam,
		detector: det,
		streamer: streamer,
	}, nil
}

func (a *App) Run() error {
	// Start background services
	go a.hub.Run()
	go a.camera.Run()

	router := routes.SetupRoutes(a.config, a.logger, a.streamer, a.store, a.alerts, a.hub)

	fmt.Printf("🚀 OpenSentry Security Camera Service\n")
	fmt.Printf("📍 URL: http://localhost:%d\n", a.config.Port)
	fmt.Printf("🎯 Detecting: %v\n", a.config.DetectionLabels)
	fmt.Printf("📁 Snapshots: %s\n", a.config.SnapshotDirectory)
	fmt.Printf("🤖 AI Model: %s\n", a.config.ModelPath)

	server := &http.Server{Addr: fmt.Sprintf(":%d", a.config.Port), Handler: router}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		a.shutdown()
		return err
	case sig := <-quit:
		a.logger.Info("Received %v, shutting down", sig)
		server.Close()
		a.shutdown()
		return nil
	}
}

func (a *App) shutdown() {
	a.camera.Shutdown()
	a.notifier.Stop()
	if a.detector != nil {
		a.detector.Close()
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("Error closing database: %v", err)
	}
}
