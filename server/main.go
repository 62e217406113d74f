package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/phambaophuc/flyer-maker/internal/config"
	"github.com/phambaophuc/flyer-maker/internal/http/handlers"
	"github.com/phambaophuc/flyer-maker/internal/http/routes"
	"github.com/phambaophuc/flyer-maker/internal/services/compositor"
	"github.com/phambaophuc/flyer-maker/internal/services/crop"
	"github.com/phambaophuc/flyer-maker/internal/services/processor"
	"github.com/phambaophuc/flyer-maker/internal/services/queue"
	"github.com/phambaophuc/flyer-maker/internal/services/session"
	"github.com/phambaophuc/flyer-maker/internal/services/storage"
	"github.com/phambaophuc/flyer-maker/internal/services/template"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Initialize services
	imageProcessor := processor.NewImageProcessor(cfg.Storage.MaxFileSize)

	flyerCompositor, err := compositor.New(compositor.LayoutFromConfig(cfg.Layout.Flyer))
	if err != nil {
		logger.Fatal("Invalid flyer layout", zap.Error(err))
	}

	var (
		templateSource template.Source = template.FileSource{Path: cfg.Storage.TemplatePath}
		storageHealth  handlers.StorageHealth
		events         handlers.EventPublisher
	)

	if cfg.Supabase.Enabled() {
		storageService, err := storage.NewStorageService(cfg, logger)
		if err != nil {
			logger.Warn("Failed to initialize storage service, using local template", zap.Error(err))
		} else {
			defer storageService.Close()
			templateSource = storageService
			storageHealth = storageService
		}
	}

	if cfg.RabbitMQ.URL != "" {
		queueService, err := queue.NewQueueService(cfg.RabbitMQ.URL, logger)
		if err != nil {
			logger.Warn("Failed to initialize queue service", zap.Error(err))
			// Continue without flyer events
		} else {
			defer queueService.Close()
			events = queueService
		}
	}

	loader := template.NewLoader(templateSource, imageProcessor, flyerCompositor.Layout(), logger)

	sessions, err := session.NewManager(session.Dependencies{
		Viewport:   crop.ViewportFromConfig(cfg.Layout.Viewport),
		Compositor: flyerCompositor,
		Processor:  imageProcessor,
		Templates:  loader,
	}, cfg.Session.TTL)
	if err != nil {
		logger.Fatal("Invalid viewport layout", zap.Error(err))
	}

	// Initialize handlers
	flyerHandler := handlers.NewFlyerHandler(sessions, imageProcessor, loader, storageHealth, events, logger, cfg)

	router := routes.NewRouter(flyerHandler, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Handler:      router.SetupRoutes(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	// Template loads in the background; sessions report it as
	// unavailable until it is installed.
	g.Go(func() error {
		if err := loader.Load(gctx); err != nil {
			logger.Error("Template could not be loaded", zap.Error(err))
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("Starting server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		sweepSessions(gctx, sessions, cfg.Session.SweepInterval, logger)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
	}

	logger.Info("Server exited")
}

// sweepSessions drops idle sessions until ctx is done.
func sweepSessions(ctx context.Context, sessions *session.Manager, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := sessions.Sweep(); removed > 0 {
				logger.Info("Idle sessions removed",
					zap.Int("removed", removed),
					zap.Int("active", sessions.Len()),
				)
			}
		}
	}
}
