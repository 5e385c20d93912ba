package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frostdev-ops/home-planner-go/internal/api"
	"github.com/frostdev-ops/home-planner-go/internal/api/handlers"
	"github.com/frostdev-ops/home-planner-go/internal/config"
	"github.com/frostdev-ops/home-planner-go/internal/core/backup"
	"github.com/frostdev-ops/home-planner-go/internal/core/floorplan"
	"github.com/frostdev-ops/home-planner-go/internal/core/metrics"
	"github.com/frostdev-ops/home-planner-go/internal/core/planner"
	"github.com/frostdev-ops/home-planner-go/internal/core/system"
	"github.com/frostdev-ops/home-planner-go/internal/database"
	"github.com/frostdev-ops/home-planner-go/internal/discovery"
	"github.com/frostdev-ops/home-planner-go/internal/mqtt"
	"github.com/frostdev-ops/home-planner-go/internal/publisher"
	"github.com/frostdev-ops/home-planner-go/internal/websocket"
	"github.com/frostdev-ops/home-planner-go/pkg/logger"
	"github.com/frostdev-ops/home-planner-go/pkg/version"
	"golang.org/x/sync/errgroup"
)

func main() {
	configFile := flag.String("config", "", "path to the configuration file")
	flag.Parse()

	// Initialize logger
	log := logger.New()

	// Load configuration
	cfg, err := config.LoadFrom(*configFile)
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}
	log = logger.NewWithOptions(logger.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	log.WithField("version", version.Short()).Info("Starting Home Planner")

	// Initialize database
	db, err := database.Initialize(cfg.Database)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db.DB, cfg.Database.MigrationsPath); err != nil {
			log.Fatal("Failed to run migrations:", err)
		}
	}

	var (
		collector      metrics.Collector = metrics.NoopCollector{}
		metricsHandler http.Handler
	)
	if cfg.Metrics.Enabled {
		prom := metrics.NewPrometheusCollector(&metrics.Config{Enabled: true})
		collector = prom
		metricsHandler = prom.Handler()
	}

	events := publisher.NewRegistry(log.Logger)
	svc := planner.NewService(database.NewRepositories(db), events, collector, floorplan.NewProcessor(cfg.Floorplan), log.Logger)

	hub := websocket.NewHub(svc, websocket.OptionsFromConfig(cfg.WebSocket, cfg.Security.AllowedOrigins, collector), log.Logger)
	if err := events.Register("websocket", hub); err != nil {
		log.Fatal("Failed to register websocket publisher:", err)
	}

	if cfg.MQTT.Enabled {
		broker := mqtt.New(mqtt.NewClient(cfg.MQTT), cfg.MQTT.TopicPrefix, byte(cfg.MQTT.QoS))
		if err := broker.Connect(); err != nil {
			log.WithError(err).Warn("Failed to connect to MQTT broker, change events will not be mirrored")
		} else {
			defer broker.Disconnect()
			if err := events.Register("mqtt", broker); err != nil {
				log.Fatal("Failed to register mqtt publisher:", err)
			}
		}
	}

	backups, err := backup.NewManager(cfg.Backup, svc, collector, log.Logger)
	if err != nil {
		log.Fatal("Failed to initialize backups:", err)
	}
	if err := backups.Start(); err != nil {
		log.Fatal("Failed to schedule backups:", err)
	}
	defer backups.Stop()

	health := system.NewService(db, cfg.Database.Path, collector, log.Logger)

	router := api.NewRouter(api.RouterDeps{
		Config:         cfg,
		Handlers:       handlers.NewHandlers(cfg, svc, backups, health, hub, log.Logger),
		Logger:         log,
		Metrics:        collector,
		MetricsHandler: metricsHandler,
		Hub:            hub,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(ctx)
		return nil
	})

	if cfg.Metrics.Enabled {
		g.Go(func() error {
			return health.Monitor(ctx, time.Minute)
		})
	}

	if cfg.Discovery.Enabled {
		g.Go(func() error {
			if err := discovery.Advertise(ctx, cfg.Discovery, cfg.Server.Port, log.Logger); err != nil {
				log.WithError(err).Warn("mDNS advertisement failed")
			}
			return nil
		})
	}

	g.Go(func() error {
		log.Infof("Listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Error("Server stopped with error")
		log.FlushPending()
		os.Exit(1)
	}

	log.FlushPending()
	log.Info("Server exited")
}
