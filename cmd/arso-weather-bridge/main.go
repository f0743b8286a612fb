package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpapi "github.com/i474232898/arso-weather-bridge/internal/api/http"
	"github.com/i474232898/arso-weather-bridge/internal/config"
	"github.com/i474232898/arso-weather-bridge/internal/logging"
	"github.com/i474232898/arso-weather-bridge/internal/metrics"
	"github.com/i474232898/arso-weather-bridge/internal/scheduler"
	"github.com/i474232898/arso-weather-bridge/internal/store"
	"github.com/i474232898/arso-weather-bridge/internal/weather"
	"github.com/i474232898/arso-weather-bridge/internal/weather/providers"
)

const appName = "arso-weather-bridge"

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr := logging.New(os.Stdout, cfg, appName)
	slog.SetDefault(logr)

	collector := metrics.New(prometheus.DefaultRegisterer)

	// Shared HTTP client for outbound ARSO calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	arso := providers.NewARSOClient(httpClient, providers.ClientConfig{
		APIURL:       cfg.APIURL,
		LocationsURL: cfg.LocationsURL,
		Logger:       logr,
		Metrics:      collector,
	})

	db, err := store.OpenSQLite(cfg.DatabasePath)
	if err != nil {
		logr.Error("failed to open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logr.Error("failed to close database", "error", err)
		}
	}()
	entries := store.NewEntryRepository(db)

	service := weather.NewService(store.NewMemoryStore(), arso, arso,
		weather.WithLogger(logr),
		weather.WithMetrics(collector),
		weather.WithMinUpdateInterval(cfg.MinUpdateInterval),
	)

	registerStaticEntities(service, cfg)
	saved, err := entries.List()
	if err != nil {
		logr.Error("failed to load setup entries", "error", err)
		os.Exit(1)
	}
	for _, entry := range saved {
		if _, err := service.AddEntry(entry); err != nil {
			logr.Warn("setup entry not registered", "entry_id", entry.ID, "location", entry.Location, "error", err)
		}
	}

	// Scheduler that periodically polls every entity.
	sched := scheduler.New(cfg.ScanInterval, service, logr)
	if err := sched.Start(); err != nil {
		logr.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               appName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          cfg.HTTPTimeout + 10*time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ok",
			"service":  appName,
			"entities": len(service.Entities()),
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API routes.
	httpapi.RegisterRoutes(app, httpapi.Deps{
		Service:       service,
		Entries:       entries,
		Logger:        logr,
		UpdateTimeout: cfg.HTTPTimeout,
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			logr.Error("fiber server stopped", "error", err)
		}
	}()
	logr.Info("listening", "port", cfg.Port, "scan_interval", cfg.ScanInterval)

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logr.Error("error during shutdown", "error", err)
	}
}

func registerStaticEntities(service *weather.Service, cfg *config.AppConfig) {
	pref, ok := weather.PreferenceByName(cfg.WeatherMode)
	if !ok {
		pref = weather.PreferenceObservation
	}
	for _, loc := range cfg.WeatherLocations {
		service.Register(weather.NewEntity(weather.KindWeather, loc, pref, ""))
	}
	for _, loc := range cfg.SensorLocations {
		service.Register(weather.NewEntity(weather.KindSensor, loc, weather.HorizonPreference{}, ""))
	}
}
