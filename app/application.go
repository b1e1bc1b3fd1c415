// Package app wires configuration, storage, services, the HTTP server and the
// background scheduler into one runnable application.
package app

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"fujin.app/api"
	"fujin.app/config"
	"fujin.app/database"
	"fujin.app/providers"
	"fujin.app/repository"
	"fujin.app/scheduler"
	"fujin.app/service"
)

// Application represents the main application with all its dependencies
type Application struct {
	config    *config.Config
	db        *gorm.DB
	server    *api.Server
	scheduler *scheduler.Scheduler
}

// NewApplication creates and initializes a new application instance
func NewApplication() (*Application, error) {
	app := &Application{}

	if err := app.loadConfiguration(); err != nil {
		return nil, err
	}

	if err := app.initializeDatabase(); err != nil {
		return nil, err
	}

	app.initializeServices()

	return app, nil
}

// Config returns the loaded configuration
func (app *Application) Config() *config.Config {
	return app.config
}

func (app *Application) loadConfiguration() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load application configuration: %w", err)
	}

	app.config = cfg
	slog.Info("configuration loaded")
	return nil
}

func (app *Application) initializeDatabase() error {
	db, err := database.InitDB(app.config.Database)
	if err != nil {
		return fmt.Errorf("initialize database connection: %w", err)
	}

	if err := database.RunMigrations(db); err != nil {
		return fmt.Errorf("run database migrations: %w", err)
	}

	app.db = db
	slog.Info("database initialized")
	return nil
}

func (app *Application) initializeServices() {
	weatherProvider := providers.NewWeatherAPIProvider(&app.config.Weather)
	pushProvider := providers.NewExpoPushProvider(&app.config.Push)

	locationRepo := repository.NewLocationRepository(app.db)
	snapshotRepo := repository.NewSnapshotRepository(app.db)
	alertRepo := repository.NewAlertRuleRepository(app.db)
	deviceRepo := repository.NewDeviceRepository(app.db)

	weatherService := service.NewWeatherService(
		weatherProvider, locationRepo, snapshotRepo, app.config.Scheduler.LocationDelay)
	dispatcher := service.NewNotificationDispatcher(deviceRepo, pushProvider)
	alertService := service.NewAlertService(
		alertRepo, snapshotRepo, dispatcher, app.config.Scheduler.AlertCooldown)

	app.server = api.NewServer(app.config, weatherService, deviceRepo)
	app.scheduler = scheduler.New(app.config.Scheduler, weatherService, alertService)

	slog.Info("services initialized")
}

// Start launches the background jobs and then the HTTP server
func (app *Application) Start() error {
	if err := app.scheduler.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	slog.Info("starting HTTP server", "port", app.config.Server.Port)
	return app.server.Start()
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	slog.Info("shutting down application")

	if app.scheduler != nil {
		app.scheduler.Stop()
	}

	if app.db != nil {
		if err := database.CloseDB(app.db); err != nil {
			slog.Warn("error closing database", "error", err)
			return err
		}
	}

	return nil
}
