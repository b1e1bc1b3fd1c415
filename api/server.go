// Package api exposes the cache engine's HTTP surface.
package api

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fujin.app/config"
	"fujin.app/models"
	apperrors "fujin.app/pkg/errors"
	"fujin.app/providers"
	"fujin.app/service"
	"fujin.app/units"
)

// WeatherEngine is the core surface the API layer consumes
type WeatherEngine interface {
	RefreshNow(ctx context.Context, locationID string) (*models.WeatherSnapshot, error)
	Latest(locationID string) (*models.WeatherSnapshot, error)
	LiveByCoords(ctx context.Context, lat, lon float64) (*models.WeatherSnapshot, error)
	Search(ctx context.Context, query string) ([]providers.SearchResult, error)
}

// DeviceRegistry registers push tokens for users
type DeviceRegistry interface {
	Register(userID, token string) error
}

// Server represents the HTTP server and API handler
type Server struct {
	router  *gin.Engine
	config  *config.Config
	weather WeatherEngine
	devices DeviceRegistry
}

// NewServer creates and configures a new HTTP server
func NewServer(config *config.Config, weather WeatherEngine, devices DeviceRegistry) *Server {
	router := gin.Default()

	server := &Server{
		router:  router,
		config:  config,
		weather: weather,
		devices: devices,
	}

	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api")
	{
		api.GET("/locations/:id/weather", s.getWeather)
		api.POST("/locations/:id/refresh", s.refreshWeather)
		api.GET("/weather", s.getWeatherByCoords)
		api.GET("/search", s.searchLocations)
		api.PUT("/devices/:userId", s.registerDevice)
	}

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// Start begins the HTTP server
func (s *Server) Start() error {
	return s.router.Run(fmt.Sprintf(":%d", s.config.Server.Port))
}

// GetRouter returns the router for testing purposes
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// getWeather serves the latest cached snapshot. A cache miss triggers the
// on-demand bootstrap refresh, the only synchronous write outside the
// scheduler, which goes through the same atomic-replace path.
func (s *Server) getWeather(c *gin.Context) {
	locationID := c.Param("id")

	snapshot, err := s.weather.Latest(locationID)
	if apperrors.IsNotFoundError(err) {
		slog.Info("cache miss, bootstrapping snapshot", "location_id", locationID)
		snapshot, err = s.weather.RefreshNow(c.Request.Context(), locationID)
	}
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, service.FormatSnapshot(snapshot, preferencesFromQuery(c)))
}

func (s *Server) refreshWeather(c *gin.Context) {
	locationID := c.Param("id")

	snapshot, err := s.weather.RefreshNow(c.Request.Context(), locationID)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, service.FormatSnapshot(snapshot, preferencesFromQuery(c)))
}

func (s *Server) getWeatherByCoords(c *gin.Context) {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lon, lonErr := strconv.ParseFloat(c.Query("lon"), 64)
	if latErr != nil || lonErr != nil {
		s.handleError(c, apperrors.NewValidationError("lat and lon query parameters are required"))
		return
	}

	snapshot, err := s.weather.LiveByCoords(c.Request.Context(), lat, lon)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, service.FormatSnapshot(snapshot, preferencesFromQuery(c)))
}

func (s *Server) searchLocations(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		s.handleError(c, apperrors.NewValidationError("q parameter is required"))
		return
	}

	results, err := s.weather.Search(c.Request.Context(), query)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}

func (s *Server) registerDevice(c *gin.Context) {
	userID := c.Param("userId")

	var req models.DeviceRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.handleError(c, apperrors.NewValidationError("push_token is required"))
		return
	}

	if err := s.devices.Register(userID, req.PushToken); err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Push token registered"})
}

// preferencesFromQuery reads the display units for this one response. The
// defaults are an explicit value, not process-wide mutable state.
func preferencesFromQuery(c *gin.Context) units.Preferences {
	prefs := units.DefaultPreferences()
	if c.Query("unit_temp") == string(units.Fahrenheit) {
		prefs.TempUnit = units.Fahrenheit
	}
	if c.Query("unit_speed") == string(units.Mph) {
		prefs.SpeedUnit = units.Mph
	}
	if format := c.Query("hour_format"); format == "h12" || format == "h24" {
		prefs.HourFormat = format
	}
	return prefs
}

// handleError maps application errors onto HTTP statuses
func (s *Server) handleError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	var statusCode int
	var message string

	if stderrors.As(err, &appErr) {
		switch appErr.Type {
		case apperrors.ErrorTypeValidation:
			statusCode = http.StatusBadRequest
			message = appErr.Message
		case apperrors.ErrorTypeNotFound:
			statusCode = http.StatusNotFound
			message = appErr.Message
		case apperrors.ErrorTypeProvider:
			statusCode = http.StatusServiceUnavailable
			message = "Weather provider unavailable, try again"
		case apperrors.ErrorTypePersistence:
			statusCode = http.StatusInternalServerError
			message = "Internal server error"
		case apperrors.ErrorTypeDelivery:
			statusCode = http.StatusServiceUnavailable
			message = "Unable to deliver notification"
		default:
			statusCode = http.StatusInternalServerError
			message = "Internal server error"
		}
	} else {
		statusCode = http.StatusInternalServerError
		message = "Internal server error"
	}

	slog.Error("request failed", "status", statusCode, "error", err)
	c.JSON(statusCode, models.ErrorResponse{Error: message})
}
