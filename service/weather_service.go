package service

import (
	"context"
	"log/slog"
	"time"

	"fujin.app/metrics"
	"fujin.app/models"
	"fujin.app/providers"
)

// WeatherService keeps the snapshot cache fresh and serves reads from it
type WeatherService struct {
	provider      providers.WeatherProvider
	locations     LocationStore
	snapshots     SnapshotStore
	locationDelay time.Duration
}

// NewWeatherService creates the refresh/read service for cached weather.
// locationDelay is the spacing between provider calls during a batch refresh,
// there to respect the provider's rate limit.
func NewWeatherService(
	provider providers.WeatherProvider,
	locations LocationStore,
	snapshots SnapshotStore,
	locationDelay time.Duration,
) *WeatherService {
	return &WeatherService{
		provider:      provider,
		locations:     locations,
		snapshots:     snapshots,
		locationDelay: locationDelay,
	}
}

// RefreshNow fetches fresh provider data for one tracked location and commits
// it through the cache store's atomic replace. This is also the bootstrap path
// used when a read finds no cache.
func (s *WeatherService) RefreshNow(ctx context.Context, locationID string) (*models.WeatherSnapshot, error) {
	location, err := s.locations.FindByID(locationID)
	if err != nil {
		return nil, err
	}

	envelope, err := s.provider.GetForecastByCoords(ctx, location.Latitude, location.Longitude)
	if err != nil {
		metrics.ProviderCalls.WithLabelValues("error").Inc()
		metrics.Refreshes.WithLabelValues("failure").Inc()
		return nil, err
	}
	metrics.ProviderCalls.WithLabelValues("ok").Inc()

	snapshot := BuildSnapshot(envelope)
	if err := s.snapshots.Replace(locationID, snapshot); err != nil {
		metrics.Refreshes.WithLabelValues("failure").Inc()
		return nil, err
	}
	metrics.Refreshes.WithLabelValues("success").Inc()

	slog.Info("snapshot refreshed", "location_id", locationID, "name", location.Name,
		"timestamp", snapshot.Timestamp)
	return snapshot, nil
}

// RefreshAll refreshes every tracked location in sequence, spacing provider
// calls by the configured delay. One location's failure is logged and does not
// abort the rest of the batch; its previous snapshot stays in place untouched.
func (s *WeatherService) RefreshAll(ctx context.Context) error {
	locations, err := s.locations.List()
	if err != nil {
		return err
	}

	slog.Info("starting cache refresh", "locations", len(locations))

	for i, location := range locations {
		if i > 0 {
			select {
			case <-time.After(s.locationDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if _, err := s.RefreshNow(ctx, location.ID); err != nil {
			slog.Warn("refresh failed for location, keeping previous snapshot",
				"location_id", location.ID, "name", location.Name, "error", err)
		}
	}

	slog.Info("cache refresh finished", "locations", len(locations))
	return nil
}

// Latest returns the cached snapshot for a location, or NotFound
func (s *WeatherService) Latest(locationID string) (*models.WeatherSnapshot, error) {
	return s.snapshots.Latest(locationID)
}

// LiveByCoords fetches current+forecast for an ad-hoc coordinate pair without
// touching the cache. Used for GPS/search results that are not tracked.
func (s *WeatherService) LiveByCoords(ctx context.Context, lat, lon float64) (*models.WeatherSnapshot, error) {
	envelope, err := s.provider.GetForecastByCoords(ctx, lat, lon)
	if err != nil {
		metrics.ProviderCalls.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.ProviderCalls.WithLabelValues("ok").Inc()
	return BuildSnapshot(envelope), nil
}

// Search proxies the provider's location search
func (s *WeatherService) Search(ctx context.Context, query string) ([]providers.SearchResult, error) {
	results, err := s.provider.SearchLocations(ctx, query)
	if err != nil {
		metrics.ProviderCalls.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.ProviderCalls.WithLabelValues("ok").Inc()
	return results, nil
}

// BuildSnapshot maps a provider forecast envelope onto the internal snapshot
// tree. The provider's first forecast day is "today", already covered by the
// current-conditions block, so it is dropped: an 8-day envelope stores 7 days.
// All values stay in source units (Celsius, km/h).
func BuildSnapshot(envelope *providers.ForecastResponse) *models.WeatherSnapshot {
	current := envelope.Current

	snapshot := &models.WeatherSnapshot{
		Timestamp:     time.Unix(current.LastUpdatedEpoch, 0).UTC(),
		Temperature:   current.TempC,
		FeelsLike:     current.FeelsLikeC,
		Humidity:      current.Humidity,
		WindSpeed:     current.WindKph,
		WindDirection: current.WindDir,
		RainProb:      current.PrecipMm,
		UVIndex:       current.UV,
		Pressure:      current.PressureMb,
		DewPoint:      current.DewPointC,
		AirQuality: &models.AirQuality{
			CO:         current.AirQuality.CO,
			NO2:        current.AirQuality.NO2,
			O3:         current.AirQuality.O3,
			SO2:        current.AirQuality.SO2,
			PM25:       current.AirQuality.PM25,
			PM10:       current.AirQuality.PM10,
			USEPAIndex: current.AirQuality.USEPAIndex,
		},
	}

	days := envelope.Forecast.ForecastDay
	if len(days) > 0 {
		days = days[1:]
	}

	for _, day := range days {
		date, err := time.Parse("2006-01-02", day.Date)
		if err != nil {
			date = time.Unix(day.DateEpoch, 0).UTC()
		}

		forecast := models.ForecastDay{
			Date:      date,
			MinTemp:   day.Day.MinTempC,
			MaxTemp:   day.Day.MaxTempC,
			RainProb:  day.Day.DailyChanceOfRain,
			Humidity:  day.Day.AvgHumidity,
			UVIndex:   day.Day.UV,
			Sunrise:   day.Astro.Sunrise,
			Sunset:    day.Astro.Sunset,
			MoonPhase: day.Astro.MoonPhase,
		}

		for _, hour := range day.Hour {
			forecast.Hours = append(forecast.Hours, models.HourlyPoint{
				Time:        time.Unix(hour.TimeEpoch, 0).UTC(),
				Temperature: hour.TempC,
				WindSpeed:   hour.WindKph,
				Humidity:    hour.Humidity,
				RainProb:    hour.ChanceOfRain,
				Condition:   hour.Condition.Text,
				IconURL:     hour.Condition.Icon,
			})
		}

		snapshot.Forecasts = append(snapshot.Forecasts, forecast)
	}

	return snapshot
}
