package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"fujin.app/models"
	"fujin.app/pkg/errors"
	"fujin.app/providers"
	"fujin.app/repository"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.TrackedLocation{},
		&models.WeatherSnapshot{},
		&models.AirQuality{},
		&models.ForecastDay{},
		&models.HourlyPoint{},
		&models.AlertRule{},
		&models.DeviceRegistration{},
	))
	return db
}

func seedLocation(t *testing.T, db *gorm.DB, name string, lat, lon float64) *models.TrackedLocation {
	t.Helper()

	location := &models.TrackedLocation{UserID: "user-1", Name: name, Latitude: lat, Longitude: lon}
	require.NoError(t, db.Create(location).Error)
	return location
}

// sampleEnvelope builds a provider forecast envelope with the given day count
func sampleEnvelope(days int, windKph float64) *providers.ForecastResponse {
	envelope := &providers.ForecastResponse{}
	envelope.Current = providers.Current{
		LastUpdatedEpoch: 1700000000,
		TempC:            22.5,
		FeelsLikeC:       24.0,
		WindKph:          windKph,
		WindDir:          "SE",
		Humidity:         71,
		PressureMb:       1015,
		PrecipMm:         0.2,
		UV:               6,
		DewPointC:        16.9,
		AirQuality:       providers.AirQuality{CO: 233.6, PM25: 7.9, USEPAIndex: 1},
	}
	for i := 0; i < days; i++ {
		envelope.Forecast.ForecastDay = append(envelope.Forecast.ForecastDay, providers.ForecastDay{
			Date:      time.Date(2023, 11, 14+i, 0, 0, 0, 0, time.UTC).Format("2006-01-02"),
			DateEpoch: time.Date(2023, 11, 14+i, 0, 0, 0, 0, time.UTC).Unix(),
			Day: providers.Day{
				MinTempC: 17, MaxTempC: 27, DailyChanceOfRain: 40, AvgHumidity: 70, UV: 7,
			},
			Astro: providers.Astro{Sunrise: "05:12 AM", Sunset: "06:31 PM", MoonPhase: "Waxing Crescent"},
			Hour: []providers.Hour{
				{TimeEpoch: time.Date(2023, 11, 14+i, 9, 0, 0, 0, time.UTC).Unix(),
					TempC: 18, WindKph: 9, Humidity: 80, ChanceOfRain: 10,
					Condition: providers.Condition{Text: "Clear"}},
			},
		})
	}
	return envelope
}

// fakeProvider records calls and fails for configured coordinates
type fakeProvider struct {
	mu        sync.Mutex
	envelope  *providers.ForecastResponse
	callTimes []time.Time
	failLats  map[float64]bool
}

func (f *fakeProvider) SearchLocations(_ context.Context, _ string) ([]providers.SearchResult, error) {
	return nil, nil
}

func (f *fakeProvider) GetForecastByID(_ context.Context, _ string) (*providers.ForecastResponse, error) {
	return f.envelope, nil
}

func (f *fakeProvider) GetForecastByCoords(_ context.Context, lat, _ float64) (*providers.ForecastResponse, error) {
	f.mu.Lock()
	f.callTimes = append(f.callTimes, time.Now())
	fail := f.failLats[lat]
	f.mu.Unlock()

	if fail {
		return nil, errors.NewProviderError("provider unreachable", nil)
	}
	return f.envelope, nil
}

func TestBuildSnapshot_DropsTodayFromForecast(t *testing.T) {
	snapshot := BuildSnapshot(sampleEnvelope(8, 14))

	// 8-day provider payload minus "today"
	require.Len(t, snapshot.Forecasts, 7)
	assert.Equal(t, "2023-11-15", snapshot.Forecasts[0].Date.Format("2006-01-02"))

	assert.Equal(t, time.Unix(1700000000, 0).UTC(), snapshot.Timestamp)
	assert.InDelta(t, 22.5, snapshot.Temperature, 0.0001)
	assert.InDelta(t, 0.2, snapshot.RainProb, 0.0001)
	require.NotNil(t, snapshot.AirQuality)
	assert.Equal(t, 1, snapshot.AirQuality.USEPAIndex)
	require.Len(t, snapshot.Forecasts[0].Hours, 1)
	assert.Equal(t, "Clear", snapshot.Forecasts[0].Hours[0].Condition)
}

func TestRefreshNow_CommitsThroughAtomicReplace(t *testing.T) {
	db := setupTestDB(t)
	location := seedLocation(t, db, "Home", -23.18, -45.89)

	provider := &fakeProvider{envelope: sampleEnvelope(8, 14)}
	svc := NewWeatherService(provider,
		repository.NewLocationRepository(db), repository.NewSnapshotRepository(db), 0)

	snapshot, err := svc.RefreshNow(context.Background(), location.ID)
	require.NoError(t, err)
	assert.Len(t, snapshot.Forecasts, 7)

	stored, err := svc.Latest(location.ID)
	require.NoError(t, err)
	assert.Equal(t, location.ID, stored.LocationID)
	assert.Len(t, stored.Forecasts, 7)
}

func TestRefreshNow_UnknownLocation(t *testing.T) {
	db := setupTestDB(t)
	provider := &fakeProvider{envelope: sampleEnvelope(8, 14)}
	svc := NewWeatherService(provider,
		repository.NewLocationRepository(db), repository.NewSnapshotRepository(db), 0)

	_, err := svc.RefreshNow(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.IsNotFoundError(err))
	assert.Empty(t, provider.callTimes, "provider must not be called for an unknown location")
}

func TestRefreshNow_FailureKeepsPreviousSnapshot(t *testing.T) {
	db := setupTestDB(t)
	location := seedLocation(t, db, "Home", -23.18, -45.89)

	provider := &fakeProvider{envelope: sampleEnvelope(8, 14), failLats: map[float64]bool{}}
	svc := NewWeatherService(provider,
		repository.NewLocationRepository(db), repository.NewSnapshotRepository(db), 0)

	_, err := svc.RefreshNow(context.Background(), location.ID)
	require.NoError(t, err)
	before, err := svc.Latest(location.ID)
	require.NoError(t, err)

	provider.failLats[-23.18] = true
	_, err = svc.RefreshNow(context.Background(), location.ID)
	require.Error(t, err)
	assert.True(t, errors.IsProviderError(err))

	// the previous capture is still served, its timestamp not backdated
	after, err := svc.Latest(location.ID)
	require.NoError(t, err)
	assert.Equal(t, before.Timestamp.Unix(), after.Timestamp.Unix())
	assert.Len(t, after.Forecasts, 7)
}

func TestRefreshAll_SequentialWithSpacingAndIsolation(t *testing.T) {
	db := setupTestDB(t)
	first := seedLocation(t, db, "A", 1, 1)
	second := seedLocation(t, db, "B", 2, 2)
	third := seedLocation(t, db, "C", 3, 3)

	delay := 30 * time.Millisecond
	provider := &fakeProvider{
		envelope: sampleEnvelope(8, 14),
		failLats: map[float64]bool{2: true}, // the middle location fails
	}
	svc := NewWeatherService(provider,
		repository.NewLocationRepository(db), repository.NewSnapshotRepository(db), delay)

	require.NoError(t, svc.RefreshAll(context.Background()))

	// exactly one provider call per tracked location
	require.Len(t, provider.callTimes, 3)
	for i := 1; i < len(provider.callTimes); i++ {
		gap := provider.callTimes[i].Sub(provider.callTimes[i-1])
		assert.GreaterOrEqual(t, gap, delay, "calls %d and %d too close together", i-1, i)
	}

	// the failed location keeps no snapshot; its failure did not stop the batch
	_, err := svc.Latest(first.ID)
	assert.NoError(t, err)
	_, err = svc.Latest(second.ID)
	assert.True(t, errors.IsNotFoundError(err))
	_, err = svc.Latest(third.ID)
	assert.NoError(t, err)
}

func TestRefreshAll_CancelledContextStopsBatch(t *testing.T) {
	db := setupTestDB(t)
	seedLocation(t, db, "A", 1, 1)
	seedLocation(t, db, "B", 2, 2)

	provider := &fakeProvider{envelope: sampleEnvelope(8, 14)}
	svc := NewWeatherService(provider,
		repository.NewLocationRepository(db), repository.NewSnapshotRepository(db), time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := svc.RefreshAll(ctx)
	require.Error(t, err)
	assert.LessOrEqual(t, len(provider.callTimes), 1)
}
