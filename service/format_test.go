package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fujin.app/models"
	"fujin.app/units"
)

func formatFixture() *models.WeatherSnapshot {
	return &models.WeatherSnapshot{
		LocationID:  "loc-1",
		Timestamp:   time.Date(2023, 11, 14, 12, 0, 0, 0, time.UTC),
		Temperature: 20,
		FeelsLike:   22,
		WindSpeed:   32.18,
		Humidity:    65,
		AirQuality:  &models.AirQuality{PM25: 7.9, USEPAIndex: 1},
		Forecasts: []models.ForecastDay{
			{
				Date:    time.Date(2023, 11, 15, 0, 0, 0, 0, time.UTC),
				MinTemp: 10,
				MaxTemp: 30,
				Hours: []models.HourlyPoint{
					{Time: time.Date(2023, 11, 15, 9, 0, 0, 0, time.UTC), Temperature: 15, WindSpeed: 16.09},
				},
			},
		},
	}
}

func TestFormatSnapshot_DefaultUnitsPassThrough(t *testing.T) {
	report := FormatSnapshot(formatFixture(), units.DefaultPreferences())

	assert.InDelta(t, 20, report.Current.Temp, 0.0001)
	assert.InDelta(t, 32.18, report.Current.Wind, 0.0001)
	assert.Equal(t, "C", report.Current.TempUnit)
	assert.Equal(t, "kph", report.Current.SpeedUnit)

	require.Len(t, report.Forecasts, 1)
	assert.InDelta(t, 10, report.Forecasts[0].MinTemp, 0.0001)
	require.Len(t, report.Forecasts[0].Hourly, 1)
	assert.InDelta(t, 16.09, report.Forecasts[0].Hourly[0].WindSpeed, 0.0001)
}

func TestFormatSnapshot_ImperialConversion(t *testing.T) {
	prefs := units.Preferences{TempUnit: units.Fahrenheit, SpeedUnit: units.Mph, HourFormat: "h12"}
	report := FormatSnapshot(formatFixture(), prefs)

	assert.InDelta(t, 68, report.Current.Temp, 0.0001)
	assert.InDelta(t, 71.6, report.Current.FeelsLike, 0.0001)
	assert.InDelta(t, 20, report.Current.Wind, 0.01)
	assert.Equal(t, "F", report.Current.TempUnit)
	assert.Equal(t, "mph", report.Current.SpeedUnit)

	// percentages and indices are unit-free and never converted
	assert.InDelta(t, 65, report.Current.Humidity, 0.0001)

	require.Len(t, report.Forecasts, 1)
	assert.InDelta(t, 50, report.Forecasts[0].MinTemp, 0.0001)
	assert.InDelta(t, 86, report.Forecasts[0].MaxTemp, 0.0001)
	require.Len(t, report.Forecasts[0].Hourly, 1)
	assert.InDelta(t, 59, report.Forecasts[0].Hourly[0].Temp, 0.0001)
	assert.InDelta(t, 10, report.Forecasts[0].Hourly[0].WindSpeed, 0.01)
}

func TestFormatSnapshot_AirQualityOptional(t *testing.T) {
	snapshot := formatFixture()
	withAir := FormatSnapshot(snapshot, units.DefaultPreferences())
	require.NotNil(t, withAir.AirQuality)
	assert.Equal(t, 1, withAir.AirQuality.USEPAIndex)
	assert.InDelta(t, 7.9, withAir.AirQuality.PM25, 0.0001)

	snapshot.AirQuality = nil
	withoutAir := FormatSnapshot(snapshot, units.DefaultPreferences())
	assert.Nil(t, withoutAir.AirQuality)
}
