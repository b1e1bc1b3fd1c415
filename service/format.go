package service

import (
	"time"

	"fujin.app/models"
	"fujin.app/units"
)

// WeatherReport is the denormalized projection of a snapshot served to
// clients, with unit conversion already applied.
type WeatherReport struct {
	LocationID string           `json:"location_id"`
	Timestamp  time.Time        `json:"timestamp"`
	Current    CurrentReport    `json:"current"`
	AirQuality *AirQualityView  `json:"air_quality,omitempty"`
	Forecasts  []ForecastReport `json:"forecasts"`
}

// CurrentReport carries current conditions in the requested display units
type CurrentReport struct {
	Temp          float64 `json:"temp"`
	FeelsLike     float64 `json:"feelslike"`
	Wind          float64 `json:"wind"`
	WindDirection string  `json:"wind_direction"`
	Humidity      float64 `json:"humidity"`
	RainProb      float64 `json:"rain_prob"`
	UVIndex       float64 `json:"uv_index"`
	Pressure      float64 `json:"pressure"`
	DewPoint      float64 `json:"dew_point"`
	TempUnit      string  `json:"temp_unit"`
	SpeedUnit     string  `json:"speed_unit"`
}

// AirQualityView mirrors the stored air quality sub-record
type AirQualityView struct {
	CO         float64 `json:"co"`
	NO2        float64 `json:"no2"`
	O3         float64 `json:"o3"`
	SO2        float64 `json:"so2"`
	PM25       float64 `json:"pm2_5"`
	PM10       float64 `json:"pm10"`
	USEPAIndex int     `json:"us_epa_index"`
}

// ForecastReport is one converted forecast day
type ForecastReport struct {
	Date      time.Time      `json:"date"`
	MinTemp   float64        `json:"min_temp"`
	MaxTemp   float64        `json:"max_temp"`
	RainProb  float64        `json:"rain_prob"`
	Humidity  float64        `json:"humidity"`
	UVIndex   float64        `json:"uv_index"`
	Sunrise   string         `json:"sunrise"`
	Sunset    string         `json:"sunset"`
	MoonPhase string         `json:"moon_phase"`
	Hourly    []HourlyReport `json:"hourly"`
}

// HourlyReport is one converted hourly point
type HourlyReport struct {
	Time      time.Time `json:"time"`
	Temp      float64   `json:"temp"`
	WindSpeed float64   `json:"wind_speed"`
	Humidity  float64   `json:"humidity"`
	RainProb  float64   `json:"rain_prob"`
	Condition string    `json:"condition"`
	IconURL   string    `json:"icon_url"`
}

// FormatSnapshot converts a stored snapshot into a client-facing report using
// the given display preferences. This is the only place unit conversion
// happens; the cache itself always holds Celsius and km/h.
func FormatSnapshot(snapshot *models.WeatherSnapshot, prefs units.Preferences) *WeatherReport {
	report := &WeatherReport{
		LocationID: snapshot.LocationID,
		Timestamp:  snapshot.Timestamp,
		Current: CurrentReport{
			Temp:          prefs.Temp(snapshot.Temperature),
			FeelsLike:     prefs.Temp(snapshot.FeelsLike),
			Wind:          prefs.Speed(snapshot.WindSpeed),
			WindDirection: snapshot.WindDirection,
			Humidity:      snapshot.Humidity,
			RainProb:      snapshot.RainProb,
			UVIndex:       snapshot.UVIndex,
			Pressure:      snapshot.Pressure,
			DewPoint:      snapshot.DewPoint,
			TempUnit:      string(prefs.TempUnit),
			SpeedUnit:     string(prefs.SpeedUnit),
		},
	}

	if snapshot.AirQuality != nil {
		report.AirQuality = &AirQualityView{
			CO:         snapshot.AirQuality.CO,
			NO2:        snapshot.AirQuality.NO2,
			O3:         snapshot.AirQuality.O3,
			SO2:        snapshot.AirQuality.SO2,
			PM25:       snapshot.AirQuality.PM25,
			PM10:       snapshot.AirQuality.PM10,
			USEPAIndex: snapshot.AirQuality.USEPAIndex,
		}
	}

	for _, day := range snapshot.Forecasts {
		forecast := ForecastReport{
			Date:      day.Date,
			MinTemp:   prefs.Temp(day.MinTemp),
			MaxTemp:   prefs.Temp(day.MaxTemp),
			RainProb:  day.RainProb,
			Humidity:  day.Humidity,
			UVIndex:   day.UVIndex,
			Sunrise:   day.Sunrise,
			Sunset:    day.Sunset,
			MoonPhase: day.MoonPhase,
		}

		for _, hour := range day.Hours {
			forecast.Hourly = append(forecast.Hourly, HourlyReport{
				Time:      hour.Time,
				Temp:      prefs.Temp(hour.Temperature),
				WindSpeed: prefs.Speed(hour.WindSpeed),
				Humidity:  hour.Humidity,
				RainProb:  hour.RainProb,
				Condition: hour.Condition,
				IconURL:   hour.IconURL,
			})
		}

		report.Forecasts = append(report.Forecasts, forecast)
	}

	return report
}
