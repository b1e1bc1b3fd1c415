package providers

// Provider-shaped payloads for WeatherAPI.com responses. Only the fields this
// system consumes are declared; everything else in the envelope is ignored.

// SearchResult is one candidate from the location search endpoint
type SearchResult struct {
	ID      int     `json:"id"`
	Name    string  `json:"name"`
	Region  string  `json:"region"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Condition is the provider's text+icon description of conditions
type Condition struct {
	Text string `json:"text"`
	Icon string `json:"icon"`
}

// AirQuality carries pollutant concentrations plus the US EPA index
type AirQuality struct {
	CO         float64 `json:"co"`
	NO2        float64 `json:"no2"`
	O3         float64 `json:"o3"`
	SO2        float64 `json:"so2"`
	PM25       float64 `json:"pm2_5"`
	PM10       float64 `json:"pm10"`
	USEPAIndex int     `json:"us-epa-index"`
}

// Current holds the provider's current-conditions block, in source units
type Current struct {
	LastUpdatedEpoch int64      `json:"last_updated_epoch"`
	TempC            float64    `json:"temp_c"`
	FeelsLikeC       float64    `json:"feelslike_c"`
	WindKph          float64    `json:"wind_kph"`
	WindDir          string     `json:"wind_dir"`
	Humidity         float64    `json:"humidity"`
	PressureMb       float64    `json:"pressure_mb"`
	PrecipMm         float64    `json:"precip_mm"`
	UV               float64    `json:"uv"`
	DewPointC        float64    `json:"dewpoint_c"`
	Condition        Condition  `json:"condition"`
	AirQuality       AirQuality `json:"air_quality"`
}

// Day is the daily summary inside a forecast day
type Day struct {
	MinTempC          float64   `json:"mintemp_c"`
	MaxTempC          float64   `json:"maxtemp_c"`
	DailyChanceOfRain float64   `json:"daily_chance_of_rain"`
	AvgHumidity       float64   `json:"avghumidity"`
	UV                float64   `json:"uv"`
	Condition         Condition `json:"condition"`
}

// Astro holds the sunrise/sunset/moon-phase strings for a forecast day
type Astro struct {
	Sunrise   string `json:"sunrise"`
	Sunset    string `json:"sunset"`
	MoonPhase string `json:"moon_phase"`
}

// Hour is one hourly point inside a forecast day
type Hour struct {
	TimeEpoch    int64     `json:"time_epoch"`
	TempC        float64   `json:"temp_c"`
	WindKph      float64   `json:"wind_kph"`
	Humidity     float64   `json:"humidity"`
	ChanceOfRain float64   `json:"chance_of_rain"`
	Condition    Condition `json:"condition"`
}

// ForecastDay is one day of the provider's forecast envelope
type ForecastDay struct {
	Date      string `json:"date"`
	DateEpoch int64  `json:"date_epoch"`
	Day       Day    `json:"day"`
	Astro     Astro  `json:"astro"`
	Hour      []Hour `json:"hour"`
}

// Location identifies the place a forecast envelope describes
type Location struct {
	Name    string  `json:"name"`
	Region  string  `json:"region"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// ForecastResponse is the full current+forecast envelope
type ForecastResponse struct {
	Location Location `json:"location"`
	Current  Current  `json:"current"`
	Forecast struct {
		ForecastDay []ForecastDay `json:"forecastday"`
	} `json:"forecast"`
}
