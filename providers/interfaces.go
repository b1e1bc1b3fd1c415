// Package providers contains adapters for the external services the engine
// depends on: the weather provider HTTP API and the push delivery capability.
package providers

import "context"

// WeatherProvider is the subset of the external weather API this system consumes.
// Implementations never retry; callers decide retry/skip policy.
type WeatherProvider interface {
	// SearchLocations returns up to a bounded number of candidates for a
	// free-text query.
	SearchLocations(ctx context.Context, query string) ([]SearchResult, error)
	// GetForecastByID fetches current conditions plus the multi-day forecast
	// envelope for an opaque provider location id.
	GetForecastByID(ctx context.Context, id string) (*ForecastResponse, error)
	// GetForecastByCoords fetches the same envelope by latitude/longitude.
	GetForecastByCoords(ctx context.Context, lat, lon float64) (*ForecastResponse, error)
}

// PushProvider hands a formatted message to the push delivery transport
type PushProvider interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) error
}
