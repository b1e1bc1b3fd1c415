package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"fujin.app/config"
	"fujin.app/pkg/errors"
)

// WeatherAPIProvider implements WeatherProvider for WeatherAPI.com
type WeatherAPIProvider struct {
	apiKey       string
	baseURL      string
	searchLimit  int
	forecastDays int
	client       *http.Client
	circuit      *gobreaker.CircuitBreaker
}

// NewWeatherAPIProvider creates a new WeatherAPI.com provider. Calls are
// wrapped in a circuit breaker so a hard provider outage fails fast instead
// of blocking refresh batches on timeouts.
func NewWeatherAPIProvider(config *config.WeatherConfig) *WeatherAPIProvider {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "weatherapi",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		// A not-found answer is a healthy provider, not an outage.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.IsNotFoundError(err)
		},
	})

	return &WeatherAPIProvider{
		apiKey:       config.APIKey,
		baseURL:      config.BaseURL,
		searchLimit:  config.SearchLimit,
		forecastDays: config.ForecastDays,
		client:       &http.Client{Timeout: config.Timeout},
		circuit:      cb,
	}
}

// SearchLocations queries the provider's location search endpoint
func (p *WeatherAPIProvider) SearchLocations(ctx context.Context, query string) ([]SearchResult, error) {
	if query == "" {
		return nil, errors.NewValidationError("search query cannot be empty")
	}

	endpoint := fmt.Sprintf("%s/search.json?key=%s&q=%s", p.baseURL, p.apiKey, url.QueryEscape(query))

	var results []SearchResult
	if err := p.getJSON(ctx, endpoint, &results); err != nil {
		return nil, err
	}

	if len(results) > p.searchLimit {
		results = results[:p.searchLimit]
	}
	return results, nil
}

// GetForecastByID fetches the forecast envelope for an opaque provider location id
func (p *WeatherAPIProvider) GetForecastByID(ctx context.Context, id string) (*ForecastResponse, error) {
	if id == "" {
		return nil, errors.NewValidationError("location id cannot be empty")
	}
	return p.getForecast(ctx, fmt.Sprintf("id:%s", id))
}

// GetForecastByCoords fetches the forecast envelope by latitude/longitude
func (p *WeatherAPIProvider) GetForecastByCoords(ctx context.Context, lat, lon float64) (*ForecastResponse, error) {
	return p.getForecast(ctx, fmt.Sprintf("%.4f,%.4f", lat, lon))
}

func (p *WeatherAPIProvider) getForecast(ctx context.Context, q string) (*ForecastResponse, error) {
	endpoint := fmt.Sprintf("%s/forecast.json?key=%s&q=%s&days=%d&aqi=yes",
		p.baseURL, p.apiKey, url.QueryEscape(q), p.forecastDays)

	var result ForecastResponse
	if err := p.getJSON(ctx, endpoint, &result); err != nil {
		return nil, err
	}

	if len(result.Forecast.ForecastDay) == 0 {
		return nil, errors.NewProviderError("provider returned an empty forecast envelope", nil)
	}
	return &result, nil
}

// getJSON performs one GET through the circuit breaker and decodes the body.
// The provider never retries; a failure surfaces to the caller as-is.
func (p *WeatherAPIProvider) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	_, err := p.circuit.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, errors.NewProviderError("failed to build provider request", err)
		}

		resp, err := p.client.Do(req)
		if err != nil {
			return nil, errors.NewProviderError("failed to reach weather provider", err)
		}
		defer func() { _ = resp.Body.Close() }()

		switch {
		case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound:
			return nil, errors.NewNotFoundError("location not found")
		case resp.StatusCode != http.StatusOK:
			return nil, errors.NewProviderError(
				fmt.Sprintf("weather provider returned status code %d", resp.StatusCode), nil)
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, errors.NewProviderError("failed to decode provider response", err)
		}
		return nil, nil
	})

	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return errors.NewProviderError("weather provider circuit open", err)
	}
	return err
}
