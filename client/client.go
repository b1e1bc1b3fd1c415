// Package client is the device-side fetch path: it calls the backend for live
// weather, writes every success through to the mirror cache, and degrades to
// the last-known-good entry for the same key when the live path fails.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"fujin.app/mirror"
	"fujin.app/pkg/errors"
	"fujin.app/service"
)

// Weather is what the display layer renders: a report, plus whether it came
// from the mirror and how old it is in that case.
type Weather struct {
	Report  *service.WeatherReport
	Offline bool
	AsOf    time.Time // mirror capture time, only meaningful when Offline
}

// Client fetches weather from the backend with mirror fallback
type Client struct {
	baseURL string
	http    *http.Client
	cache   *mirror.Cache
}

// New creates a client against the given backend base URL
func New(baseURL string, timeout time.Duration, cache *mirror.Cache) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		cache:   cache,
	}
}

// ForLocation fetches weather for a tracked location. On live success the
// mirror entry for that location's key is rewritten; on failure the entry for
// exactly that key is served as offline data, and any entry cached under a
// different key is refused.
func (c *Client) ForLocation(ctx context.Context, locationID string) (*Weather, error) {
	endpoint := fmt.Sprintf("%s/api/locations/%s/weather", c.baseURL, url.PathEscape(locationID))

	report, err := c.fetch(ctx, endpoint)
	if err != nil {
		return c.fallback(ctx, locationID, err)
	}

	c.cache.Save(ctx, locationID, report, mirror.Meta{LocationID: locationID})
	return &Weather{Report: report}, nil
}

// ForCoords fetches weather for the device's own position. The mirror entry is
// keyed with the GPS sentinel, never with a tracked-location id.
func (c *Client) ForCoords(ctx context.Context, lat, lon float64) (*Weather, error) {
	endpoint := fmt.Sprintf("%s/api/weather?lat=%f&lon=%f", c.baseURL, lat, lon)

	report, err := c.fetch(ctx, endpoint)
	if err != nil {
		return c.fallback(ctx, "", err)
	}

	c.cache.Save(ctx, "", report, mirror.Meta{Lat: lat, Lon: lon})
	return &Weather{Report: report}, nil
}

// WarmSaved refreshes the mirror entry for every saved location in the
// background. Failures are logged and skipped; warming is best-effort.
func (c *Client) WarmSaved(ctx context.Context, locationIDs []string) {
	for _, id := range locationIDs {
		if _, err := c.ForLocation(ctx, id); err != nil {
			slog.Debug("mirror warm skipped location", "location_id", id, "error", err)
		}
	}
}

// fallback serves the mirror entry for the requested key, or reports the
// weather as unavailable. The cause of the live failure does not matter here;
// the only branch is cache-hit-for-this-key vs nothing usable.
func (c *Client) fallback(ctx context.Context, locationID string, cause error) (*Weather, error) {
	entry := c.cache.Load(ctx, locationID)
	if entry == nil {
		return nil, errors.Wrap(errors.ErrorTypeNotFound, "weather unavailable and no cached data for this place", cause)
	}

	slog.Info("live fetch failed, serving mirror entry",
		"key", mirror.Key(locationID), "as_of", entry.Timestamp, "error", cause)
	return &Weather{
		Report:  entry.Report,
		Offline: true,
		AsOf:    entry.Timestamp,
	}, nil
}

func (c *Client) fetch(ctx context.Context, endpoint string) (*service.WeatherReport, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.NewProviderError("failed to build backend request", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.NewProviderError("failed to reach backend", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewProviderError(
			fmt.Sprintf("backend returned status code %d", resp.StatusCode), nil)
	}

	var report service.WeatherReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, errors.NewProviderError("failed to decode backend response", err)
	}
	return &report, nil
}
