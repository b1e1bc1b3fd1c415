package mirror

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"fujin.app/metrics"
	"fujin.app/service"
)

const keyPrefix = "weather:"

// GPSKey is the sentinel cache key for weather fetched for the device's own
// position, when no tracked-location id is known.
const GPSKey = "GPS"

// Key normalizes a location id into a cache key; an empty id means GPS
func Key(locationID string) string {
	if locationID == "" {
		return GPSKey
	}
	return locationID
}

// Meta records what place an entry was cached for
type Meta struct {
	LocationID string  `json:"location_id"` // empty for GPS entries
	Name       string  `json:"name"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
}

// Entry is one cached weather payload. An entry is only a valid fallback for
// a request with the same key; data for a different place is never served.
type Entry struct {
	Report    *service.WeatherReport `json:"report"`
	Meta      Meta                   `json:"meta"`
	Timestamp time.Time              `json:"timestamp"`
}

// Cache is the typed mirror over a backing Store
type Cache struct {
	store Store
	ttl   time.Duration
}

// NewCache wraps a backing store with the entry encoding and TTL
func NewCache(store Store, ttl time.Duration) *Cache {
	return &Cache{store: store, ttl: ttl}
}

// Save persists a timestamped entry under the given key. Failures are logged
// and swallowed: the mirror is opportunistic, a failed save never breaks the
// live path that triggered it.
func (c *Cache) Save(ctx context.Context, key string, report *service.WeatherReport, meta Meta) {
	entry := Entry{
		Report:    report,
		Meta:      meta,
		Timestamp: time.Now().UTC(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		slog.Error("failed to encode mirror entry", "key", key, "error", err)
		return
	}

	c.store.Set(ctx, keyPrefix+Key(key), data, c.ttl)
}

// Load returns the entry cached under the given key, or nil when there is no
// usable entry for exactly that key.
func (c *Cache) Load(ctx context.Context, key string) *Entry {
	data, ok := c.store.Get(ctx, keyPrefix+Key(key))
	if !ok {
		metrics.MirrorMisses.WithLabelValues(c.store.Name()).Inc()
		return nil
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		slog.Error("failed to decode mirror entry, dropping it", "key", key, "error", err)
		c.store.Delete(ctx, keyPrefix+Key(key))
		metrics.MirrorMisses.WithLabelValues(c.store.Name()).Inc()
		return nil
	}

	metrics.MirrorHits.WithLabelValues(c.store.Name()).Inc()
	return &entry
}
