// Package service implements the weather cache refresh and alert engine.
package service

import (
	"context"

	"fujin.app/models"
)

// LocationStore is the consumed tracked-location collaborator
type LocationStore interface {
	List() ([]models.TrackedLocation, error)
	FindByID(id string) (*models.TrackedLocation, error)
}

// SnapshotStore is the cache store: atomic replace plus read-latest
type SnapshotStore interface {
	Replace(locationID string, snapshot *models.WeatherSnapshot) error
	Latest(locationID string) (*models.WeatherSnapshot, error)
}

// AlertRuleStore is the consumed alert-rule collaborator; the engine only reads
type AlertRuleStore interface {
	List() ([]models.AlertRule, error)
}

// DeviceStore resolves a user's registered push token
type DeviceStore interface {
	GetToken(userID string) (string, error)
}

// NotificationSink receives a satisfied rule together with the value that
// triggered it and the display name of the rule's location.
type NotificationSink interface {
	Dispatch(ctx context.Context, rule models.AlertRule, value float64, locationName string) error
}
