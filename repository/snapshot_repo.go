package repository

import (
	stderrors "errors"
	"log/slog"

	"gorm.io/gorm"

	"fujin.app/models"
	"fujin.app/pkg/errors"
)

// SnapshotRepository is the cache store: one live WeatherSnapshot tree per
// location, replaced wholesale and never patched in place.
type SnapshotRepository struct {
	db *gorm.DB
}

// NewSnapshotRepository creates a repository for cached weather snapshots
func NewSnapshotRepository(db *gorm.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Replace atomically swaps the cached snapshot for a location. The delete of
// the previous tree and the insert of the new one commit or roll back
// together, so readers never observe a half-written snapshot or a mix of two
// fetches.
func (r *SnapshotRepository) Replace(locationID string, snapshot *models.WeatherSnapshot) error {
	snapshot.LocationID = locationID

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := deleteSnapshotTree(tx, locationID); err != nil {
			return err
		}
		// Creates the whole tree: air quality, forecast days and hourly
		// points ride along as associations.
		return tx.Create(snapshot).Error
	})
	if err != nil {
		slog.Error("snapshot replace failed", "location_id", locationID, "error", err)
		return errors.NewPersistenceError("failed to replace weather snapshot", err)
	}

	slog.Debug("snapshot replaced", "location_id", locationID, "timestamp", snapshot.Timestamp)
	return nil
}

// Latest returns the live snapshot for a location with its air quality,
// forecast days (date order) and hourly points (time order) preloaded.
func (r *SnapshotRepository) Latest(locationID string) (*models.WeatherSnapshot, error) {
	var snapshot models.WeatherSnapshot
	result := r.db.
		Preload("AirQuality").
		Preload("Forecasts", func(db *gorm.DB) *gorm.DB {
			return db.Order("date ASC")
		}).
		Preload("Forecasts.Hours", func(db *gorm.DB) *gorm.DB {
			return db.Order("time ASC")
		}).
		Where("location_id = ?", locationID).
		Order("timestamp DESC").
		First(&snapshot)
	if result.Error != nil {
		if stderrors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errors.NewNotFoundError("no weather snapshot for this location")
		}
		return nil, errors.NewPersistenceError("failed to read weather snapshot", result.Error)
	}

	return &snapshot, nil
}

// Purge removes the cached snapshot for a location without inserting a new one
func (r *SnapshotRepository) Purge(locationID string) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		return deleteSnapshotTree(tx, locationID)
	})
	if err != nil {
		return errors.NewPersistenceError("failed to purge weather snapshot", err)
	}
	return nil
}

// deleteSnapshotTree removes a location's snapshot and all owned children
// inside the caller's transaction. Children are deleted explicitly, leaf
// first, so the behavior does not depend on database-level cascades.
func deleteSnapshotTree(tx *gorm.DB, locationID string) error {
	var snapshot models.WeatherSnapshot
	result := tx.Where("location_id = ?", locationID).First(&snapshot)
	if result.Error != nil {
		if stderrors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil
		}
		return result.Error
	}

	dayIDs := tx.Model(&models.ForecastDay{}).Select("id").Where("snapshot_id = ?", snapshot.ID)
	if err := tx.Where("forecast_day_id IN (?)", dayIDs).Delete(&models.HourlyPoint{}).Error; err != nil {
		return err
	}
	if err := tx.Where("snapshot_id = ?", snapshot.ID).Delete(&models.ForecastDay{}).Error; err != nil {
		return err
	}
	if err := tx.Where("snapshot_id = ?", snapshot.ID).Delete(&models.AirQuality{}).Error; err != nil {
		return err
	}
	return tx.Delete(&snapshot).Error
}
