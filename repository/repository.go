// Package repository implements data access for the cache and alert engine.
package repository

import (
	stderrors "errors"
	"log/slog"

	"gorm.io/gorm"

	"fujin.app/models"
	"fujin.app/pkg/errors"
)

// LocationRepository reads the tracked locations the engine refreshes.
// Creation and deletion are owned by the user-facing CRUD surface; deletion
// cascades to the location's snapshot and alert rules.
type LocationRepository struct {
	db *gorm.DB
}

// NewLocationRepository creates a repository for tracked locations
func NewLocationRepository(db *gorm.DB) *LocationRepository {
	return &LocationRepository{db: db}
}

// List returns every tracked location
func (r *LocationRepository) List() ([]models.TrackedLocation, error) {
	var locations []models.TrackedLocation
	if err := r.db.Order("created_at ASC").Find(&locations).Error; err != nil {
		return nil, errors.NewPersistenceError("failed to list tracked locations", err)
	}
	return locations, nil
}

// FindByID retrieves a tracked location by its id
func (r *LocationRepository) FindByID(id string) (*models.TrackedLocation, error) {
	var location models.TrackedLocation
	result := r.db.First(&location, "id = ?", id)
	if result.Error != nil {
		if stderrors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errors.NewNotFoundError("tracked location not found")
		}
		return nil, errors.NewPersistenceError("failed to find tracked location", result.Error)
	}
	return &location, nil
}

// Create persists a new tracked location
func (r *LocationRepository) Create(location *models.TrackedLocation) error {
	if err := r.db.Create(location).Error; err != nil {
		return errors.NewPersistenceError("failed to create tracked location", err)
	}
	slog.Debug("tracked location created", "location_id", location.ID, "name", location.Name)
	return nil
}

// Delete removes a tracked location together with its cached snapshot and
// every alert rule that references it, in one transaction.
func (r *LocationRepository) Delete(id string) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := deleteSnapshotTree(tx, id); err != nil {
			return err
		}
		if err := tx.Where("location_id = ?", id).Delete(&models.AlertRule{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.TrackedLocation{}, "id = ?", id).Error
	})
	if err != nil {
		return errors.NewPersistenceError("failed to delete tracked location", err)
	}
	slog.Debug("tracked location deleted", "location_id", id)
	return nil
}

// AlertRuleRepository reads the user-defined alert rules; the alert engine
// never mutates them.
type AlertRuleRepository struct {
	db *gorm.DB
}

// NewAlertRuleRepository creates a repository for alert rules
func NewAlertRuleRepository(db *gorm.DB) *AlertRuleRepository {
	return &AlertRuleRepository{db: db}
}

// List returns every alert rule with its target location preloaded so the
// dispatcher can name the place in the notification.
func (r *AlertRuleRepository) List() ([]models.AlertRule, error) {
	var rules []models.AlertRule
	if err := r.db.Preload("Location").Find(&rules).Error; err != nil {
		return nil, errors.NewPersistenceError("failed to list alert rules", err)
	}
	return rules, nil
}

// Create validates and persists a new alert rule
func (r *AlertRuleRepository) Create(rule *models.AlertRule) error {
	if err := rule.Validate(); err != nil {
		return errors.NewValidationError("invalid alert rule: " + err.Error())
	}
	if err := r.db.Create(rule).Error; err != nil {
		return errors.NewPersistenceError("failed to create alert rule", err)
	}
	return nil
}

// Delete removes an alert rule
func (r *AlertRuleRepository) Delete(id string) error {
	if err := r.db.Delete(&models.AlertRule{}, "id = ?", id).Error; err != nil {
		return errors.NewPersistenceError("failed to delete alert rule", err)
	}
	return nil
}

// DeviceRepository stores the single push token known per user
type DeviceRepository struct {
	db *gorm.DB
}

// NewDeviceRepository creates a repository for device registrations
func NewDeviceRepository(db *gorm.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

// GetToken returns the push token registered for a user, or NotFound when the
// user never registered a device. Absence is an expected state, not an error
// worth logging.
func (r *DeviceRepository) GetToken(userID string) (string, error) {
	var registration models.DeviceRegistration
	result := r.db.First(&registration, "user_id = ?", userID)
	if result.Error != nil {
		if stderrors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", errors.NewNotFoundError("no device registered for user")
		}
		return "", errors.NewPersistenceError("failed to read device registration", result.Error)
	}
	return registration.PushToken, nil
}

// Register overwrites the user's push token, creating the registration on
// first call.
func (r *DeviceRepository) Register(userID, token string) error {
	var registration models.DeviceRegistration
	result := r.db.First(&registration, "user_id = ?", userID)
	if result.Error != nil {
		if !stderrors.Is(result.Error, gorm.ErrRecordNotFound) {
			return errors.NewPersistenceError("failed to read device registration", result.Error)
		}
		registration = models.DeviceRegistration{UserID: userID, PushToken: token}
		if err := r.db.Create(&registration).Error; err != nil {
			return errors.NewPersistenceError("failed to create device registration", err)
		}
		slog.Debug("device registered", "user_id", userID)
		return nil
	}

	registration.PushToken = token
	if err := r.db.Save(&registration).Error; err != nil {
		return errors.NewPersistenceError("failed to update device registration", err)
	}
	slog.Debug("device registration updated", "user_id", userID)
	return nil
}
