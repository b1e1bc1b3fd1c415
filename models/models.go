// Package models defines data structures used throughout the application
package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TrackedLocation is a coordinate pair saved by a user. The cache engine only
// reads these; creation and deletion belong to the user-facing CRUD surface.
type TrackedLocation struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"index;not null"`
	Name      string    `json:"name" gorm:"not null"`
	Latitude  float64   `json:"latitude" gorm:"not null"`
	Longitude float64   `json:"longitude" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns a UUID primary key when none was supplied
func (l *TrackedLocation) BeforeCreate(_ *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	return nil
}

// WeatherSnapshot is the full current+forecast payload cached for one location
// at one point in time. At most one live snapshot exists per location; a
// refresh replaces the whole tree inside a single transaction.
//
// All values are stored in source units: Celsius, km/h, mb.
type WeatherSnapshot struct {
	ID            string          `json:"id" gorm:"primaryKey"`
	LocationID    string          `json:"location_id" gorm:"uniqueIndex;not null"`
	Location      TrackedLocation `json:"-" gorm:"foreignKey:LocationID;constraint:OnDelete:CASCADE"`
	Timestamp     time.Time       `json:"timestamp" gorm:"not null"`
	Temperature   float64         `json:"temperature"`
	FeelsLike     float64         `json:"feels_like"`
	Humidity      float64         `json:"humidity"`
	WindSpeed     float64         `json:"wind_speed"`
	WindDirection string          `json:"wind_direction"`
	RainProb      float64         `json:"rain_prob"`
	UVIndex       float64         `json:"uv_index"`
	Pressure      float64         `json:"pressure"`
	DewPoint      float64         `json:"dew_point"`
	AirQuality    *AirQuality     `json:"air_quality" gorm:"foreignKey:SnapshotID;constraint:OnDelete:CASCADE"`
	Forecasts     []ForecastDay   `json:"forecasts" gorm:"foreignKey:SnapshotID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time       `json:"created_at"`
}

// BeforeCreate assigns a UUID primary key when none was supplied
func (s *WeatherSnapshot) BeforeCreate(_ *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

// AirQuality holds the pollutant concentrations captured with a snapshot
type AirQuality struct {
	ID         string  `json:"id" gorm:"primaryKey"`
	SnapshotID string  `json:"-" gorm:"index;not null"`
	CO         float64 `json:"co"`
	NO2        float64 `json:"no2"`
	O3         float64 `json:"o3"`
	SO2        float64 `json:"so2"`
	PM25       float64 `json:"pm2_5"`
	PM10       float64 `json:"pm10"`
	USEPAIndex int     `json:"us_epa_index"`
}

// BeforeCreate assigns a UUID primary key when none was supplied
func (a *AirQuality) BeforeCreate(_ *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

// ForecastDay is one day of the stored forecast, ordered by date
type ForecastDay struct {
	ID         string        `json:"id" gorm:"primaryKey"`
	SnapshotID string        `json:"-" gorm:"index;not null"`
	Date       time.Time     `json:"date" gorm:"not null"`
	MinTemp    float64       `json:"min_temp"`
	MaxTemp    float64       `json:"max_temp"`
	RainProb   float64       `json:"rain_prob"`
	Humidity   float64       `json:"humidity"`
	UVIndex    float64       `json:"uv_index"`
	Sunrise    string        `json:"sunrise"`
	Sunset     string        `json:"sunset"`
	MoonPhase  string        `json:"moon_phase"`
	Hours      []HourlyPoint `json:"hourly" gorm:"foreignKey:ForecastDayID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate assigns a UUID primary key when none was supplied
func (d *ForecastDay) BeforeCreate(_ *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	return nil
}

// HourlyPoint is one hour of detail inside a forecast day, ordered by time
type HourlyPoint struct {
	ID            string    `json:"id" gorm:"primaryKey"`
	ForecastDayID string    `json:"-" gorm:"index;not null"`
	Time          time.Time `json:"time" gorm:"not null"`
	Temperature   float64   `json:"temperature"`
	WindSpeed     float64   `json:"wind_speed"`
	Humidity      float64   `json:"humidity"`
	RainProb      float64   `json:"rain_prob"`
	Condition     string    `json:"condition"`
	IconURL       string    `json:"icon_url"`
}

// BeforeCreate assigns a UUID primary key when none was supplied
func (h *HourlyPoint) BeforeCreate(_ *gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	return nil
}

// Alert rule comparison operators
const (
	OpGT  = "GT"
	OpGTE = "GTE"
	OpLT  = "LT"
	OpLTE = "LTE"
	OpEQ  = "EQ"
)

// OperatorSymbol maps an operator name to the symbol shown in notifications
func OperatorSymbol(op string) string {
	switch op {
	case OpGT:
		return ">"
	case OpGTE:
		return ">="
	case OpLT:
		return "<"
	case OpLTE:
		return "<="
	case OpEQ:
		return "="
	default:
		return op
	}
}

// AlertRule is a user-defined (field, operator, threshold) triple evaluated
// against its location's latest snapshot. Thresholds are defined in the
// snapshot's native units (Celsius, km/h), never in display units.
type AlertRule struct {
	ID         string          `json:"id" gorm:"primaryKey"`
	UserID     string          `json:"user_id" gorm:"index;not null" validate:"required"`
	LocationID string          `json:"location_id" gorm:"index;not null" validate:"required"`
	Location   TrackedLocation `json:"-" gorm:"foreignKey:LocationID;constraint:OnDelete:CASCADE"`
	Field      string          `json:"field" gorm:"not null" validate:"required"`
	Operator   string          `json:"operator" gorm:"not null" validate:"required,oneof=GT GTE LT LTE EQ"`
	Threshold  float64         `json:"threshold" gorm:"not null"`
	ActiveFrom string          `json:"active_from" validate:"omitempty,datetime=15:04"` // "HH:MM", empty means no restriction
	ActiveTo   string          `json:"active_to" validate:"omitempty,datetime=15:04,required_with=ActiveFrom"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// BeforeCreate assigns a UUID primary key when none was supplied
func (r *AlertRule) BeforeCreate(_ *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

var validate = validator.New()

// Validate checks the rule's structural constraints before it is persisted.
// Field-name membership is the alert engine's concern; an unrecognized name is
// evaluated as a skip there, not rejected here.
func (r *AlertRule) Validate() error {
	return validate.Struct(r)
}

// DeviceRegistration holds the single push token known for a user; it is
// overwritten on each registration call. Absence means delivery is impossible,
// not that something went wrong.
type DeviceRegistration struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"uniqueIndex;not null"`
	PushToken string    `json:"push_token" gorm:"not null"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns a UUID primary key when none was supplied
func (d *DeviceRegistration) BeforeCreate(_ *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	return nil
}

// DeviceRegistrationRequest is the payload for registering a push token
type DeviceRegistrationRequest struct {
	PushToken string `json:"push_token" binding:"required"`
}

// ErrorResponse represents an error message structure for API responses
type ErrorResponse struct {
	Error string `json:"error"`
}
