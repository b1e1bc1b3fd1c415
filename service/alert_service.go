package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"fujin.app/metrics"
	"fujin.app/models"
	"fujin.app/pkg/errors"
)

// fieldAccessors is the closed set of snapshot fields an alert rule may name.
// An unrecognized name is a typed skip, never a crash.
var fieldAccessors = map[string]func(*models.WeatherSnapshot) float64{
	"temperature": func(s *models.WeatherSnapshot) float64 { return s.Temperature },
	"feelsLike":   func(s *models.WeatherSnapshot) float64 { return s.FeelsLike },
	"humidity":    func(s *models.WeatherSnapshot) float64 { return s.Humidity },
	"windSpeed":   func(s *models.WeatherSnapshot) float64 { return s.WindSpeed },
	"rainProb":    func(s *models.WeatherSnapshot) float64 { return s.RainProb },
	"uvIndex":     func(s *models.WeatherSnapshot) float64 { return s.UVIndex },
	"pressure":    func(s *models.WeatherSnapshot) float64 { return s.Pressure },
	"dewPoint":    func(s *models.WeatherSnapshot) float64 { return s.DewPoint },
}

// AlertFields returns the recognized alert field names
func AlertFields() []string {
	fields := make([]string, 0, len(fieldAccessors))
	for name := range fieldAccessors {
		fields = append(fields, name)
	}
	return fields
}

// AlertService evaluates every alert rule against the freshest cached
// snapshot and hands satisfied rules to the notification sink.
type AlertService struct {
	rules     AlertRuleStore
	snapshots SnapshotStore
	sink      NotificationSink

	// cooldown suppresses re-firing of a rule that stays true across ticks.
	// Zero disables suppression: the rule re-fires on every tick, which is
	// the historical behavior.
	cooldown time.Duration

	now func() time.Time

	mu        sync.Mutex
	lastFired map[string]time.Time
}

// NewAlertService creates the alert evaluation engine
func NewAlertService(rules AlertRuleStore, snapshots SnapshotStore, sink NotificationSink, cooldown time.Duration) *AlertService {
	return &AlertService{
		rules:     rules,
		snapshots: snapshots,
		sink:      sink,
		cooldown:  cooldown,
		now:       time.Now,
		lastFired: make(map[string]time.Time),
	}
}

// EvaluateAll runs one evaluation tick over every alert rule. Failures are
// isolated per rule; nothing here aborts the batch.
func (s *AlertService) EvaluateAll(ctx context.Context) error {
	rules, err := s.rules.List()
	if err != nil {
		return err
	}

	slog.Debug("evaluating alert rules", "rules", len(rules))

	for _, rule := range rules {
		s.evaluateRule(ctx, rule)
	}
	return nil
}

func (s *AlertService) evaluateRule(ctx context.Context, rule models.AlertRule) {
	metrics.AlertsEvaluated.Inc()

	accessor, ok := fieldAccessors[rule.Field]
	if !ok {
		slog.Warn("alert rule names an unrecognized field, skipping",
			"rule_id", rule.ID, "field", rule.Field)
		return
	}

	snapshot, err := s.snapshots.Latest(rule.LocationID)
	if err != nil {
		// No snapshot only means no refresh has run for this location yet.
		if !errors.IsNotFoundError(err) {
			slog.Warn("failed to read snapshot for alert rule",
				"rule_id", rule.ID, "location_id", rule.LocationID, "error", err)
		}
		return
	}

	if !s.withinActiveWindow(rule) {
		return
	}

	value := accessor(snapshot)
	satisfied, err := compare(value, rule.Operator, rule.Threshold)
	if err != nil {
		slog.Warn("alert rule has an invalid operator, skipping",
			"rule_id", rule.ID, "operator", rule.Operator)
		return
	}
	if !satisfied {
		return
	}

	if s.onCooldown(rule.ID) {
		slog.Debug("alert condition still true, suppressed by cooldown", "rule_id", rule.ID)
		return
	}

	metrics.AlertsFired.Inc()

	if err := s.sink.Dispatch(ctx, rule, value, rule.Location.Name); err != nil {
		slog.Error("notification dispatch failed",
			"rule_id", rule.ID, "user_id", rule.UserID, "error", err)
		return
	}
	s.markFired(rule.ID)
}

// compare applies the rule operator with ordinary floating-point semantics.
// EQ is exact equality; exact-equality alerts rarely fire against continuous
// weather values and that is accepted behavior.
func compare(value float64, operator string, threshold float64) (bool, error) {
	switch operator {
	case models.OpGT:
		return value > threshold, nil
	case models.OpGTE:
		return value >= threshold, nil
	case models.OpLT:
		return value < threshold, nil
	case models.OpLTE:
		return value <= threshold, nil
	case models.OpEQ:
		return value == threshold, nil
	default:
		return false, errors.NewValidationError("unknown alert operator: " + operator)
	}
}

// withinActiveWindow applies the rule's optional time-of-day restriction.
// A window may wrap past midnight (e.g. 22:00-06:00).
func (s *AlertService) withinActiveWindow(rule models.AlertRule) bool {
	if rule.ActiveFrom == "" || rule.ActiveTo == "" {
		return true
	}

	from, err := time.Parse("15:04", rule.ActiveFrom)
	if err != nil {
		slog.Warn("alert rule has an invalid active_from, ignoring window",
			"rule_id", rule.ID, "active_from", rule.ActiveFrom)
		return true
	}
	to, err := time.Parse("15:04", rule.ActiveTo)
	if err != nil {
		slog.Warn("alert rule has an invalid active_to, ignoring window",
			"rule_id", rule.ID, "active_to", rule.ActiveTo)
		return true
	}

	now := s.now()
	minutes := now.Hour()*60 + now.Minute()
	fromMin := from.Hour()*60 + from.Minute()
	toMin := to.Hour()*60 + to.Minute()

	if fromMin <= toMin {
		return minutes >= fromMin && minutes <= toMin
	}
	// overnight window
	return minutes >= fromMin || minutes <= toMin
}

func (s *AlertService) onCooldown(ruleID string) bool {
	if s.cooldown == 0 {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	last, ok := s.lastFired[ruleID]
	return ok && s.now().Sub(last) < s.cooldown
}

func (s *AlertService) markFired(ruleID string) {
	if s.cooldown == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastFired[ruleID] = s.now()
}
