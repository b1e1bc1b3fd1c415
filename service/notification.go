package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"fujin.app/metrics"
	"fujin.app/models"
	"fujin.app/pkg/errors"
	"fujin.app/providers"
)

// NotificationDispatcher resolves a user's device token and sends the formatted
// push message for a satisfied alert rule.
type NotificationDispatcher struct {
	devices DeviceStore
	push    providers.PushProvider
}

// NewNotificationDispatcher creates the dispatcher
func NewNotificationDispatcher(devices DeviceStore, push providers.PushProvider) *NotificationDispatcher {
	return &NotificationDispatcher{
		devices: devices,
		push:    push,
	}
}

// Dispatch sends one notification for a satisfied rule. A user without a
// registered device or with a malformed token is a logged no-op, not an error;
// only an actual delivery failure is returned to the caller.
func (d *NotificationDispatcher) Dispatch(ctx context.Context, rule models.AlertRule, value float64, locationName string) error {
	token, err := d.devices.GetToken(rule.UserID)
	if err != nil {
		if errors.IsNotFoundError(err) {
			slog.Info("user has no registered device, alert not delivered",
				"rule_id", rule.ID, "user_id", rule.UserID)
			metrics.Dispatches.WithLabelValues("no_device").Inc()
			return nil
		}
		return err
	}

	if !providers.IsExpoToken(token) {
		slog.Warn("registered push token is not a valid Expo token, alert not delivered",
			"rule_id", rule.ID, "user_id", rule.UserID)
		metrics.Dispatches.WithLabelValues("invalid_token").Inc()
		return nil
	}

	title := fmt.Sprintf("Alert: %s", locationName)
	body := fmt.Sprintf("%s is %s %s (current: %s)",
		rule.Field,
		models.OperatorSymbol(rule.Operator),
		formatValue(rule.Threshold),
		formatValue(value),
	)
	data := map[string]string{
		"location_id": rule.LocationID,
		"rule_id":     rule.ID,
	}

	if err := d.push.Send(ctx, token, title, body, data); err != nil {
		metrics.Dispatches.WithLabelValues("failure").Inc()
		return err
	}

	metrics.Dispatches.WithLabelValues("sent").Inc()
	slog.Info("alert notification sent",
		"rule_id", rule.ID, "user_id", rule.UserID, "location", locationName)
	return nil
}

// formatValue renders a float without trailing zero noise
func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
