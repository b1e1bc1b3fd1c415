package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"fujin.app/config"
	"fujin.app/pkg/errors"
)

// ExpoPushProvider delivers notifications through the Expo push HTTP API
type ExpoPushProvider struct {
	endpoint string
	client   *http.Client
}

// NewExpoPushProvider creates a push provider for the Expo delivery service
func NewExpoPushProvider(config *config.PushConfig) *ExpoPushProvider {
	return &ExpoPushProvider{
		endpoint: config.Endpoint,
		client:   &http.Client{Timeout: config.Timeout},
	}
}

type expoMessage struct {
	To        string            `json:"to"`
	Sound     string            `json:"sound"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Data      map[string]string `json:"data,omitempty"`
	ChannelID string            `json:"channelId"`
}

// IsExpoToken reports whether a registered token has the Expo push token shape
func IsExpoToken(token string) bool {
	if !strings.HasSuffix(token, "]") {
		return false
	}
	return strings.HasPrefix(token, "ExponentPushToken[") || strings.HasPrefix(token, "ExpoPushToken[")
}

// Send posts one message to the Expo push endpoint. Delivery is fire-and-forget
// beyond the HTTP status: ticket-level receipts are not collected.
func (p *ExpoPushProvider) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	payload, err := json.Marshal([]expoMessage{{
		To:        token,
		Sound:     "default",
		Title:     title,
		Body:      body,
		Data:      data,
		ChannelID: "default",
	}})
	if err != nil {
		return errors.NewDeliveryError("failed to encode push message", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return errors.NewDeliveryError("failed to build push request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return errors.NewDeliveryError("failed to reach push delivery service", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return errors.NewDeliveryError(
			fmt.Sprintf("push delivery service returned status code %d", resp.StatusCode), nil)
	}
	return nil
}
