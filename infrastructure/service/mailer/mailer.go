package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/vantra/vantra/infrastructure/service/logger"
)

// WebhookMailer delivers reset notifications to the notification
// service endpoint. The trust service never talks SMTP itself.
type WebhookMailer struct {
	endpoint string
	client   *http.Client
	logger   logger.Logger
}

func NewWebhookMailer(endpoint string, log logger.Logger) *WebhookMailer {
	return &WebhookMailer{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   log,
	}
}

func (m *WebhookMailer) SendPasswordReset(email, token string) error {
	payload, err := json.Marshal(map[string]string{
		"type":  "password_reset",
		"email": email,
		"token": token,
	})
	if err != nil {
		return fmt.Errorf("failed to encode reset notification: %w", err)
	}

	resp, err := m.client.Post(m.endpoint, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to deliver reset notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification endpoint responded %d", resp.StatusCode)
	}

	m.logger.Info(context.Background(), "Password reset notification dispatched", map[string]interface{}{
		"endpoint": m.endpoint,
	})
	return nil
}

// LogMailer is the development fallback when no notification endpoint
// is configured. The token only appears at debug level so the reset
// flow can be exercised locally without a notification service.
type LogMailer struct {
	logger logger.Logger
}

func NewLogMailer(log logger.Logger) *LogMailer {
	return &LogMailer{logger: log}
}

func (m *LogMailer) SendPasswordReset(email, token string) error {
	m.logger.Warn(context.Background(), "MAILER_WEBHOOK_URL is not set; reset notification not delivered", map[string]interface{}{
		"email": email,
	})
	m.logger.Debug(context.Background(), "Password reset token minted", map[string]interface{}{
		"email": email,
		"token": token,
	})
	return nil
}
