package audit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/tomsboren/aivc/internal/models"
)

// Notifier delivers review notifications to an external collaborator.
// Delivery is fire-and-forget: the caller logs and suppresses errors.
type Notifier interface {
	Notify(n *models.ReviewNotification) error
}

// LogNotifier records review notifications in the service log. It is the
// default sink when no external collaborator is configured.
type LogNotifier struct {
	Logger *zap.Logger
}

// Notify logs the notification.
func (ln *LogNotifier) Notify(n *models.ReviewNotification) error {
	ln.Logger.Info("human review required",
		zap.String("log_id", n.LogID),
		zap.String("operation_type", string(n.OperationType)),
		zap.String("risk_level", string(n.RiskLevel)),
		zap.String("agent", n.AgentName),
		zap.String("content_title", n.ContentTitle))
	return nil
}

// WebhookNotifier posts review notifications as JSON to a configured URL.
type WebhookNotifier struct {
	URL    string
	Client *http.Client
}

// NewWebhookNotifier creates a webhook notifier with a short timeout so a
// slow collaborator cannot stall the audit write path.
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		URL:    url,
		Client: &http.Client{Timeout: 5 * time.Second},
	}
}

// Notify posts the notification.
func (w *WebhookNotifier) Notify(n *models.ReviewNotification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	resp, err := w.Client.Post(w.URL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("post notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notification webhook returned %s", resp.Status)
	}
	return nil
}
