package services

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"sitedocs/config"
	"sitedocs/logger"
	"sitedocs/models"
)

// Notifier fans attachment events out to the users subscribed to the
// owning entity. Calls are fire-and-forget: delivery failures are logged
// and swallowed, never surfaced to the caller.
type Notifier interface {
	AttachmentAdded(ctx context.Context, entity models.EntityRef, fileName string, actorID string)
	AttachmentDeleted(ctx context.Context, entity models.EntityRef, fileName string, actorID string)
}

type NoopNotifier struct{}

func (NoopNotifier) AttachmentAdded(context.Context, models.EntityRef, string, string)   {}
func (NoopNotifier) AttachmentDeleted(context.Context, models.EntityRef, string, string) {}

// WebhookNotifier posts events to the external notification service.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

func NewNotifierFromConfig(cfg config.NotifyConfig) Notifier {
	if cfg.WebhookURL == "" {
		return NoopNotifier{}
	}
	return &WebhookNotifier{
		url:    cfg.WebhookURL,
		client: &http.Client{Timeout: time.Duration(cfg.TimeoutMs) * time.Millisecond},
	}
}

func (n *WebhookNotifier) AttachmentAdded(ctx context.Context, entity models.EntityRef, fileName string, actorID string) {
	n.post(ctx, "attachment_added", entity, fileName, actorID)
}

func (n *WebhookNotifier) AttachmentDeleted(ctx context.Context, entity models.EntityRef, fileName string, actorID string) {
	n.post(ctx, "attachment_deleted", entity, fileName, actorID)
}

func (n *WebhookNotifier) post(ctx context.Context, event string, entity models.EntityRef, fileName string, actorID string) {
	payload, err := json.Marshal(map[string]string{
		"event":       event,
		"entity_type": string(entity.Type),
		"entity_id":   entity.ID,
		"file_name":   fileName,
		"actor_id":    actorID,
	})
	if err != nil {
		logger.Warnf("notify %s: marshal payload: %v", event, err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		logger.Warnf("notify %s: build request: %v", event, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		logger.Warnf("notify %s for %s: %v", event, entity, err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		logger.Warnf("notify %s for %s: status %d", event, entity, resp.StatusCode)
	}
}
