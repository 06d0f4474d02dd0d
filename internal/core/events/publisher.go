// Package events delivers lifecycle notifications to a webhook sink.
// Delivery is strictly best-effort: no retries, no durability, and a failed
// delivery never fails the operation that triggered it.
package events

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/davidokpare/extracta/internal/models"
)

// Publisher is the fire-and-forget event side channel.
type Publisher interface {
	Publish(ctx context.Context, ev models.Event)
}

// WebhookPublisher POSTs events as JSON to a single configured endpoint.
type WebhookPublisher struct {
	url    string
	client *http.Client
}

var _ Publisher = (*WebhookPublisher)(nil)

func NewWebhookPublisher(url string) *WebhookPublisher {
	return &WebhookPublisher{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Publish delivers ev to the sink. Errors are logged and swallowed.
func (p *WebhookPublisher) Publish(ctx context.Context, ev models.Event) {
	if p.url == "" {
		return
	}

	body, err := json.Marshal(ev)
	if err != nil {
		log.Printf("events: marshal %s event: %v", ev.Event, err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		log.Printf("events: build request: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		log.Printf("events: deliver %s event: %v", ev.Event, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.Printf("events: sink returned %d for %s event", resp.StatusCode, ev.Event)
	}
}
