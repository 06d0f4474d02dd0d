package events

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/davidokpare/extracta/internal/models"
)

func TestWebhookPublisher_DeliversJSON(t *testing.T) {
	// WHAT: events arrive as a JSON POST with the exact field names the
	// sink contract fixes: event, id, username, filename, event_time.
	received := make(chan map[string]any, 1)
	sink := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %s", ct)
		}
		body, _ := io.ReadAll(r.Body)
		var m map[string]any
		if err := json.Unmarshal(body, &m); err != nil {
			t.Errorf("bad body: %v", err)
		}
		received <- m
	}))
	defer sink.Close()

	p := NewWebhookPublisher(sink.URL)
	ev := models.NewEvent(models.EventUpload, models.Actor{ID: "7", Name: "alice"}, "invoice_1.pdf")
	p.Publish(context.Background(), ev)

	got := <-received
	for _, field := range []string{"event", "id", "username", "filename", "event_time"} {
		if _, ok := got[field]; !ok {
			t.Errorf("field %q missing from payload %v", field, got)
		}
	}
	if got["event"] != "upload" || got["id"] != "7" || got["username"] != "alice" || got["filename"] != "invoice_1.pdf" {
		t.Errorf("payload = %v", got)
	}
}

func TestWebhookPublisher_FailureIsSwallowed(t *testing.T) {
	// WHAT: an unreachable sink must not surface an error or panic; the
	// channel is strictly best-effort.
	p := NewWebhookPublisher("http://127.0.0.1:1/unreachable")
	p.Publish(context.Background(), models.NewEvent(models.EventTextExtracted, models.SystemActor, "a.pdf"))
}

func TestWebhookPublisher_NoURLConfigured(t *testing.T) {
	p := NewWebhookPublisher("")
	p.Publish(context.Background(), models.NewEvent(models.EventUpload, models.SystemActor, "a.pdf"))
}
