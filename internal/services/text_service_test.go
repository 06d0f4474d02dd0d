package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/davidokpare/extracta/internal/core"
	"github.com/davidokpare/extracta/internal/core/cache"
	"github.com/davidokpare/extracta/internal/models"
)

type stubExtractor struct {
	key   string
	pages models.PageText
	err   error
}

func (s *stubExtractor) Extract(ctx context.Context, actor models.Actor, filename string) (string, models.PageText, error) {
	return s.key, s.pages, s.err
}

func seedCachedText(t *testing.T, c cache.Cache, key string, pages models.PageText, ttl time.Duration) {
	t.Helper()
	payload, err := json.Marshal(map[string]models.PageText{"text": pages})
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Set(context.Background(), key, payload, ttl); err != nil {
		t.Fatal(err)
	}
}

func TestRetrieveCached_HappyPath(t *testing.T) {
	c := cache.NewMemoryCache()
	svc := NewTextService(&stubExtractor{}, c)
	pages := models.PageText{0: {"alpha", "beta"}}
	seedCachedText(t, c, "PDF:7:invoice_1.pdf", pages, 600*time.Second)

	got, err := svc.RetrieveCached(context.Background(), models.Actor{ID: "7", Name: "alice"}, "PDF:7:invoice_1.pdf")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if got.TTL <= 0 || got.TTL > 600*time.Second {
		t.Errorf("ttl = %v", got.TTL)
	}
	if len(got.Text[0]) != 2 || got.Text[0][0] != "alpha" {
		t.Errorf("text = %v", got.Text)
	}
}

func TestRetrieveCached_WrongOwnerIsUnauthorized(t *testing.T) {
	// WHAT: a key whose embedded owner id differs from the actor is
	// rejected as Unauthorized, never NotFound. This holds whether or
	// not the entry exists.
	c := cache.NewMemoryCache()
	svc := NewTextService(&stubExtractor{}, c)
	seedCachedText(t, c, "PDF:7:invoice_1.pdf", models.PageText{0: {"x"}}, 600*time.Second)
	bob := models.Actor{ID: "9", Name: "bob"}

	_, err := svc.RetrieveCached(context.Background(), bob, "PDF:7:invoice_1.pdf")
	if !errors.Is(err, core.ErrUnauthorized) {
		t.Errorf("existing entry: expected ErrUnauthorized, got %v", err)
	}

	_, err = svc.RetrieveCached(context.Background(), bob, "PDF:7:nonexistent.pdf")
	if !errors.Is(err, core.ErrUnauthorized) {
		t.Errorf("absent entry: expected ErrUnauthorized, got %v", err)
	}
}

func TestRetrieveCached_MalformedKeyIsUnauthorized(t *testing.T) {
	svc := NewTextService(&stubExtractor{}, cache.NewMemoryCache())
	_, err := svc.RetrieveCached(context.Background(), models.Actor{ID: "7", Name: "alice"}, "garbage")
	if !errors.Is(err, core.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestRetrieveCached_ExpiredOrAbsentIsNotFound(t *testing.T) {
	c := cache.NewMemoryCache()
	svc := NewTextService(&stubExtractor{}, c)
	alice := models.Actor{ID: "7", Name: "alice"}

	_, err := svc.RetrieveCached(context.Background(), alice, "PDF:7:never_written.pdf")
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("absent: expected ErrNotFound, got %v", err)
	}

	seedCachedText(t, c, "PDF:7:short.pdf", models.PageText{0: {"x"}}, 30*time.Millisecond)
	time.Sleep(80 * time.Millisecond)
	_, err = svc.RetrieveCached(context.Background(), alice, "PDF:7:short.pdf")
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expired: expected ErrNotFound, got %v", err)
	}
}

func TestRetrieveCached_SystemKey(t *testing.T) {
	// WHAT: entries written by the scheduler are scoped to the system
	// identity; a numeric user cannot read them.
	c := cache.NewMemoryCache()
	svc := NewTextService(&stubExtractor{}, c)
	seedCachedText(t, c, "PDF:SYSTEM:report.pdf", models.PageText{0: {"x"}}, 600*time.Second)

	_, err := svc.RetrieveCached(context.Background(), models.Actor{ID: "7", Name: "alice"}, "PDF:SYSTEM:report.pdf")
	if !errors.Is(err, core.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := svc.RetrieveCached(context.Background(), models.SystemActor, "PDF:SYSTEM:report.pdf"); err != nil {
		t.Errorf("system actor read failed: %v", err)
	}
}
