package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/davidokpare/extracta/internal/core"
	"github.com/davidokpare/extracta/internal/core/blobstore"
	"github.com/davidokpare/extracta/internal/core/cache"
	"github.com/davidokpare/extracta/internal/core/database"
	"github.com/davidokpare/extracta/internal/models"
)

type fakeParser struct {
	pages models.PageText
	err   error
}

func (p *fakeParser) ExtractPages(data []byte) (models.PageText, error) {
	return p.pages, p.err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.Event
}

func (r *recordingPublisher) Publish(ctx context.Context, ev models.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingPublisher) last(t *testing.T) models.Event {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		t.Fatal("no events published")
	}
	return r.events[len(r.events)-1]
}

type failingCache struct{ cache.Cache }

func (failingCache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return errors.New("cache down")
}

type fixture struct {
	registry *database.MemoryRegistry
	blobs    *blobstore.LocalStore
	cache    cache.Cache
	parser   *fakeParser
	pub      *recordingPublisher
	engine   *Engine
	root     string
}

func newFixture(t *testing.T, ttl time.Duration) *fixture {
	t.Helper()
	root := t.TempDir()
	blobs, err := blobstore.NewLocalStore(root)
	if err != nil {
		t.Fatal(err)
	}
	f := &fixture{
		registry: database.NewMemoryRegistry(),
		blobs:    blobs,
		cache:    cache.NewMemoryCache(),
		parser:   &fakeParser{pages: models.PageText{0: {"line one", "line two"}}},
		pub:      &recordingPublisher{},
		root:     root,
	}
	f.engine = NewEngine(f.registry, f.blobs, f.cache, f.parser, f.pub, ttl)
	return f
}

// seedDocument registers a document for owner 7/alice and writes its blob.
func (f *fixture) seedDocument(t *testing.T) *models.Document {
	t.Helper()
	ctx := context.Background()
	doc := &models.Document{
		UserID:   7,
		Filename: "invoice_1.pdf",
		Location: models.BlobLocation(7, "alice", "invoice_1.pdf"),
		SizeMB:   0.1,
	}
	if err := f.registry.CreateDocument(ctx, doc); err != nil {
		t.Fatal(err)
	}
	if err := f.blobs.Write(ctx, doc.Location, []byte("%PDF-1.4 fake")); err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestExtract_OwnerActor(t *testing.T) {
	// WHAT: a successful extraction caches the result, flips processed on
	// the owner's document and emits a text_extracted event, in that order.
	f := newFixture(t, 600*time.Second)
	f.seedDocument(t)
	ctx := context.Background()
	alice := models.Actor{ID: "7", Name: "alice"}

	key, text, err := f.engine.Extract(ctx, alice, "Invoice_1.pdf")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if key != "PDF:7:invoice_1.pdf" {
		t.Errorf("key = %q", key)
	}
	if _, ok := text[0]; !ok {
		t.Error("page 0 missing from returned text")
	}

	doc, _ := f.registry.FindByFilename(ctx, "invoice_1.pdf")
	if doc == nil || !doc.Processed {
		t.Error("document not marked processed")
	}

	raw, err := f.cache.Get(ctx, key)
	if err != nil {
		t.Fatalf("cache entry unreadable: %v", err)
	}
	var payload struct {
		Text models.PageText `json:"text"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("decode cached payload: %v", err)
	}
	if len(payload.Text[0]) != 2 {
		t.Errorf("cached page 0 = %v", payload.Text[0])
	}

	ev := f.pub.last(t)
	if ev.Event != models.EventTextExtracted || ev.ID != "7" || ev.Username != "alice" || ev.Filename != "invoice_1.pdf" {
		t.Errorf("event = %+v", ev)
	}
}

func TestExtract_SystemActor(t *testing.T) {
	// WHAT: a system extraction flips processed on the filename match
	// regardless of uploader and leaves a durable JSON snapshot behind.
	f := newFixture(t, 600*time.Second)
	f.seedDocument(t)
	ctx := context.Background()

	key, _, err := f.engine.Extract(ctx, models.SystemActor, "invoice_1.pdf")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if key != "PDF:SYSTEM:invoice_1.pdf" {
		t.Errorf("key = %q", key)
	}

	doc, _ := f.registry.FindByFilename(ctx, "invoice_1.pdf")
	if doc == nil || !doc.Processed {
		t.Error("document not marked processed by system actor")
	}

	snap, err := os.ReadFile(filepath.Join(f.root, SystemArchiveDir, "invoice_1.pdf.json"))
	if err != nil {
		t.Fatalf("snapshot missing: %v", err)
	}
	var archived struct {
		Text     models.PageText `json:"text"`
		CacheKey string          `json:"cache_key"`
	}
	if err := json.Unmarshal(snap, &archived); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if archived.CacheKey != key {
		t.Errorf("snapshot cache_key = %q", archived.CacheKey)
	}
}

func TestExtract_ForeignActorDoesNotFlipProcessed(t *testing.T) {
	// WHAT: a non-owner, non-system actor can extract but never flips the
	// processed flag of someone else's document.
	f := newFixture(t, 600*time.Second)
	f.seedDocument(t)
	ctx := context.Background()

	key, _, err := f.engine.Extract(ctx, models.Actor{ID: "9", Name: "bob"}, "invoice_1.pdf")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if key != "PDF:9:invoice_1.pdf" {
		t.Errorf("key = %q", key)
	}

	doc, _ := f.registry.FindByFilename(ctx, "invoice_1.pdf")
	if doc.Processed {
		t.Error("foreign actor must not mark the document processed")
	}
}

func TestExtract_MissingDocument(t *testing.T) {
	f := newFixture(t, 600*time.Second)
	_, _, err := f.engine.Extract(context.Background(), models.Actor{ID: "7", Name: "alice"}, "ghost.pdf")
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestExtract_MissingBlob(t *testing.T) {
	// WHAT: a registry row whose blob vanished is NotFound, and the
	// document stays unprocessed so the poller keeps retrying it.
	f := newFixture(t, 600*time.Second)
	ctx := context.Background()
	doc := &models.Document{UserID: 7, Filename: "gone.pdf", Location: "7_alice/gone.pdf"}
	if err := f.registry.CreateDocument(ctx, doc); err != nil {
		t.Fatal(err)
	}

	_, _, err := f.engine.Extract(ctx, models.Actor{ID: "7", Name: "alice"}, "gone.pdf")
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	got, _ := f.registry.FindByFilename(ctx, "gone.pdf")
	if got.Processed {
		t.Error("failed extraction must leave processed=false")
	}
}

func TestExtract_BlankDocument(t *testing.T) {
	// WHAT: a document whose every page is blank caches an empty mapping,
	// not a mapping of empty line slices.
	f := newFixture(t, 600*time.Second)
	f.seedDocument(t)
	f.parser.pages = models.PageText{}
	ctx := context.Background()

	key, text, err := f.engine.Extract(ctx, models.Actor{ID: "7", Name: "alice"}, "invoice_1.pdf")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(text) != 0 {
		t.Errorf("expected empty mapping, got %v", text)
	}

	raw, err := f.cache.Get(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != `{"text":{}}` {
		t.Errorf("cached payload = %s", raw)
	}
}

func TestExtract_CacheWriteFailureAborts(t *testing.T) {
	// WHAT: engine-level success requires the cache write; on failure the
	// processed flag stays false and no event fires.
	f := newFixture(t, 600*time.Second)
	f.seedDocument(t)
	f.engine = NewEngine(f.registry, f.blobs, failingCache{f.cache}, f.parser, f.pub, 600*time.Second)
	ctx := context.Background()

	_, _, err := f.engine.Extract(ctx, models.Actor{ID: "7", Name: "alice"}, "invoice_1.pdf")
	if err == nil {
		t.Fatal("expected error when cache write fails")
	}
	doc, _ := f.registry.FindByFilename(ctx, "invoice_1.pdf")
	if doc.Processed {
		t.Error("processed must stay false when the cache write fails")
	}
	if len(f.pub.events) != 0 {
		t.Error("no event may fire when extraction fails")
	}
}

func TestExtract_RewriteResetsTTL(t *testing.T) {
	// WHAT: re-running extraction restarts the cache countdown.
	f := newFixture(t, 300*time.Millisecond)
	f.seedDocument(t)
	ctx := context.Background()
	alice := models.Actor{ID: "7", Name: "alice"}

	key, _, err := f.engine.Extract(ctx, alice, "invoice_1.pdf")
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(150 * time.Millisecond)
	before, err := f.cache.TTL(ctx, key)
	if err != nil {
		t.Fatal(err)
	}

	if _, _, err := f.engine.Extract(ctx, alice, "invoice_1.pdf"); err != nil {
		t.Fatal(err)
	}
	after, err := f.cache.TTL(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	if after <= before {
		t.Errorf("ttl not reset: before=%v after=%v", before, after)
	}
}
