// Package extraction runs the per-document text extraction step shared by the
// periodic poller and the on-demand request path.
package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/davidokpare/extracta/internal/core"
	"github.com/davidokpare/extracta/internal/core/blobstore"
	"github.com/davidokpare/extracta/internal/core/cache"
	"github.com/davidokpare/extracta/internal/core/database"
	"github.com/davidokpare/extracta/internal/core/events"
	"github.com/davidokpare/extracta/internal/models"
)

// SystemArchiveDir is the blob prefix for durable snapshots written on
// system-actor extractions.
const SystemArchiveDir = "SYSTEM"

// cachePayload is the serialized form stored in the cache. Callers of
// Extract get the in-memory mapping, not this encoding.
type cachePayload struct {
	Text models.PageText `json:"text"`
}

// archivePayload additionally records the cache key in the durable snapshot.
type archivePayload struct {
	Text     models.PageText `json:"text"`
	CacheKey string          `json:"cache_key"`
}

// Engine reads a blob, extracts per-page text, caches the result, flips the
// processed flag, and emits a text_extracted event.
type Engine struct {
	registry database.Registry
	blobs    blobstore.BlobStore
	cache    cache.Cache
	parser   Parser
	events   events.Publisher
	ttl      time.Duration
}

func NewEngine(registry database.Registry, blobs blobstore.BlobStore, c cache.Cache, parser Parser, pub events.Publisher, ttl time.Duration) *Engine {
	if ttl <= 0 {
		ttl = 600 * time.Second
	}
	return &Engine{registry: registry, blobs: blobs, cache: c, parser: parser, events: pub, ttl: ttl}
}

// Extract runs one extraction for the given actor and filename. The filename
// is canonicalized before lookup. Side effects run in a fixed order: cache
// write, processed-flag update(s), event emission. The cache write must
// succeed for the extraction to succeed; the event is best-effort.
//
// Two distinct processed updates can fire for the same run: a filename-only
// update when the actor is the system, and an owner-scoped update when the
// actor's id matches a document owner. That mirrors the upstream behavior.
func (e *Engine) Extract(ctx context.Context, actor models.Actor, filename string) (string, models.PageText, error) {
	canonical := models.CanonicalFilename(filename)

	doc, err := e.registry.FindByFilename(ctx, canonical)
	if err != nil {
		return "", nil, fmt.Errorf("find document %q: %w", canonical, err)
	}
	if doc == nil {
		return "", nil, fmt.Errorf("document %q: %w", canonical, core.ErrNotFound)
	}

	ok, err := e.blobs.Exists(ctx, doc.Location)
	if err != nil {
		return "", nil, fmt.Errorf("stat blob %q: %w", doc.Location, err)
	}
	if !ok {
		return "", nil, fmt.Errorf("blob %q: %w", doc.Location, core.ErrNotFound)
	}

	data, err := e.blobs.Read(ctx, doc.Location)
	if err != nil {
		return "", nil, fmt.Errorf("read blob %q: %w", doc.Location, err)
	}

	text, err := e.parser.ExtractPages(data)
	if err != nil {
		return "", nil, fmt.Errorf("extract %q: %w", canonical, err)
	}

	key := cache.Key(actor.ID, canonical)

	payload, err := json.Marshal(cachePayload{Text: text})
	if err != nil {
		return "", nil, fmt.Errorf("marshal result: %w", err)
	}
	if err := e.cache.Set(ctx, key, payload, e.ttl); err != nil {
		return "", nil, fmt.Errorf("cache result: %w", err)
	}

	if actor.ID == models.SystemActorID {
		e.archiveSnapshot(ctx, canonical, key, text)

		// Filename-only update: flips processed on the matching document
		// regardless of who uploaded it.
		if sysDoc, err := e.registry.FindByFilename(ctx, canonical); err != nil {
			return "", nil, fmt.Errorf("find for processed flag: %w", err)
		} else if sysDoc != nil {
			if err := e.registry.MarkProcessed(ctx, sysDoc.ID); err != nil {
				return "", nil, fmt.Errorf("mark processed %d: %w", sysDoc.ID, err)
			}
		}
	}

	// Owner-scoped update: only fires when the actor has a numeric id and
	// owns a document under this canonical name. The system actor's id is
	// not numeric, so this never matches for scheduled runs.
	if ownerID, numeric := actor.OwnerID(); numeric {
		owned, err := e.registry.FindByFilenameAndOwner(ctx, canonical, ownerID)
		if err != nil {
			return "", nil, fmt.Errorf("find owned document: %w", err)
		}
		if owned != nil {
			if err := e.registry.MarkProcessed(ctx, owned.ID); err != nil {
				return "", nil, fmt.Errorf("mark processed %d: %w", owned.ID, err)
			}
		}
	}

	e.events.Publish(ctx, models.NewEvent(models.EventTextExtracted, actor, canonical))

	return key, text, nil
}

// archiveSnapshot writes the durable JSON copy a system extraction leaves
// behind. Failure is logged, not propagated.
func (e *Engine) archiveSnapshot(ctx context.Context, canonical, key string, text models.PageText) {
	snap, err := json.MarshalIndent(archivePayload{Text: text, CacheKey: key}, "", "    ")
	if err != nil {
		log.Printf("extraction: marshal snapshot for %q: %v", canonical, err)
		return
	}
	dest := SystemArchiveDir + "/" + canonical + ".json"
	if err := e.blobs.Write(ctx, dest, snap); err != nil {
		log.Printf("extraction: write snapshot %q: %v", dest, err)
	}
}
