package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/davidokpare/extracta/internal/core"
	"github.com/davidokpare/extracta/internal/core/cache"
	"github.com/davidokpare/extracta/internal/models"
)

// Extractor is the slice of the extraction engine this service needs.
type Extractor interface {
	Extract(ctx context.Context, actor models.Actor, filename string) (string, models.PageText, error)
}

// TextService exposes the on-demand extraction path and cached retrieval.
type TextService struct {
	engine Extractor
	cache  cache.Cache
}

func NewTextService(engine Extractor, c cache.Cache) *TextService {
	return &TextService{engine: engine, cache: c}
}

// Extract runs the extraction engine synchronously for the requesting actor
// and returns the cache key plus a snapshot of the text.
func (s *TextService) Extract(ctx context.Context, actor models.Actor, filename string) (string, models.PageText, error) {
	return s.engine.Extract(ctx, actor, filename)
}

// CachedText is what RetrieveCached hands back: the remaining TTL of the
// entry and the decoded text mapping.
type CachedText struct {
	TTL  time.Duration
	Text models.PageText
}

// RetrieveCached looks up a previously extracted result by its cache key.
//
// Ownership is checked against the owner id embedded in the caller-supplied
// key string itself, not a server-held record; a mismatched or malformed key
// is ErrUnauthorized even when no such entry exists. An absent or expired
// entry is ErrNotFound.
func (s *TextService) RetrieveCached(ctx context.Context, actor models.Actor, key string) (*CachedText, error) {
	parts := strings.SplitN(key, ":", 3)
	if len(parts) < 3 || parts[1] != actor.ID {
		return nil, fmt.Errorf("cache key %q: %w", key, core.ErrUnauthorized)
	}

	raw, err := s.cache.Get(ctx, key)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, fmt.Errorf("cache key %q: %w", key, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}

	ttl, err := s.cache.TTL(ctx, key)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, fmt.Errorf("cache key %q: %w", key, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("cache ttl: %w", err)
	}

	var payload struct {
		Text models.PageText `json:"text"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode cached result: %w", err)
	}

	return &CachedText{TTL: ttl, Text: payload.Text}, nil
}
