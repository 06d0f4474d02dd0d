// Package scheduler polls the registry for unprocessed documents and drives
// batch extraction under the synthetic system identity.
package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/davidokpare/extracta/internal/core/database"
	"github.com/davidokpare/extracta/internal/models"
)

// Extractor is the slice of the extraction engine the poller needs.
type Extractor interface {
	Extract(ctx context.Context, actor models.Actor, filename string) (string, models.PageText, error)
}

// Config configures the poller.
type Config struct {
	// Interval is how often a pass fires. Default: 600 seconds.
	Interval time.Duration
	// MaxAttempts drops a document from future passes after this many
	// failed extractions. 0 means retry forever, which is the default.
	MaxAttempts int
}

func (c *Config) defaults() {
	if c.Interval <= 0 {
		c.Interval = 600 * time.Second
	}
}

// Scheduler fires extraction passes on a fixed interval. It is an owned
// object with an explicit Start/Stop lifecycle rather than a process-wide
// timer. Passes are not mutually excluded: a slow pass may still be running
// when the next tick fires.
type Scheduler struct {
	engine   Extractor
	registry database.Registry
	config   Config

	mu       sync.Mutex
	attempts map[int64]int
	cancel   context.CancelFunc
	done     chan struct{}
}

func New(engine Extractor, registry database.Registry, cfg Config) *Scheduler {
	cfg.defaults()
	return &Scheduler{
		engine:   engine,
		registry: registry,
		config:   cfg,
		attempts: make(map[int64]int),
	}
}

// Start launches the ticker goroutine. Stop or ctx cancellation ends it.
func (s *Scheduler) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.config.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				// Each tick runs independently; overlap with a
				// still-running pass is possible.
				go func() {
					if _, err := s.RunPass(runCtx); err != nil {
						log.Printf("scheduler: pass failed: %v", err)
					}
				}()
			}
		}
	}()
}

// Stop ends the ticker loop and waits for it to exit. In-flight passes are
// cancelled through the run context.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}

// RunPass queries all unprocessed documents and extracts each sequentially as
// the system actor. The returned count is the number of documents iterated;
// it does not distinguish per-document failure from success.
func (s *Scheduler) RunPass(ctx context.Context) (int, error) {
	docs, err := s.registry.FindUnprocessed(ctx)
	if err != nil {
		return 0, err
	}

	for _, doc := range docs {
		if s.exhausted(doc.ID) {
			continue
		}
		if _, _, err := s.engine.Extract(ctx, models.SystemActor, doc.Filename); err != nil {
			log.Printf("scheduler: extract %q: %v", doc.Filename, err)
			s.recordFailure(doc.ID)
		}
	}

	return len(docs), nil
}

func (s *Scheduler) exhausted(docID int64) bool {
	if s.config.MaxAttempts <= 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts[docID] >= s.config.MaxAttempts
}

func (s *Scheduler) recordFailure(docID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[docID]++
}
