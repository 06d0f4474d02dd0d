package database

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/davidokpare/extracta/internal/models"
)

// MemoryRegistry is an in-process Registry used when no DATABASE_URL is
// configured (local development) and by the test suite.
type MemoryRegistry struct {
	mu     sync.Mutex
	users  map[int64]models.User
	docs   map[int64]models.Document
	nextID int64
}

var _ Registry = (*MemoryRegistry)(nil)

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		users:  make(map[int64]models.User),
		docs:   make(map[int64]models.Document),
		nextID: 1,
	}
}

func (r *MemoryRegistry) Close() error { return nil }

func (r *MemoryRegistry) CreateUser(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username {
			return fmt.Errorf("username taken: %s", user.Username)
		}
	}
	user.ID = r.nextID
	r.nextID++
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	r.users[user.ID] = *user
	return nil
}

func (r *MemoryRegistry) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			cp := u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *MemoryRegistry) CreateDocument(ctx context.Context, doc *models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc.ID = r.nextID
	r.nextID++
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	r.docs[doc.ID] = *doc
	return nil
}

func (r *MemoryRegistry) FindUnprocessed(ctx context.Context) ([]models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Document
	for _, d := range r.docs {
		if !d.Processed {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryRegistry) FindByFilename(ctx context.Context, filename string) (*models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.firstMatch(func(d models.Document) bool { return d.Filename == filename }), nil
}

func (r *MemoryRegistry) FindByFilenameAndOwner(ctx context.Context, filename string, ownerID int64) (*models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.firstMatch(func(d models.Document) bool {
		return d.Filename == filename && d.UserID == ownerID
	}), nil
}

// firstMatch returns the lowest-id document satisfying the predicate.
// Callers must hold r.mu.
func (r *MemoryRegistry) firstMatch(pred func(models.Document) bool) *models.Document {
	var best *models.Document
	for id, d := range r.docs {
		if !pred(d) {
			continue
		}
		if best == nil || id < best.ID {
			cp := d
			best = &cp
		}
	}
	return best
}

func (r *MemoryRegistry) MarkProcessed(ctx context.Context, docID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[docID]
	if !ok {
		return fmt.Errorf("document not found: %d", docID)
	}
	d.Processed = true
	r.docs[docID] = d
	return nil
}

func (r *MemoryRegistry) DeleteDocument(ctx context.Context, docID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[docID]; !ok {
		return fmt.Errorf("document not found: %d", docID)
	}
	delete(r.docs, docID)
	return nil
}
