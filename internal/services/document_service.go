package services

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/h2non/filetype"

	"github.com/davidokpare/extracta/internal/core"
	"github.com/davidokpare/extracta/internal/core/blobstore"
	"github.com/davidokpare/extracta/internal/core/database"
	"github.com/davidokpare/extracta/internal/core/events"
	"github.com/davidokpare/extracta/internal/models"
)

// DocumentService covers the upload path and per-document housekeeping.
type DocumentService struct {
	registry database.Registry
	blobs    blobstore.BlobStore
	events   events.Publisher
	maxBytes int64
}

func NewDocumentService(registry database.Registry, blobs blobstore.BlobStore, pub events.Publisher, maxBytes int64) *DocumentService {
	if maxBytes <= 0 {
		maxBytes = 104857600 // 100MB
	}
	return &DocumentService{registry: registry, blobs: blobs, events: pub, maxBytes: maxBytes}
}

// Upload stores a new PDF for the actor. The filename is canonicalized
// first; duplicate detection relies on the blob existence check under the
// canonical name, so two uploads whose names merely collide after
// canonicalization are rejected as duplicates too. The registry row is
// committed before the blob write, matching the upstream ordering.
func (s *DocumentService) Upload(ctx context.Context, actor models.Actor, filename string, content []byte) (*models.Document, error) {
	ownerID, ok := actor.OwnerID()
	if !ok {
		return nil, fmt.Errorf("actor %q: %w", actor.ID, core.ErrUnauthorized)
	}

	if !filetype.Is(content, "pdf") {
		return nil, fmt.Errorf("%q: %w", filename, core.ErrUnsupportedType)
	}

	canonical := models.CanonicalFilename(filename)
	location := models.BlobLocation(ownerID, actor.Name, canonical)

	exists, err := s.blobs.Exists(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("stat blob %q: %w", location, err)
	}
	if exists {
		return nil, fmt.Errorf("file %q: %w", canonical, core.ErrConflict)
	}

	if int64(len(content)) >= s.maxBytes {
		return nil, fmt.Errorf("%d bytes: %w", len(content), core.ErrTooLarge)
	}

	doc := &models.Document{
		UserID:    ownerID,
		Filename:  canonical,
		Location:  location,
		SizeMB:    models.SizeInMB(int64(len(content))),
		CreatedAt: time.Now().UTC(),
		Processed: false,
	}
	if err := s.registry.CreateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}

	if err := s.blobs.Write(ctx, location, content); err != nil {
		return nil, fmt.Errorf("write blob %q: %w", location, err)
	}

	s.events.Publish(ctx, models.NewEvent(models.EventUpload, actor, canonical))

	return doc, nil
}

// List returns the file names stored under the actor's namespace.
func (s *DocumentService) List(ctx context.Context, actor models.Actor) ([]string, error) {
	ownerID, ok := actor.OwnerID()
	if !ok {
		return nil, fmt.Errorf("actor %q: %w", actor.ID, core.ErrUnauthorized)
	}
	return s.blobs.List(ctx, fmt.Sprintf("%d_%s", ownerID, actor.Name))
}

// Metadata looks a document up by the filename exactly as given; names that
// were canonicalized at upload only match when the caller passes the
// canonical form.
func (s *DocumentService) Metadata(ctx context.Context, actor models.Actor, filename string) (*models.Document, error) {
	ownerID, ok := actor.OwnerID()
	if !ok {
		return nil, fmt.Errorf("actor %q: %w", actor.ID, core.ErrUnauthorized)
	}
	doc, err := s.registry.FindByFilenameAndOwner(ctx, filename, ownerID)
	if err != nil {
		return nil, fmt.Errorf("find document: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("document %q: %w", filename, core.ErrNotFound)
	}
	return doc, nil
}

// Delete removes the registry row and the stored blob. A blob that is
// already gone does not fail the delete.
func (s *DocumentService) Delete(ctx context.Context, actor models.Actor, filename string) error {
	doc, err := s.Metadata(ctx, actor, filename)
	if err != nil {
		return err
	}
	if err := s.registry.DeleteDocument(ctx, doc.ID); err != nil {
		return fmt.Errorf("delete document %d: %w", doc.ID, err)
	}
	if err := s.blobs.Delete(ctx, doc.Location); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete blob %q: %w", doc.Location, err)
	}
	return nil
}
