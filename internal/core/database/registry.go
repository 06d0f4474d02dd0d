package database

import (
	"context"

	"github.com/davidokpare/extracta/internal/models"
)

// Registry defines the durable metadata operations the service needs.
// It abstracts Postgres so higher layers never depend on a specific DB.
type Registry interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	CreateDocument(ctx context.Context, doc *models.Document) error
	FindUnprocessed(ctx context.Context) ([]models.Document, error)
	FindByFilename(ctx context.Context, filename string) (*models.Document, error)
	FindByFilenameAndOwner(ctx context.Context, filename string, ownerID int64) (*models.Document, error)
	MarkProcessed(ctx context.Context, docID int64) error
	DeleteDocument(ctx context.Context, docID int64) error

	Close() error
}
