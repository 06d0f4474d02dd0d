// Package blobstore holds uploaded originals, addressed by the owner-scoped
// location computed at upload time.
package blobstore

import "context"

// BlobStore abstracts byte storage so local disk and S3 are interchangeable.
type BlobStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]string, error)
}
