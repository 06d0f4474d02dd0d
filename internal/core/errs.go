// Package core holds the error taxonomy shared by services and handlers.
package core

import "errors"

var (
	// ErrNotFound covers a missing blob, cache key or metadata record.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is returned when an actor does not own what it asks for.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrConflict is returned when an upload collides with an existing canonical filename.
	ErrConflict = errors.New("already exists")
	// ErrUnsupportedType is returned when an upload is not a PDF.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrTooLarge is returned when an upload exceeds the size cap.
	ErrTooLarge = errors.New("file too large")
)
