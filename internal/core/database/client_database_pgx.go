package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/davidokpare/extracta/internal/models"
)

type PostgresRegistry struct {
	db *sql.DB
}

var _ Registry = (*PostgresRegistry)(nil)

func NewPostgresRegistry(ctx context.Context, databaseURL string) (*PostgresRegistry, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Sensible pool settings for an API service; adjust as needed.
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &PostgresRegistry{db: db}, nil
}

func (r *PostgresRegistry) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *PostgresRegistry) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return errors.New("nil user")
	}
	const q = `
		INSERT INTO users (username, password_hash, created_at)
		VALUES ($1, $2, COALESCE($3, now()))
		RETURNING id
	`
	return r.db.QueryRowContext(ctx, q, user.Username, user.PasswordHash, user.CreatedAt).Scan(&user.ID)
}

func (r *PostgresRegistry) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const q = `
		SELECT id, username, password_hash, created_at
		FROM users WHERE username = $1
	`
	var u models.User
	err := r.db.QueryRowContext(ctx, q, username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PostgresRegistry) CreateDocument(ctx context.Context, doc *models.Document) error {
	if doc == nil {
		return errors.New("nil document")
	}
	const q = `
		INSERT INTO documents (user_id, filename, location, size_mb, created_at, processed)
		VALUES ($1, $2, $3, $4, COALESCE($5, now()), $6)
		RETURNING id
	`
	return r.db.QueryRowContext(ctx, q,
		doc.UserID, doc.Filename, doc.Location, doc.SizeMB, doc.CreatedAt, doc.Processed).Scan(&doc.ID)
}

func (r *PostgresRegistry) FindUnprocessed(ctx context.Context) ([]models.Document, error) {
	const q = `
		SELECT id, user_id, filename, location, size_mb, created_at, processed
		FROM documents
		WHERE processed = false
		ORDER BY created_at ASC
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Document
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(&d.ID, &d.UserID, &d.Filename, &d.Location, &d.SizeMB, &d.CreatedAt, &d.Processed); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// FindByFilename resolves the first document matching the canonical filename,
// regardless of owner. Canonical filenames can collide across owners; the
// oldest row wins, exactly like the upstream query.
func (r *PostgresRegistry) FindByFilename(ctx context.Context, filename string) (*models.Document, error) {
	const q = `
		SELECT id, user_id, filename, location, size_mb, created_at, processed
		FROM documents
		WHERE filename = $1
		ORDER BY id ASC
		LIMIT 1
	`
	return r.scanOne(ctx, q, filename)
}

func (r *PostgresRegistry) FindByFilenameAndOwner(ctx context.Context, filename string, ownerID int64) (*models.Document, error) {
	const q = `
		SELECT id, user_id, filename, location, size_mb, created_at, processed
		FROM documents
		WHERE filename = $1 AND user_id = $2
		ORDER BY id ASC
		LIMIT 1
	`
	return r.scanOne(ctx, q, filename, ownerID)
}

func (r *PostgresRegistry) scanOne(ctx context.Context, q string, args ...any) (*models.Document, error) {
	var d models.Document
	err := r.db.QueryRowContext(ctx, q, args...).Scan(
		&d.ID, &d.UserID, &d.Filename, &d.Location, &d.SizeMB, &d.CreatedAt, &d.Processed,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// MarkProcessed flips the one-way processed flag. There is no way back to
// false; reprocessing is not part of this design.
func (r *PostgresRegistry) MarkProcessed(ctx context.Context, docID int64) error {
	const q = `UPDATE documents SET processed = true WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, docID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("document not found: %d", docID)
	}
	return nil
}

func (r *PostgresRegistry) DeleteDocument(ctx context.Context, docID int64) error {
	const q = `DELETE FROM documents WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, docID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("document not found: %d", docID)
	}
	return nil
}
