package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/ironsheep/logo-gallery/internal/models"
)

const createLogosSQL = `
CREATE TABLE IF NOT EXISTS logos (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL,
	title TEXT NOT NULL,
	description TEXT,
	tags TEXT,
	filename TEXT,
	size_bytes INTEGER,
	content_hash TEXT NOT NULL,
	features BLOB NOT NULL,
	created_at TEXT NOT NULL,
	UNIQUE(owner_id, content_hash)
);
CREATE INDEX IF NOT EXISTS idx_logos_owner ON logos(owner_id);
CREATE INDEX IF NOT EXISTS idx_logos_content_hash ON logos(content_hash);`

// Columns added after the first schema; checked on every open.
var sqliteAddedColumns = []struct {
	name string
	ddl  string
}{
	{"mime_type", "ALTER TABLE logos ADD COLUMN mime_type TEXT;"},
}

// Fixed-width timestamps keep ORDER BY created_at chronological.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const selectLogoColumns = `SELECT id, owner_id, title, description, tags, filename,
	mime_type, size_bytes, content_hash, features, created_at FROM logos`

// SQLiteStore persists logos in a single SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and creates if needed) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createLogosSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create logos table: %w", err)
	}

	for _, col := range sqliteAddedColumns {
		var present bool
		err := db.QueryRow("SELECT COUNT(*) FROM pragma_table_info('logos') WHERE name=?", col.name).Scan(&present)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("check for %s column: %w", col.name, err)
		}
		if present {
			continue
		}
		if _, err := db.Exec(col.ddl); err != nil {
			db.Close()
			return nil, fmt.Errorf("add %s column: %w", col.name, err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) ListLogos(ctx context.Context) ([]models.Logo, error) {
	return s.query(ctx, selectLogoColumns+" ORDER BY created_at, id")
}

func (s *SQLiteStore) ListLogosByOwner(ctx context.Context, ownerID string) ([]models.Logo, error) {
	return s.query(ctx, selectLogoColumns+" WHERE owner_id = ? ORDER BY created_at, id", ownerID)
}

func (s *SQLiteStore) GetLogo(ctx context.Context, id string) (*models.Logo, error) {
	row := s.db.QueryRowContext(ctx, selectLogoColumns+" WHERE id = ?", id)
	logo, err := scanLogo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get logo %s: %w", id, err)
	}
	return logo, nil
}

func (s *SQLiteStore) CreateLogo(ctx context.Context, logo *models.Logo) error {
	tags, err := json.Marshal(logo.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	feats, err := json.Marshal(logo.Features)
	if err != nil {
		return fmt.Errorf("encode features: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO logos (
			id, owner_id, title, description, tags, filename, mime_type,
			size_bytes, content_hash, features, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		logo.ID, logo.OwnerID, logo.Title, logo.Description, string(tags),
		logo.Filename, logo.MimeType, logo.SizeBytes, logo.ContentHash,
		feats, logo.CreatedAt.UTC().Format(sqliteTimeLayout),
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		// Only the (owner_id, content_hash) index is UNIQUE; a repeated id
		// reports ErrConstraintPrimaryKey and stays a plain failure.
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return ErrDuplicate
		}
		return fmt.Errorf("insert logo %s: %w", logo.ID, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]models.Logo, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query logos: %w", err)
	}
	defer rows.Close()

	var logos []models.Logo
	for rows.Next() {
		logo, err := scanLogo(rows)
		if err != nil {
			return nil, err
		}
		logos = append(logos, *logo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate logos: %w", err)
	}
	return logos, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLogo(row rowScanner) (*models.Logo, error) {
	var (
		logo      models.Logo
		feats     []byte
		createdAt string
		sizeBytes sql.NullInt64

		description, tags, filename, mime sql.NullString
	)

	err := row.Scan(&logo.ID, &logo.OwnerID, &logo.Title, &description, &tags,
		&filename, &mime, &sizeBytes, &logo.ContentHash, &feats, &createdAt)
	if err != nil {
		return nil, err
	}

	logo.Description = description.String
	logo.Filename = filename.String
	logo.MimeType = mime.String
	logo.SizeBytes = sizeBytes.Int64

	if tags.Valid && tags.String != "" {
		if err := json.Unmarshal([]byte(tags.String), &logo.Tags); err != nil {
			return nil, fmt.Errorf("decode tags of %s: %w", logo.ID, err)
		}
	}
	if err := json.Unmarshal(feats, &logo.Features); err != nil {
		return nil, fmt.Errorf("decode features of %s: %w", logo.ID, err)
	}
	if logo.CreatedAt, err = time.Parse(sqliteTimeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("decode created_at of %s: %w", logo.ID, err)
	}
	return &logo, nil
}
