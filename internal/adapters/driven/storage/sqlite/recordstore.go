package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/homenet/internal/core/domain"
	"github.com/custodia-labs/homenet/internal/core/ports/driven"
)

// recordStore implements driven.RecordStore.
type recordStore struct {
	store *Store
}

var _ driven.RecordStore = (*recordStore)(nil)

// documentMeta is the JSON shape of the documents.metadata column.
type documentMeta struct {
	FileSize    int64           `json:"file_size"`
	ProcessedAt time.Time       `json:"processed_at"`
	Source      string          `json:"source"`
	Strategy    domain.Strategy `json:"strategy,omitempty"`
	Units       int             `json:"units,omitempty"`
}

// imageMeta is the JSON shape of the images.metadata column.
type imageMeta struct {
	FileSize       int64     `json:"file_size"`
	ProcessedAt    time.Time `json:"processed_at"`
	Source         string    `json:"source"`
	OCRError       string    `json:"ocr_error,omitempty"`
	InspectError   string    `json:"inspect_error,omitempty"`
	FileCreatedAt  time.Time `json:"file_created_at,omitzero"`
	FileModifiedAt time.Time `json:"file_modified_at,omitzero"`
	Album          string    `json:"album,omitempty"`
}

// AddDocument inserts doc under a fresh UUID.
func (s *recordStore) AddDocument(ctx context.Context, doc *domain.DocumentRecord) (string, error) {
	if doc == nil {
		return "", domain.ErrInvalidInput
	}

	meta, err := json.Marshal(documentMeta(doc.Metadata))
	if err != nil {
		return "", fmt.Errorf("marshaling document metadata: %w", err)
	}

	id := uuid.NewString()
	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO documents (id, title, content, file_path, file_type, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id, doc.Title, doc.Content, doc.FilePath, doc.FileType, string(meta), formatTime(doc.CreatedAt))
	if err != nil {
		return "", fmt.Errorf("inserting document: %w", err)
	}
	return id, nil
}

// AddImage inserts img under a fresh UUID.
func (s *recordStore) AddImage(ctx context.Context, img *domain.ImageRecord) (string, error) {
	if img == nil {
		return "", domain.ErrInvalidInput
	}

	meta, err := json.Marshal(imageMeta(img.Metadata))
	if err != nil {
		return "", fmt.Errorf("marshaling image metadata: %w", err)
	}

	id := uuid.NewString()
	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO images (id, filename, extracted_text, file_path, width, height, format, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, img.Filename, img.ExtractedText, img.FilePath,
		img.Dimensions.Width, img.Dimensions.Height, img.Format,
		string(meta), formatTime(img.CreatedAt))
	if err != nil {
		return "", fmt.Errorf("inserting image: %w", err)
	}
	return id, nil
}

// ListDocuments returns documents in insertion order.
func (s *recordStore) ListDocuments(ctx context.Context, limit, offset int) ([]domain.DocumentRecord, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, title, content, file_path, file_type, metadata, created_at
		FROM documents ORDER BY rowid LIMIT ? OFFSET ?
	`, sqlLimit(limit), max(offset, 0))
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	docs := []domain.DocumentRecord{}
	for rows.Next() {
		var doc domain.DocumentRecord
		var meta, created string
		if err := rows.Scan(&doc.ID, &doc.Title, &doc.Content, &doc.FilePath, &doc.FileType, &meta, &created); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		var m documentMeta
		if err := json.Unmarshal([]byte(meta), &m); err != nil {
			return nil, fmt.Errorf("unmarshaling metadata for document %s: %w", doc.ID, err)
		}
		doc.Metadata = domain.DocumentMetadata(m)
		doc.CreatedAt = parseTime(created)
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// ListImages returns images in insertion order.
func (s *recordStore) ListImages(ctx context.Context, limit, offset int) ([]domain.ImageRecord, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, filename, extracted_text, file_path, width, height, format, metadata, created_at
		FROM images ORDER BY rowid LIMIT ? OFFSET ?
	`, sqlLimit(limit), max(offset, 0))
	if err != nil {
		return nil, fmt.Errorf("querying images: %w", err)
	}
	defer rows.Close()

	images := []domain.ImageRecord{}
	for rows.Next() {
		var img domain.ImageRecord
		var meta, created string
		if err := rows.Scan(&img.ID, &img.Filename, &img.ExtractedText, &img.FilePath,
			&img.Dimensions.Width, &img.Dimensions.Height, &img.Format, &meta, &created); err != nil {
			return nil, fmt.Errorf("scanning image: %w", err)
		}
		var m imageMeta
		if err := json.Unmarshal([]byte(meta), &m); err != nil {
			return nil, fmt.Errorf("unmarshaling metadata for image %s: %w", img.ID, err)
		}
		img.Metadata = domain.ImageMetadata(m)
		img.CreatedAt = parseTime(created)
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating images: %w", err)
	}
	return images, nil
}

// CountDocuments returns the number of stored documents.
func (s *recordStore) CountDocuments(ctx context.Context) (int, error) {
	return s.count(ctx, "documents")
}

// CountImages returns the number of stored images.
func (s *recordStore) CountImages(ctx context.Context) (int, error) {
	return s.count(ctx, "images")
}

func (s *recordStore) count(ctx context.Context, table string) (int, error) {
	var n int
	//nolint:gosec // G202: table is one of two constants above.
	if err := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting %s: %w", table, err)
	}
	return n, nil
}

// sqlLimit maps a non-positive limit to SQLite's "no limit".
func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

// timeLayout is fixed width so stored timestamps sort as strings.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// formatTime stores t in UTC, using now for a zero time.
func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// nullableString unwraps ns, mapping NULL to "".
func nullableString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}
