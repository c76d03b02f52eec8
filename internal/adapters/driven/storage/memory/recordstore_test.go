package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/homenet/internal/core/domain"
)

func TestRecordStore_AddDocument(t *testing.T) {
	store := NewRecordStore()
	ctx := context.Background()

	doc := &domain.DocumentRecord{Title: "notes", Content: "hello", FilePath: "/docs/notes.txt", FileType: ".txt"}
	id, err := store.AddDocument(ctx, doc)
	require.NoError(t, err)

	_, err = uuid.Parse(id)
	assert.NoError(t, err)
	assert.Empty(t, doc.ID, "caller's record is not mutated")

	docs, err := store.ListDocuments(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, id, docs[0].ID)
	assert.Equal(t, "hello", docs[0].Content)
	assert.False(t, docs[0].CreatedAt.IsZero())
}

func TestRecordStore_AddDocument_KeepsCreatedAt(t *testing.T) {
	store := NewRecordStore()
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	_, err := store.AddDocument(context.Background(), &domain.DocumentRecord{Content: "x", CreatedAt: created})
	require.NoError(t, err)

	docs, _ := store.ListDocuments(context.Background(), 1, 0)
	assert.Equal(t, created, docs[0].CreatedAt)
}

func TestRecordStore_NilRecords(t *testing.T) {
	store := NewRecordStore()

	_, err := store.AddDocument(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = store.AddImage(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRecordStore_DuplicatePathsAllowed(t *testing.T) {
	store := NewRecordStore()
	ctx := context.Background()

	id1, err := store.AddImage(ctx, &domain.ImageRecord{FilePath: "/img/a.png"})
	require.NoError(t, err)
	id2, err := store.AddImage(ctx, &domain.ImageRecord{FilePath: "/img/a.png"})
	require.NoError(t, err)

	assert.NotEqual(t, id1, id2)
	n, err := store.CountImages(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRecordStore_Paging(t *testing.T) {
	store := NewRecordStore()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := store.AddDocument(ctx, &domain.DocumentRecord{FilePath: fmt.Sprintf("/docs/%d.txt", i)})
		require.NoError(t, err)
	}

	tests := []struct {
		name   string
		limit  int
		offset int
		want   []string
	}{
		{"first page", 2, 0, []string{"/docs/0.txt", "/docs/1.txt"}},
		{"middle page", 2, 2, []string{"/docs/2.txt", "/docs/3.txt"}},
		{"short last page", 2, 4, []string{"/docs/4.txt"}},
		{"past the end", 2, 10, []string{}},
		{"no limit", 0, 3, []string{"/docs/3.txt", "/docs/4.txt"}},
		{"negative offset", 1, -1, []string{"/docs/0.txt"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, err := store.ListDocuments(ctx, tt.limit, tt.offset)
			require.NoError(t, err)
			paths := make([]string, 0, len(docs))
			for _, d := range docs {
				paths = append(paths, d.FilePath)
			}
			assert.Equal(t, tt.want, paths)
		})
	}
}

func TestRecordStore_Counts(t *testing.T) {
	store := NewRecordStore()
	ctx := context.Background()

	_, _ = store.AddDocument(ctx, &domain.DocumentRecord{Content: "a"})
	_, _ = store.AddDocument(ctx, &domain.DocumentRecord{Content: "b"})
	_, _ = store.AddImage(ctx, &domain.ImageRecord{Filename: "c.png"})

	docs, err := store.CountDocuments(ctx)
	require.NoError(t, err)
	images, err := store.CountImages(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, docs)
	assert.Equal(t, 1, images)
}

func TestRecordStore_CancelledContext(t *testing.T) {
	store := NewRecordStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.AddDocument(ctx, &domain.DocumentRecord{})
	assert.ErrorIs(t, err, context.Canceled)
	_, err = store.ListImages(ctx, 10, 0)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = store.CountDocuments(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRecordStore_ConcurrentAdds(t *testing.T) {
	store := NewRecordStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.AddDocument(ctx, &domain.DocumentRecord{Content: "x"})
			_, _ = store.AddImage(ctx, &domain.ImageRecord{Filename: "x.png"})
		}()
	}
	wg.Wait()

	docs, _ := store.CountDocuments(ctx)
	images, _ := store.CountImages(ctx)
	assert.Equal(t, 20, docs)
	assert.Equal(t, 20, images)
}
