package service

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tieubaoca/docqa-be/database"
	"github.com/tieubaoca/docqa-be/repository"
	"github.com/tieubaoca/docqa-be/types"
)

func newDocumentFixture(t *testing.T) (*DocumentService, *database.MemoryIndex, *repository.DocumentRepo) {
	t.Helper()
	index := database.NewMemoryIndex(letterFreqEmbedder{})
	repo := repository.NewDocumentRepo()
	svc := NewDocumentService(
		t.TempDir(),
		NewExtractService(),
		NewChunkService(DefaultChunkServiceConfig),
		index,
		repo,
	)
	return svc, index, repo
}

func TestDocumentService_IngestTXT(t *testing.T) {
	svc, index, repo := newDocumentFixture(t)

	doc, err := svc.Ingest(context.Background(), []byte("a plain text document about pumps"), "pumps.txt")

	require.NoError(t, err)
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "pumps.txt", doc.Filename)
	assert.Equal(t, "txt", doc.FileType)
	assert.Equal(t, types.DocumentStatusProcessed, doc.Status)
	assert.False(t, doc.UploadDate.IsZero())

	// chunks_count matches what the index actually holds.
	assert.Equal(t, doc.ChunksCount, index.CountPassages(doc.ID))

	registered, ok := repo.Get(doc.ID)
	require.True(t, ok)
	assert.Equal(t, doc, registered)
}

func TestDocumentService_IngestLongTextChunksCountInvariant(t *testing.T) {
	svc, index, _ := newDocumentFixture(t)
	paragraphs := []string{
		strings.TrimSpace(strings.Repeat("first paragraph about revenue and growth ", 21)),
		strings.TrimSpace(strings.Repeat("second paragraph about operating expenses ", 20)),
		strings.TrimSpace(strings.Repeat("third paragraph about the yearly outlook ", 20)),
	}
	content := strings.Join(paragraphs, "\n\n")
	require.Greater(t, len(content), 2400)

	doc, err := svc.Ingest(context.Background(), []byte(content), "report.txt")

	require.NoError(t, err)
	assert.Greater(t, doc.ChunksCount, 1)
	assert.Equal(t, doc.ChunksCount, index.CountPassages(doc.ID))
}

func TestDocumentService_IngestUnsupportedType(t *testing.T) {
	svc, _, repo := newDocumentFixture(t)

	_, err := svc.Ingest(context.Background(), []byte("col1,col2"), "data.csv")

	assert.ErrorIs(t, err, types.ErrUnsupportedFileType)
	assert.Empty(t, repo.List())
}

func TestDocumentService_IngestEmptyContent(t *testing.T) {
	svc, _, repo := newDocumentFixture(t)

	_, err := svc.Ingest(context.Background(), []byte("   \n\n  "), "empty.txt")

	assert.ErrorIs(t, err, types.ErrEmptyContent)
	assert.Empty(t, repo.List())
}

func TestDocumentService_IngestEmbedderFailureRegistersNothing(t *testing.T) {
	index := database.NewMemoryIndex(failingEmbedder{})
	repo := repository.NewDocumentRepo()
	svc := NewDocumentService(t.TempDir(), NewExtractService(), NewChunkService(DefaultChunkServiceConfig), index, repo)

	_, err := svc.Ingest(context.Background(), []byte("some real content"), "doc.txt")

	assert.ErrorIs(t, err, types.ErrIndexWrite)
	assert.Empty(t, repo.List())
}

func TestDocumentService_DeleteRemovesDocumentAndPassages(t *testing.T) {
	svc, index, _ := newDocumentFixture(t)
	ctx := context.Background()
	doc, err := svc.Ingest(ctx, []byte("a document that will be deleted"), "gone.txt")
	require.NoError(t, err)

	deleted, err := svc.Delete(ctx, doc.ID)

	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Empty(t, svc.List())
	assert.Equal(t, 0, index.CountPassages(doc.ID))
}

func TestDocumentService_DeleteUnknownID(t *testing.T) {
	svc, _, _ := newDocumentFixture(t)
	ctx := context.Background()
	doc, err := svc.Ingest(ctx, []byte("still here afterwards"), "keep.txt")
	require.NoError(t, err)

	deleted, err := svc.Delete(ctx, "no-such-id")

	assert.ErrorIs(t, err, types.ErrDocumentNotFound)
	assert.False(t, deleted)
	// No side effects on other documents.
	require.Len(t, svc.List(), 1)
	assert.Equal(t, doc.ID, svc.List()[0].ID)
}

func TestDocumentService_LockEntriesReleased(t *testing.T) {
	svc, _, _ := newDocumentFixture(t)
	ctx := context.Background()

	doc, err := svc.Ingest(ctx, []byte("a short lived document"), "gone.txt")
	require.NoError(t, err)
	assert.Equal(t, 1, lockCount(svc))

	_, err = svc.Delete(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, lockCount(svc), "deleting a document must release its lock entry")

	_, err = svc.Delete(ctx, "no-such-id")
	require.Error(t, err)
	assert.Equal(t, 0, lockCount(svc), "a failed delete must not leave a lock entry behind")
}

func TestDocumentService_LockEntryReleasedOnFailedIngest(t *testing.T) {
	index := database.NewMemoryIndex(failingEmbedder{})
	svc := NewDocumentService(t.TempDir(), NewExtractService(), NewChunkService(DefaultChunkServiceConfig), index, repository.NewDocumentRepo())

	_, err := svc.Ingest(context.Background(), []byte("some real content"), "doc.txt")

	require.Error(t, err)
	assert.Equal(t, 0, lockCount(svc))
}

func lockCount(svc *DocumentService) int {
	count := 0
	svc.docLocks.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

func TestDocumentService_ListInsertionOrder(t *testing.T) {
	svc, _, _ := newDocumentFixture(t)
	ctx := context.Background()

	first, err := svc.Ingest(ctx, []byte("first document"), "a.txt")
	require.NoError(t, err)
	second, err := svc.Ingest(ctx, []byte("second document"), "b.txt")
	require.NoError(t, err)

	docs := svc.List()
	require.Len(t, docs, 2)
	assert.Equal(t, first.ID, docs[0].ID)
	assert.Equal(t, second.ID, docs[1].ID)
}

func TestDocumentService_TempFilesCleanedUp(t *testing.T) {
	uploadDir := t.TempDir()
	index := database.NewMemoryIndex(letterFreqEmbedder{})
	svc := NewDocumentService(uploadDir, NewExtractService(), NewChunkService(DefaultChunkServiceConfig), index, repository.NewDocumentRepo())
	ctx := context.Background()

	_, err := svc.Ingest(ctx, []byte("content for cleanup check"), "ok.txt")
	require.NoError(t, err)
	_, err = svc.Ingest(ctx, []byte("   "), "empty.txt")
	require.Error(t, err)

	entries, err := os.ReadDir(uploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temp files must be removed on success and failure")
}
