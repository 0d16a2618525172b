package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tieubaoca/docqa-be/database"
	"github.com/tieubaoca/docqa-be/repository"
	"github.com/tieubaoca/docqa-be/types"
	"github.com/tieubaoca/docqa-be/utils"
)

// DocumentService runs the ingestion pipeline: extract, chunk, index,
// register. Ingestion and deletion of the same document id are serialized
// through a per-document lock.
type DocumentService struct {
	uploadDir string
	extractor *ExtractService
	chunker   *ChunkService
	index     database.VectorIndex
	repo      *repository.DocumentRepo
	docLocks  sync.Map // document id -> *sync.Mutex
}

func NewDocumentService(
	uploadDir string,
	extractor *ExtractService,
	chunker *ChunkService,
	index database.VectorIndex,
	repo *repository.DocumentRepo,
) *DocumentService {
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		panic(err)
	}
	return &DocumentService{
		uploadDir: uploadDir,
		extractor: extractor,
		chunker:   chunker,
		index:     index,
		repo:      repo,
	}
}

// Ingest processes an uploaded file and stores its passages in the vector
// index. On any failure nothing is registered and the index retains no
// passages for the new document.
func (s *DocumentService) Ingest(ctx context.Context, content []byte, filename string) (*types.Document, error) {
	if !utils.IsSupportedFileType(filename) {
		return nil, fmt.Errorf("%w: %s", types.ErrUnsupportedFileType, utils.GetFileExtension(filename))
	}
	fileType := utils.GetFileExtension(filename)

	tmp, err := os.CreateTemp(s.uploadDir, "upload-*."+fileType)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %v", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("failed to write temp file: %v", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to close temp file: %v", err)
	}

	text, err := s.extractor.ExtractText(tmp.Name(), fileType)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, types.ErrEmptyContent
	}

	chunks := s.chunker.Split(text)
	if len(chunks) == 0 {
		return nil, types.ErrEmptyContent
	}

	docID := uuid.NewString()
	unlock := s.lockDocument(docID)
	defer unlock()

	if s.index != nil && s.index.Ready() {
		if err := s.index.InsertPassages(ctx, docID, filename, chunks); err != nil {
			s.docLocks.Delete(docID)
			return nil, err
		}
	} else {
		// Degraded mode: the registry still records the document so the
		// catalog works, but its passages are not retrievable.
		log.Printf("Vector index unavailable, registering %s without passages", filename)
	}

	doc := &types.Document{
		ID:          docID,
		Filename:    filename,
		FileType:    fileType,
		UploadDate:  time.Now(),
		ChunksCount: len(chunks),
		Status:      types.DocumentStatusProcessed,
	}
	s.repo.Register(doc)

	return doc, nil
}

// List returns every registered document in upload order.
func (s *DocumentService) List() []*types.Document {
	return s.repo.List()
}

// Delete removes a document and all of its passages. Returns
// ErrDocumentNotFound for unknown ids, with no side effects.
func (s *DocumentService) Delete(ctx context.Context, id string) (bool, error) {
	unlock := s.lockDocument(id)
	defer unlock()

	if _, ok := s.repo.Get(id); !ok {
		s.docLocks.Delete(id)
		return false, fmt.Errorf("%w: %s", types.ErrDocumentNotFound, id)
	}

	if s.index != nil && s.index.Ready() {
		if _, err := s.index.DeletePassages(ctx, id); err != nil {
			return false, fmt.Errorf("failed to delete passages of document %s: %v", id, err)
		}
	}

	removed := s.repo.Remove(id)
	// The document is gone, so its lock entry can go too. Ids are never
	// reused, a late waiter on the old mutex just finds nothing to touch.
	s.docLocks.Delete(id)
	return removed, nil
}

func (s *DocumentService) lockDocument(id string) func() {
	m, _ := s.docLocks.LoadOrStore(id, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
