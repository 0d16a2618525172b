package database

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/tieubaoca/docqa-be/types"
)

type memoryRecord struct {
	key     string
	docID   string
	source  string
	ordinal int
	content string
	vector  []float32
}

// MemoryIndex is a process-local vector index using brute-force cosine
// similarity. It carries no persistence; the Weaviate index is the durable
// engine. Intended for tests and single-node deployments without Weaviate.
type MemoryIndex struct {
	mu       sync.RWMutex
	embedder Embedder
	records  []memoryRecord
}

func NewMemoryIndex(embedder Embedder) *MemoryIndex {
	return &MemoryIndex{embedder: embedder}
}

func (s *MemoryIndex) Ready() bool {
	return s != nil
}

func (s *MemoryIndex) InsertPassages(ctx context.Context, docID, source string, passages []string) error {
	embeddings, err := s.embedder.Embed(ctx, passages)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrIndexWrite, err)
	}
	if len(embeddings) != len(passages) {
		return fmt.Errorf("%w: embedder returned %d vectors for %d passages",
			types.ErrIndexWrite, len(embeddings), len(passages))
	}

	records := make([]memoryRecord, len(passages))
	for i, content := range passages {
		records[i] = memoryRecord{
			key:     fmt.Sprintf("%s_%d", docID, i),
			docID:   docID,
			source:  source,
			ordinal: i,
			content: content,
			vector:  embeddings[i],
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Replace any previous passages of this document so a re-ingest under
	// the same id never duplicates keys.
	s.removeLocked(docID)
	s.records = append(s.records, records...)
	return nil
}

func (s *MemoryIndex) DeletePassages(ctx context.Context, docID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(docID), nil
}

func (s *MemoryIndex) removeLocked(docID string) bool {
	kept := s.records[:0]
	removed := false
	for _, rec := range s.records {
		if rec.docID == docID {
			removed = true
			continue
		}
		kept = append(kept, rec)
	}
	s.records = kept
	return removed
}

func (s *MemoryIndex) Query(ctx context.Context, text string, limit int, docIDs []string) ([]PassageHit, error) {
	embeddings, err := s.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %v", err)
	}
	query := embeddings[0]

	var scope map[string]bool
	if len(docIDs) > 0 {
		scope = make(map[string]bool, len(docIDs))
		for _, id := range docIDs {
			scope[id] = true
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var hits []PassageHit
	for _, rec := range s.records {
		if scope != nil && !scope[rec.docID] {
			continue
		}
		hits = append(hits, PassageHit{
			Passage: types.Passage{
				DocumentID: rec.docID,
				Ordinal:    rec.ordinal,
				Content:    rec.content,
			},
			Source: rec.source,
			Score:  cosineSimilarity(query, rec.vector),
		})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// CountPassages reports how many passages of docID the index holds.
func (s *MemoryIndex) CountPassages(docID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, rec := range s.records {
		if rec.docID == docID {
			count++
		}
	}
	return count
}

func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
