package database

import (
	"context"

	"github.com/tieubaoca/docqa-be/types"
)

// PassageHit is a retrieved passage with its source filename and
// similarity score. Score is cosine similarity, higher is more relevant.
type PassageHit struct {
	types.Passage
	Source string  `json:"source"`
	Score  float64 `json:"score"`
}

// Embedder converts texts into fixed-length vectors. Implementations may
// fail transiently (rate limits); the index surfaces that as a write or
// query error instead of crashing.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorIndex stores passage embeddings keyed by (document id, ordinal)
// and answers nearest-neighbor cosine similarity queries.
type VectorIndex interface {
	// InsertPassages embeds and stores the passages of one document.
	// The call is atomic from the caller's perspective: on failure the
	// index retains nothing for docID.
	InsertPassages(ctx context.Context, docID, source string, passages []string) error

	// DeletePassages removes every passage of docID. Reports whether any
	// passages existed; deleting an unknown document is a no-op.
	DeletePassages(ctx context.Context, docID string) (bool, error)

	// Query returns the limit nearest passages for text. When docIDs is
	// non-empty, retrieval is restricted to those documents.
	Query(ctx context.Context, text string, limit int, docIDs []string) ([]PassageHit, error)

	// Ready reports whether the index initialized and can serve queries.
	Ready() bool
}
