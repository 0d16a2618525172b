package repository

import (
	"sync"

	"github.com/tieubaoca/docqa-be/types"
)

// DocumentRepo is the in-memory catalog of ingested documents. It is the
// source of truth for list and delete; it is not persisted across restarts.
type DocumentRepo struct {
	mu    sync.RWMutex
	byID  map[string]*types.Document
	order []string
}

func NewDocumentRepo() *DocumentRepo {
	return &DocumentRepo{
		byID: make(map[string]*types.Document),
	}
}

func (r *DocumentRepo) Register(doc *types.Document) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[doc.ID]; !exists {
		r.order = append(r.order, doc.ID)
	}
	r.byID[doc.ID] = doc
}

func (r *DocumentRepo) Get(id string) (*types.Document, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.byID[id]
	return doc, ok
}

// List returns all documents in insertion order.
func (r *DocumentRepo) List() []*types.Document {
	r.mu.RLock()
	defer r.mu.RUnlock()
	docs := make([]*types.Document, 0, len(r.order))
	for _, id := range r.order {
		docs = append(docs, r.byID[id])
	}
	return docs
}

func (r *DocumentRepo) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return false
	}
	delete(r.byID, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}
