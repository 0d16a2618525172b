package types

import "time"

const (
	FileTypePDF  = "pdf"
	FileTypeDOCX = "docx"
	FileTypeTXT  = "txt"

	DocumentStatusProcessed = "processed"
)

// Document represents one ingested file in the registry.
type Document struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	FileType    string    `json:"file_type"`
	UploadDate  time.Time `json:"upload_date"`
	ChunksCount int       `json:"chunks_count"`
	Status      string    `json:"status"`
}

// Passage is one retrieval unit of a document's extracted text.
// Ordinals are contiguous and 0-based within a document.
type Passage struct {
	DocumentID string `json:"document_id"`
	Ordinal    int    `json:"ordinal"`
	Content    string `json:"content"`
}

// ChunkServiceConfig contains configuration options for text chunking
type ChunkServiceConfig struct {
	ChunkSize    int // Maximum size for text chunks
	ChunkOverlap int // Size of overlap between chunks
}
