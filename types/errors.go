package types

import "errors"

var (
	// ErrUnsupportedFileType is returned when an upload's extension is not
	// one of pdf, docx or txt.
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrEmptyContent is returned when extraction yields no usable text.
	ErrEmptyContent = errors.New("no text content found in document")

	// ErrDecode is returned when a plain-text file is not valid UTF-8.
	ErrDecode = errors.New("file content is not valid UTF-8")

	// ErrIndexWrite is returned when passages could not be stored in the
	// vector index. The caller must not register the document.
	ErrIndexWrite = errors.New("failed to write passages to vector index")

	// ErrIndexUnavailable signals that the vector index never initialized.
	// Chat treats this as a degraded-mode condition, not a crash.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrEmptyMessage is returned for blank or whitespace-only chat input.
	ErrEmptyMessage = errors.New("message must not be empty")

	// ErrDocumentNotFound is returned for lookups of unknown document ids.
	ErrDocumentNotFound = errors.New("document not found")
)
