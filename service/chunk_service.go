package service

import (
	"strings"
	"unicode/utf8"

	"github.com/tieubaoca/docqa-be/types"
)

var DefaultChunkServiceConfig = types.ChunkServiceConfig{
	ChunkSize:    1000,
	ChunkOverlap: 200,
}

// separator classes tried in priority order; the empty string is the raw
// character fallback.
var chunkSeparators = []string{"\n\n", "\n", " ", ""}

// ChunkService splits extracted text into overlapping passages sized for
// embedding and retrieval.
type ChunkService struct {
	chunkSize    int // Maximum size of each text chunk
	chunkOverlap int // Size of overlap between chunks
}

func NewChunkService(config types.ChunkServiceConfig) *ChunkService {
	if config.ChunkSize <= 0 {
		config.ChunkSize = DefaultChunkServiceConfig.ChunkSize
	}
	if config.ChunkOverlap < 0 || config.ChunkOverlap >= config.ChunkSize {
		config.ChunkOverlap = DefaultChunkServiceConfig.ChunkOverlap
	}
	return &ChunkService{
		chunkSize:    config.ChunkSize,
		chunkOverlap: config.ChunkOverlap,
	}
}

// Split breaks text into passages of at most the configured chunk size,
// sharing the configured overlap between consecutive passages. Sizes and
// offsets count characters, not bytes, so multi-byte text is never cut
// mid-rune. Breaks are placed at paragraph boundaries where possible, then
// line boundaries, then word boundaries, then raw characters. Empty input
// yields no passages.
func (s *ChunkService) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	runes := []rune(text)
	if len(runes) <= s.chunkSize {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + s.chunkSize
		if end >= len(runes) {
			if chunk := strings.TrimSpace(string(runes[start:])); chunk != "" {
				chunks = append(chunks, chunk)
			}
			break
		}

		breakAt := s.findBreak(runes, start, end)
		if chunk := strings.TrimSpace(string(runes[start:breakAt])); chunk != "" {
			chunks = append(chunks, chunk)
		}

		next := breakAt - s.chunkOverlap
		if next <= start {
			// The break landed too close to the window start for the
			// overlap to fit; move on without it to guarantee progress.
			next = breakAt
		}
		start = next
	}
	return chunks
}

// findBreak picks the break position (in runes) for the window [start, end),
// trying each separator class in priority order before falling back to a raw
// character break at end. A separator inside the overlapped prefix is
// ignored so a chunk always extends past the content it shares with its
// predecessor.
func (s *ChunkService) findBreak(runes []rune, start, end int) int {
	window := string(runes[start:end])
	for _, sep := range chunkSeparators {
		if sep == "" {
			return end
		}
		idx := strings.LastIndex(window, sep)
		if idx <= 0 {
			continue
		}
		// The separators are ASCII, so their byte and rune lengths match;
		// the prefix before the match still needs rune counting.
		runeIdx := utf8.RuneCountInString(window[:idx])
		if runeIdx+len(sep) > s.chunkOverlap {
			return start + runeIdx + len(sep)
		}
	}
	return end
}
