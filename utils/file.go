package utils

import (
	"path/filepath"
	"strings"
)

// GetFileExtension returns the lowercased extension of filename without the
// leading dot.
func GetFileExtension(filename string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
}

// IsSupportedFileType reports whether the filename's extension is one of
// the supported upload types.
func IsSupportedFileType(filename string) bool {
	switch GetFileExtension(filename) {
	case "pdf", "docx", "txt":
		return true
	}
	return false
}

// GetFileNameWithoutExt extracts the base filename without its extension.
func GetFileNameWithoutExt(path string) string {
	base := filepath.Base(path)
	if idx := strings.LastIndex(base, "."); idx != -1 {
		base = base[:idx]
	}
	return base
}
