package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileReader reads source, schema and go.mod files, caching contents until
// the file changes on disk. It is safe for concurrent use.
type FileReader struct {
	contents *Cache[[]byte]
}

// NewFileReader creates a new FileReader instance with caching
func NewFileReader() *FileReader {
	return &FileReader{
		contents: NewCache[[]byte](),
	}
}

// ReadFile returns the contents of a file. Callers must not modify the result.
func (fr *FileReader) ReadFile(filePath string) ([]byte, error) {
	cleanPath, err := fr.cleanPath(filePath)
	if err != nil {
		return nil, err
	}

	if cached, ok := fr.contents.Get(cleanPath); ok {
		return cached, nil
	}

	content, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", cleanPath, err)
	}

	// a failed stat only means the next read misses
	_ = fr.contents.Put(cleanPath, content)
	return content, nil
}

// Exists reports whether filePath names an existing regular file
func (fr *FileReader) Exists(filePath string) bool {
	info, err := os.Stat(filepath.Clean(filePath))
	return err == nil && info.Mode().IsRegular()
}

// InvalidateFile removes a specific file from the cache
func (fr *FileReader) InvalidateFile(filePath string) {
	if cleanPath, err := fr.cleanPath(filePath); err == nil {
		fr.contents.Invalidate(cleanPath)
	}
}

// Stats returns statistics about the cache
func (fr *FileReader) Stats() CacheStats {
	return fr.contents.Stats()
}

func (fr *FileReader) cleanPath(filePath string) (string, error) {
	if err := NotEmpty("filePath")(filePath); err != nil {
		return "", err
	}
	return filepath.Clean(filePath), nil
}
