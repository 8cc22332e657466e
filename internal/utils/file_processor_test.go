package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestGoSourceFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.go"), "package p\n")
	writeFile(t, filepath.Join(dir, "a.go"), "package p\n")
	writeFile(t, filepath.Join(dir, "a_test.go"), "package p\n")
	writeFile(t, filepath.Join(dir, "mergeme_gen.go"), "package p\n")
	writeFile(t, filepath.Join(dir, "ignored.go"), "//go:build ignore\n\npackage p\n")
	writeFile(t, filepath.Join(dir, "notes.txt"), "hello")

	files, err := NewFileProcessor().GoSourceFiles(dir, "mergeme_gen.go")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.go"), filepath.Join(dir, "b.go")}, files)
}

func TestExpandPattern(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a", "a.go"), "package a\n")
	writeFile(t, filepath.Join(root, "a", "b", "b.go"), "package b\n")
	writeFile(t, filepath.Join(root, "empty", "README"), "")
	writeFile(t, filepath.Join(root, "vendor", "v", "v.go"), "package v\n")
	writeFile(t, filepath.Join(root, ".hidden", "h.go"), "package h\n")
	writeFile(t, filepath.Join(root, "testdata", "t.go"), "package t\n")

	fp := NewFileProcessor()

	dirs, err := fp.ExpandPattern(root+"/...", "mergeme_gen.go")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "a"), filepath.Join(root, "a", "b")}, dirs)

	dirs, err = fp.ExpandPattern(filepath.Join(root, "a"), "mergeme_gen.go")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "a")}, dirs)

	_, err = fp.ExpandPattern(filepath.Join(root, "missing"), "mergeme_gen.go")
	assert.Error(t, err)
}

func TestIsGeneratedSource(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		generated bool
		ours      bool
	}{
		{"mergeme header", "// Code generated by mergeme. DO NOT EDIT.\n\npackage p\n", true, true},
		{"other tool", "// Code generated by stringer. DO NOT EDIT.\n\npackage p\n", true, false},
		{"after package clause", "package p\n\n// Code generated by mergeme. DO NOT EDIT.\n", false, false},
		{"hand written", "// Package p does things.\npackage p\n", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.generated, IsGeneratedSource([]byte(tt.src)))
			assert.Equal(t, tt.ours, IsGeneratedBy([]byte(tt.src), "mergeme"))
		})
	}
}

func TestCleanGenerated(t *testing.T) {
	root := t.TempDir()
	generated := filepath.Join(root, "a", "mergeme_gen.go")
	handWritten := filepath.Join(root, "b", "mergeme_gen.go")
	writeFile(t, generated, "// Code generated by mergeme. DO NOT EDIT.\n\npackage a\n")
	writeFile(t, handWritten, "package b\n")

	fp := NewFileProcessor()
	dirs := []string{filepath.Join(root, "a"), filepath.Join(root, "b"), filepath.Join(root, "c")}

	removed, skipped, err := fp.CleanGenerated(dirs, "mergeme_gen.go", "mergeme", true)
	require.NoError(t, err)
	assert.Equal(t, []string{generated}, removed)
	assert.Equal(t, []string{handWritten}, skipped)
	assert.FileExists(t, generated, "dry run keeps files")

	removed, _, err = fp.CleanGenerated(dirs, "mergeme_gen.go", "mergeme", false)
	require.NoError(t, err)
	assert.Equal(t, []string{generated}, removed)
	assert.NoFileExists(t, generated)
	assert.FileExists(t, handWritten)
}

func TestFileReaderCachesContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "go.mod")
	writeFile(t, path, "module example.com/m\n")

	reader := NewFileReader()
	first, err := reader.ReadFile(path)
	require.NoError(t, err)
	second, err := reader.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, reader.Stats().Hits)
	assert.True(t, reader.Exists(path))
	assert.False(t, reader.Exists(filepath.Dir(path)))

	_, err = reader.ReadFile("")
	assert.Error(t, err)
}
