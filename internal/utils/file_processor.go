package utils

import (
	"bufio"
	"bytes"
	"fmt"
	"go/build"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// generatedPattern is the marker of generated Go files, see go help generate
var generatedPattern = regexp.MustCompile(`^// Code generated .* DO NOT EDIT\.$`)

// RecursiveSuffix marks a directory pattern that includes all subdirectories
const RecursiveSuffix = "/..."

// FileProcessor finds package directories and source files and removes
// generated output
type FileProcessor struct {
	fileReader *FileReader
	skipDirs   map[string]bool
}

// NewFileProcessor creates a new file processor
func NewFileProcessor() *FileProcessor {
	return NewFileProcessorWithReader(NewFileReader())
}

// NewFileProcessorWithReader creates a file processor with an existing FileReader
func NewFileProcessorWithReader(reader *FileReader) *FileProcessor {
	return &FileProcessor{
		fileReader: reader,
		skipDirs: map[string]bool{
			"vendor":       true,
			"node_modules": true,
			"testdata":     true,
		},
	}
}

// FileReader returns the underlying FileReader
func (fp *FileProcessor) FileReader() *FileReader {
	return fp.fileReader
}

// ExpandPattern resolves a directory pattern into package directories.
// "dir/..." walks dir recursively, skipping hidden, vendor and testdata
// directories; any other pattern names a single directory. Only directories
// holding at least one buildable Go file are returned, sorted.
func (fp *FileProcessor) ExpandPattern(pattern, outputName string) ([]string, error) {
	if !strings.HasSuffix(pattern, RecursiveSuffix) && pattern != "..." {
		dir := filepath.Clean(pattern)
		info, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to access %s: %w", pattern, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", pattern)
		}
		return []string{dir}, nil
	}

	root := strings.TrimSuffix(strings.TrimSuffix(pattern, "..."), "/")
	if root == "" {
		root = "."
	}

	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && fp.skipDirectory(d.Name()) {
			return filepath.SkipDir
		}

		files, err := fp.GoSourceFiles(path, outputName)
		if err != nil {
			return err
		}
		if len(files) > 0 {
			dirs = append(dirs, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", pattern, err)
	}

	sort.Strings(dirs)
	return dirs, nil
}

func (fp *FileProcessor) skipDirectory(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || fp.skipDirs[name]
}

// GoSourceFiles lists the non-test Go files of dir that match the current
// build context, excluding outputName. Paths are sorted.
func (fp *FileProcessor) GoSourceFiles(dir, outputName string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") || name == outputName {
			continue
		}
		match, err := build.Default.MatchFile(dir, name)
		if err != nil {
			return nil, fmt.Errorf("failed to check build constraints of %s: %w", filepath.Join(dir, name), err)
		}
		if match {
			files = append(files, filepath.Join(dir, name))
		}
	}

	sort.Strings(files)
	return files, nil
}

// IsGeneratedSource reports whether src carries a generated-code marker
// before its package clause
func IsGeneratedSource(src []byte) bool {
	scanner := bufio.NewScanner(bytes.NewReader(src))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if generatedPattern.MatchString(line) {
			return true
		}
		if strings.HasPrefix(line, "package ") {
			return false
		}
	}
	return false
}

// IsGeneratedBy reports whether src is a generated file produced by tool
func IsGeneratedBy(src []byte, tool string) bool {
	marker := "// Code generated by " + tool + ". DO NOT EDIT."
	scanner := bufio.NewScanner(bytes.NewReader(src))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == marker {
			return true
		}
		if strings.HasPrefix(line, "package ") {
			return false
		}
	}
	return false
}

// CleanGenerated removes the files named outputName from dirs when they
// were generated by tool. Hand-written files of the same name are left in
// place and reported as skipped. With dryRun nothing is removed.
func (fp *FileProcessor) CleanGenerated(dirs []string, outputName, tool string, dryRun bool) (removed, skipped []string, err error) {
	for _, dir := range dirs {
		path := filepath.Join(dir, outputName)
		if !fp.fileReader.Exists(path) {
			continue
		}

		content, err := fp.fileReader.ReadFile(path)
		if err != nil {
			return removed, skipped, err
		}
		if !IsGeneratedBy(content, tool) {
			skipped = append(skipped, path)
			continue
		}

		if !dryRun {
			if err := os.Remove(path); err != nil {
				return removed, skipped, fmt.Errorf("failed to remove %s: %w", path, err)
			}
			fp.fileReader.InvalidateFile(path)
		}
		removed = append(removed, path)
	}
	return removed, skipped, nil
}
