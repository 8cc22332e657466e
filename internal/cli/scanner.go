package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/toyz/mergeme/internal/errors"
	"github.com/toyz/mergeme/internal/schema"
	"github.com/toyz/mergeme/internal/utils"
)

// TargetKind tells how a target is read
type TargetKind int

const (
	// PackageTarget is a Go package directory
	PackageTarget TargetKind = iota
	// SchemaTarget is an HCL or YAML schema file
	SchemaTarget
)

// Target is one unit of work: a package directory or a schema file
type Target struct {
	Kind TargetKind
	Path string
}

// String returns the target path
func (t Target) String() string {
	return t.Path
}

// DirectoryScanner turns command line patterns into targets
type DirectoryScanner struct {
	fileProcessor *utils.FileProcessor
	outputName    string
}

// NewDirectoryScanner creates a new directory scanner
func NewDirectoryScanner(fileProcessor *utils.FileProcessor, outputName string) *DirectoryScanner {
	return &DirectoryScanner{
		fileProcessor: fileProcessor,
		outputName:    outputName,
	}
}

// Scan resolves patterns into targets. Schema files are taken as given,
// "dir/..." expands to every package below dir, anything else names a
// package directory. No patterns means the current directory. Duplicates
// are dropped; the order of first appearance is kept.
func (s *DirectoryScanner) Scan(patterns []string) ([]Target, error) {
	if len(patterns) == 0 {
		patterns = []string{"."}
	}

	var targets []Target
	seen := make(map[string]bool)
	add := func(kind TargetKind, path string) {
		path = filepath.Clean(path)
		if seen[path] {
			return
		}
		seen[path] = true
		targets = append(targets, Target{Kind: kind, Path: path})
	}

	for _, pattern := range patterns {
		if schema.IsSchemaFile(pattern) {
			info, err := os.Stat(pattern)
			if err != nil {
				return nil, errors.WrapFileSystemError("access", pattern, err)
			}
			if info.IsDir() {
				return nil, fmt.Errorf("%s is a directory, not a schema file", pattern)
			}
			add(SchemaTarget, pattern)
			continue
		}

		dirs, err := s.fileProcessor.ExpandPattern(pattern, s.outputName)
		if err != nil {
			return nil, errors.WrapWithOperation("scan", pattern, err)
		}
		for _, dir := range dirs {
			add(PackageTarget, dir)
		}
	}

	return targets, nil
}

// OutputPath returns the file a target generates. override replaces the
// default for schema targets.
func (s *DirectoryScanner) OutputPath(target Target, override string) string {
	if target.Kind == SchemaTarget {
		if override != "" {
			return override
		}
		return schema.OutputPath(target.Path)
	}
	return filepath.Join(target.Path, s.outputName)
}
