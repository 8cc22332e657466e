package utils

import (
	"errors"
	"fmt"
	"path/filepath"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/semver"
)

// MinimumGoVersion is the oldest go directive able to compile generated code
const MinimumGoVersion = "1.18"

// ErrGoModNotFound is returned when no go.mod governs a directory
var ErrGoModNotFound = errors.New("go.mod file not found")

// ModuleInfo is the subset of a go.mod file the generator cares about
type ModuleInfo struct {
	Path      string            // module path
	GoVersion string            // go directive, empty when absent
	GoModPath string            // location of the go.mod file
	Requires  map[string]string // required module path -> version
}

// RequiresModule reports whether the module is or requires modulePath
func (m *ModuleInfo) RequiresModule(modulePath string) bool {
	if m.Path == modulePath {
		return true
	}
	_, ok := m.Requires[modulePath]
	return ok
}

// SupportsGenerics reports whether the go directive allows type parameters.
// Missing or unrecognised directives are treated as supported.
func (m *ModuleInfo) SupportsGenerics() bool {
	version := "v" + m.GoVersion
	if m.GoVersion == "" || !semver.IsValid(version) {
		return true
	}
	return semver.Compare(version, "v"+MinimumGoVersion) >= 0
}

// GoModParser provides utilities for parsing go.mod files
type GoModParser struct {
	fileReader *FileReader
}

// NewGoModParser creates a new go.mod parser with caching
func NewGoModParser(fileReader *FileReader) *GoModParser {
	return &GoModParser{
		fileReader: fileReader,
	}
}

// Parse reads the go.mod file at goModPath
func (p *GoModParser) Parse(goModPath string) (*ModuleInfo, error) {
	cleanPath := filepath.Clean(goModPath)
	if filepath.Base(cleanPath) != "go.mod" {
		return nil, fmt.Errorf("file is not a go.mod file: %s", goModPath)
	}

	content, err := p.fileReader.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read go.mod file: %w", err)
	}

	modFile, err := modfile.ParseLax(cleanPath, content, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to parse go.mod file: %w", err)
	}
	if modFile.Module == nil {
		return nil, fmt.Errorf("no module declaration found in %s", cleanPath)
	}

	info := &ModuleInfo{
		Path:      modFile.Module.Mod.Path,
		GoModPath: cleanPath,
		Requires:  make(map[string]string, len(modFile.Require)),
	}
	if modFile.Go != nil {
		info.GoVersion = modFile.Go.Version
	}
	for _, req := range modFile.Require {
		info.Requires[req.Mod.Path] = req.Mod.Version
	}
	return info, nil
}

// FindGoModFile searches for go.mod file starting from the given directory and walking up
func (p *GoModParser) FindGoModFile(startDir string) (string, error) {
	currentDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		goModPath := filepath.Join(currentDir, "go.mod")
		if p.fileReader.Exists(goModPath) {
			return goModPath, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	return "", fmt.Errorf("%w above %s", ErrGoModNotFound, startDir)
}

// FindModule locates and parses the go.mod governing dir
func (p *GoModParser) FindModule(dir string) (*ModuleInfo, error) {
	goModPath, err := p.FindGoModFile(dir)
	if err != nil {
		return nil, err
	}
	return p.Parse(goModPath)
}
