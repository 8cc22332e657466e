package templates

import (
	"fmt"
	"sort"
	"strings"

	"github.com/toyz/mergeme/internal/models"
)

// ImportManager collects the imports of a generated file and detects
// conflicting local names
type ImportManager struct {
	byPath map[string]models.ImportSpec // path -> spec
	byName map[string]string            // local name -> path
}

// NewImportManager creates a new import manager
func NewImportManager() *ImportManager {
	return &ImportManager{
		byPath: make(map[string]models.ImportSpec),
		byName: make(map[string]string),
	}
}

// AddImport adds an import. Adding the same spec twice is a no-op; binding a
// local name to a second path is an error.
func (im *ImportManager) AddImport(spec models.ImportSpec) error {
	if spec.Path == "" {
		return nil
	}

	name := spec.LocalName()
	if existing, ok := im.byPath[spec.Path]; ok {
		if existing.LocalName() != name {
			return fmt.Errorf("import %q is referenced as both %s and %s", spec.Path, existing.LocalName(), name)
		}
		return nil
	}
	if path, ok := im.byName[name]; ok && path != spec.Path {
		return fmt.Errorf("%s refers to both %q and %q", name, path, spec.Path)
	}

	im.byPath[spec.Path] = spec
	im.byName[name] = spec.Path
	return nil
}

// Has reports whether path has been added
func (im *ImportManager) Has(path string) bool {
	_, ok := im.byPath[path]
	return ok
}

// Len returns the number of imports
func (im *ImportManager) Len() int {
	return len(im.byPath)
}

// Merge adds every import of other
func (im *ImportManager) Merge(other *ImportManager) error {
	for _, path := range sortedPaths(other.byPath) {
		if err := im.AddImport(other.byPath[path]); err != nil {
			return err
		}
	}
	return nil
}

// GenerateImports generates the import section: standard library first,
// then everything else, each group sorted by path
func (im *ImportManager) GenerateImports() string {
	if len(im.byPath) == 0 {
		return ""
	}

	var std, others []string
	for _, path := range sortedPaths(im.byPath) {
		line := formatImport(im.byPath[path])
		if isStandardLibrary(path) {
			std = append(std, line)
		} else {
			others = append(others, line)
		}
	}

	if len(std)+len(others) == 1 {
		return fmt.Sprintf("import %s\n", append(std, others...)[0])
	}

	var result strings.Builder
	result.WriteString("import (\n")
	for _, imp := range std {
		result.WriteString(fmt.Sprintf("\t%s\n", imp))
	}
	if len(std) > 0 && len(others) > 0 {
		result.WriteString("\n")
	}
	for _, imp := range others {
		result.WriteString(fmt.Sprintf("\t%s\n", imp))
	}
	result.WriteString(")\n")

	return result.String()
}

func formatImport(spec models.ImportSpec) string {
	if spec.Name != "" {
		return fmt.Sprintf("%s %q", spec.Name, spec.Path)
	}
	return fmt.Sprintf("%q", spec.Path)
}

// isStandardLibrary uses the goimports heuristic: no dot in the first element
func isStandardLibrary(path string) bool {
	first, _, _ := strings.Cut(path, "/")
	return !strings.Contains(first, ".")
}

func sortedPaths(specs map[string]models.ImportSpec) []string {
	paths := make([]string, 0, len(specs))
	for path := range specs {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}
