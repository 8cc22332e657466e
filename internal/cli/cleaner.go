package cli

import (
	"path/filepath"

	"github.com/toyz/mergeme/internal/schema"
	"github.com/toyz/mergeme/internal/utils"
)

// Tool is the name written into the generated file header
const Tool = "mergeme"

// Cleaner removes generated files
type Cleaner struct {
	scanner       *DirectoryScanner
	fileProcessor *utils.FileProcessor
	schemas       *schema.Loader
}

// NewCleaner creates a new cleaner
func NewCleaner(scanner *DirectoryScanner, fileProcessor *utils.FileProcessor, schemas *schema.Loader) *Cleaner {
	return &Cleaner{
		scanner:       scanner,
		fileProcessor: fileProcessor,
		schemas:       schemas,
	}
}

// CleanResult lists the files a clean removed or left alone
type CleanResult struct {
	Removed []string // generated files that were (or would be) deleted
	Skipped []string // files with the output name that were not generated by mergeme
}

// Clean removes the generated outputs of every target matched by patterns.
// Only files carrying the mergeme header are touched.
func (c *Cleaner) Clean(patterns []string, schemaOut string, dryRun bool) (*CleanResult, error) {
	targets, err := c.scanner.Scan(patterns)
	if err != nil {
		return nil, err
	}

	result := &CleanResult{}
	for _, target := range targets {
		output := c.scanner.OutputPath(target, schemaOut)
		if target.Kind == SchemaTarget && schemaOut == "" {
			// a schema may name its own output; broken schemas fall back to the default
			if unit, err := c.schemas.Load(target.Path); err == nil {
				output = unit.OutputPath
			}
		}
		removed, skipped, err := c.fileProcessor.CleanGenerated([]string{filepath.Dir(output)}, filepath.Base(output), Tool, dryRun)
		result.Removed = append(result.Removed, removed...)
		result.Skipped = append(result.Skipped, skipped...)
		if err != nil {
			return result, err
		}
	}
	return result, nil
}
