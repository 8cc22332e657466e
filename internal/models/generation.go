package models

// RuntimeImportPath is the import path of the runtime package used by generated code
const RuntimeImportPath = "github.com/toyz/mergeme/pkg/mergeme"

// DefaultPrefix is the directive prefix used when none is configured
const DefaultPrefix = "mergeme"

// GenerationUnit is a batch of records that end up in one generated file
type GenerationUnit struct {
	Package       string              // package clause of the generated file
	Dir           string              // directory the unit was read from
	OutputPath    string              // file the generated code is written to
	SourceFiles   []string            // files the records were read from
	Records       []*RecordDefinition // records in source order
	EmitOriginals bool                // also emit the original record types (schema input)
}

// GeneratedFile is the result of generating a unit
type GeneratedFile struct {
	Path    string   // output path
	Package string   // package clause
	Content []byte   // formatted source
	Records []string // names of the records it contains
}
