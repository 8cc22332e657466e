// Package schema reads record definitions written as data (HCL or YAML)
// instead of Go source. Schema records go through the same directive
// pipeline; the generated file also declares the original types.
package schema

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"path/filepath"
	"strings"

	"github.com/toyz/mergeme/internal/annotations"
	"github.com/toyz/mergeme/internal/errors"
	"github.com/toyz/mergeme/internal/models"
	"github.com/toyz/mergeme/internal/utils"
)

// Supported schema file extensions
const (
	ExtHCL  = ".hcl"
	ExtYAML = ".yaml"
	ExtYML  = ".yml"
)

// OutputSuffix is appended to the schema file name to form the output file
const OutputSuffix = "_mergeme.go"

// IsSchemaFile reports whether path has a schema extension
func IsSchemaFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ExtHCL, ExtYAML, ExtYML:
		return true
	default:
		return false
	}
}

// OutputPath returns the default generated file for a schema file:
// people.hcl becomes people_mergeme.go in the same directory.
func OutputPath(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return filepath.Join(filepath.Dir(path), base+OutputSuffix)
}

// Loader reads schema files into generation units
type Loader struct {
	prefix     string
	fileReader *utils.FileReader
}

// NewLoader creates a new schema loader
func NewLoader(prefix string, reader *utils.FileReader) *Loader {
	if prefix == "" {
		prefix = models.DefaultPrefix
	}
	if reader == nil {
		reader = utils.NewFileReader()
	}
	return &Loader{prefix: prefix, fileReader: reader}
}

// Load reads and converts one schema file. Problems in the schema itself are
// returned as errors.Diagnostics of kind SchemaError.
func (l *Loader) Load(path string) (*models.GenerationUnit, error) {
	content, err := l.fileReader.ReadFile(path)
	if err != nil {
		return nil, errors.WrapFileSystemError("read", path, err)
	}
	return l.LoadBytes(path, content)
}

// LoadBytes converts schema content; path selects the format and names the
// output
func (l *Loader) LoadBytes(path string, content []byte) (*models.GenerationUnit, error) {
	var (
		doc   *document
		diags errors.Diagnostics
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ExtHCL:
		doc, diags = decodeHCL(path, content)
	case ExtYAML, ExtYML:
		doc, diags = decodeYAML(path, content)
	default:
		return nil, fmt.Errorf("unsupported schema file %s: expected %s, %s or %s", path, ExtHCL, ExtYAML, ExtYML)
	}
	if diags.HasErrors() {
		diags.Sort()
		return nil, diags
	}

	unit, diags := l.build(path, doc)
	if diags.HasErrors() {
		diags.Sort()
		return nil, diags
	}
	return unit, nil
}

// document is the format-independent content of a schema file
type document struct {
	pkg      string
	pkgSpan  models.Span
	output   string
	imports  []models.ImportSpec
	records  []recordSpec
	fileSpan models.Span
}

type recordSpec struct {
	name           string
	nameSpan       models.Span
	span           models.Span
	doc            string
	typeParams     string
	typeParamsSpan models.Span
	directives     []textAt
	fields         []fieldSpec
}

type fieldSpec struct {
	name       string
	nameSpan   models.Span
	typ        string
	typeSpan   models.Span
	tag        string
	tagSpan    models.Span
	doc        string
	embedded   bool
	directives []textAt
}

// textAt is a string value and the position of its first character
type textAt struct {
	text string
	span models.Span
}

func (l *Loader) build(path string, doc *document) (*models.GenerationUnit, errors.Diagnostics) {
	var diags errors.Diagnostics

	if err := utils.IsValidGoIdentifier("package")(doc.pkg); err != nil {
		diags.Add(errors.New(errors.SchemaError, doc.pkgSpan, "package %q is not a valid package name", doc.pkg))
	}

	output := OutputPath(path)
	if doc.output != "" {
		if err := utils.IsGoFileName("output")(doc.output); err != nil {
			diags.Add(errors.New(errors.SchemaError, doc.fileSpan, "output %q: %v", doc.output, err))
		}
		output = filepath.Join(filepath.Dir(path), doc.output)
	}

	scope := models.NewPackageScope()
	for _, imp := range doc.imports {
		scope.DeclareImport(imp, doc.fileSpan)
	}
	for _, rec := range doc.records {
		if previous, exists := scope.Lookup(rec.name); exists {
			diags.Add(errors.New(errors.SchemaError, rec.nameSpan, "record %s is defined more than once", rec.name).
				WithRelated(previous, "first defined here"))
			continue
		}
		scope.DeclareType(rec.name, &ast.StructType{Fields: &ast.FieldList{}}, rec.nameSpan)
	}

	unit := &models.GenerationUnit{
		Package:       doc.pkg,
		Dir:           filepath.Dir(path),
		OutputPath:    output,
		SourceFiles:   []string{path},
		EmitOriginals: true,
	}

	for _, rec := range doc.records {
		record, recordDiags := l.buildRecord(path, doc, rec, scope)
		diags.Extend(recordDiags)
		if record != nil {
			unit.Records = append(unit.Records, record)
		}
	}

	return unit, diags
}

func (l *Loader) buildRecord(path string, doc *document, rec recordSpec, scope *models.PackageScope) (*models.RecordDefinition, errors.Diagnostics) {
	var diags errors.Diagnostics

	if err := utils.IsDeclarableIdentifier("record name")(rec.name); err != nil {
		diags.Add(errors.New(errors.SchemaError, rec.nameSpan, "record name %q is not a valid Go identifier", rec.name))
	}

	record := &models.RecordDefinition{
		Name:       rec.name,
		Package:    doc.pkg,
		File:       path,
		Exported:   token.IsExported(rec.name),
		IsStruct:   true,
		Doc:        splitDoc(rec.doc),
		Span:       rec.span,
		NameSpan:   rec.nameSpan,
		Imports:    doc.imports,
		Scope:      scope,
		Directives: l.directives(rec.directives, models.TypePlacement),
	}

	if rec.typeParams != "" {
		params, err := parseTypeParams(rec.typeParams)
		if err != nil {
			diags.Add(errors.New(errors.SchemaError, rec.typeParamsSpan, "invalid type parameters %q: %v", rec.typeParams, err).
				WithHint("type parameters are written as in Go, e.g. [K comparable, V any]"))
		} else {
			record.TypeParams = rec.typeParams
			for _, param := range params.List {
				for _, name := range param.Names {
					record.TypeParamNames = append(record.TypeParamNames, name.Name)
				}
				record.Constraints = append(record.Constraints, param.Type)
			}
		}
	}

	seen := make(map[string]models.Span)
	for _, spec := range rec.fields {
		field, fieldDiag := l.buildField(spec)
		if fieldDiag != nil {
			diags.Add(fieldDiag)
			continue
		}
		if previous, exists := seen[field.Name]; exists && !field.IsBlank() {
			diags.Add(errors.New(errors.SchemaError, spec.nameSpan, "field %s is defined more than once in record %s", field.Name, rec.name).
				WithRelated(previous, "first defined here"))
			continue
		}
		seen[field.Name] = spec.nameSpan
		record.Fields = append(record.Fields, field)
	}

	if diags.HasErrors() {
		return nil, diags
	}
	return record, nil
}

func (l *Loader) buildField(spec fieldSpec) (models.FieldDefinition, *errors.Diagnostic) {
	if strings.TrimSpace(spec.typ) == "" {
		return models.FieldDefinition{}, errors.New(errors.SchemaError, spec.nameSpan, "field %s has no type", spec.name)
	}

	expr, err := parser.ParseExpr(spec.typ)
	if err != nil {
		return models.FieldDefinition{}, errors.New(errors.SchemaError, spec.typeSpan, "field %s: invalid type expression %q", spec.name, spec.typ).
			WithHint("types are written as Go type expressions, e.g. []string or map[string]time.Duration")
	}

	name := spec.name
	if spec.embedded {
		name = embeddedName(expr)
		if name == "" {
			return models.FieldDefinition{}, errors.New(errors.SchemaError, spec.typeSpan, "type %q cannot be embedded", spec.typ)
		}
	} else if name != "_" {
		if err := utils.IsValidGoIdentifier("field name")(name); err != nil {
			return models.FieldDefinition{}, errors.New(errors.SchemaError, spec.nameSpan, "field name %q is not a valid Go identifier", name)
		}
	}

	if strings.Contains(spec.tag, "`") {
		return models.FieldDefinition{}, errors.New(errors.SchemaError, spec.tagSpan, "tag of field %s contains a backquote", name)
	}

	return models.FieldDefinition{
		Name:       name,
		Type:       spec.typ,
		TypeExpr:   expr,
		Tag:        spec.tag,
		Doc:        splitDoc(spec.doc),
		Embedded:   spec.embedded,
		Directives: l.directives(spec.directives, models.FieldPlacement),
		Span:       spec.nameSpan,
	}, nil
}

// directives converts directive strings. The comment marker is optional in
// schema files, so "partial(P)" and "//mergeme:partial(P)" are equivalent.
func (l *Loader) directives(values []textAt, placement models.Placement) []models.RawDirective {
	raws := make([]models.RawDirective, 0, len(values))
	for _, value := range values {
		text := value.text
		column := value.span.Column
		if stripped, offset, ok := annotations.SplitComment(l.prefix, text); ok {
			text = stripped
			column += offset
		}
		raws = append(raws, models.RawDirective{
			Text:      text,
			Span:      models.SpanAt(value.span.File, value.span.Line, column, len(text)),
			Placement: placement,
		})
	}
	return raws
}

// parseTypeParams parses a verbatim type parameter list such as [K comparable, V any]
func parseTypeParams(params string) (*ast.FieldList, error) {
	src := "package p\n\ntype _T" + params + " struct{}\n"
	file, err := parser.ParseFile(token.NewFileSet(), "", src, parser.SkipObjectResolution)
	if err != nil {
		return nil, err
	}
	spec := file.Decls[0].(*ast.GenDecl).Specs[0].(*ast.TypeSpec)
	if spec.TypeParams == nil || len(spec.TypeParams.List) == 0 {
		return nil, fmt.Errorf("not a type parameter list")
	}
	return spec.TypeParams, nil
}

func embeddedName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		if _, double := t.X.(*ast.StarExpr); double {
			return ""
		}
		return embeddedName(t.X)
	case *ast.SelectorExpr:
		return t.Sel.Name
	case *ast.IndexExpr:
		return embeddedName(t.X)
	case *ast.IndexListExpr:
		return embeddedName(t.X)
	default:
		return ""
	}
}

func splitDoc(doc string) []string {
	doc = strings.TrimRight(doc, "\n")
	if strings.TrimSpace(doc) == "" {
		return nil
	}
	return strings.Split(doc, "\n")
}
