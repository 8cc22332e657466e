package parser

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/toyz/mergeme/internal/annotations"
	"github.com/toyz/mergeme/internal/errors"
	"github.com/toyz/mergeme/internal/models"
	"github.com/toyz/mergeme/internal/utils"
)

// DefaultOutputName is the file generated into each package directory
const DefaultOutputName = "mergeme_gen.go"

// Options configures the Go source front-end
type Options struct {
	Prefix     string   // directive prefix, defaults to mergeme
	OutputName string   // generated file name, excluded from parsing
	Types      []string // types to generate even without directives
}

// Parser reads Go packages and extracts the records that carry directives
type Parser struct {
	opts       Options
	fileSet    *token.FileSet
	fileReader *utils.FileReader
	processor  *utils.FileProcessor
}

// SourceFile is one in-memory Go file
type SourceFile struct {
	Name    string
	Content []byte
}

// NewParser creates a new Go source parser
func NewParser(opts Options) *Parser {
	return NewParserWithReader(opts, utils.NewFileReader())
}

// NewParserWithReader creates a parser sharing an existing FileReader
func NewParserWithReader(opts Options, reader *utils.FileReader) *Parser {
	if opts.Prefix == "" {
		opts.Prefix = models.DefaultPrefix
	}
	if opts.OutputName == "" {
		opts.OutputName = DefaultOutputName
	}
	return &Parser{
		opts:       opts,
		fileSet:    token.NewFileSet(),
		fileReader: reader,
		processor:  utils.NewFileProcessorWithReader(reader),
	}
}

// ParseDirectory parses the buildable, non-test Go files of one package directory
func (p *Parser) ParseDirectory(dir string) (*models.GenerationUnit, error) {
	paths, err := p.processor.GoSourceFiles(dir, p.opts.OutputName)
	if err != nil {
		return nil, errors.WrapFileSystemError("list", dir, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no Go files found in directory %s", dir)
	}

	files := make([]SourceFile, 0, len(paths))
	for _, path := range paths {
		content, err := p.fileReader.ReadFile(path)
		if err != nil {
			return nil, errors.WrapFileSystemError("read", path, err)
		}
		files = append(files, SourceFile{Name: path, Content: content})
	}

	return p.ParseFiles(dir, files)
}

// ParseSource parses a single file given as a string, mostly for tests
func (p *Parser) ParseSource(filename, source string) (*models.GenerationUnit, error) {
	return p.ParseFiles(filepath.Dir(filename), []SourceFile{{Name: filename, Content: []byte(source)}})
}

// ParseFiles parses the files of one package. Records are returned in
// source order: files sorted by name, then declaration order.
func (p *Parser) ParseFiles(dir string, sources []SourceFile) (*models.GenerationUnit, error) {
	sorted := append([]SourceFile(nil), sources...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	unit := &models.GenerationUnit{
		Dir:        dir,
		OutputPath: filepath.Join(dir, p.opts.OutputName),
	}

	var files []*parsedFile
	for _, source := range sorted {
		if utils.IsGeneratedBy(source.Content, "mergeme") {
			continue
		}

		file, err := parser.ParseFile(p.fileSet, source.Name, source.Content, parser.ParseComments|parser.SkipObjectResolution)
		if err != nil {
			return nil, errors.WrapWithOperation("parse", source.Name, err)
		}

		if unit.Package == "" {
			unit.Package = file.Name.Name
		} else if file.Name.Name != unit.Package {
			return nil, fmt.Errorf("multiple packages found in directory %s: %s and %s", dir, unit.Package, file.Name.Name)
		}

		files = append(files, &parsedFile{name: source.Name, src: source.Content, ast: file})
		unit.SourceFiles = append(unit.SourceFiles, source.Name)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no Go files found in directory %s", dir)
	}

	scope := models.NewPackageScope()
	for _, file := range files {
		p.declare(scope, file)
	}

	wanted := make(map[string]bool, len(p.opts.Types))
	for _, name := range p.opts.Types {
		wanted[name] = true
	}
	found := make(map[string]bool)

	for _, file := range files {
		imports := fileImports(file.ast)
		for _, decl := range file.ast.Decls {
			gen, ok := decl.(*ast.GenDecl)
			if !ok || gen.Tok != token.TYPE {
				continue
			}
			for _, spec := range gen.Specs {
				typeSpec := spec.(*ast.TypeSpec)
				doc := typeSpec.Doc
				if doc == nil && !gen.Lparen.IsValid() {
					doc = gen.Doc
				}

				record := p.buildRecord(file, typeSpec, doc)
				if !wanted[record.Name] && !hasDirectives(record) {
					continue
				}

				found[record.Name] = true
				record.Package = unit.Package
				record.Imports = imports
				record.Scope = scope
				unit.Records = append(unit.Records, record)
			}
		}
	}

	for _, name := range p.opts.Types {
		if !found[name] {
			return nil, fmt.Errorf("type %s not found in package %s", name, unit.Package)
		}
	}

	return unit, nil
}

// parsedFile is a parsed source file together with its raw bytes
type parsedFile struct {
	name string
	src  []byte
	ast  *ast.File
}

// text returns the source text of a node
func (f *parsedFile) text(fset *token.FileSet, node ast.Node) string {
	start := fset.Position(node.Pos()).Offset
	end := fset.Position(node.End()).Offset
	if start < 0 || end > len(f.src) || start > end {
		return ""
	}
	return string(f.src[start:end])
}

// declare indexes the imports and every package-level identifier and method
// of a file
func (p *Parser) declare(scope *models.PackageScope, file *parsedFile) {
	for _, imp := range file.ast.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}
		spec := models.ImportSpec{Path: path}
		if imp.Name != nil {
			spec.Name = imp.Name.Name
		}
		scope.DeclareImport(spec, p.span(imp))
	}
	for _, decl := range file.ast.Decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			for _, spec := range d.Specs {
				switch s := spec.(type) {
				case *ast.TypeSpec:
					scope.DeclareType(s.Name.Name, s.Type, p.span(s.Name))
				case *ast.ValueSpec:
					for _, name := range s.Names {
						scope.Declare(name.Name, p.span(name))
					}
				}
			}
		case *ast.FuncDecl:
			if d.Recv == nil || len(d.Recv.List) == 0 {
				if d.Name.Name != "init" {
					scope.Declare(d.Name.Name, p.span(d.Name))
				}
				continue
			}
			if receiver := baseTypeName(d.Recv.List[0].Type); receiver != "" {
				scope.DeclareMethod(receiver, d.Name.Name, p.span(d.Name))
			}
		}
	}
}

func (p *Parser) buildRecord(file *parsedFile, spec *ast.TypeSpec, doc *ast.CommentGroup) *models.RecordDefinition {
	record := &models.RecordDefinition{
		Name:       spec.Name.Name,
		File:       file.name,
		Exported:   spec.Name.IsExported(),
		Doc:        p.docLines(doc),
		Directives: p.directives(doc, models.TypePlacement),
		Span:       p.span(spec),
		NameSpan:   p.span(spec.Name),
	}

	if spec.TypeParams != nil {
		record.TypeParams = string(file.src[p.fileSet.Position(spec.TypeParams.Opening).Offset : p.fileSet.Position(spec.TypeParams.Closing).Offset+1])
		for _, param := range spec.TypeParams.List {
			for _, name := range param.Names {
				record.TypeParamNames = append(record.TypeParamNames, name.Name)
			}
			record.Constraints = append(record.Constraints, param.Type)
		}
	}

	structType, ok := spec.Type.(*ast.StructType)
	if !ok || spec.Assign.IsValid() {
		record.Underlying = file.text(p.fileSet, spec.Type)
		if spec.Assign.IsValid() {
			record.Underlying = "alias of " + record.Underlying
		}
		return record
	}

	record.IsStruct = true
	for _, field := range structType.Fields.List {
		record.Fields = append(record.Fields, p.buildFields(file, field)...)
	}
	return record
}

// buildFields expands one field declaration into one definition per name
func (p *Parser) buildFields(file *parsedFile, field *ast.Field) []models.FieldDefinition {
	base := models.FieldDefinition{
		Type:     file.text(p.fileSet, field.Type),
		TypeExpr: field.Type,
		Doc:      p.docLines(field.Doc),
	}
	if field.Tag != nil {
		if tag, err := strconv.Unquote(field.Tag.Value); err == nil {
			base.Tag = tag
		}
	}
	base.Directives = append(p.directives(field.Doc, models.FieldPlacement), p.directives(field.Comment, models.FieldPlacement)...)

	if len(field.Names) == 0 {
		base.Name = baseTypeName(field.Type)
		base.Embedded = true
		base.Span = p.span(field.Type)
		return []models.FieldDefinition{base}
	}

	fields := make([]models.FieldDefinition, 0, len(field.Names))
	for _, name := range field.Names {
		def := base
		def.Name = name.Name
		def.Span = p.span(name)
		fields = append(fields, def)
	}
	return fields
}

// directives extracts the directive comments of a comment group
func (p *Parser) directives(group *ast.CommentGroup, placement models.Placement) []models.RawDirective {
	if group == nil {
		return nil
	}

	var raws []models.RawDirective
	for _, comment := range group.List {
		text, offset, ok := annotations.SplitComment(p.opts.Prefix, comment.Text)
		if !ok {
			continue
		}
		pos := p.fileSet.Position(comment.Slash)
		raws = append(raws, models.RawDirective{
			Text:      text,
			Span:      models.SpanAt(pos.Filename, pos.Line, pos.Column+offset, len(text)),
			Placement: placement,
		})
	}
	return raws
}

func (p *Parser) span(node ast.Node) models.Span {
	return models.SpanFromPositions(p.fileSet.Position(node.Pos()), p.fileSet.Position(node.End()))
}

func hasDirectives(record *models.RecordDefinition) bool {
	if len(record.Directives) > 0 {
		return true
	}
	for _, field := range record.Fields {
		if len(field.Directives) > 0 {
			return true
		}
	}
	return false
}

func fileImports(file *ast.File) []models.ImportSpec {
	imports := make([]models.ImportSpec, 0, len(file.Imports))
	for _, spec := range file.Imports {
		path, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}
		imp := models.ImportSpec{Path: path}
		if spec.Name != nil {
			imp.Name = spec.Name.Name
		}
		imports = append(imports, imp)
	}
	return imports
}

// docLines returns the prose of a comment group; directive lines are dropped
func (p *Parser) docLines(group *ast.CommentGroup) []string {
	if group == nil {
		return nil
	}
	prose := &ast.CommentGroup{}
	for _, comment := range group.List {
		if _, _, ok := annotations.SplitComment(p.opts.Prefix, comment.Text); !ok {
			prose.List = append(prose.List, comment)
		}
	}
	text := strings.TrimRight(prose.Text(), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// baseTypeName returns the declared name of a (possibly pointer, qualified
// or instantiated) type expression
func baseTypeName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return baseTypeName(t.X)
	case *ast.ParenExpr:
		return baseTypeName(t.X)
	case *ast.SelectorExpr:
		return t.Sel.Name
	case *ast.IndexExpr:
		return baseTypeName(t.X)
	case *ast.IndexListExpr:
		return baseTypeName(t.X)
	default:
		return ""
	}
}
