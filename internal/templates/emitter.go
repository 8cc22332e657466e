package templates

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"slices"
	"strconv"
	"strings"

	"github.com/toyz/mergeme/internal/errors"
	"github.com/toyz/mergeme/internal/models"
	"github.com/toyz/mergeme/internal/utils"
)

var (
	receiverNames = []string{"r", "rec", "recv", "self"}
	partialNames  = []string{"partial", "patch", "p", "update"}
)

// Options configures an Emitter
type Options struct {
	Assertions bool // emit compile-time interface checks for non-generic records
}

// Emitter renders resolved models into Go source
type Emitter struct {
	opts Options
}

// NewEmitter creates a new emitter
func NewEmitter(opts Options) *Emitter {
	return &Emitter{opts: opts}
}

// EmitFile renders all models of a unit into one formatted file. Models are
// emitted in the order given, which is source order.
func (e *Emitter) EmitFile(unit *models.GenerationUnit, resolved []*models.ResolvedModel) (*models.GeneratedFile, error) {
	if unit.Package == "" {
		return nil, errors.New(errors.InternalError, models.Span{File: unit.OutputPath}, "generation unit has no package name")
	}

	imports := NewImportManager()
	var body strings.Builder
	var diags errors.Diagnostics

	if unit.EmitOriginals {
		for _, model := range resolved {
			original, err := RenderOriginal(model.Record)
			if err != nil {
				return nil, errors.WrapTemplateError("original", "render "+model.Record.Name, err)
			}
			body.WriteString("\n")
			body.WriteString(original)
		}
	}

	names := make([]string, 0, len(resolved))
	for _, model := range resolved {
		if diag := e.collectImports(model, imports); diag != nil {
			diags.Add(diag)
			continue
		}

		code, err := e.RenderRecord(model)
		if err != nil {
			return nil, errors.WrapTemplateError("record", "render "+model.Record.Name, err)
		}
		body.WriteString("\n")
		body.WriteString(code)
		names = append(names, model.Record.Name)
	}

	if diags.HasErrors() {
		diags.Sort()
		return nil, diags
	}

	var file strings.Builder
	file.WriteString(FileHeader + "\n\n")
	file.WriteString(fmt.Sprintf("package %s\n", unit.Package))
	if imports.Len() > 0 {
		file.WriteString("\n")
		file.WriteString(imports.GenerateImports())
	}
	file.WriteString(body.String())

	formatted, err := utils.FormatGoCode(unit.OutputPath, []byte(file.String()))
	if err != nil {
		return nil, errors.New(errors.InternalError, models.Span{File: unit.OutputPath}, "generated code does not parse: %v", err)
	}
	formatted, err = restoreDocComments(unit.OutputPath, formatted, resolved)
	if err != nil {
		return nil, errors.New(errors.InternalError, models.Span{File: unit.OutputPath}, "generated code does not parse: %v", err)
	}

	return &models.GeneratedFile{
		Path:    unit.OutputPath,
		Package: unit.Package,
		Content: formatted,
		Records: names,
	}, nil
}

// RenderRecord renders the partial type, the merge methods and, when enabled,
// the interface assertions of one model. The result is not formatted.
func (e *Emitter) RenderRecord(model *models.ResolvedModel) (string, error) {
	partial, err := executeTemplate("partial", partialTemplate, model)
	if err != nil {
		return "", err
	}

	data, err := newMergeData(model)
	if err != nil {
		return "", err
	}

	methods, err := executeTemplate("merge", mergeTemplate, data)
	if err != nil {
		return "", err
	}

	code := partial + "\n" + methods
	if e.emitsAssertions(model) {
		assertions, err := executeTemplate("assertions", assertionTemplate, data)
		if err != nil {
			return "", err
		}
		code += "\n" + assertions
	}
	return code, nil
}

// RenderOriginal re-declares a record, used when records come from a schema
func RenderOriginal(record *models.RecordDefinition) (string, error) {
	return executeTemplate("original", originalTemplate, record)
}

func (e *Emitter) emitsAssertions(model *models.ResolvedModel) bool {
	return e.opts.Assertions && !model.IsGeneric()
}

func newMergeData(model *models.ResolvedModel) (mergeData, error) {
	reserved := append([]string{runtimeName()}, model.Record.TypeParamNames...)
	data := mergeData{
		Receiver:    pickName(receiverNames, reserved),
		Original:    model.OriginalType(),
		PartialType: model.PartialType(),
		Runtime:     runtimeName(),
	}
	data.Partial = pickName(partialNames, append(reserved, data.Receiver))

	for _, field := range model.Fields {
		if field.Shape.Blank {
			continue
		}
		if field.Strategy.Snippet == "" {
			return mergeData{}, fmt.Errorf("field %s of %s has no resolved strategy", field.Definition.Name, model.Record.Name)
		}

		code, err := executeTemplate(field.Strategy.Name, field.Strategy.Snippet, snippetData{
			Target: data.Receiver + "." + field.Definition.Name,
			Value:  "*" + data.Partial + "." + field.Definition.Name,
		})
		if err != nil {
			return mergeData{}, err
		}
		data.Statements = append(data.Statements, statement{Field: field.Definition.Name, Code: code})
	}
	return data, nil
}

// collectImports adds the packages referenced by the emitted field types and
// type parameter constraints, plus the imports required by strategies.
func (e *Emitter) collectImports(model *models.ResolvedModel, imports *ImportManager) *errors.Diagnostic {
	record := model.Record

	if diag := checkDotImports(model); diag != nil {
		return diag
	}
	for _, field := range model.Fields {
		if diag := addQualifiedImports(record, field.Definition.TypeExpr, field.Definition.Span, imports); diag != nil {
			return diag
		}
	}
	for _, constraint := range record.Constraints {
		if diag := addQualifiedImports(record, constraint, record.NameSpan, imports); diag != nil {
			return diag
		}
	}

	var runtime []string
	for _, field := range model.Fields {
		if !field.Shape.Blank {
			runtime = append(runtime, field.Strategy.Imports...)
		}
	}
	if e.emitsAssertions(model) {
		runtime = append(runtime, models.RuntimeImportPath)
	}
	for _, path := range runtime {
		spec := models.ImportSpec{Path: path}
		if span, ok := record.Scope.Lookup(spec.LocalName()); ok {
			return errors.New(errors.IdentifierCollision, span, "%s is declared in package %s and is also the name of the imported package %q", spec.LocalName(), record.Package, path).
				WithHint("rename the declaration or use a custom strategy without package helpers")
		}
		if err := imports.AddImport(spec); err != nil {
			return errors.New(errors.IdentifierCollision, record.NameSpan, "cannot import %q for %s: %v", path, record.Name, err)
		}
	}
	return nil
}

// restoreDocComments writes the doc comments of partial types back as
// rendered. gofmt rewrites doc comments, which turns forwarded lines such as
// //nolint into prose; they must reach the output verbatim.
func restoreDocComments(filename string, src []byte, resolved []*models.ResolvedModel) ([]byte, error) {
	docs := make(map[string][]string)
	for _, model := range resolved {
		if len(model.Shape.Comments) > 0 {
			docs[model.Shape.Name] = partialDoc(model)
		}
	}
	if len(docs) == 0 {
		return src, nil
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	last := 0
	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.TYPE || gen.Doc == nil || len(gen.Specs) != 1 {
			continue
		}
		lines, ok := docs[gen.Specs[0].(*ast.TypeSpec).Name.Name]
		if !ok {
			continue
		}
		start := fset.Position(gen.Doc.Pos()).Offset
		end := fset.Position(gen.Doc.End()).Offset
		out.Write(src[last:start])
		out.WriteString(strings.Join(lines, "\n"))
		last = end
	}
	out.Write(src[last:])
	return out.Bytes(), nil
}

// checkDotImports rejects field types that name identifiers the package does
// not declare when the record's file has dot imports. Such names come from
// the dot-imported packages, which the generated file cannot see.
func checkDotImports(model *models.ResolvedModel) *errors.Diagnostic {
	record := model.Record
	var dotted []string
	for _, spec := range record.Imports {
		if spec.Name == "." {
			dotted = append(dotted, strconv.Quote(spec.Path))
		}
	}
	if len(dotted) == 0 {
		return nil
	}

	known := func(name string) bool {
		if name == "_" || utils.IsPredeclared(name) || slices.Contains(record.TypeParamNames, name) {
			return true
		}
		_, ok := record.Scope.Lookup(name)
		return ok
	}

	for _, field := range model.Fields {
		if name, ok := unknownIdent(field.Definition.TypeExpr, known); ok {
			return errors.New(errors.UnsupportedRecord, field.Definition.Span, "field %s of %s uses %s, which package %s does not declare", field.Definition.Name, record.Name, name, record.Package).
				WithHint("%s dot-imports %s; import the package by name so the generated file can refer to %s", record.File, strings.Join(dotted, ", "), name)
		}
	}
	return nil
}

// unknownIdent returns the first unqualified identifier of a type expression
// that known rejects. Field names of inline struct and interface types and
// selector names are not type references and are skipped.
func unknownIdent(expr ast.Expr, known func(string) bool) (string, bool) {
	if expr == nil {
		return "", false
	}

	var found string
	var visit func(ast.Node) bool
	visit = func(n ast.Node) bool {
		if found != "" {
			return false
		}
		switch n := n.(type) {
		case *ast.SelectorExpr:
			return false
		case *ast.Field:
			ast.Inspect(n.Type, visit)
			return false
		case *ast.Ident:
			if !known(n.Name) {
				found = n.Name
			}
		}
		return true
	}
	ast.Inspect(expr, visit)
	return found, found != ""
}

func addQualifiedImports(record *models.RecordDefinition, expr ast.Expr, span models.Span, imports *ImportManager) *errors.Diagnostic {
	if expr == nil {
		return nil
	}

	var diag *errors.Diagnostic
	ast.Inspect(expr, func(n ast.Node) bool {
		if diag != nil {
			return false
		}
		sel, ok := n.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		qualifier, ok := sel.X.(*ast.Ident)
		if !ok {
			return true
		}

		spec, found := lookupImport(record.Imports, qualifier.Name)
		if !found {
			diag = errors.New(errors.InternalError, span, "type %s.%s is qualified by %s, which %s does not import", qualifier.Name, sel.Sel.Name, qualifier.Name, record.File)
			return false
		}
		if err := imports.AddImport(spec); err != nil {
			diag = errors.New(errors.IdentifierCollision, span, "conflicting imports in generated file: %v", err).
				WithHint("use the same import name for %q in every file of package %s", spec.Path, record.Package)
		}
		return false
	})
	return diag
}

func lookupImport(specs []models.ImportSpec, name string) (models.ImportSpec, bool) {
	for _, spec := range specs {
		if spec.Name == "_" || spec.Name == "." {
			continue
		}
		if spec.LocalName() == name {
			return spec, true
		}
	}
	return models.ImportSpec{}, false
}

func runtimeName() string {
	return models.AssumedPackageName(models.RuntimeImportPath)
}

func pickName(candidates, reserved []string) string {
	for _, candidate := range candidates {
		taken := false
		for _, r := range reserved {
			if r == candidate {
				taken = true
				break
			}
		}
		if !taken {
			return candidate
		}
	}
	return candidates[0] + "_"
}
