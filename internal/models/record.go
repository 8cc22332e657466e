package models

import (
	"go/ast"
	"path"
	"strings"
)

// RecordDefinition represents a record type discovered by a front-end
type RecordDefinition struct {
	Name           string            // type name
	Package        string            // package clause name
	File           string            // file the type is declared in
	Exported       bool              // Go export rule applied to Name
	IsStruct       bool              // false for any non-struct underlying type
	Underlying     string            // underlying type text for non-struct records
	TypeParams     string            // verbatim type parameter list, e.g. [T any]
	TypeParamNames []string          // names declared by TypeParams in order
	Constraints    []ast.Expr        // constraint expressions of TypeParams
	Doc            []string          // doc comment lines that are not directives
	Fields         []FieldDefinition // fields in declaration order
	Directives     []RawDirective    // type-level directives
	Span           Span              // span of the type spec
	NameSpan       Span              // span of the type name
	Imports        []ImportSpec      // imports of the declaring file
	Scope          *PackageScope     // package-level identifier index
}

// FieldDefinition represents one field of a record. Multi-name declarations
// are expanded into one FieldDefinition per name.
type FieldDefinition struct {
	Name       string         // field name, the type name for embedded fields
	Type       string         // verbatim type expression
	TypeExpr   ast.Expr       // parsed type expression, used for classification only
	Tag        string         // original struct tag without backquotes
	Doc        []string       // doc comment lines that are not directives
	Embedded   bool           // true for embedded fields
	Directives []RawDirective // field-level directives
	Span       Span           // span of the field name
}

// IsBlank reports whether the field is the blank identifier.
func (f FieldDefinition) IsBlank() bool {
	return f.Name == "_"
}

// ImportSpec is one import of a source file
type ImportSpec struct {
	Name string // explicit alias, empty when none
	Path string // import path
}

// LocalName returns the identifier the import is referenced by in source.
func (i ImportSpec) LocalName() string {
	if i.Name != "" {
		return i.Name
	}
	return AssumedPackageName(i.Path)
}

// AssumedPackageName guesses the package name of an import path the way
// goimports does: the last element, with a major version suffix skipped and
// go- prefixes or -go suffixes removed.
func AssumedPackageName(importPath string) string {
	base := path.Base(importPath)
	if isMajorVersion(base) {
		dir := path.Dir(importPath)
		if dir != "." && dir != "/" {
			base = path.Base(dir)
		}
	}
	base = strings.TrimPrefix(base, "go-")
	base = strings.TrimSuffix(base, "-go")
	if i := strings.IndexAny(base, ".-"); i >= 0 {
		base = base[:i]
	}
	return base
}

func isMajorVersion(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	for _, r := range s[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// PackageScope indexes the package-level identifiers visible to a record
type PackageScope struct {
	Identifiers map[string]Span            // every package-level declaration
	Methods     map[string]map[string]Span // receiver type name to method names
	Types       map[string]ast.Expr        // type name to declared type expression
	Imports     map[string]Span            // names bound by the imports of any file
}

// NewPackageScope creates an empty scope
func NewPackageScope() *PackageScope {
	return &PackageScope{
		Identifiers: make(map[string]Span),
		Methods:     make(map[string]map[string]Span),
		Types:       make(map[string]ast.Expr),
		Imports:     make(map[string]Span),
	}
}

// Declare records a package-level identifier. The first declaration wins.
func (s *PackageScope) Declare(name string, span Span) {
	if name == "_" || name == "" {
		return
	}
	if _, exists := s.Identifiers[name]; !exists {
		s.Identifiers[name] = span
	}
}

// DeclareType records a type declaration and its type expression.
func (s *PackageScope) DeclareType(name string, expr ast.Expr, span Span) {
	s.Declare(name, span)
	if _, exists := s.Types[name]; !exists {
		s.Types[name] = expr
	}
}

// DeclareImport records the name an import binds in its file. Blank and dot
// imports bind no name and are ignored.
func (s *PackageScope) DeclareImport(spec ImportSpec, span Span) {
	name := spec.LocalName()
	if name == "_" || name == "." || name == "" {
		return
	}
	if _, exists := s.Imports[name]; !exists {
		s.Imports[name] = span
	}
}

// DeclareMethod records a method declared on a receiver type.
func (s *PackageScope) DeclareMethod(receiver, method string, span Span) {
	methods, ok := s.Methods[receiver]
	if !ok {
		methods = make(map[string]Span)
		s.Methods[receiver] = methods
	}
	if _, exists := methods[method]; !exists {
		methods[method] = span
	}
}

// Lookup returns the span of a package-level identifier.
func (s *PackageScope) Lookup(name string) (Span, bool) {
	if s == nil {
		return Span{}, false
	}
	span, ok := s.Identifiers[name]
	return span, ok
}

// Import returns the span of an import binding name in some file of the package.
func (s *PackageScope) Import(name string) (Span, bool) {
	if s == nil {
		return Span{}, false
	}
	span, ok := s.Imports[name]
	return span, ok
}

// Method returns the span of a method declared on receiver.
func (s *PackageScope) Method(receiver, method string) (Span, bool) {
	if s == nil {
		return Span{}, false
	}
	span, ok := s.Methods[receiver][method]
	return span, ok
}

// TypeExpr returns the declared type expression of a package-local type.
func (s *PackageScope) TypeExpr(name string) (ast.Expr, bool) {
	if s == nil {
		return nil, false
	}
	expr, ok := s.Types[name]
	return expr, ok
}
