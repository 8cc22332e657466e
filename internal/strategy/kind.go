package strategy

import (
	"go/ast"

	"github.com/toyz/mergeme/internal/models"
)

// Kind is the syntactic classification of a field type
type Kind int

const (
	KindOpaque Kind = iota
	KindSlice
	KindArray
	KindMap
	KindPointer
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindSlice:
		return "slice"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	case KindPointer:
		return "pointer"
	default:
		return "opaque"
	}
}

// Classify determines the kind of a type expression. Identifiers naming a
// type declared in the same package are followed to their declaration;
// names in shadowed (type parameters) and types from other packages are opaque.
func Classify(expr ast.Expr, scope *models.PackageScope, shadowed []string) Kind {
	visited := make(map[string]bool)
	for _, name := range shadowed {
		visited[name] = true
	}
	return classify(expr, scope, visited)
}

func classify(expr ast.Expr, scope *models.PackageScope, visited map[string]bool) Kind {
	switch t := expr.(type) {
	case *ast.ParenExpr:
		return classify(t.X, scope, visited)
	case *ast.ArrayType:
		if t.Len == nil {
			return KindSlice
		}
		return KindArray
	case *ast.MapType:
		return KindMap
	case *ast.StarExpr:
		return KindPointer
	case *ast.Ident:
		return classifyNamed(t.Name, scope, visited)
	case *ast.IndexExpr:
		// instantiated generic type, e.g. List[int]
		if ident, ok := t.X.(*ast.Ident); ok {
			return classifyNamed(ident.Name, scope, visited)
		}
	case *ast.IndexListExpr:
		if ident, ok := t.X.(*ast.Ident); ok {
			return classifyNamed(ident.Name, scope, visited)
		}
	}
	return KindOpaque
}

func classifyNamed(name string, scope *models.PackageScope, visited map[string]bool) Kind {
	if visited[name] {
		return KindOpaque
	}
	declared, ok := scope.TypeExpr(name)
	if !ok || declared == nil {
		return KindOpaque
	}
	visited[name] = true
	return classify(declared, scope, visited)
}
