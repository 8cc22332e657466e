package models

import (
	"go/ast"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssumedPackageName(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"time", "time"},
		{"net/http", "http"},
		{"github.com/google/uuid", "uuid"},
		{"github.com/urfave/cli/v3", "cli"},
		{"github.com/mattn/go-isatty", "isatty"},
		{"github.com/zclconf/go-cty/cty", "cty"},
		{"gopkg.in/yaml.v3", "yaml"},
		{"github.com/pelletier/go-toml/v2", "toml"},
		{"github.com/foo/client-go", "client"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, AssumedPackageName(tt.path))
		})
	}
}

func TestImportSpecLocalName(t *testing.T) {
	assert.Equal(t, "stdhttp", ImportSpec{Name: "stdhttp", Path: "net/http"}.LocalName())
	assert.Equal(t, "http", ImportSpec{Path: "net/http"}.LocalName())
}

func TestPackageScope(t *testing.T) {
	scope := NewPackageScope()
	first := SpanAt("a.go", 3, 6, 4)
	scope.Declare("User", first)
	scope.Declare("User", SpanAt("b.go", 9, 6, 4))
	scope.Declare("_", SpanAt("a.go", 1, 1, 1))
	scope.DeclareType("Names", &ast.ArrayType{Elt: ast.NewIdent("string")}, SpanAt("a.go", 5, 6, 5))
	scope.DeclareMethod("User", "Merge", SpanAt("a.go", 10, 16, 5))

	span, ok := scope.Lookup("User")
	assert.True(t, ok)
	assert.Equal(t, first, span)

	_, ok = scope.Lookup("_")
	assert.False(t, ok)

	_, ok = scope.Method("User", "Merge")
	assert.True(t, ok)
	_, ok = scope.Method("User", "MergeInPlace")
	assert.False(t, ok)

	expr, ok := scope.TypeExpr("Names")
	assert.True(t, ok)
	assert.IsType(t, &ast.ArrayType{}, expr)

	var nilScope *PackageScope
	_, ok = nilScope.Lookup("User")
	assert.False(t, ok)
}

func TestSpanOrdering(t *testing.T) {
	a := SpanAt("a.go", 2, 5, 3)
	b := SpanAt("a.go", 2, 9, 3)
	c := SpanAt("a.go", 3, 1, 3)
	d := SpanAt("b.go", 1, 1, 3)

	assert.True(t, a.Before(b))
	assert.True(t, b.Before(c))
	assert.True(t, c.Before(d))
	assert.False(t, d.Before(a))
	assert.Equal(t, "a.go:2:5", a.String())
	assert.Equal(t, 3, a.Width())
	assert.True(t, Span{}.IsZero())
}

func TestDirectiveName(t *testing.T) {
	assert.Equal(t, "partial", DirectiveName("partial(Foo)"))
	assert.Equal(t, "strategy", DirectiveName(" strategy (append)"))
	assert.Equal(t, "bogus", DirectiveName("bogus"))
}

func TestAttributeRendering(t *testing.T) {
	tag := Attribute{Kind: TagAttribute, Key: "json", Value: `"name,omitempty"`}
	assert.Equal(t, `json:"name,omitempty"`, tag.TagEntry())

	comment := Attribute{Kind: CommentAttribute, Text: "+k8s:deepcopy-gen=false"}
	assert.Equal(t, "//+k8s:deepcopy-gen=false", comment.CommentLine())
}
