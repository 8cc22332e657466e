package strategy

import (
	"go/ast"
	"go/parser"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/mergeme/internal/models"
)

func mustExpr(t *testing.T, src string) ast.Expr {
	t.Helper()
	expr, err := parser.ParseExpr(src)
	require.NoError(t, err)
	return expr
}

func TestClassify(t *testing.T) {
	scope := models.NewPackageScope()
	scope.DeclareType("Names", mustExpr(t, "[]string"), models.Span{})
	scope.DeclareType("Alias", mustExpr(t, "Names"), models.Span{})
	scope.DeclareType("Labels", mustExpr(t, "map[string]string"), models.Span{})
	scope.DeclareType("List", mustExpr(t, "[]E"), models.Span{})
	scope.DeclareType("Pair", mustExpr(t, "struct{ A, B int }"), models.Span{})
	scope.DeclareType("Loop", mustExpr(t, "Loop2"), models.Span{})
	scope.DeclareType("Loop2", mustExpr(t, "Loop"), models.Span{})

	tests := []struct {
		expr     string
		shadowed []string
		expected Kind
	}{
		{"[]string", nil, KindSlice},
		{"[][]byte", nil, KindSlice},
		{"[4]int", nil, KindArray},
		{"[...]int", nil, KindArray},
		{"map[string]int", nil, KindMap},
		{"*Person", nil, KindPointer},
		{"(map[string]int)", nil, KindMap},
		{"string", nil, KindOpaque},
		{"time.Duration", nil, KindOpaque},
		{"Names", nil, KindSlice},
		{"Alias", nil, KindSlice},
		{"Labels", nil, KindMap},
		{"List[int]", nil, KindSlice},
		{"Pair", nil, KindOpaque},
		{"Loop", nil, KindOpaque},
		{"Names", []string{"Names"}, KindOpaque},
		{"T", []string{"T"}, KindOpaque},
		{"func()", nil, KindOpaque},
		{"chan int", nil, KindOpaque},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(mustExpr(t, tt.expr), scope, tt.shadowed))
		})
	}
}

func TestClassifyWithoutScope(t *testing.T) {
	assert.Equal(t, KindOpaque, Classify(mustExpr(t, "Names"), nil, nil))
	assert.Equal(t, KindSlice, Classify(mustExpr(t, "[]Names"), nil, nil))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "slice", KindSlice.String())
	assert.Equal(t, "array", KindArray.String())
	assert.Equal(t, "map", KindMap.String())
	assert.Equal(t, "pointer", KindPointer.String())
	assert.Equal(t, "opaque", KindOpaque.String())
}
