package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/mergeme/internal/models"
)

const personSource = `package people

import (
	"time"

	jsonx "encoding/json"
)

// Person is somebody we know.
//
//mergeme:partial(PartialPerson, "+k8s:deepcopy-gen=false")
type Person struct {
	Name string ` + "`json:\"name\"`" + `
	Age  uint16
	// Friends are listed by name.
	//mergeme:strategy(append)
	Friends []string
	Seen    time.Time //mergeme:partial(json:"seen")
	Raw     jsonx.RawMessage
	X, Y    int
	_       struct{}
	Base
}

type Base struct {
	ID string
}

type unrelated int

func (p *Person) Greet() string { return "hi " + p.Name }

func NewPerson() Person { return Person{} }

var DefaultPerson = NewPerson()
`

func TestParseSourcePerson(t *testing.T) {
	unit, err := NewParser(Options{}).ParseSource("people/person.go", personSource)
	require.NoError(t, err)

	assert.Equal(t, "people", unit.Package)
	assert.Equal(t, filepath.Join("people", DefaultOutputName), unit.OutputPath)
	require.Len(t, unit.Records, 1, "types without directives are not records")

	record := unit.Records[0]
	assert.Equal(t, "Person", record.Name)
	assert.True(t, record.IsStruct)
	assert.True(t, record.Exported)
	assert.Equal(t, []string{"Person is somebody we know."}, record.Doc)
	assert.Equal(t, models.SpanAt("people/person.go", 12, 6, 6), record.NameSpan)

	require.Len(t, record.Directives, 1)
	directive := record.Directives[0]
	assert.Equal(t, `partial(PartialPerson, "+k8s:deepcopy-gen=false")`, directive.Text)
	assert.Equal(t, models.TypePlacement, directive.Placement)
	assert.Equal(t, 11, directive.Span.Line)
	assert.Equal(t, 11, directive.Span.Column, "span starts after the prefix")

	names := make([]string, len(record.Fields))
	for i, f := range record.Fields {
		names[i] = f.Name
	}
	assert.Equal(t, []string{"Name", "Age", "Friends", "Seen", "Raw", "X", "Y", "_", "Base"}, names)

	name := record.Fields[0]
	assert.Equal(t, "string", name.Type)
	assert.Equal(t, `json:"name"`, name.Tag)

	friends := record.Fields[2]
	assert.Equal(t, "[]string", friends.Type)
	assert.Equal(t, []string{"Friends are listed by name."}, friends.Doc)
	require.Len(t, friends.Directives, 1)
	assert.Equal(t, "strategy(append)", friends.Directives[0].Text)
	assert.Equal(t, models.FieldPlacement, friends.Directives[0].Placement)

	seen := record.Fields[3]
	require.Len(t, seen.Directives, 1, "trailing comments carry directives")
	assert.Equal(t, `partial(json:"seen")`, seen.Directives[0].Text)

	assert.Equal(t, "jsonx.RawMessage", record.Fields[4].Type)
	assert.Equal(t, record.Fields[5].Type, record.Fields[6].Type)
	assert.True(t, record.Fields[7].IsBlank())
	assert.True(t, record.Fields[8].Embedded)

	assert.Contains(t, record.Imports, models.ImportSpec{Name: "jsonx", Path: "encoding/json"})
	assert.Contains(t, record.Imports, models.ImportSpec{Path: "time"})
}

func TestParseSourceScope(t *testing.T) {
	unit, err := NewParser(Options{}).ParseSource("person.go", personSource)
	require.NoError(t, err)

	scope := unit.Records[0].Scope
	for _, name := range []string{"Person", "Base", "unrelated", "NewPerson", "DefaultPerson"} {
		_, ok := scope.Lookup(name)
		assert.True(t, ok, name)
	}
	_, ok := scope.Method("Person", "Greet")
	assert.True(t, ok)

	expr, ok := scope.TypeExpr("unrelated")
	require.True(t, ok)
	assert.NotNil(t, expr)
}

func TestParseSourceGeneric(t *testing.T) {
	src := `package box

import "golang.org/x/exp/constraints"

//mergeme:partial(PartialBox)
type Box[K comparable, V constraints.Ordered] struct {
	Items map[K]V
}
`
	unit, err := NewParser(Options{}).ParseSource("box.go", src)
	require.NoError(t, err)
	require.Len(t, unit.Records, 1)

	record := unit.Records[0]
	assert.Equal(t, "[K comparable, V constraints.Ordered]", record.TypeParams)
	assert.Equal(t, []string{"K", "V"}, record.TypeParamNames)
	assert.Len(t, record.Constraints, 2)
}

func TestParseSourceGroupedDeclaration(t *testing.T) {
	src := `package p

// group docs are not type docs
type (
	//mergeme:partial(PartialA)
	A struct{ N int }

	B struct{ N int }
)
`
	unit, err := NewParser(Options{}).ParseSource("p.go", src)
	require.NoError(t, err)
	require.Len(t, unit.Records, 1)
	assert.Equal(t, "A", unit.Records[0].Name)
}

func TestParseSourceFieldDirectiveSelectsRecord(t *testing.T) {
	src := `package p

type A struct {
	//mergeme:strategy(append)
	Items []int
}
`
	unit, err := NewParser(Options{}).ParseSource("p.go", src)
	require.NoError(t, err)
	require.Len(t, unit.Records, 1)
	assert.Empty(t, unit.Records[0].Directives)
}

func TestParseSourceNonStruct(t *testing.T) {
	src := `package p

//mergeme:partial(PartialNames)
type Names []string

//mergeme:partial(PartialAlias)
type Alias = Names
`
	unit, err := NewParser(Options{}).ParseSource("p.go", src)
	require.NoError(t, err)
	require.Len(t, unit.Records, 2)
	assert.False(t, unit.Records[0].IsStruct)
	assert.Equal(t, "[]string", unit.Records[0].Underlying)
	assert.Equal(t, "alias of Names", unit.Records[1].Underlying)
}

func TestParseSourceCustomPrefix(t *testing.T) {
	src := `package p

//patch:partial(PartialA)
type A struct{ N int }

//mergeme:partial(PartialB)
type B struct{ N int }
`
	unit, err := NewParser(Options{Prefix: "patch"}).ParseSource("p.go", src)
	require.NoError(t, err)
	require.Len(t, unit.Records, 1)
	assert.Equal(t, "A", unit.Records[0].Name)
}

func TestParseSourceTypeFilter(t *testing.T) {
	src := `package p

type A struct{ N int }
`
	unit, err := NewParser(Options{Types: []string{"A"}}).ParseSource("p.go", src)
	require.NoError(t, err)
	require.Len(t, unit.Records, 1)

	_, err = NewParser(Options{Types: []string{"Missing"}}).ParseSource("p.go", src)
	assert.ErrorContains(t, err, "type Missing not found")
}

func TestParseFilesSkipsGeneratedOutput(t *testing.T) {
	files := []SourceFile{
		{Name: "b.go", Content: []byte("package p\n\n//mergeme:partial(PartialB)\ntype B struct{ N int }\n")},
		{Name: "a.go", Content: []byte("package p\n\n//mergeme:partial(PartialA)\ntype A struct{ N int }\n")},
		{Name: "old_gen.go", Content: []byte("// Code generated by mergeme. DO NOT EDIT.\n\npackage p\n\ntype PartialA struct{}\n")},
	}

	unit, err := NewParser(Options{}).ParseFiles(".", files)
	require.NoError(t, err)

	require.Len(t, unit.Records, 2)
	assert.Equal(t, "A", unit.Records[0].Name, "records follow file name order")
	assert.Equal(t, "B", unit.Records[1].Name)
	assert.Equal(t, []string{"a.go", "b.go"}, unit.SourceFiles)

	_, declared := unit.Records[0].Scope.Lookup("PartialA")
	assert.False(t, declared, "previous output does not collide with its own partials")
}

func TestParseFilesErrors(t *testing.T) {
	_, err := NewParser(Options{}).ParseFiles(".", []SourceFile{
		{Name: "a.go", Content: []byte("package a\n")},
		{Name: "b.go", Content: []byte("package b\n")},
	})
	assert.ErrorContains(t, err, "multiple packages")

	_, err = NewParser(Options{}).ParseFiles(".", []SourceFile{{Name: "a.go", Content: []byte("package a\ntype {")}})
	assert.ErrorContains(t, err, "failed to parse a.go")
}

func TestParseDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "person.go"), []byte(personSource), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "person_test.go"), []byte("package people\n\n//mergeme:partial(X)\ntype T struct{}\n"), 0644))

	unit, err := NewParser(Options{}).ParseDirectory(dir)
	require.NoError(t, err)
	require.Len(t, unit.Records, 1)
	assert.Equal(t, filepath.Join(dir, DefaultOutputName), unit.OutputPath)

	_, err = NewParser(Options{}).ParseDirectory(t.TempDir())
	assert.ErrorContains(t, err, "no Go files")
}
