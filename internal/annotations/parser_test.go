package annotations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/mergeme/internal/errors"
	"github.com/toyz/mergeme/internal/models"
)

// typeDirective places text as if written on line 3 as //mergeme:<text>
func typeDirective(text string) models.RawDirective {
	return models.RawDirective{
		Text:      text,
		Span:      models.SpanAt("person.go", 3, 11, len(text)),
		Placement: models.TypePlacement,
	}
}

func fieldDirective(line int, text string) models.RawDirective {
	return models.RawDirective{
		Text:      text,
		Span:      models.SpanAt("person.go", line, 12, len(text)),
		Placement: models.FieldPlacement,
	}
}

func TestSplitComment(t *testing.T) {
	tests := []struct {
		name    string
		comment string
		text    string
		offset  int
		ok      bool
	}{
		{"directive", "//mergeme:partial(P)", "partial(P)", 10, true},
		{"trailing space", "//mergeme:strategy(append)  ", "strategy(append)", 10, true},
		{"space after slashes", "// mergeme:partial(P)", "", 0, false},
		{"other prefix", "//go:generate mergeme", "", 0, false},
		{"block comment", "/* mergeme:partial(P) */", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, offset, ok := SplitComment("mergeme", tt.comment)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.text, text)
			assert.Equal(t, tt.offset, offset)
		})
	}
}

func TestParseValidDirectives(t *testing.T) {
	parser := NewParser("mergeme")

	tests := []struct {
		name  string
		text  string
		dname string
		args  []Argument
	}{
		{
			name:  "type partial with name only",
			text:  "partial(PartialPerson)",
			dname: "partial",
			args:  []Argument{{Kind: IdentArgument, Value: "PartialPerson", Text: "PartialPerson", Raw: "PartialPerson"}},
		},
		{
			name:  "type partial with comment attribute",
			text:  `partial(PartialPerson, "+k8s:deepcopy-gen=false")`,
			dname: "partial",
			args: []Argument{
				{Kind: IdentArgument, Value: "PartialPerson", Text: "PartialPerson", Raw: "PartialPerson"},
				{Kind: CommentArgument, Value: `"+k8s:deepcopy-gen=false"`, Text: "+k8s:deepcopy-gen=false", Raw: `"+k8s:deepcopy-gen=false"`},
			},
		},
		{
			name:  "tag attribute",
			text:  `partial(json:"friends,omitempty")`,
			dname: "partial",
			args: []Argument{
				{Kind: TagArgument, Key: "json", Value: `"friends,omitempty"`, Text: "friends,omitempty", Raw: `json:"friends,omitempty"`},
			},
		},
		{
			name:  "raw string comment",
			text:  "partial(`nolint:all`)",
			dname: "partial",
			args:  []Argument{{Kind: CommentArgument, Value: "`nolint:all`", Text: "nolint:all", Raw: "`nolint:all`"}},
		},
		{
			name:  "trailing comma and spaces",
			text:  "strategy( append , )",
			dname: "strategy",
			args:  []Argument{{Kind: IdentArgument, Value: "append", Text: "append", Raw: "append"}},
		},
		{
			name:  "no arguments",
			text:  "partial()",
			dname: "partial",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			directive, diag := parser.Parse(typeDirective(tt.text))
			require.Nil(t, diag)
			assert.Equal(t, tt.dname, directive.Name)
			require.Len(t, directive.Args, len(tt.args))
			for i, expected := range tt.args {
				got := directive.Args[i]
				assert.Equal(t, expected.Kind, got.Kind)
				assert.Equal(t, expected.Key, got.Key)
				assert.Equal(t, expected.Value, got.Value)
				assert.Equal(t, expected.Text, got.Text)
				assert.Equal(t, expected.Raw, got.Raw)
			}
		})
	}
}

func TestParseSpans(t *testing.T) {
	parser := NewParser("mergeme")

	directive, diag := parser.Parse(typeDirective(`partial(PartialPerson, "doc")`))
	require.Nil(t, diag)

	assert.Equal(t, models.SpanAt("person.go", 3, 11, 7), directive.NameSpan)
	assert.Equal(t, models.SpanAt("person.go", 3, 19, 13), directive.Args[0].Span)
	assert.Equal(t, models.SpanAt("person.go", 3, 34, 5), directive.Args[1].Span)
	assert.Equal(t, 11, directive.Span.Column)
	assert.Equal(t, 40, directive.Span.EndColumn)
}

func TestParseSyntaxErrors(t *testing.T) {
	parser := NewParser("mergeme")

	tests := []struct {
		name     string
		text     string
		column   int
		expected string
	}{
		{name: "missing close paren", text: "partial(PartialPerson", column: 11 + 21, expected: typePartialShape},
		{name: "missing open paren", text: "partial PartialPerson)", column: 11 + 8, expected: typePartialShape},
		{name: "missing comma", text: `partial(PartialPerson "doc")`, column: -1, expected: typePartialShape},
		{name: "stray character", text: "strategy(append=1)", column: -1, expected: strategyShape},
		{name: "empty", text: "", column: 11, expected: typePartialShape},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			directive, diag := parser.Parse(typeDirective(tt.text))
			assert.Nil(t, directive)
			require.NotNil(t, diag)
			assert.Equal(t, errors.DirectiveSyntaxError, diag.Kind)
			if tt.column > 0 {
				assert.Equal(t, tt.column, diag.Span.Column)
			} else {
				assert.Greater(t, diag.Span.Column, 11)
			}
			assert.Equal(t, 3, diag.Span.Line)
			assert.Equal(t, tt.expected, diag.Expected)
		})
	}
}

func TestParseInvalidStringLiteral(t *testing.T) {
	parser := NewParser("mergeme")

	_, diag := parser.Parse(typeDirective(`partial(P, "\q")`))
	require.NotNil(t, diag)
	assert.Equal(t, errors.DirectiveSyntaxError, diag.Kind)
	assert.Contains(t, diag.Message, "invalid string literal")
}

func TestParseRecord(t *testing.T) {
	parser := NewParser("mergeme")
	record := &models.RecordDefinition{
		Name:       "Person",
		IsStruct:   true,
		Directives: []models.RawDirective{typeDirective(`partial(PartialPerson, "+marker")`)},
		Fields: []models.FieldDefinition{
			{Name: "Name", Type: "string"},
			{Name: "Friends", Type: "[]string", Directives: []models.RawDirective{
				fieldDirective(7, "strategy(append)"),
				fieldDirective(8, `partial(json:"friends,omitempty")`),
				fieldDirective(9, `partial("keep sorted")`),
			}},
		},
	}

	set, diags := parser.ParseRecord(record)
	require.Empty(t, diags)

	require.Len(t, set.Partials, 1)
	assert.Equal(t, "PartialPerson", set.Partials[0].Name)
	require.Len(t, set.Partials[0].Attributes, 1)
	assert.Equal(t, models.CommentAttribute, set.Partials[0].Attributes[0].Kind)

	require.Len(t, set.Fields, 2)
	assert.Empty(t, set.Fields[0].Strategies)
	require.Len(t, set.Fields[1].Strategies, 1)
	assert.Equal(t, "append", set.Fields[1].Strategies[0].Name)

	attrs := set.Fields[1].Attributes()
	require.Len(t, attrs, 2)
	assert.Equal(t, `json:"friends,omitempty"`, attrs[0].TagEntry())
	assert.Equal(t, "//keep sorted", attrs[1].CommentLine())
}

func TestParseRecordCollectsEveryError(t *testing.T) {
	parser := NewParser("mergeme")
	record := &models.RecordDefinition{
		Name:     "Person",
		IsStruct: true,
		Directives: []models.RawDirective{
			typeDirective("partial(PartialPerson"),
			typeDirective("partail(Other)"),
		},
		Fields: []models.FieldDefinition{
			{Name: "Name", Type: "string", Directives: []models.RawDirective{
				fieldDirective(5, "partial(Other)"),
				fieldDirective(6, "strategy(append, merge)"),
				fieldDirective(7, `strategy("append")`),
			}},
		},
	}

	set, diags := parser.ParseRecord(record)

	require.Len(t, diags, 5)
	for _, diag := range diags {
		assert.Equal(t, errors.DirectiveSyntaxError, diag.Kind)
	}

	// the malformed partial still counts as present
	require.Len(t, set.Partials, 1)
	assert.Equal(t, "", set.Partials[0].Name)

	assert.Contains(t, diags[1].Message, `unknown directive "partail"`)
	assert.Contains(t, diags[1].Hints, "did you mean //mergeme:partial(...)?")
	assert.Contains(t, diags[2].Hints[0], "belongs on the type declaration")
	assert.Contains(t, diags[3].Message, "exactly one strategy name")
	assert.Contains(t, diags[4].Message, "must be an identifier")
}

func TestParseTypePartialShapeErrors(t *testing.T) {
	parser := NewParser("mergeme")

	tests := []struct {
		name    string
		text    string
		message string
	}{
		{"missing name", "partial()", "requires the name"},
		{"string first", `partial("PartialPerson")`, "must be a type name"},
		{"bare identifier attribute", "partial(PartialPerson, extra)", "unexpected identifier extra"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := &models.RecordDefinition{
				Name:       "Person",
				IsStruct:   true,
				Directives: []models.RawDirective{typeDirective(tt.text)},
			}
			set, diags := parser.ParseRecord(record)
			require.Len(t, diags, 1)
			assert.Contains(t, diags[0].Message, tt.message)
			assert.Len(t, set.Partials, 1)
		})
	}
}

func TestParseCustomPrefix(t *testing.T) {
	parser := NewParser("patch")
	assert.Equal(t, "patch", parser.Prefix())

	_, diag := parser.Parse(typeDirective("stratgy(append)"))
	require.Nil(t, diag)

	record := &models.RecordDefinition{Name: "T", IsStruct: true, Directives: []models.RawDirective{typeDirective("stratgy(append)")}}
	_, diags := parser.ParseRecord(record)
	require.Len(t, diags, 1)
	assert.Equal(t, []string{"did you mean //patch:strategy(...)?"}, diags[0].Hints)

	assert.Equal(t, models.DefaultPrefix, NewParser("").Prefix())
}
