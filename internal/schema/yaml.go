package schema

import (
	"bytes"
	"io"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/toyz/mergeme/internal/errors"
	"github.com/toyz/mergeme/internal/models"
)

type yamlDocument struct {
	Package yaml.Node    `yaml:"package"`
	Output  string       `yaml:"output"`
	Imports []yamlImport `yaml:"imports"`
	Records []yamlRecord `yaml:"records"`
}

type yamlImport struct {
	Path  string `yaml:"path"`
	Alias string `yaml:"alias"`
}

type yamlRecord struct {
	Name       yaml.Node   `yaml:"name"`
	Doc        string      `yaml:"doc"`
	TypeParams yaml.Node   `yaml:"type_params"`
	Directives []yaml.Node `yaml:"directives"`
	Fields     []yamlField `yaml:"fields"`
}

type yamlField struct {
	Name       yaml.Node   `yaml:"name"`
	Type       yaml.Node   `yaml:"type"`
	Tag        yaml.Node   `yaml:"tag"`
	Doc        string      `yaml:"doc"`
	Embedded   bool        `yaml:"embedded"`
	Directives []yaml.Node `yaml:"directives"`
}

var yamlLine = regexp.MustCompile(`line (\d+)`)

func decodeYAML(path string, content []byte) (*document, errors.Diagnostics) {
	var raw yamlDocument
	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)

	if err := dec.Decode(&raw); err != nil {
		return nil, fromYAML(path, err)
	}

	d := &yamlDecoder{path: path}
	doc := &document{
		pkg:      d.scalar(&raw.Package, "package").text,
		pkgSpan:  d.span(&raw.Package, raw.Package.Value),
		output:   raw.Output,
		fileSpan: models.SpanAt(path, 1, 1, 0),
	}
	if raw.Package.Kind == 0 {
		d.diags.Add(errors.New(errors.SchemaError, doc.fileSpan, "missing required key package"))
	}

	for _, imp := range raw.Imports {
		doc.imports = append(doc.imports, models.ImportSpec{Name: imp.Alias, Path: imp.Path})
	}
	for i := range raw.Records {
		doc.records = append(doc.records, d.record(&raw.Records[i]))
	}

	if d.diags.HasErrors() {
		return nil, d.diags
	}
	return doc, nil
}

type yamlDecoder struct {
	path  string
	diags errors.Diagnostics
}

func (d *yamlDecoder) record(raw *yamlRecord) recordSpec {
	name := d.scalar(&raw.Name, "record name")
	if raw.Name.Kind == 0 {
		d.diags.Add(errors.New(errors.SchemaError, models.SpanAt(d.path, 1, 1, 0), "record without a name"))
	}

	rec := recordSpec{
		name:       name.text,
		nameSpan:   name.span,
		span:       name.span,
		doc:        raw.Doc,
		directives: d.scalars(raw.Directives, "directive"),
	}
	if raw.TypeParams.Kind != 0 {
		params := d.scalar(&raw.TypeParams, "type_params")
		rec.typeParams = params.text
		rec.typeParamsSpan = params.span
	}
	for i := range raw.Fields {
		rec.fields = append(rec.fields, d.field(&raw.Fields[i]))
	}
	return rec
}

func (d *yamlDecoder) field(raw *yamlField) fieldSpec {
	name := d.scalar(&raw.Name, "field name")
	typ := d.scalar(&raw.Type, "field type")
	tag := d.scalar(&raw.Tag, "field tag")

	if raw.Name.Kind == 0 && !raw.Embedded {
		d.diags.Add(errors.New(errors.SchemaError, typ.span, "field without a name").
			WithHint("set embedded: true for embedded fields"))
	}
	if raw.Name.Kind == 0 {
		name.span = typ.span
	}

	return fieldSpec{
		name:       name.text,
		nameSpan:   name.span,
		typ:        typ.text,
		typeSpan:   typ.span,
		tag:        tag.text,
		tagSpan:    tag.span,
		doc:        raw.Doc,
		embedded:   raw.Embedded,
		directives: d.scalars(raw.Directives, "directive"),
	}
}

// scalar returns the string value of node; absent nodes yield an empty value
func (d *yamlDecoder) scalar(node *yaml.Node, what string) textAt {
	if node.Kind == 0 {
		return textAt{}
	}
	if node.Kind != yaml.ScalarNode {
		d.diags.Add(errors.New(errors.SchemaError, d.span(node, ""), "%s must be a string", what))
		return textAt{span: d.span(node, "")}
	}
	return textAt{text: node.Value, span: d.span(node, node.Value)}
}

func (d *yamlDecoder) scalars(nodes []yaml.Node, what string) []textAt {
	values := make([]textAt, 0, len(nodes))
	for i := range nodes {
		values = append(values, d.scalar(&nodes[i], what))
	}
	return values
}

// span returns the span of a scalar's content, skipping an opening quote
func (d *yamlDecoder) span(node *yaml.Node, text string) models.Span {
	if node.Kind == 0 {
		return models.Span{}
	}
	column := node.Column
	if node.Style&(yaml.DoubleQuotedStyle|yaml.SingleQuotedStyle) != 0 {
		column++
	}
	return models.SpanAt(d.path, node.Line, column, len(text))
}

// fromYAML converts a decode error to schema errors. yaml.v3 reports
// positions only as "line N" inside its messages.
func fromYAML(path string, err error) errors.Diagnostics {
	var diags errors.Diagnostics
	if err == io.EOF {
		diags.Add(errors.New(errors.SchemaError, models.SpanAt(path, 1, 1, 0), "schema file is empty"))
		return diags
	}

	messages := []string{err.Error()}
	if typeErr, ok := err.(*yaml.TypeError); ok {
		messages = typeErr.Errors
	}
	for _, message := range messages {
		line := 1
		if m := yamlLine.FindStringSubmatch(message); m != nil {
			line, _ = strconv.Atoi(m[1])
		}
		diags.Add(errors.New(errors.SchemaError, models.SpanAt(path, line, 1, 0), "%s", message))
	}
	return diags
}
