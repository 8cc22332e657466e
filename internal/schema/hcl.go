package schema

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/toyz/mergeme/internal/errors"
	"github.com/toyz/mergeme/internal/models"
)

var hclFileSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "package", Required: true},
		{Name: "output"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "import", LabelNames: []string{"path"}},
		{Type: "record", LabelNames: []string{"name"}},
	},
}

var hclRecordSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "doc"},
		{Name: "type_params"},
		{Name: "directives"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "field", LabelNames: []string{"name"}},
	},
}

var hclFieldSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "type", Required: true},
		{Name: "tag"},
		{Name: "doc"},
		{Name: "embedded"},
		{Name: "directives"},
	},
}

// hclImport is the body of an import block
type hclImport struct {
	Alias string `hcl:"alias,optional"`
}

// hclDecoder walks an HCL schema file. Blocks are decoded by hand so every
// value keeps its source range.
type hclDecoder struct {
	content []byte
	diags   hcl.Diagnostics
}

func decodeHCL(path string, content []byte) (*document, errors.Diagnostics) {
	file, diags := hclparse.NewParser().ParseHCL(content, path)
	if diags.HasErrors() {
		return nil, fromHCL(diags)
	}

	d := &hclDecoder{content: content}
	doc := d.file(file)
	if d.diags.HasErrors() {
		return nil, fromHCL(d.diags)
	}
	return doc, nil
}

func (d *hclDecoder) file(file *hcl.File) *document {
	body, diags := file.Body.Content(hclFileSchema)
	d.diags = append(d.diags, diags...)
	if body == nil {
		return nil
	}

	doc := &document{fileSpan: spanFromRange(file.Body.MissingItemRange())}
	if attr, ok := body.Attributes["package"]; ok {
		doc.pkg = d.string(attr.Expr)
		doc.pkgSpan = d.valueSpan(attr.Expr, doc.pkg)
	}
	if attr, ok := body.Attributes["output"]; ok {
		doc.output = d.string(attr.Expr)
	}

	for _, block := range body.Blocks {
		switch block.Type {
		case "import":
			var imp hclImport
			d.diags = append(d.diags, gohcl.DecodeBody(block.Body, nil, &imp)...)
			doc.imports = append(doc.imports, models.ImportSpec{Name: imp.Alias, Path: block.Labels[0]})
		case "record":
			doc.records = append(doc.records, d.record(block))
		}
	}
	return doc
}

func (d *hclDecoder) record(block *hcl.Block) recordSpec {
	rec := recordSpec{
		name:     block.Labels[0],
		nameSpan: labelSpan(block.LabelRanges[0], block.Labels[0]),
		span:     spanFromRange(block.DefRange),
	}

	body, diags := block.Body.Content(hclRecordSchema)
	d.diags = append(d.diags, diags...)
	if body == nil {
		return rec
	}

	if attr, ok := body.Attributes["doc"]; ok {
		rec.doc = d.string(attr.Expr)
	}
	if attr, ok := body.Attributes["type_params"]; ok {
		rec.typeParams = d.string(attr.Expr)
		rec.typeParamsSpan = d.valueSpan(attr.Expr, rec.typeParams)
	}
	if attr, ok := body.Attributes["directives"]; ok {
		rec.directives = d.strings(attr.Expr)
	}
	for _, fieldBlock := range body.Blocks {
		rec.fields = append(rec.fields, d.field(fieldBlock))
	}
	return rec
}

func (d *hclDecoder) field(block *hcl.Block) fieldSpec {
	field := fieldSpec{
		name:     block.Labels[0],
		nameSpan: labelSpan(block.LabelRanges[0], block.Labels[0]),
	}

	body, diags := block.Body.Content(hclFieldSchema)
	d.diags = append(d.diags, diags...)
	if body == nil {
		return field
	}

	if attr, ok := body.Attributes["type"]; ok {
		field.typ = d.string(attr.Expr)
		field.typeSpan = d.valueSpan(attr.Expr, field.typ)
	}
	if attr, ok := body.Attributes["tag"]; ok {
		field.tag = d.string(attr.Expr)
		field.tagSpan = spanFromRange(attr.Expr.Range())
	}
	if attr, ok := body.Attributes["doc"]; ok {
		field.doc = d.string(attr.Expr)
	}
	if attr, ok := body.Attributes["embedded"]; ok {
		d.diags = append(d.diags, gohcl.DecodeExpression(attr.Expr, nil, &field.embedded)...)
	}
	if attr, ok := body.Attributes["directives"]; ok {
		field.directives = d.strings(attr.Expr)
	}
	return field
}

// string evaluates a constant string expression
func (d *hclDecoder) string(expr hcl.Expression) string {
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		d.diags = append(d.diags, diags...)
		return ""
	}
	if val.IsNull() || !val.IsKnown() || val.Type() != cty.String {
		d.diags = append(d.diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Incorrect attribute value type",
			Detail:   "A string is required.",
			Subject:  expr.Range().Ptr(),
		})
		return ""
	}
	return val.AsString()
}

// strings evaluates a list of strings element by element so each value
// keeps the position of its literal
func (d *hclDecoder) strings(expr hcl.Expression) []textAt {
	elems, diags := hcl.ExprList(expr)
	if diags.HasErrors() {
		d.diags = append(d.diags, diags...)
		return nil
	}

	values := make([]textAt, 0, len(elems))
	for _, elem := range elems {
		text := d.string(elem)
		values = append(values, textAt{text: text, span: d.valueSpan(elem, text)})
	}
	return values
}

// valueSpan returns the span of the string content, skipping an opening quote
func (d *hclDecoder) valueSpan(expr hcl.Expression, text string) models.Span {
	r := expr.Range()
	column := r.Start.Column
	if r.Start.Byte < len(d.content) && d.content[r.Start.Byte] == '"' {
		column++
	}
	return models.SpanAt(r.Filename, r.Start.Line, column, len(text))
}

func labelSpan(r hcl.Range, label string) models.Span {
	return models.SpanAt(r.Filename, r.Start.Line, r.Start.Column+1, len(label))
}

func spanFromRange(r hcl.Range) models.Span {
	return models.Span{
		File:      r.Filename,
		Line:      r.Start.Line,
		Column:    r.Start.Column,
		EndLine:   r.End.Line,
		EndColumn: r.End.Column,
	}
}

// fromHCL converts HCL error diagnostics to schema errors
func fromHCL(hdiags hcl.Diagnostics) errors.Diagnostics {
	var diags errors.Diagnostics
	for _, hd := range hdiags {
		if hd.Severity != hcl.DiagError {
			continue
		}
		var span models.Span
		if hd.Subject != nil {
			span = spanFromRange(*hd.Subject)
		}
		message := hd.Summary
		if hd.Detail != "" {
			message += ": " + hd.Detail
		}
		diags.Add(errors.New(errors.SchemaError, span, "%s", message))
	}
	return diags
}
