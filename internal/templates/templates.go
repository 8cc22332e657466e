package templates

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/toyz/mergeme/internal/models"
)

// FileHeader marks every generated file
const FileHeader = "// Code generated by mergeme. DO NOT EDIT."

// originalTemplate re-declares a record read from a schema file
const originalTemplate = `{{range .Doc}}{{comment .}}
{{end}}type {{.Name}}{{.TypeParams}} struct {
{{range .Fields}}{{range .Doc}}	{{comment .}}
{{end}}	{{if not .Embedded}}{{.Name}} {{end}}{{.Type}}{{if .Tag}} {{rawString .Tag}}{{end}}
{{end}}}
`

// partialTemplate declares the partial type
const partialTemplate = `{{range partialDoc .}}{{.}}
{{end}}type {{.Shape.Name}}{{.Shape.TypeParams}} struct {
{{range .Shape.Fields}}{{range .Comments}}	{{.}}
{{end}}	{{.Name}} {{.Type}}{{if .Tag}} {{rawString .Tag}}{{end}}
{{end}}}
`

// mergeTemplate declares MergeInPlace and Merge on the original type
const mergeTemplate = `// MergeInPlace applies every present field of {{.Partial}} to {{.Receiver}}.
func ({{.Receiver}} *{{.Original}}) MergeInPlace({{.Partial}} {{.PartialType}}) {
{{range .Statements}}	if {{$.Partial}}.{{.Field}} != nil {
		{{.Code}}
	}
{{end}}}

// Merge returns a copy of {{.Receiver}} with {{.Partial}} applied. The original is not modified.
func ({{.Receiver}} {{.Original}}) Merge({{.Partial}} {{.PartialType}}) {{.Original}} {
	{{.Receiver}}.MergeInPlace({{.Partial}})
	return {{.Receiver}}
}
`

// assertionTemplate checks the generated methods against the runtime interfaces
const assertionTemplate = `var (
	_ {{.Runtime}}.Merger[{{.PartialType}}, {{.Original}}] = {{.Original}}{}
	_ {{.Runtime}}.InPlaceMerger[{{.PartialType}}] = (*{{.Original}})(nil)
)
`

// mergeData is the data of mergeTemplate and assertionTemplate
type mergeData struct {
	Receiver    string
	Partial     string
	Original    string
	PartialType string
	Runtime     string
	Statements  []statement
}

// statement is the merge code of one present field
type statement struct {
	Field string
	Code  string
}

// snippetData is passed to strategy snippets
type snippetData struct {
	Target string // original field, assignable
	Value  string // dereferenced partial field
}

// partialDoc returns the doc comment lines of a partial type: the generated
// sentence followed by the forwarded comment attributes
func partialDoc(model *models.ResolvedModel) []string {
	lines := []string{
		fmt.Sprintf("// %s is the partial form of %s. Nil fields leave the", model.Shape.Name, model.Record.Name),
		"// original value unchanged.",
	}
	return append(lines, model.Shape.Comments...)
}

// comment renders a doc line as a line comment
func comment(line string) string {
	if strings.TrimSpace(line) == "" {
		return "//"
	}
	return "// " + line
}

func rawString(s string) string {
	return "`" + s + "`"
}

// executeTemplate executes a Go template with the given data
func executeTemplate(name, templateStr string, data interface{}) (string, error) {
	funcMap := template.FuncMap{
		"comment":    comment,
		"partialDoc": partialDoc,
		"rawString":  rawString,
	}

	tmpl, err := template.New(name).Funcs(funcMap).Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	return buf.String(), nil
}
