package models

// ResolvedStrategy is the strategy chosen for one field
type ResolvedStrategy struct {
	Name    string   // registered strategy name
	Kind    string   // type kind the strategy was resolved against
	Snippet string   // text/template body using {{.Target}} and {{.Value}}
	Imports []string // import paths the snippet needs
}

// FieldShape describes one field of the generated partial type
type FieldShape struct {
	Name     string   // unchanged field name
	Type     string   // optional wrapper of the original type, e.g. *[]string
	Tag      string   // struct tag content without backquotes
	Comments []string // forwarded comment lines
	Blank    bool     // blank fields are kept but never merged
}

// TypeShape describes the generated partial type
type TypeShape struct {
	Name       string       // partial type name
	Exported   bool         // Go export rule applied to Name
	TypeParams string       // verbatim type parameter list
	TypeArgs   string       // instantiation arguments, e.g. [T, K]
	Comments   []string     // forwarded comment lines
	Fields     []FieldShape // same order as the original record
}

// ResolvedField joins a field with its strategy and shape
type ResolvedField struct {
	Definition FieldDefinition
	Strategy   ResolvedStrategy
	Shape      FieldShape
}

// ResolvedModel is everything the emitter needs for one record. It only
// exists for records that produced no diagnostics.
type ResolvedModel struct {
	Record  *RecordDefinition
	Partial PartialDirective
	Shape   TypeShape
	Fields  []ResolvedField
}

// OriginalType returns the record type as referenced from generated code,
// instantiated with its own type parameters when generic.
func (m *ResolvedModel) OriginalType() string {
	return m.Record.Name + m.Shape.TypeArgs
}

// PartialType returns the partial type as referenced from generated code.
func (m *ResolvedModel) PartialType() string {
	return m.Shape.Name + m.Shape.TypeArgs
}

// IsGeneric reports whether the record declares type parameters.
func (m *ResolvedModel) IsGeneric() bool {
	return m.Record.TypeParams != ""
}
