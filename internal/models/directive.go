package models

import "strings"

// Placement tells where a directive comment was attached
type Placement int

const (
	TypePlacement Placement = iota
	FieldPlacement
)

// String returns the string representation of the placement
func (p Placement) String() string {
	switch p {
	case TypePlacement:
		return "type"
	case FieldPlacement:
		return "field"
	default:
		return "unknown"
	}
}

// RawDirective is one directive comment as found by a front-end, before parsing
type RawDirective struct {
	Text      string    // text after "//<prefix>:", e.g. partial(Foo)
	Span      Span      // span of Text inside the comment
	Placement Placement // type or field
}

// AttributeKind distinguishes the two pass-through attribute forms
type AttributeKind int

const (
	// TagAttribute is written key:"value" and becomes a struct tag entry.
	TagAttribute AttributeKind = iota
	// CommentAttribute is written "text" and becomes a //text comment line.
	CommentAttribute
)

// String returns the string representation of the attribute kind
func (k AttributeKind) String() string {
	if k == TagAttribute {
		return "tag"
	}
	return "comment"
}

// Attribute is a pass-through attribute expression. It is forwarded to the
// generated code without interpretation.
type Attribute struct {
	Kind  AttributeKind // tag or comment
	Key   string        // tag key, empty for comments
	Value string        // quoted literal exactly as written
	Text  string        // unquoted value
	Raw   string        // full source text of the attribute
	Span  Span          // location of the attribute
}

// TagEntry renders a tag attribute as it appears inside a struct tag.
func (a Attribute) TagEntry() string {
	return a.Key + ":" + a.Value
}

// CommentLine renders a comment attribute as an emitted comment line.
func (a Attribute) CommentLine() string {
	return "//" + a.Text
}

// PartialDirective is the type-level partial(Name, attrs...) directive
type PartialDirective struct {
	Name       string      // name of the generated partial type
	NameSpan   Span        // location of Name
	Attributes []Attribute // forwarded to the generated type
	Span       Span        // location of the whole directive
}

// StrategyDirective is the field-level strategy(name) directive
type StrategyDirective struct {
	Name     string
	NameSpan Span
	Span     Span
}

// FieldPartialDirective is a field-level partial(attrs...) directive
type FieldPartialDirective struct {
	Attributes []Attribute
	Span       Span
}

// FieldDirectives holds every directive candidate parsed from one field
type FieldDirectives struct {
	Strategies []StrategyDirective
	Partials   []FieldPartialDirective
}

// Attributes returns the attributes of all field-level partial directives in order.
func (f FieldDirectives) Attributes() []Attribute {
	var attrs []Attribute
	for _, p := range f.Partials {
		attrs = append(attrs, p.Attributes...)
	}
	return attrs
}

// DirectiveSet is the parser output for one record. Fields is index-aligned
// with RecordDefinition.Fields.
type DirectiveSet struct {
	Partials       []PartialDirective  // every type-level partial candidate, malformed ones included
	TypeStrategies []StrategyDirective // strategy directives found at type level
	Fields         []FieldDirectives
}

// ValidatedField is the directive state of one field after validation
type ValidatedField struct {
	Strategy   *StrategyDirective // nil means the default strategy
	Attributes []Attribute
}

// ValidatedDirectives is the validator output for one record
type ValidatedDirectives struct {
	Partial PartialDirective
	Fields  []ValidatedField
}

// DirectiveName returns the leading identifier of a raw directive text.
func DirectiveName(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.IndexAny(text, "( \t"); i >= 0 {
		return text[:i]
	}
	return text
}
