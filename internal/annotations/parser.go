package annotations

import (
	stderrors "errors"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/toyz/mergeme/internal/errors"
	"github.com/toyz/mergeme/internal/models"
	"github.com/toyz/mergeme/internal/utils"
)

const (
	PartialDirectiveName  = "partial"
	StrategyDirectiveName = "strategy"
)

// KnownDirectives lists every directive name understood under the prefix
var KnownDirectives = []string{PartialDirectiveName, StrategyDirectiveName}

// Expected shapes reported with syntax errors
const (
	typePartialShape  = `partial(<Name>[, key:"value" | "comment"]...)`
	fieldPartialShape = `partial(key:"value" | "comment"[, ...])`
	strategyShape     = `strategy(<name>)`
)

// ArgumentKind identifies the form of a directive argument
type ArgumentKind int

const (
	TagArgument ArgumentKind = iota
	CommentArgument
	IdentArgument
)

// Argument is one argument of a parsed directive
type Argument struct {
	Kind  ArgumentKind
	Key   string      // tag key for tag arguments
	Value string      // literal or identifier as written
	Text  string      // unquoted literal, identifier for bare identifiers
	Raw   string      // full source text of the argument
	Span  models.Span // location of the argument
}

// Attribute converts a tag or comment argument into a pass-through attribute
func (a Argument) Attribute() models.Attribute {
	kind := models.CommentAttribute
	if a.Kind == TagArgument {
		kind = models.TagAttribute
	}
	return models.Attribute{
		Kind:  kind,
		Key:   a.Key,
		Value: a.Value,
		Text:  a.Text,
		Raw:   a.Raw,
		Span:  a.Span,
	}
}

// Directive is a syntactically valid directive before placement rules apply
type Directive struct {
	Name     string
	NameSpan models.Span
	Args     []Argument
	Span     models.Span
}

// Parser turns raw directive comments into typed directive candidates
type Parser struct {
	prefix string
}

// NewParser creates a parser for directives written as //<prefix>:name(...)
func NewParser(prefix string) *Parser {
	if prefix == "" {
		prefix = models.DefaultPrefix
	}
	return &Parser{prefix: prefix}
}

// Prefix returns the directive prefix
func (p *Parser) Prefix() string {
	return p.prefix
}

// SplitComment extracts the directive text from a raw comment. offset is the
// byte offset of the text inside the comment.
func SplitComment(prefix, comment string) (text string, offset int, ok bool) {
	marker := "//" + prefix + ":"
	if !strings.HasPrefix(comment, marker) {
		return "", 0, false
	}
	return strings.TrimRight(comment[len(marker):], " \t\r"), len(marker), true
}

// Parse parses a single raw directive
func (p *Parser) Parse(raw models.RawDirective) (*Directive, *errors.Diagnostic) {
	if strings.TrimSpace(raw.Text) == "" {
		return nil, errors.New(errors.DirectiveSyntaxError, raw.Span, "empty directive").
			WithExpected(typePartialShape).
			WithHint("directives are written as //%s:partial(...) or //%s:strategy(...)", p.prefix, p.prefix)
	}

	node, err := directiveGrammar.ParseString(raw.Span.File, raw.Text)
	if err != nil {
		return nil, p.syntaxError(raw, err)
	}

	directive := &Directive{
		Name:     node.Name,
		NameSpan: p.spanOf(raw, node.Pos.Offset, len(node.Name)),
		Span:     p.nodeSpan(raw, node.Tokens),
	}

	for _, arg := range node.Args {
		converted, diag := p.convertArgument(raw, arg)
		if diag != nil {
			return nil, diag
		}
		directive.Args = append(directive.Args, converted)
	}

	return directive, nil
}

// ParseRecord parses every directive attached to a record and its fields.
// Parsing never stops at the first error; every diagnostic is collected.
func (p *Parser) ParseRecord(record *models.RecordDefinition) (models.DirectiveSet, errors.Diagnostics) {
	var diags errors.Diagnostics
	set := models.DirectiveSet{
		Fields: make([]models.FieldDirectives, len(record.Fields)),
	}

	for _, raw := range record.Directives {
		directive, diag := p.Parse(raw)
		if diag != nil {
			diags.Add(diag)
			// A malformed partial still counts as present
			if models.DirectiveName(raw.Text) == PartialDirectiveName {
				set.Partials = append(set.Partials, models.PartialDirective{Span: raw.Span})
			}
			continue
		}

		switch directive.Name {
		case PartialDirectiveName:
			partial, partialDiags := p.typePartial(directive)
			set.Partials = append(set.Partials, partial)
			diags.Extend(partialDiags)
		case StrategyDirectiveName:
			if strategy, diag := p.strategy(directive); diag == nil {
				set.TypeStrategies = append(set.TypeStrategies, strategy)
			} else {
				set.TypeStrategies = append(set.TypeStrategies, models.StrategyDirective{Span: directive.Span})
			}
		default:
			diags.Add(p.unknownDirective(directive))
		}
	}

	for i, field := range record.Fields {
		for _, raw := range field.Directives {
			directive, diag := p.Parse(raw)
			if diag != nil {
				diags.Add(diag)
				continue
			}

			switch directive.Name {
			case PartialDirectiveName:
				partial, partialDiags := p.fieldPartial(directive)
				set.Fields[i].Partials = append(set.Fields[i].Partials, partial)
				diags.Extend(partialDiags)
			case StrategyDirectiveName:
				strategy, diag := p.strategy(directive)
				if diag != nil {
					diags.Add(diag)
					continue
				}
				set.Fields[i].Strategies = append(set.Fields[i].Strategies, strategy)
			default:
				diags.Add(p.unknownDirective(directive))
			}
		}
	}

	return set, diags
}

// typePartial interprets partial(Name, attrs...) at type level
func (p *Parser) typePartial(d *Directive) (models.PartialDirective, errors.Diagnostics) {
	var diags errors.Diagnostics
	partial := models.PartialDirective{Span: d.Span, NameSpan: d.Span}

	if len(d.Args) == 0 {
		diags.Add(errors.New(errors.DirectiveSyntaxError, d.Span, "partial directive requires the name of the generated type").
			WithExpected(typePartialShape).
			WithHint("for example //%s:partial(Partial%s)", p.prefix, "Name"))
		return partial, diags
	}

	first := d.Args[0]
	if first.Kind != IdentArgument {
		diags.Add(errors.New(errors.DirectiveSyntaxError, first.Span, "first argument of partial must be a type name, found %s", first.Raw).
			WithExpected(typePartialShape))
	} else {
		partial.Name = first.Text
		partial.NameSpan = first.Span
	}

	for _, arg := range d.Args[1:] {
		if arg.Kind == IdentArgument {
			diags.Add(errors.New(errors.DirectiveSyntaxError, arg.Span, "unexpected identifier %s, pass-through attributes are key:\"value\" or \"comment\"", arg.Raw).
				WithExpected(typePartialShape))
			continue
		}
		partial.Attributes = append(partial.Attributes, arg.Attribute())
	}

	return partial, diags
}

// fieldPartial interprets partial(attrs...) at field level
func (p *Parser) fieldPartial(d *Directive) (models.FieldPartialDirective, errors.Diagnostics) {
	var diags errors.Diagnostics
	partial := models.FieldPartialDirective{Span: d.Span}

	for _, arg := range d.Args {
		if arg.Kind == IdentArgument {
			diags.Add(errors.New(errors.DirectiveSyntaxError, arg.Span, "unexpected identifier %s in field-level partial", arg.Raw).
				WithExpected(fieldPartialShape).
				WithHint("partial(%s) names the generated type and belongs on the type declaration", arg.Text))
			continue
		}
		partial.Attributes = append(partial.Attributes, arg.Attribute())
	}

	return partial, diags
}

// strategy interprets strategy(name)
func (p *Parser) strategy(d *Directive) (models.StrategyDirective, *errors.Diagnostic) {
	if len(d.Args) != 1 {
		return models.StrategyDirective{}, errors.New(errors.DirectiveSyntaxError, d.Span, "strategy directive takes exactly one strategy name, found %d arguments", len(d.Args)).
			WithExpected(strategyShape)
	}

	arg := d.Args[0]
	if arg.Kind != IdentArgument {
		return models.StrategyDirective{}, errors.New(errors.DirectiveSyntaxError, arg.Span, "strategy name must be an identifier, found %s", arg.Raw).
			WithExpected(strategyShape)
	}

	return models.StrategyDirective{
		Name:     arg.Text,
		NameSpan: arg.Span,
		Span:     d.Span,
	}, nil
}

func (p *Parser) unknownDirective(d *Directive) *errors.Diagnostic {
	diag := errors.New(errors.DirectiveSyntaxError, d.NameSpan, "unknown directive %q", d.Name).
		WithExpected(strings.Join(KnownDirectives, " or "))
	if match, ok := utils.ClosestMatch(d.Name, KnownDirectives); ok {
		diag.WithHint("did you mean //%s:%s(...)?", p.prefix, match)
	}
	return diag
}

func (p *Parser) convertArgument(raw models.RawDirective, arg *argNode) (Argument, *errors.Diagnostic) {
	span := p.nodeSpan(raw, arg.Tokens)
	converted := Argument{Span: span, Raw: p.nodeText(raw, arg.Tokens)}

	switch {
	case arg.Tag != nil:
		converted.Kind = TagArgument
		converted.Key = arg.Tag.Key
		converted.Value = arg.Tag.Value
		converted.Text, _ = strconv.Unquote(arg.Tag.Value)
	case arg.Comment != nil:
		text, err := strconv.Unquote(*arg.Comment)
		if err != nil {
			return Argument{}, errors.New(errors.DirectiveSyntaxError, span, "invalid string literal %s", *arg.Comment)
		}
		converted.Kind = CommentArgument
		converted.Value = *arg.Comment
		converted.Text = text
	case arg.Ident != nil:
		converted.Kind = IdentArgument
		converted.Value = *arg.Ident
		converted.Text = *arg.Ident
	}

	return converted, nil
}

func (p *Parser) syntaxError(raw models.RawDirective, err error) *errors.Diagnostic {
	var perr participle.Error
	if !stderrors.As(err, &perr) {
		return errors.New(errors.DirectiveSyntaxError, raw.Span, "malformed directive: %v", err).
			WithExpected(p.expectedShape(raw))
	}

	offset := perr.Position().Offset
	width := 1
	var unexpected *participle.UnexpectedTokenError
	if stderrors.As(err, &unexpected) && len(unexpected.Unexpected.Value) > 0 {
		width = len(unexpected.Unexpected.Value)
	}

	return errors.New(errors.DirectiveSyntaxError, p.spanOf(raw, offset, width), "malformed directive: %s", perr.Message()).
		WithExpected(p.expectedShape(raw))
}

func (p *Parser) expectedShape(raw models.RawDirective) string {
	switch models.DirectiveName(raw.Text) {
	case StrategyDirectiveName:
		return strategyShape
	case PartialDirectiveName:
		if raw.Placement == models.FieldPlacement {
			return fieldPartialShape
		}
	}
	return typePartialShape
}

// spanOf maps a byte range of the directive text to a file span
func (p *Parser) spanOf(raw models.RawDirective, offset, width int) models.Span {
	if offset > len(raw.Text) {
		offset = len(raw.Text)
	}
	return models.SpanAt(raw.Span.File, raw.Span.Line, raw.Span.Column+offset, width)
}

func (p *Parser) nodeSpan(raw models.RawDirective, tokens []lexer.Token) models.Span {
	start, end := tokenRange(tokens)
	if end <= start {
		return raw.Span
	}
	return p.spanOf(raw, start, end-start)
}

func (p *Parser) nodeText(raw models.RawDirective, tokens []lexer.Token) string {
	start, end := tokenRange(tokens)
	if end <= start || end > len(raw.Text) {
		return ""
	}
	return raw.Text[start:end]
}

// tokenRange returns the byte range covered by the non-whitespace tokens of a node
func tokenRange(tokens []lexer.Token) (int, int) {
	start, end := -1, -1
	for _, tok := range tokens {
		if strings.TrimSpace(tok.Value) == "" {
			continue
		}
		if start < 0 {
			start = tok.Pos.Offset
		}
		end = tok.Pos.Offset + len(tok.Value)
	}
	return start, end
}
