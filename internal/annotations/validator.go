package annotations

import (
	"strconv"
	"strings"

	"github.com/toyz/mergeme/internal/errors"
	"github.com/toyz/mergeme/internal/models"
	"github.com/toyz/mergeme/internal/utils"
)

// GeneratedMethods are the method names added to every record
var GeneratedMethods = []string{"Merge", "MergeInPlace"}

// Validator enforces uniqueness, arity, placement and naming rules on the
// directives of a record
type Validator struct {
	prefix string
}

// NewValidator creates a new validator
func NewValidator(prefix string) *Validator {
	if prefix == "" {
		prefix = models.DefaultPrefix
	}
	return &Validator{prefix: prefix}
}

// Validate checks a parsed directive set against its record. It reports every
// problem it finds; the validated directives are only returned when there are none.
func (v *Validator) Validate(record *models.RecordDefinition, set models.DirectiveSet) (*models.ValidatedDirectives, errors.Diagnostics) {
	var diags errors.Diagnostics

	if !record.IsStruct {
		diags.Add(errors.New(errors.UnsupportedRecord, record.NameSpan, "type %s is not a struct (underlying type %s)", record.Name, record.Underlying).
			WithHint("partial types can only be generated for struct types"))
	}

	partial, partialDiags := v.validatePartial(record, set.Partials)
	diags.Extend(partialDiags)

	for _, strategy := range set.TypeStrategies {
		diags.Add(errors.New(errors.DirectiveSyntaxError, strategy.Span, "strategy directive is only valid on fields").
			WithExpected(strategyShape).
			WithHint("move //%s:strategy(...) above the field it applies to", v.prefix))
	}

	diags.Extend(v.validateMethods(record))

	validated := &models.ValidatedDirectives{
		Partial: partial,
		Fields:  make([]models.ValidatedField, len(record.Fields)),
	}

	for i := range record.Fields {
		var fieldDirectives models.FieldDirectives
		if i < len(set.Fields) {
			fieldDirectives = set.Fields[i]
		}
		field, fieldDiags := v.validateField(record.Fields[i], fieldDirectives)
		validated.Fields[i] = field
		diags.Extend(fieldDiags)
	}

	if diags.HasErrors() {
		return nil, diags
	}
	return validated, nil
}

// validatePartial checks the type-level partial directive
func (v *Validator) validatePartial(record *models.RecordDefinition, partials []models.PartialDirective) (models.PartialDirective, errors.Diagnostics) {
	var diags errors.Diagnostics

	switch len(partials) {
	case 0:
		diags.Add(errors.New(errors.MissingPartialDirective, record.NameSpan, "type %s has no partial directive", record.Name).
			WithExpected(typePartialShape).
			WithHint("add //%s:partial(Partial%s) to the type's doc comment", v.prefix, record.Name))
		return models.PartialDirective{}, diags
	case 1:
	default:
		diag := errors.New(errors.DuplicatePartialDirective, partials[1].Span, "type %s has %d partial directives, expected exactly one", record.Name, len(partials)).
			WithRelated(partials[0].Span, "first partial directive here")
		for _, extra := range partials[2:] {
			diag.WithRelated(extra.Span, "another partial directive here")
		}
		diags.Add(diag)
	}

	partial := partials[0]

	// Name problems of malformed directives are already reported by the parser
	if partial.Name != "" {
		diags.Add(v.validatePartialName(record, partial))
	}

	for _, attr := range partial.Attributes {
		switch attr.Kind {
		case models.TagAttribute:
			diags.Add(errors.New(errors.DirectiveSyntaxError, attr.Span, "tag attribute %s is only valid on fields", attr.Raw).
				WithHint("forward struct tags with a field-level //%s:partial(%s)", v.prefix, attr.Raw))
		case models.CommentAttribute:
			diags.Add(v.validateComment(attr))
		}
	}

	return partial, diags
}

func (v *Validator) validatePartialName(record *models.RecordDefinition, partial models.PartialDirective) *errors.Diagnostic {
	if err := utils.IsDeclarableIdentifier("partial name")(partial.Name); err != nil {
		reason := err.Error()
		if verr, ok := err.(utils.ValidationError); ok {
			reason = verr.Message
		}
		return errors.New(errors.DirectiveSyntaxError, partial.NameSpan, "invalid partial type name %q: %s", partial.Name, reason).
			WithExpected(typePartialShape)
	}

	if partial.Name == record.Name {
		return errors.New(errors.IdentifierCollision, partial.NameSpan, "partial type name %s is the name of the original type", partial.Name).
			WithRelated(record.NameSpan, "original type declared here").
			WithHint("choose a distinct name such as Partial%s", record.Name)
	}

	if span, exists := record.Scope.Lookup(partial.Name); exists {
		return errors.New(errors.IdentifierCollision, partial.NameSpan, "partial type name %s is already declared in package %s", partial.Name, record.Package).
			WithRelated(span, "previous declaration here")
	}

	if span, imported := record.Scope.Import(partial.Name); imported {
		return errors.New(errors.IdentifierCollision, partial.NameSpan, "partial type name %s is already bound by an import in package %s", partial.Name, record.Package).
			WithRelated(span, "imported here").
			WithHint("choose another name or import the package under an alias")
	}

	return nil
}

// validateMethods checks that the generated methods can be added to the record
func (v *Validator) validateMethods(record *models.RecordDefinition) errors.Diagnostics {
	var diags errors.Diagnostics

	for _, method := range GeneratedMethods {
		if span, exists := record.Scope.Method(record.Name, method); exists {
			diags.Add(errors.New(errors.IdentifierCollision, record.NameSpan, "type %s already has a method named %s", record.Name, method).
				WithRelated(span, "method declared here"))
		}
		for _, field := range record.Fields {
			if field.Name == method {
				diags.Add(errors.New(errors.IdentifierCollision, field.Span, "field %s of type %s collides with the generated %s method", field.Name, record.Name, method).
					WithHint("rename the field"))
			}
		}
	}

	return diags
}

// validateField checks the directives of a single field
func (v *Validator) validateField(field models.FieldDefinition, directives models.FieldDirectives) (models.ValidatedField, errors.Diagnostics) {
	var diags errors.Diagnostics
	var validated models.ValidatedField

	switch len(directives.Strategies) {
	case 0:
	case 1:
		strategy := directives.Strategies[0]
		validated.Strategy = &strategy
	default:
		diag := errors.New(errors.DuplicateStrategyDirective, directives.Strategies[1].Span, "field %s has %d strategy directives, expected at most one", field.Name, len(directives.Strategies)).
			WithRelated(directives.Strategies[0].Span, "first strategy directive here")
		for _, extra := range directives.Strategies[2:] {
			diag.WithRelated(extra.Span, "another strategy directive here")
		}
		diags.Add(diag)
	}

	seenKeys := make(map[string]models.Attribute)
	for _, attr := range directives.Attributes() {
		switch attr.Kind {
		case models.TagAttribute:
			if diag := v.validateTag(attr); diag != nil {
				diags.Add(diag)
				continue
			}
			if previous, exists := seenKeys[attr.Key]; exists {
				diags.Add(errors.New(errors.DirectiveSyntaxError, attr.Span, "tag key %q is forwarded more than once for field %s", attr.Key, field.Name).
					WithRelated(previous.Span, "first forwarded here"))
				continue
			}
			seenKeys[attr.Key] = attr
		case models.CommentAttribute:
			if diag := v.validateComment(attr); diag != nil {
				diags.Add(diag)
				continue
			}
		}
		validated.Attributes = append(validated.Attributes, attr)
	}

	return validated, diags
}

// validateTag checks the shape of a key:"value" attribute
func (v *Validator) validateTag(attr models.Attribute) *errors.Diagnostic {
	if !strings.HasPrefix(attr.Value, `"`) {
		return errors.New(errors.DirectiveSyntaxError, attr.Span, "tag value of %s must be a double-quoted string", attr.Key).
			WithExpected(`key:"value"`)
	}
	if _, err := strconv.Unquote(attr.Value); err != nil {
		return errors.New(errors.DirectiveSyntaxError, attr.Span, "tag value %s is not a valid string literal", attr.Value).
			WithExpected(`key:"value"`)
	}
	if strings.Contains(attr.Value, "`") {
		return errors.New(errors.DirectiveSyntaxError, attr.Span, "tag value of %s cannot contain a backquote", attr.Key)
	}
	return nil
}

// validateComment checks that a comment attribute fits on one line
func (v *Validator) validateComment(attr models.Attribute) *errors.Diagnostic {
	if strings.ContainsAny(attr.Text, "\r\n") {
		return errors.New(errors.DirectiveSyntaxError, attr.Span, "comment attribute %s spans multiple lines", attr.Raw).
			WithHint("use one comment attribute per line")
	}
	return nil
}
