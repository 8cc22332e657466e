package strategy

import (
	"strings"

	"github.com/toyz/mergeme/internal/errors"
	"github.com/toyz/mergeme/internal/models"
	"github.com/toyz/mergeme/internal/utils"
)

// Resolver maps every field of a record to exactly one strategy
type Resolver struct {
	registry *Registry
}

// NewResolver creates a resolver backed by registry
func NewResolver(registry *Registry) *Resolver {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Resolver{registry: registry}
}

// Registry returns the registry used by the resolver
func (r *Resolver) Registry() *Registry {
	return r.registry
}

// Resolve returns one strategy per field, in field order. Unknown names and
// type mismatches are reported, never replaced by the default.
func (r *Resolver) Resolve(record *models.RecordDefinition, validated *models.ValidatedDirectives) ([]models.ResolvedStrategy, errors.Diagnostics) {
	var diags errors.Diagnostics
	resolved := make([]models.ResolvedStrategy, len(record.Fields))

	for i, field := range record.Fields {
		var directive *models.StrategyDirective
		if validated != nil && i < len(validated.Fields) {
			directive = validated.Fields[i].Strategy
		}

		strategy, diag := r.ResolveField(record, field, directive)
		if diag != nil {
			diags.Add(diag)
			continue
		}
		resolved[i] = strategy
	}

	return resolved, diags
}

// ResolveField resolves the strategy of a single field
func (r *Resolver) ResolveField(record *models.RecordDefinition, field models.FieldDefinition, directive *models.StrategyDirective) (models.ResolvedStrategy, *errors.Diagnostic) {
	name := DefaultStrategy
	span := field.Span
	if directive != nil {
		name = directive.Name
		span = directive.NameSpan
	}

	strategy, ok := r.registry.Lookup(name)
	if !ok {
		names := r.registry.Names()
		diag := errors.New(errors.UnknownStrategy, span, "unknown strategy %q on field %s", name, field.Name).
			WithHint("registered strategies: %s", strings.Join(names, ", "))
		if match, found := utils.ClosestMatch(name, names); found {
			diag.WithHint("did you mean %s?", match)
		}
		return models.ResolvedStrategy{}, diag
	}

	kind := Classify(field.TypeExpr, record.Scope, record.TypeParamNames)
	if !strategy.Accepts(kind) {
		return models.ResolvedStrategy{}, errors.New(errors.StrategyTypeMismatch, span, "strategy %s cannot be applied to field %s of type %s", name, field.Name, field.Type).
			WithHint("%s expects %s, field type is %s", name, strategy.Expected, kindDescription(kind)).
			WithRelated(field.Span, "field declared here")
	}

	resolved := models.ResolvedStrategy{
		Name:    strategy.Name,
		Kind:    kind.String(),
		Snippet: strategy.Snippet(kind),
	}
	if strategy.Imports != nil {
		resolved.Imports = strategy.Imports(kind)
	}
	return resolved, nil
}

func kindDescription(kind Kind) string {
	switch kind {
	case KindOpaque:
		return "an opaque type"
	case KindArray:
		return "an array"
	default:
		return "a " + kind.String()
	}
}
