package generator

import (
	"log/slog"

	"github.com/toyz/mergeme/internal/annotations"
	"github.com/toyz/mergeme/internal/errors"
	"github.com/toyz/mergeme/internal/models"
	"github.com/toyz/mergeme/internal/strategy"
	"github.com/toyz/mergeme/internal/templates"
)

// Options configures a Generator
type Options struct {
	Prefix     string             // directive prefix, defaults to mergeme
	Assertions bool               // emit compile-time interface assertions
	Registry   *strategy.Registry // strategy registry, defaults to the built-ins
	Logger     *slog.Logger
}

// Generator runs the directive pipeline for records and units
type Generator struct {
	parser    *annotations.Parser
	validator *annotations.Validator
	resolver  *strategy.Resolver
	emitter   *templates.Emitter
	logger    *slog.Logger
}

// NewGenerator creates a new generator
func NewGenerator(opts Options) *Generator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Generator{
		parser:    annotations.NewParser(opts.Prefix),
		validator: annotations.NewValidator(opts.Prefix),
		resolver:  strategy.NewResolver(opts.Registry),
		emitter:   templates.NewEmitter(templates.Options{Assertions: opts.Assertions}),
		logger:    logger.WithGroup("generator"),
	}
}

// Prefix returns the directive prefix in use
func (g *Generator) Prefix() string {
	return g.parser.Prefix()
}

// Registry returns the strategy registry in use
func (g *Generator) Registry() *strategy.Registry {
	return g.resolver.Registry()
}

// ResolveRecord parses, validates and resolves the directives of one record.
// Every stage runs even when an earlier one reported problems, so a single
// call returns all detectable diagnostics. The model is nil whenever any
// diagnostic was produced.
func (g *Generator) ResolveRecord(record *models.RecordDefinition) (*models.ResolvedModel, errors.Diagnostics) {
	set, diags := g.parser.ParseRecord(record)

	validated, validationDiags := g.validator.Validate(record, set)
	diags.Extend(validationDiags)

	candidates := validated
	if candidates == nil {
		candidates = strategyCandidates(record, set)
	}
	strategies, strategyDiags := g.resolver.Resolve(record, candidates)
	diags.Extend(strategyDiags)

	if diags.HasErrors() {
		diags.Sort()
		g.logger.Debug("record rejected", "record", record.Name, "diagnostics", len(diags))
		return nil, diags
	}

	shape := BuildShape(record, validated)
	model := &models.ResolvedModel{
		Record:  record,
		Partial: validated.Partial,
		Shape:   shape,
		Fields:  make([]models.ResolvedField, len(record.Fields)),
	}
	for i, field := range record.Fields {
		model.Fields[i] = models.ResolvedField{
			Definition: field,
			Strategy:   strategies[i],
			Shape:      shape.Fields[i],
		}
	}

	g.logger.Debug("record resolved", "record", record.Name, "partial", shape.Name, "fields", len(model.Fields))
	return model, nil
}

// ResolveUnit resolves every record of a unit. Records are independent; in
// addition, two records may not generate the same partial name.
func (g *Generator) ResolveUnit(unit *models.GenerationUnit) ([]*models.ResolvedModel, errors.Diagnostics) {
	var diags errors.Diagnostics
	resolved := make([]*models.ResolvedModel, 0, len(unit.Records))
	seen := make(map[string]*models.ResolvedModel)

	for _, record := range unit.Records {
		model, recordDiags := g.ResolveRecord(record)
		diags.Extend(recordDiags)
		if model == nil {
			continue
		}

		if previous, exists := seen[model.Shape.Name]; exists {
			diags.Add(errors.New(errors.IdentifierCollision, model.Partial.NameSpan,
				"partial name %s is already generated for type %s", model.Shape.Name, previous.Record.Name).
				WithRelated(previous.Partial.NameSpan, "previously requested here"))
			continue
		}
		seen[model.Shape.Name] = model
		resolved = append(resolved, model)
	}

	diags.Sort()
	return resolved, diags
}

// Generate produces the file for a unit. Nothing is generated when any record
// has a diagnostic; the returned error is then an errors.Diagnostics.
func (g *Generator) Generate(unit *models.GenerationUnit) (*models.GeneratedFile, error) {
	resolved, diags := g.ResolveUnit(unit)
	if diags.HasErrors() {
		return nil, diags
	}

	file, err := g.emitter.EmitFile(unit, resolved)
	if err != nil {
		if _, ok := errors.AsDiagnostics(err); ok {
			return nil, err
		}
		return nil, errors.WrapWithOperation("generate", unit.OutputPath, err)
	}

	g.logger.Info("generated", "output", unit.OutputPath, "records", len(file.Records))
	return file, nil
}

// strategyCandidates picks the first strategy directive of every field so
// that strategies are still resolved when validation failed.
func strategyCandidates(record *models.RecordDefinition, set models.DirectiveSet) *models.ValidatedDirectives {
	candidates := &models.ValidatedDirectives{Fields: make([]models.ValidatedField, len(record.Fields))}
	if !record.IsStruct {
		return candidates
	}
	for i := range candidates.Fields {
		if i < len(set.Fields) && len(set.Fields[i].Strategies) > 0 {
			first := set.Fields[i].Strategies[0]
			candidates.Fields[i].Strategy = &first
		}
	}
	return candidates
}
