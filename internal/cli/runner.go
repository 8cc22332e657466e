package cli

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/toyz/mergeme/internal/errors"
	"github.com/toyz/mergeme/internal/generator"
	"github.com/toyz/mergeme/internal/models"
	"github.com/toyz/mergeme/internal/parser"
	"github.com/toyz/mergeme/internal/schema"
	"github.com/toyz/mergeme/internal/strategy"
	"github.com/toyz/mergeme/internal/utils"
)

// ErrGenerationFailed is returned when at least one target failed. The
// details have already been reported.
var ErrGenerationFailed = stderrors.New("generation failed")

// ErrStale is returned by a check when generated files are out of date
var ErrStale = stderrors.New("generated files are out of date")

// Mode selects what a run does with the generated files
type Mode int

const (
	// ModeGenerate writes changed files
	ModeGenerate Mode = iota
	// ModeCheck compares generated code with the files on disk
	ModeCheck
	// ModeInspect only resolves models
	ModeInspect
)

// phase names the report section of a mode
func (m Mode) phase() string {
	switch m {
	case ModeCheck:
		return "Checking"
	case ModeInspect:
		return "Resolving"
	default:
		return "Generating"
	}
}

// Status is the outcome of one target
type Status int

const (
	StatusEmpty     Status = iota // no records to generate
	StatusFailed                  // diagnostics or a host error
	StatusWritten                 // file written
	StatusUnchanged               // file already up to date
	StatusPending                 // file differs but was not written (dry run or check)
	StatusResolved                // models resolved for inspection
)

// Result is the outcome of processing one target
type Result struct {
	Target      Target
	Output      string
	Status      Status
	Records     int
	File        *models.GeneratedFile
	Models      []*models.ResolvedModel
	Diagnostics errors.Diagnostics
	Warnings    []string
	Err         error
}

// Summary aggregates the results of a run
type Summary struct {
	Targets   int
	Records   int
	Written   int
	Unchanged int
	Pending   int
	Failed    int
	Files     []string // outputs that were written or are pending
}

// Runner coordinates scanning, generation and reporting for the CLI
type Runner struct {
	cfg         *Config
	logger      *slog.Logger
	diagnostics *utils.DiagnosticSystem
	reporter    *DiagnosticReporter
	fileReader  *utils.FileReader
	scanner     *DirectoryScanner
	cleaner     *Cleaner
	modules     *ModuleChecker
	parser      *parser.Parser
	schemas     *schema.Loader
	generator   *generator.Generator
}

// NewRunner creates a runner for cfg
func NewRunner(cfg *Config, diagnostics *utils.DiagnosticSystem, reporter *DiagnosticReporter, logger *slog.Logger) *Runner {
	fileReader := utils.NewFileReader()
	processor := utils.NewFileProcessorWithReader(fileReader)

	scanner := NewDirectoryScanner(processor, cfg.Output)
	schemas := schema.NewLoader(cfg.Prefix, fileReader)

	return &Runner{
		cfg:         cfg,
		logger:      logger.WithGroup("runner"),
		diagnostics: diagnostics,
		reporter:    reporter,
		fileReader:  fileReader,
		scanner:     scanner,
		cleaner:     NewCleaner(scanner, processor, schemas),
		modules:     NewModuleChecker(utils.NewGoModParser(fileReader)),
		parser: parser.NewParserWithReader(parser.Options{
			Prefix:     cfg.Prefix,
			OutputName: cfg.Output,
			Types:      cfg.Types,
		}, fileReader),
		schemas: schemas,
		generator: generator.NewGenerator(generator.Options{
			Prefix:     cfg.Prefix,
			Assertions: cfg.Assertions,
			Registry:   strategy.DefaultRegistry(),
			Logger:     logger,
		}),
	}
}

// Generator returns the underlying generator
func (r *Runner) Generator() *generator.Generator {
	return r.generator
}

// Clean removes the generated outputs of the targets matched by patterns
func (r *Runner) Clean(patterns []string) (*CleanResult, error) {
	result, err := r.cleaner.Clean(patterns, r.cfg.SchemaOut, r.cfg.DryRun)
	if result != nil {
		for _, path := range result.Removed {
			if r.cfg.DryRun {
				r.diagnostics.PhaseProgress("would remove "+path, false)
			} else {
				r.diagnostics.PhaseProgress("removed "+path, true)
			}
		}
		for _, path := range result.Skipped {
			r.diagnostics.Warn("%s was not generated by %s, left in place", path, Tool)
		}
	}
	return result, err
}

// Scan resolves patterns into targets
func (r *Runner) Scan(patterns []string) ([]Target, error) {
	targets, err := r.scanner.Scan(patterns)
	if err != nil {
		return nil, err
	}
	if r.cfg.SchemaOut != "" {
		schemas := 0
		for _, target := range targets {
			if target.Kind == SchemaTarget {
				schemas++
			}
		}
		if schemas != 1 || len(targets) != 1 {
			return nil, fmt.Errorf("--out requires exactly one schema file, got %d targets", len(targets))
		}
	}
	return targets, nil
}

// Process handles targets concurrently, at most JobCount at a time. Results
// are returned in target order. A cancelled context stops targets that have
// not started yet; started targets run to completion.
func (r *Runner) Process(ctx context.Context, targets []Target, mode Mode) ([]*Result, error) {
	results := make([]*Result, len(targets))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.JobCount())

	for i, target := range targets {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			results[i] = r.processTarget(target, mode)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Runner) processTarget(target Target, mode Mode) *Result {
	result := &Result{Target: target, Output: r.scanner.OutputPath(target, r.cfg.SchemaOut)}
	logger := r.logger.With("target", target.Path)

	unit, err := r.load(target)
	if err != nil {
		return result.fail(err)
	}
	result.Output = unit.OutputPath
	result.Records = len(unit.Records)
	if len(unit.Records) == 0 {
		logger.Debug("no records")
		result.Status = StatusEmpty
		return result
	}

	if mode == ModeInspect {
		resolved, diags := r.generator.ResolveUnit(unit)
		if diags.HasErrors() {
			return result.fail(diags)
		}
		result.Models = resolved
		result.Status = StatusResolved
		return result
	}

	file, err := r.generator.Generate(unit)
	if err != nil {
		return result.fail(err)
	}
	result.File = file

	report, err := r.modules.Check(unit.Dir, bytes.Contains(file.Content, []byte(models.RuntimeImportPath)))
	if err != nil {
		return result.fail(err)
	}
	result.Warnings = report.Warnings

	existing, err := os.ReadFile(file.Path)
	if err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return result.fail(errors.WrapFileSystemError("read", file.Path, err))
	}
	if err == nil && bytes.Equal(existing, file.Content) {
		result.Status = StatusUnchanged
		return result
	}

	if mode == ModeCheck || r.cfg.DryRun {
		result.Status = StatusPending
		return result
	}

	if err := os.WriteFile(file.Path, file.Content, 0644); err != nil {
		return result.fail(errors.WrapFileSystemError("write", file.Path, err))
	}
	r.fileReader.InvalidateFile(file.Path)
	logger.Info("wrote generated file", "path", file.Path, "records", len(file.Records))
	result.Status = StatusWritten
	return result
}

func (r *Runner) load(target Target) (*models.GenerationUnit, error) {
	if target.Kind == SchemaTarget {
		unit, err := r.schemas.Load(target.Path)
		if err != nil {
			return nil, err
		}
		if r.cfg.SchemaOut != "" {
			unit.OutputPath = r.cfg.SchemaOut
		}
		return unit, nil
	}
	return r.parser.ParseDirectory(target.Path)
}

func (res *Result) fail(err error) *Result {
	res.Status = StatusFailed
	if diags, ok := errors.AsDiagnostics(err); ok {
		res.Diagnostics = diags
	} else {
		res.Err = err
	}
	return res
}

// Run scans patterns, processes the targets and reports every result in
// target order
func (r *Runner) Run(ctx context.Context, patterns []string, mode Mode) (*Summary, []*Result, error) {
	targets, err := r.Scan(patterns)
	if err != nil {
		return nil, nil, err
	}
	r.diagnostics.Verbose("found %d %s", len(targets), pluralize(len(targets), "target", "targets"))

	results, err := r.Process(ctx, targets, mode)
	if err != nil {
		return nil, nil, err
	}

	summary := r.report(results, mode)
	stats := r.fileReader.Stats()
	r.logger.Debug("file cache", "entries", stats.Entries, "hits", stats.Hits, "misses", stats.Misses)
	if summary.Failed > 0 {
		return summary, results, ErrGenerationFailed
	}
	if mode == ModeCheck && summary.Pending > 0 {
		return summary, results, ErrStale
	}
	return summary, results, nil
}

func (r *Runner) report(results []*Result, mode Mode) *Summary {
	summary := &Summary{Targets: len(results)}

	r.diagnostics.PhaseHeader(mode.phase())
	r.diagnostics.Indent()
	defer r.diagnostics.Unindent()

	for _, result := range results {
		summary.Records += result.Records

		for _, warning := range result.Warnings {
			r.diagnostics.Warn("%s", warning)
		}

		switch result.Status {
		case StatusFailed:
			summary.Failed++
			if len(result.Diagnostics) > 0 {
				r.reporter.Report(result.Diagnostics)
			} else {
				r.reporter.ReportError(result.Err)
			}
		case StatusWritten:
			summary.Written++
			summary.Files = append(summary.Files, result.Output)
			r.diagnostics.PhaseProgress(result.Output, true)
		case StatusUnchanged:
			summary.Unchanged++
			r.diagnostics.Verbose("%s is up to date", result.Output)
		case StatusPending:
			summary.Pending++
			summary.Files = append(summary.Files, result.Output)
			if mode == ModeCheck {
				r.diagnostics.Error("%s is out of date", result.Output)
			} else {
				r.diagnostics.PhaseProgress("would write "+result.Output, false)
			}
		case StatusEmpty:
			r.diagnostics.Debug("%s has no records", result.Target)
		case StatusResolved:
			r.diagnostics.PhaseItem(fmt.Sprintf("%s (%d %s)", result.Target, result.Records, pluralize(result.Records, "record", "records")))
		}
	}

	return summary
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
