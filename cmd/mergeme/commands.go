package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/urfave/cli/v3"

	gencli "github.com/toyz/mergeme/internal/cli"
	"github.com/toyz/mergeme/internal/logging"
	"github.com/toyz/mergeme/internal/strategy"
	"github.com/toyz/mergeme/internal/utils"
)

// environment carries the writers shared by every command
type environment struct {
	stdout io.Writer
	stderr io.Writer
}

// session is everything a command needs after flags and config are merged
type session struct {
	cfg         *gencli.Config
	logger      *slog.Logger
	diagnostics *utils.DiagnosticSystem
	runner      *gencli.Runner
}

func (e *environment) newSession(cmd *cli.Command) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logger := logging.SetupLogger(cfg.LogLevel, e.stderr)
	logger.Debug("configuration loaded", "source", cfg.Source, "prefix", cfg.Prefix, "jobs", cfg.JobCount())

	diagnostics := utils.NewDiagnosticSystem(cfg.DiagnosticLevel())
	diagnostics.SetOutput(e.stdout, e.stderr)

	reporter := gencli.NewDiagnosticReporter(cfg.Verbose)
	reporter.SetOutput(e.stderr)

	if cfg.NoColor {
		diagnostics.SetColors(false)
		reporter.SetColors(false)
	}

	return &session{
		cfg:         cfg,
		logger:      logger,
		diagnostics: diagnostics,
		runner:      gencli.NewRunner(cfg, diagnostics, reporter, logger),
	}, nil
}

// loadConfig reads the config file and applies the flags that were set
func loadConfig(cmd *cli.Command) (*gencli.Config, error) {
	cfg, err := gencli.LoadConfig(cmd.String("config"), ".")
	if err != nil {
		return nil, err
	}

	if cmd.IsSet("prefix") {
		cfg.Prefix = cmd.String("prefix")
	}
	if cmd.IsSet("output") {
		cfg.Output = cmd.String("output")
	}
	if cmd.IsSet("jobs") {
		cfg.Jobs = int(cmd.Int("jobs"))
	}
	if cmd.IsSet("log-level") {
		cfg.LogLevel = cmd.String("log-level")
	}
	if cmd.Bool("no-assert") {
		cfg.Assertions = false
	}

	cfg.Types = cmd.StringSlice("type")
	cfg.SchemaOut = cmd.String("out")
	cfg.DryRun = cmd.Bool("dry-run")
	cfg.Verbose = cmd.Bool("verbose")
	cfg.Quiet = cmd.Bool("quiet")
	cfg.NoColor = cmd.Bool("no-color")

	if cfg.Verbose && cfg.Quiet {
		return nil, fmt.Errorf("--verbose and --quiet cannot be used together")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (e *environment) generate(ctx context.Context, cmd *cli.Command) error {
	s, err := e.newSession(cmd)
	if err != nil {
		return err
	}

	if !s.cfg.Features.Generate {
		s.diagnostics.Warn("generation is disabled by features.generate in %s; nothing written", s.cfg.Source)
		return nil
	}

	s.diagnostics.Header("generating partial types")
	summary, _, err := s.runner.Run(ctx, cmd.Args().Slice(), gencli.ModeGenerate)
	if summary != nil {
		s.diagnostics.Summary("Summary", map[string]interface{}{
			"Targets":   summary.Targets,
			"Records":   summary.Records,
			"Written":   summary.Written,
			"Unchanged": summary.Unchanged,
			"Failed":    summary.Failed,
		})
		if err == nil {
			s.diagnostics.GenerationComplete(summary.Written + summary.Pending)
		}
	}
	return err
}

func (e *environment) check(ctx context.Context, cmd *cli.Command) error {
	s, err := e.newSession(cmd)
	if err != nil {
		return err
	}

	summary, _, err := s.runner.Run(ctx, cmd.Args().Slice(), gencli.ModeCheck)
	if err != nil {
		return err
	}
	s.diagnostics.Success("%d %s checked, everything up to date", summary.Targets, plural(summary.Targets, "target", "targets"))
	return nil
}

func (e *environment) inspect(ctx context.Context, cmd *cli.Command) error {
	s, err := e.newSession(cmd)
	if err != nil {
		return err
	}

	_, results, err := s.runner.Run(ctx, cmd.Args().Slice(), gencli.ModeInspect)
	for _, result := range results {
		if result.Status == gencli.StatusResolved {
			fmt.Fprintln(e.stdout, gencli.InspectTree(result.Target.Path, result.Models))
		}
	}
	return err
}

func (e *environment) clean(ctx context.Context, cmd *cli.Command) error {
	s, err := e.newSession(cmd)
	if err != nil {
		return err
	}

	result, err := s.runner.Clean(cmd.Args().Slice())
	if err != nil {
		return err
	}
	verb := "removed"
	if s.cfg.DryRun {
		verb = "would remove"
	}
	s.diagnostics.Success("%s %d generated %s", verb, len(result.Removed), plural(len(result.Removed), "file", "files"))
	return nil
}

func (e *environment) strategies(ctx context.Context, cmd *cli.Command) error {
	fmt.Fprintln(e.stdout, gencli.StrategyTable(strategy.DefaultRegistry()))
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
