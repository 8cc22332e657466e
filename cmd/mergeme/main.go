// Command mergeme generates partial types and merge methods for Go structs
// annotated with //mergeme: directives, or described in HCL and YAML schema
// files.
//
// Usage:
//
//	mergeme [flags] [patterns...]
//	mergeme generate ./...
//	mergeme check ./internal/...
//	mergeme inspect ./models
//	mergeme clean ./...
//	mergeme strategies
//
// Inside a package, //go:generate go run github.com/toyz/mergeme/cmd/mergeme
// generates mergeme_gen.go for the current directory.
package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	gencli "github.com/toyz/mergeme/internal/cli"
)

// Version is set during build using ldflags
var Version = "dev"

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(context.Background(), os.Args); err != nil {
		// failures that were already reported in detail only set the exit code
		if !stderrors.Is(err, gencli.ErrGenerationFailed) && !stderrors.Is(err, gencli.ErrStale) {
			fmt.Fprintf(os.Stderr, "mergeme: %v\n", err)
		}
		os.Exit(1)
	}
}

func newApp(stdout, stderr io.Writer) *cli.Command {
	env := &environment{stdout: stdout, stderr: stderr}

	return &cli.Command{
		Name:        "mergeme",
		Version:     Version,
		HideVersion: true,
		Usage:       "generate partial types and merge methods for Go structs",
		ArgsUsage:   "[patterns...]",
		Writer:      stdout,
		ErrWriter:   stderr,
		Flags:       globalFlags(),
		Action:      env.generate,
		Commands: []*cli.Command{
			{
				Name:      "generate",
				Aliases:   []string{"gen"},
				Usage:     "Generate partial types for packages and schema files",
				ArgsUsage: "[patterns...]",
				Action:    env.generate,
			},
			{
				Name:      "check",
				Usage:     "Report diagnostics and out-of-date files without writing",
				ArgsUsage: "[patterns...]",
				Action:    env.check,
			},
			{
				Name:      "inspect",
				Usage:     "Print the resolved partial types and field strategies",
				ArgsUsage: "[patterns...]",
				Action:    env.inspect,
			},
			{
				Name:      "clean",
				Usage:     "Remove files generated by mergeme",
				ArgsUsage: "[patterns...]",
				Action:    env.clean,
			},
			{
				Name:   "strategies",
				Usage:  "List the available merge strategies",
				Action: env.strategies,
			},
			{
				Name:  "version",
				Usage: "Print the version information",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					fmt.Fprintf(stdout, "mergeme version %s\n", cmd.Root().Version)
					return nil
				},
			},
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "path to a TOML configuration file (default: ./mergeme.toml when present)",
			Sources: cli.EnvVars("MERGEME_CONFIG"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "log level: trace, debug, info, warn or error",
			Sources: cli.EnvVars("MERGEME_LOG_LEVEL"),
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "show detailed progress",
		},
		&cli.BoolFlag{
			Name:    "quiet",
			Aliases: []string{"q"},
			Usage:   "only show errors",
		},
		&cli.BoolFlag{
			Name:  "no-color",
			Usage: "disable colored output",
		},
		&cli.IntFlag{
			Name:    "jobs",
			Aliases: []string{"j"},
			Usage:   "number of packages processed in parallel (default: GOMAXPROCS)",
		},
		&cli.StringFlag{
			Name:  "prefix",
			Usage: "directive prefix (default: mergeme)",
		},
		&cli.StringFlag{
			Name:  "output",
			Usage: "generated file name for Go packages (default: mergeme_gen.go)",
		},
		&cli.StringFlag{
			Name:  "out",
			Usage: "output path for a single schema file",
		},
		&cli.StringSliceFlag{
			Name:  "type",
			Usage: "also generate for this type even without directives (repeatable)",
		},
		&cli.BoolFlag{
			Name:  "no-assert",
			Usage: "do not emit compile-time interface assertions",
		},
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: "report what would be written or removed without touching files",
		},
	}
}
