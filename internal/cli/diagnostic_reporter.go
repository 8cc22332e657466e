package cli

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/toyz/mergeme/internal/errors"
	"github.com/toyz/mergeme/internal/models"
	"github.com/toyz/mergeme/internal/utils"
)

// DiagnosticReporter prints diagnostics in compiler style:
//
//	people/person.go:12:21: error[UnknownStrategy]: unknown strategy "apend" on field Friends
//	   12 |	//mergeme:strategy(apend)
//	      |	                   ^^^^^
//	  note: people/person.go:13:2: field declared here
//	  hint: did you mean append?
type DiagnosticReporter struct {
	out        io.Writer
	verbose    bool
	useColors  bool
	fileReader *utils.FileReader
}

// NewDiagnosticReporter creates a reporter writing to stderr
func NewDiagnosticReporter(verbose bool) *DiagnosticReporter {
	return &DiagnosticReporter{
		out:        os.Stderr,
		verbose:    verbose,
		useColors:  !color.NoColor,
		fileReader: utils.NewFileReader(),
	}
}

// SetOutput redirects the report
func (r *DiagnosticReporter) SetOutput(out io.Writer) {
	r.out = out
}

// SetColors enables or disables colored output
func (r *DiagnosticReporter) SetColors(enabled bool) {
	r.useColors = enabled
}

// Report prints every diagnostic in order
func (r *DiagnosticReporter) Report(diags errors.Diagnostics) {
	for _, diag := range diags {
		r.ReportDiagnostic(diag)
	}
}

// ReportDiagnostic prints one diagnostic with its excerpt, notes and hints
func (r *DiagnosticReporter) ReportDiagnostic(diag *errors.Diagnostic) {
	location := diag.Span.String()
	if diag.Span.IsZero() {
		location = "mergeme"
	}

	fmt.Fprintf(r.out, "%s: %s %s\n",
		location,
		r.paint(color.FgRed, color.Bold).Sprintf("error[%s]:", diag.Kind),
		diag.Message)
	r.printExcerpt(diag.Span)

	if diag.Expected != "" {
		fmt.Fprintf(r.out, "  %s %s\n", r.paint(color.FgBlue).Sprint("expected:"), diag.Expected)
	}
	for _, related := range diag.Related {
		fmt.Fprintf(r.out, "  %s %s: %s\n", r.paint(color.FgBlue).Sprint("note:"), related.Span, related.Message)
		if r.verbose {
			r.printExcerpt(related.Span)
		}
	}
	for _, hint := range diag.Hints {
		fmt.Fprintf(r.out, "  %s %s\n", r.paint(color.FgCyan).Sprint("hint:"), hint)
	}
}

// ReportError prints a host-level failure with its hints
func (r *DiagnosticReporter) ReportError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(r.out, "%s %v\n", r.paint(color.FgRed, color.Bold).Sprint("error:"), err)

	var base *errors.BaseError
	if stderrors.As(err, &base) {
		for _, hint := range base.Hints {
			fmt.Fprintf(r.out, "  %s %s\n", r.paint(color.FgCyan).Sprint("hint:"), hint)
		}
		if r.verbose {
			fmt.Fprintf(r.out, "  %s %s\n", r.paint(color.FgBlue).Sprint("code:"), base.Code)
		}
	}
}

// printExcerpt prints the source line of span with a caret marker. Nothing
// is printed when the file cannot be read.
func (r *DiagnosticReporter) printExcerpt(span models.Span) {
	if span.File == "" || span.Line == 0 {
		return
	}
	line, ok := r.sourceLine(span.File, span.Line)
	if !ok {
		return
	}

	gutter := fmt.Sprintf("%5d |", span.Line)
	fmt.Fprintf(r.out, "%s\t%s\n", gutter, line)

	if span.Column == 0 {
		return
	}
	marker := caretPadding(line, span.Column) + strings.Repeat("^", span.Width())
	fmt.Fprintf(r.out, "%s\t%s\n", strings.Repeat(" ", len(gutter)-1)+"|", r.paint(color.FgRed).Sprint(marker))
}

func (r *DiagnosticReporter) sourceLine(file string, number int) (string, bool) {
	content, err := r.fileReader.ReadFile(file)
	if err != nil {
		return "", false
	}
	lines := strings.Split(string(content), "\n")
	if number > len(lines) {
		return "", false
	}
	return strings.TrimRight(lines[number-1], "\r"), true
}

// caretPadding keeps the tabs of line before column so the caret lines up
func caretPadding(line string, column int) string {
	var pad strings.Builder
	for i := 0; i < column-1 && i < len(line); i++ {
		if line[i] == '\t' {
			pad.WriteByte('\t')
		} else {
			pad.WriteByte(' ')
		}
	}
	return pad.String()
}

func (r *DiagnosticReporter) paint(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if r.useColors {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}
