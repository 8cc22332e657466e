package errors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/toyz/mergeme/internal/models"
)

// Kind classifies a diagnostic reported against user input
type Kind int

const (
	DirectiveSyntaxError Kind = iota
	MissingPartialDirective
	DuplicatePartialDirective
	DuplicateStrategyDirective
	UnknownStrategy
	StrategyTypeMismatch
	IdentifierCollision
	UnsupportedRecord
	SchemaError
	InternalError
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case DirectiveSyntaxError:
		return "DirectiveSyntaxError"
	case MissingPartialDirective:
		return "MissingPartialDirective"
	case DuplicatePartialDirective:
		return "DuplicatePartialDirective"
	case DuplicateStrategyDirective:
		return "DuplicateStrategyDirective"
	case UnknownStrategy:
		return "UnknownStrategy"
	case StrategyTypeMismatch:
		return "StrategyTypeMismatch"
	case IdentifierCollision:
		return "IdentifierCollision"
	case UnsupportedRecord:
		return "UnsupportedRecord"
	case SchemaError:
		return "SchemaError"
	case InternalError:
		return "InternalError"
	default:
		return "UnknownError"
	}
}

// Related is a secondary location attached to a diagnostic
type Related struct {
	Span    models.Span
	Message string
}

// Diagnostic is one error reported against the input, with a primary span
type Diagnostic struct {
	Kind     Kind        // error taxonomy
	Message  string      // short description
	Span     models.Span // primary location
	Related  []Related   // other locations involved, e.g. earlier duplicates
	Expected string      // expected shape, for syntax errors
	Hints    []string    // suggestions for fixing the error
}

// Error implements the error interface
func (d *Diagnostic) Error() string {
	if d.Span.IsZero() {
		return fmt.Sprintf("%s: %s", d.Kind, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", d.Span, d.Kind, d.Message)
}

// Spans returns the primary span followed by every related span.
func (d *Diagnostic) Spans() []models.Span {
	spans := []models.Span{d.Span}
	for _, r := range d.Related {
		spans = append(spans, r.Span)
	}
	return spans
}

// WithRelated adds a secondary location
func (d *Diagnostic) WithRelated(span models.Span, message string) *Diagnostic {
	d.Related = append(d.Related, Related{Span: span, Message: message})
	return d
}

// WithHint adds a helpful suggestion
func (d *Diagnostic) WithHint(format string, args ...interface{}) *Diagnostic {
	d.Hints = append(d.Hints, fmt.Sprintf(format, args...))
	return d
}

// WithExpected records the expected shape of the offending input
func (d *Diagnostic) WithExpected(expected string) *Diagnostic {
	d.Expected = expected
	return d
}

// New creates a diagnostic
func New(kind Kind, span models.Span, format string, args ...interface{}) *Diagnostic {
	return &Diagnostic{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Span:    span,
	}
}

// Diagnostics is an ordered list of diagnostics that is itself an error
type Diagnostics []*Diagnostic

// Add appends a diagnostic, ignoring nil
func (d *Diagnostics) Add(diag *Diagnostic) {
	if diag != nil {
		*d = append(*d, diag)
	}
}

// Extend appends every diagnostic of other
func (d *Diagnostics) Extend(other Diagnostics) {
	*d = append(*d, other...)
}

// HasErrors returns true if the list is not empty
func (d Diagnostics) HasErrors() bool {
	return len(d) > 0
}

// Sort orders the diagnostics by primary span, then kind. Diagnostics that
// compare equal keep their relative order.
func (d Diagnostics) Sort() {
	sort.SliceStable(d, func(i, j int) bool {
		a, b := d[i], d[j]
		if a.Span != b.Span {
			return a.Span.Before(b.Span)
		}
		return a.Kind < b.Kind
	})
}

// ByKind returns the diagnostics of the given kind
func (d Diagnostics) ByKind(kind Kind) Diagnostics {
	var out Diagnostics
	for _, diag := range d {
		if diag.Kind == kind {
			out = append(out, diag)
		}
	}
	return out
}

// Has returns true if any diagnostic is of the given kind
func (d Diagnostics) Has(kind Kind) bool {
	return len(d.ByKind(kind)) > 0
}

// Err returns the list as an error, or nil when it is empty
func (d Diagnostics) Err() error {
	if len(d) == 0 {
		return nil
	}
	return d
}

// Error implements the error interface
func (d Diagnostics) Error() string {
	switch len(d) {
	case 0:
		return "no diagnostics"
	case 1:
		return d[0].Error()
	}

	messages := make([]string, 0, len(d))
	for i, diag := range d {
		messages = append(messages, fmt.Sprintf("  %d. %s", i+1, diag.Error()))
	}
	return fmt.Sprintf("%d diagnostics:\n%s", len(d), strings.Join(messages, "\n"))
}

// Unwrap exposes every diagnostic to errors.Is and errors.As
func (d Diagnostics) Unwrap() []error {
	errs := make([]error, len(d))
	for i, diag := range d {
		errs[i] = diag
	}
	return errs
}
