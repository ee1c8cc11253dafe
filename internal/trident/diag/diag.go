// Package diag implements Trident's structured diagnostics (§7 of the
// specification): every fallible compiler operation reports a
// Diagnostic rather than aborting outright, so a single pass can surface
// more than one problem.
package diag

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/tridentlang/trident/internal/trident/ast"
)

// Severity distinguishes hard errors from advisory warnings.
type Severity int

const (
	Warning Severity = iota
	Error
)

func (s Severity) String() string {
	if s == Error {
		return "error"
	}
	return "warning"
}

// Diagnostic is a single compiler-reported problem.
type Diagnostic struct {
	Severity Severity
	Span     ast.Span
	Message  string
	Notes    []string
	Help     string
	Cause    error // optional wrapped cause, built with github.com/pkg/errors
}

// Error satisfies the error interface so a Diagnostic can be returned
// directly from functions that otherwise return a plain error.
func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s:%d-%d: %s", d.Severity, d.Span.File, d.Span.Start, d.Span.End, d.Message)
}

// Unwrap exposes the wrapped cause to errors.Is/errors.As.
func (d *Diagnostic) Unwrap() error {
	return d.Cause
}

// Errorf builds an error-severity Diagnostic.
func Errorf(span ast.Span, format string, args ...interface{}) *Diagnostic {
	return &Diagnostic{Severity: Error, Span: span, Message: fmt.Sprintf(format, args...)}
}

// Warnf builds a warning-severity Diagnostic.
func Warnf(span ast.Span, format string, args ...interface{}) *Diagnostic {
	return &Diagnostic{Severity: Warning, Span: span, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches cause as the Diagnostic's underlying cause using
// github.com/pkg/errors so CLI failure paths can print a full cause
// chain (with %+v) including a stack trace at the wrap site.
func (d *Diagnostic) Wrap(cause error) *Diagnostic {
	d.Cause = errors.WithStack(cause)
	return d
}

// WithNote appends a note.
func (d *Diagnostic) WithNote(note string) *Diagnostic {
	d.Notes = append(d.Notes, note)
	return d
}

// WithHelp sets the help hint.
func (d *Diagnostic) WithHelp(help string) *Diagnostic {
	d.Help = help
	return d
}

// Bag accumulates diagnostics across a pass that keeps going after an
// error instead of aborting on the first one (§7: parse errors recover
// by skipping to the next statement-terminating token so multiple
// errors can be reported together).
type Bag struct {
	items []Diagnostic
}

// Add appends one diagnostic to the bag.
func (b *Bag) Add(d Diagnostic) {
	b.items = append(b.items, d)
}

// Errorf builds and appends an error-severity diagnostic.
func (b *Bag) Errorf(span ast.Span, format string, args ...interface{}) {
	b.Add(*Errorf(span, format, args...))
}

// Warnf builds and appends a warning-severity diagnostic.
func (b *Bag) Warnf(span ast.Span, format string, args ...interface{}) {
	b.Add(*Warnf(span, format, args...))
}

// HasErrors reports whether any accumulated diagnostic is error-severity.
func (b *Bag) HasErrors() bool {
	for _, d := range b.items {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// All returns every accumulated diagnostic.
func (b *Bag) All() []Diagnostic {
	return b.items
}

// Collector accumulates diagnostics across a compiler pass, supporting
// parser-style error recovery: callers keep reporting and keep going.
type Collector struct {
	diags []*Diagnostic
}

// Report records a diagnostic.
func (c *Collector) Report(d *Diagnostic) {
	c.diags = append(c.diags, d)
}

// Diagnostics returns all recorded diagnostics in report order.
func (c *Collector) Diagnostics() []*Diagnostic {
	return c.diags
}

// HasErrors reports whether any recorded diagnostic is error-severity.
func (c *Collector) HasErrors() bool {
	for _, d := range c.diags {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// Reset clears all recorded diagnostics.
func (c *Collector) Reset() {
	c.diags = nil
}
