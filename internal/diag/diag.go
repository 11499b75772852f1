package diag

import (
	"errors"
	"fmt"
	"sort"
)

// Kind classifies a non-fatal problem recorded during a build or query.
type Kind string

const (
	KindFatalIO              Kind = "fatal_io"
	KindFileSkipped          Kind = "file_skipped"
	KindParseDegraded        Kind = "parse_degraded"
	KindResolutionAmbiguous  Kind = "resolution_ambiguous"
	KindResolutionUnresolved Kind = "resolution_unresolved"
	KindQueryNotFound        Kind = "query_not_found"
)

const (
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// Diagnostic captures a recoverable problem tied to one file or identity.
type Diagnostic struct {
	Kind     Kind   `json:"kind"`
	Path     string `json:"path"`
	Severity string `json:"severity"` // warning | error
	Message  string `json:"message"`
}

func Warning(kind Kind, path, format string, args ...any) Diagnostic {
	return Diagnostic{Kind: kind, Path: path, Severity: SeverityWarning, Message: fmt.Sprintf(format, args...)}
}

func Error(kind Kind, path, format string, args ...any) Diagnostic {
	return Diagnostic{Kind: kind, Path: path, Severity: SeverityError, Message: fmt.Sprintf(format, args...)}
}

// Merge concatenates per-worker slots and sorts the result by path, kind, message.
func Merge(slots ...[]Diagnostic) []Diagnostic {
	total := 0
	for _, slot := range slots {
		total += len(slot)
	}
	out := make([]Diagnostic, 0, total)
	for _, slot := range slots {
		out = append(out, slot...)
	}
	Sort(out)
	return out
}

func Sort(values []Diagnostic) {
	sort.SliceStable(values, func(i, j int) bool {
		if values[i].Path != values[j].Path {
			return values[i].Path < values[j].Path
		}
		if values[i].Kind != values[j].Kind {
			return values[i].Kind < values[j].Kind
		}
		return values[i].Message < values[j].Message
	})
}

// Count returns how many diagnostics of the given kind are present.
func Count(values []Diagnostic, kind Kind) int {
	n := 0
	for _, value := range values {
		if value.Kind == kind {
			n++
		}
	}
	return n
}

// ErrNotFound is matched by errors.Is for every *NotFoundError.
var ErrNotFound = errors.New("not found")

// NotFoundError reports a query argument that names no identity in the graph.
type NotFoundError struct {
	Entity string // module | symbol
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// FatalIOError is the only build failure: the root itself cannot be used.
type FatalIOError struct {
	Path string
	Err  error
}

func (e *FatalIOError) Error() string {
	return fmt.Sprintf("failed to access root %q: %v", e.Path, e.Err)
}

func (e *FatalIOError) Unwrap() error {
	return e.Err
}
