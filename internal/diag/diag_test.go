package diag

import (
	"errors"
	"fmt"
	"os"
	"testing"
)

func TestMergeSortsAcrossWorkerSlots(t *testing.T) {
	slotA := []Diagnostic{Warning(KindParseDegraded, "b.py", "syntax errors")}
	slotB := []Diagnostic{
		Warning(KindFileSkipped, "a.py", "permission denied"),
		Warning(KindResolutionUnresolved, "b.py", "import %q", "pkg.missing"),
	}

	merged := Merge(slotA, nil, slotB)
	if len(merged) != 3 {
		t.Fatalf("expected 3 diagnostics, got %d", len(merged))
	}
	if merged[0].Path != "a.py" {
		t.Fatalf("expected a.py first, got %#v", merged)
	}
	if merged[1].Kind != KindParseDegraded || merged[2].Kind != KindResolutionUnresolved {
		t.Fatalf("expected kind ordering within b.py, got %#v", merged)
	}
	if Count(merged, KindParseDegraded) != 1 {
		t.Fatalf("expected one parse_degraded diagnostic")
	}
}

func TestNotFoundErrorMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("query failed: %w", &NotFoundError{Entity: "module", ID: "pkg.a"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected wrapped NotFoundError to match ErrNotFound")
	}
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.ID != "pkg.a" {
		t.Fatalf("expected errors.As to recover the identity, got %#v", nf)
	}
}

func TestFatalIOErrorUnwraps(t *testing.T) {
	err := &FatalIOError{Path: "/missing", Err: os.ErrNotExist}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected FatalIOError to unwrap to os.ErrNotExist")
	}
}
