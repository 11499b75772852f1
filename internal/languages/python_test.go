package languages

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/negaga53/codecompass/internal/parser"
)

const serviceSource = `"""Module doc."""
import os
import a.b as c
from ..pkg import x as y, z
from . import sibling
from .models import *

MAX_RETRIES = 3
default_name = "svc"

@decorator
class Service(Base):
    """Service docs."""
    limit = 5

    def run(self, job):
        def helper():
            return job
        return helper()

    async def stop(self):
        pass

def main():
    import json
    return Service()
`

func TestPythonExtractsQualifiedSymbols(t *testing.T) {
	file, err := NewPythonParser().Parse(context.Background(), "app/service.py", []byte(serviceSource))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if file.Degraded {
		t.Fatalf("did not expect degraded parse: %s", file.DegradedReason)
	}

	type span struct {
		qualified string
		kind      parser.SymbolKind
		start     int
		end       int
	}
	want := []span{
		{"MAX_RETRIES", parser.SymbolConstant, 8, 8},
		{"default_name", parser.SymbolVariable, 9, 9},
		{"Service", parser.SymbolClass, 12, 22},
		{"Service.run", parser.SymbolMethod, 16, 19},
		{"Service.run.helper", parser.SymbolFunction, 17, 18},
		{"Service.stop", parser.SymbolMethod, 21, 22},
		{"main", parser.SymbolFunction, 24, 26},
	}

	got := make([]span, 0, len(file.Symbols))
	for _, sym := range file.Symbols {
		got = append(got, span{sym.QualifiedName, sym.Kind, sym.StartLine, sym.EndLine})
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected symbols:\nwant %#v\ngot  %#v", want, got)
	}

	byName := make(map[string]parser.Symbol)
	for _, sym := range file.Symbols {
		byName[sym.QualifiedName] = sym
	}
	if sig := byName["Service"].Signature; sig != "class Service(Base)" {
		t.Fatalf("unexpected class signature %q", sig)
	}
	if doc := byName["Service"].Doc; doc != "Service docs." {
		t.Fatalf("unexpected class doc %q", doc)
	}
	if sig := byName["Service.run"].Signature; sig != "def run(self, job)" {
		t.Fatalf("unexpected method signature %q", sig)
	}
	if sig := byName["Service.stop"].Signature; sig != "async def stop(self)" {
		t.Fatalf("unexpected async signature %q", sig)
	}
}

func TestPythonExtractsImportsInSourceOrder(t *testing.T) {
	file, err := NewPythonParser().Parse(context.Background(), "app/service.py", []byte(serviceSource))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	want := []parser.Import{
		{Raw: "os", Line: 2},
		{Raw: "a.b", Alias: "c", Line: 3},
		{Raw: "..pkg", Level: 2, Names: []parser.ImportName{{Name: "x", Alias: "y"}, {Name: "z"}}, Line: 4},
		{Raw: ".", Level: 1, Names: []parser.ImportName{{Name: "sibling"}}, Line: 5},
		{Raw: ".models", Level: 1, Names: []parser.ImportName{{Name: "*"}}, Line: 6},
		{Raw: "json", Line: 25},
	}
	if !reflect.DeepEqual(file.Imports, want) {
		t.Fatalf("unexpected imports:\nwant %#v\ngot  %#v", want, file.Imports)
	}
}

func TestPythonPartialExtractionOnSyntaxError(t *testing.T) {
	source := `def good():
    return 1

def broken(:
    pass
`
	file, err := NewPythonParser().Parse(context.Background(), "bad.py", []byte(source))
	if err != nil {
		t.Fatalf("syntax errors must not fail the parse: %v", err)
	}
	if !file.Degraded {
		t.Fatalf("expected degraded result")
	}
	if !strings.Contains(file.DegradedReason, "syntax error") {
		t.Fatalf("unexpected degraded reason %q", file.DegradedReason)
	}

	found := false
	for _, sym := range file.Symbols {
		if sym.QualifiedName == "good" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected complete declaration before the error to survive, got %#v", file.Symbols)
	}
}

func TestPythonInvalidUTF8IsDegraded(t *testing.T) {
	source := []byte("VALUE = 1\n# bad byte \xff\n")
	file, err := NewPythonParser().Parse(context.Background(), "latin.py", source)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !file.Degraded || !strings.Contains(file.DegradedReason, "UTF-8") {
		t.Fatalf("expected UTF-8 degradation, got %#v", file)
	}
}

func TestPythonCancelledContextFails(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewPythonParser().Parse(ctx, "a.py", []byte("x = 1\n")); err == nil {
		t.Fatalf("expected cancelled parse to fail")
	}
}

func TestDefaultRegistryKeepsFirstRedefinition(t *testing.T) {
	registry := NewDefaultRegistry()
	file, err := registry.ParseContent(context.Background(), "dup.py", []byte("def f():\n    pass\n\ndef f():\n    return 1\n"))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(file.Symbols) != 1 || file.Symbols[0].StartLine != 1 {
		t.Fatalf("expected first declaration only, got %#v", file.Symbols)
	}
	if file.Language != "python" || file.Hash == "" {
		t.Fatalf("expected registry to stamp language and hash, got %#v", file)
	}
	if registry.Supports("main.go") {
		t.Fatalf("only python should be registered")
	}
}

func TestPythonSignatureTruncatesOnRuneBoundary(t *testing.T) {
	source := "GREETINGS = \"" + strings.Repeat("é", 100) + "\"\n"
	file, err := NewPythonParser().Parse(context.Background(), "greet.py", []byte(source))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(file.Symbols) != 1 {
		t.Fatalf("expected one symbol, got %#v", file.Symbols)
	}
	signature := file.Symbols[0].Signature
	if !utf8.ValidString(signature) {
		t.Fatalf("signature is not valid UTF-8: %q", signature)
	}
	if !strings.HasSuffix(signature, "é...") || len(signature) > 123 {
		t.Fatalf("unexpected truncated signature %q", signature)
	}
}

func TestFirstLine(t *testing.T) {
	cases := []struct {
		in    string
		limit int
		want  string
	}{
		{"  x = 1\ny = 2", 0, "x = 1"},
		{"abcdef", 3, "abc..."},
		{"aé", 2, "a..."},
		{"日本語", 4, "日..."},
	}
	for _, tc := range cases {
		if got := firstLine(tc.in, tc.limit); got != tc.want {
			t.Fatalf("firstLine(%q, %d) = %q, want %q", tc.in, tc.limit, got, tc.want)
		}
	}
}

func TestIsConstantName(t *testing.T) {
	cases := map[string]bool{
		"MAX":         true,
		"_PRIVATE_1":  true,
		"HTTP2":       true,
		"__all__":     false,
		"__version__": false,
		"CamelCase":   false,
		"_":           false,
	}
	for name, want := range cases {
		if got := isConstantName(name); got != want {
			t.Fatalf("isConstantName(%q) = %v, want %v", name, got, want)
		}
	}
}
