package nav

import (
	"github.com/negaga53/codecompass/internal/docrefs"
	"github.com/negaga53/codecompass/internal/resolve"
)

type ResolveOptions struct {
	Fuzzy bool
	Limit int
}

// MatchKind records which lookup rule produced a SymbolMatch, best first.
type MatchKind string

const (
	MatchID        MatchKind = "id"
	MatchQualified MatchKind = "qualified"
	MatchFullName  MatchKind = "full_name"
	MatchSuffix    MatchKind = "suffix"
	MatchName      MatchKind = "name"
	MatchFuzzy     MatchKind = "fuzzy"
)

type SymbolRecord struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	QualifiedName string `json:"qualified_name"`
	Kind          string `json:"kind"`
	Module        string `json:"module"`
	File          string `json:"file"`
	Line          int    `json:"line"`
	EndLine       int    `json:"end_line,omitempty"`
	Signature     string `json:"signature,omitempty"`
}

type SymbolMatch struct {
	Symbol SymbolRecord `json:"symbol"`
	Match  MatchKind    `json:"match"`
	Score  float64      `json:"score,omitempty"`
}

// Target is one distinct dependency of a module.
type Target struct {
	Module     string             `json:"module"`
	Kind       resolve.EdgeKind   `json:"kind"`
	Confidence resolve.Confidence `json:"confidence"`
	Raw        string             `json:"raw"`
	Names      []string           `json:"names,omitempty"`
	Line       int                `json:"line"`
}

type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

type StaleEntry struct {
	Reference    docrefs.DocReference `json:"reference"`
	Issue        string               `json:"issue"`
	Severity     Severity             `json:"severity"`
	SuggestedFix string               `json:"suggested_fix,omitempty"`
}

type TraceHop struct {
	Depth      int                `json:"depth"`
	From       string             `json:"from"`
	To         string             `json:"to"`
	Raw        string             `json:"raw"`
	Confidence resolve.Confidence `json:"confidence,omitempty"`
}
