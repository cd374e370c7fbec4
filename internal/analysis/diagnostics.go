// Package analysis implements the diagnostics engine and the member access
// resolver for Structured Text documents.
package analysis

import (
	"sort"

	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-st-lsp/internal/scanner"
	"github.com/CWBudde/go-st-lsp/internal/symbols"
)

var log = commonlog.GetLogger("st-lsp.analysis")

// DefaultMaxProblems caps the diagnostics reported for one document.
const DefaultMaxProblems = 100

// Options selects the semantic checks and limits the result.
type Options struct {
	UnusedVariables      bool
	UndefinedIdentifiers bool
	TypeMismatch         bool
	MissingSemicolon     bool

	// MaxProblems limits the number of diagnostics. Zero means no limit.
	MaxProblems int

	// IsKnown reports names declared outside the document, such as units
	// and global variables of other workspace files.
	IsKnown func(name string) bool
}

// DefaultOptions enables every check.
func DefaultOptions() Options {
	return Options{
		UnusedVariables:      true,
		UndefinedIdentifiers: true,
		TypeMismatch:         true,
		MissingSemicolon:     true,
		MaxProblems:          DefaultMaxProblems,
	}
}

type engine struct {
	s      *stream
	starts []int
	syms   []*symbols.Symbol
	types  []symbols.TypeDecl
	opts   Options
	out    []protocol.Diagnostic
}

// ComputeDiagnostics checks text and returns its diagnostics ordered by
// position. syms is the document's symbol table; when nil it is extracted
// from text. Semantic checks are skipped when the structural pass reports an
// error. No check ever fails the whole computation.
func ComputeDiagnostics(text string, syms []*symbols.Symbol, opts Options) []protocol.Diagnostic {
	if syms == nil {
		syms = symbols.Extract("", text)
	}
	e := &engine{
		s:      newStream(text),
		starts: scanner.LineStarts(text),
		syms:   syms,
		types:  symbols.DeclaredTypes("", text),
		opts:   opts,
	}

	e.structural()
	if !HasErrors(e.out) {
		e.semantic()
	}

	SortDiagnostics(e.out)
	if opts.MaxProblems > 0 && len(e.out) > opts.MaxProblems {
		e.out = e.out[:opts.MaxProblems]
	}
	if e.out == nil {
		return []protocol.Diagnostic{}
	}
	return e.out
}

// run executes one check, containing any panic to that check.
func (e *engine) run(name string, check func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Warningf("diagnostic check %s failed: %v", name, r)
		}
	}()
	check()
}

func (e *engine) add(category Category, r rangeSpec, message string) *protocol.Diagnostic {
	return e.addAt(category, protocol.Range{
		Start: scanner.Pos(e.s.lines, r.startLine, r.startCol),
		End:   scanner.Pos(e.s.lines, r.endLine, r.endCol),
	}, message)
}

// SortDiagnostics orders diagnostics by start position.
func SortDiagnostics(diagnostics []protocol.Diagnostic) {
	sort.SliceStable(diagnostics, func(i, j int) bool {
		a, b := diagnostics[i].Range.Start, diagnostics[j].Range.Start
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Character < b.Character
	})
}

// HasErrors reports whether any diagnostic has Error severity.
func HasErrors(diagnostics []protocol.Diagnostic) bool {
	for _, d := range diagnostics {
		if d.Severity != nil && *d.Severity == protocol.DiagnosticSeverityError {
			return true
		}
	}
	return false
}
