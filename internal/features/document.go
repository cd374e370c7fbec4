// Package features implements the editor features built on the symbol table
// and the diagnostics engine: go to definition, hover, completion, rename,
// quick fixes, symbol listings and semantic highlighting. Providers are pure
// functions of the document text, the cursor position and the workspace index.
package features

import (
	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-st-lsp/internal/analysis"
	"github.com/CWBudde/go-st-lsp/internal/scanner"
	"github.com/CWBudde/go-st-lsp/internal/symbols"
	"github.com/CWBudde/go-st-lsp/internal/workspace"
)

var log = commonlog.GetLogger("st-lsp.features")

// document is the per-request view of one source file.
type document struct {
	uri    protocol.DocumentUri
	text   string
	scan   *scanner.Result
	lines  []string
	masked []string
	starts []int
	syms   []*symbols.Symbol
	types  []symbols.TypeDecl
	index  *workspace.Index
}

func load(uri protocol.DocumentUri, text string, index *workspace.Index) *document {
	scan := scanner.Scan(text)
	doc := &document{
		uri:    uri,
		text:   text,
		scan:   scan,
		lines:  scan.Lines(),
		masked: scan.MaskedLines(),
		starts: scan.LineStarts(),
		index:  index,
	}
	if index != nil {
		doc.syms, doc.types = index.Extractor().Extract(uri, text)
	} else {
		doc.syms = symbols.Extract(uri, text)
		doc.types = symbols.DeclaredTypes(uri, text)
	}
	return doc
}

// word is an identifier occurrence with byte columns on its line.
type word struct {
	text  string
	line  int
	start int
	end   int
}

func (d *document) rangeOf(w word) protocol.Range {
	return scanner.Range(d.lines, w.line, w.start, w.end)
}

// wordAt returns the identifier under pos. The cursor may sit right after
// the identifier. Positions in comments, strings or between tokens fail with
// the matching sentinel.
func (d *document) wordAt(pos protocol.Position) (word, error) {
	line := int(pos.Line)
	if line >= len(d.lines) {
		return word{}, ErrNotRenameable
	}
	col := scanner.ByteColumn(d.lines[line], int(pos.Character))
	if start, end, ok := scanner.WordAt(d.masked[line], col); ok {
		return word{text: d.lines[line][start:end], line: line, start: start, end: end}, nil
	}
	offset := d.starts[line] + col
	switch {
	case d.scan.InComment(offset):
		return word{}, ErrInsideComment
	case d.scan.InString(offset):
		return word{}, ErrInsideString
	default:
		return word{}, ErrNotRenameable
	}
}

// insideNonCode reports whether a cursor at offset is within a comment,
// pragma or string. A cursor right before the opening delimiter is in code;
// one at the end of a line comment is not.
func (d *document) insideNonCode(offset int) bool {
	if region, ok := d.scan.RegionAt(offset); ok && offset > region.Start {
		return true
	}
	for _, r := range d.scan.Regions {
		if r.Kind == scanner.RegionLineComment && r.End == offset && offset > r.Start {
			return true
		}
	}
	return false
}

// occurrences lists every identifier token named name outside comments and
// strings, ignoring case.
func (d *document) occurrences(name string) []word {
	key := symbols.Normalize(name)
	var out []word
	for ln, masked := range d.masked {
		for _, t := range scanner.Identifiers(masked) {
			if symbols.Normalize(t.Text) == key {
				out = append(out, word{text: t.Text, line: ln, start: t.Start, end: t.End})
			}
		}
	}
	return out
}

// resolve finds the declaration of name as seen from line: the enclosing
// unit and the document first, then the workspace.
func (d *document) resolve(name string, line int) *symbols.Symbol {
	if s := symbols.Resolve(d.syms, name, line); s != nil {
		return s
	}
	if d.index == nil {
		return nil
	}
	if s := d.index.LookupGlobal(name); s != nil {
		return s
	}
	return d.index.LookupUnit(name)
}

// typeDecl returns the TYPE declaration named name from this document.
func (d *document) typeDecl(name string) (symbols.TypeDecl, bool) {
	key := symbols.Normalize(name)
	for _, t := range d.types {
		if symbols.Normalize(t.Name) == key {
			return t, true
		}
	}
	return symbols.TypeDecl{}, false
}

// customTypes merges the workspace function blocks with those of this
// document; the document wins.
func (d *document) customTypes() map[string]*symbols.Symbol {
	out := make(map[string]*symbols.Symbol)
	if d.index != nil {
		for k, v := range d.index.FunctionBlocks() {
			out[k] = v
		}
	}
	for k, v := range symbols.FunctionBlocks(d.syms) {
		out[k] = v
	}
	return out
}

// memberAccess returns the member access under pos, if any.
func (d *document) memberAccess(pos protocol.Position) (analysis.MemberAccessExpression, analysis.AccessPart, bool) {
	return analysis.MemberAccessAt(d.text, pos)
}

func ptr[T any](v T) *T {
	return &v
}
