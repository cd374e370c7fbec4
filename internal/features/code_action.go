package features

import (
	"fmt"
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-st-lsp/internal/analysis"
	"github.com/CWBudde/go-st-lsp/internal/scanner"
	"github.com/CWBudde/go-st-lsp/internal/symbols"
)

const declarationIndent = "    "

// CodeActions returns the quick fixes for diagnostics. Fixes are chosen by
// the shape of the diagnostic message, then by its code. Every fix is the
// preferred action for the single diagnostic it carries.
func CodeActions(uri protocol.DocumentUri, text string, diagnostics []protocol.Diagnostic) []protocol.CodeAction {
	doc := load(uri, text, nil)
	actions := []protocol.CodeAction{}
	for _, d := range diagnostics {
		title, edit, ok := doc.quickFix(d)
		if !ok {
			continue
		}
		kind := protocol.CodeActionKindQuickFix
		preferred := true
		actions = append(actions, protocol.CodeAction{
			Title:       title,
			Kind:        &kind,
			Diagnostics: []protocol.Diagnostic{d},
			IsPreferred: &preferred,
			Edit: &protocol.WorkspaceEdit{
				Changes: map[protocol.DocumentUri][]protocol.TextEdit{uri: {edit}},
			},
		})
	}
	return actions
}

func (d *document) quickFix(diag protocol.Diagnostic) (string, protocol.TextEdit, bool) {
	finding := analysis.Classify(diag)
	r := diag.Range

	switch finding.Category {
	case analysis.CategoryMissingCloser:
		closer := finding.Arg(0)
		if closer == "" {
			return "", protocol.TextEdit{}, false
		}
		return "Insert " + closer, d.insertCloser(int(r.Start.Line), closer), true

	case analysis.CategoryUnmatchedCloser:
		return "Remove unmatched " + finding.Arg(0), d.removeCloser(r), true

	case analysis.CategoryUnclosedString:
		quote := "'"
		if finding.Arg(0) == "double" {
			quote = `"`
		}
		return "Close string literal", insertAt(d.stringCloseAt(r), quote), true

	case analysis.CategoryUnmatchedOpenParen:
		count := 1
		if _, err := fmt.Sscanf(finding.Arg(0), "%d", &count); err != nil || count < 1 {
			count = 1
		}
		title := "Insert closing parenthesis"
		if count > 1 {
			title = fmt.Sprintf("Insert %d closing parentheses", count)
		}
		return title, insertAt(r.End, strings.Repeat(")", count)), true

	case analysis.CategoryUnmatchedCloseParen:
		return "Remove unmatched closing parenthesis", protocol.TextEdit{Range: r, NewText: ""}, true

	case analysis.CategoryMissingKeyword:
		keyword := finding.Arg(0)
		if keyword == "" {
			return "", protocol.TextEdit{}, false
		}
		return "Insert " + keyword, insertAt(r.End, " "+keyword), true

	case analysis.CategoryDeprecatedSyntax:
		replacement := finding.Arg(0)
		if replacement == "" {
			return "", protocol.TextEdit{}, false
		}
		return "Replace with " + replacement, protocol.TextEdit{Range: r, NewText: replacement}, true

	case analysis.CategoryMissingSemicolon:
		return "Insert semicolon", insertAt(r.End, ";"), true

	case analysis.CategoryUndefinedIdentifier:
		name := finding.Arg(0)
		if suggestion := finding.Arg(1); suggestion != "" {
			return "Replace with '" + suggestion + "'", protocol.TextEdit{Range: r, NewText: suggestion}, true
		}
		if name == "" {
			name = d.textIn(r)
		}
		edit, ok := d.declareVariable(name, int(r.Start.Line))
		return "Declare '" + name + "' as INT", edit, ok

	case analysis.CategoryUnusedVariable:
		name := finding.Arg(0)
		edit, ok := d.removeDeclaration(name, int(r.Start.Line))
		return "Remove unused variable '" + name + "'", edit, ok

	case analysis.CategoryDuplicateDeclaration, analysis.CategoryTypeMismatch, analysis.CategoryUnknown:
		return "", protocol.TextEdit{}, false

	default:
		return "", protocol.TextEdit{}, false
	}
}

func insertAt(pos protocol.Position, text string) protocol.TextEdit {
	return protocol.TextEdit{Range: protocol.Range{Start: pos, End: pos}, NewText: text}
}

func lineStart(line int) protocol.Position {
	return protocol.Position{Line: protocol.UInteger(line)}
}

func (d *document) textIn(r protocol.Range) string {
	line := int(r.Start.Line)
	if line >= len(d.lines) || r.End.Line != r.Start.Line {
		return ""
	}
	start := scanner.ByteColumn(d.lines[line], int(r.Start.Character))
	end := scanner.ByteColumn(d.lines[line], int(r.End.Character))
	return d.lines[line][start:end]
}

// firstWord returns the upper-cased first code token of a line.
func (d *document) firstWord(line int) string {
	toks := scanner.Tokenize(d.masked[line])
	if len(toks) == 0 {
		return ""
	}
	return toks[0].Upper()
}

func (d *document) blank(line int) bool {
	return strings.TrimSpace(d.masked[line]) == ""
}

// endOfDocument returns the insertion point at the end of the text and the
// prefix needed to start a fresh line there.
func (d *document) endOfDocument() (protocol.Position, string) {
	last := len(d.lines) - 1
	pos := scanner.Pos(d.lines, last, len(d.lines[last]))
	if d.lines[last] == "" {
		return pos, ""
	}
	return pos, "\n"
}

// insertCloser adds closer for the block opened on openerLine, reproducing
// the opener's indentation. Top-level units are closed just before the next
// unit. Other blocks are closed before the first following line indented no
// deeper than the opener that does not continue the block. Otherwise the
// closer goes at the end of the document.
func (d *document) insertCloser(openerLine int, closer string) protocol.TextEdit {
	if openerLine >= len(d.lines) {
		openerLine = len(d.lines) - 1
	}
	indent := scanner.LeadingIndent(d.lines[openerLine])
	opener, _ := analysis.OpenerFor(closer)
	text := indent + closer
	if analysis.IsControlOpener(opener) {
		text += ";"
	}

	topLevel := false
	for _, u := range analysis.UnitOpeners {
		if u == opener {
			topLevel = true
		}
	}

	target := -1
	for ln := openerLine + 1; ln < len(d.lines) && target < 0; ln++ {
		if d.blank(ln) {
			continue
		}
		first := d.firstWord(ln)
		if topLevel {
			for _, u := range analysis.UnitOpeners {
				if first == u {
					target = ln
				}
			}
			continue
		}
		if len(scanner.LeadingIndent(d.lines[ln])) <= len(indent) && !analysis.IsMidBlockKeyword(first) {
			target = ln
		}
	}

	if target < 0 {
		pos, prefix := d.endOfDocument()
		return insertAt(pos, prefix+text+"\n")
	}
	if topLevel {
		for target-1 > openerLine && d.blank(target-1) {
			target--
		}
	}
	return insertAt(lineStart(target), text+"\n")
}

// removeCloser deletes an orphaned closer, taking the whole line when the
// closer is all it holds.
func (d *document) removeCloser(r protocol.Range) protocol.TextEdit {
	line := int(r.Start.Line)
	if line < len(d.lines) {
		content := strings.TrimSuffix(strings.TrimSpace(d.masked[line]), ";")
		if strings.EqualFold(strings.TrimSpace(content), d.textIn(r)) {
			return protocol.TextEdit{Range: d.wholeLine(line), NewText: ""}
		}
	}
	return protocol.TextEdit{Range: r, NewText: ""}
}

// wholeLine covers a line including its line break.
func (d *document) wholeLine(line int) protocol.Range {
	if line+1 < len(d.lines) {
		return protocol.Range{Start: lineStart(line), End: lineStart(line + 1)}
	}
	return protocol.Range{
		Start: lineStart(line),
		End:   scanner.Pos(d.lines, line, len(d.lines[line])),
	}
}

// stringCloseAt places the closing quote of an unterminated string before a
// trailing semicolon, or at the end of the line.
func (d *document) stringCloseAt(r protocol.Range) protocol.Position {
	line := int(r.Start.Line)
	if line >= len(d.lines) {
		return r.End
	}
	text := d.lines[line]
	start := scanner.ByteColumn(text, int(r.Start.Character))
	trimmed := strings.TrimRight(text, " \t")
	end := len(trimmed)
	if end > start+1 && trimmed[end-1] == ';' {
		end--
	}
	return scanner.Pos(d.lines, line, end)
}

// declareVariable inserts `name : INT;` into the first VAR section of the
// unit enclosing line, creating the section when the unit has none.
func (d *document) declareVariable(name string, line int) (protocol.TextEdit, bool) {
	if name == "" {
		return protocol.TextEdit{}, false
	}
	unit := symbols.UnitAt(d.syms, line)
	if unit == nil {
		return protocol.TextEdit{}, false
	}
	first := int(unit.FullRange.Start.Line)
	last := int(unit.FullRange.End.Line)
	decl := name + " : INT;"

	for ln := first + 1; ln <= last && ln < len(d.lines); ln++ {
		if d.firstWord(ln) != "VAR" {
			continue
		}
		indent := scanner.LeadingIndent(d.lines[ln]) + declarationIndent
		if next := ln + 1; next < len(d.lines) && !d.blank(next) && d.firstWord(next) != "END_VAR" {
			indent = scanner.LeadingIndent(d.lines[next])
		}
		return insertAt(lineStart(ln+1), indent+decl+"\n"), true
	}

	indent := scanner.LeadingIndent(d.lines[first])
	section := indent + "VAR\n" + indent + declarationIndent + decl + "\n" + indent + "END_VAR\n"
	return insertAt(lineStart(first+1), section), true
}

// removeDeclaration deletes the line declaring name when that line declares
// nothing else.
func (d *document) removeDeclaration(name string, line int) (protocol.TextEdit, bool) {
	if name == "" || line >= len(d.lines) {
		return protocol.TextEdit{}, false
	}
	toks := scanner.Tokenize(d.masked[line])
	colon, semicolons := -1, 0
	for i, t := range toks {
		switch {
		case t.Text == ":" && colon < 0:
			colon = i
		case t.Text == ";":
			semicolons++
		}
	}
	if colon != 1 || !strings.EqualFold(toks[0].Text, name) {
		return protocol.TextEdit{}, false
	}
	if semicolons != 1 || toks[len(toks)-1].Text != ";" {
		return protocol.TextEdit{}, false
	}
	return protocol.TextEdit{Range: d.wholeLine(line), NewText: ""}, true
}
