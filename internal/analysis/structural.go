package analysis

import (
	"strings"

	"github.com/CWBudde/go-st-lsp/internal/scanner"
)

type family int

const (
	familyUnit family = iota
	familyControl
	familyDeclaration
	familyCount
)

type blockKind struct {
	closer string
	family family
}

// blockOpeners maps each block-opening keyword to its closer.
var blockOpeners = map[string]blockKind{
	"PROGRAM":        {"END_PROGRAM", familyUnit},
	"FUNCTION":       {"END_FUNCTION", familyUnit},
	"FUNCTION_BLOCK": {"END_FUNCTION_BLOCK", familyUnit},
	"METHOD":         {"END_METHOD", familyUnit},
	"ACTION":         {"END_ACTION", familyUnit},
	"INTERFACE":      {"END_INTERFACE", familyUnit},
	"TYPE":           {"END_TYPE", familyUnit},
	"CONFIGURATION":  {"END_CONFIGURATION", familyUnit},
	"RESOURCE":       {"END_RESOURCE", familyUnit},

	"IF":     {"END_IF", familyControl},
	"FOR":    {"END_FOR", familyControl},
	"WHILE":  {"END_WHILE", familyControl},
	"REPEAT": {"END_REPEAT", familyControl},
	"CASE":   {"END_CASE", familyControl},

	"VAR":          {"END_VAR", familyDeclaration},
	"VAR_INPUT":    {"END_VAR", familyDeclaration},
	"VAR_OUTPUT":   {"END_VAR", familyDeclaration},
	"VAR_IN_OUT":   {"END_VAR", familyDeclaration},
	"VAR_GLOBAL":   {"END_VAR", familyDeclaration},
	"VAR_EXTERNAL": {"END_VAR", familyDeclaration},
	"VAR_TEMP":     {"END_VAR", familyDeclaration},
	"VAR_STAT":     {"END_VAR", familyDeclaration},
	"VAR_INST":     {"END_VAR", familyDeclaration},
	"VAR_CONFIG":   {"END_VAR", familyDeclaration},
	"VAR_ACCESS":   {"END_VAR", familyDeclaration},
	"STRUCT":       {"END_STRUCT", familyDeclaration},
	"UNION":        {"END_UNION", familyDeclaration},
}

// blockClosers maps each closer to its family and the opener named in
// diagnostics.
var blockClosers = map[string]struct {
	opener string
	family family
}{}

// UnitOpeners are the keywords that start a top-level declaration.
var UnitOpeners = []string{"PROGRAM", "FUNCTION", "FUNCTION_BLOCK", "TYPE", "INTERFACE", "CONFIGURATION"}

func init() {
	for opener, kind := range blockOpeners {
		if existing, ok := blockClosers[kind.closer]; ok && len(existing.opener) <= len(opener) {
			continue
		}
		blockClosers[kind.closer] = struct {
			opener string
			family family
		}{opener, kind.family}
	}
}

// IsBlockOpener reports whether word opens a block.
func IsBlockOpener(word string) bool {
	_, ok := blockOpeners[strings.ToUpper(word)]
	return ok
}

// IsBlockCloser reports whether word closes a block.
func IsBlockCloser(word string) bool {
	_, ok := blockClosers[strings.ToUpper(word)]
	return ok
}

// IsUnitOpener reports whether word opens a unit-level block: a PROGRAM,
// FUNCTION, FUNCTION_BLOCK, METHOD, ACTION, INTERFACE, TYPE, CONFIGURATION
// or RESOURCE.
func IsUnitOpener(word string) bool {
	kind, ok := blockOpeners[strings.ToUpper(word)]
	return ok && kind.family == familyUnit
}

// IsControlOpener reports whether word opens a control statement.
func IsControlOpener(word string) bool {
	kind, ok := blockOpeners[strings.ToUpper(word)]
	return ok && kind.family == familyControl
}

// CloserFor returns the closing keyword of a block opener.
func CloserFor(opener string) (string, bool) {
	kind, ok := blockOpeners[strings.ToUpper(opener)]
	return kind.closer, ok
}

// OpenerFor returns the opener named for a closing keyword.
func OpenerFor(closer string) (string, bool) {
	c, ok := blockClosers[strings.ToUpper(closer)]
	return c.opener, ok
}

// midBlockKeywords continue a block at its opener's depth.
var midBlockKeywords = map[string]bool{
	"ELSE": true, "ELSIF": true, "UNTIL": true,
}

// IsMidBlockKeyword reports whether word continues an open block.
func IsMidBlockKeyword(word string) bool {
	return midBlockKeywords[strings.ToUpper(word)]
}

// statementBoundaries end the search for a missing keyword or an unclosed
// parenthesis.
func isStatementBoundary(t token) bool {
	if t.Text == ";" {
		return true
	}
	if t.Kind != scanner.TokIdent {
		return false
	}
	if strings.HasPrefix(t.upper, "END_") || IsBlockOpener(t.upper) || midBlockKeywords[t.upper] {
		return true
	}
	switch t.upper {
	case "THEN", "DO", "OF", "RETURN", "EXIT", "CONTINUE":
		return true
	}
	return false
}

type openBlock struct {
	tok  token
	kind blockKind
	name string
	seq  int
}

// structural runs the block, string, parenthesis and keyword checks.
func (e *engine) structural() {
	e.run("blocks", e.checkBlocks)
	e.run("strings", e.checkStrings)
	e.run("parentheses", e.checkParentheses)
	e.run("keywords", e.checkMissingKeywords)
}

func (e *engine) checkBlocks() {
	var stacks [familyCount][]openBlock
	seq := 0

	reportMissing := func(b openBlock) {
		e.add(CategoryMissingCloser, e.s.rangeOf(b.tok), missingCloserMessage(b.kind.closer, b.tok.upper, b.name))
	}

	for i, t := range e.s.toks {
		if t.Kind != scanner.TokIdent {
			continue
		}

		if t.deprecated {
			opener, _ := OpenerFor(t.upper)
			e.add(CategoryDeprecatedSyntax, e.s.rangeOf(t), deprecatedMessage(t.upper, "END "+opener))
		}

		if kind, ok := blockOpeners[t.upper]; ok && !t.deprecated {
			if !e.opensBlock(i, stacks[familyUnit]) {
				continue
			}
			seq++
			b := openBlock{tok: t, kind: kind, seq: seq}
			if kind.family == familyUnit && i+1 < len(e.s.toks) && e.s.toks[i+1].line == t.line && e.s.toks[i+1].Kind == scanner.TokIdent {
				b.name = e.s.toks[i+1].Text
			}
			stacks[kind.family] = append(stacks[kind.family], b)
			continue
		}

		closer, ok := blockClosers[t.upper]
		if !ok {
			continue
		}
		stack := stacks[closer.family]
		match := -1
		for j := len(stack) - 1; j >= 0; j-- {
			if stack[j].kind.closer == t.upper {
				match = j
				break
			}
		}
		if match < 0 {
			e.add(CategoryUnmatchedCloser, e.s.rangeOf(t), unmatchedCloserMessage(t.upper, closer.opener))
			continue
		}
		for j := len(stack) - 1; j > match; j-- {
			reportMissing(stack[j])
		}
		closed := stack[match]
		stacks[closer.family] = stack[:match]

		// Closing a unit abandons control and declaration blocks opened
		// inside it.
		if closer.family == familyUnit {
			for f := familyControl; f < familyCount; f++ {
				st := stacks[f]
				for len(st) > 0 && st[len(st)-1].seq > closed.seq {
					reportMissing(st[len(st)-1])
					st = st[:len(st)-1]
				}
				stacks[f] = st
			}
		}
	}

	for f := range stacks {
		for _, b := range stacks[f] {
			reportMissing(b)
		}
	}
}

// opensBlock filters keyword uses that do not start a block: program
// instances inside resources, and FUNCTION/FUNCTION_BLOCK used as types.
func (e *engine) opensBlock(i int, units []openBlock) bool {
	t := e.s.toks[i]
	if t.upper == "PROGRAM" && len(units) > 0 {
		top := units[len(units)-1].tok.upper
		if top == "RESOURCE" || top == "CONFIGURATION" {
			return false
		}
	}
	if i > 0 && blockOpeners[t.upper].family == familyUnit {
		prev := e.s.toks[i-1]
		if prev.Text == ":" || prev.Text == "." || prev.upper == "OF" || prev.upper == "TO" {
			return false
		}
	}
	return true
}

func (e *engine) checkStrings() {
	for _, r := range e.s.scan.Regions {
		if r.Kind != scanner.RegionString || r.Terminated {
			continue
		}
		start := scanner.OffsetToPosition(e.s.scan.Text, e.starts, r.Start)
		line := int(start.Line)
		col := r.Start - e.starts[line]
		e.add(CategoryUnclosedString, rangeSpec{
			startLine: line, startCol: col,
			endLine: line, endCol: len(e.s.lines[line]),
		}, unclosedStringMessage(r.Quote))
	}
}

func (e *engine) checkParentheses() {
	var open []token
	var last *token

	flush := func() {
		if len(open) == 0 {
			return
		}
		first := open[0]
		end := rangeSpec{startLine: first.line, startCol: first.Start, endLine: first.line, endCol: first.End}
		if last != nil {
			end.endLine = last.line
			end.endCol = last.End
		}
		e.add(CategoryUnmatchedOpenParen, end, unmatchedOpenMessage(len(open)))
		open = open[:0]
	}

	for i := range e.s.toks {
		t := e.s.toks[i]
		if len(open) > 0 && (isStatementBoundary(t) || e.s.beginsStatement(i)) {
			flush()
		}
		switch t.Text {
		case "(":
			open = append(open, t)
		case ")":
			if len(open) == 0 {
				e.add(CategoryUnmatchedCloseParen, e.s.rangeOf(t), unmatchedCloseMessage)
			} else {
				open = open[:len(open)-1]
			}
		}
		if t.Text != ";" {
			last = &e.s.toks[i]
		}
	}
	flush()
}

type keywordRule struct {
	keyword string
	part    string
}

var requiredKeywords = map[string]keywordRule{
	"IF":    {"THEN", "condition"},
	"ELSIF": {"THEN", "condition"},
	"WHILE": {"DO", "condition"},
	"FOR":   {"DO", "header"},
	"CASE":  {"OF", "expression"},
}

func (e *engine) checkMissingKeywords() {
	toks := e.s.toks
	for i, t := range toks {
		if t.Kind != scanner.TokIdent || t.deprecated {
			continue
		}
		rule, ok := requiredKeywords[t.upper]
		if !ok {
			continue
		}
		last := t
		found := false
		for j := i + 1; j < len(toks); j++ {
			u := toks[j]
			if u.Kind == scanner.TokIdent && u.upper == rule.keyword {
				found = true
				break
			}
			if isStatementBoundary(u) || (u.line != t.line && e.s.beginsStatement(j)) {
				break
			}
			last = u
		}
		if found {
			continue
		}
		e.add(CategoryMissingKeyword, rangeSpec{
			startLine: t.line, startCol: t.Start,
			endLine: last.line, endCol: last.End,
		}, missingKeywordMessage(rule.keyword, t.upper, rule.part))
	}
}
