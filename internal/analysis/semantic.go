package analysis

import (
	"sort"
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-st-lsp/internal/builtins"
	"github.com/CWBudde/go-st-lsp/internal/scanner"
	"github.com/CWBudde/go-st-lsp/internal/symbols"
)

// SuggestionDistance is the largest edit distance at which an in-scope name
// is offered as a replacement for an undefined identifier.
const SuggestionDistance = 2

// tokenClass says where a token sits in the document structure.
type tokenClass int

const (
	classBody tokenClass = iota
	classDeclaration
	classHeader
	classNested
	classConfiguration
)

// layout classifies every token and records the parenthesis depth at which
// each token and line starts.
type layout struct {
	class      []tokenClass
	parenDepth []int
	lineDepth  []int
}

var unitHeaders = map[string]bool{
	"PROGRAM": true, "FUNCTION": true, "FUNCTION_BLOCK": true, "INTERFACE": true,
	"METHOD": true, "ACTION": true, "PROPERTY": true,
}

var nestedUnits = map[string]string{
	"METHOD":   "END_METHOD",
	"ACTION":   "END_ACTION",
	"PROPERTY": "END_PROPERTY",
}

func (e *engine) layout() layout {
	toks := e.s.toks
	l := layout{
		class:      make([]tokenClass, len(toks)),
		parenDepth: make([]int, len(toks)),
		lineDepth:  make([]int, len(e.s.masked)),
	}

	declDepth := 0
	configDepth := 0
	nestedDepth := 0
	headerLine := -1
	parens := 0
	lastLine := -1

	for i, t := range toks {
		for ln := lastLine + 1; ln <= t.line; ln++ {
			l.lineDepth[ln] = parens
		}
		lastLine = t.line

		if t.Kind == scanner.TokIdent {
			switch {
			case t.upper == "CONFIGURATION":
				configDepth++
			case t.upper == "END_CONFIGURATION" && configDepth > 0:
				configDepth--
			case t.upper == "TYPE" || strings.HasPrefix(t.upper, "VAR") && symbols.IsSectionKeyword(t.upper):
				declDepth++
			case (t.upper == "END_TYPE" || t.upper == "END_VAR") && declDepth > 0:
				declDepth--
				l.class[i] = classDeclaration
				l.parenDepth[i] = parens
				continue
			}
			if _, nested := nestedUnits[t.upper]; nested && e.s.startsLine(i) {
				nestedDepth++
			}
			if unitHeaders[t.upper] && e.s.startsLine(i) {
				headerLine = t.line
			}
		}

		l.parenDepth[i] = parens
		switch {
		case configDepth > 0:
			l.class[i] = classConfiguration
		case t.line == headerLine:
			l.class[i] = classHeader
		case declDepth > 0:
			l.class[i] = classDeclaration
		case nestedDepth > 0:
			l.class[i] = classNested
		default:
			l.class[i] = classBody
		}

		if t.Kind == scanner.TokIdent {
			for _, closer := range nestedUnits {
				if t.upper == closer && nestedDepth > 0 {
					nestedDepth--
				}
			}
		}

		switch t.Text {
		case "(":
			parens++
		case ")":
			if parens > 0 {
				parens--
			}
		case ";":
			parens = 0
		}
	}
	for ln := lastLine + 1; ln < len(l.lineDepth); ln++ {
		l.lineDepth[ln] = parens
	}
	return l
}

func (e *engine) semantic() {
	l := e.layout()
	if e.opts.MissingSemicolon {
		e.run("missing-semicolon", func() { e.checkMissingSemicolons(l) })
	}
	e.run("duplicates", e.checkDuplicates)
	if e.opts.UndefinedIdentifiers {
		e.run("undefined", func() { e.checkUndefined(l) })
	}
	if e.opts.UnusedVariables {
		e.run("unused", e.checkUnused)
	}
	if e.opts.TypeMismatch {
		e.run("type-mismatch", func() { e.checkTypeMismatch(l) })
	}
}

// continuationEnd lists line endings after which a statement continues.
var continuationEnd = map[string]bool{
	",": true, "(": true, "[": true, ":": true, ":=": true, "..": true, "=>": true,
	"AND": true, "OR": true, "XOR": true, "NOT": true, "MOD": true,
	"THEN": true, "DO": true, "OF": true, "ELSE": true, "TO": true, "BY": true,
	"AND_THEN": true, "OR_ELSE": true,
}

// continuationStart lists line beginnings that continue the previous line.
var continuationStart = map[string]bool{
	")": true, "]": true, ",": true, ".": true, ":=": true, ";": true, "[": true,
	"AND": true, "OR": true, "XOR": true, "MOD": true,
	"THEN": true, "DO": true, "OF": true, "TO": true, "BY": true,
	"AND_THEN": true, "OR_ELSE": true,
}

func (e *engine) lineTokens(line int) []token {
	first := e.s.firstTok[line]
	if first < 0 {
		return nil
	}
	end := first
	for end < len(e.s.toks) && e.s.toks[end].line == line {
		end++
	}
	return e.s.toks[first:end]
}

func (e *engine) nextCodeLine(line int) []token {
	for ln := line + 1; ln < len(e.s.masked); ln++ {
		if toks := e.lineTokens(ln); len(toks) > 0 {
			return toks
		}
	}
	return nil
}

func (e *engine) checkMissingSemicolons(l layout) {
	for line := range e.s.masked {
		toks := e.lineTokens(line)
		if len(toks) == 0 {
			continue
		}
		first := e.s.firstTok[line]
		class := l.class[first]
		if class != classBody && class != classDeclaration {
			continue
		}
		last := toks[len(toks)-1]
		if last.Text == ";" || l.lineDepth[line] > 0 {
			continue
		}
		if continuationEnd[last.upper] || last.Kind == scanner.TokOperator {
			continue
		}
		if next := e.nextCodeLine(line); len(next) > 0 {
			if continuationStart[next[0].upper] || next[0].Kind == scanner.TokOperator {
				continue
			}
		}

		balanced := 0
		hasKeyword := false
		hasColon := false
		for _, t := range toks {
			switch t.Text {
			case "(", "[":
				balanced++
			case ")", "]":
				balanced--
			case ":":
				hasColon = true
			}
			if t.Kind == scanner.TokIdent && builtins.IsKeyword(t.upper) && !isOperatorKeyword(t.upper) && t.upper != "TRUE" && t.upper != "FALSE" {
				hasKeyword = true
			}
		}
		if balanced != 0 || hasKeyword {
			continue
		}
		if class == classDeclaration && !hasColon {
			continue
		}
		if class == classBody && hasColon {
			// CASE labels
			continue
		}
		e.add(CategoryMissingSemicolon, e.s.rangeOf(last), missingSemicolonMessage)
	}
}

func isOperatorKeyword(word string) bool {
	switch word {
	case "AND", "OR", "XOR", "NOT", "MOD", "AND_THEN", "OR_ELSE":
		return true
	}
	return false
}

func (e *engine) checkDuplicates() {
	report := func(group []*symbols.Symbol) {
		seen := make(map[string]bool, len(group))
		for _, s := range group {
			if seen[s.NormalizedName] {
				e.addAt(CategoryDuplicateDeclaration, s.Location.Range, duplicateMessage(s.Name))
				continue
			}
			seen[s.NormalizedName] = true
		}
	}

	var top []*symbols.Symbol
	for _, s := range e.syms {
		if s.Kind.IsUnit() {
			report(s.Members)
		}
		if s.Kind.IsUnit() || s.ParentSymbol == "" {
			top = append(top, s)
		}
	}
	report(top)
}

// knownInDocument reports whether name is declared in the document at line
// or anywhere in the workspace.
func (e *engine) knownInDocument(name string, line int) bool {
	if symbols.Resolve(e.syms, name, line) != nil {
		return true
	}
	for _, t := range e.types {
		if strings.EqualFold(t.Name, name) {
			return true
		}
		for _, v := range t.Values {
			if strings.EqualFold(v, name) {
				return true
			}
		}
	}
	return e.opts.IsKnown != nil && e.opts.IsKnown(name)
}

func (e *engine) checkUndefined(l layout) {
	toks := e.s.toks
	for i, t := range toks {
		if t.Kind != scanner.TokIdent || l.class[i] != classBody {
			continue
		}
		if builtins.IsReserved(t.upper) {
			continue
		}
		if i > 0 && (toks[i-1].Text == "." || toks[i-1].Text == "#") {
			continue
		}
		if i+1 < len(toks) {
			next := toks[i+1].Text
			if (next == ":=" || next == "=>") && l.parenDepth[i] > 0 {
				continue
			}
			if next == ":" {
				continue
			}
		}
		if e.knownInDocument(t.Text, t.line) {
			continue
		}
		e.add(CategoryUndefinedIdentifier, e.s.rangeOf(t), undefinedMessage(t.Text, e.suggest(t.Text, t.line)))
	}
}

// suggest returns the closest visible name within SuggestionDistance.
func (e *engine) suggest(name string, line int) string {
	type candidate struct {
		name string
		dist int
	}
	var candidates []candidate
	seen := make(map[string]bool)
	consider := func(n string) {
		key := strings.ToLower(n)
		if seen[key] {
			return
		}
		seen[key] = true
		if d := scanner.Levenshtein(name, n); d <= SuggestionDistance {
			candidates = append(candidates, candidate{n, d})
		}
	}
	for _, s := range symbols.Visible(e.syms, line) {
		consider(s.Name)
	}
	for _, t := range e.types {
		consider(t.Name)
	}
	if len(candidates) == 0 {
		return ""
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].dist != candidates[j].dist {
			return candidates[i].dist < candidates[j].dist
		}
		return candidates[i].name < candidates[j].name
	})
	return candidates[0].name
}

func (e *engine) checkUnused() {
	occurrences := make(map[string][]int)
	for _, t := range e.s.toks {
		if t.Kind == scanner.TokIdent {
			occurrences[t.upper] = append(occurrences[t.upper], t.line)
		}
	}

	units := make(map[string]*symbols.Symbol)
	for _, s := range e.syms {
		if s.Kind.IsUnit() {
			units[s.Name] = s
		}
	}

	for _, s := range e.syms {
		switch s.Kind {
		case symbols.KindVariable, symbols.KindConstant, symbols.KindFunctionBlockInstance:
		default:
			continue
		}
		if s.Scope != symbols.ScopeLocal && s.Scope != symbols.ScopeGlobal {
			continue
		}

		from, to := 0, len(e.s.masked)-1
		if unit, ok := units[s.ParentSymbol]; ok && s.Scope == symbols.ScopeLocal {
			from, to = int(unit.FullRange.Start.Line), int(unit.FullRange.End.Line)
		}
		declLine := int(s.Location.Range.Start.Line)

		used := false
		for _, line := range occurrences[strings.ToUpper(s.Name)] {
			if line != declLine && line >= from && line <= to {
				used = true
				break
			}
		}
		if used {
			continue
		}
		d := e.addAt(CategoryUnusedVariable, s.Location.Range, unusedMessage(s.Name))
		d.Tags = []protocol.DiagnosticTag{protocol.DiagnosticTagUnnecessary}
	}
}

func (e *engine) checkTypeMismatch(l layout) {
	for _, s := range e.syms {
		if s.InitialValue == "" || s.DataType == "" {
			continue
		}
		if lit := symbols.LiteralType(s.InitialValue); lit != "" && !Assignable(s.DataType, lit) {
			e.addAt(CategoryTypeMismatch, s.Location.Range, typeMismatchMessage(lit, s.DataType))
		}
	}

	toks := e.s.toks
	for i, t := range toks {
		if t.Kind != scanner.TokIdent || l.class[i] != classBody || l.parenDepth[i] > 0 {
			continue
		}
		if i+1 >= len(toks) || toks[i+1].Text != ":=" {
			continue
		}
		if i > 0 && (toks[i-1].Text == "." || toks[i-1].Text == "^" || toks[i-1].Text == "]") {
			continue
		}

		j := i + 2
		for j < len(toks) && toks[j].Text != ";" && !isStatementBoundary(toks[j]) {
			j++
		}
		rhs := toks[i+2 : j]
		literal := literalText(rhs)
		if literal == "" {
			continue
		}
		lit := symbols.LiteralType(literal)
		if lit == "" {
			continue
		}

		target := symbols.Resolve(e.syms, t.Text, t.line)
		if target == nil {
			continue
		}
		declared := target.DataType
		if target.Kind == symbols.KindFunction {
			declared = target.ReturnType
		}
		if declared == "" || Assignable(declared, lit) {
			continue
		}
		first, last := rhs[0], rhs[len(rhs)-1]
		e.add(CategoryTypeMismatch, rangeSpec{
			startLine: first.line, startCol: first.Start,
			endLine: last.line, endCol: last.End,
		}, typeMismatchMessage(lit, declared))
	}
}

// literalText returns the text of a right-hand side consisting of a single
// literal, optionally signed.
func literalText(rhs []token) string {
	switch {
	case len(rhs) == 1:
		t := rhs[0]
		switch t.Kind {
		case scanner.TokNumber, scanner.TokTypedLiteral, scanner.TokString:
			return t.Text
		case scanner.TokIdent:
			if t.upper == "TRUE" || t.upper == "FALSE" {
				return t.upper
			}
		}
	case len(rhs) == 2 && (rhs[0].Text == "-" || rhs[0].Text == "+") && rhs[1].Kind == scanner.TokNumber:
		return rhs[0].Text + rhs[1].Text
	}
	return ""
}

// Assignable reports whether a literal of type source may be assigned to a
// variable declared as target. Integers widen to reals; unknown types are
// always accepted.
func Assignable(target, source string) bool {
	tf := builtins.TypeFamily(target)
	sf := builtins.TypeFamily(source)
	if tf == builtins.FamilyUnknown || sf == builtins.FamilyUnknown {
		return true
	}
	if tf == sf {
		return true
	}
	return tf == builtins.FamilyReal && sf == builtins.FamilyInteger
}

func (e *engine) addAt(category Category, r protocol.Range, message string) *protocol.Diagnostic {
	severity := category.Severity()
	source := Source
	e.out = append(e.out, protocol.Diagnostic{
		Range:    r,
		Severity: &severity,
		Code:     &protocol.IntegerOrString{Value: category.Code()},
		Source:   &source,
		Message:  message,
	})
	return &e.out[len(e.out)-1]
}
