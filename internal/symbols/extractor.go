package symbols

import (
	"regexp"
	"strings"

	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-st-lsp/internal/builtins"
	"github.com/CWBudde/go-st-lsp/internal/scanner"
)

var log = commonlog.GetLogger("st-lsp.symbols")

// varSections maps section keywords to the scope of their declarations.
var varSections = map[string]Scope{
	"VAR":          ScopeLocal,
	"VAR_TEMP":     ScopeLocal,
	"VAR_STAT":     ScopeLocal,
	"VAR_INST":     ScopeLocal,
	"VAR_INPUT":    ScopeInput,
	"VAR_OUTPUT":   ScopeOutput,
	"VAR_IN_OUT":   ScopeInOut,
	"VAR_GLOBAL":   ScopeGlobal,
	"VAR_EXTERNAL": ScopeLocal,
}

var sectionQualifiers = map[string]bool{
	"CONSTANT": true, "RETAIN": true, "NON_RETAIN": true, "PERSISTENT": true,
}

var unitKeywords = map[string]Kind{
	"PROGRAM":        KindProgram,
	"FUNCTION":       KindFunction,
	"FUNCTION_BLOCK": KindFunctionBlock,
}

// nestedBodies are constructs inside a function block whose sections do not
// belong to the function block itself.
var nestedBodies = map[string]string{
	"METHOD":   "END_METHOD",
	"PROPERTY": "END_PROPERTY",
	"ACTION":   "END_ACTION",
}

var unitModifiers = map[string]bool{
	"PUBLIC": true, "PRIVATE": true, "PROTECTED": true, "INTERNAL": true,
	"ABSTRACT": true, "FINAL": true,
}

// IsSectionKeyword reports whether word opens a VAR-style section.
func IsSectionKeyword(word string) bool {
	_, ok := varSections[strings.ToUpper(word)]
	return ok
}

// tok is a token of the masked document with its line number.
type tok struct {
	scanner.Token
	line       int
	firstOnLn  bool
	upperCache string
}

func (t *tok) upper() string {
	if t.upperCache == "" {
		t.upperCache = strings.ToUpper(t.Text)
	}
	return t.upperCache
}

// source is a document prepared for extraction.
type source struct {
	uri      protocol.DocumentUri
	scan     *scanner.Result
	lines    []string
	starts   []int
	toks     []tok
	comments map[int]commentInfo
	types    map[string]bool
}

type commentInfo struct {
	col  int
	text string
	full bool
}

func newSource(uri protocol.DocumentUri, text string) *source {
	src := &source{
		uri:      uri,
		scan:     scanner.Scan(text),
		comments: make(map[int]commentInfo),
	}
	src.lines = src.scan.Lines()
	src.starts = src.scan.LineStarts()

	for i, ml := range src.scan.MaskedLines() {
		first := true
		for _, t := range scanner.Tokenize(ml) {
			src.toks = append(src.toks, tok{Token: t, line: i, firstOnLn: first})
			first = false
		}
	}

	for _, r := range src.scan.Regions {
		if !r.IsComment() || r.Kind == scanner.RegionPragma {
			continue
		}
		pos := scanner.OffsetToPosition(text, src.starts, r.Start)
		line := int(pos.Line)
		if _, exists := src.comments[line]; exists {
			continue
		}
		col := r.Start - src.starts[line]
		full := strings.TrimSpace(src.lines[line][:col]) == ""
		src.comments[line] = commentInfo{col: col, text: commentText(text[r.Start:r.End]), full: full}
	}

	src.types = make(map[string]bool)
	for _, name := range src.typeNames() {
		src.types[Normalize(name)] = true
	}
	return src
}

var commentMarkers = regexp.MustCompile(`^\s*(//|\(\*)\s*|\s*\*\)\s*$`)

func commentText(raw string) string {
	text := commentMarkers.ReplaceAllString(raw, "")
	return strings.Join(strings.Fields(text), " ")
}

// Extract builds the symbol table of one document. The result holds the
// top-level units followed by their members, then top-level globals. Each
// extraction phase is isolated: a failure in one phase is logged and yields
// no symbols for that phase only.
func Extract(uri protocol.DocumentUri, text string) []*Symbol {
	var src *source
	if !safePhase("prepare", func() { src = newSource(uri, text) }) {
		return nil
	}

	var result []*Symbol
	for _, phase := range []struct {
		name string
		kind Kind
	}{
		{"programs", KindProgram},
		{"functions", KindFunction},
		{"function blocks", KindFunctionBlock},
	} {
		var units []*Symbol
		if safePhase(phase.name, func() { units = src.extractUnits(phase.kind) }) {
			for _, u := range units {
				result = append(result, u)
				result = append(result, u.Members...)
			}
		}
	}

	var globals []*Symbol
	if safePhase("globals", func() { globals = src.extractGlobals() }) {
		result = append(result, globals...)
	}

	sortByPosition(result)
	return result
}

func safePhase(name string, fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Warningf("symbol extraction phase %q failed: %v", name, r)
			ok = false
		}
	}()
	fn()
	return true
}

// unitSpan is the token range of one unit from its opener to its closer.
type unitSpan struct {
	kind   Kind
	opener int
	closer int
	closed bool
}

// findUnits locates all units of the given kind. A nil kind filter returns
// units of every kind.
func (src *source) findUnits(filter func(Kind) bool) []unitSpan {
	var spans []unitSpan
	for i := range src.toks {
		t := &src.toks[i]
		if !t.firstOnLn {
			continue
		}
		kind, ok := unitKeywords[t.upper()]
		if !ok || (filter != nil && !filter(kind)) {
			continue
		}
		end, found := src.findEndKeyword(i, kind.Keyword(), "END_"+kind.Keyword())
		spans = append(spans, unitSpan{kind: kind, opener: i, closer: end, closed: found})
	}
	return spans
}

// findEndKeyword returns the token index of the closer matching the opener
// at token index from. Inner openers of the same keyword increase the depth.
// A different unit opener at the start of a line ends the unit just before
// it. Without a closer the unit runs to the end of the document.
func (src *source) findEndKeyword(from int, opener, closer string) (int, bool) {
	depth := 0
	for i := from; i < len(src.toks); i++ {
		t := &src.toks[i]
		word := t.upper()
		switch {
		case word == opener && t.firstOnLn:
			depth++
		case word == closer:
			depth--
			if depth == 0 {
				return i, true
			}
		case i > from && t.firstOnLn && depth == 1:
			if _, ok := unitKeywords[word]; ok {
				return i - 1, false
			}
		}
	}
	return len(src.toks) - 1, false
}

func (src *source) extractUnits(kind Kind) []*Symbol {
	var units []*Symbol
	for _, span := range src.findUnits(func(k Kind) bool { return k == kind }) {
		if u := src.buildUnit(span); u != nil {
			units = append(units, u)
		}
	}
	return units
}

func (src *source) buildUnit(span unitSpan) *Symbol {
	i := span.opener + 1
	openerLine := src.toks[span.opener].line
	for i < len(src.toks) && src.toks[i].line == openerLine && unitModifiers[src.toks[i].upper()] {
		i++
	}
	if i >= len(src.toks) || src.toks[i].line != openerLine || src.toks[i].Kind != scanner.TokIdent {
		return nil
	}
	nameTok := &src.toks[i]

	unit := &Symbol{
		Name:           nameTok.Text,
		NormalizedName: Normalize(nameTok.Text),
		Kind:           span.kind,
		Location:       src.location(nameTok.line, nameTok.Start, nameTok.End),
		FullRange:      src.spanRange(span.opener, span.closer),
	}
	switch span.kind {
	case KindProgram:
		unit.Scope = ScopeProgram
	case KindFunction:
		unit.Scope = ScopeFunction
		unit.ReturnType = src.returnType(i+1, openerLine)
		unit.DataType = unit.ReturnType
	case KindFunctionBlock:
		unit.Scope = ScopeFunctionBlock
		unit.DataType = unit.Name
	case KindVariable, KindParameter, KindConstant, KindFunctionBlockInstance:
		return nil
	}

	if c, ok := src.comments[openerLine]; ok && c.col > nameTok.End {
		unit.Description = c.text
	} else if c, ok := src.comments[openerLine-1]; ok && c.full {
		unit.Description = c.text
	}

	end := span.closer
	if !span.closed {
		end++
	}
	for _, decl := range src.parseSections(span.opener+1, end, true) {
		for _, m := range src.declare(decl, unit.Name) {
			unit.Members = append(unit.Members, m)
			if m.Kind == KindParameter {
				unit.Parameters = append(unit.Parameters, Parameter{
					Name:           m.Name,
					NormalizedName: m.NormalizedName,
					DataType:       m.DataType,
					Direction:      directionOf(m.Scope),
					DefaultValue:   m.InitialValue,
					Location:       m.Location,
				})
			}
		}
	}
	return unit
}

func (src *source) returnType(from, line int) string {
	if from >= len(src.toks) || src.toks[from].line != line || src.toks[from].Text != ":" {
		return ""
	}
	var parts []tok
	for i := from + 1; i < len(src.toks) && src.toks[i].line == line; i++ {
		if src.toks[i].Text == ";" {
			break
		}
		parts = append(parts, src.toks[i])
	}
	return joinTokens(parts)
}

// extractGlobals returns declarations of VAR-style sections that are not
// inside any unit, such as global variable lists.
func (src *source) extractGlobals() []*Symbol {
	spans := src.findUnits(nil)
	var globals []*Symbol
	from := 0
	flush := func(to int) {
		if to <= from {
			return
		}
		for _, decl := range src.parseSections(from, to, false) {
			globals = append(globals, src.declare(decl, "")...)
		}
	}
	for _, span := range spans {
		if span.opener < from {
			continue
		}
		flush(span.opener)
		from = span.closer + 1
	}
	flush(len(src.toks))
	return globals
}

// declaration is one `a, b : TYPE := init;` statement.
type declaration struct {
	section   string
	scope     Scope
	constant  bool
	names     []tok
	typeText  string
	initText  string
	first     int
	last      int
	semicolon int
}

// parseSections scans tokens in [from, to) for VAR-style sections and
// returns their declarations. Sections missing END_VAR end at the next
// section or unit keyword.
func (src *source) parseSections(from, to int, inUnit bool) []declaration {
	var decls []declaration
	i := from
	for i < to {
		word := src.toks[i].upper()
		if end, ok := nestedBodies[word]; ok && inUnit && src.toks[i].firstOnLn {
			i = src.skipTo(i+1, to, end) + 1
			continue
		}
		scope, ok := varSections[word]
		if !ok {
			i++
			continue
		}
		section := word
		i++
		constant := false
		for i < to && sectionQualifiers[src.toks[i].upper()] {
			if src.toks[i].upper() == "CONSTANT" {
				constant = true
			}
			i++
		}
		for i < to {
			w := src.toks[i].upper()
			if w == "END_VAR" {
				i++
				break
			}
			if _, isSection := varSections[w]; isSection {
				break
			}
			if _, isUnit := unitKeywords[w]; isUnit && src.toks[i].firstOnLn {
				break
			}
			next, decl, ok := src.parseDeclaration(i, to)
			if ok {
				decl.section = section
				decl.scope = scope
				decl.constant = constant
				decls = append(decls, decl)
			}
			i = next
		}
	}
	return decls
}

func (src *source) skipTo(from, to int, word string) int {
	for i := from; i < to; i++ {
		if src.toks[i].upper() == word {
			return i
		}
	}
	return to
}

// parseDeclaration accumulates tokens from start until a `;` at nesting
// depth zero, possibly across lines, and applies the declaration pattern.
// It returns the index after the statement.
func (src *source) parseDeclaration(start, to int) (int, declaration, bool) {
	depth := 0
	end := start
	semicolon := -1
	for end < to {
		t := &src.toks[end]
		switch t.Text {
		case "(", "[":
			depth++
		case ")", "]":
			depth--
		}
		if depth <= 0 && t.Text == ";" {
			semicolon = end
			break
		}
		w := t.upper()
		if w == "END_VAR" || (end > start && IsSectionKeyword(w)) {
			break
		}
		end++
	}
	next := end
	if semicolon >= 0 {
		next = semicolon + 1
	}
	if end == start {
		return max(next, start+1), declaration{}, false
	}

	stmt := src.toks[start:end]
	colon := -1
	for k := range stmt {
		if stmt[k].Text == ":" {
			colon = k
			break
		}
	}
	if colon <= 0 {
		return next, declaration{}, false
	}

	decl := declaration{first: start, last: end - 1, semicolon: semicolon}
	expectName := true
	for _, t := range stmt[:colon] {
		if strings.EqualFold(t.Text, "AT") {
			break
		}
		switch {
		case expectName && t.Kind == scanner.TokIdent:
			decl.names = append(decl.names, t)
			expectName = false
		case !expectName && t.Text == ",":
			expectName = true
		default:
			return next, declaration{}, false
		}
	}
	if len(decl.names) == 0 {
		return next, declaration{}, false
	}

	rest := stmt[colon+1:]
	typeEnd := len(rest)
	level := 0
	for k, t := range rest {
		switch t.Text {
		case "(", "[":
			level++
		case ")", "]":
			level--
		case ":=":
			if level == 0 && typeEnd == len(rest) {
				typeEnd = k
			}
		}
	}
	decl.typeText = joinTokens(rest[:typeEnd])
	if decl.typeText == "" {
		return next, declaration{}, false
	}
	if typeEnd < len(rest)-1 {
		decl.initText = src.originalText(rest[typeEnd+1], rest[len(rest)-1])
	}
	return next, decl, true
}

// declare turns a declaration into one symbol per declared name.
func (src *source) declare(decl declaration, parent string) []*Symbol {
	kind := src.classify(decl)
	literal := InferLiteralType(decl.initText, decl.typeText)

	description := ""
	endLine := src.toks[decl.last].line
	endCol := src.toks[decl.last].End
	if decl.semicolon >= 0 {
		endLine = src.toks[decl.semicolon].line
		endCol = src.toks[decl.semicolon].End
	}
	if c, ok := src.comments[endLine]; ok && c.col >= endCol {
		description = c.text
	}

	full := protocol.Range{
		Start: scanner.Pos(src.lines, src.toks[decl.first].line, src.toks[decl.first].Start),
		End:   scanner.Pos(src.lines, endLine, endCol),
	}

	var out []*Symbol
	for _, n := range decl.names {
		out = append(out, &Symbol{
			Name:           n.Text,
			NormalizedName: Normalize(n.Text),
			Kind:           kind,
			Scope:          decl.scope,
			Location:       src.location(n.line, n.Start, n.End),
			FullRange:      full,
			DataType:       decl.typeText,
			LiteralType:    literal,
			InitialValue:   decl.initText,
			Description:    description,
			Section:        decl.section,
			ParentSymbol:   parent,
		})
	}
	return out
}

func (src *source) classify(decl declaration) Kind {
	switch decl.scope {
	case ScopeInput, ScopeOutput, ScopeInOut:
		return KindParameter
	case ScopeGlobal, ScopeLocal, ScopeFunction, ScopeFunctionBlock, ScopeProgram:
	}
	if decl.constant {
		return KindConstant
	}
	return ClassifyType(decl.typeText, src.types)
}

// ClassifyType decides whether a variable of the given type is a plain
// variable or a function block instance. A type is known when it is
// elementary, generic, a standard function block type or named in
// localTypes (TYPE declarations of the same document); known types, arrays,
// pointers, references and bounded strings are variables. Only unknown types
// make an instance.
func ClassifyType(typeText string, localTypes map[string]bool) Kind {
	upper := strings.ToUpper(strings.TrimSpace(typeText))
	for _, prefix := range []string{"ARRAY", "POINTER", "REFERENCE", "REF_TO"} {
		if strings.HasPrefix(upper, prefix) {
			return KindVariable
		}
	}
	base := upper
	if i := strings.IndexAny(base, "[( "); i > 0 {
		base = base[:i]
	}
	if builtins.IsKnownType(base) || localTypes[strings.ToLower(base)] {
		return KindVariable
	}
	return KindFunctionBlockInstance
}

func directionOf(scope Scope) Direction {
	switch scope {
	case ScopeOutput:
		return DirectionOutput
	case ScopeInOut:
		return DirectionInOut
	case ScopeInput, ScopeGlobal, ScopeLocal, ScopeFunction, ScopeFunctionBlock, ScopeProgram:
		return DirectionInput
	default:
		return DirectionInput
	}
}

var lineBreaks = regexp.MustCompile(`\s*\r?\n\s*`)

// originalText returns the source text from the start of a to the end of b
// with line breaks collapsed to single spaces.
func (src *source) originalText(a, b tok) string {
	start := src.starts[a.line] + a.Start
	end := src.starts[b.line] + b.End
	if end <= start || end > len(src.scan.Text) {
		return ""
	}
	return lineBreaks.ReplaceAllString(src.scan.Text[start:end], " ")
}

// joinTokens renders a token sequence compactly: a word is separated by a
// space from a preceding word or closing bracket, nothing else is spaced.
func joinTokens(ts []tok) string {
	var b strings.Builder
	for k, t := range ts {
		if k > 0 && isWordish(t) && (isWordish(ts[k-1]) || ts[k-1].Text == "]" || ts[k-1].Text == ")") {
			b.WriteByte(' ')
		}
		b.WriteString(t.Text)
	}
	return b.String()
}

func isWordish(t tok) bool {
	switch t.Kind {
	case scanner.TokIdent, scanner.TokNumber, scanner.TokTypedLiteral, scanner.TokString:
		return true
	case scanner.TokOperator, scanner.TokPunct:
		return false
	default:
		return false
	}
}

func (src *source) location(line, start, end int) protocol.Location {
	return protocol.Location{URI: src.uri, Range: scanner.Range(src.lines, line, start, end)}
}

func (src *source) spanRange(from, to int) protocol.Range {
	if to < from {
		to = from
	}
	a, b := src.toks[from], src.toks[to]
	return protocol.Range{
		Start: scanner.Pos(src.lines, a.line, a.Start),
		End:   scanner.Pos(src.lines, b.line, b.End),
	}
}
