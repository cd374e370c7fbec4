// Package format implements the Structured Text formatter.
//
// Formatting is a single pass over the lines of a document. Indentation
// follows the same block keywords the structural diagnostics match; the
// content of each line is rebuilt from its tokens so comments and string
// literals are copied verbatim. The formatter never adds or removes lines,
// except for the optional final newline, which keeps range formatting a
// line-by-line comparison.
package format

import (
	"strings"
	"unicode/utf8"

	"github.com/tliron/commonlog"

	"github.com/CWBudde/go-st-lsp/internal/analysis"
	"github.com/CWBudde/go-st-lsp/internal/builtins"
	"github.com/CWBudde/go-st-lsp/internal/scanner"
)

var log = commonlog.GetLogger("st-lsp.format")

// KeywordCase selects how reserved keywords are written.
type KeywordCase string

const (
	KeywordCaseUpper    KeywordCase = "upper"
	KeywordCaseLower    KeywordCase = "lower"
	KeywordCasePreserve KeywordCase = "preserve"
)

// Valid reports whether k is one of the known keyword cases.
func (k KeywordCase) Valid() bool {
	switch k {
	case KeywordCaseUpper, KeywordCaseLower, KeywordCasePreserve:
		return true
	default:
		return false
	}
}

func (k KeywordCase) apply(word string) string {
	switch k {
	case KeywordCaseUpper:
		return strings.ToUpper(word)
	case KeywordCaseLower:
		return strings.ToLower(word)
	default:
		return word
	}
}

// Options controls the formatter.
type Options struct {
	KeywordCase KeywordCase

	// IndentSize is the number of spaces per level when InsertSpaces is set.
	IndentSize   int
	InsertSpaces bool

	// OperatorSpacing puts exactly one space around binary operators.
	OperatorSpacing bool

	// AlignVarBlocks aligns the colons of the declarations in each
	// VAR ... END_VAR section.
	AlignVarBlocks bool

	TrimTrailingWhitespace bool
	InsertFinalNewline     bool
}

// DefaultOptions returns the formatter defaults.
func DefaultOptions() Options {
	return Options{
		KeywordCase:            KeywordCaseUpper,
		IndentSize:             4,
		InsertSpaces:           true,
		OperatorSpacing:        true,
		AlignVarBlocks:         true,
		TrimTrailingWhitespace: true,
		InsertFinalNewline:     true,
	}
}

func (o Options) indent(depth int) string {
	if depth <= 0 {
		return ""
	}
	if !o.InsertSpaces {
		return strings.Repeat("\t", depth)
	}
	size := o.IndentSize
	if size <= 0 {
		size = 4
	}
	return strings.Repeat(" ", size*depth)
}

// Format returns text formatted according to opts. Formatting is
// idempotent: formatting the result again yields the same text.
func Format(text string, opts Options) string {
	eol := "\n"
	if strings.Contains(text, "\r\n") {
		eol = "\r\n"
	}
	out := strings.Join(formatLines(text, opts), eol)
	if opts.InsertFinalNewline && out != "" && !strings.HasSuffix(out, "\n") {
		out += eol
	}
	return out
}

// entry is an open block on the indentation stack.
type entry struct {
	word string
	id   int
}

// declLine is a declaration waiting for its section to be aligned.
type declLine struct {
	index    int
	indent   string
	content  string
	colon    int
	trailing string
}

type formatter struct {
	opts   Options
	stack  []entry
	nextID int
	out    []string

	group   []declLine
	groupID int
}

func formatLines(text string, opts Options) []string {
	scan := scanner.Scan(text)
	lines := scan.Lines()
	masked := scan.MaskedLines()
	starts := scan.LineStarts()

	f := &formatter{opts: opts, out: make([]string, 0, len(lines))}
	for i, line := range lines {
		if region, ok := scan.RegionAt(starts[i]); ok && region.Start < starts[i] {
			f.continuation(line, masked[i])
		} else {
			f.line(line, masked[i])
		}
		f.flushIfLeft()
	}
	f.flush()
	return f.out
}

// continuation keeps a line that starts inside a multi-line comment or
// string as it is.
func (f *formatter) continuation(line, masked string) {
	f.advance(scanner.Tokenize(masked), 0)
	if f.opts.TrimTrailingWhitespace {
		line = strings.TrimRight(line, " \t")
	}
	f.out = append(f.out, line)
}

func (f *formatter) line(line, masked string) {
	trimmedRight := strings.TrimRight(line, " \t")
	trailing := ""
	if !f.opts.TrimTrailingWhitespace {
		trailing = line[len(trimmedRight):]
	}
	lead := len(trimmedRight) - len(strings.TrimLeft(trimmedRight, " \t"))
	orig := trimmedRight[lead:]
	code := masked[lead:len(trimmedRight)]

	if orig == "" {
		f.out = append(f.out, trailing)
		return
	}

	toks := scanner.Tokenize(code)
	section, inSection := f.section()
	declaration := inSection && f.opts.AlignVarBlocks && isDeclaration(toks)

	depth, consumed := f.enter(toks)
	f.advance(toks, consumed)

	content, colon := f.rebuild(orig, toks, declaration)
	indent := f.opts.indent(depth)

	if declaration && colon >= 0 {
		if len(f.group) > 0 && f.groupID != section.id {
			f.flush()
		}
		f.groupID = section.id
		f.group = append(f.group, declLine{
			index:    len(f.out),
			indent:   indent,
			content:  content,
			colon:    colon,
			trailing: trailing,
		})
	}
	f.out = append(f.out, indent+content+trailing)
}

func isDeclaration(toks []scanner.Token) bool {
	if len(toks) < 2 || toks[0].Kind != scanner.TokIdent || builtins.IsKeyword(toks[0].Text) {
		return false
	}
	for _, t := range toks {
		switch t.Text {
		case ":":
			return true
		case ":=", ";":
			return false
		}
	}
	return false
}

// section returns the VAR-style section the next line belongs to.
func (f *formatter) section() (entry, bool) {
	if len(f.stack) == 0 {
		return entry{}, false
	}
	top := f.stack[len(f.stack)-1]
	return top, isSection(top.word)
}

func isSection(word string) bool {
	closer, ok := analysis.CloserFor(word)
	return ok && closer == "END_VAR"
}

// flushIfLeft aligns the pending declarations once their section is no
// longer the innermost open block.
func (f *formatter) flushIfLeft() {
	if len(f.group) == 0 {
		return
	}
	if top, ok := f.section(); !ok || top.id != f.groupID {
		f.flush()
	}
}

func (f *formatter) flush() {
	width := 0
	for _, d := range f.group {
		if w := utf8.RuneCountInString(strings.TrimRight(d.content[:d.colon], " \t")); w > width {
			width = w
		}
	}
	for _, d := range f.group {
		names := strings.TrimRight(d.content[:d.colon], " \t")
		rest := strings.TrimLeft(d.content[d.colon+1:], " \t")
		pad := strings.Repeat(" ", width-utf8.RuneCountInString(names))
		aligned := strings.TrimRight(names+pad+" : "+rest, " ")
		f.out[d.index] = d.indent + aligned + d.trailing
	}
	f.group = f.group[:0]
}

// closerAt recognizes a block closer at toks[i], including the two-token
// form `END IF`. It returns the closer and the number of tokens it spans.
func closerAt(toks []scanner.Token, i int) (string, int, bool) {
	if toks[i].Kind != scanner.TokIdent {
		return "", 0, false
	}
	word := toks[i].Upper()
	if analysis.IsBlockCloser(word) {
		return word, 1, true
	}
	if word == "END" && i+1 < len(toks) && toks[i+1].Kind == scanner.TokIdent {
		if closer, ok := analysis.CloserFor(toks[i+1].Upper()); ok {
			return closer, 2, true
		}
	}
	return "", 0, false
}

// opens reports whether the keyword at toks[i] starts a block. Unit
// keywords used as type names and program instances inside a resource do
// not.
func (f *formatter) opens(toks []scanner.Token, i int) bool {
	t := toks[i]
	if t.Kind != scanner.TokIdent {
		return false
	}
	word := t.Upper()
	if !analysis.IsBlockOpener(word) {
		return false
	}
	if i > 0 {
		prev := toks[i-1]
		if prev.Text == "." {
			return false
		}
		switch prev.Upper() {
		case ":", "OF", "TO":
			if analysis.IsUnitOpener(word) {
				return false
			}
		}
	}
	if word == "PROGRAM" && len(f.stack) > 0 {
		switch f.stack[len(f.stack)-1].word {
		case "RESOURCE", "CONFIGURATION":
			return false
		}
	}
	return true
}

// match returns the stack index of the innermost block closed by closer.
func (f *formatter) match(closer string) int {
	for j := len(f.stack) - 1; j >= 0; j-- {
		if c, _ := analysis.CloserFor(f.stack[j].word); c == closer {
			return j
		}
	}
	return -1
}

func (f *formatter) push(word string) {
	switch {
	case isSection(word):
		// Sections do not nest; a new one ends a section missing END_VAR.
		for len(f.stack) > 0 && isSection(f.stack[len(f.stack)-1].word) {
			f.stack = f.stack[:len(f.stack)-1]
		}
	case analysis.IsUnitOpener(word):
		for len(f.stack) > 0 && !analysis.IsUnitOpener(f.stack[len(f.stack)-1].word) {
			f.stack = f.stack[:len(f.stack)-1]
		}
	}
	f.nextID++
	f.stack = append(f.stack, entry{word: word, id: f.nextID})
}

// depth is the indentation of code inside the first n open blocks. Units
// do not indent their bodies.
func (f *formatter) depth(n int) int {
	d := 0
	for _, e := range f.stack[:n] {
		if !analysis.IsUnitOpener(e.word) {
			d++
		}
	}
	return d
}

// enter handles the leading keyword of a line, which decides the line's
// own depth: closers dedent before they are written, mid-block keywords sit
// at their opener's depth. It returns the depth and the tokens consumed.
func (f *formatter) enter(toks []scanner.Token) (int, int) {
	if len(toks) == 0 {
		return f.depth(len(f.stack)), 0
	}
	if closer, n, ok := closerAt(toks, 0); ok {
		if j := f.match(closer); j >= 0 {
			f.stack = f.stack[:j]
		}
		return f.depth(len(f.stack)), n
	}
	if analysis.IsMidBlockKeyword(toks[0].Upper()) {
		return f.depth(max(len(f.stack)-1, 0)), 1
	}
	if f.opens(toks, 0) {
		f.push(toks[0].Upper())
		return f.depth(len(f.stack) - 1), 1
	}
	return f.depth(len(f.stack)), 0
}

// advance applies the block keywords of toks[from:] to the stack.
func (f *formatter) advance(toks []scanner.Token, from int) {
	for i := from; i < len(toks); i++ {
		if closer, n, ok := closerAt(toks, i); ok {
			if j := f.match(closer); j >= 0 {
				f.stack = f.stack[:j]
			}
			i += n - 1
			continue
		}
		if f.opens(toks, i) {
			f.push(toks[i].Upper())
		}
	}
}

// rebuild writes the tokens of a trimmed line with normalized keyword case
// and operator spacing. Whitespace that holds a comment is kept as is. For
// declarations it also returns the offset of the first type colon, else -1.
// Type colons of further declarations on the same line get one space on
// each side.
func (f *formatter) rebuild(orig string, toks []scanner.Token, declaration bool) (string, int) {
	if len(toks) == 0 {
		return orig, -1
	}
	var b strings.Builder
	b.WriteString(orig[:toks[0].Start])
	colon := -1
	inName := declaration
	afterColon := false
	for i, t := range toks {
		typeColon := inName && t.Text == ":"
		if i > 0 {
			gap := f.gap(toks, i, orig[toks[i-1].End:t.Start])
			if (typeColon || afterColon) && strings.TrimSpace(gap) == "" {
				gap = " "
			}
			b.WriteString(gap)
		}
		afterColon = typeColon
		if typeColon {
			inName = false
			if colon < 0 {
				colon = b.Len()
			}
		}
		b.WriteString(f.tokenText(toks, i, orig))
		if declaration && t.Text == ";" {
			inName = true
		}
	}
	b.WriteString(orig[toks[len(toks)-1].End:])
	return b.String(), colon
}

func (f *formatter) tokenText(toks []scanner.Token, i int, orig string) string {
	t := toks[i]
	text := orig[t.Start:t.End]
	if t.Kind != scanner.TokIdent || f.opts.KeywordCase == KeywordCasePreserve {
		return text
	}
	if i > 0 && toks[i-1].Text == "." {
		return text
	}
	if builtins.IsKeyword(text) {
		return f.opts.KeywordCase.apply(text)
	}
	return text
}

// gap returns the whitespace to write between toks[i-1] and toks[i].
func (f *formatter) gap(toks []scanner.Token, i int, original string) string {
	if !f.opts.OperatorSpacing || strings.TrimSpace(original) != "" {
		return original
	}
	switch {
	case isUnary(toks, i-1):
		return ""
	case isBinary(toks, i-1), isBinary(toks, i):
		return " "
	default:
		return original
	}
}

func isBinary(toks []scanner.Token, i int) bool {
	return toks[i].Kind == scanner.TokOperator && !isUnary(toks, i)
}

// unaryContext lists the keywords after which a sign is unary.
var unaryContext = map[string]bool{
	"RETURN": true, "THEN": true, "ELSE": true, "DO": true, "OF": true,
	"TO": true, "BY": true, "AND": true, "OR": true, "XOR": true, "NOT": true,
	"MOD": true, "UNTIL": true, "AND_THEN": true, "OR_ELSE": true,
	"IF": true, "ELSIF": true, "WHILE": true, "CASE": true,
}

func isUnary(toks []scanner.Token, i int) bool {
	t := toks[i]
	if t.Kind != scanner.TokOperator {
		return false
	}
	switch t.Text {
	case "+", "-":
	case "*":
		// ARRAY[*]
		return i > 0 && (toks[i-1].Text == "[" || toks[i-1].Text == ",")
	default:
		return false
	}
	if i == 0 {
		return true
	}
	prev := toks[i-1]
	switch prev.Kind {
	case scanner.TokOperator:
		return true
	case scanner.TokPunct:
		return prev.Text != ")" && prev.Text != "]"
	case scanner.TokIdent:
		return unaryContext[prev.Upper()]
	default:
		return false
	}
}
