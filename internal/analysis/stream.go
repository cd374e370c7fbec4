package analysis

import (
	"strings"

	"github.com/CWBudde/go-st-lsp/internal/scanner"
)

// token is a code token of a masked document line.
type token struct {
	scanner.Token
	line  int
	upper string

	// deprecated marks a two-word closer such as `END IF` that was merged
	// into its single-token form.
	deprecated bool
	original   string
}

func (t token) is(words ...string) bool {
	for _, w := range words {
		if t.upper == w {
			return true
		}
	}
	return false
}

// stream is the tokenized, masked form of a document.
type stream struct {
	scan   *scanner.Result
	lines  []string
	masked []string
	toks   []token

	// firstTok holds the index of the first token of each line, or -1.
	firstTok []int
}

var twoWordClosers = map[string]bool{
	"IF": true, "FOR": true, "WHILE": true, "CASE": true, "REPEAT": true,
}

func newStream(text string) *stream {
	scan := scanner.Scan(text)
	s := &stream{
		scan:   scan,
		lines:  scan.Lines(),
		masked: scan.MaskedLines(),
	}
	s.firstTok = make([]int, len(s.masked))
	for i, line := range s.masked {
		s.firstTok[i] = -1
		raw := scanner.Tokenize(line)
		for j := 0; j < len(raw); j++ {
			t := token{Token: raw[j], line: i, upper: strings.ToUpper(raw[j].Text)}
			if t.Kind == scanner.TokIdent && t.upper == "END" && j+1 < len(raw) {
				next := raw[j+1]
				nextUpper := strings.ToUpper(next.Text)
				if next.Kind == scanner.TokIdent && twoWordClosers[nextUpper] {
					t.original = line[t.Start:next.End]
					t.upper = "END_" + nextUpper
					t.Text = t.upper
					t.End = next.End
					t.deprecated = true
					j++
				}
			}
			if s.firstTok[i] < 0 {
				s.firstTok[i] = len(s.toks)
			}
			s.toks = append(s.toks, t)
		}
	}
	return s
}

// startsLine reports whether toks[i] is the first token on its line.
func (s *stream) startsLine(i int) bool {
	return s.firstTok[s.toks[i].line] == i
}

// startsAssignment reports whether the line of toks[i] begins with
// `identifier :=`.
func (s *stream) startsAssignment(i int) bool {
	if !s.startsLine(i) || i+1 >= len(s.toks) {
		return false
	}
	return s.toks[i].Kind == scanner.TokIdent && s.toks[i+1].Text == ":=" && s.toks[i+1].line == s.toks[i].line
}

// beginsStatement reports whether toks[i] starts a new assignment statement
// rather than continuing an argument list or expression from the previous
// line.
func (s *stream) beginsStatement(i int) bool {
	if !s.startsAssignment(i) {
		return false
	}
	if i == 0 {
		return true
	}
	prev := s.toks[i-1]
	return prev.Text != "(" && prev.Text != "," && prev.Kind != scanner.TokOperator
}

func (s *stream) rangeOf(t token) rangeSpec {
	return rangeSpec{startLine: t.line, startCol: t.Start, endLine: t.line, endCol: t.End}
}

// rangeSpec is a byte-column range converted to protocol units on output.
type rangeSpec struct {
	startLine, startCol int
	endLine, endCol     int
}
