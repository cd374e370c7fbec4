// Package scanner provides comment-, string- and pragma-aware scanning of
// Structured Text source. Every analysis pass works on the masked form of a
// document, where the contents of comments, pragmas and string literals are
// replaced by spaces while byte offsets and line breaks stay intact.
package scanner

import (
	"strings"
)

// RegionKind identifies a non-code span of a document.
type RegionKind int

const (
	// RegionLineComment is a `// ...` comment running to the end of the line.
	RegionLineComment RegionKind = iota

	// RegionBlockComment is a `(* ... *)` comment, possibly spanning lines.
	RegionBlockComment

	// RegionPragma is a `{ ... }` pragma or attribute.
	RegionPragma

	// RegionString is a single- or double-quoted string literal.
	RegionString
)

// String returns a readable name for the region kind.
func (k RegionKind) String() string {
	switch k {
	case RegionLineComment:
		return "line comment"
	case RegionBlockComment:
		return "block comment"
	case RegionPragma:
		return "pragma"
	case RegionString:
		return "string"
	default:
		return "unknown"
	}
}

// Region is a half-open byte span [Start, End) of a document.
type Region struct {
	Kind  RegionKind
	Start int
	End   int

	// Quote is the opening quote character for string regions.
	Quote byte

	// Terminated is false for strings that run into the end of the line and
	// for block comments or pragmas that run into the end of the document.
	Terminated bool
}

// IsComment reports whether the region is a comment or pragma.
func (r Region) IsComment() bool {
	return r.Kind != RegionString
}

// Result is the outcome of scanning a document.
type Result struct {
	// Text is the original document text.
	Text string

	// Masked has the same length as Text. Comment and pragma bytes are
	// replaced by spaces; string literals keep their quotes with the contents
	// blanked. Newlines are always preserved.
	Masked string

	// Regions lists the non-code spans in document order.
	Regions []Region
}

// Scan splits text into code and non-code regions.
func Scan(text string) *Result {
	masked := []byte(text)
	var regions []Region

	blank := func(from, to int) {
		for i := from; i < to; i++ {
			if masked[i] != '\n' && masked[i] != '\r' {
				masked[i] = ' '
			}
		}
	}

	n := len(text)
	i := 0
	for i < n {
		c := text[i]
		switch {
		case c == '/' && i+1 < n && text[i+1] == '/':
			end := strings.IndexByte(text[i:], '\n')
			if end < 0 {
				end = n
			} else {
				end += i
			}
			if end > i && text[end-1] == '\r' {
				end--
			}
			regions = append(regions, Region{Kind: RegionLineComment, Start: i, End: end, Terminated: true})
			blank(i, end)
			i = end

		case c == '(' && i+1 < n && text[i+1] == '*':
			end := strings.Index(text[i+2:], "*)")
			r := Region{Kind: RegionBlockComment, Start: i}
			if end < 0 {
				r.End = n
			} else {
				r.End = i + 2 + end + 2
				r.Terminated = true
			}
			regions = append(regions, r)
			blank(r.Start, r.End)
			i = r.End

		case c == '{':
			end := strings.IndexByte(text[i+1:], '}')
			r := Region{Kind: RegionPragma, Start: i}
			if end < 0 {
				r.End = n
			} else {
				r.End = i + 1 + end + 1
				r.Terminated = true
			}
			regions = append(regions, r)
			blank(r.Start, r.End)
			i = r.End

		case c == '\'' || c == '"':
			r := scanString(text, i)
			regions = append(regions, r)
			contentEnd := r.End
			if r.Terminated {
				contentEnd--
			}
			blank(r.Start+1, contentEnd)
			i = r.End

		default:
			i++
		}
	}

	return &Result{Text: text, Masked: string(masked), Regions: regions}
}

// scanString scans a string literal starting at the quote at offset start.
// Doubled quotes and `$` escapes do not terminate the literal; a line break
// does, leaving the literal unterminated.
func scanString(text string, start int) Region {
	quote := text[start]
	r := Region{Kind: RegionString, Start: start, Quote: quote}
	i := start + 1
	for i < len(text) {
		c := text[i]
		switch {
		case c == '\n' || c == '\r':
			r.End = i
			return r
		case c == '$' && i+1 < len(text) && text[i+1] != '\n' && text[i+1] != '\r':
			i += 2
		case c == quote && i+1 < len(text) && text[i+1] == quote:
			i += 2
		case c == quote:
			r.End = i + 1
			r.Terminated = true
			return r
		default:
			i++
		}
	}
	r.End = len(text)
	return r
}

// RegionAt returns the region containing offset, if any. An offset equal to
// the end of an unterminated region still counts as inside it, so a cursor at
// the end of an open comment or string is treated as inside.
func (r *Result) RegionAt(offset int) (Region, bool) {
	lo, hi := 0, len(r.Regions)
	for lo < hi {
		mid := (lo + hi) / 2
		if r.Regions[mid].End <= offset {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(r.Regions) && r.Regions[lo].Start <= offset && offset < r.Regions[lo].End {
		return r.Regions[lo], true
	}
	if lo > 0 {
		prev := r.Regions[lo-1]
		if !prev.Terminated && prev.End == offset && offset > prev.Start {
			return prev, true
		}
	}
	return Region{}, false
}

// InComment reports whether offset lies inside a comment or pragma.
func (r *Result) InComment(offset int) bool {
	region, ok := r.RegionAt(offset)
	return ok && region.IsComment()
}

// InString reports whether offset lies inside a string literal, excluding
// the position just before its opening quote.
func (r *Result) InString(offset int) bool {
	region, ok := r.RegionAt(offset)
	return ok && region.Kind == RegionString && offset > region.Start
}

// IsCode reports whether offset is ordinary code.
func (r *Result) IsCode(offset int) bool {
	_, ok := r.RegionAt(offset)
	return !ok
}

// Lines returns the original text split into lines.
func (r *Result) Lines() []string {
	return SplitLines(r.Text)
}

// MaskedLines returns the masked text split into lines.
func (r *Result) MaskedLines() []string {
	return SplitLines(r.Masked)
}

// LineStarts returns the byte offset at which each line begins.
func (r *Result) LineStarts() []int {
	return LineStarts(r.Text)
}

// SplitLines splits text on "\n" and drops a trailing "\r" from each line.
func SplitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// LineStarts returns the byte offset at which each line of text begins.
func LineStarts(text string) []int {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}
