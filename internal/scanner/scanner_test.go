package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func TestScanMasksCommentsAndStrings(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		masked string
	}{
		{"line comment", "x := 1; // IF", "x := 1;      "},
		{"block comment", "a (* IF *) b", "a          b"},
		{"multi-line block comment", "(* a\nb *)c", "    \n    c"},
		{"pragma", "{attribute 'x'} y", "                y"},
		{"single quoted string", "s := 'IF x';", "s := '    ';"},
		{"doubled quote escape", "s := 'it''s';", "s := '     ';"},
		{"dollar escape", "s := 'a$'b';", "s := '    ';"},
		{"double quoted string", `w := "x";`, `w := " ";`},
		{"unterminated string", "s := 'abc;\nx", "s := '    \nx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Scan(tt.input)
			assert.Equal(t, tt.masked, res.Masked)
			assert.Len(t, res.Masked, len(tt.input))
		})
	}
}

func TestScanRegions(t *testing.T) {
	res := Scan("a := 'x'; (* c\nd *) // e\nf := 'open")
	require.Len(t, res.Regions, 4)

	assert.Equal(t, RegionString, res.Regions[0].Kind)
	assert.True(t, res.Regions[0].Terminated)
	assert.Equal(t, byte('\''), res.Regions[0].Quote)

	assert.Equal(t, RegionBlockComment, res.Regions[1].Kind)
	assert.True(t, res.Regions[1].Terminated)

	assert.Equal(t, RegionLineComment, res.Regions[2].Kind)

	assert.Equal(t, RegionString, res.Regions[3].Kind)
	assert.False(t, res.Regions[3].Terminated)
}

func TestRegionQueries(t *testing.T) {
	text := "x := 1; // note\ns := 'abc';"
	res := Scan(text)

	assert.True(t, res.IsCode(0))
	assert.True(t, res.InComment(10))
	assert.False(t, res.InComment(2))
	assert.True(t, res.InString(23))
	assert.False(t, res.InString(21), "position before the opening quote is code")
	// end of an unterminated block comment still counts as inside
	open := Scan("x (* open")
	assert.True(t, open.InComment(len("x (* open")))
}

func TestTokenize(t *testing.T) {
	toks := Tokenize("x := (a + 16#FF) * T#5s - INT#3 <> b.c;")
	var texts []string
	for _, tok := range toks {
		texts = append(texts, tok.Text)
	}
	assert.Equal(t, []string{"x", ":=", "(", "a", "+", "16#FF", ")", "*", "T#5s", "-", "INT#3", "<>", "b", ".", "c", ";"}, texts)
	assert.Equal(t, TokTypedLiteral, toks[5].Kind)
	assert.Equal(t, TokOperator, toks[1].Kind)
}

func TestTokenizeNumbersAndRanges(t *testing.T) {
	toks := Tokenize("ARRAY[1..10] OF REAL := 1.5E3")
	var texts []string
	for _, tok := range toks {
		texts = append(texts, tok.Text)
	}
	assert.Equal(t, []string{"ARRAY", "[", "1", "..", "10", "]", "OF", "REAL", ":=", "1.5E3"}, texts)
}

func TestTokenizeDateLiteral(t *testing.T) {
	toks := Tokenize("d := DT#2024-01-31-12:30:00;")
	require.Len(t, toks, 4)
	assert.Equal(t, "DT#2024-01-31-12:30:00", toks[2].Text)
}

func TestWordAt(t *testing.T) {
	tests := []struct {
		line  string
		col   int
		word  string
		found bool
	}{
		{"counter := 1;", 3, "counter", true},
		{"counter := 1;", 7, "counter", true},
		{"counter := 1;", 8, "", false},
		{"t := T#5s;", 5, "", false},
		{"h := 16#FF;", 9, "", false},
		{"  ", 1, "", false},
	}
	for _, tt := range tests {
		start, end, ok := WordAt(tt.line, tt.col)
		assert.Equal(t, tt.found, ok, tt.line)
		if ok {
			assert.Equal(t, tt.word, tt.line[start:end])
		}
	}
}

func TestIsValidIdentifier(t *testing.T) {
	assert.True(t, IsValidIdentifier("motor_1"))
	assert.True(t, IsValidIdentifier("_x"))
	assert.False(t, IsValidIdentifier("1x"))
	assert.False(t, IsValidIdentifier("a-b"))
	assert.False(t, IsValidIdentifier(""))
}

func TestLevenshtein(t *testing.T) {
	assert.Equal(t, 0, Levenshtein("Counter", "counter"))
	assert.Equal(t, 1, Levenshtein("countr", "counter"))
	assert.Equal(t, 3, Levenshtein("", "abc"))
	assert.Equal(t, 2, Levenshtein("motor", "mtoor"))
}

func TestPositionConversion(t *testing.T) {
	text := "ab\ncéd\n\U0001F600x"
	starts := LineStarts(text)

	pos := OffsetToPosition(text, starts, len("ab\ncé"))
	assert.Equal(t, protocol.Position{Line: 1, Character: 2}, pos)

	emoji := OffsetToPosition(text, starts, len(text))
	assert.Equal(t, protocol.Position{Line: 2, Character: 3}, emoji)

	assert.Equal(t, len("ab\ncé"), PositionToOffset(text, starts, protocol.Position{Line: 1, Character: 2}))
	assert.Equal(t, len(text), PositionToOffset(text, starts, protocol.Position{Line: 9, Character: 0}))
}
