package features

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-st-lsp/internal/scanner"
)

// applyEdits applies single-line edits to text.
func applyEdits(text string, edits []protocol.TextEdit) string {
	sorted := append([]protocol.TextEdit(nil), edits...)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i].Range.Start, sorted[j].Range.Start
		if a.Line != b.Line {
			return a.Line > b.Line
		}
		return a.Character > b.Character
	})
	lines := scanner.SplitLines(text)
	for _, e := range sorted {
		line := lines[e.Range.Start.Line]
		start := scanner.ByteColumn(line, int(e.Range.Start.Character))
		end := scanner.ByteColumn(line, int(e.Range.End.Character))
		lines[e.Range.Start.Line] = line[:start] + e.NewText + line[end:]
	}
	return strings.Join(lines, "\n")
}

func TestRenameSingleLine(t *testing.T) {
	text := "VAR x:INT;END_VAR x:=x+1;"

	edit, err := Rename(mainURI, text, pos(0, 4), "y", nil)
	require.NoError(t, err)

	edits := edit.Changes[mainURI]
	require.Len(t, edits, 3)
	for _, e := range edits {
		assert.Equal(t, "y", e.NewText)
		assert.Equal(t, e.Range.Start.Line, e.Range.End.Line)
		assert.Equal(t, uint32(1), e.Range.End.Character-e.Range.Start.Character)
	}
	assert.Equal(t, "VAR y:INT;END_VAR y:=y+1;", applyEdits(text, edits))
}

func TestRenameFromAnyOccurrence(t *testing.T) {
	text := "VAR x:INT;END_VAR x:=x+1;"

	fromDecl, err := Rename(mainURI, text, pos(0, 4), "y", nil)
	require.NoError(t, err)
	fromUse, err := Rename(mainURI, text, pos(0, 21), "y", nil)
	require.NoError(t, err)

	assert.Equal(t, fromDecl.Changes, fromUse.Changes)
}

func TestRenameRoundTrip(t *testing.T) {
	edit, err := Rename(mainURI, counterSource, pos(2, 6), "total", nil)
	require.NoError(t, err)
	renamed := applyEdits(counterSource, edit.Changes[mainURI])
	assert.NotContains(t, renamed, "counter")

	back, err := Rename(mainURI, renamed, pos(2, 6), "counter", nil)
	require.NoError(t, err)
	assert.Equal(t, counterSource, applyEdits(renamed, back.Changes[mainURI]))
}

func TestRenameSkipsCommentsAndStrings(t *testing.T) {
	text := "PROGRAM Main\nVAR\n    Count : INT;\nEND_VAR\n// count here\nmsg := 'count';\nCOUNT := count + 1;\nEND_PROGRAM"

	edit, err := Rename(mainURI, text, pos(2, 5), "total", nil)
	require.NoError(t, err)
	assert.Equal(t,
		"PROGRAM Main\nVAR\n    total : INT;\nEND_VAR\n// count here\nmsg := 'count';\ntotal := total + 1;\nEND_PROGRAM",
		applyEdits(text, edit.Changes[mainURI]))
}

func TestRenameRejections(t *testing.T) {
	text := "VAR x : INT; END_VAR\nx := 1; // x\ns := 'x';"

	tests := []struct {
		name    string
		pos     protocol.Position
		newName string
		want    error
	}{
		{"keyword target", pos(0, 1), "y", ErrNotRenameable},
		{"type target", pos(0, 9), "y", ErrNotRenameable},
		{"comment", pos(1, 11), "y", ErrInsideComment},
		{"string", pos(2, 6), "y", ErrInsideString},
		{"whitespace", pos(1, 5), "y", ErrNotRenameable},
		{"keyword name", pos(1, 0), "IF", ErrReservedName},
		{"type name", pos(1, 0), "dint", ErrReservedName},
		{"function block name", pos(1, 0), "TON", ErrReservedName},
		{"invalid name", pos(1, 0), "1x", ErrInvalidIdentifier},
		{"empty name", pos(1, 0), "", ErrInvalidIdentifier},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			edit, err := Rename(mainURI, text, tt.pos, tt.newName, nil)
			assert.Nil(t, edit)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidateNewNameMessages(t *testing.T) {
	assert.NoError(t, ValidateNewName("motorSpeed"))
	assert.NoError(t, ValidateNewName("_tmp1"))

	err := ValidateNewName("IF")
	require.Error(t, err)
	assert.Equal(t, "'IF' is a reserved keyword: invalid rename target", err.Error())

	err = ValidateNewName("1x")
	require.Error(t, err)
	assert.Equal(t, "'1x' is not a valid identifier: invalid identifier", err.Error())
}

func TestPrepareRename(t *testing.T) {
	r, placeholder, err := PrepareRename(mainURI, counterSource, pos(5, 13))
	require.NoError(t, err)
	assert.Equal(t, "counter", placeholder)
	assert.Equal(t, rng(5, 11, 5, 18), r)

	_, _, err = PrepareRename(mainURI, counterSource, pos(7, 0))
	assert.ErrorIs(t, err, ErrNotRenameable)
}
