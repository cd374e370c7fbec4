package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-st-lsp/internal/workspace"
)

const (
	mainURI  = "file:///project/main.st"
	motorURI = "file:///project/motor.st"
)

const motorSource = `FUNCTION_BLOCK FB_Motor
VAR_INPUT
    enable : BOOL;
END_VAR
VAR_OUTPUT
    running : BOOL;
END_VAR
running := enable;
END_FUNCTION_BLOCK
`

const counterSource = `PROGRAM Main
VAR
    counter : INT;
    delay : TON;
END_VAR
counter := counter + 1;
delay(IN := TRUE, PT := T#1s);
IF delay.Q THEN
    counter := 0;
END_IF;
END_PROGRAM
`

func pos(line, char uint32) protocol.Position {
	return protocol.Position{Line: line, Character: char}
}

func rng(sl, sc, el, ec uint32) protocol.Range {
	return protocol.Range{Start: pos(sl, sc), End: pos(el, ec)}
}

func motorIndex(t *testing.T) *workspace.Index {
	t.Helper()
	index := workspace.NewIndex()
	index.UpdateFileIndex(motorURI, motorSource)
	require.True(t, index.HasFile(motorURI))
	return index
}

func labels(items []protocol.CompletionItem) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Label)
	}
	return out
}

func TestWordAtErrors(t *testing.T) {
	doc := load(mainURI, "x := 1; // note\ns := 'abc';", nil)

	w, err := doc.wordAt(pos(0, 0))
	require.NoError(t, err)
	assert.Equal(t, "x", w.text)

	w, err = doc.wordAt(pos(0, 1))
	require.NoError(t, err, "cursor right after an identifier")
	assert.Equal(t, "x", w.text)

	_, err = doc.wordAt(pos(0, 12))
	assert.ErrorIs(t, err, ErrInsideComment)

	_, err = doc.wordAt(pos(1, 7))
	assert.ErrorIs(t, err, ErrInsideString)

	_, err = doc.wordAt(pos(5, 0))
	assert.ErrorIs(t, err, ErrNotRenameable)
}

func TestOccurrencesIgnoreCaseCommentsAndStrings(t *testing.T) {
	doc := load(mainURI, "Count := count + 1; (* count *) s := 'count';\nCOUNT := 0;", nil)

	occ := doc.occurrences("count")
	require.Len(t, occ, 3)
	assert.Equal(t, "Count", occ[0].text)
	assert.Equal(t, "count", occ[1].text)
	assert.Equal(t, "COUNT", occ[2].text)
	assert.Equal(t, 1, occ[2].line)
}
