package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func TestDefinitionLocalVariable(t *testing.T) {
	locs := Definition(mainURI, counterSource, pos(5, 14), nil)

	require.Len(t, locs, 1)
	assert.Equal(t, protocol.DocumentUri(mainURI), locs[0].URI)
	assert.Equal(t, rng(2, 4, 2, 11), locs[0].Range)
}

func TestDefinitionIgnoresCase(t *testing.T) {
	text := "PROGRAM Main\nVAR\n    Speed : INT;\nEND_VAR\nSPEED := 1;\nEND_PROGRAM"

	locs := Definition(mainURI, text, pos(4, 2), nil)
	require.Len(t, locs, 1)
	assert.Equal(t, rng(2, 4, 2, 9), locs[0].Range)
}

func TestDefinitionKeywordAndCommentHaveNone(t *testing.T) {
	assert.Empty(t, Definition(mainURI, counterSource, pos(7, 1), nil), "IF")

	text := "PROGRAM Main\nVAR\n    x : INT;\nEND_VAR\nx := 1; // x\nEND_PROGRAM"
	assert.Empty(t, Definition(mainURI, text, pos(4, 11), nil))
}

func TestDefinitionAcrossWorkspace(t *testing.T) {
	index := motorIndex(t)
	text := "PROGRAM Main\nVAR\n    m : FB_Motor;\nEND_VAR\nm(enable := TRUE);\nEND_PROGRAM"

	locs := Definition(mainURI, text, pos(2, 10), index)
	require.Len(t, locs, 1)
	assert.Equal(t, protocol.DocumentUri(motorURI), locs[0].URI)
	assert.Equal(t, uint32(0), locs[0].Range.Start.Line)
}

func TestDefinitionCustomMember(t *testing.T) {
	index := motorIndex(t)
	text := "PROGRAM Main\nVAR\n    m : FB_Motor;\nEND_VAR\nIF m.running THEN\nEND_IF;\nEND_PROGRAM"

	locs := Definition(mainURI, text, pos(4, 7), index)
	require.Len(t, locs, 1)
	assert.Equal(t, protocol.DocumentUri(motorURI), locs[0].URI)
	assert.Equal(t, uint32(5), locs[0].Range.Start.Line)
}

func TestDefinitionStandardMemberPointsAtInstance(t *testing.T) {
	locs := Definition(mainURI, counterSource, pos(7, 9), nil)

	require.Len(t, locs, 1)
	assert.Equal(t, protocol.DocumentUri(mainURI), locs[0].URI)
	assert.Equal(t, rng(3, 4, 3, 9), locs[0].Range)

	// The workspace index does not change where standard members resolve.
	text := "PROGRAM Main\nVAR\n    m : FB_Motor;\n    edge : R_TRIG;\nEND_VAR\nedge(CLK := m.running);\nIF edge.Q THEN\nEND_IF;\nEND_PROGRAM"
	locs = Definition(mainURI, text, pos(6, 8), motorIndex(t))
	require.Len(t, locs, 1)
	assert.Equal(t, protocol.DocumentUri(mainURI), locs[0].URI)
	assert.Equal(t, rng(3, 4, 3, 8), locs[0].Range)
}

func TestDefinitionUnknownMember(t *testing.T) {
	text := "VAR t : TON; END_VAR\nt.Nope"

	assert.Empty(t, Definition(mainURI, text, pos(1, 3), nil))
}
