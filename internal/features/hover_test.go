package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-st-lsp/internal/symbols"
)

func hoverText(t *testing.T, h *protocol.Hover) string {
	t.Helper()
	require.NotNil(t, h)
	content, ok := h.Contents.(protocol.MarkupContent)
	require.True(t, ok, "hover contents should be markup")
	assert.Equal(t, protocol.MarkupKindMarkdown, content.Kind)
	return content.Value
}

func TestHoverVariable(t *testing.T) {
	h := Hover(mainURI, counterSource, pos(5, 2), nil)

	value := hoverText(t, h)
	assert.Contains(t, value, "```iecst\ncounter : INT\n```")
	assert.Contains(t, value, "*Variable in VAR of Main*")
	require.NotNil(t, h.Range)
	assert.Equal(t, rng(5, 0, 5, 7), *h.Range)
}

func TestHoverStandardFunctionBlock(t *testing.T) {
	value := hoverText(t, Hover(mainURI, counterSource, pos(3, 13), nil))

	assert.Contains(t, value, "FUNCTION_BLOCK TON")
	assert.Contains(t, value, "`PT : TIME`")
}

func TestHoverStandardMember(t *testing.T) {
	value := hoverText(t, Hover(mainURI, counterSource, pos(7, 9), nil))

	assert.Contains(t, value, "Q : BOOL")
	assert.Contains(t, value, "of TON")
}

func TestHoverElementaryType(t *testing.T) {
	value := hoverText(t, Hover(mainURI, counterSource, pos(2, 15), nil))

	assert.Contains(t, value, "Elementary data type")
}

func TestHoverWorkspaceUnit(t *testing.T) {
	index := motorIndex(t)
	text := "PROGRAM Main\nVAR\n    m : FB_Motor;\nEND_VAR\nEND_PROGRAM"

	value := hoverText(t, Hover(mainURI, text, pos(2, 10), index))
	assert.Contains(t, value, "FUNCTION_BLOCK FB_Motor")
	assert.Contains(t, value, "**Parameters**")
	assert.Contains(t, value, "- `enable : BOOL` (VAR_INPUT)")
}

func TestHoverNothing(t *testing.T) {
	assert.Nil(t, Hover(mainURI, counterSource, pos(7, 0), nil), "keyword")
	assert.Nil(t, Hover(mainURI, "x := unknownThing;", pos(0, 8), nil), "undeclared")
	assert.Nil(t, Hover(mainURI, "(* counter *)", pos(0, 5), nil), "comment")
}

func TestDescribeSymbolDescription(t *testing.T) {
	s := &symbols.Symbol{
		Name:        "limit",
		Kind:        symbols.KindConstant,
		DataType:    "INT",
		Section:     "VAR CONSTANT",
		Description: "Upper bound",
	}

	value := DescribeSymbol(s)
	assert.Contains(t, value, "limit : INT")
	assert.Contains(t, value, "*Constant in VAR CONSTANT*")
	assert.Contains(t, value, "\nUpper bound\n")
}
