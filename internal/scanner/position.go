package scanner

import (
	"sort"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// UTF16Column converts a byte index within line to a UTF-16 code unit column.
func UTF16Column(line string, byteIdx int) int {
	if byteIdx > len(line) {
		byteIdx = len(line)
	}
	col := 0
	for _, r := range line[:byteIdx] {
		if r >= 0x10000 {
			col += 2
		} else {
			col++
		}
	}
	return col
}

// ByteColumn converts a UTF-16 column within line to a byte index. Columns
// past the end of the line clamp to its length.
func ByteColumn(line string, utf16Col int) int {
	col := 0
	for i, r := range line {
		if col >= utf16Col {
			return i
		}
		if r >= 0x10000 {
			col += 2
		} else {
			col++
		}
	}
	return len(line)
}

// Pos builds a protocol position from a line number and a byte column.
func Pos(lines []string, line, byteCol int) protocol.Position {
	character := byteCol
	if line >= 0 && line < len(lines) {
		character = UTF16Column(lines[line], byteCol)
	}
	return protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(character)}
}

// Range builds a single-line protocol range from byte columns.
func Range(lines []string, line, startCol, endCol int) protocol.Range {
	return protocol.Range{
		Start: Pos(lines, line, startCol),
		End:   Pos(lines, line, endCol),
	}
}

// OffsetToPosition converts a byte offset in text into a protocol position
// using precomputed line starts.
func OffsetToPosition(text string, starts []int, offset int) protocol.Position {
	if offset > len(text) {
		offset = len(text)
	}
	line := sort.Search(len(starts), func(i int) bool { return starts[i] > offset }) - 1
	if line < 0 {
		line = 0
	}
	lineText := text[starts[line]:offset]
	return protocol.Position{
		Line:      protocol.UInteger(line),
		Character: protocol.UInteger(UTF16Column(lineText, len(lineText))),
	}
}

// PositionToOffset converts a protocol position into a byte offset, clamping
// out-of-range lines and columns.
func PositionToOffset(text string, starts []int, pos protocol.Position) int {
	line := int(pos.Line)
	if line >= len(starts) {
		return len(text)
	}
	end := len(text)
	if line+1 < len(starts) {
		end = starts[line+1] - 1
	}
	lineText := text[starts[line]:end]
	if len(lineText) > 0 && lineText[len(lineText)-1] == '\r' {
		lineText = lineText[:len(lineText)-1]
	}
	return starts[line] + ByteColumn(lineText, int(pos.Character))
}
