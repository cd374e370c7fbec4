// Package document applies LSP content changes to document text.
//
// LSP positions count UTF-16 code units per line; the text is stored as
// UTF-8. Lines end at '\n' and a preceding '\r' is not part of the line's
// content, so a character past the visible end is clamped to it.
package document

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// ErrPositionOutOfRange reports a line beyond the end of the document.
var ErrPositionOutOfRange = errors.New("position out of range")

// ApplyChanges applies the content changes of one didChange notification in
// order. Each change is either an incremental
// protocol.TextDocumentContentChangeEvent or a whole-document
// protocol.TextDocumentContentChangeEventWhole. On error the original text is
// returned with it.
func ApplyChanges(text string, changes []any) (string, error) {
	next := text
	for i, c := range changes {
		switch change := c.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			next = change.Text
		case protocol.TextDocumentContentChangeEvent:
			updated, err := ApplyContentChange(next, change)
			if err != nil {
				return text, fmt.Errorf("change %d: %w", i, err)
			}
			next = updated
		default:
			return text, fmt.Errorf("change %d: unsupported change type %T", i, c)
		}
	}
	return next, nil
}

// ApplyContentChange applies one change. A change without a range replaces
// the whole text.
func ApplyContentChange(text string, change protocol.TextDocumentContentChangeEvent) (string, error) {
	if change.Range == nil {
		return change.Text, nil
	}

	start, err := PositionToOffset(text, change.Range.Start)
	if err != nil {
		return "", fmt.Errorf("invalid start: %w", err)
	}
	end, err := PositionToOffset(text, change.Range.End)
	if err != nil {
		return "", fmt.Errorf("invalid end: %w", err)
	}
	if start > end {
		return "", fmt.Errorf("start %d:%d after end %d:%d",
			change.Range.Start.Line, change.Range.Start.Character,
			change.Range.End.Line, change.Range.End.Character)
	}

	return text[:start] + change.Text + text[end:], nil
}

// PositionToOffset converts an LSP position to a byte offset in text. The
// line one past the last is accepted as the end of the document.
func PositionToOffset(text string, pos protocol.Position) (int, error) {
	lineStart := 0
	for line := uint32(0); line < pos.Line; line++ {
		nl := strings.IndexByte(text[lineStart:], '\n')
		if nl < 0 {
			if line+1 == pos.Line {
				return len(text), nil
			}
			return 0, fmt.Errorf("%w: line %d", ErrPositionOutOfRange, pos.Line)
		}
		lineStart += nl + 1
	}

	content := lineContent(text[lineStart:])
	return lineStart + utf16ToByte(content, int(pos.Character)), nil
}

// OffsetToPosition converts a byte offset in text to an LSP position.
func OffsetToPosition(text string, offset int) (protocol.Position, error) {
	if offset < 0 || offset > len(text) {
		return protocol.Position{}, fmt.Errorf("%w: offset %d (0-%d)", ErrPositionOutOfRange, offset, len(text))
	}

	line := strings.Count(text[:offset], "\n")
	lineStart := strings.LastIndexByte(text[:offset], '\n') + 1
	return protocol.Position{
		Line:      uint32(line),
		Character: uint32(byteToUTF16(text[lineStart:], offset-lineStart)),
	}, nil
}

// lineContent returns the first line of s without its terminator.
func lineContent(s string) string {
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[:nl]
	}
	return strings.TrimSuffix(s, "\r")
}

// utf16ToByte returns the byte offset of the given UTF-16 column in line,
// clamped to the line's length.
func utf16ToByte(line string, col int) int {
	units := 0
	for i, r := range line {
		if units >= col {
			return i
		}
		units += utf16Len(r)
	}
	return len(line)
}

// byteToUTF16 counts the UTF-16 units of the runes that end at or before
// offset; an offset inside a rune rounds down.
func byteToUTF16(line string, offset int) int {
	units := 0
	for i := 0; i < offset && i < len(line); {
		r, size := utf8.DecodeRuneInString(line[i:])
		if i+size > offset {
			break
		}
		units += utf16Len(r)
		i += size
	}
	return units
}

func utf16Len(r rune) int {
	if r >= 0x10000 && r <= utf8.MaxRune {
		return 2
	}
	return 1
}
