package format

import (
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-st-lsp/internal/scanner"
)

// FormatEdits formats text and returns the edits that turn text into the
// result, one per changed line. With a range, the whole document is still
// formatted so indentation depth is right, but only edits of lines
// intersecting the range are returned.
func FormatEdits(text string, opts Options, rng *protocol.Range) []protocol.TextEdit {
	edits := []protocol.TextEdit{}
	formatted := Format(text, opts)
	if formatted == text {
		return edits
	}

	before := scanner.SplitLines(text)
	after := scanner.SplitLines(formatted)

	first, last := 0, len(before)-1
	if rng != nil {
		first = int(rng.Start.Line)
		last = int(rng.End.Line)
		if rng.End.Character == 0 && last > first {
			last--
		}
		last = min(last, len(before)-1)
	}

	// Only the final newline can add a line.
	appended := ""
	if rng == nil && len(after) > len(before) {
		eol := "\n"
		if strings.Contains(formatted, "\r\n") {
			eol = "\r\n"
		}
		appended = eol + strings.Join(after[len(before):], eol)
	}

	for i := first; i <= last && i < len(after); i++ {
		newText := after[i]
		if i == len(before)-1 {
			newText += appended
		}
		if newText == before[i] {
			continue
		}
		edits = append(edits, protocol.TextEdit{
			Range:   scanner.Range(before, i, 0, len(before[i])),
			NewText: newText,
		})
	}
	log.Debugf("formatting produced %d edit(s)", len(edits))
	return edits
}
