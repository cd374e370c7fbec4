package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-st-lsp/internal/format"
)

// Formatting handles the textDocument/formatting request.
// The client's formatting options override the configured indent and
// whitespace settings for this request only.
func Formatting(context *glsp.Context, params *protocol.DocumentFormattingParams) ([]protocol.TextEdit, error) {
	uri := params.TextDocument.URI
	srv, doc, ok := openDocument("Formatting", uri)
	if !ok {
		return nil, nil
	}

	edits := format.FormatEdits(doc.Text, srv.Config().FormatOptions(params.Options), nil)
	log.Debugf("formatting %s: %d edit(s)", uri, len(edits))
	return edits, nil
}

// RangeFormatting handles the textDocument/rangeFormatting request.
func RangeFormatting(context *glsp.Context, params *protocol.DocumentRangeFormattingParams) ([]protocol.TextEdit, error) {
	uri := params.TextDocument.URI
	srv, doc, ok := openDocument("RangeFormatting", uri)
	if !ok {
		return nil, nil
	}

	rng := params.Range
	return format.FormatEdits(doc.Text, srv.Config().FormatOptions(params.Options), &rng), nil
}
