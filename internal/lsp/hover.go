package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-st-lsp/internal/features"
)

// Hover handles the textDocument/hover request.
// This provides type and symbol information when the user hovers over code.
func Hover(context *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	uri := params.TextDocument.URI
	srv, doc, ok := openDocument("Hover", uri)
	if !ok {
		return nil, nil
	}

	log.Debugf("hover request at %s %d:%d", uri, params.Position.Line, params.Position.Character)
	return features.Hover(uri, doc.Text, params.Position, srv.Index()), nil
}
