package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-st-lsp/internal/features"
)

// Definition handles the textDocument/definition request.
// This provides "go-to definition" functionality, allowing users to navigate
// to where a symbol is defined.
func Definition(context *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	uri := params.TextDocument.URI
	srv, doc, ok := openDocument("Definition", uri)
	if !ok {
		return nil, nil
	}

	log.Debugf("definition request at %s %d:%d", uri, params.Position.Line, params.Position.Character)

	locations := features.Definition(uri, doc.Text, params.Position, srv.Index())
	if len(locations) == 0 {
		return nil, nil
	}
	return locations, nil
}
