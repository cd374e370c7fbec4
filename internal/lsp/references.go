package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-st-lsp/internal/features"
)

// References handles the textDocument/references request.
// Occurrences in the current document are complete; other files contribute
// the definition sites known to the workspace index.
func References(context *glsp.Context, params *protocol.ReferenceParams) ([]protocol.Location, error) {
	uri := params.TextDocument.URI
	srv, doc, ok := openDocument("References", uri)
	if !ok {
		return nil, nil
	}

	locations := features.References(uri, doc.Text, params.Position, srv.Index(), params.Context.IncludeDeclaration)
	log.Debugf("found %d reference(s) at %s %d:%d",
		len(locations), uri, params.Position.Line, params.Position.Character)
	return locations, nil
}
