package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-st-lsp/internal/features"
)

// Completion handles the textDocument/completion request.
// After "instance." only the members of the instance's type are offered;
// elsewhere variables, units, standard types and functions, keywords and,
// for clients that support them, snippets.
func Completion(context *glsp.Context, params *protocol.CompletionParams) (any, error) {
	uri := params.TextDocument.URI
	srv, doc, ok := openDocument("Completion", uri)
	if !ok {
		return nil, nil
	}

	list := features.Completion(uri, doc.Text, params.Position, srv.Index(), srv.CompletionOptions())
	log.Debugf("completion at %s %d:%d: %d item(s)",
		uri, params.Position.Line, params.Position.Character, len(list.Items))
	return list, nil
}
