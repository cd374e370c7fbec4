package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-st-lsp/internal/features"
)

// DocumentSymbol handles the textDocument/documentSymbol request.
// Returns the units of the document with their declarations as children.
func DocumentSymbol(context *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	uri := params.TextDocument.URI
	_, doc, ok := openDocument("DocumentSymbol", uri)
	if !ok {
		return nil, nil
	}
	return features.DocumentSymbols(uri, doc.Text), nil
}
