package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-st-lsp/internal/features"
)

// SignatureHelp handles textDocument/signatureHelp requests.
// Shows the parameters of the function or function block being called.
func SignatureHelp(context *glsp.Context, params *protocol.SignatureHelpParams) (*protocol.SignatureHelp, error) {
	uri := params.TextDocument.URI
	srv, doc, ok := openDocument("SignatureHelp", uri)
	if !ok {
		return nil, nil
	}

	if params.Context != nil && params.Context.TriggerCharacter != nil {
		log.Debugf("signature help triggered by %q", *params.Context.TriggerCharacter)
	}
	return features.SignatureHelp(uri, doc.Text, params.Position, srv.Index()), nil
}
