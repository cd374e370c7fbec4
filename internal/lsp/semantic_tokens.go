package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-st-lsp/internal/features"
)

// SemanticTokensFull handles textDocument/semanticTokens/full.
// The token set is cached under a new result id for later delta requests.
func SemanticTokensFull(context *glsp.Context, params *protocol.SemanticTokensParams) (*protocol.SemanticTokens, error) {
	uri := params.TextDocument.URI
	srv, doc, ok := openDocument("SemanticTokensFull", uri)
	if !ok {
		return nil, nil
	}

	tokens := features.SemanticTokens(uri, doc.Text, srv.Index())
	resultID := srv.SemanticTokens().NextResultID(uri)
	srv.SemanticTokens().Store(uri, resultID, tokens)
	log.Debugf("%d semantic token(s) for %s", len(tokens), uri)

	return &protocol.SemanticTokens{
		ResultID: &resultID,
		Data:     features.EncodeSemanticTokens(tokens),
	}, nil
}

// SemanticTokensFullDelta handles textDocument/semanticTokens/full/delta.
// An unknown or outdated previous result id gets a full response.
func SemanticTokensFullDelta(context *glsp.Context, params *protocol.SemanticTokensDeltaParams) (any, error) {
	uri := params.TextDocument.URI
	srv, doc, ok := openDocument("SemanticTokensFullDelta", uri)
	if !ok {
		return nil, nil
	}

	cache := srv.SemanticTokens()
	tokens := features.SemanticTokens(uri, doc.Text, srv.Index())

	var previous []features.SemanticToken
	if cached, found := cache.Retrieve(uri, params.PreviousResultID); found {
		previous = cached.Tokens
	} else {
		log.Debugf("no cached semantic tokens for %s (result %q)", uri, params.PreviousResultID)
	}

	resultID := cache.NextResultID(uri)
	cache.Store(uri, resultID, tokens)
	return features.ComputeSemanticTokensDelta(previous, tokens, resultID).Response(), nil
}

// SemanticTokensRange handles textDocument/semanticTokens/range. Range
// results are not cached.
func SemanticTokensRange(context *glsp.Context, params *protocol.SemanticTokensRangeParams) (any, error) {
	uri := params.TextDocument.URI
	srv, doc, ok := openDocument("SemanticTokensRange", uri)
	if !ok {
		return nil, nil
	}

	tokens := features.SemanticTokensInRange(features.SemanticTokens(uri, doc.Text, srv.Index()), params.Range)
	return &protocol.SemanticTokens{Data: features.EncodeSemanticTokens(tokens)}, nil
}
