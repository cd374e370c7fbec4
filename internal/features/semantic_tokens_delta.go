package features

import (
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// DeltaThreshold is the share of the full encoding above which a delta is
// not worth sending and the full token set is returned instead.
const DeltaThreshold = 0.7

// SemanticTokensDeltaResult holds either a delta or a full response.
type SemanticTokensDeltaResult struct {
	IsDelta bool
	Delta   *protocol.SemanticTokensDelta
	Full    *protocol.SemanticTokens
}

// Response returns the value to send to the client.
func (r *SemanticTokensDeltaResult) Response() any {
	if r.IsDelta {
		return r.Delta
	}
	return r.Full
}

// ComputeSemanticTokensDelta computes the edits turning oldTokens into
// newTokens. Without previous tokens, or when the edits would be nearly as
// large as the full encoding, a full response is returned.
func ComputeSemanticTokensDelta(oldTokens, newTokens []SemanticToken, resultID string) *SemanticTokensDeltaResult {
	newEncoded := EncodeSemanticTokens(newTokens)
	full := &SemanticTokensDeltaResult{
		Full: &protocol.SemanticTokens{ResultID: &resultID, Data: newEncoded},
	}
	if len(oldTokens) == 0 {
		return full
	}

	oldEncoded := EncodeSemanticTokens(oldTokens)
	edits := diffEncoded(oldEncoded, newEncoded)

	size := 0
	for _, e := range edits {
		size += 2 + len(e.Data)
	}
	if len(newEncoded) > 0 && float64(size) > float64(len(newEncoded))*DeltaThreshold {
		log.Debugf("semantic token delta too large (%d of %d), sending full set", size, len(newEncoded))
		return full
	}

	return &SemanticTokensDeltaResult{
		IsDelta: true,
		Delta:   &protocol.SemanticTokensDelta{ResultId: &resultID, Edits: edits},
	}
}

// diffEncoded returns a single edit replacing everything between the common
// prefix and the common suffix of two encodings, or no edit when they match.
func diffEncoded(oldData, newData []protocol.UInteger) []protocol.SemanticTokensEdit {
	prefix := 0
	for prefix < len(oldData) && prefix < len(newData) && oldData[prefix] == newData[prefix] {
		prefix++
	}
	if prefix == len(oldData) && prefix == len(newData) {
		return []protocol.SemanticTokensEdit{}
	}

	suffix := 0
	for suffix < len(oldData)-prefix && suffix < len(newData)-prefix &&
		oldData[len(oldData)-1-suffix] == newData[len(newData)-1-suffix] {
		suffix++
	}

	return []protocol.SemanticTokensEdit{{
		Start:       protocol.UInteger(prefix),
		DeleteCount: protocol.UInteger(len(oldData) - suffix - prefix),
		Data:        append([]protocol.UInteger{}, newData[prefix:len(newData)-suffix]...),
	}}
}
