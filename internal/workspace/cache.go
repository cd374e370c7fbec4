package workspace

import (
	lru "github.com/hashicorp/golang-lru/v2"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/zeebo/xxh3"

	"github.com/CWBudde/go-st-lsp/internal/symbols"
)

// DefaultCacheSize is the number of distinct document texts whose extraction
// results are retained.
const DefaultCacheSize = 256

type extraction struct {
	symbols []*symbols.Symbol
	types   []symbols.TypeDecl
}

// Extractor memoizes symbol extraction by content hash. Identical text under
// different URIs shares one extraction; callers always receive clones carrying
// their own URI.
type Extractor struct {
	cache *lru.Cache[uint64, extraction]
}

// NewExtractor creates an extractor retaining up to size results.
func NewExtractor(size int) *Extractor {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[uint64, extraction](size)
	if err != nil {
		log.Errorf("extraction cache disabled: %s", err)
	}
	return &Extractor{cache: cache}
}

// Extract returns the symbols and type declarations of text as seen at uri.
func (e *Extractor) Extract(uri protocol.DocumentUri, text string) ([]*symbols.Symbol, []symbols.TypeDecl) {
	key := xxh3.HashString(text)
	if e.cache != nil {
		if hit, ok := e.cache.Get(key); ok {
			return symbols.CloneAll(hit.symbols, uri), cloneTypes(hit.types, uri)
		}
	}

	result := extraction{
		symbols: symbols.Extract(uri, text),
		types:   symbols.DeclaredTypes(uri, text),
	}
	if e.cache != nil {
		e.cache.Add(key, result)
	}
	return symbols.CloneAll(result.symbols, uri), cloneTypes(result.types, uri)
}

// Len returns the number of cached extractions.
func (e *Extractor) Len() int {
	if e.cache == nil {
		return 0
	}
	return e.cache.Len()
}

// Purge drops all cached extractions.
func (e *Extractor) Purge() {
	if e.cache != nil {
		e.cache.Purge()
	}
}

func cloneTypes(types []symbols.TypeDecl, uri protocol.DocumentUri) []symbols.TypeDecl {
	if types == nil {
		return nil
	}
	out := make([]symbols.TypeDecl, len(types))
	for i, t := range types {
		t.Location.URI = uri
		t.Values = append([]string(nil), t.Values...)
		out[i] = t
	}
	return out
}
