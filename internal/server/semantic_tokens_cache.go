package server

import (
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/zeebo/xxh3"

	"github.com/CWBudde/go-st-lsp/internal/features"
)

// CachedTokens is the last token set sent for a document.
type CachedTokens struct {
	ResultID string
	Tokens   []features.SemanticToken
}

// SemanticTokensCache keeps the most recent semantic tokens per document so
// that full/delta requests can be answered with edits.
type SemanticTokensCache struct {
	mu     sync.RWMutex
	latest map[string]*CachedTokens
	seq    atomic.Uint64
}

// NewSemanticTokensCache creates an empty cache.
func NewSemanticTokensCache() *SemanticTokensCache {
	return &SemanticTokensCache{latest: make(map[string]*CachedTokens)}
}

// NextResultID returns a fresh result identifier for a token set of uri.
// The sequence number keeps identifiers unique when the same tokens are
// sent twice.
func (c *SemanticTokensCache) NextResultID(uri string) string {
	n := c.seq.Add(1)
	return strconv.FormatUint(xxh3.HashString(uri)^n, 36) + "-" + strconv.FormatUint(n, 10)
}

// Store records tokens as the latest result for uri.
func (c *SemanticTokensCache) Store(uri, resultID string, tokens []features.SemanticToken) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latest[uri] = &CachedTokens{ResultID: resultID, Tokens: tokens}
}

// Retrieve returns the cached tokens of uri if resultID is the latest
// result sent for it.
func (c *SemanticTokensCache) Retrieve(uri, resultID string) (*CachedTokens, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cached, ok := c.latest[uri]
	if !ok || cached.ResultID != resultID {
		return nil, false
	}
	return cached, true
}

// LatestResultID returns the last result identifier of uri, or "".
func (c *SemanticTokensCache) LatestResultID(uri string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if cached, ok := c.latest[uri]; ok {
		return cached.ResultID
	}
	return ""
}

// InvalidateDocument forgets the tokens of uri.
func (c *SemanticTokensCache) InvalidateDocument(uri string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.latest, uri)
}

// Size returns the number of cached documents.
func (c *SemanticTokensCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.latest)
}
