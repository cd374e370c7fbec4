package server

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CWBudde/go-st-lsp/internal/features"
)

func TestSemanticTokensCache_StoreAndRetrieve(t *testing.T) {
	cache := NewSemanticTokensCache()
	assert.Equal(t, 0, cache.Size())

	uri := "file:///main.st"
	tokens := []features.SemanticToken{
		{Line: 0, StartChar: 0, Length: 7, TokenType: features.TokenTypeKeyword},
		{Line: 0, StartChar: 8, Length: 4, TokenType: features.TokenTypeNamespace, Modifiers: features.TokenModifierDeclaration},
	}
	id := cache.NextResultID(uri)
	cache.Store(uri, id, tokens)

	cached, ok := cache.Retrieve(uri, id)
	require.True(t, ok)
	assert.Equal(t, tokens, cached.Tokens)
	assert.Equal(t, id, cache.LatestResultID(uri))
	assert.Equal(t, 1, cache.Size())

	_, ok = cache.Retrieve(uri, "stale")
	assert.False(t, ok)
	_, ok = cache.Retrieve("file:///other.st", id)
	assert.False(t, ok)
}

func TestSemanticTokensCache_OnlyLatestResultIsKept(t *testing.T) {
	cache := NewSemanticTokensCache()
	uri := "file:///main.st"

	first := cache.NextResultID(uri)
	cache.Store(uri, first, nil)
	second := cache.NextResultID(uri)
	cache.Store(uri, second, nil)

	assert.NotEqual(t, first, second)
	_, ok := cache.Retrieve(uri, first)
	assert.False(t, ok)
	_, ok = cache.Retrieve(uri, second)
	assert.True(t, ok)
}

func TestSemanticTokensCache_InvalidateDocument(t *testing.T) {
	cache := NewSemanticTokensCache()
	cache.Store("file:///a.st", "1", nil)
	cache.Store("file:///b.st", "2", nil)

	cache.InvalidateDocument("file:///a.st")

	assert.Equal(t, "", cache.LatestResultID("file:///a.st"))
	assert.Equal(t, "2", cache.LatestResultID("file:///b.st"))
	assert.Equal(t, 1, cache.Size())
}

func TestSemanticTokensCache_ResultIDsAreUnique(t *testing.T) {
	cache := NewSemanticTokensCache()

	var mu sync.Mutex
	seen := map[string]bool{}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			uri := fmt.Sprintf("file:///f%d.st", i%2)
			for n := 0; n < 50; n++ {
				id := cache.NextResultID(uri)
				cache.Store(uri, id, nil)
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 400)
	assert.Equal(t, 2, cache.Size())
}

func TestServerSemanticTokensCache(t *testing.T) {
	srv := New()
	require.NotNil(t, srv.SemanticTokens())
	assert.Same(t, srv.SemanticTokens(), srv.SemanticTokens())
}
