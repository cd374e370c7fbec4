package server

import (
	"sort"
	"sync"
)

// Document is an open Structured Text document as last sent by the client.
type Document struct {
	URI        string
	Text       string
	Version    int
	LanguageID string
}

// DocumentStore holds the open documents. Documents are replaced on every
// change and never mutated, so a *Document obtained from the store is a
// stable snapshot.
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

func NewDocumentStore() *DocumentStore {
	return &DocumentStore{docs: make(map[string]*Document)}
}

// Open stores doc, replacing any document with the same URI.
func (ds *DocumentStore) Open(doc *Document) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.docs[doc.URI] = doc
}

// Update replaces the text of an open document. Changes older than the
// stored version are dropped; ok is false for those and for unknown URIs.
func (ds *DocumentStore) Update(uri, text string, version int) (doc *Document, ok bool) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	old, exists := ds.docs[uri]
	if !exists || (version > 0 && version < old.Version) {
		return nil, false
	}
	doc = &Document{URI: uri, Text: text, Version: version, LanguageID: old.LanguageID}
	ds.docs[uri] = doc
	return doc, true
}

// Close forgets uri.
func (ds *DocumentStore) Close(uri string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	delete(ds.docs, uri)
}

func (ds *DocumentStore) Get(uri string) (*Document, bool) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	doc, ok := ds.docs[uri]
	return doc, ok
}

// IsOpen reports whether the client owns the content of uri.
func (ds *DocumentStore) IsOpen(uri string) bool {
	_, ok := ds.Get(uri)
	return ok
}

// Snapshot returns the open documents ordered by URI.
func (ds *DocumentStore) Snapshot() []*Document {
	ds.mu.RLock()
	docs := make([]*Document, 0, len(ds.docs))
	for _, doc := range ds.docs {
		docs = append(docs, doc)
	}
	ds.mu.RUnlock()

	sort.Slice(docs, func(i, j int) bool { return docs[i].URI < docs[j].URI })
	return docs
}
