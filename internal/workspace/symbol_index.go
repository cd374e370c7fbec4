// Package workspace provides workspace-wide symbol indexing and management.
package workspace

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-st-lsp/internal/symbols"
)

var log = commonlog.GetLogger("st-lsp.workspace")

// FileIndex is the extracted content of one file. It is replaced wholesale on
// every update.
type FileIndex struct {
	URI          protocol.DocumentUri
	Symbols      []*symbols.Symbol
	Types        []symbols.TypeDecl
	LastModified time.Time
}

// Stats summarizes the content of the index.
type Stats struct {
	Files           int
	Programs        int
	Functions       int
	FunctionBlocks  int
	GlobalVariables int
	Symbols         int
	References      int
	LastUpdated     time.Time
}

// Index maintains the workspace-wide symbol tables. Category maps hold each
// declaration under its original-case name and, when different, under its
// lowercase name as well. All methods are safe for concurrent use.
type Index struct {
	programs        map[string]*symbols.Symbol
	functions       map[string]*symbols.Symbol
	functionBlocks  map[string]*symbols.Symbol
	globalVariables map[string]*symbols.Symbol

	fileIndex    map[protocol.DocumentUri]*FileIndex
	referenceMap map[string][]protocol.Location
	lastUpdated  time.Time

	extractor *Extractor

	mutex sync.RWMutex
}

// NewIndex creates a new empty index.
func NewIndex() *Index {
	return &Index{
		programs:        make(map[string]*symbols.Symbol),
		functions:       make(map[string]*symbols.Symbol),
		functionBlocks:  make(map[string]*symbols.Symbol),
		globalVariables: make(map[string]*symbols.Symbol),
		fileIndex:       make(map[protocol.DocumentUri]*FileIndex),
		referenceMap:    make(map[string][]protocol.Location),
		extractor:       NewExtractor(DefaultCacheSize),
	}
}

// Extractor returns the cached extractor used for index updates.
func (idx *Index) Extractor() *Extractor {
	return idx.extractor
}

// UpdateFileIndex re-extracts uri from text and replaces the file's previous
// contribution. Extraction happens before the lock is taken; removal and
// insertion happen under one write lock so readers never see a partial file.
func (idx *Index) UpdateFileIndex(uri protocol.DocumentUri, text string) *FileIndex {
	syms, types := idx.extractor.Extract(uri, text)
	return idx.install(uri, syms, types)
}

// install replaces the contribution of uri with already extracted content.
func (idx *Index) install(uri protocol.DocumentUri, syms []*symbols.Symbol, types []symbols.TypeDecl) *FileIndex {
	file := &FileIndex{
		URI:          uri,
		Symbols:      syms,
		Types:        types,
		LastModified: time.Now(),
	}

	idx.mutex.Lock()
	defer idx.mutex.Unlock()

	idx.removeLocked(uri)
	idx.fileIndex[uri] = file
	for _, s := range syms {
		idx.categorizeLocked(s)
		key := s.NormalizedName
		idx.referenceMap[key] = append(idx.referenceMap[key], s.Location)
	}
	idx.lastUpdated = file.LastModified

	log.Debugf("indexed %s: %d symbols", uri, len(syms))
	return file
}

// RemoveFileFromIndex retracts every symbol of uri from all maps.
func (idx *Index) RemoveFileFromIndex(uri protocol.DocumentUri) {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()

	if idx.removeLocked(uri) {
		idx.lastUpdated = time.Now()
		log.Debugf("removed %s from index", uri)
	}
}

func (idx *Index) removeLocked(uri protocol.DocumentUri) bool {
	file, exists := idx.fileIndex[uri]
	if !exists {
		return false
	}
	delete(idx.fileIndex, uri)

	affected := make(map[string]bool)
	for _, s := range file.Symbols {
		affected[s.NormalizedName] = true
	}

	for _, m := range idx.categoryMaps() {
		for key, s := range m {
			if s.Location.URI == uri {
				delete(m, key)
			}
		}
	}

	for name := range affected {
		var remaining []protocol.Location
		for _, loc := range idx.referenceMap[name] {
			if loc.URI != uri {
				remaining = append(remaining, loc)
			}
		}
		if len(remaining) > 0 {
			idx.referenceMap[name] = remaining
		} else {
			delete(idx.referenceMap, name)
		}
	}

	// Declarations of other files that were shadowed by this file's
	// declarations of the same name get their category entries back.
	for _, uri := range idx.sortedURIsLocked() {
		for _, s := range idx.fileIndex[uri].Symbols {
			if affected[s.NormalizedName] {
				idx.categorizeLockedIfAbsent(s)
			}
		}
	}
	return true
}

func (idx *Index) categoryMaps() []map[string]*symbols.Symbol {
	return []map[string]*symbols.Symbol{idx.programs, idx.functions, idx.functionBlocks, idx.globalVariables}
}

// categoryFor returns the category map of a symbol, or nil when the symbol
// is not categorized.
func (idx *Index) categoryFor(s *symbols.Symbol) map[string]*symbols.Symbol {
	switch s.Kind {
	case symbols.KindProgram:
		return idx.programs
	case symbols.KindFunction:
		return idx.functions
	case symbols.KindFunctionBlock:
		return idx.functionBlocks
	case symbols.KindVariable, symbols.KindParameter, symbols.KindConstant, symbols.KindFunctionBlockInstance:
		if s.Scope == symbols.ScopeGlobal {
			return idx.globalVariables
		}
		return nil
	default:
		return nil
	}
}

func (idx *Index) categorizeLocked(s *symbols.Symbol) {
	m := idx.categoryFor(s)
	if m == nil {
		return
	}
	m[s.Name] = s
	if s.NormalizedName != s.Name {
		m[s.NormalizedName] = s
	}
}

func (idx *Index) categorizeLockedIfAbsent(s *symbols.Symbol) {
	m := idx.categoryFor(s)
	if m == nil {
		return
	}
	if _, exists := m[s.NormalizedName]; exists {
		return
	}
	idx.categorizeLocked(s)
}

func (idx *Index) sortedURIsLocked() []protocol.DocumentUri {
	uris := make([]protocol.DocumentUri, 0, len(idx.fileIndex))
	for uri := range idx.fileIndex {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	return uris
}

// allSymbolsLocked returns every indexed symbol ordered by file and position.
func (idx *Index) allSymbolsLocked() []*symbols.Symbol {
	var out []*symbols.Symbol
	for _, uri := range idx.sortedURIsLocked() {
		out = append(out, idx.fileIndex[uri].Symbols...)
	}
	return out
}

// FindSymbolDefinition resolves name to definition locations. Exact-case
// matches win over case-insensitive ones. As a last resort, string-typed
// variables whose names contain name are returned.
func (idx *Index) FindSymbolDefinition(name string) []protocol.Location {
	if name == "" {
		return nil
	}

	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	// Units and globals of every file come first, then locals and members.
	var locations []protocol.Location
	all := idx.allSymbolsLocked()
	for _, s := range all {
		if s.Name == name && idx.categoryFor(s) != nil {
			locations = append(locations, s.Location)
		}
	}
	if len(locations) > 0 {
		return locations
	}

	for _, s := range all {
		if s.Name == name {
			locations = append(locations, s.Location)
		}
	}
	if len(locations) > 0 {
		return locations
	}

	key := symbols.Normalize(name)
	for _, s := range all {
		if s.NormalizedName == key {
			locations = append(locations, s.Location)
		}
	}
	if len(locations) > 0 {
		return locations
	}

	for _, s := range all {
		if s.IsStringTyped() && strings.Contains(s.NormalizedName, key) {
			locations = append(locations, s.Location)
		}
	}
	return locations
}

// FindSymbolsByName returns every symbol named name, ignoring case.
func (idx *Index) FindSymbolsByName(name string) []*symbols.Symbol {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	key := symbols.Normalize(name)
	var out []*symbols.Symbol
	for _, s := range idx.allSymbolsLocked() {
		if s.NormalizedName == key {
			out = append(out, s)
		}
	}
	return out
}

// FindSymbolReferences returns the recorded locations of name. Only
// declaration sites are recorded, so this is a proxy for real references.
func (idx *Index) FindSymbolReferences(name string) []protocol.Location {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	refs := idx.referenceMap[symbols.Normalize(name)]
	result := make([]protocol.Location, len(refs))
	copy(result, refs)
	return result
}

// LookupUnit returns the program, function or function block named name.
func (idx *Index) LookupUnit(name string) *symbols.Symbol {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	for _, m := range []map[string]*symbols.Symbol{idx.functionBlocks, idx.functions, idx.programs} {
		if s, ok := m[name]; ok {
			return s
		}
		if s, ok := m[symbols.Normalize(name)]; ok {
			return s
		}
	}
	return nil
}

// LookupGlobal returns the global variable named name.
func (idx *Index) LookupGlobal(name string) *symbols.Symbol {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	if s, ok := idx.globalVariables[name]; ok {
		return s
	}
	return idx.globalVariables[symbols.Normalize(name)]
}

// FunctionBlocks returns the user function blocks keyed by normalized name.
func (idx *Index) FunctionBlocks() map[string]*symbols.Symbol {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	out := make(map[string]*symbols.Symbol, len(idx.functionBlocks))
	for _, s := range idx.functionBlocks {
		out[s.NormalizedName] = s
	}
	return out
}

// Units returns every indexed program, function and function block.
func (idx *Index) Units() []*symbols.Symbol {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	var out []*symbols.Symbol
	for _, s := range idx.allSymbolsLocked() {
		if s.Kind.IsUnit() {
			out = append(out, s)
		}
	}
	return out
}

// GlobalVariables returns the distinct global variables of the workspace.
func (idx *Index) GlobalVariables() []*symbols.Symbol {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	return distinct(idx.globalVariables)
}

// HasName reports whether name is a unit, global variable, data type or
// enumerator declared anywhere in the workspace.
func (idx *Index) HasName(name string) bool {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	key := symbols.Normalize(name)
	for _, m := range idx.categoryMaps() {
		if _, ok := m[key]; ok {
			return true
		}
	}
	for _, file := range idx.fileIndex {
		for _, t := range file.Types {
			if symbols.Normalize(t.Name) == key {
				return true
			}
			for _, v := range t.Values {
				if symbols.Normalize(v) == key {
					return true
				}
			}
		}
	}
	return false
}

// SymbolsInFile returns the symbols extracted from uri.
func (idx *Index) SymbolsInFile(uri protocol.DocumentUri) []*symbols.Symbol {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	file, exists := idx.fileIndex[uri]
	if !exists {
		return nil
	}
	result := make([]*symbols.Symbol, len(file.Symbols))
	copy(result, file.Symbols)
	return result
}

// HasFile reports whether uri is indexed.
func (idx *Index) HasFile(uri protocol.DocumentUri) bool {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	_, exists := idx.fileIndex[uri]
	return exists
}

// Files returns the indexed URIs in sorted order.
func (idx *Index) Files() []protocol.DocumentUri {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	return idx.sortedURIsLocked()
}

// Search returns symbols whose names contain query, ignoring case. An empty
// query matches everything. maxResults <= 0 means no limit.
func (idx *Index) Search(query string, maxResults int) []*symbols.Symbol {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	queryLower := strings.ToLower(query)
	var results []*symbols.Symbol
	for _, s := range idx.allSymbolsLocked() {
		if queryLower != "" && !strings.Contains(s.NormalizedName, queryLower) {
			continue
		}
		results = append(results, s)
		if maxResults > 0 && len(results) >= maxResults {
			break
		}
	}
	return results
}

// GetIndexStats returns counts of the indexed content.
func (idx *Index) GetIndexStats() Stats {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	stats := Stats{
		Files:           len(idx.fileIndex),
		Programs:        len(distinct(idx.programs)),
		Functions:       len(distinct(idx.functions)),
		FunctionBlocks:  len(distinct(idx.functionBlocks)),
		GlobalVariables: len(distinct(idx.globalVariables)),
		LastUpdated:     idx.lastUpdated,
	}
	for _, file := range idx.fileIndex {
		stats.Symbols += len(file.Symbols)
	}
	for _, refs := range idx.referenceMap {
		stats.References += len(refs)
	}
	return stats
}

// Clear removes all files from the index.
func (idx *Index) Clear() {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()

	for _, m := range idx.categoryMaps() {
		clear(m)
	}
	clear(idx.fileIndex)
	clear(idx.referenceMap)
	idx.lastUpdated = time.Now()

	log.Info("symbol index cleared")
}

// distinct returns the entries of a category map without alias duplicates,
// ordered by location.
func distinct(m map[string]*symbols.Symbol) []*symbols.Symbol {
	seen := make(map[*symbols.Symbol]bool, len(m))
	var out []*symbols.Symbol
	for _, s := range m {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Location, out[j].Location
		if a.URI != b.URI {
			return a.URI < b.URI
		}
		if a.Range.Start.Line != b.Range.Start.Line {
			return a.Range.Start.Line < b.Range.Start.Line
		}
		return a.Range.Start.Character < b.Range.Start.Character
	})
	return out
}
