package features

import (
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-st-lsp/internal/symbols"
	"github.com/CWBudde/go-st-lsp/internal/workspace"
)

// MaxWorkspaceSymbols caps the result of a workspace symbol query.
const MaxWorkspaceSymbols = 200

// SymbolKind maps a symbol kind to its LSP symbol kind.
func SymbolKind(k symbols.Kind) protocol.SymbolKind {
	switch k {
	case symbols.KindProgram:
		return protocol.SymbolKindModule
	case symbols.KindFunction:
		return protocol.SymbolKindFunction
	case symbols.KindFunctionBlock:
		return protocol.SymbolKindClass
	case symbols.KindParameter:
		return protocol.SymbolKindProperty
	case symbols.KindConstant:
		return protocol.SymbolKindConstant
	case symbols.KindFunctionBlockInstance:
		return protocol.SymbolKindField
	case symbols.KindVariable:
		return protocol.SymbolKindVariable
	default:
		return protocol.SymbolKindVariable
	}
}

// DocumentSymbols returns the outline of text: units with their members as
// children and variables declared outside any unit, followed by the TYPE
// declarations.
func DocumentSymbols(uri protocol.DocumentUri, text string) []protocol.DocumentSymbol {
	syms := symbols.Extract(uri, text)
	out := []protocol.DocumentSymbol{}
	for _, s := range symbols.TopLevel(syms) {
		ds := documentSymbol(s)
		for _, m := range s.Members {
			ds.Children = append(ds.Children, documentSymbol(m))
		}
		out = append(out, ds)
	}
	for _, t := range symbols.DeclaredTypes(uri, text) {
		kind := protocol.SymbolKindStruct
		if len(t.Values) > 0 {
			kind = protocol.SymbolKindEnum
		}
		ds := protocol.DocumentSymbol{
			Name:           t.Name,
			Kind:           kind,
			Range:          t.Location.Range,
			SelectionRange: t.Location.Range,
		}
		for _, v := range t.Values {
			ds.Children = append(ds.Children, protocol.DocumentSymbol{
				Name:           v,
				Kind:           protocol.SymbolKindEnumMember,
				Range:          t.Location.Range,
				SelectionRange: t.Location.Range,
			})
		}
		out = append(out, ds)
	}
	return out
}

func documentSymbol(s *symbols.Symbol) protocol.DocumentSymbol {
	ds := protocol.DocumentSymbol{
		Name:           s.Name,
		Kind:           SymbolKind(s.Kind),
		Range:          s.FullRange,
		SelectionRange: s.Location.Range,
	}
	if detail := symbolDetail(s); detail != "" {
		ds.Detail = &detail
	}
	// The full range must contain the selection range.
	if !contains(ds.Range, ds.SelectionRange) {
		ds.Range = ds.SelectionRange
	}
	return ds
}

func symbolDetail(s *symbols.Symbol) string {
	if s.Kind == symbols.KindFunction {
		return s.ReturnType
	}
	if s.Kind.IsUnit() {
		return ""
	}
	return s.DataType
}

func contains(outer, inner protocol.Range) bool {
	return !before(inner.Start, outer.Start) && !before(outer.End, inner.End)
}

func before(a, b protocol.Position) bool {
	return a.Line < b.Line || (a.Line == b.Line && a.Character < b.Character)
}

// WorkspaceSymbols returns the indexed symbols whose names contain query,
// ignoring case.
func WorkspaceSymbols(query string, index *workspace.Index) []protocol.SymbolInformation {
	out := []protocol.SymbolInformation{}
	if index == nil {
		return out
	}
	for _, s := range index.Search(query, MaxWorkspaceSymbols) {
		info := protocol.SymbolInformation{
			Name:     s.Name,
			Kind:     SymbolKind(s.Kind),
			Location: s.Location,
		}
		if s.ParentSymbol != "" {
			container := s.ParentSymbol
			info.ContainerName = &container
		}
		out = append(out, info)
	}
	return out
}

// References returns the occurrences of the identifier under pos in the
// document together with the declaration sites recorded by the index. The
// declarations are dropped when includeDeclaration is false.
func References(uri protocol.DocumentUri, text string, pos protocol.Position, index *workspace.Index, includeDeclaration bool) []protocol.Location {
	doc := load(uri, text, index)
	w, err := doc.wordAt(pos)
	if err != nil {
		return []protocol.Location{}
	}

	var declarations []protocol.Location
	if index != nil {
		declarations = index.FindSymbolReferences(w.text)
	}
	for _, s := range doc.syms {
		if s.Matches(w.text) {
			declarations = append(declarations, s.Location)
		}
	}

	seen := make(map[protocol.Location]bool)
	out := []protocol.Location{}
	add := func(loc protocol.Location) {
		if !seen[loc] {
			seen[loc] = true
			out = append(out, loc)
		}
	}

	isDeclaration := make(map[protocol.Location]bool, len(declarations))
	for _, loc := range declarations {
		isDeclaration[loc] = true
		if includeDeclaration {
			add(loc)
		}
	}
	for _, o := range doc.occurrences(w.text) {
		loc := protocol.Location{URI: uri, Range: doc.rangeOf(o)}
		if !includeDeclaration && isDeclaration[loc] {
			continue
		}
		add(loc)
	}
	return out
}
