package features

import (
	"sort"
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-st-lsp/internal/analysis"
	"github.com/CWBudde/go-st-lsp/internal/builtins"
	"github.com/CWBudde/go-st-lsp/internal/scanner"
	"github.com/CWBudde/go-st-lsp/internal/symbols"
	"github.com/CWBudde/go-st-lsp/internal/workspace"
)

// MaxCompletionItems caps the size of a completion list.
const MaxCompletionItems = 200

// Sort key prefixes. Keywords always sort after everything else.
const (
	sortVariable = "1"
	sortUnit     = "2"
	sortStandard = "3"
	sortLiteral  = "4"
	sortSnippet  = "5"
	sortKeyword  = "9"
)

var memberSortKeys = map[string]string{
	builtins.DirectionInput:  "1",
	builtins.DirectionInOut:  "2",
	builtins.DirectionOutput: "3",
	builtins.DirectionLocal:  "4",
}

var literalItems = []struct {
	label  string
	detail string
}{
	{"TRUE", "BOOL literal"},
	{"FALSE", "BOOL literal"},
	{"T#", "TIME literal, e.g. T#1s500ms"},
	{"D#", "DATE literal, e.g. D#2024-01-31"},
	{"TOD#", "TIME_OF_DAY literal, e.g. TOD#12:30:00"},
	{"DT#", "DATE_AND_TIME literal, e.g. DT#2024-01-31-12:30:00"},
}

// CompletionOptions carries the client capabilities that shape completion.
type CompletionOptions struct {
	SnippetSupport bool

	// MaxItems overrides MaxCompletionItems when positive.
	MaxItems int
}

// completionContext describes what is being typed at the cursor.
type completionContext struct {
	prefix   string
	instance string
	member   bool
}

// Completion returns the completion items at pos. Directly after
// `instance.` only the members of the instance's type are offered, inputs
// before outputs. Elsewhere variables, units, standard library entries,
// literals, snippets and keywords are offered in that order.
func Completion(uri protocol.DocumentUri, text string, pos protocol.Position, index *workspace.Index, opts CompletionOptions) *protocol.CompletionList {
	doc := load(uri, text, index)
	limit := opts.MaxItems
	if limit <= 0 {
		limit = MaxCompletionItems
	}

	ctx, ok := doc.completionContextAt(pos)
	if !ok {
		return &protocol.CompletionList{Items: []protocol.CompletionItem{}}
	}

	var items []protocol.CompletionItem
	if ctx.member {
		items = doc.memberCompletions(ctx.instance, int(pos.Line))
	} else {
		items = doc.generalCompletions(int(pos.Line), opts.SnippetSupport)
	}
	items = filterByPrefix(items, ctx.prefix)
	sortItems(items)

	incomplete := false
	if len(items) > limit {
		items = items[:limit]
		incomplete = true
	}
	log.Debugf("completion at %d:%d in %s: %d item(s)", pos.Line, pos.Character, uri, len(items))
	return &protocol.CompletionList{IsIncomplete: incomplete, Items: items}
}

func (d *document) completionContextAt(pos protocol.Position) (completionContext, bool) {
	line := int(pos.Line)
	if line >= len(d.lines) {
		return completionContext{}, false
	}
	col := scanner.ByteColumn(d.lines[line], int(pos.Character))
	if d.insideNonCode(d.starts[line] + col) {
		return completionContext{}, false
	}

	masked := d.masked[line][:col]
	start := col
	for start > 0 && scanner.IsIdentChar(masked[start-1]) {
		start--
	}
	ctx := completionContext{prefix: d.lines[line][start:col]}

	if start > 0 && masked[start-1] == '.' {
		end := start - 1
		instStart := end
		for instStart > 0 && scanner.IsIdentChar(masked[instStart-1]) {
			instStart--
		}
		if instStart < end && scanner.IsIdentStart(masked[instStart]) {
			ctx.member = true
			ctx.instance = d.lines[line][instStart:end]
		}
	}
	return ctx, true
}

func (d *document) memberCompletions(instance string, line int) []protocol.CompletionItem {
	inst := d.resolve(instance, line)
	if inst == nil {
		log.Debugf("member completion: %q is not declared", instance)
		return []protocol.CompletionItem{}
	}
	members := analysis.GetAvailableMembers(inst.DataType, d.customTypes())
	items := make([]protocol.CompletionItem, 0, len(members))
	for _, m := range members {
		kind := protocol.CompletionItemKindField
		if m.IsInput() {
			kind = protocol.CompletionItemKindProperty
		}
		item := protocol.CompletionItem{
			Label:    m.Name,
			Kind:     &kind,
			Detail:   ptr(m.DataType + " (" + m.Direction + ")"),
			SortText: ptr(memberSortKeys[m.Direction] + m.Name),
		}
		if m.Description != "" {
			item.Documentation = m.Description
		}
		items = append(items, item)
	}
	return items
}

func (d *document) generalCompletions(line int, snippets bool) []protocol.CompletionItem {
	var items []protocol.CompletionItem
	seen := make(map[string]bool)

	addSymbol := func(s *symbols.Symbol) {
		if seen[s.NormalizedName] {
			return
		}
		seen[s.NormalizedName] = true
		items = append(items, symbolItem(s))
	}
	for _, s := range symbols.Visible(d.syms, line) {
		addSymbol(s)
	}
	if d.index != nil {
		for _, s := range d.index.GlobalVariables() {
			addSymbol(s)
		}
		for _, s := range d.index.Units() {
			addSymbol(s)
		}
	}
	for _, t := range d.types {
		if key := symbols.Normalize(t.Name); !seen[key] {
			seen[key] = true
			items = append(items, simpleItem(t.Name, protocol.CompletionItemKindStruct, "TYPE", sortUnit))
		}
		for _, v := range t.Values {
			if key := symbols.Normalize(v); !seen[key] {
				seen[key] = true
				items = append(items, simpleItem(v, protocol.CompletionItemKindEnumMember, t.Name, sortVariable))
			}
		}
	}

	for _, fb := range builtins.StandardFunctionBlocks() {
		item := simpleItem(fb.Name, protocol.CompletionItemKindClass, "FUNCTION_BLOCK", sortStandard)
		item.Documentation = fb.Documentation
		items = append(items, item)
	}
	for _, fn := range builtins.StandardFunctions() {
		item := simpleItem(fn.Name, protocol.CompletionItemKindFunction, fn.Detail(), sortStandard)
		item.Documentation = fn.Documentation
		items = append(items, item)
	}
	for _, typ := range builtins.ElementaryTypes() {
		items = append(items, simpleItem(typ, protocol.CompletionItemKindTypeParameter, "data type", sortStandard))
	}

	for _, lit := range literalItems {
		items = append(items, simpleItem(lit.label, protocol.CompletionItemKindValue, lit.detail, sortLiteral))
	}

	if snippets {
		format := protocol.InsertTextFormatSnippet
		for _, sn := range builtins.Snippets() {
			item := simpleItem(sn.Label, protocol.CompletionItemKindSnippet, sn.Detail, sortSnippet)
			item.InsertText = ptr(sn.Body)
			item.InsertTextFormat = &format
			items = append(items, item)
		}
	}

	keywordSeen := make(map[string]bool)
	for _, kw := range append(builtins.ControlKeywords(), builtins.DeclarationKeywords()...) {
		if keywordSeen[kw] {
			continue
		}
		keywordSeen[kw] = true
		items = append(items, simpleItem(kw, protocol.CompletionItemKindKeyword, "keyword", sortKeyword))
	}
	return items
}

func symbolItem(s *symbols.Symbol) protocol.CompletionItem {
	group := sortVariable
	if s.Kind.IsUnit() {
		group = sortUnit
	}
	detail := s.DataType
	if s.Kind.IsUnit() {
		detail = s.Declaration()
	}
	item := simpleItem(s.Name, completionKind(s.Kind), detail, group)
	item.Documentation = protocol.MarkupContent{Kind: protocol.MarkupKindMarkdown, Value: DescribeSymbol(s)}
	return item
}

func simpleItem(label string, kind protocol.CompletionItemKind, detail, group string) protocol.CompletionItem {
	item := protocol.CompletionItem{
		Label:    label,
		Kind:     &kind,
		SortText: ptr(group + label),
	}
	if detail != "" {
		item.Detail = ptr(detail)
	}
	return item
}

func completionKind(k symbols.Kind) protocol.CompletionItemKind {
	switch k {
	case symbols.KindProgram:
		return protocol.CompletionItemKindModule
	case symbols.KindFunction:
		return protocol.CompletionItemKindFunction
	case symbols.KindFunctionBlock:
		return protocol.CompletionItemKindClass
	case symbols.KindParameter:
		return protocol.CompletionItemKindProperty
	case symbols.KindConstant:
		return protocol.CompletionItemKindConstant
	case symbols.KindFunctionBlockInstance:
		return protocol.CompletionItemKindField
	case symbols.KindVariable:
		return protocol.CompletionItemKindVariable
	default:
		return protocol.CompletionItemKindVariable
	}
}

func filterByPrefix(items []protocol.CompletionItem, prefix string) []protocol.CompletionItem {
	if prefix == "" {
		return items
	}
	lower := strings.ToLower(prefix)
	out := items[:0]
	for _, item := range items {
		if strings.HasPrefix(strings.ToLower(item.Label), lower) {
			out = append(out, item)
		}
	}
	return out
}

func sortItems(items []protocol.CompletionItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := sortKey(items[i]), sortKey(items[j])
		if a != b {
			return a < b
		}
		return items[i].Label < items[j].Label
	})
}

func sortKey(item protocol.CompletionItem) string {
	if item.SortText != nil {
		return *item.SortText
	}
	return item.Label
}
