package features

import (
	"fmt"
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-st-lsp/internal/analysis"
	"github.com/CWBudde/go-st-lsp/internal/builtins"
	"github.com/CWBudde/go-st-lsp/internal/symbols"
	"github.com/CWBudde/go-st-lsp/internal/workspace"
)

const codeFence = "```"

// Hover describes the identifier under pos as Markdown. It returns nil for
// keywords, unknown names and positions outside code.
func Hover(uri protocol.DocumentUri, text string, pos protocol.Position, index *workspace.Index) *protocol.Hover {
	doc := load(uri, text, index)

	if expr, part, ok := doc.memberAccess(pos); ok && part == analysis.AccessMember {
		value, found := doc.memberHover(expr)
		if !found {
			return nil
		}
		return markdownHover(value, expr.MemberRange)
	}

	w, err := doc.wordAt(pos)
	if err != nil {
		return nil
	}
	rng := doc.rangeOf(w)

	if s := symbols.Resolve(doc.syms, w.text, w.line); s != nil {
		return markdownHover(DescribeSymbol(s), rng)
	}
	if t, ok := doc.typeDecl(w.text); ok {
		return markdownHover(describeType(t), rng)
	}
	if value, ok := describeBuiltin(w.text); ok {
		return markdownHover(value, rng)
	}
	if index == nil {
		return nil
	}
	if s := index.LookupUnit(w.text); s != nil {
		return markdownHover(DescribeSymbol(s), rng)
	}
	if s := index.LookupGlobal(w.text); s != nil {
		return markdownHover(DescribeSymbol(s), rng)
	}
	if found := index.FindSymbolsByName(w.text); len(found) > 0 {
		return markdownHover(DescribeSymbol(found[0]), rng)
	}
	return nil
}

func markdownHover(value string, rng protocol.Range) *protocol.Hover {
	return &protocol.Hover{
		Contents: protocol.MarkupContent{Kind: protocol.MarkupKindMarkdown, Value: value},
		Range:    &rng,
	}
}

// DescribeSymbol renders a symbol as Markdown: the declaration in a code
// block, its kind and scope, the parameter list of units and the comment
// attached to the declaration.
func DescribeSymbol(s *symbols.Symbol) string {
	var b strings.Builder
	b.WriteString(codeFence + "iecst\n" + s.Declaration() + "\n" + codeFence + "\n")

	kind := s.Kind.String()
	if s.Section != "" {
		kind += " in " + s.Section
	}
	if s.ParentSymbol != "" {
		kind += " of " + s.ParentSymbol
	}
	b.WriteString("\n*" + kind + "*\n")

	if s.Kind.IsUnit() && len(s.Parameters) > 0 {
		b.WriteString("\n**Parameters**\n\n")
		for _, p := range s.Parameters {
			fmt.Fprintf(&b, "- `%s : %s` (%s)\n", p.Name, p.DataType, p.Direction.Section())
		}
	}
	if s.Description != "" {
		b.WriteString("\n" + s.Description + "\n")
	}
	return b.String()
}

func describeType(t symbols.TypeDecl) string {
	var b strings.Builder
	b.WriteString(codeFence + "iecst\nTYPE " + t.Name + "\n" + codeFence + "\n")
	if len(t.Values) > 0 {
		b.WriteString("\nEnumeration: " + strings.Join(t.Values, ", ") + "\n")
	}
	return b.String()
}

func describeMember(m analysis.MemberDefinition, owner string) string {
	var b strings.Builder
	b.WriteString(codeFence + "iecst\n" + m.Name + " : " + m.DataType + "\n" + codeFence + "\n")
	fmt.Fprintf(&b, "\n*%s of %s*\n", m.Direction, owner)
	if m.Description != "" {
		b.WriteString("\n" + m.Description + "\n")
	}
	return b.String()
}

func (d *document) memberHover(expr analysis.MemberAccessExpression) (string, bool) {
	inst := d.resolve(expr.Instance, int(expr.InstanceRange.Start.Line))
	if inst == nil {
		return "", false
	}
	m, ok := analysis.FindMember(inst.DataType, expr.Member, d.customTypes())
	if !ok {
		return "", false
	}
	return describeMember(m, inst.DataType), true
}

func describeBuiltin(name string) (string, bool) {
	if fb, ok := builtins.LookupFunctionBlock(name); ok {
		var b strings.Builder
		b.WriteString(codeFence + "iecst\nFUNCTION_BLOCK " + fb.Name + "\n" + codeFence + "\n")
		b.WriteString("\n" + fb.Documentation + "\n\n")
		for _, m := range fb.Members {
			fmt.Fprintf(&b, "- `%s : %s` (%s) %s\n", m.Name, m.DataType, m.Direction, m.Description)
		}
		return b.String(), true
	}
	if fn, ok := builtins.GetBuiltinSignature(name); ok {
		return codeFence + "iecst\n" + fn.Detail() + "\n" + codeFence + "\n\n" + fn.Documentation + "\n", true
	}
	if builtins.IsElementaryType(name) {
		return codeFence + "iecst\n" + strings.ToUpper(name) + "\n" + codeFence + "\n\nElementary data type\n", true
	}
	if builtins.IsGenericType(name) {
		return codeFence + "iecst\n" + strings.ToUpper(name) + "\n" + codeFence + "\n\nGeneric data type\n", true
	}
	return "", false
}
