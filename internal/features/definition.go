package features

import (
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-st-lsp/internal/analysis"
	"github.com/CWBudde/go-st-lsp/internal/builtins"
	"github.com/CWBudde/go-st-lsp/internal/symbols"
	"github.com/CWBudde/go-st-lsp/internal/workspace"
)

// Definition returns the declaration sites of the identifier under pos.
//
// On the member half of `instance.member` the member of the instance's type
// is returned. Members of standard function blocks have no source, so their
// location is the declaration of the instance itself. Plain identifiers are
// looked up in the enclosing unit, the document, and then the workspace
// index (exact case first, then case-insensitive).
func Definition(uri protocol.DocumentUri, text string, pos protocol.Position, index *workspace.Index) []protocol.Location {
	doc := load(uri, text, index)

	if expr, part, ok := doc.memberAccess(pos); ok && part == analysis.AccessMember {
		if loc, found := doc.memberDefinition(expr); found {
			return []protocol.Location{loc}
		}
		return nil
	}

	w, err := doc.wordAt(pos)
	if err != nil {
		log.Debugf("no identifier at %d:%d in %s: %v", pos.Line, pos.Character, uri, err)
		return nil
	}
	if builtins.IsReserved(w.text) {
		return nil
	}

	if s := symbols.Resolve(doc.syms, w.text, w.line); s != nil {
		return []protocol.Location{s.Location}
	}
	if t, ok := doc.typeDecl(w.text); ok {
		return []protocol.Location{t.Location}
	}
	if index == nil {
		return nil
	}
	return index.FindSymbolDefinition(w.text)
}

func (d *document) memberDefinition(expr analysis.MemberAccessExpression) (protocol.Location, bool) {
	line := int(expr.InstanceRange.Start.Line)
	inst := d.resolve(expr.Instance, line)
	if inst == nil {
		return protocol.Location{}, false
	}
	member, ok := analysis.FindMember(inst.DataType, expr.Member, d.customTypes())
	if !ok {
		return protocol.Location{}, false
	}
	if member.Symbol != nil {
		return member.Symbol.Location, true
	}
	// Members of standard blocks have no source; the instance declaration
	// is the closest location that names their type.
	return inst.Location, true
}
