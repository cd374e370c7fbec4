package analysis

import (
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-st-lsp/internal/scanner"
	"github.com/CWBudde/go-st-lsp/internal/symbols"
)

// MemberAccessExpression is an `instance.member` occurrence in a document.
type MemberAccessExpression struct {
	Instance string
	Member   string

	// InstanceType is the declared type of the instance when it could be
	// resolved.
	InstanceType string

	FullRange     protocol.Range
	InstanceRange protocol.Range
	MemberRange   protocol.Range
}

// AccessPart says which half of a member access a position falls on.
type AccessPart int

const (
	AccessNone AccessPart = iota
	AccessInstance
	AccessMember
)

func (p AccessPart) String() string {
	switch p {
	case AccessInstance:
		return "instance"
	case AccessMember:
		return "member"
	default:
		return "none"
	}
}

// ParseMemberAccess finds every `identifier.identifier` pair outside
// comments and strings. In a chain a.b.c both a.b and b.c are reported.
func ParseMemberAccess(text string) []MemberAccessExpression {
	scan := scanner.Scan(text)
	lines := scan.Lines()
	var exprs []MemberAccessExpression
	for ln, masked := range scan.MaskedLines() {
		toks := scanner.Tokenize(masked)
		for i := 0; i+2 < len(toks); i++ {
			inst, dot, member := toks[i], toks[i+1], toks[i+2]
			if inst.Kind != scanner.TokIdent || dot.Text != "." || member.Kind != scanner.TokIdent {
				continue
			}
			if dot.Start != inst.End || member.Start != dot.End {
				continue
			}
			exprs = append(exprs, MemberAccessExpression{
				Instance:      inst.Text,
				Member:        member.Text,
				FullRange:     scanner.Range(lines, ln, inst.Start, member.End),
				InstanceRange: scanner.Range(lines, ln, inst.Start, inst.End),
				MemberRange:   scanner.Range(lines, ln, member.Start, member.End),
			})
		}
	}
	return exprs
}

// ResolveMemberAccess parses text like ParseMemberAccess and fills in the
// declared type of each instance from syms.
func ResolveMemberAccess(text string, syms []*symbols.Symbol) []MemberAccessExpression {
	exprs := ParseMemberAccess(text)
	for i := range exprs {
		line := int(exprs[i].InstanceRange.Start.Line)
		if s := symbols.Resolve(syms, exprs[i].Instance, line); s != nil {
			exprs[i].InstanceType = s.DataType
		}
	}
	return exprs
}

// GetAccessPartAtPosition classifies pos against expr. Both halves include
// their end column and the dot counts as the end of the instance half.
func GetAccessPartAtPosition(expr MemberAccessExpression, pos protocol.Position) AccessPart {
	if pos.Line != expr.FullRange.Start.Line {
		return AccessNone
	}
	c := pos.Character
	switch {
	case c >= expr.InstanceRange.Start.Character && c <= expr.InstanceRange.End.Character:
		return AccessInstance
	case c >= expr.MemberRange.Start.Character && c <= expr.MemberRange.End.Character:
		return AccessMember
	default:
		return AccessNone
	}
}

// MemberAccessAt returns the member access under pos and the half the
// position falls on.
func MemberAccessAt(text string, pos protocol.Position) (MemberAccessExpression, AccessPart, bool) {
	var best MemberAccessExpression
	bestPart := AccessNone
	for _, expr := range ParseMemberAccess(text) {
		part := GetAccessPartAtPosition(expr, pos)
		if part == AccessNone {
			continue
		}
		// In a chain a.b.c the cursor on b is the member of a.b and the
		// instance of b.c; the member reading wins.
		if bestPart == AccessNone || part == AccessMember {
			best, bestPart = expr, part
		}
	}
	return best, bestPart, bestPart != AccessNone
}
