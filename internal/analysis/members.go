package analysis

import (
	"github.com/CWBudde/go-st-lsp/internal/builtins"
	"github.com/CWBudde/go-st-lsp/internal/symbols"
)

// MemberDefinition is a member of a function block type.
type MemberDefinition struct {
	Name        string
	DataType    string
	Direction   string
	Description string

	// Symbol is the declaration of a user-defined member. It is nil for
	// members of standard function blocks.
	Symbol *symbols.Symbol
}

// IsInput reports whether the member is an input or in-out.
func (m MemberDefinition) IsInput() bool {
	return m.Direction == builtins.DirectionInput || m.Direction == builtins.DirectionInOut
}

// IsStandardComponentType reports whether name is a standard timer, counter,
// edge detector or bistable type.
func IsStandardComponentType(name string) bool {
	return builtins.IsStandardFunctionBlock(name)
}

// GetAvailableMembers returns the members of typeName. Standard types use
// their fixed tables. A user function block found in customTypes, keyed by
// normalized name, yields its parameters followed by its local variables.
// Unknown types yield no members.
func GetAvailableMembers(typeName string, customTypes map[string]*symbols.Symbol) []MemberDefinition {
	if fb, ok := builtins.LookupFunctionBlock(typeName); ok {
		out := make([]MemberDefinition, 0, len(fb.Members))
		for _, m := range fb.Members {
			out = append(out, MemberDefinition{
				Name:        m.Name,
				DataType:    m.DataType,
				Direction:   m.Direction,
				Description: m.Description,
			})
		}
		return out
	}

	fb := customTypes[symbols.Normalize(typeName)]
	if fb == nil {
		fb = customTypes[typeName]
	}
	if fb == nil {
		return nil
	}

	var params, locals []MemberDefinition
	for _, m := range fb.Members {
		def := MemberDefinition{
			Name:        m.Name,
			DataType:    m.DataType,
			Description: m.Description,
			Symbol:      m,
		}
		if m.Kind == symbols.KindParameter {
			def.Direction = sectionDirection(m.Scope)
			params = append(params, def)
			continue
		}
		def.Direction = builtins.DirectionLocal
		locals = append(locals, def)
	}
	return append(params, locals...)
}

func sectionDirection(scope symbols.Scope) string {
	switch scope {
	case symbols.ScopeInput:
		return builtins.DirectionInput
	case symbols.ScopeOutput:
		return builtins.DirectionOutput
	case symbols.ScopeInOut:
		return builtins.DirectionInOut
	default:
		return builtins.DirectionLocal
	}
}

// FindMember returns the member of typeName named name, ignoring case.
func FindMember(typeName, name string, customTypes map[string]*symbols.Symbol) (MemberDefinition, bool) {
	for _, m := range GetAvailableMembers(typeName, customTypes) {
		if symbols.Normalize(m.Name) == symbols.Normalize(name) {
			return m, true
		}
	}
	return MemberDefinition{}, false
}
