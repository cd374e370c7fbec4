// Package symbols defines the symbol model of Structured Text documents and
// the tolerant extractor that builds it from raw source text.
package symbols

import (
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Kind is the category of a declared symbol.
type Kind int

const (
	KindProgram Kind = iota
	KindFunction
	KindFunctionBlock
	KindVariable
	KindParameter
	KindConstant
	KindFunctionBlockInstance
)

// String returns the display name of the kind.
func (k Kind) String() string {
	switch k {
	case KindProgram:
		return "Program"
	case KindFunction:
		return "Function"
	case KindFunctionBlock:
		return "FunctionBlock"
	case KindVariable:
		return "Variable"
	case KindParameter:
		return "Parameter"
	case KindConstant:
		return "Constant"
	case KindFunctionBlockInstance:
		return "FunctionBlockInstance"
	default:
		return "Unknown"
	}
}

// IsUnit reports whether the kind is a PROGRAM, FUNCTION or FUNCTION_BLOCK.
func (k Kind) IsUnit() bool {
	switch k {
	case KindProgram, KindFunction, KindFunctionBlock:
		return true
	case KindVariable, KindParameter, KindConstant, KindFunctionBlockInstance:
		return false
	default:
		return false
	}
}

// Keyword returns the opening keyword of a unit kind, or "" for other kinds.
func (k Kind) Keyword() string {
	switch k {
	case KindProgram:
		return "PROGRAM"
	case KindFunction:
		return "FUNCTION"
	case KindFunctionBlock:
		return "FUNCTION_BLOCK"
	case KindVariable, KindParameter, KindConstant, KindFunctionBlockInstance:
		return ""
	default:
		return ""
	}
}

// Scope tells where a symbol is visible or which section declared it.
type Scope int

const (
	ScopeGlobal Scope = iota
	ScopeLocal
	ScopeInput
	ScopeOutput
	ScopeInOut
	ScopeFunction
	ScopeFunctionBlock
	ScopeProgram
)

// String returns the display name of the scope.
func (s Scope) String() string {
	switch s {
	case ScopeGlobal:
		return "Global"
	case ScopeLocal:
		return "Local"
	case ScopeInput:
		return "Input"
	case ScopeOutput:
		return "Output"
	case ScopeInOut:
		return "InOut"
	case ScopeFunction:
		return "Function"
	case ScopeFunctionBlock:
		return "FunctionBlock"
	case ScopeProgram:
		return "Program"
	default:
		return "Unknown"
	}
}

// Direction is the data flow direction of a parameter.
type Direction int

const (
	DirectionInput Direction = iota
	DirectionOutput
	DirectionInOut
)

// String returns INPUT, OUTPUT or IN_OUT.
func (d Direction) String() string {
	switch d {
	case DirectionInput:
		return "INPUT"
	case DirectionOutput:
		return "OUTPUT"
	case DirectionInOut:
		return "IN_OUT"
	default:
		return "UNKNOWN"
	}
}

// Section returns the declaration section keyword for the direction.
func (d Direction) Section() string {
	return "VAR_" + d.String()
}

// Parameter is an input, output or in-out parameter of a unit.
type Parameter struct {
	Name           string
	NormalizedName string
	DataType       string
	Direction      Direction
	DefaultValue   string
	Location       protocol.Location
}

// Symbol is a declared unit or variable.
type Symbol struct {
	Name           string
	NormalizedName string
	Kind           Kind
	Scope          Scope

	// Location covers the name token of the declaration.
	Location protocol.Location

	// FullRange covers the whole declaration: opener to closer for units,
	// the declaration statement for variables.
	FullRange protocol.Range

	DataType     string
	LiteralType  string
	InitialValue string
	Description  string

	// Section is the declaring section keyword, e.g. VAR_INPUT.
	Section string

	// ReturnType is set for functions only.
	ReturnType string

	// Parameters and Members are set for units only.
	Parameters []Parameter
	Members    []*Symbol

	// ParentSymbol is the name of the enclosing unit, if any.
	ParentSymbol string

	References []protocol.Location
}

// Normalize returns the case-insensitive lookup key of an identifier.
func Normalize(name string) string {
	return strings.ToLower(name)
}

// Matches reports whether the symbol has the given name, ignoring case.
func (s *Symbol) Matches(name string) bool {
	return s.NormalizedName == Normalize(name)
}

// IsStringTyped reports whether the symbol is declared with a string type.
func (s *Symbol) IsStringTyped() bool {
	upper := strings.ToUpper(s.DataType)
	return strings.HasPrefix(upper, "STRING") || strings.HasPrefix(upper, "WSTRING")
}

// FindMember returns the unit member with the given name, ignoring case.
func (s *Symbol) FindMember(name string) *Symbol {
	key := Normalize(name)
	for _, m := range s.Members {
		if m.NormalizedName == key {
			return m
		}
	}
	return nil
}

// Declaration renders the symbol the way it would be declared.
func (s *Symbol) Declaration() string {
	switch s.Kind {
	case KindFunction:
		if s.ReturnType != "" {
			return "FUNCTION " + s.Name + " : " + s.ReturnType
		}
		return "FUNCTION " + s.Name
	case KindProgram, KindFunctionBlock:
		return s.Kind.Keyword() + " " + s.Name
	case KindVariable, KindParameter, KindConstant, KindFunctionBlockInstance:
		decl := s.Name + " : " + s.DataType
		if s.InitialValue != "" {
			decl += " := " + s.InitialValue
		}
		return decl
	default:
		return s.Name
	}
}

// Clone returns a deep copy of the symbol with every location moved to uri.
func (s *Symbol) Clone(uri protocol.DocumentUri) *Symbol {
	c := *s
	c.Location.URI = uri
	if s.Parameters != nil {
		c.Parameters = make([]Parameter, len(s.Parameters))
		for i, p := range s.Parameters {
			p.Location.URI = uri
			c.Parameters[i] = p
		}
	}
	if s.References != nil {
		c.References = make([]protocol.Location, len(s.References))
		for i, r := range s.References {
			r.URI = uri
			c.References[i] = r
		}
	}
	if s.Members != nil {
		c.Members = make([]*Symbol, len(s.Members))
		for i, m := range s.Members {
			c.Members[i] = m.Clone(uri)
		}
	}
	return &c
}

// CloneAll copies a flat symbol list produced by Extract, keeping the
// identity between a unit's Members and the flattened member entries.
func CloneAll(syms []*Symbol, uri protocol.DocumentUri) []*Symbol {
	out := make([]*Symbol, 0, len(syms))
	members := make(map[*Symbol]*Symbol)
	for _, s := range syms {
		if !s.Kind.IsUnit() {
			continue
		}
		c := s.Clone(uri)
		members[s] = c
		for i, m := range s.Members {
			members[m] = c.Members[i]
		}
	}
	for _, s := range syms {
		if c, ok := members[s]; ok {
			out = append(out, c)
		} else {
			out = append(out, s.Clone(uri))
		}
	}
	return out
}
