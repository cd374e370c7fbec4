package builtins

import (
	"sort"
	"strings"
)

// Member directions as written in declaration sections.
const (
	DirectionInput  = "VAR_INPUT"
	DirectionOutput = "VAR_OUTPUT"
	DirectionInOut  = "VAR_IN_OUT"
	DirectionLocal  = "VAR"
)

// Member is an input or output of a standard function block.
type Member struct {
	Name        string
	DataType    string
	Direction   string
	Description string
}

// FunctionBlock describes a standard function block type.
type FunctionBlock struct {
	Name          string
	Documentation string
	Members       []Member
}

func in(name, typ, doc string) Member {
	return Member{Name: name, DataType: typ, Direction: DirectionInput, Description: doc}
}

func out(name, typ, doc string) Member {
	return Member{Name: name, DataType: typ, Direction: DirectionOutput, Description: doc}
}

var timerMembers = []Member{
	in("IN", "BOOL", "Start input"),
	in("PT", "TIME", "Preset time"),
	out("Q", "BOOL", "Timer output"),
	out("ET", "TIME", "Elapsed time"),
}

var standardFunctionBlocks = map[string]FunctionBlock{
	"TON": {
		Name:          "TON",
		Documentation: "On-delay timer. Q becomes TRUE when IN has been TRUE for PT.",
		Members:       timerMembers,
	},
	"TOF": {
		Name:          "TOF",
		Documentation: "Off-delay timer. Q stays TRUE for PT after IN falls.",
		Members:       timerMembers,
	},
	"TP": {
		Name:          "TP",
		Documentation: "Pulse timer. Q is TRUE for PT after a rising edge on IN.",
		Members:       timerMembers,
	},
	"CTU": {
		Name:          "CTU",
		Documentation: "Up counter. Q is TRUE when CV >= PV.",
		Members: []Member{
			in("CU", "BOOL", "Count up on rising edge"),
			in("R", "BOOL", "Reset counter"),
			in("PV", "INT", "Preset value"),
			out("Q", "BOOL", "Counter reached preset"),
			out("CV", "INT", "Current value"),
		},
	},
	"CTD": {
		Name:          "CTD",
		Documentation: "Down counter. Q is TRUE when CV <= 0.",
		Members: []Member{
			in("CD", "BOOL", "Count down on rising edge"),
			in("LD", "BOOL", "Load preset value"),
			in("PV", "INT", "Preset value"),
			out("Q", "BOOL", "Counter reached zero"),
			out("CV", "INT", "Current value"),
		},
	},
	"CTUD": {
		Name:          "CTUD",
		Documentation: "Up/down counter.",
		Members: []Member{
			in("CU", "BOOL", "Count up on rising edge"),
			in("CD", "BOOL", "Count down on rising edge"),
			in("R", "BOOL", "Reset counter"),
			in("LD", "BOOL", "Load preset value"),
			in("PV", "INT", "Preset value"),
			out("QU", "BOOL", "Up counter reached preset"),
			out("QD", "BOOL", "Down counter reached zero"),
			out("CV", "INT", "Current value"),
		},
	},
	"R_TRIG": {
		Name:          "R_TRIG",
		Documentation: "Rising edge detector.",
		Members: []Member{
			in("CLK", "BOOL", "Signal to monitor"),
			out("Q", "BOOL", "TRUE for one cycle on a rising edge"),
		},
	},
	"F_TRIG": {
		Name:          "F_TRIG",
		Documentation: "Falling edge detector.",
		Members: []Member{
			in("CLK", "BOOL", "Signal to monitor"),
			out("Q", "BOOL", "TRUE for one cycle on a falling edge"),
		},
	},
	"SR": {
		Name:          "SR",
		Documentation: "Set-dominant bistable.",
		Members: []Member{
			in("S1", "BOOL", "Set (dominant)"),
			in("R", "BOOL", "Reset"),
			out("Q1", "BOOL", "Output"),
		},
	},
	"RS": {
		Name:          "RS",
		Documentation: "Reset-dominant bistable.",
		Members: []Member{
			in("S", "BOOL", "Set"),
			in("R1", "BOOL", "Reset (dominant)"),
			out("Q1", "BOOL", "Output"),
		},
	},
}

// IsStandardFunctionBlock reports whether name is a standard timer, counter,
// edge detector or bistable type.
func IsStandardFunctionBlock(name string) bool {
	_, ok := standardFunctionBlocks[strings.ToUpper(name)]
	return ok
}

// LookupFunctionBlock returns the standard function block named name.
func LookupFunctionBlock(name string) (FunctionBlock, bool) {
	fb, ok := standardFunctionBlocks[strings.ToUpper(name)]
	if !ok {
		return FunctionBlock{}, false
	}
	fb.Members = append([]Member(nil), fb.Members...)
	return fb, true
}

// StandardFunctionBlocks returns all standard function blocks sorted by name.
func StandardFunctionBlocks() []FunctionBlock {
	out := make([]FunctionBlock, 0, len(standardFunctionBlocks))
	for _, fb := range standardFunctionBlocks {
		out = append(out, fb)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
