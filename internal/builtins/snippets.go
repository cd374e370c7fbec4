package builtins

// Snippet is a completion template in LSP snippet syntax.
type Snippet struct {
	Label  string
	Detail string
	Body   string
}

var snippets = []Snippet{
	{"IF", "IF ... THEN ... END_IF", "IF ${1:condition} THEN\n\t$0\nEND_IF;"},
	{"IF ELSE", "IF ... THEN ... ELSE ... END_IF", "IF ${1:condition} THEN\n\t$2\nELSE\n\t$0\nEND_IF;"},
	{"FOR", "FOR loop", "FOR ${1:i} := ${2:1} TO ${3:10} DO\n\t$0\nEND_FOR;"},
	{"WHILE", "WHILE loop", "WHILE ${1:condition} DO\n\t$0\nEND_WHILE;"},
	{"REPEAT", "REPEAT loop", "REPEAT\n\t$0\nUNTIL ${1:condition}\nEND_REPEAT;"},
	{"CASE", "CASE statement", "CASE ${1:selector} OF\n\t${2:1}:\n\t\t$0\nEND_CASE;"},
	{"PROGRAM", "PROGRAM declaration", "PROGRAM ${1:Main}\nVAR\n\t$2\nEND_VAR\n\n$0\nEND_PROGRAM"},
	{"FUNCTION", "FUNCTION declaration", "FUNCTION ${1:Name} : ${2:INT}\nVAR_INPUT\n\t$3\nEND_VAR\n\n$0\nEND_FUNCTION"},
	{"FUNCTION_BLOCK", "FUNCTION_BLOCK declaration", "FUNCTION_BLOCK ${1:Name}\nVAR_INPUT\n\t$2\nEND_VAR\nVAR_OUTPUT\n\t$3\nEND_VAR\n\n$0\nEND_FUNCTION_BLOCK"},
	{"VAR", "VAR section", "VAR\n\t${1:name} : ${2:INT};\nEND_VAR"},
	{"TON", "On-delay timer call", "${1:timer}(IN := ${2:start}, PT := ${3:T#1s});"},
}

// Snippets returns the snippet templates in display order.
func Snippets() []Snippet {
	return append([]Snippet(nil), snippets...)
}
