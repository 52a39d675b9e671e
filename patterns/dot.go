package patterns

import (
	"fmt"
	"strings"
)

func dotEscape(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	return strings.ReplaceAll(s, "\"", "\\\"")
}

// Dot renders the raw automaton graph in Graphviz DOT form, for external
// rendering tools. Accepting states are double circles; capture tags are
// shown after the label.
func Dot(a *Automaton) string {
	var sb strings.Builder
	sb.WriteString("digraph automaton {\n")
	sb.WriteString("  rankdir=LR;\n")
	sb.WriteString("  _start [shape=point];\n")
	fmt.Fprintf(&sb, "  _start -> %d;\n", a.start)
	for s := 0; s < a.NumStates(); s++ {
		shape := "circle"
		if a.IsAccept(s) {
			shape = "doublecircle"
		}
		fmt.Fprintf(&sb, "  %d [shape=%s];\n", s, shape)
	}
	for s := 0; s < a.NumStates(); s++ {
		for _, t := range a.adj[s] {
			label := t.Label.String()
			if len(t.Tags) > 0 {
				label += " /" + strings.Join(t.Tags, ",")
			}
			fmt.Fprintf(&sb, "  %d -> %d [label=\"%s\"];\n", s, t.Dest, dotEscape(label))
		}
	}
	sb.WriteString("}\n")
	return sb.String()
}
