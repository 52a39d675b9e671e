package patterns

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"
)

// The FSM text format describes one transition per line, "State Input
// State*", with zero or more targets. Input is a single character, a c-d
// range, EMPTY for an epsilon move or ALL for the else-branch taken when no
// other character line of the source state matches. START and END are the
// reserved start and accept state names.

func parseFSMInput(token string) (Label, error) {
	switch token {
	case "EMPTY":
		return epsLabel(), nil
	case "ALL":
		return otherwiseLabel(), nil
	}
	runes := []rune(token)
	switch {
	case len(runes) == 1:
		return charLabel(runes[0]), nil
	case len(runes) == 3 && runes[1] == '-':
		lo, hi := runes[0], runes[2]
		if hi < lo {
			return Label{}, fmt.Errorf("%w: range %s out of order", ErrSyntax, token)
		}
		if int(hi-lo) >= maxClassRange {
			return Label{}, fmt.Errorf("%w: range %s wider than %d", ErrCapacity, token, maxClassRange)
		}
		var set []rune
		for r := lo; r <= hi; r++ {
			set = append(set, r)
		}
		return normClass(set, false), nil
	}
	return Label{}, fmt.Errorf("%w: bad input token %q", ErrSyntax, token)
}

// ParseFSM reads an automaton from the transition format. Unknown state
// names allocate states on first mention; the result is rewired through a
// fresh start/end pair so the usual shape invariants hold whatever the file
// contains.
func ParseFSM(r io.Reader) (*Automaton, error) {
	b := newBare()
	names := map[string]int{}
	stateOf := func(name string) int {
		if id, ok := names[name]; ok {
			return id
		}
		id := b.CreateState()
		names[name] = id
		return id
	}
	start := stateOf("START")
	end := stateOf("END")

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("%w: line %d: want \"State Input State*\"", ErrSyntax, lineNo)
		}
		label, err := parseFSMInput(fields[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		src := stateOf(fields[0])
		for _, target := range fields[2:] {
			b.AddTransition(src, stateOf(target), label)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	b.SetAccept(end, true)
	return wrapSingle(b, start), nil
}

func fsmStateName(a *Automaton, s int) string {
	switch s {
	case a.start:
		return "START"
	case a.end:
		return "END"
	}
	return fmt.Sprintf("S%d", s)
}

// WriteFSM serializes the automaton into the transition format. Every
// explicitly mentioned character of a state gets its own line listing all
// its targets (possibly none, which blocks the else-branch for that
// character), so negated classes and wildcards round-trip exactly through
// a single ALL line. Capture tags are not representable and are dropped.
func WriteFSM(w io.Writer, a *Automaton) error {
	bw := bufio.NewWriter(w)
	for s := 0; s < a.NumStates(); s++ {
		var mentioned []rune
		seen := map[rune]bool{}
		for _, t := range a.adj[s] {
			for _, r := range t.Label.explicit() {
				if !seen[r] {
					seen[r] = true
					mentioned = append(mentioned, r)
				}
			}
		}
		for _, r := range mentioned {
			if unicode.IsSpace(r) {
				return fmt.Errorf("%w: whitespace characters cannot be serialized", ErrUnsupported)
			}
			var targets []int
			for _, t := range a.adj[s] {
				if !t.Label.IsEpsilon() && t.Label.Kind != Otherwise && t.Label.Matches(r) {
					targets = append(targets, t.Dest)
				}
			}
			if len(targets) == 0 {
				// No concrete sibling claims r, so the else-branch
				// applies to it.
				for _, t := range a.adj[s] {
					if t.Label.Kind == Otherwise {
						targets = append(targets, t.Dest)
					}
				}
			}
			fmt.Fprintf(bw, "%s %s", fsmStateName(a, s), string(r))
			for _, dst := range targets {
				fmt.Fprintf(bw, " %s", fsmStateName(a, dst))
			}
			fmt.Fprintln(bw)
		}
		wroteAll := false
		for _, t := range a.adj[s] {
			switch t.Label.Kind {
			case Otherwise, AnyChar, ClassOut:
				if !wroteAll {
					fmt.Fprintf(bw, "%s ALL", fsmStateName(a, s))
					wroteAll = true
				}
				fmt.Fprintf(bw, " %s", fsmStateName(a, t.Dest))
			}
		}
		if wroteAll {
			fmt.Fprintln(bw)
		}
		for _, t := range a.adj[s] {
			if t.Label.IsEpsilon() {
				fmt.Fprintf(bw, "%s EMPTY %s\n", fsmStateName(a, s), fsmStateName(a, t.Dest))
			}
		}
	}
	return bw.Flush()
}
