package patterns

import (
	"fmt"
	"math/rand"
)

// pickRune chooses a concrete character matched by the label, given the
// sibling labels an Otherwise transition is the complement of. With a nil
// source the choice is deterministic (smallest preferred candidate).
// Readable characters are preferred: lowercase letters first, then
// uppercase, digits and the printable plane.
func pickRune(rnd *rand.Rand, l Label, siblings []Label) (rune, bool) {
	switch l.Kind {
	case Char:
		return l.Ch, true
	case ClassIn:
		if rnd != nil {
			return l.Set[rnd.Intn(len(l.Set))], true
		}
		return l.Set[0], true
	}
	valid := func(r rune) bool {
		if l.Kind == Otherwise {
			for _, sib := range siblings {
				if sib.Matches(r) {
					return false
				}
			}
			return true
		}
		return l.Matches(r)
	}
	off := 0
	if rnd != nil {
		off = rnd.Intn(26)
	}
	for i := 0; i < 26; i++ {
		if r := 'a' + rune((off+i)%26); valid(r) {
			return r, true
		}
	}
	for r := 'A'; r <= 'Z'; r++ {
		if valid(r) {
			return r, true
		}
	}
	for r := '0'; r <= '9'; r++ {
		if valid(r) {
			return r, true
		}
	}
	// Capped scan for exotic complements; class sizes are capped well
	// below this.
	for r := rune(' '); r < 1<<16; r++ {
		if valid(r) {
			return r, true
		}
	}
	return 0, false
}

// siblingLabels lists the concrete labels of the other non-epsilon
// transitions leaving state, the set an Otherwise transition complements.
func siblingLabels(a *Automaton, state int) []Label {
	var out []Label
	for _, t := range a.adj[state] {
		if t.Label.IsEpsilon() || t.Label.Kind == Otherwise {
			continue
		}
		out = append(out, t.Label)
	}
	return out
}

// GenerateExample returns one random string the automaton accepts, by a
// seeded walk over the trimmed graph. The walk stops at accepting states
// with probability proportional to the local branching, so short examples
// are common but not guaranteed. A step budget bounds pathological walks.
func GenerateExample(a *Automaton, rnd *rand.Rand) (string, error) {
	t := Trim(a)
	if IsEmpty(t) {
		return "", fmt.Errorf("%w: automaton accepts no strings", ErrCapacity)
	}
	var out []rune
	state := t.start
	for budget := DefaultWorkLimit; budget > 0; budget-- {
		ts := t.adj[state]
		if t.IsAccept(state) && (len(ts) == 0 || rnd.Intn(len(ts)+1) == 0) {
			return string(out), nil
		}
		if len(ts) == 0 {
			return string(out), nil
		}
		tr := ts[rnd.Intn(len(ts))]
		if tr.Label.IsEpsilon() {
			state = tr.Dest
			continue
		}
		r, ok := pickRune(rnd, tr.Label, siblingLabels(t, state))
		if !ok {
			continue
		}
		out = append(out, r)
		state = tr.Dest
	}
	return "", fmt.Errorf("%w: example search exhausted", ErrCapacity)
}

// GenerateExamples returns up to n distinct accepted strings. Fewer are
// returned when the language is smaller than n or the attempt budget runs
// out first.
func GenerateExamples(a *Automaton, n int, rnd *rand.Rand) ([]string, error) {
	t := Trim(a)
	if IsEmpty(t) {
		return nil, fmt.Errorf("%w: automaton accepts no strings", ErrCapacity)
	}
	seen := map[string]bool{}
	var out []string
	for attempt := 0; attempt < 10*n+10 && len(out) < n; attempt++ {
		s, err := GenerateExample(t, rnd)
		if err != nil {
			continue
		}
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out, nil
}

// GenerateBounded generates an example whose length lies in [minLen,
// maxLen], by intersecting with a wildcard window first. A negative maxLen
// leaves the length unbounded above.
func GenerateBounded(a *Automaton, minLen, maxLen int, rnd *rand.Rand) (string, error) {
	if minLen < 0 {
		minLen = 0
	}
	var window *Automaton
	if maxLen < 0 {
		window = concatenate(wildExactly(minLen), wildAnyLength())
	} else {
		if maxLen < minLen {
			return "", fmt.Errorf("%w: empty length window [%d,%d]", ErrSyntax, minLen, maxLen)
		}
		window = repeat(wildOnce(), minLen, maxLen)
	}
	return GenerateExample(conjunction(a, window), rnd)
}

// ShortestExample returns a minimum-length accepted string, found by a
// breadth-first search over character levels with epsilon closure expanding
// each level for free.
func ShortestExample(a *Automaton) (string, error) {
	type back struct {
		prev int
		r    rune
		char bool
	}
	seen := make([]bool, a.NumStates())
	parent := make([]back, a.NumStates())
	shortest := func(state int) string {
		var runes []rune
		for s := state; s != a.start; s = parent[s].prev {
			if parent[s].char {
				runes = append(runes, parent[s].r)
			}
		}
		for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
			runes[i], runes[j] = runes[j], runes[i]
		}
		return string(runes)
	}
	expand := func(level []int) []int {
		for i := 0; i < len(level); i++ {
			s := level[i]
			for _, t := range a.adj[s] {
				if t.Label.IsEpsilon() && !seen[t.Dest] {
					seen[t.Dest] = true
					parent[t.Dest] = back{prev: s}
					level = append(level, t.Dest)
				}
			}
		}
		return level
	}
	seen[a.start] = true
	parent[a.start] = back{prev: a.start}
	level := expand([]int{a.start})
	for len(level) > 0 {
		for _, s := range level {
			if a.IsAccept(s) {
				return shortest(s), nil
			}
		}
		var next []int
		for _, s := range level {
			for _, t := range a.adj[s] {
				if t.Label.IsEpsilon() || seen[t.Dest] {
					continue
				}
				r, ok := pickRune(nil, t.Label, siblingLabels(a, s))
				if !ok {
					continue
				}
				seen[t.Dest] = true
				parent[t.Dest] = back{prev: s, r: r, char: true}
				next = append(next, t.Dest)
			}
		}
		level = expand(next)
	}
	return "", fmt.Errorf("%w: automaton accepts no strings", ErrCapacity)
}
