package patterns

import (
	"fmt"
	"unicode"
)

// DefaultBoundsDepth is how many characters the lexicographic bound walks
// explore before truncating.
const DefaultBoundsDepth = 10

func greatestRune(l Label) rune {
	switch l.Kind {
	case Char:
		return l.Ch
	case ClassIn:
		return l.Set[len(l.Set)-1]
	default:
		// Negated or universal class: scan down for the first rune not
		// excluded.
		for r := unicode.MaxRune; ; r-- {
			if l.Matches(r) {
				return r
			}
		}
	}
}

// Bounds computes a lexicographic lower and upper bound on the language: the
// lower bound is ≤ every accepted string, the upper bound ≥ every accepted
// string. Both are found by greedy walks over the determinized automaton,
// restricted to live states: the lower walk takes the smallest available
// character and stops at the first accepting state; the upper walk takes
// the largest and keeps extending while it can, since extending a prefix
// only increases it. A walk cut off by the depth limit marks the upper
// bound with a trailing MaxRune sentinel.
func Bounds(a *Automaton, depth, workLimit int) (string, string, error) {
	if depth <= 0 {
		depth = DefaultBoundsDepth
	}
	if workLimit <= 0 {
		workLimit = DefaultWorkLimit
	}
	d, err := determinize(a, workLimit)
	if err != nil {
		return "", "", err
	}
	live := liveStates(d)
	if !live.Test(uint(d.start)) {
		return "", "", fmt.Errorf("%w: automaton accepts no strings", ErrCapacity)
	}

	var lower []rune
	state := d.start
	for step := 0; step < depth; step++ {
		if d.IsAccept(state) {
			break
		}
		best := -1
		var bestR rune
		for i, t := range d.adj[state] {
			if !live.Test(uint(t.Dest)) {
				continue
			}
			if r := t.Label.minRune(); best < 0 || r < bestR {
				best, bestR = i, r
			}
		}
		if best < 0 {
			break
		}
		lower = append(lower, bestR)
		state = d.adj[state][best].Dest
	}

	var upper []rune
	state = d.start
	for step := 0; ; step++ {
		best := -1
		var bestR rune
		for i, t := range d.adj[state] {
			if !live.Test(uint(t.Dest)) {
				continue
			}
			if r := greatestRune(t.Label); best < 0 || r > bestR {
				best, bestR = i, r
			}
		}
		if best < 0 {
			break
		}
		if step >= depth {
			upper = append(upper, unicode.MaxRune)
			break
		}
		upper = append(upper, bestR)
		state = d.adj[state][best].Dest
	}

	return string(lower), string(upper), nil
}
