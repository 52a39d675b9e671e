package patterns

import (
	"slices"

	"github.com/bits-and-blooms/bitset"
)

// Transition is one edge of the automaton graph: a matching condition, a
// destination state and the capture tags the edge contributes to. Tags are
// only ever carried by non-epsilon transitions.
type Transition struct {
	Dest  int
	Label Label
	Tags  []string
}

// Automaton is a nondeterministic finite automaton over an arena of integer
// state ids with adjacency-list transitions. Every automaton produced by a
// construction has exactly one start state with no incoming transitions and
// one end state with no outgoing transitions; constructions that need more
// accept points wire them through epsilon transitions into the single end.
//
// Automata are immutable from the caller's point of view once returned:
// operators never modify an input, they allocate fresh states via Copy.
type Automaton struct {
	adj      [][]Transition
	isAccept *bitset.BitSet
	start    int
	end      int
}

// NewAutomaton returns an automaton with a fresh start and accepting end
// state and no transitions (the empty language until wired).
func NewAutomaton() *Automaton {
	a := newBare()
	a.start = a.CreateState()
	a.end = a.CreateState()
	a.SetAccept(a.end, true)
	return a
}

// newBare returns an automaton with no states at all. Internal constructions
// allocate states first and pick start/end afterwards.
func newBare() *Automaton {
	return &Automaton{
		isAccept: bitset.New(2),
		start:    -1,
		end:      -1,
	}
}

// CreateState creates a new state and returns its id.
func (a *Automaton) CreateState() int {
	a.adj = append(a.adj, nil)
	return len(a.adj) - 1
}

// SetAccept sets or clears the accepting flag of a state.
func (a *Automaton) SetAccept(state int, accept bool) {
	a.isAccept.SetTo(uint(state), accept)
}

// IsAccept reports whether the state is accepting.
func (a *Automaton) IsAccept(state int) bool {
	return a.isAccept.Test(uint(state))
}

// Start returns the unique start state.
func (a *Automaton) Start() int { return a.start }

// End returns the designated end state.
func (a *Automaton) End() int { return a.end }

// NumStates reports how many states this automaton has.
func (a *Automaton) NumStates() int { return len(a.adj) }

// NumTransitions reports how many transitions this automaton has.
func (a *Automaton) NumTransitions() int {
	n := 0
	for _, ts := range a.adj {
		n += len(ts)
	}
	return n
}

// Transitions returns the transitions leaving state, in insertion order.
// The returned slice is owned by the automaton and must not be modified.
func (a *Automaton) Transitions(state int) []Transition {
	return a.adj[state]
}

// AddTransition adds a transition from src to dst with the given label.
func (a *Automaton) AddTransition(src, dst int, label Label) {
	a.adj[src] = append(a.adj[src], Transition{Dest: dst, Label: label})
}

// AddTaggedTransition adds a non-epsilon transition carrying capture tags.
func (a *Automaton) AddTaggedTransition(src, dst int, label Label, tags []string) {
	a.adj[src] = append(a.adj[src], Transition{Dest: dst, Label: label, Tags: tags})
}

// AddEpsilon adds a transition from src to dst consuming no input.
func (a *Automaton) AddEpsilon(src, dst int) {
	a.AddTransition(src, dst, epsLabel())
}

// Copy renames other's states into a's arena (sequentially appended) and
// returns the id offset. This is the single renaming operation required
// before any composition: state ids of the copy are disjoint from every
// previously created state.
func (a *Automaton) Copy(other *Automaton) int {
	offset := a.NumStates()
	for s := 0; s < other.NumStates(); s++ {
		a.CreateState()
		if other.IsAccept(s) {
			a.SetAccept(offset+s, true)
		}
	}
	for s, ts := range other.adj {
		for _, t := range ts {
			a.adj[offset+s] = append(a.adj[offset+s], Transition{
				Dest:  offset + t.Dest,
				Label: t.Label,
				Tags:  t.Tags,
			})
		}
	}
	return offset
}

// clone returns a disjoint copy of a in a fresh arena.
func (a *Automaton) clone() *Automaton {
	b := newBare()
	b.Copy(a)
	b.start = a.start
	b.end = a.end
	return b
}

// hasTags reports whether any transition carries a capture tag.
func (a *Automaton) hasTags() bool {
	for _, ts := range a.adj {
		for _, t := range ts {
			if len(t.Tags) > 0 {
				return true
			}
		}
	}
	return false
}

// tagged returns a copy of a with name added to the tag set of every
// non-epsilon transition, so the tag accumulates every character the
// wrapped subexpression consumes.
func (a *Automaton) tagged(name string) *Automaton {
	b := a.clone()
	for s, ts := range b.adj {
		for i, t := range ts {
			if t.Label.IsEpsilon() {
				continue
			}
			tags := slices.Clone(t.Tags)
			if !slices.Contains(tags, name) {
				tags = append(tags, name)
				slices.Sort(tags)
			}
			b.adj[s][i].Tags = tags
		}
	}
	return b
}

// mapLabels returns a copy of a with every label rewritten by f. Epsilon
// labels are never passed to f.
func (a *Automaton) mapLabels(f func(Label) Label) *Automaton {
	b := a.clone()
	for s, ts := range b.adj {
		for i, t := range ts {
			if t.Label.IsEpsilon() {
				continue
			}
			b.adj[s][i].Label = f(t.Label)
		}
	}
	return b
}

// alphabet returns the sorted set of runes mentioned explicitly by any
// label of the given automata.
func alphabet(as ...*Automaton) []rune {
	var set []rune
	for _, a := range as {
		for _, ts := range a.adj {
			for _, t := range ts {
				set = append(set, t.Label.explicit()...)
			}
		}
	}
	slices.Sort(set)
	return slices.Compact(set)
}

// symbols is the product alphabet: every explicit rune plus symOther.
func symbols(as ...*Automaton) []rune {
	return append(alphabet(as...), symOther)
}

// normalizeElse rewrites every Otherwise label into an equivalent concrete
// class computed from its sibling transitions. Otherwise matches a rune iff
// no sibling non-epsilon label does, so its concrete form is the complement
// of the union of the sibling match sets. Required before reversal, where
// the sibling context that defines Otherwise is lost.
func (a *Automaton) normalizeElse() *Automaton {
	b := a.clone()
	for s, ts := range b.adj {
		var rewritten []Transition
		for i, t := range ts {
			if t.Label.Kind != Otherwise {
				rewritten = append(rewritten, t)
				continue
			}
			label, dead := elseConcrete(ts, i)
			if dead {
				continue
			}
			t.Label = label
			rewritten = append(rewritten, t)
		}
		b.adj[s] = rewritten
	}
	return b
}

// elseConcrete computes the concrete label equivalent to the Otherwise
// transition at index skip among siblings, or dead=true if a sibling
// wildcard leaves it nothing to match.
func elseConcrete(siblings []Transition, skip int) (label Label, dead bool) {
	var chars []rune     // runes matched by sibling Char/ClassIn labels
	var outSets [][]rune // sibling ClassOut exclusion sets
	for i, t := range siblings {
		if i == skip || t.Label.IsEpsilon() || t.Label.Kind == Otherwise {
			continue
		}
		switch t.Label.Kind {
		case AnyChar:
			return Label{}, true
		case ClassOut:
			outSets = append(outSets, t.Label.Set)
		default:
			chars = append(chars, t.Label.explicit()...)
		}
	}
	if len(outSets) == 0 {
		return outLabel(chars), false
	}
	// Some sibling already matches "anything outside its set"; the
	// otherwise label is confined to the intersection of those sets,
	// minus the explicitly matched runes.
	inter := outSets[0]
	for _, s := range outSets[1:] {
		var next []rune
		for _, r := range inter {
			if slices.Contains(s, r) {
				next = append(next, r)
			}
		}
		inter = next
	}
	var set []rune
	for _, r := range inter {
		if !slices.Contains(chars, r) {
			set = append(set, r)
		}
	}
	if len(set) == 0 {
		return Label{}, true
	}
	return inLabel(set), false
}

// closure returns every state reachable from the seed states via epsilon
// transitions, in deterministic first-visit order (seed order, then
// transition insertion order). The order is what makes ambiguous submatch
// selection reproducible.
func (a *Automaton) closure(seed []int) []int {
	seen := bitset.New(uint(a.NumStates()))
	order := make([]int, 0, len(seed))
	var visit func(int)
	visit = func(s int) {
		if seen.Test(uint(s)) {
			return
		}
		seen.Set(uint(s))
		order = append(order, s)
		for _, t := range a.adj[s] {
			if t.Label.IsEpsilon() {
				visit(t.Dest)
			}
		}
	}
	for _, s := range seed {
		visit(s)
	}
	return order
}

// stepSym returns the destinations of state on the product-alphabet symbol
// sym, resolving Otherwise against the sibling transitions.
func (a *Automaton) stepSym(state int, sym rune) []int {
	var dests []int
	matched := false
	for _, t := range a.adj[state] {
		if t.Label.IsEpsilon() || t.Label.Kind == Otherwise {
			continue
		}
		if t.Label.matchesSym(sym) {
			matched = true
			dests = append(dests, t.Dest)
		}
	}
	if !matched {
		for _, t := range a.adj[state] {
			if t.Label.Kind == Otherwise {
				dests = append(dests, t.Dest)
			}
		}
	}
	return dests
}

// acceptsFrom reports whether any accepting state is epsilon-reachable
// from state.
func (a *Automaton) acceptsFrom(state int) bool {
	for _, s := range a.closure([]int{state}) {
		if a.IsAccept(s) {
			return true
		}
	}
	return false
}
