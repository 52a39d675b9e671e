package patterns

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
)

// DefaultWorkLimit bounds how many powerset states a determinization may
// create before giving up with ErrCapacity.
const DefaultWorkLimit = 10000

// IsEmpty reports whether the automaton accepts no strings at all.
func IsEmpty(a *Automaton) bool {
	seen := bitset.New(uint(a.NumStates()))
	workList := []int{a.start}
	seen.Set(uint(a.start))
	for len(workList) > 0 {
		state := workList[0]
		workList = workList[1:]
		if a.IsAccept(state) {
			return false
		}
		for _, t := range a.adj[state] {
			if !seen.Test(uint(t.Dest)) {
				seen.Set(uint(t.Dest))
				workList = append(workList, t.Dest)
			}
		}
	}
	return true
}

// liveStates returns the states both reachable from start and able to reach
// an accepting state.
func liveStates(a *Automaton) *bitset.BitSet {
	n := uint(a.NumStates())
	fwd := bitset.New(n)
	fwd.Set(uint(a.start))
	workList := []int{a.start}
	for len(workList) > 0 {
		s := workList[0]
		workList = workList[1:]
		for _, t := range a.adj[s] {
			if !fwd.Test(uint(t.Dest)) {
				fwd.Set(uint(t.Dest))
				workList = append(workList, t.Dest)
			}
		}
	}

	// Reverse reachability from the accepting states.
	rev := make([][]int, a.NumStates())
	for s, ts := range a.adj {
		for _, t := range ts {
			rev[t.Dest] = append(rev[t.Dest], s)
		}
	}
	bwd := bitset.New(n)
	workList = workList[:0]
	for s := 0; s < a.NumStates(); s++ {
		if a.IsAccept(s) {
			bwd.Set(uint(s))
			workList = append(workList, s)
		}
	}
	for len(workList) > 0 {
		s := workList[0]
		workList = workList[1:]
		for _, p := range rev[s] {
			if !bwd.Test(uint(p)) {
				bwd.Set(uint(p))
				workList = append(workList, p)
			}
		}
	}
	return fwd.Intersection(bwd)
}

// Trim removes states unreachable from the start, states from which no
// accepting state is reachable, and states whose only exit is a bare
// epsilon straight to the end state (a common construction by-product).
// Trimming never changes the accepted language.
func Trim(a *Automaton) *Automaton {
	live := liveStates(a)

	// Redirect s --ε--> end chains: a live, non-accepting state with a
	// single epsilon exit to the end contributes nothing; its incoming
	// edges can point at the end directly. Iterate to a fixpoint so
	// chains collapse fully.
	redirect := make([]int, a.NumStates())
	for s := range redirect {
		redirect[s] = s
	}
	resolve := func(s int) int {
		for redirect[s] != s {
			s = redirect[s]
		}
		return s
	}
	if a.end >= 0 {
		for changed := true; changed; {
			changed = false
			for s := 0; s < a.NumStates(); s++ {
				if s == a.start || s == a.end || redirect[s] != s || a.IsAccept(s) {
					continue
				}
				if len(a.adj[s]) != 1 {
					continue
				}
				t := a.adj[s][0]
				if t.Label.IsEpsilon() && len(t.Tags) == 0 && resolve(t.Dest) == a.end {
					redirect[s] = a.end
					changed = true
				}
			}
		}
	}

	b := newBare()
	remap := make([]int, a.NumStates())
	for s := range remap {
		remap[s] = -1
	}
	keep := func(s int) bool {
		if s == a.start || s == a.end {
			return true
		}
		return live.Test(uint(s)) && resolve(s) == s
	}
	for s := 0; s < a.NumStates(); s++ {
		if keep(s) {
			remap[s] = b.CreateState()
			b.SetAccept(remap[s], a.IsAccept(s))
		}
	}
	for s := 0; s < a.NumStates(); s++ {
		if remap[s] < 0 {
			continue
		}
		for _, t := range a.adj[s] {
			d := resolve(t.Dest)
			if !keep(d) || !live.Test(uint(d)) && d != a.end {
				continue
			}
			b.adj[remap[s]] = append(b.adj[remap[s]], Transition{
				Dest:  remap[d],
				Label: t.Label,
				Tags:  t.Tags,
			})
		}
	}
	if a.start >= 0 {
		b.start = remap[a.start]
	}
	if a.end >= 0 {
		b.end = remap[a.end]
	}
	return b
}

// determinize is the powerset construction over the explicit alphabet plus
// the "other" symbol. The result is a raw DFA: state 0 is the start, accept
// flags are set per powerset state, and there is no single-end wiring.
// Capture tags do not survive determinization; callers that care must
// reject tagged input first.
func determinize(a *Automaton, workLimit int) (*Automaton, error) {
	syms := symbols(a)
	abc := alphabet(a)
	b := newBare()
	b.start = 0

	ids := map[string]int{}
	var subsets [][]int

	intern := func(states []int) (int, error) {
		set := newStateSet(states...)
		key := set.freeze()
		if id, ok := ids[key]; ok {
			return id, nil
		}
		if len(subsets) >= workLimit {
			return -1, fmt.Errorf("%w: determinization exceeded %d states", ErrCapacity, workLimit)
		}
		id := b.CreateState()
		ids[key] = id
		subsets = append(subsets, set.array())
		accept := false
		for _, s := range set.array() {
			if a.IsAccept(s) {
				accept = true
				break
			}
		}
		b.SetAccept(id, accept)
		return id, nil
	}

	if _, err := intern(a.closure([]int{a.start})); err != nil {
		return nil, err
	}

	for next := 0; next < len(subsets); next++ {
		subset := subsets[next]
		// Group symbols by destination subset so adjacent characters
		// collapse back into classes.
		type group struct {
			id    int
			chars []rune
			other bool
		}
		groups := map[string]*group{}
		var order []string
		for _, sym := range syms {
			seed := newStateSet()
			for _, s := range subset {
				for _, d := range a.stepSym(s, sym) {
					seed.add(d)
				}
			}
			if seed.size() == 0 {
				continue
			}
			closed := a.closure(seed.array())
			id, err := intern(closed)
			if err != nil {
				return nil, err
			}
			key := newStateSet(closed...).freeze()
			g, ok := groups[key]
			if !ok {
				g = &group{id: id}
				groups[key] = g
				order = append(order, key)
			}
			if sym == symOther {
				g.other = true
			} else {
				g.chars = append(g.chars, sym)
			}
		}
		for _, key := range order {
			g := groups[key]
			if len(g.chars) > 0 {
				b.AddTransition(next, g.id, inLabel(g.chars))
			}
			if g.other {
				b.AddTransition(next, g.id, outLabel(abc))
			}
		}
	}
	return b, nil
}

// wrapSingle gives a raw automaton the single-start/single-end shape every
// construction promises: a fresh start with an epsilon into innerStart, and
// a fresh end collecting every accepting state by epsilon.
func wrapSingle(a *Automaton, innerStart int) *Automaton {
	start := a.CreateState()
	end := a.CreateState()
	a.AddEpsilon(start, innerStart)
	for s := 0; s < a.NumStates(); s++ {
		if s != end && a.IsAccept(s) {
			a.AddEpsilon(s, end)
			a.SetAccept(s, false)
		}
	}
	a.SetAccept(end, true)
	a.start = start
	a.end = end
	return a
}

// Determinize converts the automaton to an equivalent deterministic one,
// rewired through a fresh start/end pair so the result stays composable.
// Submatch extraction does not survive the powerset construction, so tagged
// automata are rejected rather than silently producing wrong captures.
func Determinize(a *Automaton, workLimit int) (*Automaton, error) {
	if a.hasTags() {
		return nil, fmt.Errorf("%w: submatch extraction on determinized automata is not implemented", ErrUnsupported)
	}
	d, err := determinize(Trim(a), workLimit)
	if err != nil {
		return nil, err
	}
	return wrapSingle(d, 0), nil
}

// reverse returns an automaton for the reversed language: every transition
// flipped, start and end roles swapped. Otherwise labels are concretized
// first, since their meaning depends on sibling edges that reversal
// rearranges.
func reverse(a *Automaton) *Automaton {
	n := a.normalizeElse()
	b := newBare()
	for s := 0; s < n.NumStates(); s++ {
		b.CreateState()
	}
	for s, ts := range n.adj {
		for _, t := range ts {
			b.adj[t.Dest] = append(b.adj[t.Dest], Transition{
				Dest:  s,
				Label: t.Label,
				Tags:  t.Tags,
			})
		}
	}
	start := b.CreateState()
	end := b.CreateState()
	for s := 0; s < n.NumStates(); s++ {
		if n.IsAccept(s) {
			b.AddEpsilon(start, s)
		}
	}
	b.AddEpsilon(n.start, end)
	b.SetAccept(end, true)
	b.start = start
	b.end = end
	return b
}

// complement returns a DFA accepting exactly the strings a rejects. The
// input is determinized, completed with an explicit reject-all sink via an
// otherwise edge on every state, and has every accept flag flipped.
func complement(a *Automaton, workLimit int) (*Automaton, error) {
	d, err := determinize(Trim(a), workLimit)
	if err != nil {
		return nil, err
	}
	sink := d.CreateState()
	d.AddTransition(sink, sink, anyLabel())
	for s := 0; s < d.NumStates(); s++ {
		if s != sink {
			d.AddTransition(s, sink, otherwiseLabel())
		}
	}
	for s := 0; s < d.NumStates(); s++ {
		d.SetAccept(s, !d.IsAccept(s))
	}
	return wrapSingle(d, 0), nil
}

// Minimize produces the minimal equivalent DFA using Brzozowski's
// algorithm: reverse, determinize, reverse, determinize, trimming
// unreachable states between each stage (the algorithm is only correct when
// that trimming happens). Tagged automata are rejected for the same reason
// as in Determinize.
func Minimize(a *Automaton, workLimit int) (*Automaton, error) {
	if a.hasTags() {
		return nil, fmt.Errorf("%w: submatch extraction on determinized automata is not implemented", ErrUnsupported)
	}
	d1, err := determinize(Trim(reverse(Trim(a))), workLimit)
	if err != nil {
		return nil, err
	}
	d2, err := determinize(Trim(reverse(Trim(wrapSingle(d1, 0)))), workLimit)
	if err != nil {
		return nil, err
	}
	return Trim(wrapSingle(d2, 0)), nil
}
