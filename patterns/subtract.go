package patterns

import (
	"fmt"
	"slices"
)

// jointKey is a point of the synchronous product of two automata: the first
// operand is at state x, the second at state y.
type jointKey struct{ x, y int }

func compareJoint(a, b jointKey) int {
	if a.x != b.x {
		return a.x - b.x
	}
	return a.y - b.y
}

// jointGraph is the edge set of the synchronous product: epsilon edges move
// one coordinate and hold the other; character edges advance both
// coordinates on a shared input symbol. Every subtraction variant reduces
// to reachability questions over this graph.
type jointGraph struct {
	epsNext  map[jointKey][]jointKey
	charNext map[jointKey][]jointKey
	epsPrev  map[jointKey][]jointKey
	charPrev map[jointKey][]jointKey
}

// jointCharDests lists the product states reachable from (x,y) by one
// shared character, sorted and deduplicated.
func jointCharDests(a1, a2 *Automaton, syms []rune, x, y int) []jointKey {
	seen := map[jointKey]bool{}
	var out []jointKey
	for _, sym := range syms {
		for _, d1 := range a1.stepSym(x, sym) {
			for _, d2 := range a2.stepSym(y, sym) {
				k := jointKey{d1, d2}
				if !seen[k] {
					seen[k] = true
					out = append(out, k)
				}
			}
		}
	}
	slices.SortFunc(out, compareJoint)
	return out
}

// jointExplore builds the product edge set reachable from seeds, bounded by
// the work limit.
func jointExplore(a1, a2 *Automaton, seeds []jointKey) (*jointGraph, error) {
	syms := symbols(a1, a2)
	g := &jointGraph{
		epsNext:  map[jointKey][]jointKey{},
		charNext: map[jointKey][]jointKey{},
		epsPrev:  map[jointKey][]jointKey{},
		charPrev: map[jointKey][]jointKey{},
	}
	seen := map[jointKey]bool{}
	queue := slices.Clone(seeds)
	for len(queue) > 0 {
		k := queue[0]
		queue = queue[1:]
		if seen[k] {
			continue
		}
		seen[k] = true
		if len(seen) > DefaultWorkLimit {
			return nil, fmt.Errorf("%w: product construction exceeds %d states", ErrCapacity, DefaultWorkLimit)
		}
		for _, t := range a1.adj[k.x] {
			if t.Label.IsEpsilon() {
				d := jointKey{t.Dest, k.y}
				g.epsNext[k] = append(g.epsNext[k], d)
				queue = append(queue, d)
			}
		}
		for _, t := range a2.adj[k.y] {
			if t.Label.IsEpsilon() {
				d := jointKey{k.x, t.Dest}
				g.epsNext[k] = append(g.epsNext[k], d)
				queue = append(queue, d)
			}
		}
		for _, d := range jointCharDests(a1, a2, syms, k.x, k.y) {
			g.charNext[k] = append(g.charNext[k], d)
			queue = append(queue, d)
		}
	}
	for k, ds := range g.epsNext {
		for _, d := range ds {
			g.epsPrev[d] = append(g.epsPrev[d], k)
		}
	}
	for k, ds := range g.charNext {
		for _, d := range ds {
			g.charPrev[d] = append(g.charPrev[d], k)
		}
	}
	return g, nil
}

// walk runs a BFS over the graph in the given direction. With needChar set,
// only states reached through at least one character edge are reported,
// which is what the strict variants ask for.
func (g *jointGraph) walk(seeds []jointKey, backward, needChar bool) map[jointKey]bool {
	eps, char := g.epsNext, g.charNext
	if backward {
		eps, char = g.epsPrev, g.charPrev
	}
	type flagged struct {
		k       jointKey
		viaChar bool
	}
	seen := map[flagged]bool{}
	out := map[jointKey]bool{}
	var queue []flagged
	for _, s := range seeds {
		queue = append(queue, flagged{s, false})
	}
	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]
		if seen[f] {
			continue
		}
		seen[f] = true
		if !needChar || f.viaChar {
			out[f.k] = true
		}
		for _, d := range eps[f.k] {
			queue = append(queue, flagged{d, f.viaChar})
		}
		for _, d := range char[f.k] {
			queue = append(queue, flagged{d, true})
		}
	}
	return out
}

func (g *jointGraph) forward(seed jointKey, needChar bool) map[jointKey]bool {
	return g.walk([]jointKey{seed}, false, needChar)
}

func (g *jointGraph) backward(target jointKey, needChar bool) map[jointKey]bool {
	return g.walk([]jointKey{target}, true, needChar)
}

func sortedJoint(set map[jointKey]bool) []jointKey {
	out := make([]jointKey, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	slices.SortFunc(out, compareJoint)
	return out
}

// allPairs seeds the product graph with every state pair, for variants
// whose reachability questions start mid-automaton.
func allPairs(a1, a2 *Automaton) []jointKey {
	out := make([]jointKey, 0, a1.NumStates()*a2.NumStates())
	for x := 0; x < a1.NumStates(); x++ {
		for y := 0; y < a2.NumStates(); y++ {
			out = append(out, jointKey{x, y})
		}
	}
	return out
}

// jointRelation maps each state x of a1 to the sorted states x' such that
// a1 can move from x to x' while a2 consumes a complete match of itself on
// the same characters. This is the "removable infix" relation behind the
// inside-subtraction and replacement operators.
func jointRelation(a1, a2 *Automaton) (map[int][]int, error) {
	seeds := make([]jointKey, 0, a1.NumStates())
	for x := 0; x < a1.NumStates(); x++ {
		seeds = append(seeds, jointKey{x, a2.start})
	}
	g, err := jointExplore(a1, a2, seeds)
	if err != nil {
		return nil, err
	}
	rel := map[int][]int{}
	for x := 0; x < a1.NumStates(); x++ {
		fwd := g.forward(jointKey{x, a2.start}, false)
		var ends []int
		for k := range fwd {
			if k.y == a2.end {
				ends = append(ends, k.x)
			}
		}
		if len(ends) > 0 {
			slices.Sort(ends)
			rel[x] = slices.Compact(ends)
		}
	}
	return rel, nil
}

// subtract implements the subtraction operator family: strings of a1 with a
// match of a2 removed from the position the kind names. Each variant is a
// product-reachability computation followed by a rewiring of a1's
// boundaries, per the construction notes on each case.
func subtract(a1, a2 *Automaton, kind subtractKind) (*Automaton, error) {
	switch kind {
	case subRight:
		return subtractRight(a1, a2)
	case subLeft:
		return subtractLeft(a1, a2)
	case subInside, subInsideStrict:
		return subtractInside(a1, a2, kind == subInsideStrict)
	case subOutside, subOutsideStrict:
		return subtractOutside(a1, a2, kind == subOutsideStrict)
	case subAlternate, subAlternateOrdered, subAlternateLeft:
		return subtractAlternate(a1, a2, kind), nil
	case subInterleave:
		return subtractInterleave(a1, a2), nil
	case subInterleaveStrict, subInterleaveLeft:
		return subtractInterleaveStrict(a1, a2, kind == subInterleaveLeft), nil
	}
	return nil, fmt.Errorf("%w: unknown subtraction variant", ErrSyntax)
}

// subtractRight keeps prefixes of a1 that some a2 match completes: a state
// x becomes accepting when the pair (x, a2.start) can jointly reach both
// accept states.
func subtractRight(a1, a2 *Automaton) (*Automaton, error) {
	seeds := make([]jointKey, 0, a1.NumStates())
	for x := 0; x < a1.NumStates(); x++ {
		seeds = append(seeds, jointKey{x, a2.start})
	}
	g, err := jointExplore(a1, a2, seeds)
	if err != nil {
		return nil, err
	}
	good := g.backward(jointKey{a1.end, a2.end}, false)
	b := a1.clone()
	b.isAccept.ClearAll()
	end := b.CreateState()
	for x := 0; x < a1.NumStates(); x++ {
		if good[jointKey{x, a2.start}] {
			b.AddEpsilon(x, end)
		}
	}
	b.SetAccept(end, true)
	b.end = end
	return Trim(b), nil
}

// subtractLeft keeps suffixes of a1 that some a2 match precedes: the new
// start reaches every state x jointly reachable from the two start states
// with a2 fully consumed.
func subtractLeft(a1, a2 *Automaton) (*Automaton, error) {
	g, err := jointExplore(a1, a2, []jointKey{{a1.start, a2.start}})
	if err != nil {
		return nil, err
	}
	fwd := g.forward(jointKey{a1.start, a2.start}, false)
	b := a1.clone()
	start := b.CreateState()
	for x := 0; x < a1.NumStates(); x++ {
		if fwd[jointKey{x, a2.end}] {
			b.AddEpsilon(start, x)
		}
	}
	b.start = start
	return Trim(b), nil
}

// Layers of the inside-subtraction construction. The prefix and suffix of
// the kept string each replay a1; a single epsilon jump between the layers
// stands in for the removed infix. Strict splits each layer on whether a
// character has been consumed yet, keeping the jump away from both
// boundaries.
const (
	layerPrefixFirst = iota
	layerPrefix
	layerSuffixFirst
	layerSuffix
)

func subtractInside(a1, a2 *Automaton, strict bool) (*Automaton, error) {
	rel, err := jointRelation(a1, a2)
	if err != nil {
		return nil, err
	}
	m := newPairMachine()
	startLayer := layerPrefix
	if strict {
		startLayer = layerPrefixFirst
	}
	startID := m.state(startLayer, a1.start, -1)
	for {
		key, ok := m.pop()
		if !ok {
			break
		}
		id := m.ids[key]
		switch key.region {
		case layerPrefixFirst:
			for _, t := range a1.adj[key.x] {
				if t.Label.IsEpsilon() {
					m.b.AddEpsilon(id, m.state(layerPrefixFirst, t.Dest, -1))
				} else {
					m.b.AddTaggedTransition(id, m.state(layerPrefix, t.Dest, -1), t.Label, t.Tags)
				}
			}
		case layerPrefix:
			for _, t := range a1.adj[key.x] {
				m.b.AddTaggedTransition(id, m.state(layerPrefix, t.Dest, -1), t.Label, t.Tags)
			}
			landing := layerSuffix
			if strict {
				landing = layerSuffixFirst
			}
			for _, x := range rel[key.x] {
				m.b.AddEpsilon(id, m.state(landing, x, -1))
			}
		case layerSuffixFirst:
			for _, t := range a1.adj[key.x] {
				if t.Label.IsEpsilon() {
					m.b.AddEpsilon(id, m.state(layerSuffixFirst, t.Dest, -1))
				} else {
					m.b.AddTaggedTransition(id, m.state(layerSuffix, t.Dest, -1), t.Label, t.Tags)
				}
			}
		case layerSuffix:
			for _, t := range a1.adj[key.x] {
				m.b.AddTaggedTransition(id, m.state(layerSuffix, t.Dest, -1), t.Label, t.Tags)
			}
		}
	}
	var accepts []int
	if id, ok := m.lookup(layerSuffix, a1.end, -1); ok {
		accepts = append(accepts, id)
	}
	return m.finish(startID, accepts), nil
}

// subtractOutside keeps the middle of a1 after removing a surrounding a2
// match: a2 consumes the removed prefix, pauses while a1 replays the kept
// middle, then consumes the removed suffix. Entry pairs are those jointly
// reachable from the starts; exit pairs jointly complete to both ends.
func subtractOutside(a1, a2 *Automaton, strict bool) (*Automaton, error) {
	g, err := jointExplore(a1, a2, allPairs(a1, a2))
	if err != nil {
		return nil, err
	}
	entry := g.forward(jointKey{a1.start, a2.start}, strict)
	exit := g.backward(jointKey{a1.end, a2.end}, strict)
	m := newPairMachine()
	for _, k := range sortedJoint(entry) {
		m.state(0, k.x, k.y)
	}
	for {
		key, ok := m.pop()
		if !ok {
			break
		}
		id := m.ids[key]
		for _, t := range a1.adj[key.x] {
			m.b.AddTaggedTransition(id, m.state(0, t.Dest, key.y), t.Label, t.Tags)
		}
	}
	start := m.b.CreateState()
	end := m.b.CreateState()
	for _, k := range sortedJoint(entry) {
		m.b.AddEpsilon(start, m.ids[pairKey{0, k.x, k.y}])
	}
	for _, k := range sortedJoint(exit) {
		if id, ok := m.lookup(0, k.x, k.y); ok {
			m.b.AddEpsilon(id, end)
		}
	}
	m.b.SetAccept(end, true)
	m.b.start = start
	m.b.end = end
	return Trim(m.b), nil
}

// Phases of the alternating subtraction: kept and removed characters
// strictly alternate, with either side allowed to end the string.
const (
	phaseKeep = iota
	phaseDrop
)

func subtractAlternate(a1, a2 *Automaton, kind subtractKind) *Automaton {
	syms := symbols(a1, a2)
	m := newPairMachine()
	if kind != subAlternateLeft {
		m.state(phaseKeep, a1.start, a2.start)
	}
	if kind != subAlternateOrdered {
		m.state(phaseDrop, a1.start, a2.start)
	}
	for {
		key, ok := m.pop()
		if !ok {
			break
		}
		id := m.ids[key]
		for _, t := range a1.adj[key.x] {
			if t.Label.IsEpsilon() {
				m.b.AddEpsilon(id, m.state(key.region, t.Dest, key.y))
			} else if key.region == phaseKeep {
				m.b.AddTaggedTransition(id, m.state(phaseDrop, t.Dest, key.y), t.Label, t.Tags)
			}
		}
		for _, t := range a2.adj[key.y] {
			if t.Label.IsEpsilon() {
				m.b.AddEpsilon(id, m.state(key.region, key.x, t.Dest))
			}
		}
		if key.region == phaseDrop {
			for _, d := range jointCharDests(a1, a2, syms, key.x, key.y) {
				m.b.AddEpsilon(id, m.state(phaseKeep, d.x, d.y))
			}
		}
	}
	start := m.b.CreateState()
	end := m.b.CreateState()
	if kind != subAlternateLeft {
		m.b.AddEpsilon(start, m.ids[pairKey{phaseKeep, a1.start, a2.start}])
	}
	if kind != subAlternateOrdered {
		m.b.AddEpsilon(start, m.ids[pairKey{phaseDrop, a1.start, a2.start}])
	}
	for _, phase := range []int{phaseKeep, phaseDrop} {
		if id, ok := m.lookup(phase, a1.end, a2.end); ok {
			m.b.AddEpsilon(id, end)
		}
	}
	m.b.SetAccept(end, true)
	m.b.start = start
	m.b.end = end
	return Trim(m.b)
}

// subtractInterleave removes an a2 match whose characters were interleaved
// anywhere into a1: kept characters replay a1 visibly, removed characters
// advance both coordinates as epsilon moves of the result.
func subtractInterleave(a1, a2 *Automaton) *Automaton {
	syms := symbols(a1, a2)
	m := newPairMachine()
	startID := m.state(0, a1.start, a2.start)
	for {
		key, ok := m.pop()
		if !ok {
			break
		}
		id := m.ids[key]
		for _, t := range a1.adj[key.x] {
			m.b.AddTaggedTransition(id, m.state(0, t.Dest, key.y), t.Label, t.Tags)
		}
		for _, t := range a2.adj[key.y] {
			if t.Label.IsEpsilon() {
				m.b.AddEpsilon(id, m.state(0, key.x, t.Dest))
			}
		}
		for _, d := range jointCharDests(a1, a2, syms, key.x, key.y) {
			m.b.AddEpsilon(id, m.state(0, d.x, d.y))
		}
	}
	var accepts []int
	if id, ok := m.lookup(0, a1.end, a2.end); ok {
		accepts = append(accepts, id)
	}
	return m.finish(startID, accepts)
}

// subtractInterleaveStrict pins the first and last character of the
// original string: to the kept side for A-^^B, to the removed side for
// A_-^^B. The pre/mid/post staging mirrors the strict interleaving
// construction.
func subtractInterleaveStrict(a1, a2 *Automaton, removedBounds bool) *Automaton {
	syms := symbols(a1, a2)
	m := newPairMachine()
	startID := m.state(regionPre, a1.start, a2.start)
	for {
		key, ok := m.pop()
		if !ok {
			break
		}
		id := m.ids[key]
		epsOnly := key.region == regionPost
		for _, t := range a1.adj[key.x] {
			if t.Label.IsEpsilon() {
				m.b.AddEpsilon(id, m.state(key.region, t.Dest, key.y))
				continue
			}
			if epsOnly || (key.region == regionPre && removedBounds) {
				continue
			}
			m.b.AddTaggedTransition(id, m.state(regionMid, t.Dest, key.y), t.Label, t.Tags)
			if !removedBounds {
				m.b.AddTaggedTransition(id, m.state(regionPost, t.Dest, key.y), t.Label, t.Tags)
			}
		}
		for _, t := range a2.adj[key.y] {
			if t.Label.IsEpsilon() {
				m.b.AddEpsilon(id, m.state(key.region, key.x, t.Dest))
			}
		}
		if !epsOnly && (key.region == regionMid || removedBounds) {
			for _, d := range jointCharDests(a1, a2, syms, key.x, key.y) {
				m.b.AddEpsilon(id, m.state(regionMid, d.x, d.y))
				if removedBounds {
					m.b.AddEpsilon(id, m.state(regionPost, d.x, d.y))
				}
			}
		}
	}
	var accepts []int
	// The empty original string has no boundary characters to pin.
	for _, region := range []int{regionPre, regionPost} {
		if id, ok := m.lookup(region, a1.end, a2.end); ok {
			accepts = append(accepts, id)
		}
	}
	return m.finish(startID, accepts)
}

// replaceInside rewires the inside-subtraction jump through a copy of a3:
// the removed a2 infix is replaced by an a3 match instead of being deleted.
func replaceInside(a1, a2, a3 *Automaton, strict bool) (*Automaton, error) {
	rel, err := jointRelation(a1, a2)
	if err != nil {
		return nil, err
	}
	m := newPairMachine()
	startLayer := layerPrefix
	if strict {
		startLayer = layerPrefixFirst
	}
	startID := m.state(startLayer, a1.start, -1)
	for {
		key, ok := m.pop()
		if !ok {
			break
		}
		id := m.ids[key]
		switch key.region {
		case layerPrefixFirst:
			for _, t := range a1.adj[key.x] {
				if t.Label.IsEpsilon() {
					m.b.AddEpsilon(id, m.state(layerPrefixFirst, t.Dest, -1))
				} else {
					m.b.AddTaggedTransition(id, m.state(layerPrefix, t.Dest, -1), t.Label, t.Tags)
				}
			}
		case layerPrefix:
			for _, t := range a1.adj[key.x] {
				m.b.AddTaggedTransition(id, m.state(layerPrefix, t.Dest, -1), t.Label, t.Tags)
			}
			if targets := rel[key.x]; len(targets) > 0 {
				off := m.b.Copy(a3)
				m.b.AddEpsilon(id, off+a3.start)
				landing := layerSuffix
				if strict {
					landing = layerSuffixFirst
				}
				for _, x := range targets {
					m.b.AddEpsilon(off+a3.end, m.state(landing, x, -1))
				}
			}
		case layerSuffixFirst:
			for _, t := range a1.adj[key.x] {
				if t.Label.IsEpsilon() {
					m.b.AddEpsilon(id, m.state(layerSuffixFirst, t.Dest, -1))
				} else {
					m.b.AddTaggedTransition(id, m.state(layerSuffix, t.Dest, -1), t.Label, t.Tags)
				}
			}
		case layerSuffix:
			for _, t := range a1.adj[key.x] {
				m.b.AddTaggedTransition(id, m.state(layerSuffix, t.Dest, -1), t.Label, t.Tags)
			}
		}
	}
	m.b.isAccept.ClearAll()
	var accepts []int
	if id, ok := m.lookup(layerSuffix, a1.end, -1); ok {
		accepts = append(accepts, id)
	}
	return m.finish(startID, accepts), nil
}

// strideSelect keeps every stride-th character of a1's strings, starting
// with the first. Skipped characters become epsilon moves of the result;
// the original string may end with a partial group of skipped characters.
func strideSelect(a1 *Automaton, stride int) (*Automaton, error) {
	if stride < 1 {
		return nil, fmt.Errorf("%w: slice stride must be positive", ErrSyntax)
	}
	if a1.NumStates()*stride > DefaultWorkLimit {
		return nil, fmt.Errorf("%w: stride construction exceeds %d states", ErrCapacity, DefaultWorkLimit)
	}
	// region holds the number of characters still to skip before the next
	// kept one; region 0 keeps.
	m := newPairMachine()
	startID := m.state(0, a1.start, -1)
	for {
		key, ok := m.pop()
		if !ok {
			break
		}
		id := m.ids[key]
		for _, t := range a1.adj[key.x] {
			switch {
			case t.Label.IsEpsilon():
				m.b.AddEpsilon(id, m.state(key.region, t.Dest, -1))
			case key.region == 0:
				m.b.AddTaggedTransition(id, m.state(stride-1, t.Dest, -1), t.Label, t.Tags)
			default:
				m.b.AddEpsilon(id, m.state(key.region-1, t.Dest, -1))
			}
		}
	}
	start := m.b.CreateState()
	end := m.b.CreateState()
	m.b.AddEpsilon(start, startID)
	keys := make([]pairKey, 0, len(m.ids))
	for key := range m.ids {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, func(a, b pairKey) int {
		if a.region != b.region {
			return a.region - b.region
		}
		return a.x - b.x
	})
	for _, key := range keys {
		if a1.acceptsFrom(key.x) {
			m.b.AddEpsilon(m.ids[key], end)
		}
	}
	m.b.SetAccept(end, true)
	m.b.start = start
	m.b.end = end
	return Trim(m.b), nil
}
