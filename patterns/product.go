package patterns

import "slices"

// pairKey identifies a composite state of a product construction: a region
// discriminator plus one coordinate per operand.
type pairKey struct {
	region int
	x, y   int
}

// pairMachine interns composite states into a fresh arena and keeps a
// worklist of states whose transitions still need wiring.
type pairMachine struct {
	b     *Automaton
	ids   map[pairKey]int
	queue []pairKey
}

func newPairMachine() *pairMachine {
	return &pairMachine{b: newBare(), ids: map[pairKey]int{}}
}

func (m *pairMachine) state(region, x, y int) int {
	key := pairKey{region, x, y}
	if id, ok := m.ids[key]; ok {
		return id
	}
	id := m.b.CreateState()
	m.ids[key] = id
	m.queue = append(m.queue, key)
	return id
}

func (m *pairMachine) pop() (pairKey, bool) {
	if len(m.queue) == 0 {
		return pairKey{}, false
	}
	key := m.queue[0]
	m.queue = m.queue[1:]
	return key, true
}

// lookup returns the interned id for a composite state if it was ever
// reached.
func (m *pairMachine) lookup(region, x, y int) (int, bool) {
	id, ok := m.ids[pairKey{region, x, y}]
	return id, ok
}

// finish wires every composite accept state through a fresh single
// start/end pair and returns the trimmed result.
func (m *pairMachine) finish(startID int, acceptIDs []int) *Automaton {
	start := m.b.CreateState()
	end := m.b.CreateState()
	m.b.AddEpsilon(start, startID)
	for _, id := range acceptIDs {
		m.b.AddEpsilon(id, end)
	}
	m.b.SetAccept(end, true)
	m.b.start = start
	m.b.end = end
	return Trim(m.b)
}

func mergeTags(a, b []string) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	tags := append(slices.Clone(a), b...)
	slices.Sort(tags)
	return slices.Compact(tags)
}

// stepSymT is stepSym returning the full matching transitions, so products
// can carry tags across.
func (a *Automaton) stepSymT(state int, sym rune) []Transition {
	var out []Transition
	matched := false
	for _, t := range a.adj[state] {
		if t.Label.IsEpsilon() || t.Label.Kind == Otherwise {
			continue
		}
		if t.Label.matchesSym(sym) {
			matched = true
			out = append(out, t)
		}
	}
	if !matched {
		for _, t := range a.adj[state] {
			if t.Label.Kind == Otherwise {
				out = append(out, t)
			}
		}
	}
	return out
}

// conjunction builds the product automaton recognizing the intersection of
// the two languages: a composite transition exists on a character exactly
// when both operands have one, with epsilon moves lifted to hold the other
// coordinate fixed. The character-level interplay of classes, wildcards and
// otherwise labels is resolved by ranging over the joint explicit alphabet
// plus the "other" symbol, then folding adjacent symbols back into classes.
func conjunction(a1, a2 *Automaton) *Automaton {
	syms := symbols(a1, a2)
	abc := alphabet(a1, a2)
	m := newPairMachine()
	startID := m.state(0, a1.start, a2.start)
	for {
		key, ok := m.pop()
		if !ok {
			break
		}
		id := m.ids[key]
		for _, t := range a1.adj[key.x] {
			if t.Label.IsEpsilon() {
				m.b.AddEpsilon(id, m.state(0, t.Dest, key.y))
			}
		}
		for _, t := range a2.adj[key.y] {
			if t.Label.IsEpsilon() {
				m.b.AddEpsilon(id, m.state(0, key.x, t.Dest))
			}
		}
		// Group product symbols per destination+tags so single-char
		// symbols merge back into classes.
		type group struct {
			dest  int
			tags  []string
			chars []rune
			other bool
		}
		groups := map[string]*group{}
		var order []string
		for _, sym := range syms {
			for _, t1 := range a1.stepSymT(key.x, sym) {
				for _, t2 := range a2.stepSymT(key.y, sym) {
					dest := m.state(0, t1.Dest, t2.Dest)
					tags := mergeTags(t1.Tags, t2.Tags)
					gk := newStateSet(dest).freeze() + "|" + joinTags(tags)
					g, ok := groups[gk]
					if !ok {
						g = &group{dest: dest, tags: tags}
						groups[gk] = g
						order = append(order, gk)
					}
					if sym == symOther {
						g.other = true
					} else {
						g.chars = append(g.chars, sym)
					}
				}
			}
		}
		for _, gk := range order {
			g := groups[gk]
			if len(g.chars) > 0 {
				m.b.AddTaggedTransition(id, g.dest, inLabel(g.chars), g.tags)
			}
			if g.other {
				m.b.AddTaggedTransition(id, g.dest, outLabel(abc), g.tags)
			}
		}
	}
	var accepts []int
	if id, ok := m.lookup(0, a1.end, a2.end); ok {
		accepts = append(accepts, id)
	}
	return m.finish(startID, accepts)
}

func joinTags(tags []string) string {
	out := ""
	for _, t := range tags {
		out += t + ";"
	}
	return out
}

// Regions of the containment construction. The *first variants only appear
// in the strict form, where the contained part may not touch either
// boundary of the matched string.
const (
	regionLeftFirst = iota
	regionLeft
	regionMiddle
	regionRightFirst
	regionRight
)

// contains recognizes strings matching outer with a string matching inner
// inserted somewhere. Left and right regions replay the outer automaton
// around the insertion point; the middle region replays the inner automaton
// with the outer position held fixed. In the strict form the left_first and
// right_first regions force at least one outer character on each side of
// the insertion.
func contains(inner, outer *Automaton, strict bool) *Automaton {
	m := newPairMachine()
	startRegion := regionLeft
	if strict {
		startRegion = regionLeftFirst
	}
	startID := m.state(startRegion, outer.start, -1)
	for {
		key, ok := m.pop()
		if !ok {
			break
		}
		id := m.ids[key]
		switch key.region {
		case regionLeftFirst:
			for _, t := range outer.adj[key.x] {
				if t.Label.IsEpsilon() {
					m.b.AddEpsilon(id, m.state(regionLeftFirst, t.Dest, -1))
				} else {
					m.b.AddTaggedTransition(id, m.state(regionLeft, t.Dest, -1), t.Label, t.Tags)
				}
			}
		case regionLeft:
			for _, t := range outer.adj[key.x] {
				dest := m.state(regionLeft, t.Dest, -1)
				m.b.AddTaggedTransition(id, dest, t.Label, t.Tags)
			}
			m.b.AddEpsilon(id, m.state(regionMiddle, key.x, inner.start))
		case regionMiddle:
			for _, t := range inner.adj[key.y] {
				dest := m.state(regionMiddle, key.x, t.Dest)
				m.b.AddTaggedTransition(id, dest, t.Label, t.Tags)
			}
			if key.y == inner.end {
				exit := regionRight
				if strict {
					exit = regionRightFirst
				}
				m.b.AddEpsilon(id, m.state(exit, key.x, -1))
			}
		case regionRightFirst:
			for _, t := range outer.adj[key.x] {
				if t.Label.IsEpsilon() {
					m.b.AddEpsilon(id, m.state(regionRightFirst, t.Dest, -1))
				} else {
					m.b.AddTaggedTransition(id, m.state(regionRight, t.Dest, -1), t.Label, t.Tags)
				}
			}
		case regionRight:
			for _, t := range outer.adj[key.x] {
				dest := m.state(regionRight, t.Dest, -1)
				m.b.AddTaggedTransition(id, dest, t.Label, t.Tags)
			}
		}
	}
	var accepts []int
	if id, ok := m.lookup(regionRight, outer.end, -1); ok {
		accepts = append(accepts, id)
	}
	return m.finish(startID, accepts)
}

// Regions of the alternating construction: left states consume the next
// character from the first operand, right states from the second.
const (
	regionNextLeft = iota
	regionNextRight
)

// alternating recognizes strings whose characters alternate between the two
// operands, one character at a time. The ordered form starts with the first
// operand; the unordered form may start with either.
func alternating(a1, a2 *Automaton, ordered bool) *Automaton {
	m := newPairMachine()
	m.state(regionNextLeft, a1.start, a2.start)
	if !ordered {
		m.state(regionNextRight, a1.start, a2.start)
	}
	for {
		key, ok := m.pop()
		if !ok {
			break
		}
		id := m.ids[key]
		switch key.region {
		case regionNextLeft:
			for _, t := range a1.adj[key.x] {
				if t.Label.IsEpsilon() {
					m.b.AddEpsilon(id, m.state(regionNextLeft, t.Dest, key.y))
				} else {
					m.b.AddTaggedTransition(id, m.state(regionNextRight, t.Dest, key.y), t.Label, t.Tags)
				}
			}
			// The idle operand still follows its epsilon moves.
			for _, t := range a2.adj[key.y] {
				if t.Label.IsEpsilon() {
					m.b.AddEpsilon(id, m.state(regionNextLeft, key.x, t.Dest))
				}
			}
		case regionNextRight:
			for _, t := range a2.adj[key.y] {
				if t.Label.IsEpsilon() {
					m.b.AddEpsilon(id, m.state(regionNextRight, key.x, t.Dest))
				} else {
					m.b.AddTaggedTransition(id, m.state(regionNextLeft, key.x, t.Dest), t.Label, t.Tags)
				}
			}
			for _, t := range a1.adj[key.x] {
				if t.Label.IsEpsilon() {
					m.b.AddEpsilon(id, m.state(regionNextRight, t.Dest, key.y))
				}
			}
		}
	}
	start := m.b.CreateState()
	end := m.b.CreateState()
	if id, ok := m.lookup(regionNextLeft, a1.start, a2.start); ok {
		m.b.AddEpsilon(start, id)
	}
	if !ordered {
		if id, ok := m.lookup(regionNextRight, a1.start, a2.start); ok {
			m.b.AddEpsilon(start, id)
		}
	}
	for _, region := range []int{regionNextLeft, regionNextRight} {
		if id, ok := m.lookup(region, a1.end, a2.end); ok {
			m.b.AddEpsilon(id, end)
		}
	}
	m.b.SetAccept(end, true)
	m.b.start = start
	m.b.end = end
	return Trim(m.b)
}

// Regions of the strict interleaving construction.
const (
	regionPre  = iota // before the first left-operand character
	regionMid         // interleaving freely
	regionPost        // after the last left-operand character
)

// interleave recognizes any interleaving of one string from each operand.
// The strict form demands the first and last characters of the whole string
// come from the first operand.
func interleave(a1, a2 *Automaton, strict bool) *Automaton {
	m := newPairMachine()
	if !strict {
		startID := m.state(regionMid, a1.start, a2.start)
		for {
			key, ok := m.pop()
			if !ok {
				break
			}
			id := m.ids[key]
			for _, t := range a1.adj[key.x] {
				m.b.AddTaggedTransition(id, m.state(regionMid, t.Dest, key.y), t.Label, t.Tags)
			}
			for _, t := range a2.adj[key.y] {
				m.b.AddTaggedTransition(id, m.state(regionMid, key.x, t.Dest), t.Label, t.Tags)
			}
		}
		var accepts []int
		if id, ok := m.lookup(regionMid, a1.end, a2.end); ok {
			accepts = append(accepts, id)
		}
		return m.finish(startID, accepts)
	}

	startID := m.state(regionPre, a1.start, a2.start)
	for {
		key, ok := m.pop()
		if !ok {
			break
		}
		id := m.ids[key]
		switch key.region {
		case regionPre:
			for _, t := range a1.adj[key.x] {
				if t.Label.IsEpsilon() {
					m.b.AddEpsilon(id, m.state(regionPre, t.Dest, key.y))
				} else {
					m.b.AddTaggedTransition(id, m.state(regionMid, t.Dest, key.y), t.Label, t.Tags)
					m.b.AddTaggedTransition(id, m.state(regionPost, t.Dest, key.y), t.Label, t.Tags)
				}
			}
			for _, t := range a2.adj[key.y] {
				if t.Label.IsEpsilon() {
					m.b.AddEpsilon(id, m.state(regionPre, key.x, t.Dest))
				}
			}
		case regionMid:
			for _, t := range a1.adj[key.x] {
				if t.Label.IsEpsilon() {
					m.b.AddEpsilon(id, m.state(regionMid, t.Dest, key.y))
				} else {
					m.b.AddTaggedTransition(id, m.state(regionMid, t.Dest, key.y), t.Label, t.Tags)
					m.b.AddTaggedTransition(id, m.state(regionPost, t.Dest, key.y), t.Label, t.Tags)
				}
			}
			for _, t := range a2.adj[key.y] {
				m.b.AddTaggedTransition(id, m.state(regionMid, key.x, t.Dest), t.Label, t.Tags)
			}
		case regionPost:
			for _, t := range a1.adj[key.x] {
				if t.Label.IsEpsilon() {
					m.b.AddEpsilon(id, m.state(regionPost, t.Dest, key.y))
				}
			}
			for _, t := range a2.adj[key.y] {
				if t.Label.IsEpsilon() {
					m.b.AddEpsilon(id, m.state(regionPost, key.x, t.Dest))
				}
			}
		}
	}
	var accepts []int
	// The empty string has no boundary characters to constrain; it is
	// accepted when both operands accept it.
	if id, ok := m.lookup(regionPre, a1.end, a2.end); ok {
		accepts = append(accepts, id)
	}
	if id, ok := m.lookup(regionPost, a1.end, a2.end); ok {
		accepts = append(accepts, id)
	}
	return m.finish(startID, accepts)
}
