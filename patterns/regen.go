package patterns

import (
	"fmt"
	"strings"
)

// rx is a regular-expression syntax tree used when reconstructing a textual
// pattern from an automaton. rxNone is the empty set, which only appears
// transiently during state elimination.
type rxKind int

const (
	rxNone rxKind = iota
	rxEps
	rxLit
	rxCat
	rxAlt
	rxStar
)

type rx struct {
	kind  rxKind
	label Label
	subs  []*rx
}

var (
	rxEmpty   = &rx{kind: rxNone}
	rxEpsilon = &rx{kind: rxEps}
)

func rxLabel(l Label) *rx {
	if l.IsEpsilon() {
		return rxEpsilon
	}
	return &rx{kind: rxLit, label: l}
}

// rxCatOf concatenates, flattening nested concatenations, dropping epsilon
// factors and annihilating on the empty set.
func rxCatOf(subs ...*rx) *rx {
	var out []*rx
	for _, s := range subs {
		switch {
		case s == nil || s.kind == rxNone:
			return rxEmpty
		case s.kind == rxEps:
		case s.kind == rxCat:
			out = append(out, s.subs...)
		default:
			out = append(out, s)
		}
	}
	switch len(out) {
	case 0:
		return rxEpsilon
	case 1:
		return out[0]
	}
	return &rx{kind: rxCat, subs: out}
}

// rxAltOf unions, flattening nested unions and deduplicating branches.
func rxAltOf(subs ...*rx) *rx {
	var out []*rx
	seen := map[string]bool{}
	var collect func(s *rx)
	collect = func(s *rx) {
		if s == nil || s.kind == rxNone {
			return
		}
		if s.kind == rxAlt {
			for _, sub := range s.subs {
				collect(sub)
			}
			return
		}
		key := s.String()
		if !seen[key] {
			seen[key] = true
			out = append(out, s)
		}
	}
	for _, s := range subs {
		collect(s)
	}
	switch len(out) {
	case 0:
		return rxEmpty
	case 1:
		return out[0]
	}
	return &rx{kind: rxAlt, subs: out}
}

func rxStarOf(s *rx) *rx {
	if s == nil || s.kind == rxNone || s.kind == rxEps {
		return rxEpsilon
	}
	if s.kind == rxStar {
		return s
	}
	// An epsilon branch inside a starred union is redundant.
	if s.kind == rxAlt {
		var rest []*rx
		for _, sub := range s.subs {
			if sub.kind != rxEps {
				rest = append(rest, sub)
			}
		}
		if len(rest) < len(s.subs) {
			return rxStarOf(rxAltOf(rest...))
		}
	}
	return &rx{kind: rxStar, subs: []*rx{s}}
}

// Rendering. The output uses the pattern syntax this package parses, so a
// reconstructed expression round-trips through ParsePattern.

func escapeAtom(r rune) string {
	switch r {
	case '\t':
		return "\\t"
	case '\n':
		return "\\n"
	case '\r':
		return "\\r"
	}
	if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
		return string(r)
	}
	return "\\" + string(r)
}

func escapeClassMember(r rune) string {
	switch r {
	case '\t':
		return "\\t"
	case '\n':
		return "\\n"
	case '\r':
		return "\\r"
	case '\\', ']', '-', '^':
		return "\\" + string(r)
	}
	return string(r)
}

// renderClassSet writes class members, collapsing runs of three or more
// consecutive runes into ranges.
func renderClassSet(sb *strings.Builder, set []rune) {
	for i := 0; i < len(set); {
		j := i
		for j+1 < len(set) && set[j+1] == set[j]+1 {
			j++
		}
		if j-i >= 2 {
			sb.WriteString(escapeClassMember(set[i]))
			sb.WriteByte('-')
			sb.WriteString(escapeClassMember(set[j]))
		} else {
			for k := i; k <= j; k++ {
				sb.WriteString(escapeClassMember(set[k]))
			}
		}
		i = j + 1
	}
}

func renderLabel(sb *strings.Builder, l Label) {
	switch l.Kind {
	case Char:
		sb.WriteString(escapeAtom(l.Ch))
	case ClassIn:
		sb.WriteByte('[')
		renderClassSet(sb, l.Set)
		sb.WriteByte(']')
	case ClassOut:
		sb.WriteString("[^")
		renderClassSet(sb, l.Set)
		sb.WriteByte(']')
	default:
		sb.WriteByte('.')
	}
}

func (r *rx) String() string {
	var sb strings.Builder
	r.writeAlt(&sb)
	return sb.String()
}

// splitEps separates an epsilon branch from the rest of a union.
func (r *rx) splitEps() ([]*rx, bool) {
	var rest []*rx
	hasEps := false
	for _, s := range r.subs {
		if s.kind == rxEps {
			hasEps = true
		} else {
			rest = append(rest, s)
		}
	}
	return rest, hasEps
}

func (r *rx) writeAlt(sb *strings.Builder) {
	if r.kind != rxAlt {
		r.writeSeq(sb)
		return
	}
	rest, hasEps := r.splitEps()
	if hasEps {
		// A union with an epsilon branch renders as an optional.
		if len(rest) == 0 {
			sb.WriteString("()")
			return
		}
		if len(rest) == 1 {
			rest[0].writeAtom(sb)
		} else {
			sb.WriteByte('(')
			for i, s := range rest {
				if i > 0 {
					sb.WriteByte('|')
				}
				s.writeSeq(sb)
			}
			sb.WriteByte(')')
		}
		sb.WriteByte('?')
		return
	}
	for i, s := range r.subs {
		if i > 0 {
			sb.WriteByte('|')
		}
		s.writeSeq(sb)
	}
}

func (r *rx) writeSeq(sb *strings.Builder) {
	if r.kind != rxCat {
		r.writeElem(sb)
		return
	}
	for i := 0; i < len(r.subs); {
		cur := r.subs[i]
		// x x* and x* x render as x+.
		if i+1 < len(r.subs) {
			next := r.subs[i+1]
			if next.kind == rxStar && next.subs[0].String() == cur.String() {
				cur.writeAtom(sb)
				sb.WriteByte('+')
				i += 2
				continue
			}
			if cur.kind == rxStar && next.String() == cur.subs[0].String() {
				next.writeAtom(sb)
				sb.WriteByte('+')
				i += 2
				continue
			}
		}
		cur.writeElem(sb)
		i++
	}
}

func (r *rx) writeElem(sb *strings.Builder) {
	switch r.kind {
	case rxEps:
		sb.WriteString("()")
	case rxLit:
		renderLabel(sb, r.label)
	case rxStar:
		r.subs[0].writeAtom(sb)
		sb.WriteByte('*')
	case rxAlt:
		if _, hasEps := r.splitEps(); hasEps {
			r.writeAlt(sb)
			return
		}
		sb.WriteByte('(')
		r.writeAlt(sb)
		sb.WriteByte(')')
	case rxCat:
		sb.WriteByte('(')
		r.writeSeq(sb)
		sb.WriteByte(')')
	}
}

func (r *rx) writeAtom(sb *strings.Builder) {
	if r.kind == rxLit {
		renderLabel(sb, r.label)
		return
	}
	sb.WriteByte('(')
	r.writeAlt(sb)
	sb.WriteByte(')')
}

// Length bounds over the tree; maxLen reports -1 for unbounded.

func rxMinLen(r *rx) int {
	switch r.kind {
	case rxLit:
		return 1
	case rxCat:
		n := 0
		for _, s := range r.subs {
			n += rxMinLen(s)
		}
		return n
	case rxAlt:
		best := -1
		for _, s := range r.subs {
			if n := rxMinLen(s); best < 0 || n < best {
				best = n
			}
		}
		if best < 0 {
			return 0
		}
		return best
	}
	return 0
}

func rxMaxLen(r *rx) int {
	switch r.kind {
	case rxLit:
		return 1
	case rxCat:
		n := 0
		for _, s := range r.subs {
			m := rxMaxLen(s)
			if m < 0 {
				return -1
			}
			n += m
		}
		return n
	case rxAlt:
		best := 0
		for _, s := range r.subs {
			m := rxMaxLen(s)
			if m < 0 {
				return -1
			}
			if m > best {
				best = m
			}
		}
		return best
	case rxStar:
		if rxMaxLen(r.subs[0]) == 0 {
			return 0
		}
		return -1
	}
	return 0
}

// rxAutomaton compiles the tree back into an automaton, for the exact
// containment fallback.
func rxAutomaton(r *rx) *Automaton {
	switch r.kind {
	case rxEps:
		return emptyString()
	case rxLit:
		return charAutomaton(r.label)
	case rxCat:
		out := rxAutomaton(r.subs[0])
		for _, s := range r.subs[1:] {
			out = concatenate(out, rxAutomaton(s))
		}
		return out
	case rxAlt:
		out := rxAutomaton(r.subs[0])
		for _, s := range r.subs[1:] {
			out = union(out, rxAutomaton(s))
		}
		return out
	case rxStar:
		return star(rxAutomaton(r.subs[0]))
	}
	// Empty set: two unconnected states.
	return NewAutomaton()
}

// labelSubset reports whether every rune x matches is also matched by y.
func labelSubset(x, y Label) bool {
	if y.Kind == AnyChar {
		return true
	}
	switch x.Kind {
	case Char:
		return y.Matches(x.Ch)
	case ClassIn:
		for _, r := range x.Set {
			if !y.Matches(r) {
				return false
			}
		}
		return true
	case ClassOut:
		if y.Kind != ClassOut {
			return false
		}
		// Complements invert inclusion.
		for _, r := range y.Set {
			if x.Matches(r) {
				return false
			}
		}
		return true
	}
	return false
}

// RegexpOption configures equivalent-regex reconstruction.
type RegexpOption func(*regenConfig)

type regenConfig struct {
	fallback  bool
	workLimit int
}

// WithoutExactFallback restricts union absorption to the cheap structural
// heuristics, skipping the automaton-based containment check.
func WithoutExactFallback() RegexpOption {
	return func(c *regenConfig) { c.fallback = false }
}

// WithRegexpWorkLimit bounds the minimization and exact-containment work.
func WithRegexpWorkLimit(n int) RegexpOption {
	return func(c *regenConfig) { c.workLimit = n }
}

// contained reports whether x's language is a subset of y's. Structural
// heuristics cover the common shapes cheaply; when they are inconclusive
// and the fallback is enabled, the exact emptiness check on x ∩ ¬y decides.
func (c *regenConfig) contained(x, y *rx) bool {
	if x.kind == rxNone {
		return true
	}
	if x.String() == y.String() {
		return true
	}
	switch y.kind {
	case rxStar:
		inner := y.subs[0]
		switch {
		case x.kind == rxEps:
			return true
		case c.contained(x, inner):
			return true
		case x.kind == rxStar && c.contained(x.subs[0], inner):
			return true
		case x.kind == rxCat || x.kind == rxAlt:
			all := true
			for _, s := range x.subs {
				if !c.contained(s, y) {
					all = false
					break
				}
			}
			if all {
				return true
			}
		}
	case rxAlt:
		for _, s := range y.subs {
			if c.contained(x, s) {
				return true
			}
		}
	case rxLit:
		if x.kind == rxLit && labelSubset(x.label, y.label) {
			return true
		}
	}
	if x.kind == rxAlt {
		all := true
		for _, s := range x.subs {
			if !c.contained(s, y) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	if !c.fallback {
		return false
	}
	// Length bounds rule out containment without building anything.
	if rxMinLen(x) < rxMinLen(y) {
		return false
	}
	if maxY := rxMaxLen(y); maxY >= 0 {
		if maxX := rxMaxLen(x); maxX < 0 || maxX > maxY {
			return false
		}
	}
	comp, err := complement(rxAutomaton(y), c.workLimit)
	if err != nil {
		return false
	}
	return IsEmpty(conjunction(rxAutomaton(x), comp))
}

// mergeAltLabels folds single-label branches of a union into one class.
func mergeAltLabels(subs []*rx) []*rx {
	var labels []Label
	var rest []*rx
	for _, s := range subs {
		if s.kind == rxLit {
			labels = append(labels, s.label)
		} else {
			rest = append(rest, s)
		}
	}
	if len(labels) < 2 {
		return subs
	}
	anyChar := false
	var pos []rune
	var negs [][]rune
	for _, l := range labels {
		switch l.Kind {
		case AnyChar:
			anyChar = true
		case Char:
			pos = append(pos, l.Ch)
		case ClassIn:
			pos = append(pos, l.Set...)
		case ClassOut:
			negs = append(negs, l.Set)
		}
	}
	var merged Label
	switch {
	case anyChar:
		merged = anyLabel()
	case len(negs) > 0:
		// Union of complements is the complement of the intersection,
		// less any runes the positive branches cover.
		keep := negs[0]
		for _, set := range negs[1:] {
			var next []rune
			for _, r := range keep {
				l := Label{Kind: ClassIn, Set: set}
				if len(set) == 1 {
					l = charLabel(set[0])
				}
				if l.Matches(r) {
					next = append(next, r)
				}
			}
			keep = next
		}
		var excl []rune
		posLabel := normClass(pos, false)
		for _, r := range keep {
			if len(pos) == 0 || !posLabel.Matches(r) {
				excl = append(excl, r)
			}
		}
		merged = normClass(excl, true)
	default:
		merged = normClass(pos, false)
	}
	return append(rest, rxLabel(merged))
}

// branchParts views a branch as its concatenation factors.
func branchParts(s *rx) []*rx {
	switch s.kind {
	case rxEps:
		return nil
	case rxCat:
		return s.subs
	}
	return []*rx{s}
}

// factorAlt pulls a shared leading (or trailing) factor out of union
// branches: ab|ac becomes a(b|c).
func factorAlt(subs []*rx, suffix bool) []*rx {
	groups := map[string][]int{}
	var order []string
	for i, s := range subs {
		parts := branchParts(s)
		if len(parts) < 2 {
			continue
		}
		edge := parts[0]
		if suffix {
			edge = parts[len(parts)-1]
		}
		key := edge.String()
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], i)
	}
	for _, key := range order {
		idx := groups[key]
		if len(idx) < 2 {
			continue
		}
		var rests []*rx
		for _, i := range idx {
			parts := branchParts(subs[i])
			if suffix {
				rests = append(rests, rxCatOf(parts[:len(parts)-1]...))
			} else {
				rests = append(rests, rxCatOf(parts[1:]...))
			}
		}
		var factored *rx
		parts := branchParts(subs[idx[0]])
		if suffix {
			factored = rxCatOf(rxAltOf(rests...), parts[len(parts)-1])
		} else {
			factored = rxCatOf(parts[0], rxAltOf(rests...))
		}
		var out []*rx
		taken := map[int]bool{}
		for _, i := range idx {
			taken[i] = true
		}
		for i, s := range subs {
			if !taken[i] {
				out = append(out, s)
			}
		}
		return append(out, factored)
	}
	return subs
}

func (c *regenConfig) simplify(r *rx) *rx {
	switch r.kind {
	case rxCat:
		subs := make([]*rx, len(r.subs))
		for i, s := range r.subs {
			subs[i] = c.simplify(s)
		}
		// Adjacent identical stars collapse.
		var out []*rx
		for _, s := range subs {
			n := len(out)
			if s.kind == rxStar && n > 0 && out[n-1].kind == rxStar &&
				out[n-1].String() == s.String() {
				continue
			}
			out = append(out, s)
		}
		return rxCatOf(out...)
	case rxAlt:
		subs := make([]*rx, len(r.subs))
		for i, s := range r.subs {
			subs[i] = c.simplify(s)
		}
		subs = mergeAltLabels(subs)
		// Absorb branches contained in a sibling.
		var kept []*rx
		for i, s := range subs {
			absorbed := false
			for j, t := range subs {
				if i == j {
					continue
				}
				// Keep the earliest of mutually contained branches.
				if c.contained(s, t) && (!c.contained(t, s) || j < i) {
					absorbed = true
					break
				}
			}
			if !absorbed {
				kept = append(kept, s)
			}
		}
		kept = factorAlt(kept, false)
		kept = factorAlt(kept, true)
		return rxAltOf(kept...)
	case rxStar:
		return rxStarOf(c.simplify(r.subs[0]))
	}
	return r
}

// eliminate runs state elimination over the automaton, whose single
// start/end states make it a generalized NFA directly. States are removed
// cheapest-degree first; each removal reroutes paths through the removed
// state as concatenations around its starred self-loop.
func eliminate(a *Automaton) *rx {
	type edgeKey struct{ src, dst int }
	edges := map[edgeKey]*rx{}
	addEdge := func(src, dst int, r *rx) {
		key := edgeKey{src, dst}
		if ex, ok := edges[key]; ok {
			edges[key] = rxAltOf(ex, r)
		} else {
			edges[key] = r
		}
	}
	for s, ts := range a.adj {
		for _, t := range ts {
			addEdge(s, t.Dest, rxLabel(t.Label))
		}
	}
	var remaining []int
	for s := 0; s < a.NumStates(); s++ {
		if s != a.start && s != a.end {
			remaining = append(remaining, s)
		}
	}
	for len(remaining) > 0 {
		degree := func(q int) (ins, outs []int) {
			for s := 0; s < a.NumStates(); s++ {
				if s != q {
					if _, ok := edges[edgeKey{s, q}]; ok {
						ins = append(ins, s)
					}
					if _, ok := edges[edgeKey{q, s}]; ok {
						outs = append(outs, s)
					}
				}
			}
			return
		}
		best := 0
		bestCost := -1
		for i, q := range remaining {
			ins, outs := degree(q)
			if cost := len(ins) * len(outs); bestCost < 0 || cost < bestCost {
				best, bestCost = i, cost
			}
		}
		q := remaining[best]
		remaining = append(remaining[:best], remaining[best+1:]...)
		ins, outs := degree(q)
		loop := rxEpsilon
		if self, ok := edges[edgeKey{q, q}]; ok {
			loop = rxStarOf(self)
		}
		for _, p := range ins {
			for _, s := range outs {
				addEdge(p, s, rxCatOf(edges[edgeKey{p, q}], loop, edges[edgeKey{q, s}]))
			}
		}
		for s := 0; s < a.NumStates(); s++ {
			delete(edges, edgeKey{s, q})
			delete(edges, edgeKey{q, s})
		}
		delete(edges, edgeKey{q, q})
	}
	if r, ok := edges[edgeKey{a.start, a.end}]; ok {
		return r
	}
	return rxEmpty
}

// ToRegexp reconstructs a textual pattern equivalent to the automaton, in
// this package's own syntax. The automaton is minimized first, eliminated
// into a raw expression, then rewritten by the simplifier until it stops
// changing. Capture tags do not survive; the reconstructed pattern matches
// the same strings without any groups.
func ToRegexp(a *Automaton, opts ...RegexpOption) (string, error) {
	cfg := &regenConfig{fallback: true, workLimit: DefaultWorkLimit}
	for _, opt := range opts {
		opt(cfg)
	}
	src := a
	if a.hasTags() {
		src = untag(a)
	}
	m, err := Minimize(src, cfg.workLimit)
	if err != nil {
		return "", err
	}
	r := eliminate(m.normalizeElse())
	if r.kind == rxNone {
		return "", fmt.Errorf("%w: automaton accepts no strings", ErrCapacity)
	}
	for pass := 0; pass < 8; pass++ {
		next := cfg.simplify(r)
		if next.String() == r.String() {
			break
		}
		r = next
	}
	return r.String(), nil
}

// untag strips capture tags from a copy of the automaton.
func untag(a *Automaton) *Automaton {
	b := a.clone()
	for s := range b.adj {
		for i := range b.adj[s] {
			b.adj[s][i].Tags = nil
		}
	}
	return b
}
