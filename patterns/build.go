package patterns

import "fmt"

// ToAutomaton compiles the pattern into a fresh automaton. Named patterns
// supplied via WithDefinition are built first, in order, into the session's
// pattern table; (?&name=...) definitions made inside the pattern extend the
// same table as construction reaches them.
func (p *Pattern) ToAutomaton() (*Automaton, error) {
	b := &builder{
		cfg:      p.cfg,
		table:    map[string]*Automaton{},
		building: map[string]bool{},
	}
	for _, def := range p.cfg.defs {
		sub, err := func() (*Automaton, error) {
			dp := &parser{input: []rune(def.pattern), maxDepth: p.cfg.maxDepth}
			if len(dp.input) == 0 {
				return b.build(&node{kind: PATTERN_EMPTY})
			}
			root, err := dp.parseUnionExp()
			if err != nil {
				return nil, err
			}
			if dp.more() {
				return nil, dp.syntaxErr(dp.pos, "unexpected %q", string(dp.input[dp.pos]))
			}
			return b.buildDefinition(def.name, root)
		}()
		if err != nil {
			return nil, fmt.Errorf("definition %q: %w", def.name, err)
		}
		_ = sub
	}
	return b.build(p.root)
}

type builder struct {
	cfg      buildConfig
	table    map[string]*Automaton // append-only named pattern table
	building map[string]bool       // names currently being defined
}

func (b *builder) buildDefinition(name string, body *node) (*Automaton, error) {
	if b.building[name] {
		return nil, fmt.Errorf("%w: pattern %q references itself", ErrReference, name)
	}
	if _, ok := b.table[name]; ok {
		return nil, fmt.Errorf("%w: pattern %q defined twice", ErrReference, name)
	}
	b.building[name] = true
	a, err := b.build(body)
	delete(b.building, name)
	if err != nil {
		return nil, err
	}
	b.table[name] = a
	return a.clone(), nil
}

// build is the single exhaustive construction switch: one case per operator,
// each composing the automata of its children into a fresh graph.
func (b *builder) build(n *node) (*Automaton, error) {
	switch n.kind {
	case PATTERN_CHAR:
		return charAutomaton(charLabel(n.ch)), nil
	case PATTERN_CLASS:
		return charAutomaton(normClass(n.set, n.negated)), nil
	case PATTERN_ANYCHAR:
		return charAutomaton(anyLabel()), nil
	case PATTERN_EMPTY:
		return emptyString(), nil
	case PATTERN_CONCAT:
		a1, a2, err := b.buildPair(n)
		if err != nil {
			return nil, err
		}
		return concatenate(a1, a2), nil
	case PATTERN_UNION:
		a1, a2, err := b.buildPair(n)
		if err != nil {
			return nil, err
		}
		return union(a1, a2), nil
	case PATTERN_REPEAT:
		a, err := b.build(n.exp1)
		if err != nil {
			return nil, err
		}
		return repeat(a, n.min, n.max), nil
	case PATTERN_CASE:
		a, err := b.build(n.exp1)
		if err != nil {
			return nil, err
		}
		return a.mapLabels(Label.caseFold), nil
	case PATTERN_CONJUNCTION:
		a1, a2, err := b.buildPair(n)
		if err != nil {
			return nil, err
		}
		return conjunction(a1, a2), nil
	case PATTERN_NEGATION:
		a, err := b.build(n.exp1)
		if err != nil {
			return nil, err
		}
		if a.hasTags() {
			return nil, fmt.Errorf("%w: capture groups cannot survive negation", ErrUnsupported)
		}
		return complement(a, b.cfg.workLimit)
	case PATTERN_REVERSAL:
		a, err := b.build(n.exp1)
		if err != nil {
			return nil, err
		}
		return reverse(a), nil
	case PATTERN_CONTAINS:
		inner, err := b.build(n.exp1)
		if err != nil {
			return nil, err
		}
		outer, err := b.build(n.exp2)
		if err != nil {
			return nil, err
		}
		return contains(inner, outer, n.strict), nil
	case PATTERN_ALTERNATING:
		a1, a2, err := b.buildPair(n)
		if err != nil {
			return nil, err
		}
		return alternating(a1, a2, n.ordered), nil
	case PATTERN_INTERLEAVE:
		a1, a2, err := b.buildPair(n)
		if err != nil {
			return nil, err
		}
		return interleave(a1, a2, n.strict), nil
	case PATTERN_SUBTRACT:
		a1, a2, err := b.buildPair(n)
		if err != nil {
			return nil, err
		}
		return subtract(a1, a2, n.sub)
	case PATTERN_SLICE:
		a, err := b.build(n.exp1)
		if err != nil {
			return nil, err
		}
		return buildSlice(a, n)
	case PATTERN_REPLACE:
		a1, err := b.build(n.exp1)
		if err != nil {
			return nil, err
		}
		a2, err := b.build(n.exp2)
		if err != nil {
			return nil, err
		}
		a3, err := b.build(n.exp3)
		if err != nil {
			return nil, err
		}
		return replaceInside(a1, a2, a3, n.strict)
	case PATTERN_ROTATE:
		a, err := b.build(n.exp1)
		if err != nil {
			return nil, err
		}
		return buildRotate(a, n)
	case PATTERN_SHIFT:
		a, err := b.build(n.exp1)
		if err != nil {
			return nil, err
		}
		if !n.all {
			return a.mapLabels(func(l Label) Label { return l.shift(n.amount) }), nil
		}
		// The parameterless form unions all 25 nonzero shifts.
		result := a.mapLabels(func(l Label) Label { return l.shift(1) })
		for k := 2; k < 26; k++ {
			result = union(result, a.mapLabels(func(l Label) Label { return l.shift(k) }))
		}
		return result, nil
	case PATTERN_DEFINE:
		return b.buildDefinition(n.name, n.exp1)
	case PATTERN_REFERENCE:
		if b.building[n.name] {
			return nil, fmt.Errorf("%w: pattern %q referenced inside its own definition", ErrReference, n.name)
		}
		a, ok := b.table[n.name]
		if !ok {
			return nil, fmt.Errorf("%w: pattern %q is not defined", ErrReference, n.name)
		}
		return a.clone(), nil
	case PATTERN_WORDS:
		if b.cfg.words == nil {
			return nil, fmt.Errorf("%w: \\w used but no word list supplied", ErrReference)
		}
		return wordListAutomaton(b.cfg.words), nil
	case PATTERN_FSM:
		if b.cfg.fsm == nil {
			return nil, fmt.Errorf("%w: \\f used but no external FSM supplied", ErrReference)
		}
		return b.cfg.fsm.clone(), nil
	case PATTERN_CAPTURE:
		a, err := b.build(n.exp1)
		if err != nil {
			return nil, err
		}
		return a.tagged(n.name), nil
	case PATTERN_DETERMINIZE:
		a, err := b.build(n.exp1)
		if err != nil {
			return nil, err
		}
		return Determinize(a, b.cfg.workLimit)
	case PATTERN_MINIMIZE:
		a, err := b.build(n.exp1)
		if err != nil {
			return nil, err
		}
		return Minimize(a, b.cfg.workLimit)
	default:
		return nil, fmt.Errorf("%w: unknown pattern node kind %d", ErrSyntax, n.kind)
	}
}

func (b *builder) buildPair(n *node) (*Automaton, *Automaton, error) {
	a1, err := b.build(n.exp1)
	if err != nil {
		return nil, nil, err
	}
	a2, err := b.build(n.exp2)
	if err != nil {
		return nil, nil, err
	}
	return a1, a2, nil
}

// emptyString returns an automaton accepting only the empty string.
func emptyString() *Automaton {
	a := NewAutomaton()
	a.AddEpsilon(a.start, a.end)
	return a
}

// charAutomaton returns the two-state automaton for a single label.
func charAutomaton(l Label) *Automaton {
	a := NewAutomaton()
	a.AddTransition(a.start, a.end, l)
	return a
}

// concatenate splices the end of a1 to the start of a2.
func concatenate(a1, a2 *Automaton) *Automaton {
	b := newBare()
	o1 := b.Copy(a1)
	o2 := b.Copy(a2)
	b.AddEpsilon(o1+a1.end, o2+a2.start)
	b.SetAccept(o1+a1.end, false)
	b.start = o1 + a1.start
	b.end = o2 + a2.end
	return b
}

// union joins both operands between a fresh start and end.
func union(a1, a2 *Automaton) *Automaton {
	b := newBare()
	start := b.CreateState()
	o1 := b.Copy(a1)
	o2 := b.Copy(a2)
	end := b.CreateState()
	b.AddEpsilon(start, o1+a1.start)
	b.AddEpsilon(start, o2+a2.start)
	b.AddEpsilon(o1+a1.end, end)
	b.AddEpsilon(o2+a2.end, end)
	b.SetAccept(o1+a1.end, false)
	b.SetAccept(o2+a2.end, false)
	b.SetAccept(end, true)
	b.start = start
	b.end = end
	return b
}

// star is Thompson's construction: an epsilon loop back from end to start
// plus an epsilon bypass from start to end.
func star(a *Automaton) *Automaton {
	b := newBare()
	start := b.CreateState()
	o := b.Copy(a)
	end := b.CreateState()
	b.AddEpsilon(start, o+a.start)
	// Loop back before exiting so repetition is greedy under the matcher's
	// first-reached priority.
	b.AddEpsilon(o+a.end, o+a.start)
	b.AddEpsilon(o+a.end, end)
	b.AddEpsilon(start, end)
	b.SetAccept(o+a.end, false)
	b.SetAccept(end, true)
	b.start = start
	b.end = end
	return b
}

// optional accepts a's language plus the empty string.
func optional(a *Automaton) *Automaton {
	b := newBare()
	start := b.CreateState()
	o := b.Copy(a)
	end := b.CreateState()
	b.AddEpsilon(start, o+a.start)
	b.AddEpsilon(o+a.end, end)
	b.AddEpsilon(start, end)
	b.SetAccept(o+a.end, false)
	b.SetAccept(end, true)
	b.start = start
	b.end = end
	return b
}

// repeat expresses {min,max} (max < 0 for unbounded) as repeated
// concatenation plus an optional trailing star; no new graph logic.
func repeat(a *Automaton, minCount, maxCount int) *Automaton {
	result := emptyString()
	for i := 0; i < minCount; i++ {
		result = concatenate(result, a)
	}
	if maxCount < 0 {
		return concatenate(result, star(a))
	}
	for i := minCount; i < maxCount; i++ {
		result = concatenate(result, optional(a))
	}
	return result
}

// wordListAutomaton compiles a word list into a prefix-tree automaton with
// every word-final node wired to a single end state.
func wordListAutomaton(words []string) *Automaton {
	a := NewAutomaton()
	type edgeKey struct {
		state int
		ch    rune
	}
	edges := map[edgeKey]int{}
	for _, w := range words {
		s := a.start
		for _, r := range w {
			key := edgeKey{s, r}
			d, ok := edges[key]
			if !ok {
				d = a.CreateState()
				edges[key] = d
				a.AddTransition(s, d, charLabel(r))
			}
			s = d
		}
		if s == a.start {
			a.AddEpsilon(a.start, a.end)
		} else {
			a.AddEpsilon(s, a.end)
		}
	}
	return a
}

// Wildcard building blocks used by slicing and rotation.
func wildOnce() *Automaton { return charAutomaton(anyLabel()) }

func wildExactly(k int) *Automaton { return repeat(wildOnce(), k, k) }

func wildAtMost(k int) *Automaton { return repeat(wildOnce(), 0, k) }

func wildAnyLength() *Automaton { return star(wildOnce()) }

// slicePrefix builds { s[:k] : s in L(a) }: strings of length exactly k
// extendable into the language, plus shorter members kept whole.
func slicePrefix(a *Automaton, k int) (*Automaton, error) {
	cut, err := subtract(a, wildAnyLength(), subRight)
	if err != nil {
		return nil, err
	}
	exact := conjunction(cut, wildExactly(k))
	if k == 0 {
		return exact, nil
	}
	short := conjunction(a, wildAtMost(k-1))
	return union(exact, short), nil
}

// sliceFrom builds { s[k:] : s in L(a) } by stripping any length-k prefix.
func sliceFrom(a *Automaton, k int) (*Automaton, error) {
	return subtract(a, wildExactly(k), subLeft)
}

func buildSlice(a *Automaton, n *node) (*Automaton, error) {
	stride := n.stride
	if stride < 0 {
		// A negative stride slices the reversed strings with the
		// corresponding positive stride.
		a = reverse(a)
		stride = -stride
	}
	var err error
	low := 0
	if n.hasLow && n.low > 0 {
		low = n.low
		a, err = sliceFrom(a, low)
		if err != nil {
			return nil, err
		}
	}
	if n.hasHigh {
		k := n.high - low
		if k < 0 {
			k = 0
		}
		a, err = slicePrefix(a, k)
		if err != nil {
			return nil, err
		}
	}
	if stride > 1 {
		return strideSelect(a, stride)
	}
	return a, nil
}

// rotateBy builds the length-k prefix/suffix split of the slicing-based
// rotation: strings formed by a suffix after position k followed by a
// prefix up to position k.
func rotateBy(a *Automaton, k int) (*Automaton, error) {
	if k == 0 {
		return a.clone(), nil
	}
	suffix, err := sliceFrom(a, k)
	if err != nil {
		return nil, err
	}
	prefix, err := slicePrefix(a, k)
	if err != nil {
		return nil, err
	}
	return concatenate(suffix, prefix), nil
}

func buildRotate(a *Automaton, n *node) (*Automaton, error) {
	switch {
	case n.all:
		// Every split point: one clone pair per automaton state, the
		// suffix language from that state followed by the prefix
		// language into it.
		result := a.clone()
		for s := 0; s < a.NumStates(); s++ {
			if s == a.start || s == a.end {
				continue
			}
			result = union(result, concatenate(partFrom(a, s), partTo(a, s)))
		}
		return Trim(result), nil
	case n.orLess:
		result, err := rotateBy(a, 0)
		if err != nil {
			return nil, err
		}
		for k := 1; k <= n.amount; k++ {
			r, err := rotateBy(a, k)
			if err != nil {
				return nil, err
			}
			result = union(result, r)
		}
		return result, nil
	default:
		return rotateBy(a, n.amount)
	}
}

// partFrom is a's language read from state s to the end.
func partFrom(a *Automaton, s int) *Automaton {
	b := a.clone()
	start := b.CreateState()
	b.AddEpsilon(start, s)
	b.start = start
	return b
}

// partTo is a's language read from the start up to state s.
func partTo(a *Automaton, s int) *Automaton {
	b := a.clone()
	end := b.CreateState()
	b.SetAccept(b.end, false)
	b.AddEpsilon(s, end)
	b.SetAccept(end, true)
	b.end = end
	return b
}
