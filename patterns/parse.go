package patterns

import (
	"fmt"
)

// DefaultMaxDepth bounds pattern nesting during parsing and construction so
// pathological input fails with ErrCapacity instead of overflowing the
// stack.
const DefaultMaxDepth = 200

// Pattern is a parsed extended regular expression, ready to be compiled
// into an automaton.
type Pattern struct {
	root *node
	src  string
	cfg  buildConfig
}

type defEntry struct {
	name    string
	pattern string
}

type buildConfig struct {
	words           []string
	fsm             *Automaton
	caseInsensitive bool
	maxDepth        int
	workLimit       int
	defs            []defEntry
}

// BuildOption configures parsing and construction.
type BuildOption func(*buildConfig)

// WithWordList supplies the word list the \w escape compiles into an
// automaton (as a prefix tree, not an alternation).
func WithWordList(words []string) BuildOption {
	return func(c *buildConfig) { c.words = words }
}

// WithFSM supplies the parsed external FSM the \f escape refers to.
func WithFSM(a *Automaton) BuildOption {
	return func(c *buildConfig) { c.fsm = a }
}

// WithCaseInsensitive makes the whole pattern case-insensitive, as if
// wrapped in (?i:...).
func WithCaseInsensitive() BuildOption {
	return func(c *buildConfig) { c.caseInsensitive = true }
}

// WithDefinition pre-defines a named pattern for (?&name) references.
// Definitions are built in the order given; later ones may reference
// earlier ones.
func WithDefinition(name, pattern string) BuildOption {
	return func(c *buildConfig) { c.defs = append(c.defs, defEntry{name, pattern}) }
}

// WithWorkLimit overrides DefaultWorkLimit for determinizations performed
// during construction (negation, (?D:), (?M:)).
func WithWorkLimit(n int) BuildOption {
	return func(c *buildConfig) { c.workLimit = n }
}

// WithMaxDepth overrides DefaultMaxDepth.
func WithMaxDepth(n int) BuildOption {
	return func(c *buildConfig) { c.maxDepth = n }
}

// ParsePattern parses the extended regular-expression syntax into a
// Pattern. The grammar, loosest to tightest: union |, the wordplay binary
// operators (& < << > >> # ## ^ ^^ and the subtraction family),
// concatenation, repetition suffixes, prefix negation, atoms.
func ParsePattern(s string, opts ...BuildOption) (*Pattern, error) {
	cfg := buildConfig{maxDepth: DefaultMaxDepth, workLimit: DefaultWorkLimit}
	for _, opt := range opts {
		opt(&cfg)
	}
	p := &parser{input: []rune(s), maxDepth: cfg.maxDepth}
	var root *node
	var err error
	if len(p.input) == 0 {
		root = &node{kind: PATTERN_EMPTY}
	} else {
		root, err = p.parseUnionExp()
		if err != nil {
			return nil, err
		}
		if p.more() {
			return nil, p.syntaxErr(p.pos, "unexpected %q", string(p.input[p.pos]))
		}
	}
	if cfg.caseInsensitive {
		root = &node{kind: PATTERN_CASE, exp1: root}
	}
	return &Pattern{root: root, src: s, cfg: cfg}, nil
}

// Build parses the pattern and compiles it into an automaton.
func Build(s string, opts ...BuildOption) (*Automaton, error) {
	p, err := ParsePattern(s, opts...)
	if err != nil {
		return nil, err
	}
	return p.ToAutomaton()
}

type parser struct {
	input        []rune
	pos          int
	depth        int
	maxDepth     int
	bracketDepth int // > 0 while parsing the [...] arguments of (?z:)/(?Z:)
}

func (p *parser) more() bool { return p.pos < len(p.input) }

func (p *parser) peekRune() rune { return p.input[p.pos] }

func (p *parser) next() rune {
	r := p.input[p.pos]
	p.pos++
	return r
}

// lookahead reports whether the input continues with s, without consuming.
func (p *parser) lookahead(s string) bool {
	i := p.pos
	for _, r := range s {
		if i >= len(p.input) || p.input[i] != r {
			return false
		}
		i++
	}
	return true
}

// take consumes s if the input continues with it.
func (p *parser) take(s string) bool {
	if !p.lookahead(s) {
		return false
	}
	p.pos += len([]rune(s))
	return true
}

func (p *parser) syntaxErr(pos int, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	end := min(pos+12, len(p.input))
	frag := string(p.input[pos:end])
	return fmt.Errorf("%w: %s at position %d near %q", ErrSyntax, msg, pos, frag)
}

func (p *parser) enter() error {
	p.depth++
	if p.depth > p.maxDepth {
		return fmt.Errorf("%w: pattern nesting deeper than %d", ErrCapacity, p.maxDepth)
	}
	return nil
}

func (p *parser) leave() { p.depth-- }

func (p *parser) parseUnionExp() (*node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()
	e, err := p.parseBinaryExp()
	if err != nil {
		return nil, err
	}
	if p.take("|") {
		rhs, err := p.parseUnionExp()
		if err != nil {
			return nil, err
		}
		return &node{kind: PATTERN_UNION, exp1: e, exp2: rhs, pos: e.pos}, nil
	}
	return e, nil
}

// binaryOps lists the wordplay operator spellings, longest first so
// tokenization never splits a multi-rune operator.
var binaryOps = []struct {
	tok  string
	make func(lhs, rhs *node) *node
}{
	{"_-##", func(l, r *node) *node { return subNode(l, r, subAlternateLeft) }},
	{"_-^^", func(l, r *node) *node { return subNode(l, r, subInterleaveLeft) }},
	{"_-", func(l, r *node) *node { return subNode(l, r, subLeft) }},
	{"->>", func(l, r *node) *node { return subNode(l, r, subInsideStrict) }},
	{"->", func(l, r *node) *node { return subNode(l, r, subInside) }},
	{"-<<", func(l, r *node) *node { return subNode(l, r, subOutsideStrict) }},
	{"-<", func(l, r *node) *node { return subNode(l, r, subOutside) }},
	{"-##", func(l, r *node) *node { return subNode(l, r, subAlternateOrdered) }},
	{"-#", func(l, r *node) *node { return subNode(l, r, subAlternate) }},
	{"-^^", func(l, r *node) *node { return subNode(l, r, subInterleaveStrict) }},
	{"-^", func(l, r *node) *node { return subNode(l, r, subInterleave) }},
	{"-", func(l, r *node) *node { return subNode(l, r, subRight) }},
	{"<<", func(l, r *node) *node { return binNode(PATTERN_CONTAINS, l, r, true, false) }},
	{"<", func(l, r *node) *node { return binNode(PATTERN_CONTAINS, l, r, false, false) }},
	{">>", func(l, r *node) *node { return binNode(PATTERN_CONTAINS, r, l, true, false) }},
	{">", func(l, r *node) *node { return binNode(PATTERN_CONTAINS, r, l, false, false) }},
	{"##", func(l, r *node) *node { return binNode(PATTERN_ALTERNATING, l, r, false, true) }},
	{"#", func(l, r *node) *node { return binNode(PATTERN_ALTERNATING, l, r, false, false) }},
	{"^^", func(l, r *node) *node { return binNode(PATTERN_INTERLEAVE, l, r, true, false) }},
	{"^", func(l, r *node) *node { return binNode(PATTERN_INTERLEAVE, l, r, false, false) }},
	{"&", func(l, r *node) *node { return binNode(PATTERN_CONJUNCTION, l, r, false, false) }},
}

func subNode(l, r *node, k subtractKind) *node {
	return &node{kind: PATTERN_SUBTRACT, exp1: l, exp2: r, sub: k, pos: l.pos}
}

func binNode(kind Kind, l, r *node, strict, ordered bool) *node {
	return &node{kind: kind, exp1: l, exp2: r, strict: strict, ordered: ordered, pos: l.pos}
}

func (p *parser) parseBinaryExp() (*node, error) {
	e, err := p.parseConcatExp()
	if err != nil {
		return nil, err
	}
	for p.more() {
		matched := false
		for _, op := range binaryOps {
			// A bare underscore is only an operator as part of _- .
			if op.tok[0] == '_' && !p.lookahead(op.tok) {
				continue
			}
			if p.take(op.tok) {
				rhs, err := p.parseConcatExp()
				if err != nil {
					return nil, err
				}
				e = op.make(e, rhs)
				matched = true
				break
			}
		}
		if !matched {
			break
		}
	}
	return e, nil
}

// stopsConcat reports whether the rune at the current position terminates a
// concatenation operand.
func (p *parser) stopsConcat() bool {
	r := p.peekRune()
	switch r {
	case '|', '&', '<', '>', '#', '^', ')', '-':
		return true
	case '_':
		return p.pos+1 < len(p.input) && p.input[p.pos+1] == '-'
	case ']':
		return p.bracketDepth > 0
	}
	return false
}

func (p *parser) parseConcatExp() (*node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()
	var e *node
	for p.more() && !p.stopsConcat() {
		item, err := p.parseComplExp()
		if err != nil {
			return nil, err
		}
		if e == nil {
			e = item
		} else {
			e = &node{kind: PATTERN_CONCAT, exp1: e, exp2: item, pos: e.pos}
		}
	}
	if e == nil {
		return &node{kind: PATTERN_EMPTY, pos: p.pos}, nil
	}
	return e, nil
}

func (p *parser) parseRepeatExp() (*node, error) {
	e, err := p.parseAtomExp()
	if err != nil {
		return nil, err
	}
	for p.more() {
		switch {
		case p.take("*"):
			e = &node{kind: PATTERN_REPEAT, exp1: e, min: 0, max: -1, pos: e.pos}
		case p.take("+"):
			e = &node{kind: PATTERN_REPEAT, exp1: e, min: 1, max: -1, pos: e.pos}
		case p.take("?"):
			e = &node{kind: PATTERN_REPEAT, exp1: e, min: 0, max: 1, pos: e.pos}
		case p.lookahead("{"):
			rep, err := p.parseRepeatBounds(e)
			if err != nil {
				return nil, err
			}
			e = rep
		default:
			return e, nil
		}
	}
	return e, nil
}

func (p *parser) parseRepeatBounds(e *node) (*node, error) {
	start := p.pos
	p.take("{")
	minCount, ok := p.parseInt()
	if !ok {
		return nil, p.syntaxErr(start, "malformed repetition bounds")
	}
	maxCount := minCount
	if p.take(",") {
		maxCount = -1
		if n, ok := p.parseInt(); ok {
			maxCount = n
		}
	}
	if !p.take("}") {
		return nil, p.syntaxErr(start, "unterminated repetition bounds")
	}
	if maxCount >= 0 && maxCount < minCount {
		return nil, p.syntaxErr(start, "repetition bounds out of order")
	}
	return &node{kind: PATTERN_REPEAT, exp1: e, min: minCount, max: maxCount, pos: e.pos}, nil
}

func (p *parser) parseComplExp() (*node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()
	pos := p.pos
	// Negation binds above the repetition suffixes: ¬a+ is the complement
	// of a+, not one-or-more non-a characters.
	if p.take("¬") {
		e, err := p.parseComplExp()
		if err != nil {
			return nil, err
		}
		return &node{kind: PATTERN_NEGATION, exp1: e, pos: pos}, nil
	}
	if p.take("~") {
		return nil, fmt.Errorf("%w: anagram matching is not a regular language and cannot be expressed as an automaton (position %d)", ErrUnsupported, pos)
	}
	return p.parseRepeatExp()
}

func (p *parser) parseInt() (int, bool) {
	start := p.pos
	n := 0
	for p.more() && p.peekRune() >= '0' && p.peekRune() <= '9' {
		n = n*10 + int(p.next()-'0')
	}
	return n, p.pos > start
}

func (p *parser) parseAtomExp() (*node, error) {
	if !p.more() {
		return nil, p.syntaxErr(p.pos, "unexpected end of pattern")
	}
	pos := p.pos
	switch r := p.peekRune(); r {
	case '(':
		return p.parseGroup()
	case '[':
		return p.parseCharClass()
	case '.':
		p.next()
		return &node{kind: PATTERN_ANYCHAR, pos: pos}, nil
	case '\\':
		return p.parseEscape()
	case '*', '+', '?', '{', '}':
		return nil, p.syntaxErr(pos, "unexpected %q", string(r))
	default:
		p.next()
		return &node{kind: PATTERN_CHAR, ch: r, pos: pos}, nil
	}
}

func (p *parser) parseEscape() (*node, error) {
	pos := p.pos
	p.take("\\")
	if !p.more() {
		return nil, p.syntaxErr(pos, "dangling escape")
	}
	r := p.next()
	switch r {
	case 'w':
		return &node{kind: PATTERN_WORDS, pos: pos}, nil
	case 'f':
		return &node{kind: PATTERN_FSM, pos: pos}, nil
	case 't':
		return &node{kind: PATTERN_CHAR, ch: '\t', pos: pos}, nil
	case 'n':
		return &node{kind: PATTERN_CHAR, ch: '\n', pos: pos}, nil
	case 'r':
		return &node{kind: PATTERN_CHAR, ch: '\r', pos: pos}, nil
	}
	if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
		return nil, p.syntaxErr(pos, "unknown escape \\%s", string(r))
	}
	return &node{kind: PATTERN_CHAR, ch: r, pos: pos}, nil
}

// maxClassRange caps expanded character ranges so [\x00-\U0010FFFF]-style
// input cannot allocate unboundedly.
const maxClassRange = 1 << 16

func (p *parser) parseCharClass() (*node, error) {
	pos := p.pos
	p.take("[")
	negated := p.take("^")
	var set []rune
	readOne := func() (rune, error) {
		if p.take("\\") {
			if !p.more() {
				return 0, p.syntaxErr(pos, "dangling escape in class")
			}
			r := p.next()
			switch r {
			case 't':
				return '\t', nil
			case 'n':
				return '\n', nil
			case 'r':
				return '\r', nil
			}
			return r, nil
		}
		return p.next(), nil
	}
	for {
		if !p.more() {
			return nil, p.syntaxErr(pos, "unterminated character class")
		}
		if p.take("]") {
			break
		}
		lo, err := readOne()
		if err != nil {
			return nil, err
		}
		if p.lookahead("-") && !p.lookahead("-]") {
			p.take("-")
			if !p.more() {
				return nil, p.syntaxErr(pos, "unterminated character class")
			}
			hi, err := readOne()
			if err != nil {
				return nil, err
			}
			if hi < lo {
				return nil, p.syntaxErr(pos, "class range %s-%s out of order", string(lo), string(hi))
			}
			if int(hi-lo) >= maxClassRange {
				return nil, fmt.Errorf("%w: class range wider than %d", ErrCapacity, maxClassRange)
			}
			for r := lo; r <= hi; r++ {
				set = append(set, r)
			}
		} else {
			set = append(set, lo)
		}
	}
	if len(set) == 0 {
		return nil, p.syntaxErr(pos, "empty character class")
	}
	return &node{kind: PATTERN_CLASS, set: set, negated: negated, pos: pos}, nil
}

func (p *parser) parseGroup() (*node, error) {
	pos := p.pos
	p.take("(")
	switch {
	case p.take("?i:"):
		return p.wrapGroup(pos, PATTERN_CASE)
	case p.take("?r:"):
		return p.wrapGroup(pos, PATTERN_REVERSAL)
	case p.take("?D:"):
		return p.wrapGroup(pos, PATTERN_DETERMINIZE)
	case p.take("?M:"):
		return p.wrapGroup(pos, PATTERN_MINIMIZE)
	case p.take("?:"):
		return p.plainGroup(pos)
	case p.take("?s<"):
		n, ok := p.parseInt()
		if !ok || !p.take(">:") {
			return nil, p.syntaxErr(pos, "malformed shift group")
		}
		e, err := p.groupBody(pos)
		if err != nil {
			return nil, err
		}
		return &node{kind: PATTERN_SHIFT, exp1: e, amount: n, pos: pos}, nil
	case p.take("?s:"):
		e, err := p.groupBody(pos)
		if err != nil {
			return nil, err
		}
		return &node{kind: PATTERN_SHIFT, exp1: e, all: true, pos: pos}, nil
	case p.take("?S:"):
		e, err := p.groupBody(pos)
		if err != nil {
			return nil, err
		}
		return p.parseSliceSuffix(pos, e)
	case p.take("?z:"):
		return p.parseReplace(pos, false)
	case p.take("?Z:"):
		return p.parseReplace(pos, true)
	case p.take("?R<="):
		n, ok := p.parseInt()
		if !ok || !p.take(">:") {
			return nil, p.syntaxErr(pos, "malformed rotation group")
		}
		e, err := p.groupBody(pos)
		if err != nil {
			return nil, err
		}
		return &node{kind: PATTERN_ROTATE, exp1: e, amount: n, orLess: true, pos: pos}, nil
	case p.take("?R<"):
		n, ok := p.parseInt()
		if !ok || !p.take(">:") {
			return nil, p.syntaxErr(pos, "malformed rotation group")
		}
		e, err := p.groupBody(pos)
		if err != nil {
			return nil, err
		}
		return &node{kind: PATTERN_ROTATE, exp1: e, amount: n, pos: pos}, nil
	case p.take("?R:"):
		e, err := p.groupBody(pos)
		if err != nil {
			return nil, err
		}
		return &node{kind: PATTERN_ROTATE, exp1: e, all: true, pos: pos}, nil
	case p.take("?&"):
		name := p.parseName()
		if name == "" {
			return nil, p.syntaxErr(pos, "missing pattern name")
		}
		if p.take(")") {
			return &node{kind: PATTERN_REFERENCE, name: name, pos: pos}, nil
		}
		if !p.take("=") {
			return nil, p.syntaxErr(pos, "malformed named pattern group")
		}
		e, err := p.groupBody(pos)
		if err != nil {
			return nil, err
		}
		return &node{kind: PATTERN_DEFINE, name: name, exp1: e, pos: pos}, nil
	case p.take("?<"):
		name := p.parseName()
		if name == "" || !p.take(">") {
			return nil, p.syntaxErr(pos, "malformed capture group name")
		}
		e, err := p.groupBody(pos)
		if err != nil {
			return nil, err
		}
		return &node{kind: PATTERN_CAPTURE, name: name, exp1: e, pos: pos}, nil
	case p.lookahead("?"):
		return nil, p.syntaxErr(pos, "unknown group syntax")
	default:
		return p.plainGroup(pos)
	}
}

func (p *parser) parseName() string {
	start := p.pos
	for p.more() {
		r := p.peekRune()
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			p.next()
			continue
		}
		break
	}
	return string(p.input[start:p.pos])
}

// groupBody parses a union expression and its closing parenthesis.
func (p *parser) groupBody(pos int) (*node, error) {
	e, err := p.parseUnionExp()
	if err != nil {
		return nil, err
	}
	if !p.take(")") {
		return nil, p.syntaxErr(pos, "unterminated group")
	}
	return e, nil
}

func (p *parser) wrapGroup(pos int, kind Kind) (*node, error) {
	e, err := p.groupBody(pos)
	if err != nil {
		return nil, err
	}
	return &node{kind: kind, exp1: e, pos: pos}, nil
}

func (p *parser) plainGroup(pos int) (*node, error) {
	return p.groupBody(pos)
}

// parseSliceSuffix parses the [low:high] or [low:high:stride] suffix of a
// (?S:...) group.
func (p *parser) parseSliceSuffix(pos int, e *node) (*node, error) {
	if !p.take("[") {
		return nil, p.syntaxErr(pos, "slice group needs a [low:high] suffix")
	}
	n := &node{kind: PATTERN_SLICE, exp1: e, stride: 1, pos: pos}
	if v, ok := p.parseInt(); ok {
		n.low, n.hasLow = v, true
	}
	if !p.take(":") {
		return nil, p.syntaxErr(pos, "malformed slice bounds")
	}
	if v, ok := p.parseInt(); ok {
		n.high, n.hasHigh = v, true
	}
	if p.take(":") {
		neg := p.take("-")
		v, ok := p.parseInt()
		if !ok || v == 0 {
			return nil, p.syntaxErr(pos, "malformed slice stride")
		}
		if neg {
			v = -v
		}
		n.stride = v
	}
	if !p.take("]") {
		return nil, p.syntaxErr(pos, "unterminated slice bounds")
	}
	return n, nil
}

// parseReplace parses the [B][C] arguments of a (?z:A) or (?Z:A) group.
func (p *parser) parseReplace(pos int, strict bool) (*node, error) {
	a, err := p.groupBody(pos)
	if err != nil {
		return nil, err
	}
	arg := func() (*node, error) {
		if !p.take("[") {
			return nil, p.syntaxErr(pos, "replacement group needs [removed][replacement] arguments")
		}
		p.bracketDepth++
		e, err := p.parseUnionExp()
		p.bracketDepth--
		if err != nil {
			return nil, err
		}
		if !p.take("]") {
			return nil, p.syntaxErr(pos, "unterminated replacement argument")
		}
		return e, nil
	}
	b, err := arg()
	if err != nil {
		return nil, err
	}
	c, err := arg()
	if err != nil {
		return nil, err
	}
	return &node{kind: PATTERN_REPLACE, exp1: a, exp2: b, exp3: c, strict: strict, pos: pos}, nil
}
