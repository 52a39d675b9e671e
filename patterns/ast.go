package patterns

// Kind identifies the variant of a pattern syntax-tree node. The set of
// operators is closed and known at parse time; construction is a single
// exhaustive switch over these values.
type Kind int

const (
	PATTERN_CHAR        = Kind(iota) // A literal character
	PATTERN_CLASS                    // A character class, possibly negated
	PATTERN_ANYCHAR                  // The . wildcard
	PATTERN_EMPTY                    // The empty string
	PATTERN_CONCAT                   // A sequence of two expressions
	PATTERN_UNION                    // The union of two expressions
	PATTERN_REPEAT                   // Bounded or unbounded repetition
	PATTERN_CASE                     // Case-insensitive wrapper
	PATTERN_CONJUNCTION              // The intersection of two expressions
	PATTERN_NEGATION                 // The complement of an expression
	PATTERN_REVERSAL                 // The reversal of an expression
	PATTERN_CONTAINS                 // exp1 inserted somewhere inside exp2
	PATTERN_ALTERNATING              // Characters alternating between exp1 and exp2
	PATTERN_INTERLEAVE               // Characters of exp1 and exp2 interleaved
	PATTERN_SUBTRACT                 // The subtraction family
	PATTERN_SLICE                    // Slicing of every matched string
	PATTERN_REPLACE                  // exp1 with an exp2 infix replaced by exp3
	PATTERN_ROTATE                   // Rotation of every matched string
	PATTERN_SHIFT                    // Caesar shift of every matched string
	PATTERN_DEFINE                   // Named pattern definition
	PATTERN_REFERENCE                // Named pattern reference
	PATTERN_WORDS                    // The external word list
	PATTERN_FSM                      // The external FSM
	PATTERN_CAPTURE                  // Named capture group
	PATTERN_DETERMINIZE              // Determinize the wrapped expression
	PATTERN_MINIMIZE                 // Minimize the wrapped expression
)

// subtractKind selects the subtraction-family variant.
type subtractKind int

const (
	subRight            = subtractKind(iota) // A-B: strip a B suffix
	subLeft                                  // A_-B: strip a B prefix
	subInside                                // A->B: strip one B infix
	subInsideStrict                          // A->>B: infix not at a boundary
	subOutside                               // A-<B: strip a surrounding B
	subOutsideStrict                         // A-<<B: both removed parts nonempty
	subAlternate                             // A-#B: strip alternating characters
	subAlternateOrdered                      // A-##B: remainder leads
	subAlternateLeft                         // A_-##B: removed part leads
	subInterleave                            // A-^B: strip an interleaved B
	subInterleaveStrict                      // A-^^B: remainder at both boundaries
	subInterleaveLeft                        // A_-^^B: removed part at both boundaries
)

// node is one pattern syntax-tree node. A single struct with a kind
// discriminator keeps construction an exhaustive switch; only the fields
// relevant to the kind are populated. Each node owns its children; the tree
// is acyclic, and named references are resolved later against previously
// completed definitions only.
type node struct {
	kind             Kind
	exp1, exp2, exp3 *node
	ch               rune
	set              []rune
	negated          bool
	min, max         int // repetition bounds; max < 0 means unbounded
	low, high        int // slice bounds
	hasLow, hasHigh  bool
	stride           int
	name             string
	strict           bool
	ordered          bool
	sub              subtractKind
	amount           int // rotation/shift amount
	orLess           bool
	all              bool
	pos              int // rune offset in the source pattern
}
