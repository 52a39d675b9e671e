package patterns

import (
	"slices"
	"strings"
	"unicode"
)

// LabelKind discriminates the input-matching condition of a transition.
type LabelKind uint8

const (
	Epsilon   LabelKind = iota // consumes no input
	Char                       // a single literal character
	ClassIn                    // any character in Set
	ClassOut                   // any character not in Set
	AnyChar                    // every character
	Otherwise                  // a character no sibling non-epsilon transition matches
)

// symOther is the synthetic alphabet symbol standing for "any character not
// mentioned explicitly by the automata under consideration". Product and
// powerset constructions range over the explicit alphabet plus symOther.
const symOther rune = -1

// Label is the matching condition on a transition. Labels are small value
// types; Set is kept sorted and deduplicated.
type Label struct {
	Kind LabelKind
	Ch   rune
	Set  []rune
}

func epsLabel() Label { return Label{Kind: Epsilon} }

func charLabel(c rune) Label { return Label{Kind: Char, Ch: c} }

func anyLabel() Label { return Label{Kind: AnyChar} }

func otherwiseLabel() Label { return Label{Kind: Otherwise} }

func inLabel(set []rune) Label { return normClass(set, false) }

func outLabel(set []rune) Label { return normClass(set, true) }

// normClass sorts and dedupes set and collapses degenerate classes.
func normClass(set []rune, negated bool) Label {
	set = slices.Clone(set)
	slices.Sort(set)
	set = slices.Compact(set)
	if negated {
		if len(set) == 0 {
			return anyLabel()
		}
		return Label{Kind: ClassOut, Set: set}
	}
	if len(set) == 1 {
		return charLabel(set[0])
	}
	return Label{Kind: ClassIn, Set: set}
}

func (l Label) IsEpsilon() bool { return l.Kind == Epsilon }

// Matches reports whether the label matches rune r on its own. Otherwise
// labels always report false here; they are resolved per source state by the
// step functions, which know the sibling transitions.
func (l Label) Matches(r rune) bool {
	switch l.Kind {
	case Char:
		return l.Ch == r
	case ClassIn:
		_, ok := slices.BinarySearch(l.Set, r)
		return ok
	case ClassOut:
		_, ok := slices.BinarySearch(l.Set, r)
		return !ok
	case AnyChar:
		return true
	default:
		return false
	}
}

// matchesSym is Matches extended to the synthetic symOther symbol. Explicit
// alphabets collect every rune mentioned by any label, so a ClassOut set can
// never contain the character symOther stands for.
func (l Label) matchesSym(sym rune) bool {
	if sym == symOther {
		return l.Kind == ClassOut || l.Kind == AnyChar
	}
	return l.Matches(sym)
}

// explicit returns the runes the label mentions, for alphabet collection.
func (l Label) explicit() []rune {
	switch l.Kind {
	case Char:
		return []rune{l.Ch}
	case ClassIn, ClassOut:
		return l.Set
	default:
		return nil
	}
}

// minRune returns the smallest rune the label matches.
func (l Label) minRune() rune {
	switch l.Kind {
	case Char:
		return l.Ch
	case ClassIn:
		return l.Set[0]
	default:
		// ClassOut, AnyChar, Otherwise: scan upward from NUL for the
		// first rune not excluded.
		for r := rune(0); ; r++ {
			if l.Matches(r) || l.Kind == Otherwise {
				return r
			}
		}
	}
}

// maxRune returns the largest rune the label matches and whether that bound
// is effectively unbounded (negated or universal classes).
func (l Label) maxRune() (rune, bool) {
	switch l.Kind {
	case Char:
		return l.Ch, false
	case ClassIn:
		return l.Set[len(l.Set)-1], false
	default:
		return unicode.MaxRune, true
	}
}

// foldOrbit returns r plus every rune equivalent to it under simple
// one-to-one case folding. Length-changing folds are out of scope.
func foldOrbit(r rune) []rune {
	orbit := []rune{r}
	for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
		orbit = append(orbit, f)
	}
	return orbit
}

// caseFold widens the label to match all case variants of its characters.
func (l Label) caseFold() Label {
	switch l.Kind {
	case Char, ClassIn:
		var set []rune
		for _, r := range l.explicit() {
			set = append(set, foldOrbit(r)...)
		}
		return inLabel(set)
	case ClassOut:
		// Close the exclusion set under folding so that no case variant
		// of an excluded character sneaks through.
		var set []rune
		for _, r := range l.Set {
			set = append(set, foldOrbit(r)...)
		}
		return outLabel(set)
	default:
		return l
	}
}

// shiftRune applies a Caesar shift of n to Latin letters, leaving every
// other rune untouched.
func shiftRune(r rune, n int) rune {
	n = ((n % 26) + 26) % 26
	switch {
	case r >= 'a' && r <= 'z':
		return 'a' + (r-'a'+rune(n))%26
	case r >= 'A' && r <= 'Z':
		return 'A' + (r-'A'+rune(n))%26
	default:
		return r
	}
}

// shift applies a Caesar shift to every Latin letter the label mentions.
func (l Label) shift(n int) Label {
	switch l.Kind {
	case Char:
		return charLabel(shiftRune(l.Ch, n))
	case ClassIn, ClassOut:
		set := make([]rune, len(l.Set))
		for i, r := range l.Set {
			set[i] = shiftRune(r, n)
		}
		return normClass(set, l.Kind == ClassOut)
	default:
		return l
	}
}

func (l Label) String() string {
	switch l.Kind {
	case Epsilon:
		return "ε"
	case Char:
		return string(l.Ch)
	case ClassIn:
		return "[" + string(l.Set) + "]"
	case ClassOut:
		return "[^" + string(l.Set) + "]"
	case AnyChar:
		return "."
	case Otherwise:
		return "else"
	default:
		return "?"
	}
}

// labelKey is a canonical identity for grouping and deduplication.
func (l Label) labelKey() string {
	var b strings.Builder
	b.WriteByte(byte('0') + byte(l.Kind))
	b.WriteRune(l.Ch)
	for _, r := range l.Set {
		b.WriteRune(r)
	}
	return b.String()
}
