package patterns

import "errors"

// Error kinds for the whole engine. Callers discriminate with errors.Is;
// every returned error wraps exactly one of these.
var (
	// ErrSyntax reports malformed pattern text (unterminated group, bad
	// class, unknown escape, trailing operator).
	ErrSyntax = errors.New("patterns: syntax error")

	// ErrReference reports an undefined or self-referencing named pattern.
	ErrReference = errors.New("patterns: reference error")

	// ErrUnsupported reports a request for something the engine refuses to
	// approximate: non-regular constructs (anagrams) and submatch
	// extraction on determinized automata.
	ErrUnsupported = errors.New("patterns: unsupported operation")

	// ErrCapacity reports an exceeded resource limit: pattern nesting
	// depth, product/powerset size, or an exhausted search budget.
	ErrCapacity = errors.New("patterns: capacity exceeded")
)
