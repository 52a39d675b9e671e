package patterns

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func reverseString(s string) string {
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}

func Test_Trim(t *testing.T) {
	samples := []string{"", "a", "ab", "abc", "ba", "abab", "xyz"}
	for _, pattern := range []string{"a*b", "(ab)+", "a|b|c", "a{0,3}"} {
		a := build(t, pattern)
		trimmed := Trim(a)
		assert.LessOrEqual(t, trimmed.NumStates(), a.NumStates())
		for _, s := range samples {
			assert.Equal(t, Run(a, s), Run(trimmed, s), "pattern %q input %q", pattern, s)
		}
	}
}

func Test_Determinize(t *testing.T) {
	samples := []string{"", "a", "b", "ab", "ba", "aab", "abb", "abab"}
	for _, pattern := range []string{"(a|ab)(b|ba)", "a*b*", "[ab]+&a+b*"} {
		a := build(t, pattern)
		d, err := Determinize(a, DefaultWorkLimit)
		assert.Nil(t, err)
		for _, s := range samples {
			assert.Equal(t, Run(a, s), Run(d, s), "pattern %q input %q", pattern, s)
		}
	}
}

func Test_Determinize_workLimit(t *testing.T) {
	a := build(t, "[ab]*a[ab]{4}")
	_, err := Determinize(a, 3)
	assert.ErrorIs(t, err, ErrCapacity)
}

func Test_Determinize_rejectsTags(t *testing.T) {
	a := build(t, "(?<x>a+)")
	_, err := Determinize(a, DefaultWorkLimit)
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = Minimize(a, DefaultWorkLimit)
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = Build("(?D:(?<x>a))")
	assert.ErrorIs(t, err, ErrUnsupported)
}

func Test_Minimize(t *testing.T) {
	samples := []string{"", "a", "ab", "abc", "abbc", "ac", "bc", "abb"}
	for _, pattern := range []string{"(a|ab)(c|bc)", "a*a*a*", "(?i:ab)"} {
		a := build(t, pattern)
		m, err := Minimize(a, DefaultWorkLimit)
		assert.Nil(t, err)
		for _, s := range samples {
			assert.Equal(t, Run(a, s), Run(m, s), "pattern %q input %q", pattern, s)
		}
	}
}

func Test_Minimize_idempotent(t *testing.T) {
	for _, pattern := range []string{"(a|ab)(c|bc)", "a*b|ab*", "[abc]{2,4}"} {
		m1, err := Minimize(build(t, pattern), DefaultWorkLimit)
		assert.Nil(t, err)
		m2, err := Minimize(m1, DefaultWorkLimit)
		assert.Nil(t, err)
		assert.Equal(t, m1.NumStates(), m2.NumStates(), "pattern %q", pattern)
		assert.Equal(t, m1.NumTransitions(), m2.NumTransitions(), "pattern %q", pattern)
	}
}

func Test_reversalLaw(t *testing.T) {
	samples := []string{"", "a", "ab", "ba", "abc", "cba", "aab", "baa"}
	for _, pattern := range []string{"a*b", "(ab|c)+", "a[bc]a"} {
		fwd := build(t, pattern)
		rev := build(t, "(?r:"+pattern+")")
		for _, s := range samples {
			assert.Equal(t, Run(fwd, s), Run(rev, reverseString(s)), "pattern %q input %q", pattern, s)
		}
	}
}

func Test_complement(t *testing.T) {
	a := build(t, "¬(ab|ba)")
	assert.True(t, Run(a, ""))
	assert.True(t, Run(a, "a"))
	assert.True(t, Run(a, "aa"))
	assert.True(t, Run(a, "aba"))
	assert.False(t, Run(a, "ab"))
	assert.False(t, Run(a, "ba"))

	// Double negation restores the language.
	b := build(t, "¬(¬(ab|ba))")
	assert.True(t, Run(b, "ab"))
	assert.False(t, Run(b, "aa"))
}

func Test_IsEmpty(t *testing.T) {
	assert.True(t, IsEmpty(build(t, "a&b")))
	assert.False(t, IsEmpty(build(t, "a|b")))
	assert.False(t, IsEmpty(build(t, "a*")))
}
