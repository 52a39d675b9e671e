package patterns

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_ToRegexp_roundTrip(t *testing.T) {
	patterns := []string{
		"abc",
		"a*b",
		"(ab|ac)+",
		"[ab]c?",
		"a{2,3}",
		"(a|the)+",
		"¬(ab)&[ab]{2}",
		"o+<l+",
	}
	samples := []string{
		"", "a", "b", "ab", "ac", "ba", "abc", "aab", "abb",
		"aa", "bb", "the", "athe", "ol", "lol", "lool", "aaab",
	}
	for _, pattern := range patterns {
		t.Run(pattern, func(t *testing.T) {
			a := build(t, pattern)
			r, err := ToRegexp(a)
			assert.Nil(t, err)
			b, err := Build(r)
			assert.Nil(t, err)
			for _, s := range samples {
				assert.Equal(t, Run(a, s), Run(b, s), "regex %q input %q", r, s)
			}
		})
	}
}

func Test_ToRegexp_heuristicsOnly(t *testing.T) {
	a := build(t, "(ab|ac)+")
	r, err := ToRegexp(a, WithoutExactFallback())
	assert.Nil(t, err)
	b, err := Build(r)
	assert.Nil(t, err)
	for _, s := range []string{"", "ab", "ac", "abac", "aa", "abc"} {
		assert.Equal(t, Run(a, s), Run(b, s))
	}
}

func Test_ToRegexp_simplifies(t *testing.T) {
	// A union of single characters comes back as one class, not a
	// branch per character.
	r, err := ToRegexp(build(t, "a|b|c"))
	assert.Nil(t, err)
	assert.Equal(t, "[a-c]", r)

	r, err = ToRegexp(build(t, "aa*"))
	assert.Nil(t, err)
	assert.Equal(t, "a+", r)
}

func Test_ToRegexp_dropsTags(t *testing.T) {
	r, err := ToRegexp(build(t, "(?<x>a+)b"))
	assert.Nil(t, err)
	b, err := Build(r)
	assert.Nil(t, err)
	assert.True(t, Run(b, "aab"))
	assert.False(t, Run(b, "ab "))
}

func Test_ToRegexp_emptyLanguage(t *testing.T) {
	_, err := ToRegexp(build(t, "a&b"))
	assert.ErrorIs(t, err, ErrCapacity)
}
