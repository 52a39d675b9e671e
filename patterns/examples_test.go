package patterns

import (
	"math/rand"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
)

func Test_GenerateExample(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for _, pattern := range []string{"a+b", "(cat|dog)+", "[a-f]{3}", "the^A+", "(?i:hi)"} {
		a := build(t, pattern)
		for i := 0; i < 20; i++ {
			s, err := GenerateExample(a, rnd)
			assert.Nil(t, err)
			assert.True(t, Run(a, s), "pattern %q produced %q", pattern, s)
		}
	}
}

func Test_GenerateExample_emptyLanguage(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	_, err := GenerateExample(build(t, "a&b"), rnd)
	assert.ErrorIs(t, err, ErrCapacity)
}

func Test_GenerateExamples(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	a := build(t, "[ab]{2}")
	out, err := GenerateExamples(a, 4, rnd)
	assert.Nil(t, err)
	assert.Len(t, out, 4)
	seen := map[string]bool{}
	for _, s := range out {
		assert.True(t, Run(a, s))
		assert.False(t, seen[s], "duplicate %q", s)
		seen[s] = true
	}
}

func Test_GenerateBounded(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	a := build(t, "a*")
	for i := 0; i < 20; i++ {
		s, err := GenerateBounded(a, 2, 4, rnd)
		assert.Nil(t, err)
		assert.GreaterOrEqual(t, len(s), 2)
		assert.LessOrEqual(t, len(s), 4)
	}

	_, err := GenerateBounded(a, 5, 3, rnd)
	assert.ErrorIs(t, err, ErrSyntax)
}

func Test_ShortestExample(t *testing.T) {
	cases := []struct {
		pattern string
		length  int
	}{
		{"a*", 0},
		{"a+b+", 2},
		{"(cat|elephant)s?", 3},
		{"[ab]{3,5}", 3},
		{"the^A+", 4},
	}
	for _, tc := range cases {
		t.Run(tc.pattern, func(t *testing.T) {
			a := build(t, tc.pattern)
			s, err := ShortestExample(a)
			assert.Nil(t, err)
			assert.Len(t, []rune(s), tc.length)
			assert.True(t, Run(a, s))
		})
	}

	_, err := ShortestExample(build(t, "a&b"))
	assert.ErrorIs(t, err, ErrCapacity)
}

func Test_Bounds(t *testing.T) {
	lower, upper, err := Bounds(build(t, "(a|the)+"), 0, 0)
	assert.Nil(t, err)
	assert.Equal(t, "a", lower)
	assert.Equal(t, "thethethet"+string(unicode.MaxRune), upper)

	for _, s := range []string{"a", "the", "athe", "thea", "aaa", "thethe"} {
		assert.LessOrEqual(t, lower, s)
		assert.GreaterOrEqual(t, upper, s)
	}
}

func Test_Bounds_finiteLanguage(t *testing.T) {
	lower, upper, err := Bounds(build(t, "cat|dog|cow"), 0, 0)
	assert.Nil(t, err)
	assert.Equal(t, "cat", lower)
	assert.Equal(t, "dog", upper)
}

func Test_Bounds_emptyLanguage(t *testing.T) {
	_, _, err := Bounds(build(t, "a&b"), 0, 0)
	assert.ErrorIs(t, err, ErrCapacity)
}
