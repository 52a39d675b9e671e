package patterns

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func build(t *testing.T, pattern string, opts ...BuildOption) *Automaton {
	t.Helper()
	a, err := Build(pattern, opts...)
	assert.Nil(t, err)
	if a == nil {
		t.FailNow()
	}
	return a
}

func Test_Run_basics(t *testing.T) {
	cases := []struct {
		pattern string
		input   string
		want    bool
	}{
		{"abc", "abc", true},
		{"abc", "abd", false},
		{"abc", "ab", false},
		{"a*", "", true},
		{"a*", "aaaa", true},
		{"a*", "ab", false},
		{"a+", "", false},
		{"a|bc", "bc", true},
		{"a|bc", "b", false},
		{"[a-c]+", "cab", true},
		{"[a-c]+", "cad", false},
		{"[^a]", "b", true},
		{"[^a]", "a", false},
		{"a{2,3}", "aa", true},
		{"a{2,3}", "aaa", true},
		{"a{2,3}", "aaaa", false},
		{"a{2,}", "aaaaa", true},
		{"a?b", "b", true},
		{"a?b", "ab", true},
		{".", "x", true},
		{".", "", false},
		{"..", "ab", true},
	}
	for _, tc := range cases {
		t.Run(tc.pattern+"/"+tc.input, func(t *testing.T) {
			assert.Equal(t, tc.want, Run(build(t, tc.pattern), tc.input))
		})
	}
}

func Test_Run_wordplayOperators(t *testing.T) {
	cases := []struct {
		pattern string
		input   string
		want    bool
	}{
		// conjunction and negation
		{"[ab]+&a+", "aa", true},
		{"[ab]+&a+", "ab", false},
		{"¬a+", "b", true},
		{"¬a+", "", true},
		{"¬a+", "aa", false},
		{"¬a+", "ab", true}, // negation covers the whole repetition
		{"¬(ab)&..", "ba", true},
		{"¬(ab)&..", "ab", false},
		// reversal
		{"(?r:abc)", "cba", true},
		{"(?r:abc)", "abc", false},
		// containment
		{"o+<l+", "loooll", true},
		{"o+<l+", "lol o", false},
		{"o+<l+", "ol", true},
		{"o+<<l+", "lool", true},
		{"o+<<l+", "ooll", false},
		{"l+>o+", "loooll", true},
		// alternating
		{"U+##w+", "UwUwU", true},
		{"U+##w+", "UwU", true},
		{"U+##w+", "Uw", true},
		{"U+##w+", "UUww", false},
		{"a+#b+", "bab", true},
		{"a+#b+", "ab", true},
		{"a+#b+", "ba", true},
		{"a+#b+", "aab", false},
		// interleaving
		{"the^A+", "tAAhAe", true},
		{"the^A+", "thea", false},
		{"the^^A+", "tAAhAe", true},
		{"the^^A+", "Athe", false},
		// case folding
		{"(?i:aBc)", "AbC", true},
		{"(?i:aBc)", "abd", false},
		// cipher shifts
		{"(?s<1>:abc)", "bcd", true},
		{"(?s<13>:uryyb)", "hello", true},
		{"(?s:hal)", "ibm", true},
		{"(?s:hal)", "hal", false},
		// slicing
		{"(?S:hello)[1:3]", "el", true},
		{"(?S:hello)[1:]", "ello", true},
		{"(?S:hello)[:2]", "he", true},
		{"(?S:abcde)[::2]", "ace", true},
		{"(?S:hello)[::-1]", "olleh", true},
		// rotation
		{"(?R<1>:abc)", "bca", true},
		{"(?R<1>:abc)", "abc", false},
		{"(?R<2>:abc)", "cab", true},
		{"(?R<=1>:abc)", "abc", true},
		{"(?R<=1>:abc)", "bca", true},
		{"(?R<=1>:abc)", "cab", false},
		{"(?R:abc)", "cab", true},
		{"(?R:abc)", "acb", false},
		// replacement
		{"(?z:cat)[a][o]", "cot", true},
		{"(?z:cat)[a][o]", "cat", false},
		{"(?z:cat)[c][b]", "bat", true},
		// strict replacement: the replaced part may not touch either end
		{"(?Z:cat)[a][o]", "cot", true},
		{"(?Z:cat)[c][b]", "bat", false},
		{"(?Z:cat)[t][b]", "cab", false},
		{"(?Z:scat)[ca][o]", "sot", true},
		// determinize / minimize wrappers leave the language alone
		{"(?D:(a|ab)(c|bc))", "abc", true},
		{"(?M:(a|ab)(c|bc))", "abbc", true},
		{"(?M:(a|ab)(c|bc))", "abb", false},
	}
	for _, tc := range cases {
		t.Run(tc.pattern+"/"+tc.input, func(t *testing.T) {
			assert.Equal(t, tc.want, Run(build(t, tc.pattern), tc.input))
		})
	}
}

func Test_Run_subtraction(t *testing.T) {
	cases := []struct {
		pattern string
		input   string
		want    bool
	}{
		{"(the|a)-.", "th", true},
		{"(the|a)-.", "", true},
		{"(the|a)-.", "t", false},
		{"the_-.", "he", true},
		{"the_-.", "th", false},
		{"thore->or", "the", true},
		{"thore->or", "thore", false},
		{"thore->>or", "the", true},
		{"orx->>or", "x", false},
		{"orx->or", "x", true},
		{"xay-<xy", "a", true},
		{"ay-<y", "a", true},
		{"ay-<<y", "a", false},
		{"xay-<<xy", "a", true},
		{"ab-##b", "a", true},
		{"ab-##b", "b", false},
		{"ab_-##a", "b", true},
		{"aba-#b", "aa", true},
		{"abc-^b", "ac", true},
		{"abc-^b", "abc", false},
		{"axya-^^xy", "aa", true},
		{"xaay-^^xy", "aa", false},
		{"xaay_-^^xy", "aa", true},
	}
	for _, tc := range cases {
		t.Run(tc.pattern+"/"+tc.input, func(t *testing.T) {
			assert.Equal(t, tc.want, Run(build(t, tc.pattern), tc.input))
		})
	}
}

func Test_RunSubmatch(t *testing.T) {
	t.Run("simple group", func(t *testing.T) {
		ok, caps := RunSubmatch(build(t, "(?<x>a+)b+"), "aab")
		assert.True(t, ok)
		assert.Equal(t, "aa", caps["x"])
	})

	t.Run("repeated group accumulates", func(t *testing.T) {
		ok, caps := RunSubmatch(build(t, "((?<x>a)b)+"), "abab")
		assert.True(t, ok)
		assert.Equal(t, "aa", caps["x"])
	})

	t.Run("consuming branch wins", func(t *testing.T) {
		ok, caps := RunSubmatch(build(t, "(?<x>a)?a?"), "a")
		assert.True(t, ok)
		assert.Equal(t, "a", caps["x"])
	})

	t.Run("untaken branch is absent", func(t *testing.T) {
		ok, caps := RunSubmatch(build(t, "(?<x>a)|(?<y>b)"), "b")
		assert.True(t, ok)
		_, hasX := caps["x"]
		assert.False(t, hasX)
		assert.Equal(t, "b", caps["y"])
	})

	t.Run("no match", func(t *testing.T) {
		ok, caps := RunSubmatch(build(t, "(?<x>a)"), "b")
		assert.False(t, ok)
		assert.Nil(t, caps)
	})

	t.Run("repetition is greedy", func(t *testing.T) {
		ok, caps := RunSubmatch(build(t, "(?<x>a*)a*"), "aa")
		assert.True(t, ok)
		assert.Equal(t, "aa", caps["x"])

		ok, caps = RunSubmatch(build(t, "(?<x>a{1,3})a*"), "aaa")
		assert.True(t, ok)
		assert.Equal(t, "aaa", caps["x"])
	})

	t.Run("deterministic across runs", func(t *testing.T) {
		a := build(t, "(?<x>a*)(?<y>a*)")
		for i := 0; i < 20; i++ {
			ok, caps := RunSubmatch(a, "aaa")
			assert.True(t, ok)
			assert.Equal(t, "aaa", caps["x"])
			assert.Equal(t, "", caps["y"])
		}
	})
}

func Test_Run_references(t *testing.T) {
	t.Run("inline definition", func(t *testing.T) {
		a := build(t, "(?&v=[aeiou])x(?&v)")
		assert.True(t, Run(a, "axe"))
		assert.False(t, Run(a, "axx"))
	})

	t.Run("external definition", func(t *testing.T) {
		a := build(t, "(?&v)+", WithDefinition("v", "[aeiou]"))
		assert.True(t, Run(a, "ae"))
		assert.False(t, Run(a, "ax"))
	})

	t.Run("word list", func(t *testing.T) {
		a := build(t, "\\w\\w", WithWordList([]string{"cat", "dog"}))
		assert.True(t, Run(a, "catdog"))
		assert.True(t, Run(a, "catcat"))
		assert.False(t, Run(a, "cat"))
	})

	t.Run("external fsm", func(t *testing.T) {
		fsm, err := ParseFSM(strings.NewReader("START a S1\nS1 b END\n"))
		assert.Nil(t, err)
		a := build(t, "\\f+", WithFSM(fsm))
		assert.True(t, Run(a, "abab"))
		assert.False(t, Run(a, "aba"))
	})

	t.Run("case-insensitive option", func(t *testing.T) {
		a := build(t, "abc", WithCaseInsensitive())
		assert.True(t, Run(a, "ABC"))
	})
}
