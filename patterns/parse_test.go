package patterns

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_ParsePattern_syntaxErrors(t *testing.T) {
	cases := []string{
		"(ab",
		"ab)",
		"a{2,",
		"a{3,2}",
		"*a",
		"[abc",
		"[]",
		"[z-a]",
		"a\\",
		"\\q",
		"(?x:a)",
		"(?<:a)",
		"(?S:ab)",
		"(?S:ab)[1;2]",
		"(?z:a)[b]",
	}
	for _, pattern := range cases {
		t.Run(pattern, func(t *testing.T) {
			_, err := ParsePattern(pattern)
			assert.ErrorIs(t, err, ErrSyntax)
		})
	}
}

func Test_ParsePattern_anagramRejected(t *testing.T) {
	_, err := ParsePattern("~abc")
	assert.ErrorIs(t, err, ErrUnsupported)
}

func Test_ParsePattern_depthLimit(t *testing.T) {
	deep := ""
	for i := 0; i < 50; i++ {
		deep += "("
	}
	deep += "a"
	for i := 0; i < 50; i++ {
		deep += ")"
	}
	_, err := ParsePattern(deep, WithMaxDepth(10))
	assert.ErrorIs(t, err, ErrCapacity)

	_, err = ParsePattern(deep)
	assert.Nil(t, err)
}

func Test_Build_referenceErrors(t *testing.T) {
	_, err := Build("(?&nope)")
	assert.ErrorIs(t, err, ErrReference)

	_, err = Build("(?&x=(?&x))")
	assert.ErrorIs(t, err, ErrReference)

	_, err = Build("(?&x=a)(?&x=b)")
	assert.ErrorIs(t, err, ErrReference)

	_, err = Build("\\w")
	assert.ErrorIs(t, err, ErrReference)

	_, err = Build("\\f")
	assert.ErrorIs(t, err, ErrReference)
}

func Test_ParsePattern_classRangeCap(t *testing.T) {
	_, err := ParsePattern("[\\t-\U0010FFFF]")
	assert.ErrorIs(t, err, ErrCapacity)
}

func Test_ParsePattern_operatorPrecedence(t *testing.T) {
	// Union binds loosest, binary wordplay operators sit between union
	// and concatenation.
	a := build(t, "ab|cd")
	assert.True(t, Run(a, "ab"))
	assert.True(t, Run(a, "cd"))
	assert.False(t, Run(a, "abcd"))

	b := build(t, "ab&a.")
	assert.True(t, Run(b, "ab"))

	c := build(t, "a|bc&.")
	// bc&. is empty, so only "a" remains.
	assert.True(t, Run(c, "a"))
	assert.False(t, Run(c, "bc"))
}

func Test_ParsePattern_escapes(t *testing.T) {
	assert.True(t, Run(build(t, "a\\.b"), "a.b"))
	assert.False(t, Run(build(t, "a\\.b"), "axb"))
	assert.True(t, Run(build(t, "\\t"), "\t"))
	assert.True(t, Run(build(t, "a\\|b"), "a|b"))
	assert.True(t, Run(build(t, "\\¬a"), "¬a"))
}
