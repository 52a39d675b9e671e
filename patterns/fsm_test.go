package patterns

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_ParseFSM(t *testing.T) {
	t.Run("basic transitions", func(t *testing.T) {
		a, err := ParseFSM(strings.NewReader("START a S1\nS1 b END\n"))
		assert.Nil(t, err)
		assert.True(t, Run(a, "ab"))
		assert.False(t, Run(a, "a"))
		assert.False(t, Run(a, "ba"))
	})

	t.Run("multiple targets per line", func(t *testing.T) {
		a, err := ParseFSM(strings.NewReader("START a S1 END\nS1 b END\n"))
		assert.Nil(t, err)
		assert.True(t, Run(a, "a"))
		assert.True(t, Run(a, "ab"))
	})

	t.Run("zero-target line", func(t *testing.T) {
		a, err := ParseFSM(strings.NewReader("START a\nSTART b END\n"))
		assert.Nil(t, err)
		assert.True(t, Run(a, "b"))
		assert.False(t, Run(a, "a"))
	})

	t.Run("range input", func(t *testing.T) {
		a, err := ParseFSM(strings.NewReader("START a-c END\n"))
		assert.Nil(t, err)
		assert.True(t, Run(a, "b"))
		assert.False(t, Run(a, "d"))
	})

	t.Run("EMPTY is epsilon", func(t *testing.T) {
		a, err := ParseFSM(strings.NewReader("START EMPTY S1\nS1 x END\n"))
		assert.Nil(t, err)
		assert.True(t, Run(a, "x"))
		assert.False(t, Run(a, ""))
	})

	t.Run("ALL is the else-branch", func(t *testing.T) {
		a, err := ParseFSM(strings.NewReader("START a END\nSTART ALL S1\nS1 x END\n"))
		assert.Nil(t, err)
		assert.True(t, Run(a, "a"))
		assert.True(t, Run(a, "qx"))
		assert.False(t, Run(a, "ax"))
	})

	t.Run("syntax errors", func(t *testing.T) {
		_, err := ParseFSM(strings.NewReader("START\n"))
		assert.ErrorIs(t, err, ErrSyntax)

		_, err = ParseFSM(strings.NewReader("START abc END\n"))
		assert.ErrorIs(t, err, ErrSyntax)

		_, err = ParseFSM(strings.NewReader("START c-a END\n"))
		assert.ErrorIs(t, err, ErrSyntax)
	})
}

func Test_WriteFSM_roundTrip(t *testing.T) {
	samples := []string{"", "a", "b", "q", "ab", "ba", "qa", "aq", "abc"}
	for _, pattern := range []string{"ab|ba", "a[^a]", "a*b", ".."} {
		t.Run(pattern, func(t *testing.T) {
			a := build(t, pattern)
			var buf bytes.Buffer
			assert.Nil(t, WriteFSM(&buf, a))
			back, err := ParseFSM(&buf)
			assert.Nil(t, err)
			for _, s := range samples {
				assert.Equal(t, Run(a, s), Run(back, s), "pattern %q input %q", pattern, s)
			}
		})
	}
}

func Test_WriteFSM_rejectsWhitespace(t *testing.T) {
	a := build(t, "a b")
	var buf bytes.Buffer
	assert.ErrorIs(t, WriteFSM(&buf, a), ErrUnsupported)
}
