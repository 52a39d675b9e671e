package patterns

import (
	"slices"
	"strconv"
	"strings"
)

// stateSet is a scratch set of state ids that can be frozen into a
// canonical key, used to intern powerset-construction states and
// product-construction pairs.
type stateSet struct {
	values []int
}

func newStateSet(values ...int) *stateSet {
	s := &stateSet{}
	for _, v := range values {
		s.add(v)
	}
	return s
}

func (s *stateSet) add(v int) {
	i, ok := slices.BinarySearch(s.values, v)
	if ok {
		return
	}
	s.values = slices.Insert(s.values, i, v)
}

func (s *stateSet) size() int { return len(s.values) }

func (s *stateSet) array() []int { return s.values }

// freeze encodes the sorted members into a canonical string key. Two sets
// freeze to the same key iff they contain the same states.
func (s *stateSet) freeze() string {
	var b strings.Builder
	for i, v := range s.values {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(v))
	}
	return b.String()
}
