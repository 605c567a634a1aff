package studentnum

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type seat struct {
	grade  int
	class  int
	number int
	tag    string
}

func (s seat) StudentPlacement() (int, int, int) { return s.grade, s.class, s.number }

func TestFormat(t *testing.T) {
	assert.Equal(t, "10205", Format(1, 2, 5))
	assert.Equal(t, "31501", Format(3, 15, 1))
	assert.Equal(t, "20101", Format(2, 1, 1))
}

func TestSortOrdersByTuple(t *testing.T) {
	students := []seat{
		{3, 1, 2, "a"},
		{1, 15, 1, "b"},
		{1, 2, 30, "c"},
		{1, 2, 4, "d"},
	}
	sorted := Sort(students)

	tags := make([]string, len(sorted))
	for i, s := range sorted {
		tags[i] = s.tag
	}
	assert.Equal(t, []string{"d", "c", "b", "a"}, tags)
}

func TestSortDoesNotMutateInput(t *testing.T) {
	students := []seat{{2, 1, 1, "x"}, {1, 1, 1, "y"}}
	_ = Sort(students)
	assert.Equal(t, "x", students[0].tag)
	assert.Equal(t, "y", students[1].tag)
}

func TestSortIsStable(t *testing.T) {
	students := []seat{{1, 1, 1, "first"}, {1, 1, 1, "second"}, {1, 1, 1, "third"}}
	sorted := Sort(students)
	assert.Equal(t, "first", sorted[0].tag)
	assert.Equal(t, "second", sorted[1].tag)
	assert.Equal(t, "third", sorted[2].tag)
}
