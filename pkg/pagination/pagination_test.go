package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func pages(items []Item) []int {
	out := make([]int, len(items))
	for i, it := range items {
		if it.Ellipsis {
			out[i] = -1
			continue
		}
		out[i] = it.Page
	}
	return out
}

func TestWindowFitsWithoutEllipses(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3}, pages(Window(1, 3, 5)))
	assert.Equal(t, []int{1, 2, 3, 4, 5}, pages(Window(3, 5, 5)))
}

func TestWindowCentered(t *testing.T) {
	assert.Equal(t, []int{1, -1, 3, 4, 5, 6, 7, -1, 10}, pages(Window(5, 10, 5)))
}

func TestWindowFirstPage(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3, 4, 5, -1, 10}, pages(Window(1, 10, 5)))
}

func TestWindowLastPage(t *testing.T) {
	assert.Equal(t, []int{1, -1, 6, 7, 8, 9, 10}, pages(Window(10, 10, 5)))
}

func TestWindowOneMoreThanVisible(t *testing.T) {
	// No gap is ever wide enough for an ellipsis at totalPages = maxVisible+1.
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, pages(Window(1, 6, 5)))
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, pages(Window(3, 6, 5)))
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, pages(Window(6, 6, 5)))
}

func TestWindowDegenerate(t *testing.T) {
	assert.Nil(t, Window(1, 0, 5))
	assert.Equal(t, []int{1}, pages(Window(1, 1, 5)))
}

func TestWindowDefaultMaxVisible(t *testing.T) {
	assert.Equal(t, pages(Window(5, 10, 5)), pages(Window(5, 10, 0)))
}
