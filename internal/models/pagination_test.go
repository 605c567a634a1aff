package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssgb-dev/logbook-api/pkg/pagination"
)

func TestNewPaginationDerivesPagesAndWindow(t *testing.T) {
	p := NewPagination(6, 20, 215)

	assert.Equal(t, 11, p.TotalPages)
	require.NotEmpty(t, p.Window)
	assert.Equal(t, pagination.Item{Page: 1}, p.Window[0])
	assert.Equal(t, pagination.Item{Ellipsis: true}, p.Window[1])
	assert.Equal(t, pagination.Item{Page: 11}, p.Window[len(p.Window)-1])

	pages := make([]int, 0, len(p.Window))
	for _, item := range p.Window {
		if !item.Ellipsis {
			pages = append(pages, item.Page)
		}
	}
	assert.Contains(t, pages, 6)
}

func TestNewPaginationSmallListHasNoEllipsis(t *testing.T) {
	p := NewPagination(1, 20, 45)

	assert.Equal(t, 3, p.TotalPages)
	require.Len(t, p.Window, 3)
	for i, item := range p.Window {
		assert.False(t, item.Ellipsis)
		assert.Equal(t, i+1, item.Page)
	}
}

func TestNewPaginationEmptyList(t *testing.T) {
	p := NewPagination(1, 20, 0)

	assert.Equal(t, 0, p.TotalPages)
	assert.Empty(t, p.Window)
}
