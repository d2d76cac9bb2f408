package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPaginationTotalPages(t *testing.T) {
	cases := []struct {
		limit, total, pages int
	}{
		{10, 0, 0},
		{10, 1, 1},
		{10, 10, 1},
		{10, 11, 2},
		{20, 99, 5},
		{0, 5, 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.pages, NewPagination(1, tc.limit, tc.total).TotalPages, "limit=%d total=%d", tc.limit, tc.total)
	}
}

func TestNormalizePage(t *testing.T) {
	page, size := NormalizePage(0, 500)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, size)
	page, size = NormalizePage(3, 50)
	assert.Equal(t, 3, page)
	assert.Equal(t, 50, size)
}
