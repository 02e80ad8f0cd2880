package dto

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampPage(t *testing.T) {
	cases := []struct {
		name              string
		page, limit       int
		wantPage, wantLim int
	}{
		{"defaults", 0, 0, 1, DefaultLimit},
		{"negative", -3, -1, 1, DefaultLimit},
		{"limit capped", 2, 500, 2, MaxLimit},
		{"in range", 7, 20, 7, 20},
		{"huge page", math.MaxInt, 100, MaxPage, 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page, limit := ClampPage(tc.page, tc.limit)
			assert.Equal(t, tc.wantPage, page)
			assert.Equal(t, tc.wantLim, limit)
			assert.GreaterOrEqual(t, (page-1)*limit, 0)
		})
	}
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 20, 41)
	assert.Equal(t, Pagination{CurrentPage: 2, TotalPages: 3, TotalItems: 41, ItemsPerPage: 20}, p)
}
