package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePage(t *testing.T) {
	assert.Equal(t, Page{Page: 1, Limit: 10}, NormalizePage(0, 0, 10))
	assert.Equal(t, Page{Page: 3, Limit: 25}, NormalizePage(3, 25, 10))
	assert.Equal(t, Page{Page: 1, Limit: MaxPageLimit}, NormalizePage(-2, 500, 10))
}

func TestPagination(t *testing.T) {
	p := Page{Page: 3, Limit: 10}
	assert.Equal(t, 20, p.Offset())
	assert.Equal(t, Pagination{Page: 3, Limit: 10, Total: 21, Pages: 3}, NewPagination(p, 21))
	assert.Equal(t, 0, NewPagination(Page{Page: 1, Limit: 10}, 0).Pages)
}
