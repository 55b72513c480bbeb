package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	tests := []struct {
		page, size     int
		offset, limit int
	}{
		{1, 10, 0, 10},
		{3, 10, 20, 10},
		{0, 0, 0, DefaultPageSize},
		{-2, 500, 0, DefaultPageSize},
		{2, MaxPageSize, MaxPageSize, MaxPageSize},
	}
	for _, tt := range tests {
		offset, limit := Calculate(tt.page, tt.size)
		assert.Equal(t, tt.offset, offset)
		assert.Equal(t, tt.limit, limit)
	}
}

func TestParsePage(t *testing.T) {
	page, size := ParsePage("2", "50")
	assert.Equal(t, 2, page)
	assert.Equal(t, 50, size)

	page, size = ParsePage("x", "")
	assert.Equal(t, 1, page)
	assert.Equal(t, DefaultPageSize, size)
}
