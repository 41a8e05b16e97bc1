package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPageRequest(t *testing.T) {
	tests := []struct {
		name             string
		page, size       int
		wantPage, wantSz int
		wantOffset       int
	}{
		{name: "defaults", page: 0, size: 0, wantPage: 1, wantSz: 10, wantOffset: 0},
		{name: "negative", page: -3, size: -1, wantPage: 1, wantSz: 10, wantOffset: 0},
		{name: "capped", page: 2, size: 500, wantPage: 2, wantSz: 100, wantOffset: 100},
		{name: "regular", page: 3, size: 25, wantPage: 3, wantSz: 25, wantOffset: 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := NewPageRequest(tt.page, tt.size)
			assert.Equal(t, tt.wantPage, req.Page)
			assert.Equal(t, tt.wantSz, req.GetLimit())
			assert.Equal(t, tt.wantOffset, req.GetOffset())
		})
	}
}

func TestNewPageResult(t *testing.T) {
	res := NewPageResult([]int{1, 2}, 21, NewPageRequest(2, 10))
	assert.Equal(t, 3, res.TotalPages)
	assert.True(t, res.HasNext())

	last := NewPageResult(nil, 20, NewPageRequest(2, 10))
	assert.Equal(t, 2, last.TotalPages)
	assert.False(t, last.HasNext())

	empty := NewPageResult(nil, 0, NewPageRequest(1, 10))
	assert.Equal(t, 0, empty.TotalPages)
	assert.False(t, empty.HasNext())
}
