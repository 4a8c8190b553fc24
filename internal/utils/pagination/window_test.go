package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPage(t *testing.T) {
	assert.Equal(t, Window{}, Page(3, 0), "perPage 0 disables paging")
	assert.Equal(t, Window{Skip: 0, Limit: 2}, Page(1, 2))
	assert.Equal(t, Window{Skip: 4, Limit: 2}, Page(3, 2))
	assert.Equal(t, Window{Skip: 0, Limit: 5}, Page(0, 5), "page below 1 is the first page")
}

func TestFrom(t *testing.T) {
	assert.Equal(t, Window{Skip: 0}, From(1, 1))
	assert.Equal(t, Window{Skip: 2}, From(3, 1))
	assert.True(t, From(3, 1).Unbounded())
}

func TestApply(t *testing.T) {
	tests := []struct {
		name       string
		w          Window
		n          int
		start, end int
	}{
		{name: "unbounded", w: Window{}, n: 6, start: 0, end: 6},
		{name: "first page", w: Page(1, 2), n: 6, start: 0, end: 2},
		{name: "last page", w: Page(3, 2), n: 6, start: 4, end: 6},
		{name: "short last page", w: Page(2, 4), n: 6, start: 4, end: 6},
		{name: "past the end", w: Page(5, 2), n: 6, start: 6, end: 6},
		{name: "skip only", w: From(2, 2), n: 6, start: 2, end: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := tt.w.Apply(tt.n)
			assert.Equal(t, tt.start, start)
			assert.Equal(t, tt.end, end)
		})
	}
}
