package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginate(t *testing.T) {
	all := []int{1, 2, 3, 4, 5, 6, 7}

	p := Paginate(all, 2, 3)
	assert.Equal(t, []int{4, 5, 6}, p.Items)
	assert.Equal(t, int64(7), p.Total)
	assert.Equal(t, int64(3), p.TotalPage)
	assert.Equal(t, int64(3), p.ItemCount)

	last := Paginate(all, 3, 3)
	assert.Equal(t, []int{7}, last.Items)

	beyond := Paginate(all, 9, 3)
	assert.Empty(t, beyond.Items)
	assert.NotNil(t, beyond.Items)

	empty := Paginate([]int{}, 0, 0)
	assert.Equal(t, int64(1), empty.Page)
	assert.Equal(t, int64(10), empty.Limit)
	assert.Equal(t, int64(0), empty.TotalPage)
}

func TestNormalizePage_HugePageDoesNotOverflow(t *testing.T) {
	page, limit := NormalizePage(math.MaxInt64, 50)
	assert.Equal(t, int64(50), limit)
	assert.Equal(t, int64(math.MaxInt64/50), page)
	assert.GreaterOrEqual(t, (page-1)*limit, int64(0))

	assert.NotPanics(t, func() {
		p := Paginate([]int{1, 2, 3}, math.MaxInt64/50, 100)
		assert.Empty(t, p.Items)
		assert.Equal(t, int64(3), p.Total)
	})
	assert.NotPanics(t, func() {
		p := Paginate([]int{1, 2, 3}, math.MaxInt64, 0)
		assert.Empty(t, p.Items)
	})
}
