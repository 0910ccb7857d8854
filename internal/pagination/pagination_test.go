package pagination

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageRequest_Defaults(t *testing.T) {
	p := PageRequest{PageSize: 10000}
	assert.True(t, p.Requested())
	p.Defaults()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, MaxPageSize, p.PageSize)
	assert.Equal(t, 0, p.Offset())

	assert.False(t, PageRequest{}.Requested())
}

func TestNewPageResponse(t *testing.T) {
	tests := []struct {
		name       string
		total      int64
		pageSize   int
		totalPages int
	}{
		{"exact multiple", 10, 5, 2},
		{"partial last page", 11, 5, 3},
		{"empty result is one empty page", 0, 5, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewPageResponse[int](nil, 1, tt.pageSize, tt.total)
			assert.Equal(t, tt.totalPages, res.TotalPages)
			assert.NotNil(t, res.Data)
		})
	}
}

func TestSingle_OmitsPagingMetadata(t *testing.T) {
	body, err := json.Marshal(Single[int](nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":[],"total_items":0}`, string(body))

	body, err = json.Marshal(Single([]int{4, 5}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":[4,5],"total_items":2}`, string(body))
}

func TestWithData(t *testing.T) {
	paged := NewPageResponse([]int{1, 2}, 2, 2, 5)
	got := WithData(paged, []string{"a", "b"})
	assert.Equal(t, []string{"a", "b"}, got.Data)
	assert.Equal(t, 2, got.Page)
	assert.Equal(t, 2, got.PageSize)
	assert.Equal(t, int64(5), got.TotalItems)
	assert.Equal(t, 3, got.TotalPages)

	unpaged := WithData(Single([]int{1}), []string(nil))
	assert.Equal(t, []string{}, unpaged.Data)
	assert.Zero(t, unpaged.Page)
	assert.Equal(t, int64(1), unpaged.TotalItems)
}
