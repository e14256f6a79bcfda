package chunk_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aipulse/news-archive/internal/chunk"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name  string
		count int
		size  int
		want  []int
	}{
		{name: "empty", count: 0, size: 30, want: nil},
		{name: "under one chunk", count: 5, size: 30, want: []int{5}},
		{name: "exact chunk", count: 30, size: 30, want: []int{30}},
		{name: "backend query limit", count: 65, size: 30, want: []int{30, 30, 5}},
		{name: "size one", count: 3, size: 1, want: []int{1, 1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := make([]string, 0, tt.count)
			for i := 0; i < tt.count; i++ {
				items = append(items, fmt.Sprintf("http://x.com/%d", i))
			}

			chunks := chunk.Split(items, tt.size)
			require.Len(t, chunks, len(tt.want))

			var total int
			for i, c := range chunks {
				require.Len(t, c, tt.want[i])
				total += len(c)
			}
			require.Equal(t, tt.count, total)
		})
	}
}

func TestSplitNonPositiveSize(t *testing.T) {
	items := []int{1, 2, 3}
	chunks := chunk.Split(items, 0)
	require.Len(t, chunks, 1)
	require.Equal(t, items, chunks[0])
}

func TestSplitPreservesOrder(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	chunks := chunk.Split(items, 2)
	require.Equal(t, [][]int{{1, 2}, {3, 4}, {5}}, chunks)
}
