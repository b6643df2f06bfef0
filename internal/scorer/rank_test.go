package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/sells-group/landrank/internal/model"
)

func parcelsWithScores(scores ...float64) []model.Parcel {
	out := make([]model.Parcel, len(scores))
	for i, s := range scores {
		out[i] = model.Parcel{Seq: i, Score: s}
	}
	return out
}

func TestRank_Descending(t *testing.T) {
	ranked := Rank(parcelsWithScores(1, 3, 2), 0)
	require.Len(t, ranked, 3)
	assert.Equal(t, []int{1, 2, 0}, seqs(ranked))
}

func TestRank_TiesKeepInputOrder(t *testing.T) {
	ranked := Rank(parcelsWithScores(2, 5, 2, 5, 2), 0)
	assert.Equal(t, []int{1, 3, 0, 2, 4}, seqs(ranked))
}

func TestRank_TopN(t *testing.T) {
	in := parcelsWithScores(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12)

	top := Rank(in, DefaultTopN)
	require.Len(t, top, 10)
	assert.InDelta(t, 12.0, top[0].Score, 1e-9)
	assert.InDelta(t, 3.0, top[9].Score, 1e-9)

	assert.Len(t, Rank(in, 50), 12)
	assert.Len(t, Rank(in, -1), 12)
	assert.Empty(t, Rank(nil, 10))
}

func TestRank_DoesNotReorderInput(t *testing.T) {
	in := parcelsWithScores(1, 3, 2)
	_ = Rank(in, 0)
	assert.Equal(t, []int{0, 1, 2}, seqs(in))
}

func TestRank_MonotonicProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		scores := rapid.SliceOf(rapid.Float64Range(-100, 100)).Draw(t, "scores")
		n := rapid.IntRange(0, len(scores)+2).Draw(t, "n")

		ranked := Rank(parcelsWithScores(scores...), n)

		want := len(scores)
		if n > 0 && n < want {
			want = n
		}
		if len(ranked) != want {
			t.Fatalf("got %d parcels, want %d", len(ranked), want)
		}
		for i := 1; i < len(ranked); i++ {
			prev, cur := ranked[i-1], ranked[i]
			if prev.Score < cur.Score {
				t.Fatalf("not descending at %d: %v < %v", i, prev.Score, cur.Score)
			}
			if prev.Score == cur.Score && prev.Seq > cur.Seq {
				t.Fatalf("tie at %d not in input order", i)
			}
		}
	})
}

func seqs(parcels []model.Parcel) []int {
	out := make([]int, len(parcels))
	for i, p := range parcels {
		out[i] = p.Seq
	}
	return out
}
