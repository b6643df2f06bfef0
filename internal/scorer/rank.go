package scorer

import (
	"cmp"
	"slices"

	"github.com/sells-group/landrank/internal/model"
)

// Rank returns parcels sorted by Score descending, ties in input order, cut
// to the first n. n <= 0 returns every parcel. The input slice is not
// reordered.
func Rank(parcels []model.Parcel, n int) []model.Parcel {
	sorted := slices.Clone(parcels)
	slices.SortStableFunc(sorted, func(a, b model.Parcel) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Seq, b.Seq)
	})
	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
