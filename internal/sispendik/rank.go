package sispendik

import "sort"

const DefaultRankLimit = 3

type Ranked struct {
	Rank int `json:"rank"`
	GroupTotal
}

// Rank orders groups by total weight (desc). Ties fall back to total value
// (desc), label (asc), then key (asc). At most n entries are returned; n <= 0
// means DefaultRankLimit. groups is not modified.
func Rank(groups []GroupTotal, n int) []Ranked {
	if n <= 0 {
		n = DefaultRankLimit
	}
	sorted := make([]GroupTotal, len(groups))
	copy(sorted, groups)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if c := a.TotalKg.Cmp(b.TotalKg); c != 0 {
			return c > 0
		}
		if c := a.TotalValue.Cmp(b.TotalValue); c != 0 {
			return c > 0
		}
		if a.Label != b.Label {
			return a.Label < b.Label
		}
		return a.Key < b.Key
	})
	if n > len(sorted) {
		n = len(sorted)
	}
	out := make([]Ranked, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Ranked{Rank: i + 1, GroupTotal: sorted[i]})
	}
	return out
}
