package ids

import "sort"

// SortID32s sorts ids in place by their canonical byte ordering. The
// choreography engine uses this to derive the canonical per-round
// AuthorityId ordering required by spec.md §4.4.
func SortID32s(ids []ID32) {
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].Compare(ids[j]) < 0
	})
}

func SortID16s(ids []ID16) {
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].Compare(ids[j]) < 0
	})
}
