package history

import "sort"

// Before reports whether a sorts ahead of b in a timeline.
// Newest first by updated_at, then change_log_id, then type; ascending flips all three.
func Before(a, b Record, ascending bool) bool {
	if !a.UpdatedAt.Equal(b.UpdatedAt) {
		if ascending {
			return a.UpdatedAt.Before(b.UpdatedAt)
		}
		return a.UpdatedAt.After(b.UpdatedAt)
	}
	if a.ChangeLogID != b.ChangeLogID {
		if ascending {
			return a.ChangeLogID < b.ChangeLogID
		}
		return a.ChangeLogID > b.ChangeLogID
	}
	if ascending {
		return a.Type < b.Type
	}
	return a.Type > b.Type
}

// Sort orders recs in place using Before.
func Sort(recs []Record, ascending bool) {
	sort.SliceStable(recs, func(i, j int) bool {
		return Before(recs[i], recs[j], ascending)
	})
}
