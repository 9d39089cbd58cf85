package history

import (
	"context"
	"time"
)

// Store persists records into per-type tables.
// Implementations must never update or delete an appended row.
type Store interface {
	// Append inserts rec into table and returns the table-local change log id.
	Append(ctx context.Context, table string, rec Record) (int64, error)
	// FirstCreator returns created_by of the earliest CREATE row for targetID.
	FirstCreator(ctx context.Context, table string, targetID int64) (int64, bool, error)
}

// TableReader is the read side of a Store used by fan-out timelines.
type TableReader interface {
	// ListTable returns at most limit rows of table matching q, sorted by q's order.
	// limit <= 0 means no limit.
	ListTable(ctx context.Context, table string, typ Type, q Query, limit int) ([]Record, error)
	CountTable(ctx context.Context, table string, q Query) (int, error)
}

// Query filters rows inside a single history table.
// Zero values mean "no constraint".
type Query struct {
	Actions   []Action
	TargetID  int64
	UpdatedBy int64
	CreatedBy int64
	From      time.Time
	To        time.Time
	Ascending bool
}

// Match reports whether r satisfies q. From is inclusive, To exclusive.
func (q Query) Match(r Record) bool {
	if len(q.Actions) > 0 {
		found := false
		for _, a := range q.Actions {
			if a == r.Action {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if q.TargetID != 0 && r.TargetID != q.TargetID {
		return false
	}
	if q.UpdatedBy != 0 && r.UpdatedBy != q.UpdatedBy {
		return false
	}
	if q.CreatedBy != 0 && r.CreatedBy != q.CreatedBy {
		return false
	}
	if !q.From.IsZero() && r.UpdatedAt.Before(q.From) {
		return false
	}
	if !q.To.IsZero() && !r.UpdatedAt.Before(q.To) {
		return false
	}
	return true
}
