package timeline

import (
	"context"

	"workhub/internal/history"
)

// Reader lists unified history. There is deliberately no write method:
// the unified timeline is derived from the per-type tables.
type Reader interface {
	// List returns one page of records matching a normalized filter and the total match count.
	List(ctx context.Context, f Filter) ([]history.Record, int, error)
}

var (
	_ Reader = (*ViewReader)(nil)
	_ Reader = (*FanoutReader)(nil)
)
