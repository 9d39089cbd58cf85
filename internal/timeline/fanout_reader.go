package timeline

import (
	"context"
	"fmt"

	"workhub/internal/history"

	"golang.org/x/sync/errgroup"
)

// FanoutReader reads each per-type table concurrently and merges in memory.
// Each table contributes at most offset+size rows, which is enough to cut any page
// of the merged order.
type FanoutReader struct {
	reader history.TableReader
	tables map[history.Type]string
}

func NewFanoutReader(reader history.TableReader, tables map[history.Type]string) *FanoutReader {
	return &FanoutReader{reader: reader, tables: tables}
}

type tableResult struct {
	rows  []history.Record
	count int
}

func (r *FanoutReader) List(ctx context.Context, f Filter) ([]history.Record, int, error) {
	types := f.Types
	if len(types) == 0 {
		types = history.Types()
	}

	q := f.Query()
	limit := f.Offset() + f.Size
	results := make([]tableResult, len(types))

	g, gctx := errgroup.WithContext(ctx)
	for i, t := range types {
		table, ok := r.tables[t]
		if !ok {
			continue
		}
		g.Go(func() error {
			n, err := r.reader.CountTable(gctx, table, q)
			if err != nil {
				return fmt.Errorf("%w: count %s: %w", history.ErrPersistence, table, err)
			}
			if n == 0 {
				return nil
			}
			rows, err := r.reader.ListTable(gctx, table, t, q, limit)
			if err != nil {
				return fmt.Errorf("%w: list %s: %w", history.ErrPersistence, table, err)
			}
			results[i] = tableResult{rows: rows, count: n}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	var (
		merged []history.Record
		total  int
	)
	for _, res := range results {
		merged = append(merged, res.rows...)
		total += res.count
	}
	history.Sort(merged, f.Ascending)

	start := f.Offset()
	if start >= len(merged) {
		return nil, total, nil
	}
	end := start + f.Size
	if end > len(merged) {
		end = len(merged)
	}
	return merged[start:end], total, nil
}
