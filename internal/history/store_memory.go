package history

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory append-only Store used by tests and local runs.
// It keeps one sequence per table, like the SQL tables do.
type MemoryStore struct {
	mu     sync.Mutex
	tables map[string][]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tables: make(map[string][]Record)}
}

func (s *MemoryStore) Append(ctx context.Context, table string, rec Record) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.ChangeLogID = int64(len(s.tables[table]) + 1)
	s.tables[table] = append(s.tables[table], rec)
	return rec.ChangeLogID, nil
}

func (s *MemoryStore) FirstCreator(ctx context.Context, table string, targetID int64) (int64, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.tables[table] {
		if r.TargetID == targetID && r.Action == ActionCreate {
			return r.CreatedBy, true, nil
		}
	}
	return 0, false, nil
}

func (s *MemoryStore) ListTable(ctx context.Context, table string, typ Type, q Query, limit int) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	var out []Record
	for _, r := range s.tables[table] {
		if q.Match(r) {
			r.Type = typ
			out = append(out, r)
		}
	}
	s.mu.Unlock()

	Sort(out, q.Ascending)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) CountTable(ctx context.Context, table string, q Query) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.tables[table] {
		if q.Match(r) {
			n++
		}
	}
	return n, nil
}

// Records returns a copy of table's rows in append order.
func (s *MemoryStore) Records(table string) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.tables[table]))
	copy(out, s.tables[table])
	return out
}
