package history

import (
	"context"
	"fmt"
)

// Handler builds and persists records for one logical type.
type Handler interface {
	Type() Type
	// Build is pure: it validates and assembles a record without touching storage.
	Build(targetID int64, action Action, before string, createdBy int64, meta Meta) (Record, error)
	// Persist appends rec and returns it with its change log id set.
	Persist(ctx context.Context, rec Record) (Record, error)
	// FindOriginalCreator returns the actor of the earliest CREATE record for targetID.
	FindOriginalCreator(ctx context.Context, targetID int64) (int64, bool, error)
}

// TableHandler is a Handler routed to a single table of a Store.
type TableHandler struct {
	typ   Type
	table string
	store Store
}

func NewTableHandler(typ Type, table string, store Store) *TableHandler {
	return &TableHandler{typ: typ, table: table, store: store}
}

// NewHandlers returns one TableHandler per entry of tables, in type order.
// A key that is not a known type or an entry with no table is ErrConfiguration.
func NewHandlers(store Store, tables map[Type]string) ([]Handler, error) {
	for t, table := range tables {
		if !t.Valid() {
			return nil, fmt.Errorf("%w: table %q routed from unknown type %q", ErrConfiguration, table, t)
		}
		if table == "" {
			return nil, fmt.Errorf("%w: no table for %s", ErrConfiguration, t)
		}
	}
	out := make([]Handler, 0, len(tables))
	for _, t := range allTypes {
		if table, ok := tables[t]; ok {
			out = append(out, NewTableHandler(t, table, store))
		}
	}
	return out, nil
}

func (h *TableHandler) Type() Type { return h.typ }

// Table is the table this handler appends to.
func (h *TableHandler) Table() string { return h.table }

func (h *TableHandler) Build(targetID int64, action Action, before string, createdBy int64, meta Meta) (Record, error) {
	if !action.Valid() {
		return Record{}, fmt.Errorf("%w: action %q", ErrInvalidArgument, action)
	}
	if targetID <= 0 {
		return Record{}, fmt.Errorf("%w: target id must be positive, got %d", ErrInvalidArgument, targetID)
	}
	if createdBy <= 0 {
		return Record{}, fmt.Errorf("%w: created_by must be positive, got %d", ErrInvalidArgument, createdBy)
	}
	if meta.UpdatedBy <= 0 {
		return Record{}, fmt.Errorf("%w: updated_by must be positive, got %d", ErrInvalidArgument, meta.UpdatedBy)
	}
	if meta.At.IsZero() {
		return Record{}, fmt.Errorf("%w: action time is required", ErrInvalidArgument)
	}
	return Record{
		Type:        h.typ,
		TargetID:    targetID,
		Action:      action,
		BeforeData:  before,
		CreatedBy:   createdBy,
		UpdatedBy:   meta.UpdatedBy,
		UpdatedAt:   meta.At.UTC(),
		ClientIP:    meta.ClientIP,
		ClientAgent: meta.ClientAgent,
	}, nil
}

func (h *TableHandler) Persist(ctx context.Context, rec Record) (Record, error) {
	if rec.Type != h.typ {
		return Record{}, fmt.Errorf("%w: %s record given to %s handler", ErrConfiguration, rec.Type, h.typ)
	}
	id, err := h.store.Append(ctx, h.table, rec)
	if err != nil {
		return Record{}, fmt.Errorf("%w: append %s: %w", ErrPersistence, h.table, err)
	}
	rec.ChangeLogID = id
	return rec, nil
}

func (h *TableHandler) FindOriginalCreator(ctx context.Context, targetID int64) (int64, bool, error) {
	id, ok, err := h.store.FirstCreator(ctx, h.table, targetID)
	if err != nil {
		return 0, false, fmt.Errorf("%w: first creator in %s: %w", ErrPersistence, h.table, err)
	}
	return id, ok, nil
}
