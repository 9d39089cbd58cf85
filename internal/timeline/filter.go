package timeline

import (
	"fmt"
	"time"

	"workhub/internal/history"
)

// Filter selects and pages unified history. Zero values mean "no constraint".
type Filter struct {
	Types     []history.Type
	Actions   []history.Action
	TargetID  int64
	ActorID   int64 // updated_by
	CreatorID int64 // created_by
	From      time.Time
	To        time.Time
	Ascending bool

	// Page is zero-based.
	Page int
	Size int
}

type Limits struct {
	DefaultSize int
	MaxSize     int
}

var DefaultLimits = Limits{DefaultSize: 10, MaxSize: 100}

// Normalize validates f and fills paging defaults. Size is clamped to l.MaxSize.
func (f Filter) Normalize(l Limits) (Filter, error) {
	if l.DefaultSize <= 0 {
		l.DefaultSize = DefaultLimits.DefaultSize
	}
	if l.MaxSize <= 0 {
		l.MaxSize = DefaultLimits.MaxSize
	}
	if f.Page < 0 {
		return Filter{}, fmt.Errorf("%w: page must be >= 0, got %d", history.ErrInvalidArgument, f.Page)
	}
	if f.Size < 0 {
		return Filter{}, fmt.Errorf("%w: size must be >= 0, got %d", history.ErrInvalidArgument, f.Size)
	}
	if f.Size == 0 {
		f.Size = l.DefaultSize
	}
	if f.Size > l.MaxSize {
		f.Size = l.MaxSize
	}
	for _, t := range f.Types {
		if !t.Valid() {
			return Filter{}, fmt.Errorf("%w: history type %q", history.ErrInvalidArgument, t)
		}
	}
	f.Types = dedupe(f.Types)
	f.Actions = dedupe(f.Actions)
	for _, a := range f.Actions {
		if !a.Valid() {
			return Filter{}, fmt.Errorf("%w: action %q", history.ErrInvalidArgument, a)
		}
	}
	if !f.From.IsZero() && !f.To.IsZero() && !f.From.Before(f.To) {
		return Filter{}, fmt.Errorf("%w: from must be before to", history.ErrInvalidArgument)
	}
	return f, nil
}

func (f Filter) Offset() int { return f.Page * f.Size }

// Query is the per-table part of f.
func (f Filter) Query() history.Query {
	return history.Query{
		Actions:   f.Actions,
		TargetID:  f.TargetID,
		UpdatedBy: f.ActorID,
		CreatedBy: f.CreatorID,
		From:      f.From,
		To:        f.To,
		Ascending: f.Ascending,
	}
}

func dedupe[T comparable](in []T) []T {
	if len(in) < 2 {
		return in
	}
	seen := make(map[T]struct{}, len(in))
	out := make([]T, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
