package history

import (
	"fmt"
	"sort"
)

// Registry maps each logical type to exactly one handler.
// It is built once at startup and read-only afterwards.
type Registry struct {
	handlers map[Type]Handler
}

// NewRegistry fails with ErrConfiguration on a nil handler, an unknown tag or a duplicate tag.
func NewRegistry(handlers ...Handler) (*Registry, error) {
	m := make(map[Type]Handler, len(handlers))
	for _, h := range handlers {
		if h == nil {
			return nil, fmt.Errorf("%w: nil handler", ErrConfiguration)
		}
		t := h.Type()
		if !t.Valid() {
			return nil, fmt.Errorf("%w: handler for unknown type %q", ErrConfiguration, t)
		}
		if _, dup := m[t]; dup {
			return nil, fmt.Errorf("%w: duplicate handler for %s", ErrConfiguration, t)
		}
		m[t] = h
	}
	return &Registry{handlers: m}, nil
}

// Handler returns the handler registered for t.
func (r *Registry) Handler(t Type) (Handler, error) {
	h, ok := r.handlers[t]
	if !ok {
		return nil, fmt.Errorf("%w: no handler registered for %q", ErrConfiguration, t)
	}
	return h, nil
}

// Types lists the registered tags in sorted order.
func (r *Registry) Types() []Type {
	out := make([]Type, 0, len(r.handlers))
	for t := range r.handlers {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Tables returns the table behind each registered type. Handlers that are not
// routed to a single table are left out.
func (r *Registry) Tables() map[Type]string {
	out := make(map[Type]string, len(r.handlers))
	for _, t := range r.Types() {
		if th, ok := r.handlers[t].(interface{ Table() string }); ok {
			out[t] = th.Table()
		}
	}
	return out
}
