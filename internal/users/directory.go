package users

import "context"

// Info is the display form of an actor attached to history entries.
type Info struct {
	UserID   int64  `json:"userId"`
	UserName string `json:"userName"`
}

// Directory resolves user ids to display info.
// Unknown ids are absent from the result; they are not an error.
type Directory interface {
	Lookup(ctx context.Context, ids []int64) (map[int64]Info, error)
}

// MemoryDirectory is a fixed Directory for tests and local runs. It is read-only after construction.
type MemoryDirectory struct {
	users map[int64]Info
}

func NewMemoryDirectory(infos ...Info) *MemoryDirectory {
	d := &MemoryDirectory{users: make(map[int64]Info, len(infos))}
	for _, i := range infos {
		d.users[i.UserID] = i
	}
	return d
}

func (d *MemoryDirectory) Lookup(ctx context.Context, ids []int64) (map[int64]Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make(map[int64]Info, len(ids))
	for _, id := range ids {
		if i, ok := d.users[id]; ok {
			out[id] = i
		}
	}
	return out, nil
}

// uniqueIDs drops duplicates and non-positive ids, keeping first-seen order.
func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
