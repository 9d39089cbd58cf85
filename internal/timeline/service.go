package timeline

import (
	"context"
	"time"

	"workhub/internal/history"
	"workhub/internal/users"
)

// Entry is the admin projection of a unified history record.
type Entry struct {
	ChangeLogID int64          `json:"changeLogId"`
	HistoryType history.Type   `json:"historyType"`
	TargetID    int64          `json:"targetId"`
	ActionType  history.Action `json:"actionType"`
	BeforeData  string         `json:"beforeData"`
	CreatedBy   *users.Info    `json:"createdBy"`
	UpdatedBy   *users.Info    `json:"updatedBy"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	IPAddress   string         `json:"ipAddress"`
	UserAgent   string         `json:"userAgent"`
}

// PublicEntry is the projection for non-privileged callers. It has no client metadata.
type PublicEntry struct {
	ChangeLogID int64          `json:"changeLogId"`
	HistoryType history.Type   `json:"historyType"`
	TargetID    int64          `json:"targetId"`
	ActionType  history.Action `json:"actionType"`
	BeforeData  string         `json:"beforeData"`
	CreatedBy   *users.Info    `json:"createdBy"`
	UpdatedBy   *users.Info    `json:"updatedBy"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

func (e Entry) Public() PublicEntry {
	return PublicEntry{
		ChangeLogID: e.ChangeLogID,
		HistoryType: e.HistoryType,
		TargetID:    e.TargetID,
		ActionType:  e.ActionType,
		BeforeData:  e.BeforeData,
		CreatedBy:   e.CreatedBy,
		UpdatedBy:   e.UpdatedBy,
		UpdatedAt:   e.UpdatedAt,
	}
}

type Page[T any] struct {
	Items      []T `json:"content"`
	Page       int `json:"page"`
	Size       int `json:"size"`
	Total      int `json:"totalElements"`
	TotalPages int `json:"totalPages"`
}

// Service reads the unified timeline and attaches actor display names.
type Service struct {
	reader Reader
	dir    users.Directory
	limits Limits
}

func NewService(reader Reader, dir users.Directory, limits Limits) *Service {
	return &Service{reader: reader, dir: dir, limits: limits}
}

// List returns the admin projection.
func (s *Service) List(ctx context.Context, f Filter) (Page[Entry], error) {
	f, err := f.Normalize(s.limits)
	if err != nil {
		return Page[Entry]{}, err
	}

	recs, total, err := s.reader.List(ctx, f)
	if err != nil {
		return Page[Entry]{}, err
	}

	ids := make([]int64, 0, 2*len(recs))
	for _, r := range recs {
		ids = append(ids, r.CreatedBy, r.UpdatedBy)
	}
	infos, err := s.dir.Lookup(ctx, ids)
	if err != nil {
		return Page[Entry]{}, err
	}

	items := make([]Entry, 0, len(recs))
	for _, r := range recs {
		items = append(items, Entry{
			ChangeLogID: r.ChangeLogID,
			HistoryType: r.Type,
			TargetID:    r.TargetID,
			ActionType:  r.Action,
			BeforeData:  r.BeforeData,
			CreatedBy:   userInfo(infos, r.CreatedBy),
			UpdatedBy:   userInfo(infos, r.UpdatedBy),
			UpdatedAt:   r.UpdatedAt,
			IPAddress:   r.ClientIP,
			UserAgent:   r.ClientAgent,
		})
	}
	return Page[Entry]{
		Items:      items,
		Page:       f.Page,
		Size:       f.Size,
		Total:      total,
		TotalPages: totalPages(total, f.Size),
	}, nil
}

// ListPublic returns the projection without client IP and user agent.
func (s *Service) ListPublic(ctx context.Context, f Filter) (Page[PublicEntry], error) {
	p, err := s.List(ctx, f)
	if err != nil {
		return Page[PublicEntry]{}, err
	}
	items := make([]PublicEntry, len(p.Items))
	for i, e := range p.Items {
		items[i] = e.Public()
	}
	return Page[PublicEntry]{
		Items:      items,
		Page:       p.Page,
		Size:       p.Size,
		Total:      p.Total,
		TotalPages: p.TotalPages,
	}, nil
}

func userInfo(infos map[int64]users.Info, id int64) *users.Info {
	i, ok := infos[id]
	if !ok {
		return nil
	}
	return &i
}

func totalPages(total, size int) int {
	if size <= 0 || total == 0 {
		return 0
	}
	return (total + size - 1) / size
}
