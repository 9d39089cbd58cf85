package timeline

import (
	"context"
	"database/sql"
	"fmt"

	"workhub/internal/history"
	"workhub/pkg/utils"

	"github.com/Masterminds/squirrel"
)

// ViewName is the database view unioning every history table.
const ViewName = "unified_history_view"

// ViewReader queries unified_history_view.
type ViewReader struct {
	db *sql.DB
	sb squirrel.StatementBuilderType
}

func NewViewReader(db *sql.DB, ph squirrel.PlaceholderFormat) *ViewReader {
	return &ViewReader{db: db, sb: squirrel.StatementBuilder.PlaceholderFormat(ph)}
}

func (r *ViewReader) List(ctx context.Context, f Filter) ([]history.Record, int, error) {
	q := utils.QuerierFromCtx(ctx, r.db)

	query, args, err := r.countQuery(f).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := q.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%w: count %s: %w", history.ErrPersistence, ViewName, err)
	}
	if total == 0 {
		return nil, 0, nil
	}

	query, args, err = r.listQuery(f).ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: list %s: %w", history.ErrPersistence, ViewName, err)
	}
	defer rows.Close()

	out := make([]history.Record, 0, f.Size)
	for rows.Next() {
		var (
			rec history.Record
			typ string
		)
		if err := history.ScanRecord(rows, &rec, &typ); err != nil {
			return nil, 0, fmt.Errorf("%w: scan %s: %w", history.ErrPersistence, ViewName, err)
		}
		rec.Type = history.Type(typ)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: list %s: %w", history.ErrPersistence, ViewName, err)
	}
	return out, total, nil
}

func (r *ViewReader) where(b squirrel.SelectBuilder, f Filter) squirrel.SelectBuilder {
	b = b.Where(history.Predicates(f.Query()))
	if len(f.Types) > 0 {
		types := make([]string, 0, len(f.Types))
		for _, t := range f.Types {
			types = append(types, string(t))
		}
		b = b.Where(squirrel.Eq{"history_type": types})
	}
	return b
}

func (r *ViewReader) listQuery(f Filter) squirrel.SelectBuilder {
	dir := "DESC"
	if f.Ascending {
		dir = "ASC"
	}
	cols := append(append([]string{}, history.Columns...), "history_type")
	return r.where(r.sb.Select(cols...).From(ViewName), f).
		OrderBy("updated_at "+dir, "change_log_id "+dir, "history_type "+dir).
		Limit(uint64(f.Size)).
		Offset(uint64(f.Offset()))
}

func (r *ViewReader) countQuery(f Filter) squirrel.SelectBuilder {
	return r.where(r.sb.Select("COUNT(*)").From(ViewName), f)
}
