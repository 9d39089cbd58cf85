package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	"workhub/pkg/utils"

	"github.com/Masterminds/squirrel"
)

// Columns shared by every history table and by unified_history_view.
var Columns = []string{
	"change_log_id",
	"target_id",
	"action_type",
	"before_data",
	"created_by",
	"updated_by",
	"updated_at",
	"ip_address",
	"user_agent",
}

var tableName = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// SQLStore stores records in per-type tables through database/sql.
// Statements run on the transaction carried by ctx when there is one.
type SQLStore struct {
	db *sql.DB
	sb squirrel.StatementBuilderType
}

// NewSQLStore uses squirrel.Dollar for postgres and squirrel.Question for sqlite.
func NewSQLStore(db *sql.DB, ph squirrel.PlaceholderFormat) *SQLStore {
	return &SQLStore{db: db, sb: squirrel.StatementBuilder.PlaceholderFormat(ph)}
}

func (s *SQLStore) Append(ctx context.Context, table string, rec Record) (int64, error) {
	if !tableName.MatchString(table) {
		return 0, fmt.Errorf("invalid table %q", table)
	}
	query, args, err := s.sb.Insert(table).
		Columns(Columns[1:]...).
		Values(
			rec.TargetID,
			string(rec.Action),
			nullString(rec.BeforeData),
			rec.CreatedBy,
			rec.UpdatedBy,
			rec.UpdatedAt.UTC(),
			nullString(rec.ClientIP),
			nullString(rec.ClientAgent),
		).
		Suffix("RETURNING change_log_id").
		ToSql()
	if err != nil {
		return 0, err
	}

	var id int64
	if err := utils.QuerierFromCtx(ctx, s.db).QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *SQLStore) FirstCreator(ctx context.Context, table string, targetID int64) (int64, bool, error) {
	if !tableName.MatchString(table) {
		return 0, false, fmt.Errorf("invalid table %q", table)
	}
	query, args, err := s.sb.Select("created_by").
		From(table).
		Where(squirrel.Eq{"target_id": targetID, "action_type": string(ActionCreate)}).
		OrderBy("change_log_id ASC").
		Limit(1).
		ToSql()
	if err != nil {
		return 0, false, err
	}

	var createdBy int64
	err = utils.QuerierFromCtx(ctx, s.db).QueryRowContext(ctx, query, args...).Scan(&createdBy)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return createdBy, true, nil
}

func (s *SQLStore) ListTable(ctx context.Context, table string, typ Type, q Query, limit int) ([]Record, error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table %q", table)
	}
	dir := "DESC"
	if q.Ascending {
		dir = "ASC"
	}
	b := s.sb.Select(Columns...).
		From(table).
		Where(Predicates(q)).
		OrderBy("updated_at "+dir, "change_log_id "+dir)
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := utils.QuerierFromCtx(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := ScanRecord(rows, &r); err != nil {
			return nil, err
		}
		r.Type = typ
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) CountTable(ctx context.Context, table string, q Query) (int, error) {
	if !tableName.MatchString(table) {
		return 0, fmt.Errorf("invalid table %q", table)
	}
	query, args, err := s.sb.Select("COUNT(*)").From(table).Where(Predicates(q)).ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	if err := utils.QuerierFromCtx(ctx, s.db).QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Predicates translates q into a WHERE clause over Columns.
func Predicates(q Query) squirrel.And {
	and := squirrel.And{}
	if len(q.Actions) > 0 {
		actions := make([]string, 0, len(q.Actions))
		for _, a := range q.Actions {
			actions = append(actions, string(a))
		}
		and = append(and, squirrel.Eq{"action_type": actions})
	}
	if q.TargetID != 0 {
		and = append(and, squirrel.Eq{"target_id": q.TargetID})
	}
	if q.UpdatedBy != 0 {
		and = append(and, squirrel.Eq{"updated_by": q.UpdatedBy})
	}
	if q.CreatedBy != 0 {
		and = append(and, squirrel.Eq{"created_by": q.CreatedBy})
	}
	if !q.From.IsZero() {
		and = append(and, squirrel.GtOrEq{"updated_at": q.From.UTC()})
	}
	if !q.To.IsZero() {
		and = append(and, squirrel.Lt{"updated_at": q.To.UTC()})
	}
	return and
}

type rowScanner interface {
	Scan(dest ...any) error
}

// ScanRecord scans one row selected with Columns, followed by extra destinations.
func ScanRecord(row rowScanner, r *Record, extra ...any) error {
	var (
		action    string
		before    sql.NullString
		ip        sql.NullString
		agent     sql.NullString
		updatedAt utils.Timestamp
	)
	dest := append([]any{
		&r.ChangeLogID,
		&r.TargetID,
		&action,
		&before,
		&r.CreatedBy,
		&r.UpdatedBy,
		&updatedAt,
		&ip,
		&agent,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return err
	}
	r.Action = Action(action)
	r.BeforeData = before.String
	r.UpdatedAt = updatedAt.Time
	r.ClientIP = ip.String
	r.ClientAgent = agent.String
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
