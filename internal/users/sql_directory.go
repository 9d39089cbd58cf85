package users

import (
	"context"
	"database/sql"
	"fmt"

	"workhub/pkg/utils"

	"github.com/Masterminds/squirrel"
)

// SQLDirectory reads display names from the users table.
type SQLDirectory struct {
	db *sql.DB
	sb squirrel.StatementBuilderType
}

func NewSQLDirectory(db *sql.DB, ph squirrel.PlaceholderFormat) *SQLDirectory {
	return &SQLDirectory{db: db, sb: squirrel.StatementBuilder.PlaceholderFormat(ph)}
}

func (d *SQLDirectory) Lookup(ctx context.Context, ids []int64) (map[int64]Info, error) {
	ids = uniqueIDs(ids)
	out := make(map[int64]Info, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query, args, err := d.sb.Select("user_id", "user_name").
		From("users").
		Where(squirrel.Eq{"user_id": ids}).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := utils.QuerierFromCtx(ctx, d.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("users: lookup: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var i Info
		if err := rows.Scan(&i.UserID, &i.UserName); err != nil {
			return nil, fmt.Errorf("users: scan: %w", err)
		}
		out[i.UserID] = i
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("users: lookup: %w", err)
	}
	return out, nil
}
