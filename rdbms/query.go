package rdbms

import (
	"context"
	"database/sql"

	"github.com/wbxdata/replipipe/rdbms/shared"
)

// QueryInt64 runs sqltext and scans the first column of the first row into a nullable int.
// ok is false when there are no rows or the value is NULL.
func QueryInt64(ctx context.Context, db shared.Queryer, sqltext string, args ...interface{}) (val int64, ok bool, err error) {
	rows, err := db.QueryContext(ctx, sqltext, args...)
	if err != nil {
		return 0, false, err
	}
	defer func() {
		_ = rows.Close()
	}()
	if !rows.Next() {
		return 0, false, rows.Err()
	}
	var n sql.NullInt64
	if err = rows.Scan(&n); err != nil {
		return 0, false, err
	}
	return n.Int64, n.Valid, rows.Err()
}
