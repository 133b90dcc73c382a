package warehouse

import (
	"context"
	"fmt"
	"strings"

	"github.com/wbxdata/replipipe/logger"
	"github.com/wbxdata/replipipe/pipeline"
	"github.com/wbxdata/replipipe/rdbms"
	"github.com/wbxdata/replipipe/rdbms/shared"
)

// Table is the destination of a replication.
type Table struct {
	Name    rdbms.SchemaTable
	Columns Columns
	Grantee string
}

func (t Table) schema(d Dialect) string {
	return t.Name.GetSchemaOrDefault(d.DefaultSchema())
}

func (t Table) bareSchema(d Dialect) string {
	return strings.Trim(t.schema(d), `"`)
}

// Loader runs the DDL, grant and bulk copy statements against the warehouse.
// Every call opens its own connection and closes it before returning.
type Loader struct {
	log     logger.Logger
	connect rdbms.ConnectionFactory
	dialect Dialect
	table   Table
}

func NewLoader(log logger.Logger, connect rdbms.ConnectionFactory, dialect Dialect, table Table) *Loader {
	return &Loader{log: log, connect: connect, dialect: dialect, table: table}
}

func (l *Loader) open(ctx context.Context) (shared.Connector, error) {
	conn, err := l.connect(ctx)
	if err != nil {
		return nil, &pipeline.WarehouseLoadError{Statement: "connect", Err: err}
	}
	return conn, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (shared.Result, error)
}

func (l *Loader) exec(ctx context.Context, db execer, stmt string) error {
	l.log.Debug("warehouse SQL: ", stmt)
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return &pipeline.WarehouseLoadError{Statement: stmt, Err: err}
	}
	return nil
}

// Rebuild drops and recreates the table with the fixed schema, grants access and loads everything at location.
func (l *Loader) Rebuild(ctx context.Context, location string) (int64, error) {
	conn, err := l.open(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Close()
	table := l.table.Name.String()
	for _, stmt := range []string{
		l.dialect.DropTableSQL(table),
		createTableSQL(table, l.table.Columns),
		l.dialect.GrantSQL(l.table.schema(l.dialect), l.table.Grantee),
	} {
		if err = l.exec(ctx, conn, stmt); err != nil {
			return 0, err
		}
	}
	l.log.Info("recreated table ", table)
	return l.load(ctx, conn, location, fmt.Sprintf("SELECT count(*) FROM %v", table))
}

// BulkLoad appends the rows at location and returns the number of rows above hwm.
func (l *Loader) BulkLoad(ctx context.Context, location string, hwm pipeline.HighWaterMark) (int64, error) {
	conn, err := l.open(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Close()
	countSQL := fmt.Sprintf("SELECT count(*) FROM %v WHERE %v > %v", l.table.Name.String(), l.table.Columns.ID, hwm.Value())
	return l.load(ctx, conn, location, countSQL)
}

// load runs copy, grant and count in one transaction.
func (l *Loader) load(ctx context.Context, conn shared.Connector, location string, countSQL string) (rows int64, err error) {
	tx, err := conn.BeginTx(ctx)
	if err != nil {
		return 0, &pipeline.WarehouseLoadError{Statement: "BEGIN", Err: err}
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				l.log.Warn("rollback failed: ", rbErr)
			}
		}
	}()
	table := l.table.Name.String()
	if err = l.exec(ctx, tx, l.dialect.CopySQL(table, location)); err != nil {
		return 0, err
	}
	if err = l.exec(ctx, tx, l.dialect.GrantSQL(l.table.schema(l.dialect), l.table.Grantee)); err != nil {
		return 0, err
	}
	l.log.Debug("warehouse SQL: ", countSQL)
	rows, _, err = rdbms.QueryInt64(ctx, tx, countSQL)
	if err != nil {
		err = &pipeline.WarehouseLoadError{Statement: countSQL, Err: err}
		return 0, err
	}
	if err = tx.Commit(); err != nil {
		err = &pipeline.WarehouseLoadError{Statement: "COMMIT", Err: err}
		return 0, err
	}
	l.log.Info("loaded ", location, " into ", table, "; ", rows, " rows counted")
	return rows, nil
}
