package rdbms

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/wbxdata/replipipe/constants"
	"github.com/wbxdata/replipipe/logger"
	"github.com/wbxdata/replipipe/rdbms/shared"
	"github.com/xo/dburl"
)

// ConnectionFactory opens a new, dedicated connection each time it is called.
// Callers own the returned Connector and must Close it.
type ConnectionFactory func(ctx context.Context) (shared.Connector, error)

// NewConnectionFactory returns a ConnectionFactory for the database described by c.
// Each connection is limited to a single physical session.
func NewConnectionFactory(log logger.Logger, c shared.ConnectionDetails) ConnectionFactory {
	return func(ctx context.Context) (shared.Connector, error) {
		return OpenDbConnection(ctx, log, c)
	}
}

// OpenDbConnection opens a database connection using the supplied ConnectionDetails struct in c.
func OpenDbConnection(ctx context.Context, log logger.Logger, c shared.ConnectionDetails) (db shared.Connector, err error) {
	log.Debug("opening connection type ", c.Type, " with logicalName ", c.LogicalName) // don't log password details in c.Data!
	d := shared.GetDsnConnectionDetails(&c)
	switch c.Type {
	case constants.ConnectionTypeSnowflake:
		db, err = newSnowflakeConnection(ctx, log, d)
	case constants.ConnectionTypeNetezza:
		db, err = newNetezzaConnection(ctx, log, d)
	case constants.ConnectionTypeRedshift:
		// lib/pq registers "postgres" only so use the DSN dburl generates for the redshift scheme.
		db, err = newConnectionWithDsn(ctx, log, d, "postgres")
	case constants.ConnectionTypeMySql, constants.ConnectionTypeSqlServer:
		db, err = newConnectionWithDsn(ctx, log, d, "")
	case constants.ConnectionTypeMock:
		db = shared.NewMockConnector(log, constants.ConnectionTypeMock)
	default:
		err = fmt.Errorf("unsupported database type, %q", c.Type)
	}
	return
}

// newConnectionWithDsn opens d using the driver chosen by dburl unless driverName overrides it.
func newConnectionWithDsn(ctx context.Context, log logger.Logger, d *shared.DsnConnectionDetails, driverName string) (shared.Connector, error) {
	log.Debug("Opening database connection: ", d)
	u, err := dburl.Parse(d.Dsn)
	if err != nil { // if the DSN could not be parsed...
		return nil, errors.Wrapf(err, "error parsing DSN %q", d)
	}
	if driverName == "" {
		driverName = u.Driver
	}
	db, err := sql.Open(driverName, u.DSN)
	if err != nil {
		return nil, err
	}
	return pingConnection(ctx, log, db, u.OriginalScheme)
}

// pingConnection limits db to one session and tests it.
// db is closed if the test fails.
func pingConnection(ctx context.Context, log logger.Logger, db *sql.DB, dbType string) (shared.Connector, error) {
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Debug("Successful database connection to ", dbType)
	return &shared.HpConnection{DbSql: db, DbType: dbType}, nil
}
