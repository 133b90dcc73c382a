package shared

import (
	"context"
)

// Connector abstracts all access to Go SQL functionality.
type Connector interface {
	// Go SQL entry points:
	Begin() (Transacter, error)
	BeginTx(ctx context.Context) (Transacter, error)
	Exec(query string, args ...interface{}) (Result, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (Result, error)
	Query(query string, args ...interface{}) (Rows, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (Rows, error)
	Close()
	// Replipipe functionality:
	GetType() string
}

// Queryer is satisfied by both Connector and Transacter.
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (Rows, error)
}

type Transacter interface {
	Exec(query string, args ...interface{}) (Result, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (Rows, error)
	Commit() error
	Rollback() error
}

// Interfaces to abstract Go SQL library return values so that tests can supply scripted results.

type Result interface {
	LastInsertId() (int64, error)
	RowsAffected() (int64, error)
}

type Rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Columns() ([]string, error)
	Err() error
	Close() error
}

type ConnectionGetter interface {
	LoadConnection(name string) (ConnectionDetails, error)
}
