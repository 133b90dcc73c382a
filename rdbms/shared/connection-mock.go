package shared

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"sync"

	"github.com/wbxdata/replipipe/logger"
)

// MockQueryFunc returns scripted rows for query.
type MockQueryFunc func(query string, args []interface{}) (Rows, error)

// MockExecFunc returns a scripted result for query.
type MockExecFunc func(query string, args []interface{}) (Result, error)

// MockConnector records every statement it receives and answers with scripted results.
// Statements executed inside a transaction are recorded as they arrive; Commits and Rollbacks count tx outcomes.
type MockConnector struct {
	log        logger.Logger
	mu         sync.Mutex
	dbType     string
	statements []string
	QueryFunc  MockQueryFunc
	ExecFunc   MockExecFunc
	Commits    int
	Rollbacks  int
	Closed     bool
}

func NewMockConnector(log logger.Logger, dbType string) *MockConnector {
	return &MockConnector{log: log, dbType: dbType}
}

// Statements returns a copy of all SQL received so far.
func (c *MockConnector) Statements() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	retval := make([]string, len(c.statements))
	copy(retval, c.statements)
	return retval
}

func (c *MockConnector) record(query string) {
	c.mu.Lock()
	c.statements = append(c.statements, query)
	c.mu.Unlock()
	if c.log != nil {
		c.log.Debug("mock connector received: ", query)
	}
}

func (c *MockConnector) Begin() (Transacter, error) {
	return c.BeginTx(context.Background())
}

func (c *MockConnector) BeginTx(ctx context.Context) (Transacter, error) {
	return &MockTx{conn: c}, nil
}

func (c *MockConnector) Exec(query string, args ...interface{}) (Result, error) {
	return c.ExecContext(context.Background(), query, args...)
}

func (c *MockConnector) ExecContext(ctx context.Context, query string, args ...interface{}) (Result, error) {
	c.record(query)
	if c.ExecFunc != nil {
		return c.ExecFunc(query, args)
	}
	return MockResult{}, nil
}

func (c *MockConnector) Query(query string, args ...interface{}) (Rows, error) {
	return c.QueryContext(context.Background(), query, args...)
}

func (c *MockConnector) QueryContext(ctx context.Context, query string, args ...interface{}) (Rows, error) {
	c.record(query)
	if c.QueryFunc != nil {
		return c.QueryFunc(query, args)
	}
	return &MockRows{}, nil
}

func (c *MockConnector) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Closed = true
}

func (c *MockConnector) GetType() string {
	return c.dbType
}

// MockTx forwards statements to its parent MockConnector.
type MockTx struct {
	conn *MockConnector
}

func (t *MockTx) Exec(query string, args ...interface{}) (Result, error) {
	return t.conn.ExecContext(context.Background(), query, args...)
}

func (t *MockTx) ExecContext(ctx context.Context, query string, args ...interface{}) (Result, error) {
	return t.conn.ExecContext(ctx, query, args...)
}

func (t *MockTx) QueryContext(ctx context.Context, query string, args ...interface{}) (Rows, error) {
	return t.conn.QueryContext(ctx, query, args...)
}

func (t *MockTx) Commit() error {
	t.conn.mu.Lock()
	defer t.conn.mu.Unlock()
	t.conn.Commits++
	return nil
}

func (t *MockTx) Rollback() error {
	t.conn.mu.Lock()
	defer t.conn.mu.Unlock()
	t.conn.Rollbacks++
	return nil
}

type MockResult struct {
	Rows int64
}

func (r MockResult) LastInsertId() (int64, error) {
	return 0, nil
}

func (r MockResult) RowsAffected() (int64, error) {
	return r.Rows, nil
}

// MockRows iterates over Data.
type MockRows struct {
	Cols []string
	Data [][]interface{}
	idx  int
}

// NewMockRows returns rows holding a single row of values.
func NewMockRows(cols []string, values ...interface{}) *MockRows {
	return &MockRows{Cols: cols, Data: [][]interface{}{values}}
}

func (r *MockRows) Next() bool {
	if r.idx >= len(r.Data) {
		return false
	}
	r.idx++
	return true
}

func (r *MockRows) Scan(dest ...interface{}) error {
	if r.idx == 0 || r.idx > len(r.Data) {
		return fmt.Errorf("scan called without a current row")
	}
	row := r.Data[r.idx-1]
	if len(dest) != len(row) {
		return fmt.Errorf("expected %v destination arguments in Scan, not %v", len(row), len(dest))
	}
	for i, v := range row {
		if err := assignValue(dest[i], v); err != nil {
			return fmt.Errorf("column %v: %w", i, err)
		}
	}
	return nil
}

func (r *MockRows) Columns() ([]string, error) {
	return r.Cols, nil
}

func (r *MockRows) Err() error {
	return nil
}

func (r *MockRows) Close() error {
	return nil
}

// assignValue copies src into dest the way database/sql would for the simple types used in tests.
func assignValue(dest interface{}, src interface{}) error {
	if s, ok := dest.(sql.Scanner); ok {
		return s.Scan(src)
	}
	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Ptr || dv.IsNil() {
		return fmt.Errorf("destination is not a pointer")
	}
	dv = dv.Elem()
	if src == nil {
		dv.Set(reflect.Zero(dv.Type()))
		return nil
	}
	sv := reflect.ValueOf(src)
	switch {
	case sv.Type().AssignableTo(dv.Type()):
		dv.Set(sv)
	case sv.Type().ConvertibleTo(dv.Type()):
		dv.Set(sv.Convert(dv.Type()))
	default:
		return fmt.Errorf("unsupported scan from %T into %v", src, dv.Type())
	}
	return nil
}
