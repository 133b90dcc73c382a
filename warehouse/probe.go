package warehouse

import (
	"context"
	"fmt"

	"github.com/wbxdata/replipipe/logger"
	"github.com/wbxdata/replipipe/pipeline"
	"github.com/wbxdata/replipipe/rdbms"
)

// Prober reads the destination high-water mark.
// A missing table or a NULL max(id) is empty; any failure is a *pipeline.ProbeError.
type Prober struct {
	log     logger.Logger
	connect rdbms.ConnectionFactory
	dialect Dialect
	table   Table
}

func NewProber(log logger.Logger, connect rdbms.ConnectionFactory, dialect Dialect, table Table) *Prober {
	return &Prober{log: log, connect: connect, dialect: dialect, table: table}
}

func (p *Prober) Probe(ctx context.Context) (pipeline.HighWaterMark, error) {
	conn, err := p.connect(ctx)
	if err != nil {
		return pipeline.EmptyMark(), &pipeline.ProbeError{Err: err}
	}
	defer conn.Close()
	schema := p.table.bareSchema(p.dialect)
	tableName := p.table.Name.BareTable()
	n, _, err := rdbms.QueryInt64(ctx, conn, tableExistsSQL(p.dialect), schema, tableName)
	if err != nil {
		return pipeline.EmptyMark(), &pipeline.ProbeError{Err: err}
	}
	if n == 0 {
		p.log.Info("table ", p.table.Name, " does not exist")
		return pipeline.EmptyMark(), nil
	}
	q := fmt.Sprintf("SELECT max(%v) FROM %v", p.table.Columns.ID, p.table.Name.String())
	v, ok, err := rdbms.QueryInt64(ctx, conn, q)
	if err != nil {
		return pipeline.EmptyMark(), &pipeline.ProbeError{Err: err}
	}
	if !ok {
		p.log.Info("table ", p.table.Name, " is empty")
		return pipeline.EmptyMark(), nil
	}
	p.log.Info("max record is ", v)
	return pipeline.Mark(v), nil
}
