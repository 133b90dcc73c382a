package extract

import (
	"context"
	"errors"

	"github.com/wbxdata/replipipe/logger"
	"github.com/wbxdata/replipipe/pipeline"
	"github.com/wbxdata/replipipe/rdbms"
)

var errNoRows = errors.New("query returned no rows")

// TableStats measures the source table for bootstrap planning.
type TableStats struct {
	log     logger.Logger
	connect rdbms.ConnectionFactory
	source  Source
}

func NewTableStats(log logger.Logger, connect rdbms.ConnectionFactory, source Source) *TableStats {
	return &TableStats{log: log, connect: connect, source: source}
}

func (s *TableStats) SourceStats(ctx context.Context) (pipeline.SourceExtent, error) {
	e := pipeline.SourceExtent{MaxID: -1}
	conn, err := s.connect(ctx)
	if err != nil {
		return e, &pipeline.SourceConnectionError{Op: "connect", Err: err}
	}
	defer conn.Close()
	q := StatsSQL(s.source)
	s.log.Debug("source stats SQL: ", q)
	rows, err := conn.QueryContext(ctx, q)
	if err != nil {
		return e, &pipeline.SourceConnectionError{Op: "count", Err: err}
	}
	defer func() {
		_ = rows.Close()
	}()
	if !rows.Next() {
		if err = rows.Err(); err == nil {
			err = errNoRows
		}
		return e, &pipeline.SourceConnectionError{Op: "count", Err: err}
	}
	if err = rows.Scan(&e.RowCount, &e.MaxID); err != nil {
		return e, &pipeline.SourceConnectionError{Op: "count", Err: err}
	}
	if e.RowCount < 0 {
		return e, &pipeline.PlanningError{Reason: "source returned a negative row count"}
	}
	return e, rows.Err()
}
