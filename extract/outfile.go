package extract

import (
	"context"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"github.com/wbxdata/replipipe/logger"
	"github.com/wbxdata/replipipe/pipeline"
	"github.com/wbxdata/replipipe/rdbms"
)

// OutfileExtractor has Aurora MySQL write each chunk straight to S3 with SELECT ... INTO OUTFILE S3.
type OutfileExtractor struct {
	log     logger.Logger
	connect rdbms.ConnectionFactory
	source  Source
}

func NewOutfileExtractor(log logger.Logger, connect rdbms.ConnectionFactory, source Source) *OutfileExtractor {
	return &OutfileExtractor{log: log, connect: connect, source: source}
}

func (e *OutfileExtractor) Extract(ctx context.Context, task pipeline.ExtractTask) error {
	conn, err := e.connect(ctx)
	if err != nil {
		return &pipeline.SourceConnectionError{Op: "connect", Err: err}
	}
	defer conn.Close()
	q := OutfileSQL(e.source, task.Chunk, task.Location)
	e.log.Debug("export SQL: ", q)
	if _, err = conn.ExecContext(ctx, q); err != nil {
		if isS3ExportError(err) {
			return &pipeline.StagingWriteError{Key: task.Key, Err: err}
		}
		return &pipeline.SourceConnectionError{Op: "export", Err: errors.Wrap(err, task.Chunk.String())}
	}
	return nil
}

// isS3ExportError reports whether Aurora failed to write the export rather than to read the rows.
func isS3ExportError(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return strings.Contains(me.Message, "S3")
	}
	return false
}
