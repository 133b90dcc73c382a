package extract

import (
	"context"
	"encoding/csv"
	"io"

	"github.com/pkg/errors"
	"github.com/wbxdata/replipipe/aws/s3"
	"github.com/wbxdata/replipipe/logger"
	"github.com/wbxdata/replipipe/pipeline"
	"github.com/wbxdata/replipipe/rdbms"
	"github.com/wbxdata/replipipe/rdbms/shared"
)

// StreamExtractor reads each chunk through the driver and uploads it as CSV.
// The object only appears once the upload completes, so a failed chunk never leaves a partial object.
type StreamExtractor struct {
	log      logger.Logger
	connect  rdbms.ConnectionFactory
	dialect  Dialect
	source   Source
	uploader s3.Uploader
}

func NewStreamExtractor(log logger.Logger, connect rdbms.ConnectionFactory, dialect Dialect, source Source, uploader s3.Uploader) *StreamExtractor {
	return &StreamExtractor{log: log, connect: connect, dialect: dialect, source: source, uploader: uploader}
}

func (e *StreamExtractor) Extract(ctx context.Context, task pipeline.ExtractTask) error {
	conn, err := e.connect(ctx)
	if err != nil {
		return &pipeline.SourceConnectionError{Op: "connect", Err: err}
	}
	defer conn.Close()
	q := SelectSQL(e.dialect, e.source, task.Chunk)
	e.log.Debug("extract SQL: ", q)
	rows, err := conn.QueryContext(ctx, q)
	if err != nil {
		return &pipeline.SourceConnectionError{Op: "query", Err: errors.Wrap(err, task.Chunk.String())}
	}
	pr, pw := io.Pipe()
	writeErrCh := make(chan error, 1)
	go func() {
		err := e.writeRecords(pw, rows)
		_ = pw.CloseWithError(err)
		writeErrCh <- err
	}()
	uploadErr := e.uploader.Upload(ctx, task.Key, pr)
	if uploadErr != nil {
		_ = pr.CloseWithError(uploadErr) // unblock the writer.
	}
	writeErr := <-writeErrCh
	var sce *pipeline.SourceConnectionError
	if errors.As(writeErr, &sce) {
		return sce
	}
	if uploadErr != nil {
		return &pipeline.StagingWriteError{Key: task.Key, Err: uploadErr}
	}
	if writeErr != nil {
		return &pipeline.StagingWriteError{Key: task.Key, Err: writeErr}
	}
	return nil
}

// writeRecords encodes rows as CSV with a header. Errors reading rows are returned as *SourceConnectionError.
func (e *StreamExtractor) writeRecords(w io.Writer, rows shared.Rows) error {
	defer func() {
		_ = rows.Close()
	}()
	cw := csv.NewWriter(w)
	if err := cw.Write(e.source.Columns.Header()); err != nil {
		return err
	}
	n := 0
	for rows.Next() {
		var r SourceRecord
		var flag int64
		if err := rows.Scan(&r.ID, &r.FK, &flag, &r.CreatedAt); err != nil {
			return &pipeline.SourceConnectionError{Op: "scan", Err: err}
		}
		r.Flag = flag != 0
		if err := cw.Write(r.CSV()); err != nil {
			return err
		}
		n++
	}
	if err := rows.Err(); err != nil {
		return &pipeline.SourceConnectionError{Op: "read", Err: err}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	e.log.Debug("encoded ", n, " records")
	return nil
}
