package pipeline

import (
	"fmt"
	"strings"
)

// SourceConnectionError means the source could not be reached or the extraction query failed.
type SourceConnectionError struct {
	Op  string
	Err error
}

func (e *SourceConnectionError) Error() string {
	return fmt.Sprintf("source %v: %v", e.Op, e.Err)
}

func (e *SourceConnectionError) Unwrap() error { return e.Err }

// StagingWriteError means a staging object could not be written, listed or removed.
type StagingWriteError struct {
	Key string
	Err error
}

func (e *StagingWriteError) Error() string {
	return fmt.Sprintf("staging object %q: %v", e.Key, e.Err)
}

func (e *StagingWriteError) Unwrap() error { return e.Err }

// WarehouseLoadError carries the DDL, grant or copy statement that failed.
type WarehouseLoadError struct {
	Statement string
	Err       error
}

func (e *WarehouseLoadError) Error() string {
	return fmt.Sprintf("warehouse statement failed: %v: %v", e.Err, oneLine(e.Statement))
}

func (e *WarehouseLoadError) Unwrap() error { return e.Err }

// PlanningError is raised before any chunk is dispatched.
type PlanningError struct {
	Reason string
	Err    error
}

func (e *PlanningError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("planning failed: %v: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("planning failed: %v", e.Reason)
}

func (e *PlanningError) Unwrap() error { return e.Err }

// ProbeError means the high-water mark could not be determined. It is never treated as empty.
type ProbeError struct {
	Err error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("high-water mark probe failed: %v", e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }

type ChunkError struct {
	Chunk Chunk
	Err   error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("%v: %v", e.Chunk, e.Err)
}

func (e *ChunkError) Unwrap() error { return e.Err }

// ChunkFailures aggregates every failed chunk of a pool run in Seq order.
type ChunkFailures struct {
	Total  int
	Errors []*ChunkError
}

func (e *ChunkFailures) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, c := range e.Errors {
		msgs = append(msgs, c.Error())
	}
	return fmt.Sprintf("%v of %v chunks failed: %v", len(e.Errors), e.Total, strings.Join(msgs, "; "))
}

// Unwrap exposes the first failure to errors.Is and errors.As.
func (e *ChunkFailures) Unwrap() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e.Errors[0]
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
