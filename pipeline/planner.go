package pipeline

import (
	"fmt"
)

// PlanBootstrap splits [0, rowCount) into floor(rowCount/chunkSize)+1 consecutive chunks of chunkSize ids.
// An empty source still yields one chunk so that the destination table gets created.
func PlanBootstrap(rowCount int64, chunkSize int64) ([]Chunk, error) {
	if chunkSize <= 0 {
		return nil, &PlanningError{Reason: fmt.Sprintf("chunk size must be positive, got %v", chunkSize)}
	}
	if rowCount < 0 {
		return nil, &PlanningError{Reason: fmt.Sprintf("source row count must not be negative, got %v", rowCount)}
	}
	n := rowCount/chunkSize + 1
	chunks := make([]Chunk, 0, n)
	for c := int64(0); c < n; c++ {
		chunks = append(chunks, Chunk{
			Seq:  int(c),
			Low:  c * chunkSize,
			High: (c + 1) * chunkSize,
		})
	}
	return chunks, nil
}

// PlanIncremental returns the single unbounded chunk above hwm.
func PlanIncremental(hwm HighWaterMark) ([]Chunk, error) {
	if hwm.IsEmpty() {
		return nil, &PlanningError{Reason: "incremental plan requires a high-water mark"}
	}
	return []Chunk{{Seq: 0, Low: hwm.Value() + 1, Unbounded: true}}, nil
}
