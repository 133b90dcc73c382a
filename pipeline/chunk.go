package pipeline

import (
	"fmt"
	"strconv"
)

// Chunk is the half-open id range [Low, High) handled by one extraction, or [Low, +inf) when Unbounded.
type Chunk struct {
	Seq       int   `json:"seq"`
	Low       int64 `json:"low"`
	High      int64 `json:"high,omitempty"`
	Unbounded bool  `json:"unbounded,omitempty"`
}

// Contains reports whether id falls inside the chunk.
func (c Chunk) Contains(id int64) bool {
	if id < c.Low {
		return false
	}
	return c.Unbounded || id < c.High
}

func (c Chunk) String() string {
	if c.Unbounded {
		return fmt.Sprintf("chunk %v [%v, +inf)", c.Seq, c.Low)
	}
	return fmt.Sprintf("chunk %v [%v, %v)", c.Seq, c.Low, c.High)
}

// HighWaterMark is the greatest id already present in the destination, or Empty.
type HighWaterMark struct {
	value int64
	valid bool
}

// EmptyMark is returned by a probe when the destination table is absent or holds no rows.
func EmptyMark() HighWaterMark {
	return HighWaterMark{}
}

func Mark(n int64) HighWaterMark {
	return HighWaterMark{value: n, valid: true}
}

func (h HighWaterMark) IsEmpty() bool {
	return !h.valid
}

// Value returns the mark. It is zero for an empty mark.
func (h HighWaterMark) Value() int64 {
	return h.value
}

func (h HighWaterMark) String() string {
	if !h.valid {
		return "empty"
	}
	return strconv.FormatInt(h.value, 10)
}

// ExtractTask asks an Extractor to materialise Chunk as the staging object Key.
// Location is the full s3:// URL of Key.
type ExtractTask struct {
	Chunk    Chunk  `json:"chunk"`
	Key      string `json:"key"`
	Location string `json:"location"`
}

// SourceExtent describes the source table. MaxID is -1 when the table is empty.
type SourceExtent struct {
	RowCount int64 `json:"rowCount"`
	MaxID    int64 `json:"maxId"`
}

// PlanLength returns the id space the bootstrap planner has to cover.
// Sparse ids can push the max id past the row count so the larger of the two wins.
func (e SourceExtent) PlanLength() int64 {
	l := e.RowCount
	if e.MaxID+1 > l {
		l = e.MaxID + 1
	}
	return l
}
