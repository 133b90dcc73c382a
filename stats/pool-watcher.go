package stats

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/wbxdata/replipipe/constants"
	h "github.com/wbxdata/replipipe/helper"
)

// PoolWatcher counts chunk progress for one worker pool run.
// Counters are atomic so a stats dumper can read them while the pool is running.
type PoolWatcher struct {
	name       string
	total      int64
	dispatched int64
	succeeded  int64
	failed     int64
	startTime  atomic.Value // time.Time
	endTime    atomic.Value // time.Time
	isRunning  h.AtomBool
}

type Stats struct {
	Name             string `json:"name"`
	StatusText       string `json:"statusText"`
	StatusEmoji      string `json:"statusEmoji"`
	ElapsedTimeSec   int    `json:"elapsedTimeSec"`
	TotalChunks      int    `json:"totalChunks"`
	DispatchedChunks int    `json:"dispatchedChunks"`
	SucceededChunks  int    `json:"succeededChunks"`
	FailedChunks     int    `json:"failedChunks"`
	ChunksPerMinAvg  int    `json:"chunksPerMinuteAvg"`
}

func NewPoolWatcher(name string) *PoolWatcher {
	return &PoolWatcher{name: name}
}

// StartWatching resets the counters for a run of total chunks.
func (w *PoolWatcher) StartWatching(total int) {
	atomic.StoreInt64(&w.total, int64(total))
	atomic.StoreInt64(&w.dispatched, 0)
	atomic.StoreInt64(&w.succeeded, 0)
	atomic.StoreInt64(&w.failed, 0)
	w.startTime.Store(time.Now())
	w.isRunning.Set(true)
}

func (w *PoolWatcher) Dispatched() {
	atomic.AddInt64(&w.dispatched, 1)
}

func (w *PoolWatcher) Completed(err error) {
	if err != nil {
		atomic.AddInt64(&w.failed, 1)
		return
	}
	atomic.AddInt64(&w.succeeded, 1)
}

func (w *PoolWatcher) StopWatching() {
	w.endTime.Store(time.Now())
	w.isRunning.Set(false)
}

// RenderStats gets a struct filled with stats at the point of time it is called.
func (w *PoolWatcher) RenderStats() Stats {
	var statusText, statusEmoji string
	start, _ := w.startTime.Load().(time.Time)
	elapsed := time.Since(start)
	if start.IsZero() {
		elapsed = 0
	}
	if w.isRunning.Get() {
		statusText = "running"
		statusEmoji = "\U0000231B" // hour glass
	} else {
		statusText = "complete"
		statusEmoji = "\U00002705" // green tick
		if atomic.LoadInt64(&w.failed) > 0 {
			statusText = "complete with failures"
			statusEmoji = constants.EmojiBang
		}
		if end, ok := w.endTime.Load().(time.Time); ok {
			elapsed = end.Sub(start)
		}
	}
	done := atomic.LoadInt64(&w.succeeded) + atomic.LoadInt64(&w.failed)
	minutes := elapsed.Minutes()
	if minutes < 1 {
		minutes = 1
	}
	return Stats{
		Name:             w.name,
		StatusText:       statusText,
		StatusEmoji:      statusEmoji,
		ElapsedTimeSec:   int(elapsed.Seconds()),
		TotalChunks:      int(atomic.LoadInt64(&w.total)),
		DispatchedChunks: int(atomic.LoadInt64(&w.dispatched)),
		SucceededChunks:  int(atomic.LoadInt64(&w.succeeded)),
		FailedChunks:     int(atomic.LoadInt64(&w.failed)),
		ChunksPerMinAvg:  int(float64(done) / minutes),
	}
}

// String will format the stats for general logging.
func (s Stats) String() string {
	return fmt.Sprintf(
		"Stats for %v %v %v "+
			"elapsedTimeSec=%v "+
			"chunks=%v/%v dispatched "+
			"succeeded=%v "+
			"failed=%v "+
			"chunksPerMinuteAvg=%v",
		s.Name, s.StatusText, s.StatusEmoji,
		s.ElapsedTimeSec,
		s.DispatchedChunks, s.TotalChunks,
		s.SucceededChunks,
		s.FailedChunks,
		s.ChunksPerMinAvg,
	)
}
