package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/wbxdata/replipipe/logger"
	"github.com/wbxdata/replipipe/stats"
)

// ChunkResult is the completion report of one task. Err is nil on success.
type ChunkResult struct {
	Task     ExtractTask   `json:"task"`
	Err      *ChunkError   `json:"-"`
	Duration time.Duration `json:"duration"`
}

// Report holds one result per task in Seq order.
type Report struct {
	Results []ChunkResult
}

func (r Report) Succeeded() int {
	n := 0
	for _, c := range r.Results {
		if c.Err == nil {
			n++
		}
	}
	return n
}

func (r Report) Failed() []ChunkResult {
	failed := make([]ChunkResult, 0)
	for _, c := range r.Results {
		if c.Err != nil {
			failed = append(failed, c)
		}
	}
	return failed
}

// Err returns *ChunkFailures when any chunk failed, else nil.
func (r Report) Err() error {
	failed := r.Failed()
	if len(failed) == 0 {
		return nil
	}
	e := &ChunkFailures{Total: len(r.Results)}
	for _, c := range failed {
		e.Errors = append(e.Errors, c.Err)
	}
	return e
}

// Pool runs extraction tasks on a fixed number of workers.
type Pool struct {
	log         logger.Logger
	parallelism int
	watcher     *stats.PoolWatcher
}

// NewPool returns a pool of parallelism workers. watcher may be nil.
func NewPool(log logger.Logger, parallelism int, watcher *stats.PoolWatcher) *Pool {
	if parallelism < 1 {
		parallelism = 1
	}
	return &Pool{log: log, parallelism: parallelism, watcher: watcher}
}

type indexedResult struct {
	idx int
	res ChunkResult
}

// Run extracts every task and returns once all of them have completed.
// A failed task never stops its siblings. Cancelling ctx stops further dispatch only: tasks not yet handed
// to a worker are reported failed with the context error, while running extractions see a context that is
// never cancelled and finish normally.
func (p *Pool) Run(ctx context.Context, tasks []ExtractTask, ex Extractor) Report {
	results := make([]ChunkResult, len(tasks))
	if p.watcher != nil {
		p.watcher.StartWatching(len(tasks))
		defer p.watcher.StopWatching()
	}
	workerCtx := context.WithoutCancel(ctx)
	taskCh := make(chan int)
	doneCh := make(chan indexedResult)
	// Collector: the only writer of results.
	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for r := range doneCh {
			results[r.idx] = r.res
			if p.watcher != nil {
				var err error
				if r.res.Err != nil {
					err = r.res.Err
				}
				p.watcher.Completed(err)
			}
		}
	}()
	// Workers.
	var wg sync.WaitGroup
	for w := 0; w < p.parallelism; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for idx := range taskCh {
				doneCh <- indexedResult{idx: idx, res: p.runOne(workerCtx, worker, tasks[idx], ex)}
			}
		}(w)
	}
	// Dispatch, checking for cancellation between tasks.
	abandonFrom := len(tasks)
dispatch:
	for idx := range tasks {
		if ctx.Err() != nil {
			abandonFrom = idx
			break
		}
		select {
		case taskCh <- idx:
			if p.watcher != nil {
				p.watcher.Dispatched()
			}
		case <-ctx.Done():
			abandonFrom = idx
			break dispatch
		}
	}
	close(taskCh)
	if abandonFrom < len(tasks) {
		p.log.Warn("dispatch cancelled with ", len(tasks)-abandonFrom, " chunks outstanding: ", ctx.Err())
	}
	for idx := abandonFrom; idx < len(tasks); idx++ {
		doneCh <- indexedResult{idx: idx, res: ChunkResult{
			Task: tasks[idx],
			Err:  &ChunkError{Chunk: tasks[idx].Chunk, Err: ctx.Err()},
		}}
	}
	wg.Wait() // barrier
	close(doneCh)
	<-collected
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Task.Chunk.Seq < results[j].Task.Chunk.Seq
	})
	return Report{Results: results}
}

func (p *Pool) runOne(ctx context.Context, worker int, task ExtractTask, ex Extractor) (res ChunkResult) {
	log := p.log.WithField("worker", worker)
	start := time.Now()
	res.Task = task
	defer func() {
		if r := recover(); r != nil {
			res.Err = &ChunkError{Chunk: task.Chunk, Err: fmt.Errorf("extractor panic: %v", r)}
		}
		res.Duration = time.Since(start)
		if res.Err != nil {
			log.Error("failed ", task.Chunk, ": ", res.Err.Err)
		} else {
			log.Info("extracted ", task.Chunk, " to ", task.Location, " in ", res.Duration.Round(time.Millisecond))
		}
	}()
	log.Debug("extracting ", task.Chunk)
	if err := ex.Extract(ctx, task); err != nil {
		res.Err = &ChunkError{Chunk: task.Chunk, Err: err}
	}
	return
}
