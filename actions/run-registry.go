package actions

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/wbxdata/replipipe/logger"
	"github.com/wbxdata/replipipe/pipeline"
	"github.com/wbxdata/replipipe/stats"
)

const (
	RunStatusRunning = "RUNNING"
)

// RunInfo is a point-in-time view of a run launched through the web server.
type RunInfo struct {
	RunID       string           `json:"runId"`
	Description string           `json:"description,omitempty"`
	Table       string           `json:"table"`
	Status      string           `json:"status"`
	Started     time.Time        `json:"started"`
	Stats       []stats.Stats    `json:"stats,omitempty"`
	Result      *pipeline.Result `json:"result,omitempty"`
}

type runEntry struct {
	info        RunInfo
	replication *Replication
}

// RunRegistry tracks runs launched in the background.
type RunRegistry struct {
	mu   sync.RWMutex
	runs map[string]*runEntry
	wg   sync.WaitGroup
}

func NewRunRegistry() *RunRegistry {
	return &RunRegistry{runs: make(map[string]*runEntry)}
}

// Launch wires cfg and starts it in the background under ctx.
// Configuration errors are returned before anything starts.
func (r *RunRegistry) Launch(ctx context.Context, log logger.Logger, cfg *ReplicateConfig, env *Environment) (string, error) {
	cfg.ApplyDefaults()
	rep, err := NewReplication(ctx, log, cfg, env)
	if err != nil {
		return "", err
	}
	id := NewRunID()
	e := &runEntry{
		info: RunInfo{
			RunID:       id,
			Description: cfg.Description,
			Table:       rep.table,
			Status:      RunStatusRunning,
			Started:     time.Now(),
		},
		replication: rep,
	}
	r.mu.Lock()
	r.runs[id] = e
	r.mu.Unlock()
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		res := rep.Run(ctx, id)
		r.mu.Lock()
		e.info.Status = string(res.State)
		e.info.Result = res
		r.mu.Unlock()
	}()
	return id, nil
}

// Load returns a snapshot of run id.
func (r *RunRegistry) Load(id string) (RunInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.runs[id]
	if !ok {
		return RunInfo{}, false
	}
	return e.snapshot(), true
}

// List returns a snapshot of every run, oldest first.
func (r *RunRegistry) List() []RunInfo {
	r.mu.RLock()
	retval := make([]RunInfo, 0, len(r.runs))
	for _, e := range r.runs {
		retval = append(retval, e.snapshot())
	}
	r.mu.RUnlock()
	sort.Slice(retval, func(i, j int) bool {
		return retval[i].RunID < retval[j].RunID // run ids sort by creation time.
	})
	return retval
}

// Wait blocks until every launched run has finished.
func (r *RunRegistry) Wait() {
	r.wg.Wait()
}

// snapshot copies the entry; the caller holds the read lock.
func (e *runEntry) snapshot() RunInfo {
	info := e.info
	info.Stats = e.replication.Stats()
	if e.info.Result != nil {
		res := *e.info.Result
		info.Result = &res
	}
	return info
}
