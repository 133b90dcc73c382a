package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/wbxdata/replipipe/logger"
	"github.com/wbxdata/replipipe/stats"
)

type State string

const (
	StateProbe       State = "PROBE"
	StateBootstrap   State = "BOOTSTRAP"
	StateIncremental State = "INCREMENTAL"
	StateDone        State = "DONE"
	StateFailed      State = "FAILED"
)

type Mode string

const (
	ModeBootstrap   Mode = "bootstrap"
	ModeIncremental Mode = "incremental"
)

type Config struct {
	ChunkSize   int64
	Parallelism int
	Layout      StagingLayout
}

// Dependencies are the collaborators of a Replicator. Stager and Stats are optional.
type Dependencies struct {
	Source    SourceStatter
	Extractor Extractor
	Prober    Prober
	Loader    Loader
	Stager    Stager
	Stats     stats.StatsManager
}

// Replicator moves a source table into the warehouse via staging, choosing bootstrap or incremental mode
// from the destination's high-water mark.
type Replicator struct {
	log  logger.Logger
	cfg  Config
	deps Dependencies
}

func NewReplicator(log logger.Logger, cfg Config, deps Dependencies) *Replicator {
	return &Replicator{log: log, cfg: cfg, deps: deps}
}

// Result is the terminal report of one run.
type Result struct {
	RunID         string    `json:"runId"`
	Table         string    `json:"table"`
	Mode          Mode      `json:"mode,omitempty"`
	State         State     `json:"state"`
	History       []State   `json:"history"`
	HighWaterMark string    `json:"highWaterMark,omitempty"`
	Chunks        int       `json:"chunks"`
	FailedChunks  int       `json:"failedChunks"`
	RowsLoaded    int64     `json:"rowsLoaded"`
	Err           error     `json:"-"`
	ErrorText     string    `json:"error,omitempty"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
}

func (r *Result) Succeeded() bool {
	return r.State == StateDone
}

// Summary is a one-line description suitable for notifications.
func (r *Result) Summary() string {
	if r.State == StateFailed {
		return fmt.Sprintf("%v %v run %v failed after %v: %v", r.Table, r.Mode, r.RunID, r.End.Sub(r.Start).Round(time.Second), r.Err)
	}
	return fmt.Sprintf("%v %v run %v loaded %v rows from %v chunk(s) in %v", r.Table, r.Mode, r.RunID, r.RowsLoaded, r.Chunks, r.End.Sub(r.Start).Round(time.Second))
}

// Plan is the outcome of probing and planning without extracting anything.
type Plan struct {
	Mode          Mode          `json:"mode"`
	HighWaterMark string        `json:"highWaterMark"`
	Extent        *SourceExtent `json:"sourceExtent,omitempty"`
	Tasks         []ExtractTask `json:"tasks"`
	LoadLocation  string        `json:"loadLocation"`
}

type run struct {
	log logger.Logger
	res *Result
}

func (r *run) transition(to State) {
	r.log.Info("state ", r.res.State, " -> ", to)
	r.res.State = to
	r.res.History = append(r.res.History, to)
}

func (r *run) fail(err error) {
	r.res.Err = err
	r.res.ErrorText = err.Error()
	r.transition(StateFailed)
}

// Run executes one replication. The returned Result is always in state DONE or FAILED.
func (x *Replicator) Run(ctx context.Context, runID string) *Result {
	res := &Result{
		RunID:   runID,
		Table:   x.cfg.Layout.Table,
		State:   StateProbe,
		History: []State{StateProbe},
		Start:   time.Now(),
	}
	r := &run{log: x.log.WithField("runId", runID), res: res}
	defer func() {
		res.End = time.Now()
	}()
	hwm, err := x.probe(ctx)
	if err != nil {
		r.fail(err)
		return res
	}
	res.HighWaterMark = hwm.String()
	if hwm.IsEmpty() {
		r.log.Info("destination is empty; bootstrapping ", x.cfg.Layout.Table)
		res.Mode = ModeBootstrap
		r.transition(StateBootstrap)
		err = x.bootstrap(ctx, r)
	} else {
		r.log.Info("destination high-water mark is ", hwm, "; fetching new records")
		res.Mode = ModeIncremental
		r.transition(StateIncremental)
		err = x.incremental(ctx, r, hwm)
	}
	if err != nil {
		r.fail(err)
		return res
	}
	r.transition(StateDone)
	r.log.Info(res.Summary())
	return res
}

func (x *Replicator) probe(ctx context.Context) (HighWaterMark, error) {
	hwm, err := x.deps.Prober.Probe(ctx)
	if err != nil {
		var pe *ProbeError
		if errors.As(err, &pe) {
			return hwm, err
		}
		return hwm, &ProbeError{Err: err}
	}
	return hwm, nil
}

func (x *Replicator) planBootstrap(ctx context.Context) (SourceExtent, []ExtractTask, error) {
	extent, err := x.deps.Source.SourceStats(ctx)
	if err != nil {
		return extent, nil, err
	}
	x.log.Info("source holds ", extent.RowCount, " rows with max id ", extent.MaxID)
	chunks, err := PlanBootstrap(extent.PlanLength(), x.cfg.ChunkSize)
	if err != nil {
		return extent, nil, err
	}
	return extent, x.cfg.Layout.BootstrapTasks(chunks), nil
}

func (x *Replicator) bootstrap(ctx context.Context, r *run) error {
	_, tasks, err := x.planBootstrap(ctx)
	if err != nil {
		return err
	}
	r.res.Chunks = len(tasks)
	prefix := x.cfg.Layout.BootstrapPrefix()
	if x.deps.Stager != nil {
		n, err := x.deps.Stager.DeletePrefix(ctx, prefix)
		if err != nil {
			return &StagingWriteError{Key: prefix, Err: errors.Wrap(err, "unable to purge stale chunk objects")}
		}
		if n > 0 {
			r.log.Info("purged ", n, " stale chunk objects under ", x.cfg.Layout.URL(prefix))
		}
	}
	var watcher *stats.PoolWatcher
	if x.deps.Stats != nil {
		watcher = x.deps.Stats.AddPoolWatcher(x.cfg.Layout.Table)
		x.deps.Stats.StartDumping()
		defer x.deps.Stats.StopDumping()
	}
	r.log.Info("extracting ", len(tasks), " chunks with ", x.cfg.Parallelism, " workers")
	report := NewPool(r.log, x.cfg.Parallelism, watcher).Run(ctx, tasks, x.deps.Extractor)
	r.res.FailedChunks = len(report.Failed())
	if err = report.Err(); err != nil {
		return err // the warehouse is left untouched.
	}
	if err = ctx.Err(); err != nil {
		return errors.Wrap(err, "run abandoned before load")
	}
	if x.deps.Stager != nil {
		keys := make([]string, 0, len(tasks))
		for _, t := range tasks {
			keys = append(keys, t.Key)
		}
		missing, err := x.deps.Stager.Missing(ctx, keys)
		if err != nil {
			return &StagingWriteError{Key: prefix, Err: errors.Wrap(err, "unable to verify staged chunks")}
		}
		if len(missing) > 0 {
			return &StagingWriteError{Key: missing[0], Err: fmt.Errorf("%v of %v staged chunk objects are missing", len(missing), len(keys))}
		}
	}
	rows, err := x.deps.Loader.Rebuild(ctx, x.cfg.Layout.URL(prefix))
	if err != nil {
		return err
	}
	r.res.RowsLoaded = rows
	return nil
}

func (x *Replicator) incremental(ctx context.Context, r *run, hwm HighWaterMark) error {
	chunks, err := PlanIncremental(hwm)
	if err != nil {
		return err
	}
	task := x.cfg.Layout.IncrementalTask(chunks[0])
	r.res.Chunks = 1
	r.log.Info("extracting ", task.Chunk, " to ", task.Location)
	if err = x.deps.Extractor.Extract(ctx, task); err != nil {
		r.res.FailedChunks = 1
		return &ChunkError{Chunk: task.Chunk, Err: err}
	}
	rows, err := x.deps.Loader.BulkLoad(ctx, task.Location, hwm)
	if err != nil {
		return err
	}
	r.res.RowsLoaded = rows
	return nil
}

// Plan probes the destination and plans the chunks a Run would extract, without side effects.
func (x *Replicator) Plan(ctx context.Context) (*Plan, error) {
	hwm, err := x.probe(ctx)
	if err != nil {
		return nil, err
	}
	p := &Plan{HighWaterMark: hwm.String()}
	if hwm.IsEmpty() {
		extent, tasks, err := x.planBootstrap(ctx)
		if err != nil {
			return nil, err
		}
		p.Mode = ModeBootstrap
		p.Extent = &extent
		p.Tasks = tasks
		p.LoadLocation = x.cfg.Layout.URL(x.cfg.Layout.BootstrapPrefix())
		return p, nil
	}
	chunks, err := PlanIncremental(hwm)
	if err != nil {
		return nil, err
	}
	p.Mode = ModeIncremental
	p.Tasks = []ExtractTask{x.cfg.Layout.IncrementalTask(chunks[0])}
	p.LoadLocation = p.Tasks[0].Location
	return p, nil
}
