package pipeline

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/wbxdata/replipipe/aws/s3"
)

// fakeSource is an in-memory source table of ids.
type fakeSource struct {
	ids      []int64
	statsErr error
}

func newDenseSource(n int64) *fakeSource {
	ids := make([]int64, 0, n)
	for i := int64(1); i <= n; i++ {
		ids = append(ids, i)
	}
	return &fakeSource{ids: ids}
}

func (f *fakeSource) SourceStats(ctx context.Context) (SourceExtent, error) {
	if f.statsErr != nil {
		return SourceExtent{}, f.statsErr
	}
	e := SourceExtent{RowCount: int64(len(f.ids)), MaxID: -1}
	for _, id := range f.ids {
		if id > e.MaxID {
			e.MaxID = id
		}
	}
	return e, nil
}

// fakeExtractor writes the ids of a chunk to staging as CSV.
type fakeExtractor struct {
	src       *fakeSource
	staging   *s3.MemoryClient
	fail      map[int]error
	panicOn   map[int]bool
	before    func(task ExtractTask, ctx context.Context)
	calls     int32
	active    int32
	maxActive int32
}

func (f *fakeExtractor) Extract(ctx context.Context, task ExtractTask) error {
	atomic.AddInt32(&f.calls, 1)
	n := atomic.AddInt32(&f.active, 1)
	defer atomic.AddInt32(&f.active, -1)
	for {
		m := atomic.LoadInt32(&f.maxActive)
		if n <= m || atomic.CompareAndSwapInt32(&f.maxActive, m, n) {
			break
		}
	}
	if f.before != nil {
		f.before(task, ctx)
	}
	if f.panicOn[task.Chunk.Seq] {
		panic("boom")
	}
	if err, ok := f.fail[task.Chunk.Seq]; ok {
		return &SourceConnectionError{Op: "query", Err: err}
	}
	var buf bytes.Buffer
	buf.WriteString("id,fk,flag,created_at\n")
	for _, id := range f.src.ids {
		if task.Chunk.Contains(id) {
			fmt.Fprintf(&buf, "%v,1,0,2021-01-01 00:00:00\n", id)
		}
	}
	if err := f.staging.Put(ctx, task.Key, buf.Bytes()); err != nil {
		return &StagingWriteError{Key: task.Key, Err: err}
	}
	return nil
}

// fakeWarehouse loads staged CSV objects into an in-memory table.
type fakeWarehouse struct {
	mu        sync.Mutex
	staging   *s3.MemoryClient
	exists    bool
	rows      []int64
	probeErr  error
	loadErr   error
	rebuilds  int
	bulkLoads int
}

func (f *fakeWarehouse) Probe(ctx context.Context) (HighWaterMark, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.probeErr != nil {
		return EmptyMark(), f.probeErr
	}
	if !f.exists || len(f.rows) == 0 {
		return EmptyMark(), nil
	}
	max := f.rows[0]
	for _, id := range f.rows {
		if id > max {
			max = id
		}
	}
	return Mark(max), nil
}

func (f *fakeWarehouse) copyFrom(ctx context.Context, location string) ([]int64, error) {
	prefix := strings.TrimPrefix(location, "s3://"+f.staging.Bucket()+"/")
	keys, err := f.staging.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	loaded := make([]int64, 0)
	for _, k := range keys {
		data, err := f.staging.Get(ctx, k)
		if err != nil {
			return nil, err
		}
		sc := bufio.NewScanner(bytes.NewReader(data))
		header := true
		for sc.Scan() {
			if header {
				header = false
				continue
			}
			id, err := strconv.ParseInt(strings.SplitN(sc.Text(), ",", 2)[0], 10, 64)
			if err != nil {
				return nil, err
			}
			loaded = append(loaded, id)
		}
	}
	return loaded, nil
}

func (f *fakeWarehouse) Rebuild(ctx context.Context, location string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rebuilds++
	if f.loadErr != nil {
		return 0, &WarehouseLoadError{Statement: "COPY", Err: f.loadErr}
	}
	f.exists = true
	f.rows = nil
	loaded, err := f.copyFrom(ctx, location)
	if err != nil {
		return 0, err
	}
	f.rows = loaded
	return int64(len(f.rows)), nil
}

func (f *fakeWarehouse) BulkLoad(ctx context.Context, location string, hwm HighWaterMark) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bulkLoads++
	if f.loadErr != nil {
		return 0, &WarehouseLoadError{Statement: "COPY", Err: f.loadErr}
	}
	loaded, err := f.copyFrom(ctx, location)
	if err != nil {
		return 0, err
	}
	f.rows = append(f.rows, loaded...)
	var n int64
	for _, id := range f.rows {
		if id > hwm.Value() {
			n++
		}
	}
	return n, nil
}

func (f *fakeWarehouse) rowCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}
