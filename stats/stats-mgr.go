package stats

import (
	"sync"
	"time"

	"github.com/wbxdata/replipipe/constants"
	"github.com/wbxdata/replipipe/logger"
)

type StatsFetcher interface {
	GetStats() []Stats
}

// StatsManager hands out PoolWatchers and periodically logs their stats.
type StatsManager interface {
	StatsFetcher
	AddPoolWatcher(name string) *PoolWatcher
	StartDumping()
	StopDumping()
}

// PoolStatsManager implements StatsManager.
type PoolStatsManager struct {
	mu              sync.Mutex
	log             logger.Logger
	tickerFrequency time.Duration
	tickerDone      chan struct{}
	isDumping       bool
	watchers        []*PoolWatcher // in the order they were added.
}

// SetStatsDumpFrequency returns a function that can be supplied as an option to constructor NewPoolStatsManager().
// Zero disables dumping.
func SetStatsDumpFrequency(seconds int) func(t *PoolStatsManager) {
	return func(t *PoolStatsManager) {
		t.tickerFrequency = time.Duration(seconds) * time.Second
	}
}

func NewPoolStatsManager(log logger.Logger, options ...func(t *PoolStatsManager)) *PoolStatsManager {
	t := &PoolStatsManager{log: log, tickerFrequency: constants.StatsCaptureFrequencySeconds * time.Second}
	for _, option := range options {
		option(t)
	}
	return t
}

func (t *PoolStatsManager) AddPoolWatcher(name string) *PoolWatcher {
	t.mu.Lock()
	defer t.mu.Unlock()
	w := NewPoolWatcher(name)
	t.watchers = append(t.watchers, w)
	return w
}

func (t *PoolStatsManager) StartDumping() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.isDumping {
		t.log.Debug("stats dumper ticker already running")
		return
	}
	if t.tickerFrequency <= 0 {
		t.log.Debug("stats dumper disabled")
		return
	}
	t.isDumping = true
	t.tickerDone = make(chan struct{})
	ticker := time.NewTicker(t.tickerFrequency)
	go func(done chan struct{}) {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				t.logStats()
			}
		}
	}(t.tickerDone)
}

// StopDumping will stop the ticker and dump the current stats,
// only if the ticker was already running via a call to StartDumping().
func (t *PoolStatsManager) StopDumping() {
	t.mu.Lock()
	if !t.isDumping {
		t.mu.Unlock()
		return
	}
	t.isDumping = false
	close(t.tickerDone)
	t.mu.Unlock()
	t.logStats()
}

func (t *PoolStatsManager) logStats() {
	for _, s := range t.GetStats() {
		t.log.Info(s.String())
	}
}

// GetStats implements interface StatsFetcher{}.
func (t *PoolStatsManager) GetStats() []Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	statsList := make([]Stats, 0, len(t.watchers))
	for _, w := range t.watchers {
		statsList = append(statsList, w.RenderStats())
	}
	return statsList
}
