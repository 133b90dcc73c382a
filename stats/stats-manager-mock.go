package stats

// MockStatsManager hands out working watchers but never dumps.
type MockStatsManager struct{}

func (s *MockStatsManager) StartDumping() {}

func (s *MockStatsManager) StopDumping() {}

func (s *MockStatsManager) AddPoolWatcher(name string) *PoolWatcher {
	return NewPoolWatcher(name)
}

func (s *MockStatsManager) GetStats() []Stats {
	return nil
}

func NewMockStatsManager() *MockStatsManager {
	return &MockStatsManager{}
}
