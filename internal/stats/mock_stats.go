package stats

import "sync"

// MockStatsUpdater is a counting StatsProvider for tests.
type MockStatsUpdater struct {
	mu     sync.Mutex
	counts map[string]int
}

func (m *MockStatsUpdater) Incr(name string) {
	m.add(name, 1)
}

func (m *MockStatsUpdater) Decr(name string) {
	m.add(name, -1)
}

func (m *MockStatsUpdater) RegisterMetric(name string) {}

func (m *MockStatsUpdater) Run() {}

func (m *MockStatsUpdater) add(name string, v int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts == nil {
		m.counts = make(map[string]int)
	}
	m.counts[name] += v
}

// Count returns the current value recorded for name.
func (m *MockStatsUpdater) Count(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[name]
}
