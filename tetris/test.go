package tetris

import (
	"slices"
	"sync"
	"time"
)

// MockTicker is a manual Ticker for tests.
type MockTicker struct {
	ch          chan time.Time
	stop, reset bool
	mu          sync.Mutex
}

func NewMockTicker() *MockTicker          { return &MockTicker{ch: make(chan time.Time)} }
func (m *MockTicker) C() <-chan time.Time { return m.ch }
func (m *MockTicker) Tick()               { m.ch <- time.Now() }
func (m *MockTicker) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stop = true
}
func (m *MockTicker) Reset(time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset = true
}
func (m *MockTicker) IsReset() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reset
}
func (m *MockTicker) IsStop() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stop
}

// NewTestState returns an initial state whose current and next tetrominoes
// are of the given shape.
func NewTestState(shape Shape) State {
	kind := slices.Index(Shapes[:], shape)
	s := InitialState(0)
	s.Tetromino = Spawn(0, kind)
	s.Next = Spawn(4, kind)
	return s
}

// Row returns a full row of static blocks at y, without the columns listed in
// gaps. IDs start at startID.
func Row(startID, y int, gaps ...int) []Block {
	var row []Block
	for x := range Width {
		if slices.Contains(gaps, x) {
			continue
		}
		row = append(row, Block{ID: startID + x, X: x, Y: y, Color: Blue})
	}
	return row
}
