package tetris

import (
	"log/slog"
	"sync"
	"time"
)

// TickRate is the duration of a single game clock tick (30 ticks per second).
const TickRate = 33340 * time.Microsecond

type Ticker interface {
	C() <-chan time.Time
	Reset(time.Duration)
	Stop()
}

type wrappedTicker struct {
	ticker *time.Ticker
}

func newWrappedTicker(d time.Duration) *wrappedTicker {
	t := &wrappedTicker{ticker: time.NewTicker(d)}
	t.ticker.Stop()
	return t
}

func (t *wrappedTicker) C() <-chan time.Time   { return t.ticker.C }
func (t *wrappedTicker) Stop()                 { t.ticker.Stop() }
func (t *wrappedTicker) Reset(d time.Duration) { t.ticker.Reset(d) }

// Game drives a State through time: it turns clock ticks into Tick actions,
// merges them with user actions and folds both, one at a time, through Apply.
// Every resulting state is published on Updates.
type Game struct {
	updateCh chan State
	actionCh chan Action
	doneCh   chan struct{}
	ticker   Ticker
	logger   *slog.Logger
	elapsed  int
	stopOnce sync.Once

	mu    sync.RWMutex
	state State
}

// NewGame returns a game seeded with seed and ticking at TickRate.
func NewGame(seed int64, l *slog.Logger) *Game {
	return NewConfigurableGame(seed, newWrappedTicker(TickRate), l)
}

func NewConfigurableGame(seed int64, ticker Ticker, l *slog.Logger) *Game {
	if l == nil {
		l = slog.Default()
	}
	return &Game{
		updateCh: make(chan State),
		actionCh: make(chan Action),
		doneCh:   make(chan struct{}),
		ticker:   ticker,
		logger:   l,
		state:    InitialState(seed),
	}
}

// Start publishes the initial state and starts the clock. It blocks until the
// initial state has been received from Updates or the game is stopped.
func (g *Game) Start() {
	g.logger.Debug("starting game", slog.Int64("seed", g.Read().Seed))
	select {
	case g.updateCh <- g.Read():
	case <-g.doneCh:
		close(g.updateCh)
		return
	}
	g.ticker.Reset(TickRate)
	go g.listen()
}

// Stop stops the clock and the game loop. The Updates channel is closed once
// the loop has returned.
func (g *Game) Stop() {
	g.stopOnce.Do(func() {
		g.ticker.Stop()
		close(g.doneCh)
	})
}

// Action queues a user action. It blocks until the game loop takes it.
func (g *Game) Action(a Action) {
	select {
	case g.actionCh <- a:
	case <-g.doneCh:
	}
}

// Updates returns the channel where every new state is published.
func (g *Game) Updates() <-chan State {
	return g.updateCh
}

// Read returns the latest state.
func (g *Game) Read() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

func (g *Game) listen() {
	defer close(g.updateCh)
	for {
		var a Action
		select {
		case <-g.ticker.C():
			tick := Tick{Elapsed: g.elapsed}
			g.elapsed++
			// ticks between descents don't change the state.
			if tick.Elapsed%FallInterval(g.Read().Level) != 0 {
				continue
			}
			a = tick
		case a = <-g.actionCh:
			g.logger.Debug("action received", slog.String("action", ActionName(a)))
		case <-g.doneCh:
			return
		}

		g.mu.Lock()
		prev := g.state
		g.state = Apply(a, prev)
		next := g.state
		g.mu.Unlock()

		if next.GameEnd && !prev.GameEnd {
			g.logger.Info("game over", slog.Int("score", next.Score), slog.Int("highscore", next.Highscore))
		}

		select {
		case g.updateCh <- next:
		case <-g.doneCh:
			return
		}
	}
}

// ActionName returns a short, stable name for the action kind.
func ActionName(a Action) string {
	switch a.(type) {
	case MoveX:
		return "move_x"
	case MoveY:
		return "move_y"
	case Tick:
		return "tick"
	case Rotate:
		return "rotate"
	case Restart:
		return "restart"
	default:
		return "unknown"
	}
}
