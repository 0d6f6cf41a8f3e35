package tetris

// Action is something that changes the game: a timer tick or a user command.
// The set is closed; the concrete types are MoveX, MoveY, Tick, Rotate and
// Restart.
type Action interface {
	action()
}

// MoveX moves the tetromino Amount columns. Negative is left.
type MoveX struct{ Amount int }

// MoveY drops the tetromino one row. Amount is carried for the input layer
// but the drop is always a single row.
type MoveY struct{ Amount int }

// Tick is the Elapsed-th tick of the game clock. The tetromino falls on the
// ticks that are a multiple of the current level's FallInterval.
type Tick struct{ Elapsed int }

// Rotate rotates the tetromino clockwise.
type Rotate struct{}

// Restart starts a new game once the current one has ended, keeping the
// highscore.
type Restart struct{}

func (MoveX) action()   {}
func (MoveY) action()   {}
func (Tick) action()    {}
func (Rotate) action()  {}
func (Restart) action() {}

// Apply returns the state that results from applying a to s.
func Apply(a Action, s State) State {
	switch a := a.(type) {
	case MoveX:
		if WillCollide(s.Tetromino, s.StaticBlocks, AxisX, a.Amount) {
			return s
		}
		s.Tetromino = Translate(s.Tetromino, AxisX, a.Amount)
		return s
	case MoveY:
		return handleDown(s)
	case Tick:
		if a.Elapsed%FallInterval(s.Level) != 0 {
			return s
		}
		return handleDown(s)
	case Rotate:
		s.Tetromino = RotateClockwise(s.Tetromino, s.StaticBlocks)
		return s
	case Restart:
		if !s.GameEnd {
			return s
		}
		next := InitialState(s.Seed)
		next.Highscore = max(s.Score, s.Highscore)
		return next
	default:
		panic("tetris: unknown action")
	}
}

// Fold applies the actions in order starting from s and returns every
// intermediate state.
func Fold(s State, actions ...Action) []State {
	states := make([]State, 0, len(actions))
	for _, a := range actions {
		s = Apply(a, s)
		states = append(states, s)
	}
	return states
}
