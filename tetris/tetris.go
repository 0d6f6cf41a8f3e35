// Package tetris contains the rules of the game.
//
// The engine is a pure reducer: Apply takes an Action and a State and returns
// the next State without modifying its input. Timing, input and rendering are
// left to the caller; Game is a ready-made driver that folds ticks and user
// actions through Apply.
//
// Coordinates:
//
//	Columns are 0 > 9 left to right and represent the X axis.
//	Rows are 0 > 19 bottom to top and represent the Y axis. Row 0 is the floor.
package tetris

import "slices"

const (
	Width  = 10
	Height = 20

	// level0Tick is the number of ticks between descents before the level is applied.
	level0Tick = 24
	// lineScore is awarded for every full row cleared.
	lineScore = 100
)

// Axis selects which coordinates a collision check or a translation acts on.
type Axis string

const (
	AxisX  Axis = "x"
	AxisY  Axis = "y"
	AxisXY Axis = "xy" // both axis, used when testing rotations.
)

// State is a full snapshot of the game. States are never modified after being
// returned; every transition builds a new one.
type State struct {
	GameEnd      bool      `json:"game_end"`
	Tetromino    Tetromino `json:"tetromino"`
	Next         Tetromino `json:"next"`
	StaticBlocks []Block   `json:"static_blocks"`
	// ExitBlocks are the blocks removed by the last line clear. Renderers use
	// them to drop stale cells; nothing else reads them.
	ExitBlocks []Block `json:"exit_blocks"`
	BlockCount int     `json:"block_count"`
	Level      int     `json:"level"`
	Score      int     `json:"score"`
	Highscore  int     `json:"highscore"`
	RNG        RNG     `json:"rng"`
	// Seed is the seed the game was started with. Restart replays it.
	Seed int64 `json:"seed"`
}

// InitialState returns the starting state for the given seed.
func InitialState(seed int64) State {
	rng := NewRNG(seed)
	return State{
		Tetromino:  Spawn(0, rng.Scale()),
		Next:       Spawn(4, rng.Next().Scale()),
		BlockCount: 4,
		Level:      1,
		RNG:        rng.Next().Next(),
		Seed:       seed,
	}
}

// LevelFor returns the level reached with the given score.
func LevelFor(score int) int {
	switch {
	case score <= 200:
		return 1
	case score <= 500:
		return 2
	case score <= 900:
		return 3
	case score <= 1400:
		return 4
	default:
		return 5
	}
}

// FallInterval returns how many ticks pass between automatic descents.
//
//	level 1: 20, level 2: 16, level 3: 12, level 4: 8, level 5: 4
func FallInterval(level int) int {
	return level0Tick - level*4
}

// WillCollide reports whether the tetromino, moved by amount on axis, would be
// out of bounds or overlap a static block. With amount 0 it checks the current
// position.
func WillCollide(t Tetromino, static []Block, axis Axis, amount int) bool {
	dx, dy := 0, 0
	switch axis {
	case AxisX:
		dx = amount
	case AxisY:
		dy = amount
	case AxisXY:
		dx, dy = amount, amount
	}

	for _, b := range t.Blocks {
		x, y := b.X+dx, b.Y+dy
		if (axis == AxisY || axis == AxisXY) && (y < 0 || y > Height-1) {
			return true
		}
		if (axis == AxisX || axis == AxisXY) && (x < 0 || x > Width-1) {
			return true
		}
		if occupied(static, x, y) {
			return true
		}
	}
	return false
}

func occupied(static []Block, x, y int) bool {
	return slices.ContainsFunc(static, func(s Block) bool { return s.X == x && s.Y == y })
}

// overlaps reports whether any block of the tetromino sits on a static block.
// That only happens when a new tetromino spawns on top of the stack.
func overlaps(t Tetromino, static []Block) bool {
	for _, b := range t.Blocks {
		if occupied(static, b.X, b.Y) {
			return true
		}
	}
	return false
}

// handleDown moves the tetromino one row down, or settles it into the stack
// when it can't fall any further, and then clears full rows.
func handleDown(s State) State {
	valid := !WillCollide(s.Tetromino, s.StaticBlocks, AxisY, -1)

	switch {
	case overlaps(s.Tetromino, s.StaticBlocks):
		s.GameEnd = true
		s.Highscore = max(s.Score, s.Highscore)
	case valid:
		s.Tetromino = Translate(s.Tetromino, AxisY, -1)
		s.RNG = s.RNG.Next()
	default:
		s.StaticBlocks = slices.Concat(s.StaticBlocks, s.Tetromino.Blocks[:])
		s.Tetromino = s.Next
		s.Next = Spawn(s.BlockCount+4, s.RNG.Scale())
		s.BlockCount += 4
		s.RNG = s.RNG.Next()
	}

	return clearLines(s)
}

// clearLines removes every full row, scores it and shifts the rows above down.
func clearLines(s State) State {
	count := make(map[int]int)
	for _, b := range s.StaticBlocks {
		count[b.Y]++
	}
	var full []int
	for y, n := range count {
		if n == Width {
			full = append(full, y)
		}
	}

	s.ExitBlocks = nil
	s.Score += len(full) * lineScore
	s.Level = LevelFor(s.Score)
	if len(full) == 0 {
		return s
	}

	lowest := slices.Min(full)
	remaining := make([]Block, 0, len(s.StaticBlocks))
	for _, b := range s.StaticBlocks {
		if slices.Contains(full, b.Y) {
			s.ExitBlocks = append(s.ExitBlocks, b)
			continue
		}
		if b.Y > lowest {
			below := 0
			for _, y := range full {
				if y < b.Y {
					below++
				}
			}
			b.Y -= below
		}
		remaining = append(remaining, b)
	}
	s.StaticBlocks = remaining
	return s
}
