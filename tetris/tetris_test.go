package tetris

import (
	"fmt"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var sortBlocks = cmpopts.SortSlices(func(a, b Block) bool { return a.ID < b.ID })

func TestRNG(t *testing.T) {
	tests := []struct {
		name      string
		seed      int64
		wantHash  int64
		wantScale int
	}{
		{name: "zero seed", seed: 0, wantHash: 12345, wantScale: 4},
		{name: "second step", seed: 12345, wantHash: 1406932606, wantScale: 2},
		{name: "third step", seed: 1406932606, wantHash: 654583775, wantScale: 6},
		{name: "arbitrary seed", seed: 42, wantHash: 1250496027, wantScale: 4},
		{name: "negative seed wraps into range", seed: -1, wantHash: 1043980748, wantScale: 1043980748 % 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := NewRNG(tt.seed)
			if got := r.Hash(); got != tt.wantHash {
				t.Errorf("wanted hash %d, got %d", tt.wantHash, got)
			}
			if got := r.Scale(); got != tt.wantScale {
				t.Errorf("wanted scale %d, got %d", tt.wantScale, got)
			}
			if got := r.Next().Seed; got != tt.wantHash {
				t.Errorf("wanted next seed %d, got %d", tt.wantHash, got)
			}
			if r.Seed != tt.seed {
				t.Errorf("Next() modified the receiver: seed %d, got %d", tt.seed, r.Seed)
			}
		})
	}
}

func TestSpawn(t *testing.T) {
	for kind, shape := range Shapes {
		t.Run(string(shape), func(t *testing.T) {
			t.Parallel()
			tt := Spawn(100, kind)
			if tt.Shape != shape {
				t.Errorf("wanted shape %s, got %s", shape, tt.Shape)
			}
			if tt.Rotation != 0 {
				t.Errorf("wanted rotation 0, got %d", tt.Rotation)
			}
			if tt.Pivot != tt.Blocks[0] {
				t.Errorf("wanted pivot %v to be the first block %v", tt.Pivot, tt.Blocks[0])
			}
			for i, b := range tt.Blocks {
				if b.ID != 100+i {
					t.Errorf("wanted block %d to have ID %d, got %d", i, 100+i, b.ID)
				}
				if b.Color != tt.Blocks[0].Color {
					t.Errorf("wanted all blocks to share color %s, got %s", tt.Blocks[0].Color, b.Color)
				}
				if b.X < 0 || b.X >= Width || b.Y < Height-2 || b.Y >= Height {
					t.Errorf("block %v spawned outside the top two rows", b)
				}
			}
		})
	}

	t.Run("O spawn coordinates", func(t *testing.T) {
		want := [4]Block{
			{ID: 0, X: 4, Y: 18, Color: Yellow},
			{ID: 1, X: 5, Y: 18, Color: Yellow},
			{ID: 2, X: 4, Y: 19, Color: Yellow},
			{ID: 3, X: 5, Y: 19, Color: Yellow},
		}
		if diff := cmp.Diff(want, Spawn(0, 0).Blocks); diff != "" {
			t.Errorf("Spawn(0, 0) mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("out of range kind panics", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Errorf("expected Spawn to panic")
			}
		}()
		Spawn(0, 7)
	})
}

func TestWillCollide(t *testing.T) {
	// 		0 1 2 3 4 5 6 7 8 9
	// 19	X X X X X O X X X X
	// 18	X X X X O O O C X X
	// 17	X X X X X C X X X X
	tests := []struct {
		name          string
		axis          Axis
		amount        int
		static        []Block
		wantCollision bool
	}{
		{name: "no collision", axis: AxisXY},
		{name: "left edge", axis: AxisX, amount: -4},
		{name: "left bound collision", axis: AxisX, amount: -5, wantCollision: true},
		{name: "right edge", axis: AxisX, amount: 3},
		{name: "right bound collision", axis: AxisX, amount: 4, wantCollision: true},
		{name: "upper bound collision", axis: AxisY, amount: 1, wantCollision: true},
		{name: "floor", axis: AxisY, amount: -18},
		{name: "bottom bound collision", axis: AxisY, amount: -19, wantCollision: true},
		{
			name:          "stack collision below",
			axis:          AxisY,
			amount:        -1,
			static:        []Block{{ID: 50, X: 5, Y: 17}},
			wantCollision: true,
		},
		{
			name:          "stack collision on the right",
			axis:          AxisX,
			amount:        1,
			static:        []Block{{ID: 50, X: 7, Y: 18}},
			wantCollision: true,
		},
		{
			name:   "x movement ignores blocks below",
			axis:   AxisX,
			amount: 1,
			static: []Block{{ID: 50, X: 5, Y: 17}},
		},
		{
			name:          "overlap at current position",
			axis:          AxisXY,
			static:        []Block{{ID: 50, X: 4, Y: 18}},
			wantCollision: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := WillCollide(Spawn(0, 6), tt.static, tt.axis, tt.amount)
			if c != tt.wantCollision {
				t.Errorf("wanted collision %t, got %t", tt.wantCollision, c)
			}
		})
	}
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		name   string
		axis   Axis
		amount int
		wantX  [4]int
		wantY  [4]int
	}{
		{name: "left", axis: AxisX, amount: -1, wantX: [4]int{4, 3, 4, 5}, wantY: [4]int{18, 18, 19, 18}},
		{name: "down", axis: AxisY, amount: -1, wantX: [4]int{5, 4, 5, 6}, wantY: [4]int{17, 17, 18, 17}},
		{name: "x clamps at the left wall", axis: AxisX, amount: -5, wantX: [4]int{0, 0, 0, 1}, wantY: [4]int{18, 18, 19, 18}},
		{name: "x clamps at the right wall", axis: AxisX, amount: 4, wantX: [4]int{9, 8, 9, 9}, wantY: [4]int{18, 18, 19, 18}},
		{name: "y clamps at the floor", axis: AxisY, amount: -19, wantX: [4]int{5, 4, 5, 6}, wantY: [4]int{0, 0, 0, 0}},
		{name: "y is not clamped at the top", axis: AxisY, amount: 5, wantX: [4]int{5, 4, 5, 6}, wantY: [4]int{23, 23, 24, 23}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			before := Spawn(0, 6)
			got := Translate(before, tt.axis, tt.amount)
			for i, b := range got.Blocks {
				if b.X != tt.wantX[i] || b.Y != tt.wantY[i] {
					t.Errorf("block %d: wanted (%d, %d), got (%d, %d)", i, tt.wantX[i], tt.wantY[i], b.X, b.Y)
				}
				if b.ID != before.Blocks[i].ID {
					t.Errorf("block %d changed ID from %d to %d", i, before.Blocks[i].ID, b.ID)
				}
			}
			if got.Pivot != got.Blocks[0] {
				t.Errorf("wanted pivot %v to follow the first block %v", got.Pivot, got.Blocks[0])
			}
			if before.Blocks[0].X != 5 || before.Blocks[0].Y != 18 {
				t.Errorf("Translate modified its input")
			}
		})
	}
}

func TestCollisionMatchesTranslate(t *testing.T) {
	static := slices.Concat(Row(100, 0, 3), []Block{{ID: 200, X: 2, Y: 5}, {ID: 201, X: 7, Y: 9}})
	for kind, shape := range Shapes {
		for _, axis := range []Axis{AxisX, AxisY} {
			for amount := -19; amount <= 9; amount++ {
				piece := Spawn(0, kind)
				if WillCollide(piece, static, axis, amount) {
					continue
				}
				t.Run(fmt.Sprintf("%s %s %d", shape, axis, amount), func(t *testing.T) {
					moved := Translate(piece, axis, amount)
					if WillCollide(moved, static, axis, 0) {
						t.Errorf("translated tetromino %v collides", moved.Blocks)
					}
				})
			}
		}
	}
}

func TestRotateClockwise(t *testing.T) {
	tests := []struct {
		name         string
		tetromino    Tetromino
		static       []Block
		wantCells    [][2]int
		wantRotation int
	}{
		{
			name: "T rotates in place",
			// .	3 4 5 6 7		.	3 4 5 6 7
			// 19	. . O . .		19	. . O . .
			// 18	. O P O .	>	18	. . P O .
			// 17	. . . . .		17	. . O . .
			tetromino:    Spawn(0, 6),
			wantCells:    [][2]int{{5, 18}, {5, 19}, {6, 18}, {5, 17}},
			wantRotation: 1,
		},
		{
			name: "T kicks left when the rotation is blocked, test 2 (-1, 0)",
			// .	3 4 5 6 7		.	3 4 5 6 7
			// 19	. . O . .		19	. O . . .
			// 18	. O P O .	>	18	. P O . .
			// 17	. . X . .		17	. O X . .
			tetromino:    Spawn(0, 6),
			static:       []Block{{ID: 50, X: 5, Y: 17}},
			wantCells:    [][2]int{{4, 18}, {4, 19}, {5, 18}, {4, 17}},
			wantRotation: 1,
		},
		{
			name:         "T doesn't rotate when every kick is blocked",
			tetromino:    Spawn(0, 6),
			static:       []Block{{ID: 50, X: 5, Y: 17}, {ID: 51, X: 4, Y: 17}},
			wantCells:    [][2]int{{5, 18}, {4, 18}, {5, 19}, {6, 18}},
			wantRotation: 0,
		},
		{
			name:         "O keeps its cells",
			tetromino:    Spawn(0, 0),
			wantCells:    [][2]int{{4, 19}, {4, 18}, {5, 19}, {5, 18}},
			wantRotation: 1,
		},
		{
			name: "I at the ceiling kicks down, test 4 (-1, -1)",
			// .	2 3 4 5 6 7		.	2 3 4 5 6 7
			// 19	. O P O O .		19	. O . . . .
			// 18	. . . . . .	>	18	. P . . . .
			// 17	. . . . . .		17	. O . . . .
			// 16	. . . . . .		16	. O . . . .
			tetromino:    Spawn(0, 1),
			wantCells:    [][2]int{{3, 18}, {3, 19}, {3, 17}, {3, 16}},
			wantRotation: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := RotateClockwise(tt.tetromino, tt.static)
			var cells [][2]int
			for i, b := range got.Blocks {
				cells = append(cells, [2]int{b.X, b.Y})
				if b.ID != tt.tetromino.Blocks[i].ID {
					t.Errorf("block %d changed ID from %d to %d", i, tt.tetromino.Blocks[i].ID, b.ID)
				}
			}
			if diff := cmp.Diff(tt.wantCells, cells); diff != "" {
				t.Errorf("cells mismatch (-want +got):\n%s", diff)
			}
			if got.Rotation != tt.wantRotation {
				t.Errorf("wanted rotation %d, got %d", tt.wantRotation, got.Rotation)
			}
			if got.Pivot != got.Blocks[0] {
				t.Errorf("wanted pivot %v to be the first block %v", got.Pivot, got.Blocks[0])
			}
		})
	}
}

func TestRotateFourTimes(t *testing.T) {
	for kind, shape := range Shapes {
		t.Run(string(shape), func(t *testing.T) {
			t.Parallel()
			start := Translate(Spawn(0, kind), AxisY, -10)
			got := start
			for i := range 4 {
				got = RotateClockwise(got, nil)
				if got.Rotation != (i+1)%4 {
					t.Errorf("after %d rotations wanted state %d, got %d", i+1, (i+1)%4, got.Rotation)
				}
			}
			if diff := cmp.Diff(start, got); diff != "" {
				t.Errorf("four rotations mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestClearLines(t *testing.T) {
	tests := []struct {
		name       string
		static     []Block
		score      int
		wantStatic []Block
		wantExit   int
		wantScore  int
		wantLevel  int
	}{
		{
			name:       "no full rows",
			static:     Row(100, 0, 9),
			wantStatic: Row(100, 0, 9),
			wantLevel:  1,
		},
		{
			name:      "single row on the floor",
			static:    Row(100, 0),
			wantExit:  10,
			wantScore: 100,
			wantLevel: 1,
		},
		{
			name:       "rows above drop by one",
			static:     slices.Concat(Row(100, 0), []Block{{ID: 200, X: 3, Y: 1}, {ID: 201, X: 3, Y: 2}}),
			wantStatic: []Block{{ID: 200, X: 3, Y: 0}, {ID: 201, X: 3, Y: 1}},
			wantExit:   10,
			wantScore:  100,
			wantLevel:  1,
		},
		{
			name: "two separated rows drop each block by the rows below it",
			// 3	. . . X . . . . . .		.
			// 2	X X X X X X X X X X		.
			// 1	X . . . . . . . . .	>	1	. . . X . . . . . .
			// 0	X X X X X X X X X X		0	X . . . . . . . . .
			static: slices.Concat(
				Row(100, 0),
				[]Block{{ID: 200, X: 0, Y: 1}},
				Row(300, 2),
				[]Block{{ID: 400, X: 3, Y: 3}},
			),
			score:      150,
			wantStatic: []Block{{ID: 200, X: 0, Y: 0}, {ID: 400, X: 3, Y: 1}},
			wantExit:   20,
			wantScore:  350,
			wantLevel:  2,
		},
		{
			name:       "blocks below the lowest cleared row stay",
			static:     slices.Concat([]Block{{ID: 200, X: 1, Y: 0}}, Row(100, 1), []Block{{ID: 201, X: 1, Y: 2}}),
			wantStatic: []Block{{ID: 200, X: 1, Y: 0}, {ID: 201, X: 1, Y: 1}},
			wantExit:   10,
			wantScore:  100,
			wantLevel:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := NewTestState(T)
			s.StaticBlocks = tt.static
			s.Score = tt.score
			s.ExitBlocks = []Block{{ID: 999}}
			got := clearLines(s)

			if diff := cmp.Diff(tt.wantStatic, got.StaticBlocks, sortBlocks, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("static blocks mismatch (-want +got):\n%s", diff)
			}
			if len(got.ExitBlocks) != tt.wantExit {
				t.Errorf("wanted %d exit blocks, got %d", tt.wantExit, len(got.ExitBlocks))
			}
			if got.Score != tt.wantScore {
				t.Errorf("wanted score %d, got %d", tt.wantScore, got.Score)
			}
			if got.Level != tt.wantLevel {
				t.Errorf("wanted level %d, got %d", tt.wantLevel, got.Level)
			}
			if len(s.StaticBlocks) != len(tt.static) {
				t.Errorf("clearLines modified its input")
			}
		})
	}
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		score, want int
	}{
		{0, 1}, {200, 1}, {201, 2}, {500, 2}, {501, 3}, {900, 3}, {901, 4}, {1400, 4}, {1401, 5}, {100000, 5},
	}
	for _, tt := range tests {
		if got := LevelFor(tt.score); got != tt.want {
			t.Errorf("LevelFor(%d): wanted %d, got %d", tt.score, tt.want, got)
		}
	}

	prev := LevelFor(0)
	for score := 0; score <= 2000; score += 50 {
		l := LevelFor(score)
		if l < prev {
			t.Errorf("level decreased from %d to %d at score %d", prev, l, score)
		}
		prev = l
	}
}

func TestFallInterval(t *testing.T) {
	want := map[int]int{1: 20, 2: 16, 3: 12, 4: 8, 5: 4}
	for level, interval := range want {
		if got := FallInterval(level); got != interval {
			t.Errorf("FallInterval(%d): wanted %d, got %d", level, interval, got)
		}
	}
}

func TestInitialState(t *testing.T) {
	s := InitialState(0)
	// seed 0 scales to 4 (S), the next seed to 2 (J).
	if s.Tetromino.Shape != S {
		t.Errorf("wanted first tetromino S, got %s", s.Tetromino.Shape)
	}
	if s.Next.Shape != J {
		t.Errorf("wanted next tetromino J, got %s", s.Next.Shape)
	}
	if s.Next.Blocks[0].ID != 4 {
		t.Errorf("wanted next tetromino IDs to start at 4, got %d", s.Next.Blocks[0].ID)
	}
	if s.BlockCount != 4 || s.Level != 1 || s.Score != 0 || s.GameEnd {
		t.Errorf("unexpected initial counters: %+v", s)
	}
	if s.RNG.Seed != 1406932606 {
		t.Errorf("wanted rng seed 1406932606, got %d", s.RNG.Seed)
	}
}
