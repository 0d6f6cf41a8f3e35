package tetris

import "fmt"

// Shape is the kind of a tetromino.
type Shape string

const (
	O Shape = "O"
	I Shape = "I"
	J Shape = "J"
	L Shape = "L"
	S Shape = "S"
	Z Shape = "Z"
	T Shape = "T"
)

// Shapes lists every kind in catalog order. The RNG scale indexes into it.
var Shapes = [7]Shape{O, I, J, L, S, Z, T}

// Color is the color tag shared by the blocks of a tetromino.
type Color string

const (
	Yellow Color = "yellow"
	Aqua   Color = "aqua"
	Blue   Color = "blue"
	Orange Color = "orange"
	Lime   Color = "lime"
	Red    Color = "red"
	Violet Color = "violet"
)

// Block is a single cell of the playfield. Blocks are compared by ID, the
// coordinates change as the piece moves.
type Block struct {
	ID    int   `json:"id"`
	X     int   `json:"x"`
	Y     int   `json:"y"`
	Color Color `json:"color"`
}

// Tetromino is the active (or preview) piece. Pivot always carries the same ID
// as Blocks[0].
type Tetromino struct {
	Shape    Shape    `json:"shape"`
	Blocks   [4]Block `json:"blocks"`
	Rotation int      `json:"rotation"`
	Pivot    Block    `json:"pivot"`
}

type spawnLayout struct {
	color Color
	cells [4][2]int
}

/*
.	Spawn Locations (blocks[0] is marked P)

.	  0 1 2 3 4 5 6 7 8 9			  0 1 2 3 4 5 6 7 8 9
O	19	X X X X O O X X X X		I	19	X X X O P O O X X X
.	18	X X X X P O X X X X

J	19	X X X X O X X X X X		L	19	X X X X X X O X X X
.	18	X X X X O P O X X X		.	18	X X X X O P O X X X

S	19	X X X X X O O X X X		Z	19	X X X X O O X X X X
.	18	X X X X O P X X X X		.	18	X X X X X P O X X X

T	19	X X X X X O X X X X
.	18	X X X X O P O X X X
*/
var catalog = map[Shape]spawnLayout{
	O: {Yellow, [4][2]int{{4, 18}, {5, 18}, {4, 19}, {5, 19}}},
	I: {Aqua, [4][2]int{{4, 19}, {3, 19}, {5, 19}, {6, 19}}},
	J: {Blue, [4][2]int{{5, 18}, {4, 19}, {4, 18}, {6, 18}}},
	L: {Orange, [4][2]int{{5, 18}, {4, 18}, {6, 18}, {6, 19}}},
	S: {Lime, [4][2]int{{5, 18}, {4, 18}, {5, 19}, {6, 19}}},
	Z: {Red, [4][2]int{{5, 18}, {4, 19}, {5, 19}, {6, 18}}},
	T: {Violet, [4][2]int{{5, 18}, {4, 18}, {5, 19}, {6, 18}}},
}

// Spawn returns the tetromino at catalog index kind, with block IDs numbered
// from startID. kind must be in [0, 6].
func Spawn(startID, kind int) Tetromino {
	if kind < 0 || kind >= len(Shapes) {
		panic(fmt.Sprintf("tetris: spawn kind %d out of range", kind))
	}
	shape := Shapes[kind]
	layout := catalog[shape]

	t := Tetromino{Shape: shape}
	for i, c := range layout.cells {
		t.Blocks[i] = Block{ID: startID + i, X: c[0], Y: c[1], Color: layout.color}
	}
	t.Pivot = t.Blocks[0]
	return t
}

// Translate moves every block, and the pivot, by amount on the given axis.
// X is clamped into the playfield, Y is only clamped at the floor. It doesn't
// check for collisions: callers do that with WillCollide first.
func Translate(t Tetromino, axis Axis, amount int) Tetromino {
	move := func(b Block) Block {
		if axis == AxisX || axis == AxisXY {
			b.X = clamp(b.X+amount, 0, Width-1)
		}
		if axis == AxisY || axis == AxisXY {
			b.Y = max(b.Y+amount, 0)
		}
		return b
	}
	for i := range t.Blocks {
		t.Blocks[i] = move(t.Blocks[i])
	}
	t.Pivot = move(t.Pivot)
	return t
}

// RotateClockwise rotates the tetromino around its pivot and resolves wall
// kicks against the offset table of its shape. The first candidate that fits
// wins. If none fits the tetromino is returned unchanged.
func RotateClockwise(t Tetromino, static []Block) Tetromino {
	rotated := t
	for i, b := range t.Blocks {
		rx, ry := b.X-t.Pivot.X, b.Y-t.Pivot.Y
		rotated.Blocks[i].X = ry + t.Pivot.X
		rotated.Blocks[i].Y = -rx + t.Pivot.Y
	}

	from := t.Rotation
	to := (t.Rotation + 1) % 4
	for _, row := range offsets(t.Shape) {
		kick := row[from].Sub(row[to])
		candidate := rotated
		for i := range candidate.Blocks {
			candidate.Blocks[i].X += kick.X
			candidate.Blocks[i].Y += kick.Y
		}
		if !WillCollide(candidate, static, AxisXY, 0) {
			candidate.Rotation = to
			candidate.Pivot = candidate.Blocks[0]
			return candidate
		}
	}
	return t
}

// offsets returns the kick table for the shape. Each row holds one offset per
// rotation state; the row order is the kick priority.
func offsets(s Shape) [][4]Vec {
	switch s {
	case O:
		return offsetO
	case I:
		return offsetI
	default:
		return offsetAll
	}
}

var offsetO = [][4]Vec{
	{{0, 0}, {0, -1}, {-1, -1}, {-1, 0}},
}

var offsetI = [][4]Vec{
	{{0, 0}, {-1, 0}, {-1, 1}, {0, 1}},
	{{-1, 0}, {0, 0}, {1, -1}, {0, 1}},
	{{2, 0}, {0, 0}, {-2, 1}, {0, 1}},
	{{-1, 0}, {0, 1}, {1, 0}, {0, -1}},
	{{2, 0}, {0, -2}, {-2, 0}, {0, 2}},
}

var offsetAll = [][4]Vec{
	{{0, 0}, {0, 0}, {0, 0}, {0, 0}},
	{{0, 0}, {1, 0}, {0, 0}, {-1, 0}},
	{{0, 0}, {1, -1}, {0, 0}, {-1, -1}},
	{{0, 0}, {0, 2}, {0, 0}, {0, 2}},
	{{0, 0}, {1, 2}, {0, 0}, {-1, 2}},
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
