package tetris

// Vec is a 2D integer offset used by the rotation kick tables.
type Vec struct {
	X, Y int
}

func (v Vec) Add(o Vec) Vec { return Vec{v.X + o.X, v.Y + o.Y} }
func (v Vec) Sub(o Vec) Vec { return Vec{v.X - o.X, v.Y - o.Y} }
