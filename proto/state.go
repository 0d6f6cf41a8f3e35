package proto

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"google.golang.org/protobuf/types/known/structpb"

	"tetrisfold/tetris"
)

var (
	ErrInvalidAction  = errors.New("invalid action")
	ErrInvalidState   = errors.New("invalid state")
	ErrInvalidSession = errors.New("invalid session message")
)

// SessionMessage returns the first message of a Play stream.
func SessionMessage(id string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"session_id": structpb.NewStringValue(id),
	}}
}

// SessionID extracts the session ID from the first message of a Play stream.
func SessionID(st *structpb.Struct) (string, error) {
	id := st.GetFields()["session_id"].GetStringValue()
	if id == "" {
		return "", ErrInvalidSession
	}
	return id, nil
}

// ActionToStruct encodes an action as {"kind": ..., <payload>}.
func ActionToStruct(a tetris.Action) (*structpb.Struct, error) {
	fields := map[string]any{"kind": tetris.ActionName(a)}
	switch a := a.(type) {
	case tetris.MoveX:
		fields["amount"] = a.Amount
	case tetris.MoveY:
		fields["amount"] = a.Amount
	case tetris.Tick:
		fields["elapsed"] = a.Elapsed
	case tetris.Rotate, tetris.Restart:
	default:
		return nil, fmt.Errorf("%w: %T", ErrInvalidAction, a)
	}
	return structpb.NewStruct(fields)
}

// StructToAction decodes an action encoded by ActionToStruct.
func StructToAction(st *structpb.Struct) (tetris.Action, error) {
	f := st.GetFields()
	kind := f["kind"].GetStringValue()
	switch kind {
	case "move_x":
		n, err := integer(f, "amount")
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidAction, err)
		}
		return tetris.MoveX{Amount: n}, nil
	case "move_y":
		n, err := integer(f, "amount")
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidAction, err)
		}
		return tetris.MoveY{Amount: n}, nil
	case "tick":
		n, err := integer(f, "elapsed")
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidAction, err)
		}
		return tetris.Tick{Elapsed: n}, nil
	case "rotate":
		return tetris.Rotate{}, nil
	case "restart":
		return tetris.Restart{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidAction, kind)
	}
}

// StateToStruct encodes a state. Seeds are sent as decimal strings because
// struct numbers are doubles and can't hold every int64.
func StateToStruct(s tetris.State) (*structpb.Struct, error) {
	st, err := structpb.NewStruct(map[string]any{
		"game_end":      s.GameEnd,
		"tetromino":     tetrominoToMap(s.Tetromino),
		"next":          tetrominoToMap(s.Next),
		"static_blocks": blocksToList(s.StaticBlocks),
		"exit_blocks":   blocksToList(s.ExitBlocks),
		"block_count":   s.BlockCount,
		"level":         s.Level,
		"score":         s.Score,
		"highscore":     s.Highscore,
		"rng_seed":      strconv.FormatInt(s.RNG.Seed, 10),
		"seed":          strconv.FormatInt(s.Seed, 10),
	})
	if err != nil {
		return nil, fmt.Errorf("unable to encode state: %w", err)
	}
	return st, nil
}

// StructToState decodes a state encoded by StateToStruct.
func StructToState(st *structpb.Struct) (tetris.State, error) {
	d := &decoder{}
	f := st.GetFields()
	s := tetris.State{
		GameEnd:      d.boolean(f, "game_end"),
		Tetromino:    d.tetromino(f, "tetromino"),
		Next:         d.tetromino(f, "next"),
		StaticBlocks: d.blocks(f, "static_blocks"),
		ExitBlocks:   d.blocks(f, "exit_blocks"),
		BlockCount:   d.integer(f, "block_count"),
		Level:        d.integer(f, "level"),
		Score:        d.integer(f, "score"),
		Highscore:    d.integer(f, "highscore"),
		RNG:          tetris.NewRNG(d.decimal(f, "rng_seed")),
		Seed:         d.decimal(f, "seed"),
	}
	if d.err != nil {
		return tetris.State{}, fmt.Errorf("%w: %w", ErrInvalidState, d.err)
	}
	return s, nil
}

func blockToMap(b tetris.Block) map[string]any {
	return map[string]any{"id": b.ID, "x": b.X, "y": b.Y, "color": string(b.Color)}
}

func blocksToList(blocks []tetris.Block) []any {
	list := make([]any, len(blocks))
	for i, b := range blocks {
		list[i] = blockToMap(b)
	}
	return list
}

func tetrominoToMap(t tetris.Tetromino) map[string]any {
	return map[string]any{
		"shape":    string(t.Shape),
		"blocks":   blocksToList(t.Blocks[:]),
		"rotation": t.Rotation,
		"pivot":    blockToMap(t.Pivot),
	}
}

func integer(f map[string]*structpb.Value, key string) (int, error) {
	v, ok := f[key].GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("field %q is not a number", key)
	}
	n := v.NumberValue
	if math.IsNaN(n) || n != math.Trunc(n) || n < math.MinInt32 || n > math.MaxInt32 {
		return 0, fmt.Errorf("field %q is not an integer: %v", key, n)
	}
	return int(n), nil
}

// decoder keeps the first error found while walking a struct so the caller
// can check once at the end.
type decoder struct {
	err error
}

func (d *decoder) fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

func (d *decoder) integer(f map[string]*structpb.Value, key string) int {
	n, err := integer(f, key)
	if err != nil {
		d.fail(err)
	}
	return n
}

func (d *decoder) decimal(f map[string]*structpb.Value, key string) int64 {
	n, err := strconv.ParseInt(f[key].GetStringValue(), 10, 64)
	if err != nil {
		d.fail(fmt.Errorf("field %q: %w", key, err))
	}
	return n
}

func (d *decoder) boolean(f map[string]*structpb.Value, key string) bool {
	v, ok := f[key].GetKind().(*structpb.Value_BoolValue)
	if !ok {
		d.fail(fmt.Errorf("field %q is not a bool", key))
		return false
	}
	return v.BoolValue
}

func (d *decoder) block(v *structpb.Value) tetris.Block {
	f := v.GetStructValue().GetFields()
	return tetris.Block{
		ID:    d.integer(f, "id"),
		X:     d.integer(f, "x"),
		Y:     d.integer(f, "y"),
		Color: tetris.Color(f["color"].GetStringValue()),
	}
}

func (d *decoder) blocks(f map[string]*structpb.Value, key string) []tetris.Block {
	values := f[key].GetListValue().GetValues()
	if len(values) == 0 {
		return nil
	}
	blocks := make([]tetris.Block, len(values))
	for i, v := range values {
		blocks[i] = d.block(v)
	}
	return blocks
}

func (d *decoder) tetromino(f map[string]*structpb.Value, key string) tetris.Tetromino {
	tf := f[key].GetStructValue().GetFields()
	t := tetris.Tetromino{
		Shape:    tetris.Shape(tf["shape"].GetStringValue()),
		Rotation: d.integer(tf, "rotation"),
		Pivot:    d.block(tf["pivot"]),
	}
	values := tf["blocks"].GetListValue().GetValues()
	if len(values) != len(t.Blocks) {
		d.fail(fmt.Errorf("field %q: want %d blocks, got %d", key, len(t.Blocks), len(values)))
		return t
	}
	for i, v := range values {
		t.Blocks[i] = d.block(v)
	}
	return t
}
