package proto

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"

	"tetrisfold/tetris"
)

func TestStateRoundTrip(t *testing.T) {
	s := tetris.InitialState(math.MaxInt64)
	s = tetris.Apply(tetris.Rotate{}, s)
	s.StaticBlocks = tetris.Row(100, 0, 4)
	s.ExitBlocks = tetris.Row(200, 1)
	s.Score = 300
	s.Highscore = 1200
	s.Level = tetris.LevelFor(s.Score)
	s.GameEnd = true

	st, err := StateToStruct(s)
	require.NoError(t, err)
	assert.Equal(t, "9223372036854775807", st.GetFields()["seed"].GetStringValue())

	got, err := StructToState(st)
	require.NoError(t, err)
	if diff := cmp.Diff(s, got); diff != "" {
		t.Errorf("state mismatch (-want +got):\n%s", diff)
	}
}

func TestStructToStateErrors(t *testing.T) {
	valid, err := StateToStruct(tetris.InitialState(3))
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(f map[string]*structpb.Value)
	}{
		{name: "missing level", mutate: func(f map[string]*structpb.Value) { delete(f, "level") }},
		{name: "seed is not a decimal", mutate: func(f map[string]*structpb.Value) { f["seed"] = structpb.NewStringValue("x") }},
		{name: "fractional score", mutate: func(f map[string]*structpb.Value) { f["score"] = structpb.NewNumberValue(100.5) }},
		{name: "game end is not a bool", mutate: func(f map[string]*structpb.Value) { f["game_end"] = structpb.NewNumberValue(1) }},
		{
			name: "tetromino with three blocks",
			mutate: func(f map[string]*structpb.Value) {
				tf := f["tetromino"].GetStructValue().GetFields()
				values := tf["blocks"].GetListValue().GetValues()
				tf["blocks"] = structpb.NewListValue(&structpb.ListValue{Values: values[:3]})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := StateToStruct(tetris.InitialState(3))
			require.NoError(t, err)
			tt.mutate(st.Fields)

			_, err = StructToState(st)
			assert.ErrorIs(t, err, ErrInvalidState)
		})
	}

	_, err = StructToState(valid)
	assert.NoError(t, err)
}

func TestActions(t *testing.T) {
	tests := []struct {
		action tetris.Action
		fields map[string]any
	}{
		{action: tetris.MoveX{Amount: -1}, fields: map[string]any{"kind": "move_x", "amount": float64(-1)}},
		{action: tetris.MoveY{Amount: -1}, fields: map[string]any{"kind": "move_y", "amount": float64(-1)}},
		{action: tetris.Tick{Elapsed: 40}, fields: map[string]any{"kind": "tick", "elapsed": float64(40)}},
		{action: tetris.Rotate{}, fields: map[string]any{"kind": "rotate"}},
		{action: tetris.Restart{}, fields: map[string]any{"kind": "restart"}},
	}

	for _, tt := range tests {
		t.Run(tetris.ActionName(tt.action), func(t *testing.T) {
			t.Parallel()
			st, err := ActionToStruct(tt.action)
			require.NoError(t, err)
			assert.Equal(t, tt.fields, st.AsMap())

			got, err := StructToAction(st)
			require.NoError(t, err)
			assert.Equal(t, tt.action, got)
		})
	}
}

type otherAction struct{ tetris.Action }

func TestInvalidActions(t *testing.T) {
	_, err := ActionToStruct(otherAction{})
	assert.ErrorIs(t, err, ErrInvalidAction)

	tests := map[string]map[string]any{
		"unknown kind":      {"kind": "hard_drop"},
		"missing kind":      {"amount": 1},
		"missing amount":    {"kind": "move_x"},
		"amount as string":  {"kind": "move_y", "amount": "1"},
		"missing elapsed":   {"kind": "tick"},
		"fractional amount": {"kind": "move_x", "amount": 1.5},
		"negative fraction": {"kind": "move_x", "amount": -0.9},
		"NaN amount":        {"kind": "move_x", "amount": math.NaN()},
		"huge amount":       {"kind": "move_y", "amount": 1e30},
		"infinite elapsed":  {"kind": "tick", "elapsed": math.Inf(1)},
	}
	for name, fields := range tests {
		t.Run(name, func(t *testing.T) {
			st, err := structpb.NewStruct(fields)
			require.NoError(t, err)
			_, err = StructToAction(st)
			assert.ErrorIs(t, err, ErrInvalidAction)
		})
	}
}

func TestSessionID(t *testing.T) {
	id, err := SessionID(SessionMessage("abc"))
	require.NoError(t, err)
	assert.Equal(t, "abc", id)

	_, err = SessionID(&structpb.Struct{})
	assert.ErrorIs(t, err, ErrInvalidSession)

	_, err = SessionID(nil)
	assert.ErrorIs(t, err, ErrInvalidSession)
}
