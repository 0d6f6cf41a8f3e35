package terminal

import (
	"context"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"

	"tetrisfold/tetris"
)

// spectatorMessage is the wire shape of server.Message. Keep both in sync.
type spectatorMessage struct {
	SessionID string       `json:"session_id"`
	Event     string       `json:"event"`
	State     tetris.State `json:"state"`
}

// Watch follows a session from the server's spectator endpoint, url being the
// full websocket address including the session parameter. It draws every
// state until ctx is done or the server closes the connection.
func Watch(ctx context.Context, url string, r *Renderer) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("unable to connect to %s: %w", url, err)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	r.Lobby("waiting for the game...")
	for {
		var m spectatorMessage
		if err := conn.ReadJSON(&m); err != nil {
			var closeErr *websocket.CloseError
			if ctx.Err() != nil || errors.As(err, &closeErr) {
				return nil
			}
			return fmt.Errorf("unable to read state: %w", err)
		}
		r.State(m.State)
	}
}
