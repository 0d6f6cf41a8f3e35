package client

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/eiannone/keyboard"

	"tetrisfold/terminal"
	"tetrisfold/tetris"
)

const connectTimeout = 5 * time.Second

var welcome = []string{"Welcome to Terminal Tetris", "", "(p)lay   (o)nline   (q)uit"}

type tetrisGame interface {
	Start()
	Stop()
	Action(tetris.Action)
	Updates() <-chan tetris.State
}

type renderer interface {
	State(tetris.State)
	Lobby(lines ...string)
}

type Options struct {
	// Address of the game server used for online play.
	Address string
	// Seed for local games. 0 picks a time based seed.
	Seed int64
}

type Client struct {
	render  renderer
	options *Options
	logger  *slog.Logger
	kbCh    <-chan keyboard.KeyEvent

	newLocal  func() tetrisGame
	newRemote func(context.Context) (tetrisGame, error)

	mu   sync.Mutex
	game tetrisGame
}

// New opens the keyboard and returns a client drawing on stdout. Close must be
// called to give the terminal back.
func New(l *slog.Logger, o *Options) (*Client, error) {
	r, err := terminal.New(os.Stdout, l)
	if err != nil {
		return nil, fmt.Errorf("failed to load renderer: %w", err)
	}
	kb, err := keyboard.GetKeys(20)
	if err != nil {
		return nil, fmt.Errorf("failed to open keyboard: %w", err)
	}
	c := &Client{
		render:  r,
		options: o,
		logger:  l,
		kbCh:    kb,
	}
	c.newLocal = func() tetrisGame {
		seed := o.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		return tetris.NewGame(seed, l)
	}
	c.newRemote = func(ctx context.Context) (tetrisGame, error) {
		r := NewRemoteGame(o.Address, l)
		if err := r.Connect(ctx); err != nil {
			return nil, err
		}
		return r, nil
	}
	return c, nil
}

// Start shows the lobby and handles the keyboard until the user quits.
func (c *Client) Start() {
	c.render.Lobby(welcome...)
	c.listenKB()
	if g := c.current(); g != nil {
		g.Stop()
	}
}

func (c *Client) Close() error {
	return keyboard.Close()
}

func (c *Client) listenKB() {
	for {
		event, ok := <-c.kbCh
		if !ok {
			c.logger.Error("keyboard events channel closed unexpectedly")
			return
		}
		if event.Err != nil {
			c.logger.Error("keysEvents error", slog.String("error", event.Err.Error()))
			return
		}
		if event.Key == keyboard.KeyCtrlC {
			return
		}

		g := c.current()
		if g == nil {
			switch event.Rune {
			case 'p':
				c.play(c.newLocal())
			case 'o':
				c.render.Lobby("connecting to server...")
				ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
				r, err := c.newRemote(ctx)
				cancel()
				if err != nil {
					c.logger.Error("unable to start online game", slog.String("error", err.Error()))
					c.render.Lobby("something went wrong :(", "", "(p)lay   (o)nline   (q)uit")
					continue
				}
				c.play(r)
			case 'q':
				return
			}
			continue
		}

		if event.Rune == 'q' {
			g.Stop()
			continue
		}
		if a, ok := keyAction(event); ok {
			g.Action(a)
		}
	}
}

// play starts g and renders its states until its updates end.
func (c *Client) play(g tetrisGame) {
	c.mu.Lock()
	c.game = g
	c.mu.Unlock()

	go g.Start()
	go func() {
		for s := range g.Updates() {
			c.render.State(s)
		}
		c.mu.Lock()
		if c.game == g {
			c.game = nil
		}
		c.mu.Unlock()
		c.render.Lobby(welcome...)
	}()
}

func (c *Client) current() tetrisGame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.game
}

func keyAction(event keyboard.KeyEvent) (tetris.Action, bool) {
	switch {
	case event.Key == keyboard.KeyArrowLeft || event.Rune == 'a':
		return tetris.MoveX{Amount: -1}, true
	case event.Key == keyboard.KeyArrowRight || event.Rune == 'd':
		return tetris.MoveX{Amount: 1}, true
	case event.Key == keyboard.KeyArrowDown || event.Rune == 's':
		return tetris.MoveY{Amount: -1}, true
	case event.Key == keyboard.KeyArrowUp || event.Rune == 'w':
		return tetris.Rotate{}, true
	case event.Rune == 't':
		return tetris.Restart{}, true
	default:
		return nil, false
	}
}
