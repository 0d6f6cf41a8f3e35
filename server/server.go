package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"tetrisfold/proto"
	"tetrisfold/tetris"
)

// DefaultSessionTTL is how long a session may wait for its player.
const DefaultSessionTTL = time.Minute

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionInUse    = errors.New("session already playing")
)

type Options struct {
	// Seed is used for every new session. 0 picks a time based seed.
	Seed   int64
	Logger *slog.Logger
	// Hub receives every state played on the server. Optional, states are
	// dropped until its Run loop starts.
	Hub *Hub
	// SessionTTL drops sessions nobody played within it. Defaults to
	// DefaultSessionTTL.
	SessionTTL time.Duration
	// NewTicker builds the clock of each session. Defaults to the game clock.
	NewTicker func() tetris.Ticker
}

type session struct {
	game    *tetris.Game
	created time.Time
	playing bool
}

type Server struct {
	proto.UnimplementedTetrisServiceServer

	options  *Options
	logger   *slog.Logger
	sessions map[string]*session
	mu       sync.Mutex
	now      func() time.Time
}

func New(o *Options) *Server {
	if o == nil {
		o = &Options{}
	}
	l := o.Logger
	if l == nil {
		l = slog.Default()
	}
	if o.SessionTTL <= 0 {
		o.SessionTTL = DefaultSessionTTL
	}
	return &Server{
		options:  o,
		logger:   l,
		sessions: make(map[string]*session),
		now:      time.Now,
	}
}

func (s *Server) NewSession(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error) {
	id := uuid.New().String()
	seed := s.options.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	l := s.logger.With(slog.String("session", id))

	var game *tetris.Game
	if s.options.NewTicker != nil {
		game = tetris.NewConfigurableGame(seed, s.options.NewTicker(), l)
	} else {
		game = tetris.NewGame(seed, l)
	}

	s.mu.Lock()
	s.expire()
	s.sessions[id] = &session{game: game, created: s.now()}
	s.mu.Unlock()

	l.Info("session created", slog.Int64("seed", seed))
	return wrapperspb.String(id), nil
}

// Play runs the game of a session. The first message carries the session ID,
// every following one is an action. Each new state is sent back to the
// player and broadcast to the hub.
func (s *Server) Play(stream proto.PlayServer) error {
	first, err := stream.Recv()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	id, err := proto.SessionID(first)
	if err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	game, err := s.claim(id)
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return status.Errorf(codes.NotFound, "session %q not found", id)
	case errors.Is(err, ErrSessionInUse):
		return status.Errorf(codes.FailedPrecondition, "session %q is already playing", id)
	}
	defer s.remove(id)

	l := s.logger.With(slog.String("session", id))
	l.Info("session started")

	recvErr := make(chan error, 1)
	go receive(stream, game, recvErr)
	go game.Start()

	for {
		select {
		case st, ok := <-game.Updates():
			if !ok {
				return nil
			}
			msg, err := proto.StateToStruct(st)
			if err != nil {
				return status.Error(codes.Internal, err.Error())
			}
			if err := stream.Send(msg); err != nil {
				l.Debug("unable to send state", slog.String("error", err.Error()))
				return err
			}
			if s.options.Hub != nil {
				s.options.Hub.Broadcast(id, st)
			}
		case err := <-recvErr:
			if errors.Is(err, io.EOF) || status.Code(err) == codes.Canceled {
				l.Info("session ended")
				return nil
			}
			l.Error("session stream failed", slog.String("error", err.Error()))
			return err
		}
	}
}

// receive forwards the actions of the stream to the game until the stream
// fails or sends an invalid action.
func receive(stream proto.PlayServer, game *tetris.Game, errCh chan<- error) {
	for {
		msg, err := stream.Recv()
		if err != nil {
			errCh <- err
			return
		}
		a, err := proto.StructToAction(msg)
		if err != nil {
			errCh <- status.Error(codes.InvalidArgument, err.Error())
			return
		}
		if _, ok := a.(tetris.Tick); ok {
			errCh <- status.Error(codes.InvalidArgument, "ticks are driven by the server clock")
			return
		}
		game.Action(a)
	}
}

func (s *Server) claim(id string) (*tetris.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expire()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if sess.playing {
		return nil, ErrSessionInUse
	}
	sess.playing = true
	return sess.game, nil
}

// expire drops the sessions that were never played within SessionTTL. It must
// be called with s.mu held.
func (s *Server) expire() {
	deadline := s.now().Add(-s.options.SessionTTL)
	for id, sess := range s.sessions {
		if sess.playing || sess.created.After(deadline) {
			continue
		}
		sess.game.Stop()
		delete(s.sessions, id)
		s.logger.Info("session expired", slog.String("session", id))
	}
}

func (s *Server) remove(id string) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if ok {
		sess.game.Stop()
	}
}

// Sessions returns the number of open sessions.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Close stops every session game.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		sess.game.Stop()
		delete(s.sessions, id)
	}
}
