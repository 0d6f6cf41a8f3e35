package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"

	"tetrisfold/proto"
	"tetrisfold/tetris"
)

// RemoteGame plays a game running on the server. It has the same surface as
// a local tetris.Game: actions go up the Play stream and states come down.
type RemoteGame struct {
	Addr   string
	Logger *slog.Logger

	conn     *grpc.ClientConn
	stream   proto.PlayClient
	cancel   context.CancelFunc
	updateCh chan tetris.State
	sendMu   sync.Mutex
	stopOnce sync.Once
}

func NewRemoteGame(addr string, l *slog.Logger) *RemoteGame {
	return &RemoteGame{
		Addr:     addr,
		Logger:   l,
		updateCh: make(chan tetris.State),
	}
}

// Connect opens a session on the server and its Play stream. ctx bounds the
// setup only, the stream lives until Stop.
func (r *RemoteGame) Connect(ctx context.Context, opts ...grpc.DialOption) error {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(r.Addr, opts...)
	if err != nil {
		return fmt.Errorf("unable to create gRPC client: %w", err)
	}
	client := proto.NewTetrisServiceClient(conn)

	id, err := client.NewSession(ctx, &emptypb.Empty{})
	if err != nil {
		conn.Close()
		return fmt.Errorf("unable to create session: %w", err)
	}

	streamCtx, cancel := context.WithCancel(context.Background())
	stream, err := client.Play(streamCtx)
	if err != nil {
		cancel()
		conn.Close()
		return fmt.Errorf("unable to open Play stream: %w", err)
	}
	if err := stream.Send(proto.SessionMessage(id.GetValue())); err != nil {
		cancel()
		conn.Close()
		return fmt.Errorf("unable to join session: %w", err)
	}

	r.Logger.Debug("joined remote session", slog.String("session", id.GetValue()))
	r.conn, r.stream, r.cancel = conn, stream, cancel
	return nil
}

// Start receives states until the stream ends, then closes Updates.
func (r *RemoteGame) Start() {
	defer close(r.updateCh)
	if r.stream == nil {
		r.Logger.Error("remote game started without a connection")
		return
	}
	for {
		msg, err := r.stream.Recv()
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				r.Logger.Debug("stream.Recv() closed with EOF")
			case status.Code(err) == codes.Canceled:
				r.Logger.Debug("stream.Recv() closed with Cancel")
			default:
				r.Logger.Error("stream.Recv() unable to receive message", slog.String("error", err.Error()))
			}
			return
		}
		s, err := proto.StructToState(msg)
		if err != nil {
			r.Logger.Error("unable to decode state", slog.String("error", err.Error()))
			return
		}
		r.updateCh <- s
	}
}

func (r *RemoteGame) Action(a tetris.Action) {
	if r.stream == nil {
		return
	}
	msg, err := proto.ActionToStruct(a)
	if err != nil {
		r.Logger.Error("unable to encode action", slog.String("error", err.Error()))
		return
	}
	r.sendMu.Lock()
	defer r.sendMu.Unlock()
	if err := r.stream.Send(msg); err != nil {
		r.Logger.Debug("unable to send action", slog.String("error", err.Error()))
	}
}

func (r *RemoteGame) Updates() <-chan tetris.State {
	return r.updateCh
}

// Stop closes the stream and the connection. Updates is closed once the
// receiving side notices.
func (r *RemoteGame) Stop() {
	r.stopOnce.Do(func() {
		if r.cancel != nil {
			r.cancel()
		}
		if r.conn != nil {
			if err := r.conn.Close(); err != nil {
				r.Logger.Error("unable to close gRPC client", slog.String("error", err.Error()))
			}
		}
	})
}
