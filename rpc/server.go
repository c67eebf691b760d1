// Package rpc exposes a state handle to remote hosts over Connect RPC. It
// is the network edition of the binding layer: Get and Set mirror the
// engine's read/write contract, and Watch is the remote analogue of
// subscribe, streaming every notification for a path until the caller goes
// away. Payloads are structpb documents, so any JSON-shaped graph crosses
// the wire without generated code.
//
// The engine is single-threaded; the server owns the serialization, taking
// one mutex around every handle access and flushing pending recomputations
// after each write.
package rpc

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/rnx-ui/reactive/state"
)

// Procedure paths served by Handler and dialed by Client.
const (
	ProcedureGet   = "/rnx.state.v1.StateService/Get"
	ProcedureSet   = "/rnx.state.v1.StateService/Set"
	ProcedureWatch = "/rnx.state.v1.StateService/Watch"
)

const defaultWatchBuffer = 16

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger overrides the server's logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithWatchBuffer sets the per-watch update buffer. A watcher that falls
// this far behind starts losing intermediate updates (never the path's
// final value, since later notifications still queue).
func WithWatchBuffer(n int) ServerOption {
	return func(s *Server) {
		if n > 0 {
			s.watchBuffer = n
		}
	}
}

// Server serializes concurrent RPC traffic onto one state handle.
type Server struct {
	mu          sync.Mutex
	handle      *state.Handle
	logger      *slog.Logger
	watchBuffer int
}

// NewServer creates a Server around the given handle. The server assumes
// sole ownership of the handle's call discipline: all other goroutines must
// go through it.
func NewServer(handle *state.Handle, opts ...ServerOption) *Server {
	s := &Server{
		handle:      handle,
		logger:      slog.Default(),
		watchBuffer: defaultWatchBuffer,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the http.Handler serving all three procedures.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(ProcedureGet, connect.NewUnaryHandler(ProcedureGet, s.get))
	mux.Handle(ProcedureSet, connect.NewUnaryHandler(ProcedureSet, s.set))
	mux.Handle(ProcedureWatch, connect.NewServerStreamHandler(ProcedureWatch, s.watch))
	return mux
}

func requestPath(msg *structpb.Struct) (string, error) {
	path := msg.GetFields()["path"].GetStringValue()
	if path == "" {
		return "", connect.NewError(connect.CodeInvalidArgument, errors.New("path is required"))
	}
	return path, nil
}

func (s *Server) get(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	path, err := requestPath(req.Msg)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	value, err := s.handle.Read(path)
	s.mu.Unlock()
	if err != nil {
		return nil, connect.NewError(connect.CodeFailedPrecondition, err)
	}

	pv, err := structpb.NewValue(value)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(&structpb.Struct{
		Fields: map[string]*structpb.Value{"value": pv},
	}), nil
}

func (s *Server) set(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	path, err := requestPath(req.Msg)
	if err != nil {
		return nil, err
	}
	value := req.Msg.GetFields()["value"].AsInterface()

	s.mu.Lock()
	s.handle.Set(path, value)
	s.handle.Flush()
	s.mu.Unlock()

	s.logger.DebugContext(ctx, "remote write",
		slog.String("path", path),
	)
	return connect.NewResponse(&structpb.Struct{}), nil
}

func (s *Server) watch(ctx context.Context, req *connect.Request[structpb.Struct], stream *connect.ServerStream[structpb.Struct]) error {
	path, err := requestPath(req.Msg)
	if err != nil {
		return err
	}

	watchID := uuid.NewString()
	updates := make(chan any, s.watchBuffer)

	s.mu.Lock()
	current, _ := s.handle.Get(path)
	dispose := s.handle.Subscribe(path, func(v any) {
		select {
		case updates <- v:
		default:
			s.logger.Warn("watch buffer full, dropping update",
				slog.String("path", path),
				slog.String("watch_id", watchID),
			)
		}
	})
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		dispose()
		s.mu.Unlock()
		s.logger.DebugContext(ctx, "watch ended",
			slog.String("path", path),
			slog.String("watch_id", watchID),
		)
	}()

	s.logger.DebugContext(ctx, "watch started",
		slog.String("path", path),
		slog.String("watch_id", watchID),
	)

	// Initial snapshot first, so a watcher always knows the current value
	// before the first change arrives.
	if err := sendUpdate(stream, path, current); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case v := <-updates:
			if err := sendUpdate(stream, path, v); err != nil {
				return err
			}
		}
	}
}

func sendUpdate(stream *connect.ServerStream[structpb.Struct], path string, value any) error {
	pv, err := structpb.NewValue(value)
	if err != nil {
		return connect.NewError(connect.CodeInternal, err)
	}
	return stream.Send(&structpb.Struct{
		Fields: map[string]*structpb.Value{
			"path":  structpb.NewStringValue(path),
			"value": pv,
		},
	})
}
