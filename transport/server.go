package transport

import (
	"context"
	stderrors "errors"
	"io"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/fsproxy/ipc"
)

// SessionFactory creates the session served on one connection.
type SessionFactory func() (*ipc.Session, error)

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithMaxFrameSize bounds request frames.
func WithMaxFrameSize(n uint32) ServerOption {
	return func(s *Server) { s.maxFrame = n }
}

// WithIdleTimeout closes connections that send nothing for d. Zero
// disables the timeout.
func WithIdleTimeout(d time.Duration) ServerOption {
	return func(s *Server) { s.idleTimeout = d }
}

// WithLogger sets the server logger.
func WithLogger(l *zap.Logger) ServerOption {
	return func(s *Server) { s.log = l }
}

const writeTimeout = 10 * time.Second

// Server serves one ipc session per stream connection. Each request frame
// carries an ipc.MarshalRequest message and is answered with exactly one
// response frame, in order.
type Server struct {
	factory     SessionFactory
	maxFrame    uint32
	idleTimeout time.Duration
	log         *zap.Logger

	mu    sync.Mutex
	conns map[net.Conn]struct{}
	wg    sync.WaitGroup
}

// NewServer creates a server that opens a session from factory for every
// accepted connection.
func NewServer(factory SessionFactory, opts ...ServerOption) *Server {
	s := &Server{
		factory:  factory,
		maxFrame: DefaultMaxFrameSize,
		log:      zap.NewNop(),
		conns:    make(map[net.Conn]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Serve accepts connections on ln until ctx is cancelled. On cancellation
// it stops accepting, lets in-flight requests finish, closes every session
// and returns nil.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
		s.interruptAll()
	}()

	s.log.Info("listening", zap.Stringer("addr", ln.Addr()))

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || stderrors.Is(err, net.ErrClosed) {
				break
			}
			s.log.Error("accept failed", zap.Error(err))
			continue
		}

		if !s.track(conn) {
			conn.Close()
			break
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(conn)
			s.handleConn(ctx, conn)
		}()
	}

	s.wg.Wait()
	return nil
}

func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conns == nil {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}

// interruptAll unblocks every pending read so connection loops exit after
// their current request.
func (s *Server) interruptAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		conn.SetReadDeadline(time.Now())
	}
	s.conns = nil
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	log := s.log.With(zap.Stringer("remote", conn.RemoteAddr()))
	sess, err := s.factory()
	if err != nil {
		log.Error("open session", zap.Error(err))
		return
	}
	log = log.With(zap.String("session", sess.ID()))
	log.Debug("connection opened")
	defer func() {
		if err := sess.Close(); err != nil {
			log.Warn("close session", zap.Error(err))
		}
		log.Debug("connection closed")
	}()

	for {
		if s.idleTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(s.idleTimeout))
		}
		if ctx.Err() != nil {
			return
		}
		frame, err := ReadFrame(conn, s.maxFrame)
		if err != nil {
			if !stderrors.Is(err, io.EOF) && ctx.Err() == nil {
				log.Debug("read failed", zap.Error(err))
			}
			return
		}

		resp, err := s.serve(sess, frame)
		if err != nil {
			log.Warn("request failed", zap.Error(err))
			return
		}

		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := WriteFrame(conn, resp); err != nil {
			log.Debug("write failed", zap.Error(err))
			return
		}
	}
}

// serve decodes one request, runs it, and encodes the response. A
// malformed message or a contract violation ends the connection.
func (s *Server) serve(sess *ipc.Session, frame []byte) ([]byte, error) {
	req, err := ipc.UnmarshalRequest(frame)
	if err != nil {
		return nil, err
	}
	resp, err := sess.Handle(req)
	if err != nil {
		return nil, err
	}
	return ipc.MarshalResponse(resp)
}
