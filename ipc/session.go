package ipc

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wippyai/fsproxy/errors"
	"github.com/wippyai/fsproxy/resource"
	"github.com/wippyai/fsproxy/result"
	"github.com/wippyai/fsproxy/wire"
)

// serviceType is the table type id of every published service.
const serviceType uint32 = 1

// object is a table entry. Removing it disposes the service.
type object struct {
	svc Service
}

func (o *object) Drop() {
	o.svc.Dispose()
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithObserver reports session activity to o.
func WithObserver(o Observer) SessionOption {
	return func(s *Session) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithObjectLimit caps the number of live published objects, root included.
func WithObjectLimit(n int) SessionOption {
	return func(s *Session) { s.objectLimit = n }
}

// WithResponseSize sets the capacity of each response data region.
func WithResponseSize(n int) SessionOption {
	return func(s *Session) { s.responseSize = n }
}

// WithID overrides the generated session id.
func WithID(id string) SessionOption {
	return func(s *Session) { s.id = id }
}

// Session is one client's object space. Commands are handled one at a
// time; Handle may be called from any goroutine.
type Session struct {
	id           string
	root         uint32
	objects      *resource.UnifiedTable
	observer     Observer
	log          *zap.Logger
	objectLimit  int
	responseSize int

	mu     sync.Mutex
	closed bool
}

// NewSession publishes root as the session's first object.
func NewSession(root Service, opts ...SessionOption) (*Session, error) {
	s := &Session{
		id:           uuid.NewString(),
		observer:     NopObserver{},
		responseSize: wire.DefaultResponseSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = Logger().With(zap.String("session", s.id))
	s.objects = resource.NewTableWithLimit(s.objectLimit)
	s.objects.Subscribe(tableObserver{observer: s.observer})

	h, err := s.publish(root)
	if err != nil {
		root.Dispose()
		return nil, err
	}
	s.root = h
	s.observer.SessionOpened(s.id)
	s.log.Debug("session opened", zap.String("root", root.Name()), zap.Uint32("handle", h))
	return s, nil
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Root returns the handle of the root service.
func (s *Session) Root() uint32 {
	return s.root
}

// Objects returns the number of live published objects.
func (s *Session) Objects() int {
	return s.objects.Len()
}

// Handle runs req against its target object. Wire-level failures are
// reported in the response status. A returned error means the runtime
// broke a contract, such as using a closed session or a disposed service.
func (s *Session) Handle(req *Request) (*Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errors.New(errors.PhaseLifecycle, errors.KindDisposed).
			Path("session", s.id).
			Detail("session closed").
			Build()
	}

	if req.Command == CloseCommand {
		status := result.Success
		if err := s.closeObject(req.Object); err != nil {
			status, _ = errors.Code(err)
		}
		return &Response{Status: status}, nil
	}

	v, ok := s.objects.GetTyped(resource.Handle(req.Object), serviceType)
	if !ok {
		s.log.Debug("command for unknown object",
			zap.Uint32("object", req.Object),
			zap.Uint32("command", req.Command))
		return &Response{Status: result.ErrInvalidHandle}, nil
	}
	svc := v.(*object).svc

	ctx := NewContext(req, s.responseSize, sessionPublisher{s})
	start := time.Now()
	status, err := Dispatch(svc, ctx)
	elapsed := time.Since(start)
	name := CommandName(svc, req.Command)

	if err != nil {
		s.log.Error("dispatch failed",
			zap.String("service", svc.Name()),
			zap.String("command", name),
			zap.Error(err))
		s.dropAll(ctx.Objects())
		return nil, err
	}

	if ctx.Aborted() {
		s.dropAll(ctx.Objects())
		s.log.Debug("command rejected",
			zap.String("service", svc.Name()),
			zap.String("command", name),
			zap.Stringer("status", status))
	} else if status.IsFailure() {
		s.log.Debug("command failed",
			zap.String("service", svc.Name()),
			zap.String("command", name),
			zap.Stringer("status", status))
	}

	s.observer.CommandHandled(svc.Name(), name, status, elapsed)
	return ctx.Response(status), nil
}

// CloseObject drops one published object, disposing its service.
func (s *Session) CloseObject(handle uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeObject(handle)
}

// Close disposes every published object, newest first. It is idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	n := s.objects.Len()
	err := s.objects.Close()
	s.observer.SessionClosed(s.id)
	s.log.Debug("session closed", zap.Int("objects", n))
	return err
}

func (s *Session) closeObject(handle uint32) error {
	if _, ok := s.objects.Remove(resource.Handle(handle)); !ok {
		return errors.UnknownObject(handle)
	}
	return nil
}

func (s *Session) dropAll(handles []uint32) {
	for _, h := range handles {
		s.objects.Remove(resource.Handle(h))
	}
}

func (s *Session) publish(svc Service) (uint32, error) {
	h := s.objects.Insert(serviceType, &object{svc: svc})
	if h == 0 {
		return 0, errors.New(errors.PhaseDispatch, errors.KindLimitExceeded).
			Path(svc.Name()).
			Code(result.ErrOutOfHandles).
			Detail("object table refused %s", svc.Name()).
			Build()
	}
	return uint32(h), nil
}

// sessionPublisher publishes while the session lock is held by Handle.
type sessionPublisher struct {
	s *Session
}

func (p sessionPublisher) Publish(svc Service) (uint32, error) {
	return p.s.publish(svc)
}
