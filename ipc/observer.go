package ipc

import (
	"time"

	"github.com/wippyai/fsproxy/resource"
	"github.com/wippyai/fsproxy/result"
)

// Observer receives session activity. Implementations must be safe for
// concurrent use; every session calls it from its own goroutine.
type Observer interface {
	SessionOpened(id string)
	SessionClosed(id string)
	CommandHandled(service, command string, status result.Code, elapsed time.Duration)
	ObjectPublished(service string)
	ObjectReleased(service string)
}

// NopObserver ignores everything.
type NopObserver struct{}

func (NopObserver) SessionOpened(string) {}
func (NopObserver) SessionClosed(string) {}
func (NopObserver) CommandHandled(string, string, result.Code, time.Duration) {}
func (NopObserver) ObjectPublished(string) {}
func (NopObserver) ObjectReleased(string) {}

// tableObserver forwards object table events to an Observer.
type tableObserver struct {
	observer Observer
}

func (o tableObserver) OnResourceEvent(e resource.Event) {
	obj, ok := e.Value.(*object)
	if !ok {
		return
	}
	switch e.Type {
	case resource.EventCreated:
		o.observer.ObjectPublished(obj.svc.Name())
	case resource.EventDropped:
		o.observer.ObjectReleased(obj.svc.Name())
	}
}
