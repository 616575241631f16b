package ipc

import (
	"sort"

	"github.com/wippyai/fsproxy/errors"
	"github.com/wippyai/fsproxy/result"
)

// Handler runs one command. The returned code is the wire status. A non-nil
// error aborts the command: if it carries a status (see errors.Code) the
// client receives that status and nothing else, otherwise the error goes
// back to the runtime.
type Handler func(ctx *Context) (result.Code, error)

// Command binds an id to its handler.
type Command struct {
	ID      uint32
	Name    string
	Handler Handler
}

// CommandTable is an immutable id to command mapping.
type CommandTable struct {
	byID    map[uint32]Command
	ordered []Command
}

// NewCommandTable builds a table. Duplicate ids panic.
func NewCommandTable(cmds ...Command) CommandTable {
	t := CommandTable{byID: make(map[uint32]Command, len(cmds))}
	for _, c := range cmds {
		if _, dup := t.byID[c.ID]; dup {
			panic("ipc: duplicate command id " + c.Name)
		}
		t.byID[c.ID] = c
		t.ordered = append(t.ordered, c)
	}
	sort.Slice(t.ordered, func(i, j int) bool { return t.ordered[i].ID < t.ordered[j].ID })
	return t
}

// Lookup finds the command with exactly id.
func (t CommandTable) Lookup(id uint32) (Command, bool) {
	c, ok := t.byID[id]
	return c, ok
}

// ByName finds a command by name.
func (t CommandTable) ByName(name string) (Command, bool) {
	for _, c := range t.ordered {
		if c.Name == name {
			return c, true
		}
	}
	return Command{}, false
}

// All returns the commands ordered by id.
func (t CommandTable) All() []Command {
	return t.ordered
}

// Len returns the number of commands.
func (t CommandTable) Len() int {
	return len(t.ordered)
}

// Service is an object a session can publish and route commands to.
type Service interface {
	Name() string
	Commands() CommandTable
	// Dispose releases the service. It is called once by the session and
	// must tolerate repeated calls.
	Dispose()
}

// Dispatch routes ctx to the command of svc named by the request. Unknown
// ids yield ErrUnknownCommand without reaching any handler. Protocol
// failures leave no payload and no published object in the response.
func Dispatch(svc Service, ctx *Context) (result.Code, error) {
	cmd, ok := svc.Commands().Lookup(ctx.Request.Command)
	if !ok {
		return abort(ctx, errors.UnknownCommand(svc.Name(), ctx.Request.Command))
	}
	code, err := cmd.Handler(ctx)
	if err != nil {
		return abort(ctx, err)
	}
	return code, nil
}

// CommandName returns the name of command id on svc, or "unknown".
func CommandName(svc Service, id uint32) string {
	if id == CloseCommand {
		return "close"
	}
	if c, ok := svc.Commands().Lookup(id); ok {
		return c.Name
	}
	return "unknown"
}

func abort(ctx *Context, err error) (result.Code, error) {
	code, ok := errors.Code(err)
	if !ok {
		return result.Success, err
	}
	ctx.abort()
	return code, nil
}
