package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/fsproxy/fsp"
	"github.com/wippyai/fsproxy/ipc"
	"github.com/wippyai/fsproxy/provider"
	"github.com/wippyai/fsproxy/result"
	"github.com/wippyai/fsproxy/wire"
)

// caller sends one request and waits for its response.
type caller interface {
	Call(ctx context.Context, req *ipc.Request) (*ipc.Response, error)
}

// localCaller runs requests against an in-process session.
type localCaller struct {
	session *ipc.Session
}

func (c localCaller) Call(_ context.Context, req *ipc.Request) (*ipc.Response, error) {
	return c.session.Handle(req)
}

type paramInfo struct {
	name    string
	witType wit.Type
}

// commandInfo describes one command a user can issue. Filesystem commands
// target the root object; child commands take the object handle as their
// first argument.
type commandInfo struct {
	name   string
	params []paramInfo
	output string
	build  func(root uint32, args []any) (*ipc.Request, error)
	render func(*ipc.Response) string
}

func p(name string, t wit.Type) paramInfo {
	return paramInfo{name: name, witType: t}
}

var (
	pathParam   = p("path", wit.String{})
	objectParam = p("object", wit.U32{})
)

func pathCommand(name string, id uint32, paths ...string) commandInfo {
	params := make([]paramInfo, len(paths))
	for i, n := range paths {
		params[i] = p(n, wit.String{})
	}
	return commandInfo{
		name:   name,
		params: params,
		build: func(root uint32, args []any) (*ipc.Request, error) {
			strs := make([]string, len(args))
			for i, a := range args {
				strs[i] = a.(string)
			}
			return fsp.PathRequest(root, id, strs...)
		},
	}
}

func sizeCommand(name string, id uint32) commandInfo {
	c := pathCommand(name, id, "path")
	c.output = "s64"
	c.render = renderI64("bytes")
	return c
}

func objectCommand(name string, id uint32, output string, render func(*ipc.Response) string) commandInfo {
	return commandInfo{
		name:   name,
		params: []paramInfo{objectParam},
		output: output,
		build: func(_ uint32, args []any) (*ipc.Request, error) {
			return &ipc.Request{Object: args[0].(uint32), Command: id}, nil
		},
		render: render,
	}
}

var commands = []commandInfo{
	{
		name:   "CreateFile",
		params: []paramInfo{pathParam, p("size", wit.S64{}), p("option", wit.U32{})},
		build: func(root uint32, args []any) (*ipc.Request, error) {
			return fsp.CreateFileRequest(root, args[0].(string), args[1].(int64), provider.CreateOption(args[2].(uint32)))
		},
	},
	pathCommand("DeleteFile", fsp.CmdDeleteFile, "path"),
	pathCommand("CreateDirectory", fsp.CmdCreateDirectory, "path"),
	pathCommand("DeleteDirectory", fsp.CmdDeleteDirectory, "path"),
	pathCommand("DeleteDirectoryRecursively", fsp.CmdDeleteDirectoryRecursively, "path"),
	pathCommand("CleanDirectoryRecursively", fsp.CmdCleanDirectoryRecursively, "path"),
	pathCommand("RenameFile", fsp.CmdRenameFile, "from", "to"),
	pathCommand("RenameDirectory", fsp.CmdRenameDirectory, "from", "to"),
	{
		name:   "GetEntryType",
		params: []paramInfo{pathParam},
		output: "u32",
		build: func(root uint32, args []any) (*ipc.Request, error) {
			return fsp.PathRequest(root, fsp.CmdGetEntryType, args[0].(string))
		},
		render: func(resp *ipc.Response) string {
			v, err := wire.NewReader(resp.Data).ReadU32()
			if err != nil {
				return ""
			}
			return provider.EntryType(v).String()
		},
	},
	{
		name:   "OpenFile",
		params: []paramInfo{pathParam, p("mode", wit.U32{})},
		output: "object",
		build: func(root uint32, args []any) (*ipc.Request, error) {
			return fsp.OpenFileRequest(root, args[0].(string), provider.OpenMode(args[1].(uint32)))
		},
		render: renderObjects,
	},
	{
		name:   "OpenDirectory",
		params: []paramInfo{pathParam, p("filter", wit.U32{})},
		output: "object",
		build: func(root uint32, args []any) (*ipc.Request, error) {
			return fsp.OpenDirectoryRequest(root, args[0].(string), provider.DirectoryFilter(args[1].(uint32)))
		},
		render: renderObjects,
	},
	{
		name: "Commit",
		build: func(root uint32, _ []any) (*ipc.Request, error) {
			return &ipc.Request{Object: root, Command: fsp.CmdCommit}, nil
		},
	},
	sizeCommand("GetFreeSpaceSize", fsp.CmdGetFreeSpaceSize),
	sizeCommand("GetTotalSpaceSize", fsp.CmdGetTotalSpaceSize),
	{
		name:   "GetFileTimeStampRaw",
		params: []paramInfo{pathParam},
		output: "timestamps",
		build: func(root uint32, args []any) (*ipc.Request, error) {
			return fsp.PathRequest(root, fsp.CmdGetFileTimeStampRaw, args[0].(string))
		},
		render: renderTimeStamps,
	},
	{
		name:   "File.Read",
		params: []paramInfo{objectParam, p("offset", wit.S64{}), p("size", wit.S64{})},
		output: "string",
		build: func(_ uint32, args []any) (*ipc.Request, error) {
			return fsp.FileReadRequest(args[0].(uint32), args[1].(int64), args[2].(int64)), nil
		},
		render: func(resp *ipc.Response) string {
			n := renderI64("bytes")(resp)
			if len(resp.OutBuffers) == 0 {
				return n
			}
			return fmt.Sprintf("%s %q", n, resp.OutBuffers[0])
		},
	},
	{
		name:   "File.Write",
		params: []paramInfo{objectParam, p("offset", wit.S64{}), p("data", wit.String{}), p("flush", wit.Bool{})},
		build: func(_ uint32, args []any) (*ipc.Request, error) {
			var opt provider.WriteOption
			if args[3].(bool) {
				opt = provider.WriteFlush
			}
			return fsp.FileWriteRequest(args[0].(uint32), args[1].(int64), []byte(args[2].(string)), opt), nil
		},
	},
	objectCommand("File.Flush", fsp.CmdFileFlush, "", nil),
	{
		name:   "File.SetSize",
		params: []paramInfo{objectParam, p("size", wit.S64{})},
		build: func(_ uint32, args []any) (*ipc.Request, error) {
			return fsp.FileSetSizeRequest(args[0].(uint32), args[1].(int64)), nil
		},
	},
	objectCommand("File.GetSize", fsp.CmdFileGetSize, "s64", renderI64("bytes")),
	{
		name:   "Directory.Read",
		params: []paramInfo{objectParam, p("count", wit.U32{})},
		output: "entries",
		build: func(_ uint32, args []any) (*ipc.Request, error) {
			return fsp.DirectoryReadRequest(args[0].(uint32), int(args[1].(uint32))), nil
		},
		render: renderEntries,
	},
	objectCommand("Directory.GetEntryCount", fsp.CmdDirectoryGetEntryCount, "s64", renderI64("entries")),
	objectCommand("Close", ipc.CloseCommand, "", nil),
}

func init() {
	sort.Slice(commands, func(i, j int) bool { return commands[i].name < commands[j].name })
}

func lookupCommand(name string) (commandInfo, bool) {
	for _, c := range commands {
		if strings.EqualFold(c.name, name) {
			return c, true
		}
	}
	return commandInfo{}, false
}

// parseArgs converts raw strings to the Go values build expects.
func (c commandInfo) parseArgs(raw []string) ([]any, error) {
	if len(raw) != len(c.params) {
		return nil, fmt.Errorf("%s takes %d arguments, got %d", c.name, len(c.params), len(raw))
	}
	args := make([]any, len(raw))
	for i, s := range raw {
		v, err := convertArg(s, c.params[i].witType)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.params[i].name, err)
		}
		args[i] = v
	}
	return args, nil
}

// execute parses raw, sends the request, and formats the response.
func (c commandInfo) execute(ctx context.Context, cl caller, root uint32, raw []string) (string, result.Code, error) {
	args, err := c.parseArgs(raw)
	if err != nil {
		return "", 0, err
	}
	req, err := c.build(root, args)
	if err != nil {
		return "", 0, err
	}
	resp, err := cl.Call(ctx, req)
	if err != nil {
		return "", 0, err
	}
	return formatResponse(c, resp), resp.Status, nil
}

func formatResponse(c commandInfo, resp *ipc.Response) string {
	if resp.Status.IsFailure() {
		return resp.Status.Error()
	}
	if c.render == nil {
		return "ok"
	}
	return "ok " + c.render(resp)
}

func (c commandInfo) signature() string {
	params := make([]string, len(c.params))
	for i, prm := range c.params {
		params[i] = prm.name + ": " + witTypeStr(prm.witType)
	}
	s := c.name + "(" + strings.Join(params, ", ") + ")"
	if c.output != "" {
		s += " -> " + c.output
	}
	return s
}

func convertArg(value string, t wit.Type) (any, error) {
	switch t.(type) {
	case wit.String:
		return value, nil
	case wit.U32:
		v, err := strconv.ParseUint(value, 0, 32)
		return uint32(v), err
	case wit.S64:
		v, err := strconv.ParseInt(value, 0, 64)
		return v, err
	case wit.Bool:
		return strconv.ParseBool(value)
	default:
		return nil, fmt.Errorf("unsupported parameter type %s", witTypeStr(t))
	}
}

func witTypeStr(t wit.Type) string {
	switch t.(type) {
	case wit.Bool:
		return "bool"
	case wit.U32:
		return "u32"
	case wit.S64:
		return "s64"
	case wit.String:
		return "string"
	default:
		return fmt.Sprintf("%T", t)
	}
}

func renderI64(unit string) func(*ipc.Response) string {
	return func(resp *ipc.Response) string {
		v, err := wire.NewReader(resp.Data).ReadI64()
		if err != nil {
			return ""
		}
		return fmt.Sprintf("%d %s", v, unit)
	}
}

func renderObjects(resp *ipc.Response) string {
	parts := make([]string, len(resp.Objects))
	for i, o := range resp.Objects {
		parts[i] = fmt.Sprintf("object %d", o)
	}
	return strings.Join(parts, ", ")
}

func renderTimeStamps(resp *ipc.Response) string {
	r := wire.NewReader(resp.Data)
	var ts [3]int64
	for i := range ts {
		v, err := r.ReadI64()
		if err != nil {
			return ""
		}
		ts[i] = v
	}
	return fmt.Sprintf("created=%d modified=%d accessed=%d", ts[0], ts[1], ts[2])
}

func renderEntries(resp *ipc.Response) string {
	n, err := wire.NewReader(resp.Data).ReadI64()
	if err != nil || len(resp.OutBuffers) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d entries", n)
	r := wire.NewReader(resp.OutBuffers[0])
	for i := int64(0); i < n; i++ {
		e, err := fsp.DecodeDirectoryEntry(r)
		if err != nil {
			break
		}
		fmt.Fprintf(&b, "\n  %-9s %10d  %s", e.Type, e.Size, e.Name)
	}
	return b.String()
}
