package ipc

import (
	"github.com/wippyai/fsproxy/errors"
	"github.com/wippyai/fsproxy/result"
	"github.com/wippyai/fsproxy/wire"
)

// Publisher makes a service reachable by the client and returns its handle.
type Publisher interface {
	Publish(svc Service) (uint32, error)
}

// Context carries one command invocation: the request cursor, the response
// cursor, attachments, and the publication port for child objects.
type Context struct {
	Request *Request
	In      *wire.Reader
	Out     *wire.Writer

	publisher Publisher
	out       [][]byte
	outLen    []int
	objects   []uint32
	aborted   bool
}

// NewContext prepares req for dispatch. responseSize bounds Out; pub
// receives any child object the handler publishes.
func NewContext(req *Request, responseSize int, pub Publisher) *Context {
	return &Context{
		Request:   req,
		In:        wire.NewReader(req.Data),
		Out:       wire.NewWriter(responseSize),
		publisher: pub,
		out:       make([][]byte, len(req.OutBuffers)),
		outLen:    make([]int, len(req.OutBuffers)),
	}
}

// BufferCount returns the number of input attachments.
func (c *Context) BufferCount() int {
	return len(c.Request.Buffers)
}

// Buffer returns input attachment i.
func (c *Context) Buffer(i int) ([]byte, error) {
	if i < 0 || i >= len(c.Request.Buffers) {
		return nil, errors.AttachmentMissing(i, len(c.Request.Buffers))
	}
	return c.Request.Buffers[i], nil
}

// OutBuffer returns output attachment i at its full requested capacity.
// Unless SetOutBufferLen trims it, the whole buffer is returned.
func (c *Context) OutBuffer(i int) ([]byte, error) {
	if i < 0 || i >= len(c.out) {
		return nil, errors.AttachmentMissing(i, len(c.out))
	}
	if c.out[i] == nil {
		c.out[i] = make([]byte, c.Request.OutBuffers[i])
		c.outLen[i] = len(c.out[i])
	}
	return c.out[i], nil
}

// SetOutBufferLen limits the bytes of output attachment i sent back.
func (c *Context) SetOutBufferLen(i, n int) {
	if i < 0 || i >= len(c.out) || c.out[i] == nil {
		return
	}
	if n < 0 {
		n = 0
	}
	if n > len(c.out[i]) {
		n = len(c.out[i])
	}
	c.outLen[i] = n
}

// Publish hands svc to the session and records its handle in the response.
func (c *Context) Publish(svc Service) (uint32, error) {
	if c.publisher == nil {
		return 0, errors.New(errors.PhaseDispatch, errors.KindUnsupported).
			Detail("context has no publisher").
			Build()
	}
	h, err := c.publisher.Publish(svc)
	if err != nil {
		return 0, err
	}
	c.objects = append(c.objects, h)
	return h, nil
}

// Objects returns the handles published during this invocation.
func (c *Context) Objects() []uint32 {
	return c.objects
}

// Aborted reports whether the invocation ended with a protocol failure.
func (c *Context) Aborted() bool {
	return c.aborted
}

// abort discards everything staged so the response carries only a status.
func (c *Context) abort() {
	c.aborted = true
	c.Out.Reset()
	for i := range c.out {
		c.out[i] = nil
		c.outLen[i] = 0
	}
}

// Response assembles the wire response for status.
func (c *Context) Response(status result.Code) *Response {
	resp := &Response{Status: status}
	if c.aborted {
		return resp
	}
	if c.Out.Len() > 0 {
		resp.Data = c.Out.Bytes()
	}
	resp.Objects = c.objects
	if len(c.out) > 0 {
		resp.OutBuffers = make([][]byte, len(c.out))
		for i, b := range c.out {
			if b == nil {
				resp.OutBuffers[i] = []byte{}
				continue
			}
			resp.OutBuffers[i] = b[:c.outLen[i]]
		}
	}
	return resp
}
