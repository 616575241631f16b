package ipc

import (
	"github.com/wippyai/fsproxy/errors"
	"github.com/wippyai/fsproxy/result"
	"github.com/wippyai/fsproxy/wire"
)

// CloseCommand is the reserved command id that drops the target object
// instead of dispatching to it.
const CloseCommand uint32 = 0xFFFFFFFF

// Codec limits. Messages beyond them are rejected while decoding.
const (
	MaxBuffers       = 8
	MaxOutBufferSize = 1 << 20
	MaxObjects       = 8
)

// Request is one command addressed to a published object.
type Request struct {
	Object  uint32
	Command uint32
	// Data is the fixed scalar part, read in field order.
	Data []byte
	// Buffers are the input attachments, e.g. path strings.
	Buffers [][]byte
	// OutBuffers are the capacities of the output attachments.
	OutBuffers []uint32
}

// Response is the outcome of one Request.
type Response struct {
	Status     result.Code
	Data       []byte
	Objects    []uint32
	OutBuffers [][]byte
}

// MarshalRequest encodes r for a transport. Layout, little-endian:
//
//	object u32, command u32,
//	len u32, data,
//	count u32, { len u32, bytes }...,
//	count u32, { capacity u32 }...
func MarshalRequest(r *Request) ([]byte, error) {
	size := 4 + 4 + 4 + len(r.Data) + 4 + 4 + 4*len(r.OutBuffers)
	for _, b := range r.Buffers {
		size += 4 + len(b)
	}
	w := wire.NewWriter(size)
	if err := writeAll(
		func() error { return w.WriteU32(r.Object) },
		func() error { return w.WriteU32(r.Command) },
		func() error { return writeBlob(w, r.Data) },
		func() error { return w.WriteU32(uint32(len(r.Buffers))) },
	); err != nil {
		return nil, err
	}
	for _, b := range r.Buffers {
		if err := writeBlob(w, b); err != nil {
			return nil, err
		}
	}
	if err := w.WriteU32(uint32(len(r.OutBuffers))); err != nil {
		return nil, err
	}
	for _, c := range r.OutBuffers {
		if err := w.WriteU32(c); err != nil {
			return nil, err
		}
	}
	return w.Bytes(), nil
}

// UnmarshalRequest decodes a request produced by MarshalRequest. Slices in
// the result alias buf.
func UnmarshalRequest(buf []byte) (*Request, error) {
	rd := wire.NewReader(buf)
	r := &Request{}
	var err error

	if r.Object, err = rd.ReadU32(); err != nil {
		return nil, err
	}
	if r.Command, err = rd.ReadU32(); err != nil {
		return nil, err
	}
	if r.Data, err = readBlob(rd); err != nil {
		return nil, err
	}

	n, err := readCount(rd, MaxBuffers, "buffers")
	if err != nil {
		return nil, err
	}
	if n > 0 {
		r.Buffers = make([][]byte, n)
	}
	for i := range r.Buffers {
		if r.Buffers[i], err = readBlob(rd); err != nil {
			return nil, err
		}
	}

	n, err = readCount(rd, MaxBuffers, "out_buffers")
	if err != nil {
		return nil, err
	}
	if n > 0 {
		r.OutBuffers = make([]uint32, n)
	}
	for i := range r.OutBuffers {
		c, err := rd.ReadU32()
		if err != nil {
			return nil, err
		}
		if c > MaxOutBufferSize {
			return nil, errors.InvalidData(errors.PhaseDecode, []string{"out_buffers"},
				"out buffer capacity exceeds limit")
		}
		r.OutBuffers[i] = c
	}

	if rd.Len() != 0 {
		return nil, errors.InvalidData(errors.PhaseDecode, []string{"request"}, "trailing bytes")
	}
	return r, nil
}

// MarshalResponse encodes r for a transport. Layout, little-endian:
//
//	status u32,
//	len u32, data,
//	count u32, { handle u32 }...,
//	count u32, { len u32, bytes }...
func MarshalResponse(r *Response) ([]byte, error) {
	size := 4 + 4 + len(r.Data) + 4 + 4*len(r.Objects) + 4
	for _, b := range r.OutBuffers {
		size += 4 + len(b)
	}
	w := wire.NewWriter(size)
	if err := writeAll(
		func() error { return w.WriteU32(r.Status.Value()) },
		func() error { return writeBlob(w, r.Data) },
		func() error { return w.WriteU32(uint32(len(r.Objects))) },
	); err != nil {
		return nil, err
	}
	for _, h := range r.Objects {
		if err := w.WriteU32(h); err != nil {
			return nil, err
		}
	}
	if err := w.WriteU32(uint32(len(r.OutBuffers))); err != nil {
		return nil, err
	}
	for _, b := range r.OutBuffers {
		if err := writeBlob(w, b); err != nil {
			return nil, err
		}
	}
	return w.Bytes(), nil
}

// UnmarshalResponse decodes a response produced by MarshalResponse.
func UnmarshalResponse(buf []byte) (*Response, error) {
	rd := wire.NewReader(buf)
	r := &Response{}

	status, err := rd.ReadU32()
	if err != nil {
		return nil, err
	}
	r.Status = result.Code(status)
	if r.Data, err = readBlob(rd); err != nil {
		return nil, err
	}

	n, err := readCount(rd, MaxObjects, "objects")
	if err != nil {
		return nil, err
	}
	if n > 0 {
		r.Objects = make([]uint32, n)
	}
	for i := range r.Objects {
		if r.Objects[i], err = rd.ReadU32(); err != nil {
			return nil, err
		}
	}

	n, err = readCount(rd, MaxBuffers, "out_buffers")
	if err != nil {
		return nil, err
	}
	if n > 0 {
		r.OutBuffers = make([][]byte, n)
	}
	for i := range r.OutBuffers {
		if r.OutBuffers[i], err = readBlob(rd); err != nil {
			return nil, err
		}
	}

	if rd.Len() != 0 {
		return nil, errors.InvalidData(errors.PhaseDecode, []string{"response"}, "trailing bytes")
	}
	return r, nil
}

func writeAll(steps ...func() error) error {
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func writeBlob(w *wire.Writer, b []byte) error {
	if err := w.WriteU32(uint32(len(b))); err != nil {
		return err
	}
	return w.WriteBytes(b)
}

func readBlob(rd *wire.Reader) ([]byte, error) {
	n, err := rd.ReadU32()
	if err != nil {
		return nil, err
	}
	if int64(n) > int64(rd.Len()) {
		return nil, errors.OutOfBounds(errors.PhaseDecode, []string{"blob"}, rd.Position(), int(n), rd.Position()+rd.Len())
	}
	return rd.ReadBytes(int(n))
}

func readCount(rd *wire.Reader, limit int, field string) (int, error) {
	n, err := rd.ReadU32()
	if err != nil {
		return 0, err
	}
	if n > uint32(limit) {
		return 0, errors.New(errors.PhaseDecode, errors.KindLimitExceeded).
			Path(field).
			Value(n).
			Detail("%d entries exceed limit of %d", n, limit).
			Build()
	}
	return int(n), nil
}
