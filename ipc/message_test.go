package ipc

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/wippyai/fsproxy/errors"
	"github.com/wippyai/fsproxy/result"
)

func TestRequestRoundTrip(t *testing.T) {
	req := &Request{
		Object:     3,
		Command:    5,
		Data:       []byte{1, 2, 3, 4},
		Buffers:    [][]byte{[]byte("/a\x00"), []byte("/b\x00")},
		OutBuffers: []uint32{0x310},
	}

	buf, err := MarshalRequest(req)
	if err != nil {
		t.Fatalf("MarshalRequest: %v", err)
	}
	got, err := UnmarshalRequest(buf)
	if err != nil {
		t.Fatalf("UnmarshalRequest: %v", err)
	}

	if got.Object != 3 || got.Command != 5 {
		t.Errorf("header = %d/%d", got.Object, got.Command)
	}
	if !bytes.Equal(got.Data, req.Data) {
		t.Errorf("data = %x", got.Data)
	}
	if len(got.Buffers) != 2 || string(got.Buffers[1]) != "/b\x00" {
		t.Errorf("buffers = %q", got.Buffers)
	}
	if len(got.OutBuffers) != 1 || got.OutBuffers[0] != 0x310 {
		t.Errorf("out buffers = %v", got.OutBuffers)
	}
}

func TestResponseRoundTrip(t *testing.T) {
	resp := &Response{
		Status:     result.ErrPathNotFound,
		Data:       []byte{9, 9},
		Objects:    []uint32{2},
		OutBuffers: [][]byte{[]byte("entries")},
	}

	buf, err := MarshalResponse(resp)
	if err != nil {
		t.Fatalf("MarshalResponse: %v", err)
	}
	got, err := UnmarshalResponse(buf)
	if err != nil {
		t.Fatalf("UnmarshalResponse: %v", err)
	}

	if got.Status != result.ErrPathNotFound {
		t.Errorf("status = %s", got.Status)
	}
	if !bytes.Equal(got.Data, resp.Data) {
		t.Errorf("data = %x", got.Data)
	}
	if len(got.Objects) != 1 || got.Objects[0] != 2 {
		t.Errorf("objects = %v", got.Objects)
	}
	if len(got.OutBuffers) != 1 || string(got.OutBuffers[0]) != "entries" {
		t.Errorf("out buffers = %q", got.OutBuffers)
	}
}

func TestUnmarshalRequestRejects(t *testing.T) {
	valid, _ := MarshalRequest(&Request{Object: 1, Command: 0, Data: []byte{0}})

	tooMany := make([]byte, 0, 16)
	tooMany = binary.LittleEndian.AppendUint32(tooMany, 1)
	tooMany = binary.LittleEndian.AppendUint32(tooMany, 0)
	tooMany = binary.LittleEndian.AppendUint32(tooMany, 0)
	tooMany = binary.LittleEndian.AppendUint32(tooMany, MaxBuffers+1)

	hugeBlob := make([]byte, 0, 12)
	hugeBlob = binary.LittleEndian.AppendUint32(hugeBlob, 1)
	hugeBlob = binary.LittleEndian.AppendUint32(hugeBlob, 0)
	hugeBlob = binary.LittleEndian.AppendUint32(hugeBlob, 0xFFFFFFFF)

	bigOut, _ := MarshalRequest(&Request{OutBuffers: []uint32{MaxOutBufferSize + 1}})

	tests := []struct {
		name string
		buf  []byte
		kind errors.Kind
	}{
		{"empty", nil, errors.KindOutOfBounds},
		{"truncated", valid[:len(valid)-1], errors.KindOutOfBounds},
		{"trailing", append(append([]byte{}, valid...), 0), errors.KindInvalidData},
		{"too many buffers", tooMany, errors.KindLimitExceeded},
		{"blob past end", hugeBlob, errors.KindOutOfBounds},
		{"out buffer too large", bigOut, errors.KindInvalidData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalRequest(tt.buf)
			if err == nil {
				t.Fatal("expected error")
			}
			var e *errors.Error
			if !asError(err, &e) || e.Kind != tt.kind || e.Phase != errors.PhaseDecode {
				t.Errorf("got %v, want decode %s", err, tt.kind)
			}
		})
	}
}

func asError(err error, target **errors.Error) bool {
	e, ok := err.(*errors.Error)
	if ok {
		*target = e
	}
	return ok
}
