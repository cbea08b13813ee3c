package server

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"sync/atomic"
)

// MaxMsgSize caps a single frame body.
const MaxMsgSize = 16 << 20

// ReadMsg reads one frame: a big-endian uint32 length followed by a JSON
// object of that many bytes.
func ReadMsg(r io.Reader) (map[string]any, error) {
	var length uint32
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read length: %w", err)
	}
	if length > MaxMsgSize {
		return nil, fmt.Errorf("read body: frame of %d bytes exceeds %d", length, MaxMsgSize)
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	var msg map[string]any
	if err := json.Unmarshal(buf, &msg); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	return msg, nil
}

// WriteMsg writes v as one frame.
func WriteMsg(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := binary.Write(w, binary.BigEndian, uint32(len(data))); err != nil {
		return fmt.Errorf("write length: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	return nil
}

var idCounter atomic.Int64

// NextID returns a process-unique request id.
func NextID() string {
	return "req-" + strconv.FormatInt(idCounter.Add(1), 10)
}
